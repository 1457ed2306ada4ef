package vault

import (
	"errors"

	"github.com/iudanet/vaultkeeper/internal/storage"
)

// Vault errors
var (
	// ErrNotAuthenticated indicates an operation that needs an unlocked vault
	ErrNotAuthenticated = errors.New("vault is locked")

	// ErrIncorrectPassword indicates that the current master password did not match
	ErrIncorrectPassword = errors.New("current master password is incorrect")

	// ErrUpdateFailed indicates that master password rotation was rolled back
	ErrUpdateFailed = errors.New("failed to update master password")

	// ErrInvalidInput wraps validation failures of caller input
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidSetting wraps rejected setting values
	ErrInvalidSetting = errors.New("invalid setting")

	// ErrMasterExists indicates that a master password was already created
	ErrMasterExists = storage.ErrMasterExists

	// ErrNotFound indicates an unknown entry id
	ErrNotFound = storage.ErrNotFound
)
