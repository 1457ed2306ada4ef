package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/iudanet/vaultkeeper/internal/config"
	"github.com/iudanet/vaultkeeper/internal/vault"
)

const (
	ExitCodeSuccess    = 0
	ExitCodeGeneric    = 1
	ExitCodeUsage      = 2
	ExitCodeNotFound   = 3
	ExitCodeAuthFailed = 5
	ExitCodeIO         = 7
)

var (
	// ErrNotInitialized - хранилище без master password
	ErrNotInitialized = errors.New("vault is not initialized, run 'vaultkeeper init' first")

	// ErrPasswordMismatch - повторный ввод пароля не совпал
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// ExitError carries the process exit code of a failed command
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *ExitError) ExitCode() int {
	if e == nil {
		return ExitCodeGeneric
	}
	return e.Code
}

func asExitError(code int, err error) error {
	if err == nil {
		return nil
	}
	var withExit interface{ ExitCode() int }
	if errors.As(err, &withExit) {
		return err
	}
	return &ExitError{Code: code, Err: err}
}

// mapCommandError присваивает ошибке код завершения по ее виду
func mapCommandError(err error) error {
	if err == nil {
		return nil
	}
	var withExit interface{ ExitCode() int }
	if errors.As(err, &withExit) {
		return err
	}

	switch {
	case errors.Is(err, vault.ErrNotAuthenticated),
		errors.Is(err, vault.ErrIncorrectPassword):
		return asExitError(ExitCodeAuthFailed, err)
	case errors.Is(err, vault.ErrNotFound),
		errors.Is(err, ErrNotInitialized):
		return asExitError(ExitCodeNotFound, err)
	case errors.Is(err, vault.ErrInvalidInput),
		errors.Is(err, vault.ErrInvalidSetting),
		errors.Is(err, vault.ErrMasterExists),
		errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, ErrPasswordMismatch):
		return asExitError(ExitCodeUsage, err)
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) || errors.Is(err, os.ErrNotExist) {
		return asExitError(ExitCodeIO, err)
	}

	// cobra не типизирует ошибки разбора команды
	lower := strings.ToLower(err.Error())
	if strings.HasPrefix(lower, "unknown command") ||
		strings.HasPrefix(lower, "unknown flag") ||
		strings.HasPrefix(lower, "unknown shorthand flag") {
		return asExitError(ExitCodeUsage, err)
	}

	return asExitError(ExitCodeGeneric, err)
}

func usageErrorf(format string, args ...any) error {
	return &ExitError{
		Code: ExitCodeUsage,
		Err:  fmt.Errorf(format, args...),
	}
}
