package storage

import "errors"

// Common storage errors
var (
	// ErrNotFound indicates that the requested row does not exist
	ErrNotFound = errors.New("not found")

	// ErrMasterExists indicates that a master password row is already stored
	ErrMasterExists = errors.New("master password already exists")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
