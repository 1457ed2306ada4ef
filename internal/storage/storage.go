package storage

import (
	"context"

	"github.com/iudanet/vaultkeeper/internal/models"
)

// MasterStorage stores the digest of the master password.
// There is at most one row.
type MasterStorage interface {
	// MasterHash returns the stored digest
	// Returns ErrNotFound if no master password was created
	MasterHash(ctx context.Context) (string, error)

	// InsertMaster stores the digest of a new master password
	// Returns ErrMasterExists if a row is already present
	InsertMaster(ctx context.Context, hash string) error

	// UpdateMasterHash replaces the stored digest
	UpdateMasterHash(ctx context.Context, hash string) error
}

// SettingsStorage is a string key/value store for user preferences
type SettingsStorage interface {
	// GetSetting returns ErrNotFound for a missing key
	GetSetting(ctx context.Context, key string) (string, error)

	// SetSetting inserts or replaces the value
	SetSetting(ctx context.Context, key, value string) error
}

// EntryStorage works with PASSWORDS rows. Password values are stored as-is
// (already encrypted by the caller).
type EntryStorage interface {
	// ListEntries returns all entries ordered by name
	ListEntries(ctx context.Context) ([]models.Entry, error)

	// GetEntry returns ErrNotFound if the entry doesn't exist
	GetEntry(ctx context.Context, id int64) (*models.Entry, error)

	// InsertEntry stores a new entry and returns its id; entry.ID is ignored
	InsertEntry(ctx context.Context, entry *models.Entry) (int64, error)

	// UpdateEntry rewrites every column of an existing entry and stamps last_updated
	UpdateEntry(ctx context.Context, entry *models.Entry) error

	// UpdateEntryPassword replaces only the stored password value
	UpdateEntryPassword(ctx context.Context, id int64, password string) error

	// DeleteEntry removes the entry; its history is removed by cascade
	DeleteEntry(ctx context.Context, id int64) error
}

// HistoryStorage works with PASSWORD_HISTORY rows
type HistoryStorage interface {
	// InsertHistory stores a history record and returns its id
	InsertHistory(ctx context.Context, record *models.HistoryRecord) (int64, error)

	// ListHistory returns history of one entry, newest first
	ListHistory(ctx context.Context, entryID int64) ([]models.HistoryRecord, error)

	// ListAllHistory returns every history record in insertion order
	ListAllHistory(ctx context.Context) ([]models.HistoryRecord, error)

	// UpdateHistoryPassword replaces the stored password of one record
	UpdateHistoryPassword(ctx context.Context, id int64, password string) error

	// PruneHistory keeps the newest keep records of the entry; keep <= 0 removes all
	PruneHistory(ctx context.Context, entryID int64, keep int) error

	// ClearHistory removes all history of the entry
	ClearHistory(ctx context.Context, entryID int64) error
}

// Queries is the full set of row operations. It is implemented both by the
// store itself and by an open transaction.
type Queries interface {
	MasterStorage
	SettingsStorage
	EntryStorage
	HistoryStorage
}

// Store is the persistent vault image
type Store interface {
	Queries

	// WithTx runs fn inside one transaction. The transaction is committed
	// when fn returns nil and rolled back otherwise.
	WithTx(ctx context.Context, fn func(q Queries) error) error

	// Flush writes the whole current image to the backing file
	Flush(ctx context.Context) error

	// Close flushes and releases the store
	Close(ctx context.Context) error
}
