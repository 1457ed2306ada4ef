package vault

import (
	"context"
	"io"
	"time"

	"github.com/iudanet/vaultkeeper/internal/models"
)

// Service defines the vault operations available to callers
type Service interface {
	MasterExists(ctx context.Context) (bool, error)
	CreateMaster(ctx context.Context, passphrase string) (bool, error)
	VerifyMaster(ctx context.Context, passphrase string) (bool, error)
	ChangeMaster(ctx context.Context, current, next string) error

	ListEntries(ctx context.Context) ([]models.Entry, error)
	GetEntry(ctx context.Context, id int64) (*models.Entry, error)
	SaveEntry(ctx context.Context, entry models.Entry) ([]models.Entry, error)
	DeleteEntry(ctx context.Context, id int64) ([]models.Entry, error)
	CopyEntry(ctx context.Context, id int64) ([]models.Entry, error)

	GetHistory(ctx context.Context, entryID int64) ([]models.HistoryRecord, error)
	ClearHistory(ctx context.Context, entryID int64) error
	PruneHistory(ctx context.Context, entryID int64, limit int) error

	ExportCSV(ctx context.Context, w io.Writer) (int, error)
	ExportCSVFile(ctx context.Context, path string) (int, error)
	ImportCSV(ctx context.Context, r io.Reader) (models.ImportResult, error)
	ImportCSVFile(ctx context.Context, path string) (models.ImportResult, error)

	Theme(ctx context.Context) (string, error)
	SetTheme(ctx context.Context, theme string) error
	InactivityTimeout(ctx context.Context) (time.Duration, error)
	SetInactivityTimeout(ctx context.Context, minutes int) error

	IsUnlocked() bool
	SessionID() string
	Touch()
	Lock()
	Close(ctx context.Context) error
}

var _ Service = (*Vault)(nil)
