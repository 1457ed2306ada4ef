// Package vault implements the password vault engine: session state,
// entry CRUD with password history, master password rotation, CSV
// transfer, settings and the inactivity lock.
package vault

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/iudanet/vaultkeeper/internal/crypto"
	"github.com/iudanet/vaultkeeper/internal/models"
	"github.com/iudanet/vaultkeeper/internal/storage"
)

// ChangedAtLayout - формат changed_at: ISO-8601 UTC с миллисекундами.
// Фиксированная ширина: лексикографический порядок совпадает с хронологическим.
const ChangedAtLayout = "2006-01-02T15:04:05.000Z"

// LockReason describes why a session ended
type LockReason string

const (
	LockManual     LockReason = "manual"
	LockInactivity LockReason = "inactivity"
	LockClose      LockReason = "close"
)

// Vault is the single-user vault engine. Every operation is serialized
// by one mutex; the inactivity timer takes the same mutex.
type Vault struct {
	store    storage.Store
	logger   *slog.Logger
	now      func() time.Time
	encrypt  func(plaintext string, passphrase []byte) (string, error)
	onLock   func(reason LockReason)
	session  *Session
	timer    *time.Timer
	autoLock time.Duration
	idle     time.Duration
	mu       sync.Mutex
}

// Option configures Vault
type Option func(*Vault)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(v *Vault) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithClock sets the time source used for timestamps and activity tracking
func WithClock(now func() time.Time) Option {
	return func(v *Vault) {
		if now != nil {
			v.now = now
		}
	}
}

// WithAutoLock overrides the inactivityTimeout setting. Zero keeps the setting.
func WithAutoLock(d time.Duration) Option {
	return func(v *Vault) {
		v.autoLock = d
	}
}

// WithLockHook registers a callback invoked after the session is locked
// by the inactivity timer
func WithLockHook(fn func(reason LockReason)) Option {
	return func(v *Vault) {
		v.onLock = fn
	}
}

// New creates a locked vault on top of store
func New(store storage.Store, opts ...Option) *Vault {
	v := &Vault{
		store:   store,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
		encrypt: crypto.Encrypt,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// IsUnlocked reports whether a session is open
func (v *Vault) IsUnlocked() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.session.alive()
}

// SessionID returns the id of the open session or "" when locked
func (v *Vault) SessionID() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.session.alive() {
		return ""
	}
	return v.session.ID()
}

// Touch records user activity and postpones the inactivity lock
func (v *Vault) Touch() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.session.alive() {
		v.session.touch(v.now())
	}
}

// Lock ends the session and wipes the key
func (v *Vault) Lock() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lockLocked(LockManual)
}

// Close locks the vault and closes the store with a final flush
func (v *Vault) Close(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.lockLocked(LockClose)
	if err := v.store.Close(ctx); err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}
	return nil
}

// keyLocked returns the session key or ErrNotAuthenticated and records activity
func (v *Vault) keyLocked() ([]byte, error) {
	if !v.session.alive() {
		return nil, ErrNotAuthenticated
	}
	v.session.touch(v.now())
	return v.session.passphrase(), nil
}

// unlockLocked opens a new session for passphrase
func (v *Vault) unlockLocked(ctx context.Context, passphrase string) {
	if v.session != nil {
		v.session.destroy()
	}
	v.session = newSession(passphrase, v.now())
	v.idle = v.idleTimeout(ctx)
	v.armTimerLocked()

	v.logger.InfoContext(ctx, "vault unlocked",
		slog.String("session_id", v.session.ID()),
		slog.Duration("auto_lock", v.idle),
	)
}

func (v *Vault) lockLocked(reason LockReason) {
	v.stopTimerLocked()
	if v.session == nil {
		return
	}

	id := v.session.ID()
	v.session.destroy()
	v.session = nil

	v.logger.Info("vault locked",
		slog.String("session_id", id),
		slog.String("reason", string(reason)),
	)
}

// persist пишет образ на диск после успешного commit
func (v *Vault) persist(ctx context.Context, op string) error {
	if err := v.store.Flush(ctx); err != nil {
		v.logger.ErrorContext(ctx, "failed to flush vault",
			slog.String("op", op),
			slog.Any("error", err),
		)
		return fmt.Errorf("failed to save vault: %w", err)
	}
	return nil
}

func (v *Vault) timestamp() string {
	return v.now().UTC().Format(ChangedAtLayout)
}

// open расшифровывает сохраненное значение; нерасшифровываемое возвращается как есть
func (v *Vault) open(ctx context.Context, stored string, key []byte, attrs ...slog.Attr) string {
	result := crypto.Open(stored, key)
	if result.Fallback && crypto.IsEncrypted(stored) {
		v.logger.LogAttrs(ctx, slog.LevelDebug, "stored value not decryptable, returned raw", attrs...)
	}
	return result.Text
}

func (v *Vault) decryptEntries(ctx context.Context, entries []models.Entry, key []byte) []models.Entry {
	for i := range entries {
		entries[i].Password = v.open(ctx, entries[i].Password, key, slog.Int64("entry_id", entries[i].ID))
	}
	return entries
}

func (v *Vault) listLocked(ctx context.Context, key []byte) ([]models.Entry, error) {
	entries, err := v.store.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return v.decryptEntries(ctx, entries, key), nil
}
