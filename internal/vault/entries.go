package vault

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/iudanet/vaultkeeper/internal/crypto"
	"github.com/iudanet/vaultkeeper/internal/models"
	"github.com/iudanet/vaultkeeper/internal/storage"
	"github.com/iudanet/vaultkeeper/internal/validation"
)

// DuplicateSuffix добавляется к имени копии записи
const DuplicateSuffix = "-duplicate"

// ListEntries returns all entries ordered by name with decrypted passwords.
// Values that cannot be decrypted are returned as stored.
func (v *Vault) ListEntries(ctx context.Context) ([]models.Entry, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	key, err := v.keyLocked()
	if err != nil {
		return nil, err
	}
	return v.listLocked(ctx, key)
}

// GetEntry returns one entry with its decrypted password
func (v *Vault) GetEntry(ctx context.Context, id int64) (*models.Entry, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	key, err := v.keyLocked()
	if err != nil {
		return nil, err
	}

	entry, err := v.store.GetEntry(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	entry.Password = v.open(ctx, entry.Password, key, slog.Int64("entry_id", entry.ID))
	return entry, nil
}

// SaveEntry inserts a new entry (ID == 0) or updates an existing one and
// returns the refreshed list. On update, a changed non-empty password is
// recorded in the history, which is then pruned to the entry limit.
func (v *Vault) SaveEntry(ctx context.Context, entry models.Entry) ([]models.Entry, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	key, err := v.keyLocked()
	if err != nil {
		return nil, err
	}

	if err := validation.ValidateEntry(entry); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	err = v.store.WithTx(ctx, func(q storage.Queries) error {
		row := entry

		if entry.IsNew() {
			if err := v.sealPassword(&row, key); err != nil {
				return err
			}
			id, err := q.InsertEntry(ctx, &row)
			if err != nil {
				return err
			}
			v.logger.DebugContext(ctx, "entry created", slog.Int64("entry_id", id))
			return nil
		}

		existing, err := q.GetEntry(ctx, entry.ID)
		if err != nil {
			return err
		}

		// Нерасшифрованное значение вернулось без изменений: храним его как есть
		if entry.Password == existing.Password && crypto.IsEncrypted(existing.Password) &&
			crypto.Open(existing.Password, key).Fallback {
			return q.UpdateEntry(ctx, &row)
		}

		if err := v.recordHistory(ctx, q, entry, existing.Password, key); err != nil {
			return err
		}
		if err := v.sealPassword(&row, key); err != nil {
			return err
		}
		return q.UpdateEntry(ctx, &row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save entry: %w", err)
	}

	if err := v.persist(ctx, "save_entry"); err != nil {
		return nil, err
	}
	return v.listLocked(ctx, key)
}

// sealPassword шифрует непустой пароль строки перед записью
func (v *Vault) sealPassword(row *models.Entry, key []byte) error {
	if row.Password == "" {
		return nil
	}
	encrypted, err := v.encrypt(row.Password, key)
	if err != nil {
		return fmt.Errorf("failed to encrypt password: %w", err)
	}
	row.Password = encrypted
	return nil
}

// DeleteEntry removes the entry with its history and returns the refreshed list
func (v *Vault) DeleteEntry(ctx context.Context, id int64) ([]models.Entry, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	key, err := v.keyLocked()
	if err != nil {
		return nil, err
	}

	err = v.store.WithTx(ctx, func(q storage.Queries) error {
		return q.DeleteEntry(ctx, id)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete entry: %w", err)
	}
	v.logger.DebugContext(ctx, "entry deleted", slog.Int64("entry_id", id))

	if err := v.persist(ctx, "delete_entry"); err != nil {
		return nil, err
	}
	return v.listLocked(ctx, key)
}

// CopyEntry inserts a copy of the entry named "<name>-duplicate".
// The stored password is copied verbatim; history is not copied.
func (v *Vault) CopyEntry(ctx context.Context, id int64) ([]models.Entry, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	key, err := v.keyLocked()
	if err != nil {
		return nil, err
	}

	err = v.store.WithTx(ctx, func(q storage.Queries) error {
		source, err := q.GetEntry(ctx, id)
		if err != nil {
			return err
		}

		duplicate := *source
		duplicate.ID = 0
		duplicate.Name = source.Name + DuplicateSuffix

		newID, err := q.InsertEntry(ctx, &duplicate)
		if err != nil {
			return err
		}
		v.logger.DebugContext(ctx, "entry copied",
			slog.Int64("entry_id", id),
			slog.Int64("copy_id", newID),
		)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to copy entry: %w", err)
	}

	if err := v.persist(ctx, "copy_entry"); err != nil {
		return nil, err
	}
	return v.listLocked(ctx, key)
}
