package vault

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/iudanet/vaultkeeper/internal/models"
	"github.com/iudanet/vaultkeeper/internal/storage"
)

// recordHistory сохраняет прежний пароль, если он изменился и оба значения не пустые,
// затем обрезает историю до лимита записи (лимит 0 - без ограничения)
func (v *Vault) recordHistory(ctx context.Context, q storage.Queries, entry models.Entry, storedOld string, key []byte) error {
	oldPassword := v.open(ctx, storedOld, key, slog.Int64("entry_id", entry.ID))
	newPassword := entry.Password

	if oldPassword == newPassword || oldPassword == "" || newPassword == "" {
		return nil
	}

	encryptedOld, err := v.encrypt(oldPassword, key)
	if err != nil {
		return fmt.Errorf("failed to encrypt previous password: %w", err)
	}

	if _, err := q.InsertHistory(ctx, &models.HistoryRecord{
		EntryID:   entry.ID,
		Password:  encryptedOld,
		ChangedAt: v.timestamp(),
	}); err != nil {
		return err
	}

	if limit := entry.Limit(); limit > 0 {
		if err := q.PruneHistory(ctx, entry.ID, limit); err != nil {
			return err
		}
	}

	v.logger.DebugContext(ctx, "password change recorded", slog.Int64("entry_id", entry.ID))
	return nil
}

// GetHistory returns the previous passwords of an entry, newest first
func (v *Vault) GetHistory(ctx context.Context, entryID int64) ([]models.HistoryRecord, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	key, err := v.keyLocked()
	if err != nil {
		return nil, err
	}

	records, err := v.store.ListHistory(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}

	for i := range records {
		records[i].Password = v.open(ctx, records[i].Password, key,
			slog.Int64("entry_id", entryID),
			slog.Int64("history_id", records[i].ID),
		)
	}
	return records, nil
}

// ClearHistory removes the whole history of an entry
func (v *Vault) ClearHistory(ctx context.Context, entryID int64) error {
	return v.PruneHistory(ctx, entryID, 0)
}

// PruneHistory keeps the newest limit records of an entry; limit <= 0 removes all
func (v *Vault) PruneHistory(ctx context.Context, entryID int64, limit int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, err := v.keyLocked(); err != nil {
		return err
	}

	err := v.store.WithTx(ctx, func(q storage.Queries) error {
		return q.PruneHistory(ctx, entryID, limit)
	})
	if err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}

	return v.persist(ctx, "prune_history")
}
