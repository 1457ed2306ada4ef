package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iudanet/vaultkeeper/internal/storage"
)

// MasterHash returns the stored master password digest
func (q *Queries) MasterHash(ctx context.Context) (string, error) {
	var hash string
	err := q.db.QueryRowContext(ctx, `SELECT password_hash FROM MASTER_PASSWORD WHERE id = 1`).Scan(&hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", storage.ErrNotFound
		}
		return "", fmt.Errorf("failed to get master password: %w", err)
	}
	return hash, nil
}

// InsertMaster stores the master password digest if none exists yet
func (q *Queries) InsertMaster(ctx context.Context, hash string) error {
	result, err := q.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO MASTER_PASSWORD (id, password_hash) VALUES (1, ?)`, hash)
	if err != nil {
		return fmt.Errorf("failed to insert master password: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	// Строка уже была: INSERT OR IGNORE ничего не вставил
	if rows == 0 {
		return storage.ErrMasterExists
	}

	return nil
}

// UpdateMasterHash replaces the stored digest
func (q *Queries) UpdateMasterHash(ctx context.Context, hash string) error {
	result, err := q.db.ExecContext(ctx, `UPDATE MASTER_PASSWORD SET password_hash = ? WHERE id = 1`, hash)
	if err != nil {
		return fmt.Errorf("failed to update master password: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrNotFound
	}

	return nil
}
