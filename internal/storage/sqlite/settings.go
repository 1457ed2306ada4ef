package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iudanet/vaultkeeper/internal/storage"
)

// GetSetting returns the value stored under key
func (q *Queries) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := q.db.QueryRowContext(ctx, `SELECT value FROM SETTINGS WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", storage.ErrNotFound
		}
		return "", fmt.Errorf("failed to get setting %q: %w", key, err)
	}
	return value, nil
}

// SetSetting inserts or replaces the value stored under key
func (q *Queries) SetSetting(ctx context.Context, key, value string) error {
	if _, err := q.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO SETTINGS (key, value) VALUES (?, ?)`, key, value); err != nil {
		return fmt.Errorf("failed to save setting %q: %w", key, err)
	}
	return nil
}
