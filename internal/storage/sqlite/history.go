package sqlite

import (
	"context"
	"fmt"

	"github.com/iudanet/vaultkeeper/internal/models"
)

// InsertHistory stores one previous password of an entry
func (q *Queries) InsertHistory(ctx context.Context, record *models.HistoryRecord) (int64, error) {
	result, err := q.db.ExecContext(ctx,
		`INSERT INTO PASSWORD_HISTORY (password_id, password, changed_at) VALUES (?, ?, ?)`,
		record.EntryID, record.Password, record.ChangedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert history record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted id: %w", err)
	}
	return id, nil
}

// ListHistory returns the history of one entry, newest first.
// Записи с одинаковым changed_at упорядочены по id.
func (q *Queries) ListHistory(ctx context.Context, entryID int64) ([]models.HistoryRecord, error) {
	return q.queryHistory(ctx, `
		SELECT id, password_id, password, changed_at
		FROM PASSWORD_HISTORY
		WHERE password_id = ?
		ORDER BY changed_at DESC, id DESC
	`, entryID)
}

// ListAllHistory returns every history record in insertion order
func (q *Queries) ListAllHistory(ctx context.Context) ([]models.HistoryRecord, error) {
	return q.queryHistory(ctx, `
		SELECT id, password_id, password, changed_at
		FROM PASSWORD_HISTORY
		ORDER BY id
	`)
}

func (q *Queries) queryHistory(ctx context.Context, query string, args ...any) ([]models.HistoryRecord, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	records := make([]models.HistoryRecord, 0)
	for rows.Next() {
		var record models.HistoryRecord
		if err := rows.Scan(&record.ID, &record.EntryID, &record.Password, &record.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}

	return records, nil
}

// UpdateHistoryPassword replaces the stored password of one record
func (q *Queries) UpdateHistoryPassword(ctx context.Context, id int64, password string) error {
	result, err := q.db.ExecContext(ctx, `UPDATE PASSWORD_HISTORY SET password = ? WHERE id = ?`, password, id)
	if err != nil {
		return fmt.Errorf("failed to update history password: %w", err)
	}
	return checkAffected(result)
}

// PruneHistory keeps only the newest keep records of the entry.
// keep <= 0 removes the whole history.
func (q *Queries) PruneHistory(ctx context.Context, entryID int64, keep int) error {
	if keep <= 0 {
		return q.ClearHistory(ctx, entryID)
	}

	query := `
		DELETE FROM PASSWORD_HISTORY
		WHERE password_id = ?
		AND id NOT IN (
			SELECT id FROM PASSWORD_HISTORY
			WHERE password_id = ?
			ORDER BY changed_at DESC, id DESC
			LIMIT ?
		)
	`
	if _, err := q.db.ExecContext(ctx, query, entryID, entryID, keep); err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}
	return nil
}

// ClearHistory removes the whole history of the entry
func (q *Queries) ClearHistory(ctx context.Context, entryID int64) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM PASSWORD_HISTORY WHERE password_id = ?`, entryID); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}
