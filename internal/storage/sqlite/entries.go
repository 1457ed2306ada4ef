package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iudanet/vaultkeeper/internal/models"
	"github.com/iudanet/vaultkeeper/internal/storage"
)

const entryColumns = `id, name, url, category, username, password, notes, history_limit, last_updated`

// scanner - общий интерфейс *sql.Row и *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

// scanEntry читает строку PASSWORDS; NULL в текстовых колонках превращается в ""
func scanEntry(row scanner) (models.Entry, error) {
	var (
		entry                                    models.Entry
		url, category, username, password, notes sql.NullString
		lastUpdated                              sql.NullString
		historyLimit                             sql.NullInt64
	)

	if err := row.Scan(
		&entry.ID,
		&entry.Name,
		&url,
		&category,
		&username,
		&password,
		&notes,
		&historyLimit,
		&lastUpdated,
	); err != nil {
		return models.Entry{}, err
	}

	entry.URL = url.String
	entry.Category = category.String
	entry.Username = username.String
	entry.Password = password.String
	entry.Notes = notes.String
	entry.LastUpdated = lastUpdated.String
	if historyLimit.Valid {
		entry.HistoryLimit = models.IntPtr(int(historyLimit.Int64))
	}

	return entry, nil
}

// nullableLimit converts the optional limit into a SQL value
func nullableLimit(limit *int) sql.NullInt64 {
	if limit == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*limit), Valid: true}
}

// ListEntries returns all entries ordered by name
func (q *Queries) ListEntries(ctx context.Context) ([]models.Entry, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM PASSWORDS ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	entries := make([]models.Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}

	return entries, nil
}

// GetEntry retrieves entry by ID
func (q *Queries) GetEntry(ctx context.Context, id int64) (*models.Entry, error) {
	entry, err := scanEntry(q.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM PASSWORDS WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return &entry, nil
}

// InsertEntry stores a new entry and returns the assigned id
func (q *Queries) InsertEntry(ctx context.Context, entry *models.Entry) (int64, error) {
	query := `
		INSERT INTO PASSWORDS (name, url, category, username, password, notes, history_limit, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`

	result, err := q.db.ExecContext(ctx, query,
		entry.Name,
		entry.URL,
		entry.Category,
		entry.Username,
		entry.Password,
		entry.Notes,
		nullableLimit(entry.HistoryLimit),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted id: %w", err)
	}

	return id, nil
}

// UpdateEntry rewrites an existing entry and stamps last_updated
func (q *Queries) UpdateEntry(ctx context.Context, entry *models.Entry) error {
	query := `
		UPDATE PASSWORDS
		SET name = ?, url = ?, category = ?, username = ?, password = ?, notes = ?,
		    history_limit = ?, last_updated = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	result, err := q.db.ExecContext(ctx, query,
		entry.Name,
		entry.URL,
		entry.Category,
		entry.Username,
		entry.Password,
		entry.Notes,
		nullableLimit(entry.HistoryLimit),
		entry.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}

	return checkAffected(result)
}

// UpdateEntryPassword replaces the stored password value only
func (q *Queries) UpdateEntryPassword(ctx context.Context, id int64, password string) error {
	result, err := q.db.ExecContext(ctx, `UPDATE PASSWORDS SET password = ? WHERE id = ?`, password, id)
	if err != nil {
		return fmt.Errorf("failed to update entry password: %w", err)
	}
	return checkAffected(result)
}

// DeleteEntry removes the entry, history rows go with it (ON DELETE CASCADE)
func (q *Queries) DeleteEntry(ctx context.Context, id int64) error {
	result, err := q.db.ExecContext(ctx, `DELETE FROM PASSWORDS WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return checkAffected(result)
}

// checkAffected возвращает ErrNotFound, если запрос не затронул ни одной строки
func checkAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}
