package vault

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/iudanet/vaultkeeper/internal/models"
	"github.com/iudanet/vaultkeeper/internal/storage"
)

// csvHeader - заголовок файла экспорта
var csvHeader = []string{"name", "url", "category", "username", "password", "notes", "history_limit"}

// minImportFields - строки с меньшим числом полей пропускаются
const minImportFields = 6

// ExportCSV writes every entry with its plaintext password as CSV and
// returns the number of exported rows
func (v *Vault) ExportCSV(ctx context.Context, w io.Writer) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	key, err := v.keyLocked()
	if err != nil {
		return 0, err
	}

	entries, err := v.listLocked(ctx, key)
	if err != nil {
		return 0, err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return 0, fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, e := range entries {
		limit := ""
		if e.HistoryLimit != nil {
			limit = strconv.Itoa(*e.HistoryLimit)
		}
		record := []string{e.Name, e.URL, e.Category, e.Username, e.Password, e.Notes, limit}
		if err := writer.Write(record); err != nil {
			return 0, fmt.Errorf("failed to write csv record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return 0, fmt.Errorf("failed to flush csv: %w", err)
	}

	v.logger.InfoContext(ctx, "entries exported", slog.Int("count", len(entries)))
	return len(entries), nil
}

// ExportCSVFile exports entries to path, created with mode 0600
func (v *Vault) ExportCSVFile(ctx context.Context, path string) (int, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return 0, fmt.Errorf("failed to create export file: %w", err)
	}

	count, err := v.ExportCSV(ctx, f)
	if closeErr := f.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("failed to close export file: %w", closeErr)
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ImportCSV adds entries from CSV. The first record is the header.
// Records with fewer than six fields are skipped; all imported rows are
// written in one transaction.
func (v *Vault) ImportCSV(ctx context.Context, r io.Reader) (models.ImportResult, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	key, err := v.keyLocked()
	if err != nil {
		return models.ImportResult{}, err
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return models.ImportResult{}, fmt.Errorf("%w: failed to parse csv: %v", ErrInvalidInput, err)
	}
	if len(records) == 0 {
		return models.ImportResult{}, nil
	}

	var result models.ImportResult
	err = v.store.WithTx(ctx, func(q storage.Queries) error {
		for _, record := range records[1:] {
			if len(record) < minImportFields {
				result.Skipped++
				continue
			}

			entry := entryFromRecord(record)
			if entry.Password != "" {
				encrypted, err := v.encrypt(entry.Password, key)
				if err != nil {
					return fmt.Errorf("failed to encrypt password: %w", err)
				}
				entry.Password = encrypted
			}

			if _, err := q.InsertEntry(ctx, &entry); err != nil {
				return err
			}
			result.Imported++
		}
		return nil
	})
	if err != nil {
		return models.ImportResult{}, fmt.Errorf("failed to import entries: %w", err)
	}

	v.logger.InfoContext(ctx, "entries imported",
		slog.Int("imported", result.Imported),
		slog.Int("skipped", result.Skipped),
	)

	if err := v.persist(ctx, "import"); err != nil {
		return models.ImportResult{}, err
	}
	return result, nil
}

// ImportCSVFile imports entries from the file at path
func (v *Vault) ImportCSVFile(ctx context.Context, path string) (models.ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.ImportResult{}, fmt.Errorf("import file not found: %w", err)
		}
		return models.ImportResult{}, fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()

	return v.ImportCSV(ctx, f)
}

// entryFromRecord разбирает строку CSV; нечисловой history_limit означает "без лимита"
func entryFromRecord(record []string) models.Entry {
	entry := models.Entry{
		Name:     record[0],
		URL:      record[1],
		Category: record[2],
		Username: record[3],
		Password: record[4],
		Notes:    record[5],
	}

	if len(record) > minImportFields {
		raw := strings.TrimSpace(record[6])
		if limit, err := strconv.Atoi(raw); err == nil && limit >= 0 {
			entry.HistoryLimit = models.IntPtr(limit)
		}
	}

	return entry
}
