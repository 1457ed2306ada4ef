package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// imageSerializer is implemented by modernc.org/sqlite connections
type imageSerializer interface {
	Serialize() ([]byte, error)
}

// vaultTables - таблицы, переносимые при загрузке через ATTACH
var vaultTables = []string{"MASTER_PASSWORD", "SETTINGS", "PASSWORDS", "PASSWORD_HISTORY"}

// exportImage returns the bytes of the main database
func (s *Storage) exportImage(ctx context.Context) ([]byte, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	var (
		image     []byte
		supported bool
	)
	err = conn.Raw(func(driverConn any) error {
		ser, ok := driverConn.(imageSerializer)
		if !ok {
			return nil
		}
		supported = true
		var serErr error
		image, serErr = ser.Serialize()
		return serErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize database: %w", err)
	}
	if supported {
		return image, nil
	}

	return vacuumInto(ctx, conn, s.path)
}

// importImage loads the rows of a file image into the in-memory database.
// The image is attached from a temp copy. The driver's Deserialize must not
// be used here: its buffer is freed with the wrong allocator on close.
func (s *Storage) importImage(ctx context.Context, data []byte) error {
	if err := s.runMigrations(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	return attachCopy(ctx, conn, s.path, data)
}

// vacuumInto пишет копию базы во временный файл и читает его обратно
func vacuumInto(ctx context.Context, conn *sql.Conn, path string) ([]byte, error) {
	tmp, err := tempPath(path, "export")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp)

	if _, err := conn.ExecContext(ctx, "VACUUM INTO ?", tmp); err != nil {
		return nil, fmt.Errorf("failed to vacuum into temp file: %w", err)
	}

	image, err := os.ReadFile(tmp)
	if err != nil {
		return nil, fmt.Errorf("failed to read temp image: %w", err)
	}
	return image, nil
}

// attachCopy подключает образ как отдельную базу и копирует таблицы хранилища
func attachCopy(ctx context.Context, conn *sql.Conn, path string, data []byte) (err error) {
	tmp, err := tempPath(path, "import")
	if err != nil {
		return err
	}
	defer os.Remove(tmp)

	if err := os.WriteFile(tmp, data, FileMode); err != nil {
		return fmt.Errorf("failed to write temp image: %w", err)
	}

	if _, err := conn.ExecContext(ctx, "ATTACH DATABASE ? AS image", tmp); err != nil {
		return fmt.Errorf("failed to attach image: %w", err)
	}
	defer func() {
		if _, detachErr := conn.ExecContext(ctx, "DETACH DATABASE image"); detachErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to detach image: %w", detachErr))
		}
	}()

	for _, table := range vaultTables {
		columns, err := commonColumns(ctx, conn, table)
		if err != nil {
			return err
		}
		if len(columns) == 0 {
			continue
		}

		list := strings.Join(columns, ", ")
		query := fmt.Sprintf("INSERT OR REPLACE INTO main.%s (%s) SELECT %s FROM image.%s", table, list, list, table)
		if _, err := conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to copy table %s: %w", table, err)
		}
	}

	return copySequences(ctx, conn)
}

// copySequences переносит счетчики AUTOINCREMENT, чтобы id удаленных строк
// не выдавались повторно
func copySequences(ctx context.Context, conn *sql.Conn) error {
	var n int
	err := conn.QueryRowContext(ctx,
		"SELECT count(*) FROM image.sqlite_master WHERE type = 'table' AND name = 'sqlite_sequence'").Scan(&n)
	if err != nil {
		return fmt.Errorf("failed to inspect image sequences: %w", err)
	}
	if n == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(vaultTables)), ", ")
	args := make([]any, len(vaultTables))
	for i, table := range vaultTables {
		args[i] = table
	}

	// Копирование строк с явными id уже подняло счетчики main до max(id)
	query := fmt.Sprintf(`UPDATE main.sqlite_sequence
		SET seq = (SELECT i.seq FROM image.sqlite_sequence i WHERE i.name = main.sqlite_sequence.name)
		WHERE name IN (%s)
		  AND seq < (SELECT i.seq FROM image.sqlite_sequence i WHERE i.name = main.sqlite_sequence.name)`, placeholders)
	if _, err := conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to copy sequences: %w", err)
	}

	query = fmt.Sprintf(`INSERT INTO main.sqlite_sequence (name, seq)
		SELECT i.name, i.seq FROM image.sqlite_sequence i
		WHERE i.name IN (%s)
		  AND NOT EXISTS (SELECT 1 FROM main.sqlite_sequence m WHERE m.name = i.name)`, placeholders)
	if _, err := conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to copy sequences: %w", err)
	}
	return nil
}

// commonColumns возвращает колонки таблицы, которые есть и в образе, и в main
func commonColumns(ctx context.Context, conn *sql.Conn, table string) ([]string, error) {
	imageColumns, err := tableColumns(ctx, conn, "image", table)
	if err != nil {
		return nil, err
	}
	mainColumns, err := tableColumns(ctx, conn, "main", table)
	if err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(mainColumns))
	for _, c := range mainColumns {
		known[c] = struct{}{}
	}

	var columns []string
	for _, c := range imageColumns {
		if _, ok := known[c]; ok {
			columns = append(columns, c)
		}
	}
	return columns, nil
}

func tableColumns(ctx context.Context, conn *sql.Conn, schema, table string) ([]string, error) {
	rows, err := conn.QueryContext(ctx, fmt.Sprintf("SELECT name FROM pragma_table_info('%s', '%s')", table, schema))
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s.%s: %w", schema, table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan column name: %w", err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate columns: %w", err)
	}
	return columns, nil
}

func tempPath(path, purpose string) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(path), ".vaultkeeper-"+purpose+"-*.sqlite")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	// VACUUM INTO требует, чтобы файла не было
	if err := os.Remove(name); err != nil {
		return "", fmt.Errorf("failed to prepare temp file: %w", err)
	}
	return name, nil
}
