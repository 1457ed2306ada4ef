package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/vaultkeeper/internal/models"
	"github.com/iudanet/vaultkeeper/internal/storage"
)

func TestOpen_CreatesFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "pm.sqlite")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	defer func() { _ = s.Close(ctx) }()

	// Файл создается начальным flush
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
	assert.Equal(t, FileMode, info.Mode().Perm())
	assert.Equal(t, path, s.Path())

	entries, err := s.ListEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database path cannot be empty")
}

func TestOpen_EmptyFileIsNewVault(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pm.sqlite")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	s, err := Open(ctx, path)
	require.NoError(t, err)
	defer func() { _ = s.Close(ctx) }()

	_, err = s.MasterHash(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestOpen_CorruptFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pm.sqlite")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a database image"), 0o600))

	s, err := Open(ctx, path)
	if err == nil {
		_ = s.Close(ctx)
	}
	require.Error(t, err)
}

func TestStorage_ReloadRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pm.sqlite")

	s, err := Open(ctx, path)
	require.NoError(t, err)

	require.NoError(t, s.InsertMaster(ctx, "digest"))
	require.NoError(t, s.SetSetting(ctx, models.SettingTheme, models.ThemeDark))
	id, err := s.InsertEntry(ctx, &models.Entry{
		Name:         "Bank",
		Username:     "alice",
		Password:     "cipher",
		HistoryLimit: models.IntPtr(2),
	})
	require.NoError(t, err)
	_, err = s.InsertHistory(ctx, &models.HistoryRecord{EntryID: id, Password: "old", ChangedAt: "2024-01-01T00:00:00.000Z"})
	require.NoError(t, err)
	require.NoError(t, s.Close(ctx))

	// Повторное открытие видит те же строки
	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close(ctx) }()

	hash, err := reopened.MasterHash(ctx)
	require.NoError(t, err)
	assert.Equal(t, "digest", hash)

	theme, err := reopened.GetSetting(ctx, models.SettingTheme)
	require.NoError(t, err)
	assert.Equal(t, models.ThemeDark, theme)

	entry, err := reopened.GetEntry(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Bank", entry.Name)
	assert.Equal(t, "alice", entry.Username)
	assert.Equal(t, "cipher", entry.Password)
	require.NotNil(t, entry.HistoryLimit)
	assert.Equal(t, 2, *entry.HistoryLimit)

	history, err := reopened.ListHistory(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "old", history[0].Password)
}

func TestStorage_ReopenMutateReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pm.sqlite")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	first := createTestEntry(t, ctx, s)
	last := createTestEntry(t, ctx, s)
	require.NoError(t, s.Close(ctx))

	// Второй сеанс: меняем загруженные строки и удаляем запись с наибольшим id
	s, err = Open(ctx, path)
	require.NoError(t, err)
	entry, err := s.GetEntry(ctx, first)
	require.NoError(t, err)
	entry.Name = "renamed"
	entry.Password = "rotated"
	require.NoError(t, s.UpdateEntry(ctx, entry))
	insertHistory(t, ctx, s, first, "secret", "2024-01-01T00:00:00.000Z")
	require.NoError(t, s.DeleteEntry(ctx, last))
	require.NoError(t, s.Close(ctx))

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer func() { _ = s.Close(ctx) }()

	entries, err := s.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, first, entries[0].ID)
	assert.Equal(t, "renamed", entries[0].Name)
	assert.Equal(t, "rotated", entries[0].Password)

	history, err := s.ListHistory(ctx, first)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "secret", history[0].Password)

	// Счетчик AUTOINCREMENT переживает перезагрузку
	id := createTestEntry(t, ctx, s)
	assert.Greater(t, id, last)
}

func TestStorage_UnflushedChangesAreLost(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pm.sqlite")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.InsertMaster(ctx, "digest"))

	// Второй экземпляр читает файл, в который еще ничего не записано
	other, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = other.MasterHash(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	require.NoError(t, other.DB().Close())

	require.NoError(t, s.Flush(ctx))

	other, err = Open(ctx, path)
	require.NoError(t, err)
	defer func() { _ = other.Close(ctx) }()
	hash, err := other.MasterHash(ctx)
	require.NoError(t, err)
	assert.Equal(t, "digest", hash)

	require.NoError(t, s.Close(ctx))
}

func TestStorage_LoadsFileWithoutMigrationTable(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pm.sqlite")

	// Файл в формате существующих хранилищ: схема без таблицы версий goose
	legacy, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	statements := []string{
		`CREATE TABLE MASTER_PASSWORD (id INTEGER PRIMARY KEY CHECK (id = 1), password_hash TEXT NOT NULL)`,
		`CREATE TABLE SETTINGS (key TEXT PRIMARY KEY, value TEXT NOT NULL)`,
		`CREATE TABLE PASSWORDS (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL, url TEXT, category TEXT,
			username TEXT, password TEXT, notes TEXT, history_limit INTEGER, last_updated TEXT DEFAULT CURRENT_TIMESTAMP)`,
		`CREATE TABLE PASSWORD_HISTORY (id INTEGER PRIMARY KEY AUTOINCREMENT, password_id INTEGER NOT NULL,
			password TEXT NOT NULL, changed_at TEXT NOT NULL,
			FOREIGN KEY (password_id) REFERENCES PASSWORDS(id) ON DELETE CASCADE)`,
		`INSERT INTO MASTER_PASSWORD (id, password_hash) VALUES (1, 'legacy-digest')`,
		`INSERT INTO PASSWORDS (name, url, password) VALUES ('Mail', NULL, 'plain')`,
	}
	for _, stmt := range statements {
		_, err := legacy.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}
	require.NoError(t, legacy.Close())

	s, err := Open(ctx, path)
	require.NoError(t, err)
	defer func() { _ = s.Close(ctx) }()

	hash, err := s.MasterHash(ctx)
	require.NoError(t, err)
	assert.Equal(t, "legacy-digest", hash)

	entries, err := s.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Mail", entries[0].Name)
	assert.Empty(t, entries[0].URL, "NULL читается как пустая строка")
	assert.Equal(t, "plain", entries[0].Password)
	assert.Nil(t, entries[0].HistoryLimit)
}

func TestStorage_ExportImage(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	image, err := s.ExportImage(ctx)
	require.NoError(t, err)
	// Стандартный заголовок файла SQLite
	assert.Equal(t, "SQLite format 3\x00", string(image[:16]))
}

func TestStorage_Close(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, filepath.Join(t.TempDir(), "pm.sqlite"))
	require.NoError(t, err)

	require.NoError(t, s.Close(ctx))
	// Повторный Close не является ошибкой
	require.NoError(t, s.Close(ctx))

	assert.ErrorIs(t, s.Flush(ctx), storage.ErrStorageClosed)
	_, err = s.ExportImage(ctx)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestStorage_FlushKeepsPreviousFileOnFailure(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "pm.sqlite")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	defer func() { _ = s.Close(ctx) }()

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	// Каталог только для чтения: временный файл создать нельзя
	require.NoError(t, os.Chmod(dir, 0o500))
	defer func() { _ = os.Chmod(dir, 0o700) }()
	if f, err := os.CreateTemp(dir, "probe"); err == nil {
		// root игнорирует права каталога
		_ = f.Close()
		_ = os.Remove(f.Name())
		t.Skip("directory permissions are not enforced for this user")
	}

	require.NoError(t, s.InsertMaster(ctx, "digest"))
	require.Error(t, s.Flush(ctx))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func setupTestStorage(t *testing.T) (*Storage, func()) {
	t.Helper()
	ctx := context.Background()

	s, err := Open(ctx, filepath.Join(t.TempDir(), "pm.sqlite"))
	require.NoError(t, err)

	cleanup := func() {
		_ = s.Close(ctx)
	}

	return s, cleanup
}
