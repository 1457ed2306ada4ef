package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/iudanet/vaultkeeper/internal/storage"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// memoryDSN открывает приватную in-memory базу; _pragma применяется к каждому соединению
const memoryDSN = "file:vaultkeeper?mode=memory&_pragma=foreign_keys(1)"

// FileMode - права на файл хранилища
const FileMode os.FileMode = 0o600

// Storage is the vault image: an in-memory SQLite database mirrored to a
// single file. Every committed change reaches the file only through Flush.
type Storage struct {
	*Queries
	db     *sql.DB
	logger *slog.Logger
	path   string
	mu     sync.Mutex
	closed bool
}

// Option configures Storage
type Option func(*Storage)

// WithLogger sets the logger used by the storage
func WithLogger(logger *slog.Logger) Option {
	return func(s *Storage) {
		if logger != nil {
			s.logger = logger
		}
	}
}

var _ storage.Store = (*Storage)(nil)

// Open loads the image stored at path into a fresh in-memory database.
// A missing file yields an empty vault; the file is created by the initial flush.
func Open(ctx context.Context, path string, opts ...Option) (*Storage, error) {
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Открываем in-memory базу
	db, err := sql.Open("sqlite", memoryDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Весь образ живет в одном соединении: второе соединение увидело бы пустую базу
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set pragma: %w", err)
	}

	s := &Storage{
		Queries: &Queries{db: db},
		db:      db,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		path:    path,
	}
	for _, opt := range opts {
		opt(s)
	}

	loaded, err := s.load(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load database file: %w", err)
	}

	// Запускаем миграции
	if err := s.runMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := s.Flush(ctx); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.DebugContext(ctx, "vault image opened",
		slog.String("path", path),
		slog.Bool("loaded", loaded),
	)

	return s, nil
}

// Path returns the backing file path
func (s *Storage) Path() string {
	return s.path
}

// Flush serializes the image and atomically replaces the backing file.
// On failure the previous file content stays intact.
func (s *Storage) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrStorageClosed
	}
	return s.flushLocked(ctx)
}

func (s *Storage) flushLocked(ctx context.Context) error {
	image, err := s.exportImage(ctx)
	if err != nil {
		return fmt.Errorf("failed to export database image: %w", err)
	}

	// Запись во временный файл + rename
	if err := atomic.WriteFile(s.path, bytes.NewReader(image)); err != nil {
		return fmt.Errorf("failed to write database file: %w", err)
	}
	if err := os.Chmod(s.path, FileMode); err != nil {
		return fmt.Errorf("failed to set database file permissions: %w", err)
	}

	return nil
}

// ExportImage returns the serialized database image
func (s *Storage) ExportImage(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, storage.ErrStorageClosed
	}
	return s.exportImage(ctx)
}

// Close flushes the image and closes the database connection
func (s *Storage) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	flushErr := s.flushLocked(ctx)
	if err := s.db.Close(); err != nil {
		return errors.Join(flushErr, fmt.Errorf("failed to close database: %w", err))
	}
	return flushErr
}

// load читает файл и переносит его содержимое в in-memory базу
func (s *Storage) load(ctx context.Context) (bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) == 0 {
		return false, nil
	}

	if err := s.importImage(ctx, data); err != nil {
		return false, err
	}
	return true, nil
}

// runMigrations выполняет миграции из embedded FS
func (s *Storage) runMigrations(ctx context.Context) error {
	// Устанавливаем dialect для SQLite
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	// Устанавливаем источник миграций из embedded FS
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return fmt.Errorf("goose up failed: %w", err)
	}

	return nil
}

// DB returns the underlying database connection for testing purposes
func (s *Storage) DB() *sql.DB {
	return s.db
}
