// Package cli implements the vaultkeeper command line: one-shot commands
// and an interactive shell on top of the vault engine.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/iudanet/vaultkeeper/internal/cli/iocli"
	"github.com/iudanet/vaultkeeper/internal/config"
	"github.com/iudanet/vaultkeeper/internal/logging"
	"github.com/iudanet/vaultkeeper/internal/storage/sqlite"
	"github.com/iudanet/vaultkeeper/internal/vault"
)

// EnvMasterPassword - переменная окружения с master password
const EnvMasterPassword = "VAULTKEEPER_MASTER_PASSWORD"

// BuildInfo описывает сборку для команды version
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

// globalFlags - флаги корневой команды
type globalFlags struct {
	ConfigPath         string
	DBPath             string
	LogLevel           string
	MasterPasswordFile string
	AutoLock           time.Duration
}

// Cli holds the state of one process: the opened vault and the IO.
// The vault is opened lazily by the first command that needs it.
type Cli struct {
	io      iocli.IO
	vault   vault.Service
	logger  *slog.Logger
	env     map[string]string
	closers []io.Closer
	dbPath  string
	build   BuildInfo
	globals globalFlags
	// interactive - режим shell: после блокировки пароль только с клавиатуры
	interactive bool
}

func New(stdio iocli.IO, build BuildInfo) *Cli {
	return &Cli{
		io:     stdio,
		build:  build,
		logger: slog.New(slog.NewTextHandler(stdio, &slog.HandlerOptions{Level: slog.LevelWarn})),
	}
}

// Execute runs the command line args and releases the vault afterwards
func (c *Cli) Execute(ctx context.Context, args []string) error {
	cmd := c.rootCommand()
	cmd.SetArgs(args)

	err := mapCommandError(cmd.ExecuteContext(ctx))
	if closeErr := c.Close(ctx); closeErr != nil && err == nil {
		err = mapCommandError(closeErr)
	}
	return err
}

// Close locks and flushes the vault and closes the log file
func (c *Cli) Close(ctx context.Context) error {
	var errs []error
	if c.vault != nil {
		if err := c.vault.Close(ctx); err != nil {
			errs = append(errs, err)
		}
		c.vault = nil
	}
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

func (c *Cli) lookupEnv(key string) (string, bool) {
	if c.env != nil {
		value, ok := c.env[key]
		return value, ok
	}
	return os.LookupEnv(key)
}

func (c *Cli) loadConfig() (config.Config, error) {
	opts := config.LoadOptions{
		ConfigPath: c.globals.ConfigPath,
		Env:        c.env,
	}
	if c.globals.DBPath != "" {
		opts.Flags.DBPath = &c.globals.DBPath
	}
	if c.globals.LogLevel != "" {
		opts.Flags.LogLevel = &c.globals.LogLevel
	}
	if c.globals.AutoLock > 0 {
		opts.Flags.AutoLockTimeout = &c.globals.AutoLock
	}

	cfg, err := config.Load(opts)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// openVault открывает хранилище без разблокировки
func (c *Cli) openVault(ctx context.Context) (vault.Service, error) {
	if c.vault != nil {
		return c.vault, nil
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}

	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	c.logger = logger
	c.closers = append(c.closers, closer)

	store, err := sqlite.Open(ctx, cfg.Vault.DBPath, sqlite.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open vault %q: %w", cfg.Vault.DBPath, err)
	}

	c.vault = vault.New(store,
		vault.WithLogger(logger),
		vault.WithAutoLock(cfg.Vault.AutoLockTimeout),
		vault.WithLockHook(c.onLock),
	)
	c.dbPath = cfg.Vault.DBPath
	return c.vault, nil
}

// unlock открывает хранилище и проверяет master password
func (c *Cli) unlock(ctx context.Context) (vault.Service, error) {
	v, err := c.openVault(ctx)
	if err != nil {
		return nil, err
	}
	if v.IsUnlocked() {
		return v, nil
	}

	exists, err := v.MasterExists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotInitialized
	}

	password, err := c.getMasterPassword("Master password: ")
	if err != nil {
		return nil, err
	}

	ok, err := v.VerifyMaster(ctx, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, vault.ErrIncorrectPassword
	}
	return v, nil
}

// getMasterPassword retrieves the master password from, in priority order:
// 1. Environment variable VAULTKEEPER_MASTER_PASSWORD
// 2. File given by --master-password-file
// 3. Interactive prompt
//
// The interactive shell re-unlocks only through the prompt.
func (c *Cli) getMasterPassword(prompt string) (string, error) {
	if !c.interactive {
		// Приоритет 1: переменная окружения
		if envPassword, ok := c.lookupEnv(EnvMasterPassword); ok && envPassword != "" {
			return envPassword, nil
		}

		// Приоритет 2: файл
		if c.globals.MasterPasswordFile != "" {
			content, err := os.ReadFile(c.globals.MasterPasswordFile)
			if err != nil {
				return "", fmt.Errorf("failed to read password file: %w", err)
			}
			// Убираем завершающий перевод строки
			password := strings.TrimRight(string(content), "\r\n")
			if password == "" {
				return "", usageErrorf("password file is empty")
			}
			return password, nil
		}
	}

	// Приоритет 3: ввод с клавиатуры
	password, err := c.io.ReadPassword(prompt)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if password == "" {
		return "", usageErrorf("password cannot be empty")
	}
	return password, nil
}

// readNewPassword запрашивает новый пароль дважды
func (c *Cli) readNewPassword(prompt, repeatPrompt string) (string, error) {
	password, err := c.io.ReadPassword(prompt)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if password == "" {
		return "", usageErrorf("password cannot be empty")
	}

	repeated, err := c.io.ReadPassword(repeatPrompt)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if repeated != password {
		return "", ErrPasswordMismatch
	}
	return password, nil
}

// onLock вызывается таймером бездействия
func (c *Cli) onLock(reason vault.LockReason) {
	if reason == vault.LockInactivity {
		c.io.Println("")
		c.io.Println("Vault locked after inactivity.")
	}
}
