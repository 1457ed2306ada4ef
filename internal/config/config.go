// Package config loads the vaultkeeper configuration:
// defaults, then the TOML file, then environment, then flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	// AppName - имя каталога приложения в пользовательском config dir
	AppName = "vaultkeeper"
	// DefaultDBFile - имя файла хранилища по умолчанию
	DefaultDBFile = "pm.sqlite"
	// DefaultConfigFile - имя конфигурационного файла по умолчанию
	DefaultConfigFile = "config.toml"

	defaultLogLevel     = "warn"
	defaultLogMaxSizeMB = 10
	defaultLogMaxFiles  = 5

	maxAutoLockTimeout = 24 * time.Hour
)

// Переменные окружения
const (
	EnvConfigPath = "VAULTKEEPER_CONFIG"
	EnvDBPath     = "VAULTKEEPER_DB_PATH"
	EnvAutoLock   = "VAULTKEEPER_AUTO_LOCK"
	EnvLogLevel   = "VAULTKEEPER_LOG_LEVEL"
	EnvLogFile    = "VAULTKEEPER_LOG_FILE"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Vault   VaultConfig   `toml:"vault"`
	Logging LoggingConfig `toml:"logging"`
}

// VaultConfig - параметры хранилища.
// AutoLockTimeout 0 означает "брать настройку inactivityTimeout из хранилища".
type VaultConfig struct {
	DBPath          string        `toml:"db_path"`
	AutoLockTimeout time.Duration `toml:"auto_lock_timeout"`
}

// LoggingConfig - параметры логирования; пустой File означает stderr
type LoggingConfig struct {
	Level     string `toml:"level"`
	File      string `toml:"file"`
	MaxSizeMB int    `toml:"max_size_mb"`
	MaxFiles  int    `toml:"max_files"`
}

type LoadOptions struct {
	Flags      FlagOverrides
	Env        map[string]string
	ConfigPath string
}

type FlagOverrides struct {
	DBPath          *string
	AutoLockTimeout *time.Duration
	LogLevel        *string
}

// DefaultConfig returns the configuration used when nothing is overridden
func DefaultConfig() (Config, error) {
	dir, err := appDir(LoadOptions{})
	if err != nil {
		return Config{}, err
	}
	return defaults(dir), nil
}

func defaults(dir string) Config {
	return Config{
		Vault: VaultConfig{
			DBPath: filepath.Join(dir, DefaultDBFile),
		},
		Logging: LoggingConfig{
			Level:     defaultLogLevel,
			MaxSizeMB: defaultLogMaxSizeMB,
			MaxFiles:  defaultLogMaxFiles,
		},
	}
}

// Load builds the configuration. A missing config file is not an error.
func Load(opts LoadOptions) (Config, error) {
	dir, err := appDir(opts)
	if err != nil {
		return Config{}, fmt.Errorf("resolve config dir: %w", err)
	}
	cfg := defaults(dir)

	configPath := resolveConfigPath(opts, dir)
	if err := loadAndApplyFile(configPath, &cfg); err != nil {
		return Config{}, err
	}

	if err := applyEnvOverrides(&cfg, opts); err != nil {
		return Config{}, err
	}
	applyFlagOverrides(&cfg, opts.Flags)

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

type rawConfig struct {
	Vault   *rawVault   `toml:"vault"`
	Logging *rawLogging `toml:"logging"`
}

type rawVault struct {
	DBPath          *string `toml:"db_path"`
	AutoLockTimeout *string `toml:"auto_lock_timeout"`
}

type rawLogging struct {
	Level     *string `toml:"level"`
	File      *string `toml:"file"`
	MaxSizeMB *int    `toml:"max_size_mb"`
	MaxFiles  *int    `toml:"max_files"`
}

func loadAndApplyFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file %q: %w", path, err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: parse TOML file %q: %v", ErrInvalidConfig, path, err)
	}

	return applyRawConfig(cfg, raw, filepath.Dir(path))
}

// applyRawConfig переносит заданные в файле поля; относительный db_path
// считается от каталога конфигурационного файла
func applyRawConfig(cfg *Config, raw rawConfig, baseDir string) error {
	if raw.Vault != nil {
		if raw.Vault.DBPath != nil {
			cfg.Vault.DBPath = resolvePath(baseDir, *raw.Vault.DBPath)
		}
		if err := setDuration("vault.auto_lock_timeout", raw.Vault.AutoLockTimeout, &cfg.Vault.AutoLockTimeout); err != nil {
			return err
		}
	}

	if raw.Logging != nil {
		setString(raw.Logging.Level, &cfg.Logging.Level)
		setString(raw.Logging.File, &cfg.Logging.File)
		setInt(raw.Logging.MaxSizeMB, &cfg.Logging.MaxSizeMB)
		setInt(raw.Logging.MaxFiles, &cfg.Logging.MaxFiles)
	}

	return nil
}

func applyEnvOverrides(cfg *Config, opts LoadOptions) error {
	if value, ok := lookupEnv(opts, EnvDBPath); ok && value != "" {
		cfg.Vault.DBPath = value
	}

	if value, ok := lookupEnv(opts, EnvAutoLock); ok {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, EnvAutoLock, err)
		}
		cfg.Vault.AutoLockTimeout = d
	}

	if value, ok := lookupEnv(opts, EnvLogLevel); ok {
		cfg.Logging.Level = value
	}
	if value, ok := lookupEnv(opts, EnvLogFile); ok {
		cfg.Logging.File = value
	}

	return nil
}

func applyFlagOverrides(cfg *Config, flags FlagOverrides) {
	if flags.DBPath != nil && *flags.DBPath != "" {
		cfg.Vault.DBPath = *flags.DBPath
	}
	if flags.AutoLockTimeout != nil {
		cfg.Vault.AutoLockTimeout = *flags.AutoLockTimeout
	}
	if flags.LogLevel != nil && *flags.LogLevel != "" {
		cfg.Logging.Level = *flags.LogLevel
	}
}

func validate(cfg Config) error {
	if cfg.Vault.DBPath == "" {
		return fmt.Errorf("%w: vault.db_path must not be empty", ErrInvalidConfig)
	}
	if cfg.Vault.AutoLockTimeout < 0 || cfg.Vault.AutoLockTimeout > maxAutoLockTimeout {
		return fmt.Errorf("%w: vault.auto_lock_timeout must be >= 0 and <= 24h", ErrInvalidConfig)
	}
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: logging.level must be one of debug, info, warn, error", ErrInvalidConfig)
	}
	if cfg.Logging.MaxSizeMB <= 0 {
		return fmt.Errorf("%w: logging.max_size_mb must be > 0", ErrInvalidConfig)
	}
	if cfg.Logging.MaxFiles < 0 {
		return fmt.Errorf("%w: logging.max_files must be >= 0", ErrInvalidConfig)
	}
	return nil
}

func setDuration(field string, raw *string, target *time.Duration) error {
	if raw == nil {
		return nil
	}
	d, err := time.ParseDuration(*raw)
	if err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, field, err)
	}
	*target = d
	return nil
}

func setString(raw *string, target *string) {
	if raw != nil {
		*target = *raw
	}
}

func setInt(raw *int, target *int) {
	if raw != nil {
		*target = *raw
	}
}

func resolveConfigPath(opts LoadOptions, dir string) string {
	if opts.ConfigPath != "" {
		return opts.ConfigPath
	}
	if value, ok := lookupEnv(opts, EnvConfigPath); ok && value != "" {
		return value
	}
	return filepath.Join(dir, DefaultConfigFile)
}

func resolvePath(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

func lookupEnv(opts LoadOptions, key string) (string, bool) {
	if opts.Env != nil {
		if value, ok := opts.Env[key]; ok {
			return value, true
		}
	}
	return os.LookupEnv(key)
}

// appDir - каталог приложения: $XDG_CONFIG_HOME/vaultkeeper или его аналог ОС
func appDir(opts LoadOptions) (string, error) {
	if xdg, ok := lookupEnv(opts, "XDG_CONFIG_HOME"); ok && xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dir, AppName), nil
}
