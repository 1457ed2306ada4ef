package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/iudanet/vaultkeeper/internal/models"
	"github.com/iudanet/vaultkeeper/internal/storage"
	"github.com/iudanet/vaultkeeper/internal/validation"
)

// Settings are readable and writable while the vault is locked.

// Theme returns the stored theme or "" when it was never set
func (v *Vault) Theme(ctx context.Context) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	value, err := v.getSetting(ctx, models.SettingTheme)
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetTheme stores the theme ("light" or "dark")
func (v *Vault) SetTheme(ctx context.Context, theme string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := validation.ValidateTheme(theme); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSetting, err)
	}
	return v.setSetting(ctx, models.SettingTheme, theme)
}

// InactivityTimeout returns the stored inactivity timeout; zero means disabled.
// A missing or malformed value reads as zero.
func (v *Vault) InactivityTimeout(ctx context.Context) (time.Duration, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	minutes, err := v.timeoutMinutes(ctx)
	if err != nil {
		return 0, err
	}
	return time.Duration(minutes) * time.Minute, nil
}

// SetInactivityTimeout stores the timeout in minutes and re-arms the
// inactivity timer of an open session
func (v *Vault) SetInactivityTimeout(ctx context.Context, minutes int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := validation.ValidateInactivityTimeout(minutes); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSetting, err)
	}
	if err := v.setSetting(ctx, models.SettingInactivityTimeout, strconv.Itoa(minutes)); err != nil {
		return err
	}

	if v.session.alive() {
		v.idle = v.idleTimeout(ctx)
		v.armTimerLocked()
	}
	return nil
}

func (v *Vault) getSetting(ctx context.Context, key string) (string, error) {
	if v.session.alive() {
		v.session.touch(v.now())
	}

	value, err := v.store.GetSetting(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get setting: %w", err)
	}
	return value, nil
}

func (v *Vault) setSetting(ctx context.Context, key, value string) error {
	if v.session.alive() {
		v.session.touch(v.now())
	}

	err := v.store.WithTx(ctx, func(q storage.Queries) error {
		return q.SetSetting(ctx, key, value)
	})
	if err != nil {
		return fmt.Errorf("failed to save setting: %w", err)
	}

	v.logger.DebugContext(ctx, "setting saved", slog.String("setting", key))
	return v.persist(ctx, "set_setting")
}

// timeoutMinutes читает inactivityTimeout; нечисловое значение - 0
func (v *Vault) timeoutMinutes(ctx context.Context) (int, error) {
	raw, err := v.getSetting(ctx, models.SettingInactivityTimeout)
	if err != nil {
		return 0, err
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes < 0 {
		return 0, nil
	}
	return minutes, nil
}
