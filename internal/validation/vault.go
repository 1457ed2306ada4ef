package validation

import (
	"fmt"
	"strings"

	"github.com/iudanet/vaultkeeper/internal/models"
)

const (
	// MaxPasswordLen максимальная длина master password в байтах
	MaxPasswordLen = 1024
	// MaxHistoryLimit максимальный лимит истории паролей записи
	MaxHistoryLimit = 1000
)

// ValidateMasterPassword проверяет требования к master password
// Пароль не может быть пустым; ограничений на состав нет,
// чтобы существующие хранилища открывались прежним паролем
func ValidateMasterPassword(password string) error {
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	if len(password) > MaxPasswordLen {
		return fmt.Errorf("password must not exceed %d bytes", MaxPasswordLen)
	}

	return nil
}

// ValidateEntry проверяет запись перед сохранением
func ValidateEntry(entry models.Entry) error {
	if strings.TrimSpace(entry.Name) == "" {
		return fmt.Errorf("entry name cannot be empty")
	}

	if entry.HistoryLimit != nil {
		if *entry.HistoryLimit < 0 {
			return fmt.Errorf("history limit must not be negative")
		}
		if *entry.HistoryLimit > MaxHistoryLimit {
			return fmt.Errorf("history limit must not exceed %d", MaxHistoryLimit)
		}
	}

	return nil
}

// ValidateTheme проверяет значение настройки темы
func ValidateTheme(theme string) error {
	switch theme {
	case models.ThemeLight, models.ThemeDark:
		return nil
	default:
		return fmt.Errorf("theme must be %q or %q, got %q", models.ThemeLight, models.ThemeDark, theme)
	}
}

// ValidateInactivityTimeout проверяет таймаут бездействия в минутах (0 - выключен)
func ValidateInactivityTimeout(minutes int) error {
	if minutes < 0 {
		return fmt.Errorf("inactivity timeout must not be negative")
	}
	// Сутки - разумный верхний предел
	if minutes > 24*60 {
		return fmt.Errorf("inactivity timeout must not exceed %d minutes", 24*60)
	}
	return nil
}
