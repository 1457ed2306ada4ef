package models

// Ключи таблицы SETTINGS
const (
	SettingTheme             = "theme"
	SettingInactivityTimeout = "inactivityTimeout"
)

// Допустимые значения темы
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)
