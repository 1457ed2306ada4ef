package models

// Entry представляет учетную запись хранилища (строка PASSWORDS).
// На границе движка Password хранит открытый текст, на границе storage - шифртекст.
type Entry struct {
	HistoryLimit *int   `json:"history_limit,omitempty"` // HistoryLimit сколько старых паролей хранить (nil или 0 - без ограничения)
	Name         string `json:"name"`                    // Name название записи (например, "Bank")
	URL          string `json:"url"`                     // URL опциональный адрес сайта
	Category     string `json:"category"`                // Category произвольная категория
	Username     string `json:"username"`                // Username логин или email
	Password     string `json:"password"`                // Password секрет
	Notes        string `json:"notes"`                   // Notes заметки пользователя
	LastUpdated  string `json:"last_updated,omitempty"`  // LastUpdated время последней записи (CURRENT_TIMESTAMP)
	ID           int64  `json:"id"`                      // ID идентификатор, 0 - новая запись
}

// IsNew reports whether the entry has not been stored yet
func (e Entry) IsNew() bool {
	return e.ID == 0
}

// Limit возвращает лимит истории, 0 означает "без ограничения"
func (e Entry) Limit() int {
	if e.HistoryLimit == nil || *e.HistoryLimit < 0 {
		return 0
	}
	return *e.HistoryLimit
}

// IntPtr возвращает указатель на v (удобно для HistoryLimit)
func IntPtr(v int) *int {
	return &v
}

// HistoryRecord представляет прежнее значение пароля записи (строка PASSWORD_HISTORY)
type HistoryRecord struct {
	Password  string `json:"password"`   // Password прежний пароль
	ChangedAt string `json:"changed_at"` // ChangedAt момент смены, ISO-8601 UTC с миллисекундами
	ID        int64  `json:"id"`
	EntryID   int64  `json:"entry_id"` // EntryID ссылка на PASSWORDS.id
}

// ImportResult итог импорта CSV
type ImportResult struct {
	Imported int `json:"imported"` // Imported количество добавленных записей
	Skipped  int `json:"skipped"`  // Skipped строки с недостаточным числом полей
}
