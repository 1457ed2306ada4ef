package vault

import (
	"time"

	"github.com/awnumar/memguard"
	"github.com/google/uuid"
)

// Session holds the key material of an unlocked vault.
// The key lives in a memguard buffer and is wiped by destroy.
type Session struct {
	unlockedAt   time.Time
	lastActivity time.Time
	key          *memguard.LockedBuffer
	id           string
}

func newSession(passphrase string, now time.Time) *Session {
	return &Session{
		id:           uuid.NewString(),
		key:          memguard.NewBufferFromBytes([]byte(passphrase)),
		unlockedAt:   now,
		lastActivity: now,
	}
}

// ID - идентификатор сессии для корреляции логов
func (s *Session) ID() string {
	return s.id
}

// UnlockedAt returns the moment the session was opened
func (s *Session) UnlockedAt() time.Time {
	return s.unlockedAt
}

// LastActivity returns the moment of the last recorded activity
func (s *Session) LastActivity() time.Time {
	return s.lastActivity
}

func (s *Session) alive() bool {
	return s != nil && s.key != nil && s.key.IsAlive()
}

// passphrase возвращает ключевой материал; срез действителен до destroy
func (s *Session) passphrase() []byte {
	return s.key.Bytes()
}

func (s *Session) touch(now time.Time) {
	s.lastActivity = now
}

// destroy затирает ключ
func (s *Session) destroy() {
	if s != nil && s.key != nil {
		s.key.Destroy()
	}
}
