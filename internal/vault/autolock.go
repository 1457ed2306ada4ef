package vault

import (
	"context"
	"log/slog"
	"time"
)

// idleTimeout - WithAutoLock, если задан, иначе настройка inactivityTimeout
func (v *Vault) idleTimeout(ctx context.Context) time.Duration {
	if v.autoLock > 0 {
		return v.autoLock
	}

	minutes, err := v.timeoutMinutes(ctx)
	if err != nil {
		v.logger.WarnContext(ctx, "failed to read inactivity timeout", slog.Any("error", err))
		return 0
	}
	return time.Duration(minutes) * time.Minute
}

// armTimerLocked (пере)запускает таймер бездействия текущей сессии
func (v *Vault) armTimerLocked() {
	v.stopTimerLocked()
	if v.idle <= 0 || !v.session.alive() {
		return
	}

	id := v.session.ID()
	v.timer = time.AfterFunc(v.idle, func() { v.expire(id) })
}

func (v *Vault) stopTimerLocked() {
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
}

// expire locks the session when it has been idle for the whole timeout.
// Activity since arming moves the deadline instead.
func (v *Vault) expire(sessionID string) {
	v.mu.Lock()

	if !v.session.alive() || v.session.ID() != sessionID || v.idle <= 0 {
		v.mu.Unlock()
		return
	}

	if remaining := v.idle - v.now().Sub(v.session.LastActivity()); remaining > 0 {
		v.timer = time.AfterFunc(remaining, func() { v.expire(sessionID) })
		v.mu.Unlock()
		return
	}

	v.lockLocked(LockInactivity)
	hook := v.onLock
	v.mu.Unlock()

	if hook != nil {
		hook(LockInactivity)
	}
}
