package logging

import (
	"context"
	"log/slog"
	"strings"
)

// Redacted заменяет значение чувствительного атрибута
const Redacted = "[REDACTED]"

// sensitiveKeys - ключи атрибутов, значения которых не попадают в лог
var sensitiveKeys = map[string]struct{}{
	"password":        {},
	"passphrase":      {},
	"master":          {},
	"master_password": {},
	"secret":          {},
	"key":             {},
	"plaintext":       {},
	"ciphertext":      {},
}

// RedactingHandler wraps a handler and masks the values of sensitive attributes,
// including attributes nested in groups
type RedactingHandler struct {
	inner slog.Handler
}

func NewRedactingHandler(inner slog.Handler) *RedactingHandler {
	return &RedactingHandler{inner: inner}
}

func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *RedactingHandler) Handle(ctx context.Context, record slog.Record) error {
	out := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		out.AddAttrs(redact(attr))
		return true
	})
	return h.inner.Handle(ctx, out)
}

func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		masked[i] = redact(attr)
	}
	return &RedactingHandler{inner: h.inner.WithAttrs(masked)}
}

func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{inner: h.inner.WithGroup(name)}
}

func isSensitive(key string) bool {
	_, ok := sensitiveKeys[strings.ToLower(key)]
	return ok
}

func redact(attr slog.Attr) slog.Attr {
	if isSensitive(attr.Key) {
		return slog.String(attr.Key, Redacted)
	}

	// LogValuer может раскрыться в группу с чувствительными полями
	value := attr.Value.Resolve()
	if value.Kind() != slog.KindGroup {
		return slog.Attr{Key: attr.Key, Value: value}
	}

	group := value.Group()
	nested := make([]slog.Attr, len(group))
	for i, a := range group {
		nested[i] = redact(a)
	}
	return slog.Attr{Key: attr.Key, Value: slog.GroupValue(nested...)}
}
