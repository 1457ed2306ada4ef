// Package passgen generates random passwords from selectable character sets.
package passgen

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	// DefaultLength длина пароля по умолчанию
	DefaultLength = 16
	// MaxLength верхний предел длины
	MaxLength = 1024
)

// Наборы символов
const (
	Upper   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	Lower   = "abcdefghijklmnopqrstuvwxyz"
	Digits  = "0123456789"
	Symbols = "!@#$%^&*()_+-=[]{}|;:,.<>?"
)

// Options выбирает длину и наборы символов
type Options struct {
	Length  int
	Upper   bool
	Lower   bool
	Digits  bool
	Symbols bool
}

// DefaultOptions - все наборы символов, длина 16
func DefaultOptions() Options {
	return Options{
		Length:  DefaultLength,
		Upper:   true,
		Lower:   true,
		Digits:  true,
		Symbols: true,
	}
}

// Charset returns the characters selected by opts
func (o Options) Charset() string {
	var b strings.Builder
	if o.Upper {
		b.WriteString(Upper)
	}
	if o.Lower {
		b.WriteString(Lower)
	}
	if o.Digits {
		b.WriteString(Digits)
	}
	if o.Symbols {
		b.WriteString(Symbols)
	}
	return b.String()
}

// Generate returns a random password. Length <= 0 means DefaultLength.
// With no character set selected the result is an empty string.
func Generate(opts Options) (string, error) {
	length := opts.Length
	if length <= 0 {
		length = DefaultLength
	}
	if length > MaxLength {
		return "", fmt.Errorf("password length must not exceed %d", MaxLength)
	}

	charset := opts.Charset()
	if charset == "" {
		return "", nil
	}

	// rand.Int дает равномерное распределение без смещения по модулю
	limit := big.NewInt(int64(len(charset)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to generate random index: %w", err)
		}
		out[i] = charset[n.Int64()]
	}

	return string(out), nil
}
