package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	// IVSize - размер IV для AES-CBC (один блок, 16 bytes)
	IVSize = aes.BlockSize

	// Separator разделяет hex(iv) и hex(ciphertext) в сохраненном значении
	Separator = ":"
)

var (
	// ErrDecryptionMismatch indicates that a value in the encrypted format
	// cannot be decrypted with the given passphrase
	ErrDecryptionMismatch = errors.New("value cannot be decrypted with the current key")

	// ErrBadPadding indicates invalid PKCS#7 padding after decryption
	ErrBadPadding = errors.New("bad padding")
)

// Encrypt шифрует plaintext с использованием AES-256-CBC
// Формат результата: hex(iv) + ":" + hex(ciphertext)
// Для каждого вызова генерируется новый случайный IV
func Encrypt(plaintext string, passphrase []byte) (string, error) {
	key := DeriveKey(passphrase)

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	iv := make([]byte, IVSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("failed to generate iv: %w", err)
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return hex.EncodeToString(iv) + Separator + hex.EncodeToString(ciphertext), nil
}

// Decrypt дешифрует значение, зашифрованное с помощью Encrypt
// Значение не в формате "hex:hex" возвращается без изменений (legacy plaintext)
func Decrypt(ciphertext string, passphrase []byte) (string, error) {
	text, _, err := decrypt(ciphertext, passphrase)
	return text, err
}

// Result is the outcome of opening a stored value: either the decrypted
// text or the stored value itself when it could not be decrypted.
type Result struct {
	Text     string
	Fallback bool
}

// Open decrypts a stored value and never fails. Values that are not in the
// encrypted format or do not decrypt with passphrase come back verbatim
// with Fallback set.
func Open(stored string, passphrase []byte) Result {
	if stored == "" {
		return Result{}
	}

	text, legacy, err := decrypt(stored, passphrase)
	if err != nil {
		return Result{Text: stored, Fallback: true}
	}
	return Result{Text: text, Fallback: legacy}
}

// IsEncrypted reports whether value has the "hex(iv):hex(ciphertext)" shape
func IsEncrypted(value string) bool {
	_, _, ok := split(value)
	return ok
}

func decrypt(value string, passphrase []byte) (string, bool, error) {
	ivHex, dataHex, ok := split(value)
	if !ok {
		return value, true, nil
	}

	iv, err := hex.DecodeString(ivHex)
	if err != nil {
		return value, true, nil
	}
	data, err := hex.DecodeString(dataHex)
	if err != nil {
		return value, true, nil
	}

	if len(iv) != IVSize {
		return "", false, fmt.Errorf("%w: iv must be %d bytes, got %d", ErrDecryptionMismatch, IVSize, len(iv))
	}
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return "", false, fmt.Errorf("%w: ciphertext is not a multiple of the block size", ErrDecryptionMismatch)
	}

	key := DeriveKey(passphrase)
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return "", false, fmt.Errorf("failed to create cipher: %w", err)
	}

	plaintext := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, data)

	plaintext, err = pkcs7Unpad(plaintext, aes.BlockSize)
	if err != nil {
		return "", false, fmt.Errorf("%w: %w", ErrDecryptionMismatch, err)
	}
	// Секрет - произвольные байты; ключ проверяется только паддингом
	return string(plaintext), false, nil
}

// split разбирает значение на два непустых hex-сегмента
func split(value string) (string, string, bool) {
	parts := strings.Split(value, Separator)
	if len(parts) != 2 {
		return "", "", false
	}
	if !isHex(parts[0]) || !isHex(parts[1]) {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func isHex(s string) bool {
	if s == "" || len(s)%2 != 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, ErrBadPadding
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, ErrBadPadding
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, ErrBadPadding
		}
	}
	return data[:len(data)-n], nil
}
