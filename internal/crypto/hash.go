package crypto

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// Digest хеширует master password с использованием SHA256
// Возвращает hex-encoded строку, которая хранится в MASTER_PASSWORD
func Digest(passphrase []byte) string {
	hash := sha256.Sum256(passphrase)
	return hex.EncodeToString(hash[:])
}

// VerifyDigest проверяет, соответствует ли passphrase сохраненному хешу
func VerifyDigest(passphrase []byte, digest string) error {
	if digest == "" {
		return fmt.Errorf("stored digest cannot be empty")
	}

	computed := Digest(passphrase)
	if subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) != 1 {
		return fmt.Errorf("invalid passphrase")
	}

	return nil
}
