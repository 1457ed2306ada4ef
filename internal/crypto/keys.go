package crypto

import "crypto/sha256"

// KeySize - размер ключа AES-256
const KeySize = sha256.Size

// DeriveKey возвращает ключ шифрования для passphrase
// Ключ = SHA256(passphrase), без соли и итераций: этот формат используют
// уже существующие файлы хранилища, поэтому схема не меняется
func DeriveKey(passphrase []byte) [KeySize]byte {
	return sha256.Sum256(passphrase)
}
