package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncrypt(t *testing.T) {
	passphrase := []byte("correct horse")

	tests := []struct {
		name      string
		plaintext string
	}{
		{name: "simple text", plaintext: "Hello, World!"},
		{name: "exact block size", plaintext: "0123456789abcdef"},
		{name: "unicode text", plaintext: "Привет, мир! 🌍"},
		{name: "text with separator", plaintext: "user:pass"},
		{name: "empty text", plaintext: ""},
		{name: "latin-1 bytes", plaintext: "caf\xe9"},
		{name: "arbitrary bytes", plaintext: "\x00\xff\xfe\x80"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encrypted, err := Encrypt(tt.plaintext, passphrase)
			require.NoError(t, err)

			parts := strings.Split(encrypted, Separator)
			require.Len(t, parts, 2, "формат должен быть iv:ciphertext")
			assert.Len(t, parts[0], IVSize*2, "iv должен быть 16 bytes в hex")
			assert.Regexp(t, "^[0-9a-f]+$", parts[1])
			assert.Zero(t, len(parts[1])%(IVSize*2), "ciphertext должен быть кратен размеру блока")
			assert.True(t, IsEncrypted(encrypted))

			decrypted, err := Decrypt(encrypted, passphrase)
			require.NoError(t, err)
			assert.Equal(t, tt.plaintext, decrypted)
		})
	}
}

func TestEncrypt_Randomness(t *testing.T) {
	// Одинаковые данные шифруются по-разному из-за случайного IV
	passphrase := []byte("k")

	encrypted1, err := Encrypt("same data", passphrase)
	require.NoError(t, err)
	encrypted2, err := Encrypt("same data", passphrase)
	require.NoError(t, err)

	assert.NotEqual(t, encrypted1, encrypted2)
}

func TestDecrypt_KnownVector(t *testing.T) {
	// Значение в формате существующих файлов: ключ SHA256("correct horse"), IV 00..0f
	stored := "000102030405060708090a0b0c0d0e0f:b6a010e7b3ed4863aea7790e647e9017"

	decrypted, err := Decrypt(stored, []byte("correct horse"))
	require.NoError(t, err)
	assert.Equal(t, "hunter22", decrypted)
}

func TestDecrypt(t *testing.T) {
	passphrase := []byte("correct horse")
	valid, err := Encrypt("test message", passphrase)
	require.NoError(t, err)

	tests := []struct {
		name       string
		input      string
		want       string
		passphrase []byte
		wantErr    error
	}{
		{
			name:       "successful decryption",
			input:      valid,
			passphrase: passphrase,
			want:       "test message",
		},
		{
			name:       "legacy plaintext without separator",
			input:      "plain-old-password",
			passphrase: passphrase,
			want:       "plain-old-password",
		},
		{
			name:       "legacy plaintext with non-hex segments",
			input:      "user:pass",
			passphrase: passphrase,
			want:       "user:pass",
		},
		{
			name:       "three segments",
			input:      "aa:bb:cc",
			passphrase: passphrase,
			want:       "aa:bb:cc",
		},
		{
			name:       "empty segments",
			input:      ":",
			passphrase: passphrase,
			want:       ":",
		},
		{
			name:       "ciphertext not a block multiple",
			input:      "000102030405060708090a0b0c0d0e0f:abcd",
			passphrase: passphrase,
			wantErr:    ErrDecryptionMismatch,
		},
		{
			name:       "short iv",
			input:      "0001:b6a010e7b3ed4863aea7790e647e9017",
			passphrase: passphrase,
			wantErr:    ErrDecryptionMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decrypted, err := Decrypt(tt.input, tt.passphrase)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, decrypted)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, decrypted)
		})
	}
}

func TestDecrypt_WrongKey(t *testing.T) {
	encrypted, err := Encrypt("S3cret!", []byte("right key"))
	require.NoError(t, err)

	// Чужой ключ: либо ошибка, либо результат отличается от исходного
	decrypted, err := Decrypt(encrypted, []byte("wrong key"))
	if err != nil {
		assert.ErrorIs(t, err, ErrDecryptionMismatch)
		return
	}
	assert.NotEqual(t, "S3cret!", decrypted)
}

func TestOpen(t *testing.T) {
	passphrase := []byte("master")
	encrypted, err := Encrypt("p1", passphrase)
	require.NoError(t, err)

	tests := []struct {
		name   string
		stored string
		want   Result
	}{
		{
			name:   "decrypted",
			stored: encrypted,
			want:   Result{Text: "p1"},
		},
		{
			name:   "empty value",
			stored: "",
			want:   Result{},
		},
		{
			name:   "legacy plaintext",
			stored: "plain",
			want:   Result{Text: "plain", Fallback: true},
		},
		{
			name:   "undecryptable value returned raw",
			stored: "000102030405060708090a0b0c0d0e0f:abcd",
			want:   Result{Text: "000102030405060708090a0b0c0d0e0f:abcd", Fallback: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Open(tt.stored, passphrase))
		})
	}
}

func TestPKCS7(t *testing.T) {
	padded := pkcs7Pad([]byte("abc"), 16)
	require.Len(t, padded, 16)
	assert.Equal(t, byte(13), padded[15])

	unpadded, err := pkcs7Unpad(padded, 16)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), unpadded)

	full := pkcs7Pad(make([]byte, 16), 16)
	assert.Len(t, full, 32, "полный блок паддинга для данных кратных блоку")

	bad := append([]byte("0123456789abcde"), 0)
	_, err = pkcs7Unpad(bad, 16)
	assert.ErrorIs(t, err, ErrBadPadding)

	bad = append([]byte("0123456789abcd"), 3, 2)
	_, err = pkcs7Unpad(bad, 16)
	assert.ErrorIs(t, err, ErrBadPadding)
}
