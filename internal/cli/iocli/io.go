// Package iocli abstracts terminal input and output so commands can be
// driven by a mock in tests.
package iocli

//go:generate moq -out io_mock.go . IO

// IO is the terminal seen by vaultkeeper commands. It is also an io.Writer,
// so cobra help and JSON output go through the same sink.
type IO interface {
	Println(a ...any)
	Printf(format string, a ...any)
	// ReadInput печатает prompt и читает строку без пробелов по краям
	ReadInput(prompt string) (string, error)
	// ReadPassword читает секрет без эха; пробелы сохраняются
	ReadPassword(prompt string) (string, error)
	Write(p []byte) (n int, err error)
}
