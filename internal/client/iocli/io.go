// Package iocli abstracts terminal input and output for the CLI.
package iocli

//go:generate moq -out io_mock.go . IO

// IO is the terminal the CLI talks to.
type IO interface {
	Println(a ...any)
	Printf(format string, a ...any)
	ReadInput(prompt string) (string, error)
	// ReadPassword reads a line without echo when attached to a terminal.
	ReadPassword(prompt string) (string, error)
	// Confirm asks a yes/no question. Anything but y or yes declines.
	Confirm(prompt string) (bool, error)
	// IsInteractive reports whether input comes from a terminal.
	IsInteractive() bool
	Write(p []byte) (n int, err error)
}
