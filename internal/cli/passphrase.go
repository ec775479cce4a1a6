package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNoTerminal is returned when a passphrase is needed but stdin is not
// interactive.
var ErrNoTerminal = errors.New("passphrase required but stdin is not a terminal")

// PromptPassphrase asks for a passphrase on the controlling terminal
// without echoing it. The prompt goes to stderr so stdout stays clean for
// report output.
func PromptPassphrase(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", ErrNoTerminal
	}
	return readPassphrase(os.Stderr, prompt, func() ([]byte, error) { return term.ReadPassword(fd) })
}

func readPassphrase(w io.Writer, prompt string, read func() ([]byte, error)) (string, error) {
	fmt.Fprint(w, prompt)
	raw, err := read()
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read passphrase: %w", err)
	}
	pass := strings.TrimRight(string(raw), "\r\n")
	if pass == "" {
		return "", errors.New("empty passphrase")
	}
	return pass, nil
}
