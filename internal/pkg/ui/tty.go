package ui

import (
	"os"

	"golang.org/x/term"
)

// isTerminal is replaced in tests.
var isTerminal = term.IsTerminal

// IsInteractive reports whether both stdin and stdout are terminals, which
// the Bubble Tea picker needs.
func IsInteractive() bool {
	return isTerminal(int(os.Stdin.Fd())) && isTerminal(int(os.Stdout.Fd()))
}
