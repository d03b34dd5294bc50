// Package clipboard copies the chosen commit message to the system clipboard.
package clipboard

import (
	"github.com/atotto/clipboard"

	apperrors "github.com/aicommit/aicommit/internal/pkg/errors"
)

// Writer makes text the clipboard contents.
type Writer interface {
	Write(text string) error
}

// writeAll is replaced in tests.
var writeAll = clipboard.WriteAll

// System writes to the desktop clipboard through the platform's helper
// (pbcopy, xclip, xsel, wl-copy or the Windows API).
type System struct{}

// Unsupported reports whether no clipboard helper was found at startup.
func (System) Unsupported() bool {
	return clipboard.Unsupported
}

// Write copies text. Failures are ErrClipboard.
func (s System) Write(text string) error {
	if s.Unsupported() {
		return apperrors.NewClipboardError(errNoHelper)
	}
	if err := writeAll(text); err != nil {
		return apperrors.NewClipboardError(err)
	}
	apperrors.Debug("copied %d bytes to clipboard", len(text))
	return nil
}

// Memory keeps the last written text in process, for callers that need a
// Writer without touching the desktop.
type Memory struct {
	Text   string
	Writes int
}

func (m *Memory) Write(text string) error {
	m.Text = text
	m.Writes++
	return nil
}

var errNoHelper = noHelperError{}

type noHelperError struct{}

func (noHelperError) Error() string {
	return "no clipboard utility available (install xclip, xsel or wl-clipboard)"
}
