package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	apperrors "github.com/aicommit/aicommit/internal/pkg/errors"
)

// LineManager implements Manager for pipes and dumb terminals: numbered
// candidates on out, one answer line read from in.
type LineManager struct {
	in  *bufio.Reader
	out io.Writer
}

// NewLineManager creates a LineManager.
func NewLineManager(in io.Reader, out io.Writer) *LineManager {
	return &LineManager{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// ShowFiles lists the staged files.
func (m *LineManager) ShowFiles(files []string) {
	fmt.Fprintln(m.out, "Staged files:")
	for _, f := range files {
		fmt.Fprintln(m.out, "  "+f)
	}
	fmt.Fprintln(m.out)
}

// ShowSpinner returns a no-op spinner.
func (m *LineManager) ShowSpinner(string) Spinner {
	return &noopSpinner{}
}

// Select prints the candidates and reads the user's number. An empty line
// or end of input skips.
func (m *LineManager) Select(candidates []string) (string, bool, error) {
	if len(candidates) == 0 {
		return "", false, nil
	}

	for i, c := range candidates {
		fmt.Fprintf(m.out, "%d. %s\n", i+1, c)
	}
	fmt.Fprintln(m.out)
	fmt.Fprint(m.out, msgSelectPrompt+" ")

	line, err := m.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", false, apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to read selection")
	}

	answer := strings.TrimSpace(line)
	if answer == "" {
		fmt.Fprintln(m.out, msgNoneSelected)
		return "", false, nil
	}

	n, err := strconv.Atoi(answer)
	if err != nil {
		fmt.Fprintln(m.out, msgInvalidInput)
		return "", false, nil
	}
	if n < 1 || n > len(candidates) {
		fmt.Fprintln(m.out, msgInvalidSelection)
		return "", false, nil
	}

	choice := candidates[n-1]
	fmt.Fprintf(m.out, "Selected: %s\n", choice)
	return choice, true, nil
}

// ShowWarning prints a non-fatal problem to stderr.
func (m *LineManager) ShowWarning(message string) {
	fmt.Fprintln(os.Stderr, "Warning: "+message)
}

// ShowError prints err to stderr.
func (m *LineManager) ShowError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, apperrors.FormatError(err))
}

// ShowSuccess prints message.
func (m *LineManager) ShowSuccess(message string) {
	fmt.Fprintln(m.out, message)
}
