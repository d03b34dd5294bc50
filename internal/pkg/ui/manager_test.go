package ui

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/aicommit/aicommit/internal/pkg/errors"
)

var candidates = []string{
	"feat: add login",
	"fix: handle nil user",
	"update readme",
}

func press(m pickerModel, keys ...string) (pickerModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "backspace":
			msg = tea.KeyMsg{Type: tea.KeyBackspace}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(pickerModel)
	}
	return m, cmd
}

func TestPicker(t *testing.T) {
	tests := []struct {
		name   string
		keys   []string
		chosen int
		done   bool
		status string
	}{
		{"enter picks first", []string{"enter"}, 0, true, ""},
		{"arrow down then enter", []string{"down", "enter"}, 1, true, ""},
		{"cursor stops at end", []string{"down", "down", "down", "down", "enter"}, 2, true, ""},
		{"cursor stops at top", []string{"up", "enter"}, 0, true, ""},
		{"vim keys", []string{"j", "j", "k", "enter"}, 1, true, ""},
		{"number then enter", []string{"3", "enter"}, 2, true, ""},
		{"out of range number", []string{"9", "enter"}, -1, false, msgInvalidSelection},
		{"zero", []string{"0", "enter"}, -1, false, msgInvalidSelection},
		{"backspace corrects", []string{"9", "backspace", "2", "enter"}, 1, true, ""},
		{"q skips", []string{"down", "q"}, -1, true, ""},
		{"esc skips", []string{"esc"}, -1, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := press(newPickerModel(candidates, newStyles(false)), tt.keys...)
			assert.Equal(t, tt.chosen, m.chosen)
			assert.Equal(t, tt.done, m.done)
			assert.Equal(t, tt.status, m.status)
		})
	}
}

func TestPicker_QuitsOnChoice(t *testing.T) {
	_, cmd := press(newPickerModel(candidates, newStyles(false)), "2", "enter")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestPicker_ViewMarksNonConventional(t *testing.T) {
	m := newPickerModel(candidates, newStyles(false))
	view := m.View()

	assert.Contains(t, view, "▸ 1. feat: add login")
	assert.Contains(t, view, "  3. update readme (not in Conventional Commits format)")
	assert.NotContains(t, view, "feat: add login (")

	m, _ = press(m, "enter")
	assert.Empty(t, m.View())
}

func TestPicker_ViewShowsLongSubjectWarning(t *testing.T) {
	long := "feat: " + strings.Repeat("a", 80)
	view := newPickerModel([]string{long}, newStyles(false)).View()
	assert.Contains(t, view, "exceeds 72 characters")
}

func TestIndexLabel(t *testing.T) {
	assert.Equal(t, "1.", indexLabel(0, 3))
	assert.Equal(t, " 1.", indexLabel(0, 10))
	assert.Equal(t, "10.", indexLabel(9, 10))
}

func TestLineManager_Select(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		choice  string
		ok      bool
		message string
	}{
		{"second candidate", "2\n", "fix: handle nil user", true, "Selected: fix: handle nil user"},
		{"surrounding spaces", "  1 \n", "feat: add login", true, "Selected: feat: add login"},
		{"no newline at eof", "3", "update readme", true, "Selected: update readme"},
		{"empty line skips", "\n", "", false, msgNoneSelected},
		{"eof skips", "", "", false, msgNoneSelected},
		{"out of range", "99\n", "", false, msgInvalidSelection},
		{"zero", "0\n", "", false, msgInvalidSelection},
		{"negative", "-1\n", "", false, msgInvalidSelection},
		{"not a number", "abc\n", "", false, msgInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			m := NewLineManager(strings.NewReader(tt.input), &out)

			choice, ok, err := m.Select(candidates)
			require.NoError(t, err)
			assert.Equal(t, tt.choice, choice)
			assert.Equal(t, tt.ok, ok)

			s := out.String()
			assert.Contains(t, s, "1. feat: add login\n2. fix: handle nil user\n3. update readme\n")
			assert.Contains(t, s, msgSelectPrompt)
			assert.Contains(t, s, tt.message)
		})
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("read /dev/stdin: input/output error") }

func TestLineManager_SelectReadError(t *testing.T) {
	m := NewLineManager(failingReader{}, io.Discard)
	_, ok, err := m.Select(candidates)
	require.Error(t, err)
	assert.False(t, ok)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrFileSystemError))
}

func TestLineManager_SelectNoCandidates(t *testing.T) {
	var out bytes.Buffer
	m := NewLineManager(strings.NewReader("1\n"), &out)
	_, ok, err := m.Select(nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, out.String())
}

func TestLineManager_ShowFiles(t *testing.T) {
	var out bytes.Buffer
	NewLineManager(strings.NewReader(""), &out).ShowFiles([]string{"a.go", "b/c.go"})
	assert.Equal(t, "Staged files:\n  a.go\n  b/c.go\n\n", out.String())
}

func TestIsInteractive(t *testing.T) {
	orig := isTerminal
	defer func() { isTerminal = orig }()

	isTerminal = func(int) bool { return true }
	assert.True(t, IsInteractive())
	_, isDefault := New(false).(*DefaultManager)
	assert.True(t, isDefault)

	isTerminal = func(int) bool { return false }
	assert.False(t, IsInteractive())
	_, isLine := New(false).(*LineManager)
	assert.True(t, isLine)
}

func TestSpinnerModel(t *testing.T) {
	s := newBubbleSpinner("Generating")
	var m tea.Model = *s.model

	m, _ = m.Update(spinnerTextMsg{text: "Still generating"})
	assert.Contains(t, m.View(), "Still generating")

	m, cmd := m.Update(spinnerQuitMsg{})
	require.NotNil(t, cmd)
	assert.Empty(t, m.View())
}

func TestNoopSpinner(t *testing.T) {
	s := NewLineManager(strings.NewReader(""), io.Discard).ShowSpinner("x")
	s.Start()
	s.UpdateText("y")
	s.Stop()
}
