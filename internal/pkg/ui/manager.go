// Package ui provides the terminal surfaces of aicommit: the candidate
// picker, the progress spinner and the setup wizard.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	apperrors "github.com/aicommit/aicommit/internal/pkg/errors"
)

// Spinner provides loading animation functionality.
type Spinner interface {
	Start()
	Stop()
	UpdateText(text string)
}

// Manager defines the interface for UI operations.
type Manager interface {
	ShowFiles(files []string)
	ShowSpinner(text string) Spinner
	// Select asks the user to choose one of candidates. ok is false when
	// the user skipped or gave an unusable answer; that is not an error.
	Select(candidates []string) (choice string, ok bool, err error)
	ShowWarning(message string)
	ShowError(err error)
	ShowSuccess(message string)
}

// styles holds the lipgloss styles for UI rendering.
type styles struct {
	title      lipgloss.Style
	file       lipgloss.Style
	selected   lipgloss.Style
	normal     lipgloss.Style
	marker     lipgloss.Style
	help       lipgloss.Style
	success    lipgloss.Style
	warning    lipgloss.Style
	errorStyle lipgloss.Style
}

func newStyles(colorEnabled bool) *styles {
	if !colorEnabled {
		plain := lipgloss.NewStyle()
		return &styles{
			title:      plain,
			file:       plain,
			selected:   plain,
			normal:     plain,
			marker:     plain,
			help:       plain,
			success:    plain,
			warning:    plain,
			errorStyle: plain,
		}
	}

	return &styles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")),
		file: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),
		selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")),
		normal: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		marker: lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Italic(true),
		help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),
		success: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42")),
		warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")),
		errorStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")),
	}
}

// DefaultManager is the interactive Manager built on Bubble Tea.
type DefaultManager struct {
	out    io.Writer
	styles *styles
}

// NewDefaultManager creates a new DefaultManager writing to stdout.
func NewDefaultManager(colorEnabled bool) *DefaultManager {
	return &DefaultManager{
		out:    os.Stdout,
		styles: newStyles(colorEnabled),
	}
}

// ShowFiles lists the staged files the suggestions are based on.
func (m *DefaultManager) ShowFiles(files []string) {
	fmt.Fprintln(m.out, m.styles.title.Render("Staged files:"))
	for _, f := range files {
		fmt.Fprintln(m.out, m.styles.file.Render("  "+f))
	}
	fmt.Fprintln(m.out)
}

// ShowSpinner creates and returns a spinner for loading states.
func (m *DefaultManager) ShowSpinner(text string) Spinner {
	return newBubbleSpinner(text)
}

// Select runs the picker and returns the chosen candidate.
func (m *DefaultManager) Select(candidates []string) (string, bool, error) {
	if len(candidates) == 0 {
		return "", false, nil
	}

	p := tea.NewProgram(newPickerModel(candidates, m.styles), tea.WithOutput(m.out))
	final, err := p.Run()
	if err != nil {
		return "", false, apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to run the selection prompt")
	}

	result := final.(pickerModel)
	if result.chosen < 0 {
		fmt.Fprintln(m.out, m.styles.help.Render(msgNoneSelected))
		return "", false, nil
	}
	choice := candidates[result.chosen]
	fmt.Fprintln(m.out, m.styles.selected.Render("> "+choice))
	return choice, true, nil
}

// ShowWarning displays a non-fatal problem.
func (m *DefaultManager) ShowWarning(message string) {
	fmt.Fprintln(os.Stderr, m.styles.warning.Render("Warning: "+message))
}

// ShowError displays an error message to the user.
func (m *DefaultManager) ShowError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, m.styles.errorStyle.Render(apperrors.FormatError(err)))
	fmt.Fprintln(os.Stderr)
}

// ShowSuccess displays a success message to the user.
func (m *DefaultManager) ShowSuccess(message string) {
	fmt.Fprintln(m.out, m.styles.success.Render("[OK] "+message))
}

// bubbleSpinner implements Spinner using Bubble Tea. It renders on stderr
// and never reads the terminal, so stdout stays clean for the candidates.
type bubbleSpinner struct {
	text    string
	program *tea.Program
	model   *spinnerModel
	done    chan struct{}
	mu      sync.Mutex
}

// spinnerModel is the Bubble Tea model for simple spinner.
type spinnerModel struct {
	spinner  spinner.Model
	text     string
	quitting bool
}

// spinnerTextMsg is sent to update spinner text from outside.
type spinnerTextMsg struct {
	text string
}

// spinnerQuitMsg signals the spinner to quit.
type spinnerQuitMsg struct{}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinnerTextMsg:
		m.text = msg.text
		return m, nil
	case spinnerQuitMsg:
		m.quitting = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.quitting {
		return ""
	}
	return fmt.Sprintf("%s %s", m.spinner.View(), m.text)
}

func newBubbleSpinner(text string) *bubbleSpinner {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &bubbleSpinner{
		text: text,
		model: &spinnerModel{
			spinner: s,
			text:    text,
		},
	}
}

func (s *bubbleSpinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.program != nil {
		return
	}
	s.program = tea.NewProgram(s.model, tea.WithOutput(os.Stderr), tea.WithInput(nil))
	s.done = make(chan struct{})
	go func(p *tea.Program, done chan struct{}) {
		defer close(done)
		_, _ = p.Run()
	}(s.program, s.done)
}

func (s *bubbleSpinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.program == nil {
		return
	}
	s.program.Send(spinnerQuitMsg{})
	<-s.done
	s.program = nil
}

func (s *bubbleSpinner) UpdateText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.text = text
	if s.program != nil {
		s.program.Send(spinnerTextMsg{text: text})
	}
}

// noopSpinner is a no-op implementation of Spinner.
type noopSpinner struct{}

func (s *noopSpinner) Start()            {}
func (s *noopSpinner) Stop()             {}
func (s *noopSpinner) UpdateText(string) {}

var (
	_ Manager = (*DefaultManager)(nil)
	_ Manager = (*LineManager)(nil)
)

// New returns the interactive manager when stdin and stdout are terminals
// and the line-based one otherwise.
func New(colorEnabled bool) Manager {
	if IsInteractive() {
		return NewDefaultManager(colorEnabled)
	}
	return NewLineManager(os.Stdin, os.Stdout)
}

// indexLabel renders the 1-based position shown next to a candidate.
func indexLabel(i, total int) string {
	width := len(fmt.Sprint(total))
	return fmt.Sprintf("%*d.", width, i+1)
}

func joinWarnings(w []string) string {
	return strings.Join(w, "; ")
}
