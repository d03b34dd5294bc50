package ui

import (
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aicommit/aicommit/internal/pkg/message"
)

// Messages shared by both selection surfaces.
const (
	msgSelectPrompt     = "Select a commit message by number (or press Enter to skip):"
	msgInvalidSelection = "Invalid selection."
	msgInvalidInput     = "Invalid input."
	msgNoneSelected     = "No commit message selected."
)

// pickerModel is the Bubble Tea model for choosing a candidate. Arrow keys
// move the cursor, digits followed by Enter pick by number and q or Esc
// leave without a choice.
type pickerModel struct {
	candidates []string
	warnings   [][]string
	cursor     int
	typed      string
	status     string
	chosen     int
	done       bool
	styles     *styles
}

func newPickerModel(candidates []string, st *styles) pickerModel {
	warnings := make([][]string, len(candidates))
	for i, c := range candidates {
		warnings[i] = message.Parse(c).Warnings()
	}
	return pickerModel{
		candidates: candidates,
		warnings:   warnings,
		chosen:     -1,
		styles:     st,
	}
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch s := key.String(); s {
	case "ctrl+c", "q", "esc":
		m.chosen = -1
		m.done = true
		return m, tea.Quit
	case "up", "k":
		m.typed = ""
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		m.typed = ""
		if m.cursor < len(m.candidates)-1 {
			m.cursor++
		}
	case "backspace":
		if m.typed != "" {
			m.typed = m.typed[:len(m.typed)-1]
		}
	case "enter":
		if m.typed == "" {
			m.chosen = m.cursor
			m.done = true
			return m, tea.Quit
		}
		n, err := strconv.Atoi(m.typed)
		m.typed = ""
		if err != nil || n < 1 || n > len(m.candidates) {
			m.status = msgInvalidSelection
			return m, nil
		}
		m.chosen = n - 1
		m.done = true
		return m, tea.Quit
	default:
		if len(s) == 1 && s[0] >= '0' && s[0] <= '9' {
			m.typed += s
			m.status = ""
			if n, err := strconv.Atoi(m.typed); err == nil && n >= 1 && n <= len(m.candidates) {
				m.cursor = n - 1
			}
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	if m.done {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(m.styles.title.Render("Choose a commit message"))
	sb.WriteString("\n\n")

	for i, c := range m.candidates {
		cursor := "  "
		style := m.styles.normal
		if m.cursor == i {
			cursor = "▸ "
			style = m.styles.selected
		}
		sb.WriteString(cursor)
		sb.WriteString(indexLabel(i, len(m.candidates)))
		sb.WriteString(" ")
		sb.WriteString(style.Render(c))
		if len(m.warnings[i]) > 0 {
			sb.WriteString(m.styles.marker.Render(" (" + joinWarnings(m.warnings[i]) + ")"))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	if m.typed != "" {
		sb.WriteString("> " + m.typed + "\n")
	}
	if m.status != "" {
		sb.WriteString(m.styles.warning.Render(m.status) + "\n")
	}
	sb.WriteString(m.styles.help.Render("↑/↓ or j/k to move • number + Enter to pick • Enter to select • q/Esc to skip"))

	return sb.String()
}
