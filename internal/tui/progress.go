// Package tui provides the terminal progress view for fieldbrief runs.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fieldbrief/fieldbrief/internal/summarize"
)

// fieldStatus is the display state of one field.
type fieldStatus int

const (
	fieldPending fieldStatus = iota
	fieldRunning
	fieldDone
	fieldFailed
)

// FieldEventMsg wraps a summarizer progress event.
type FieldEventMsg struct {
	Event summarize.Event
}

// RunDoneMsg is sent when the whole pipeline has finished.
type RunDoneMsg struct {
	Err     error
	Message string
}

type fieldRow struct {
	id      string
	status  fieldStatus
	summary string
	err     string
}

// Model is the bubbletea model for the summarization progress view.
type Model struct {
	spinner spinner.Model
	fields  []fieldRow
	index   map[string]int

	done     int
	failed   int
	width    int
	finished bool
	final    string
	err      error

	titleStyle    lipgloss.Style
	okStyle       lipgloss.Style
	failStyle     lipgloss.Style
	pendingStyle  lipgloss.Style
	summaryStyle  lipgloss.Style
	progressFull  lipgloss.Style
	progressEmpty lipgloss.Style
	footerStyle   lipgloss.Style
}

// NewModel creates a progress model for the given field IDs, in the
// order they will be processed.
func NewModel(fieldIDs []string) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := &Model{
		spinner: sp,
		index:   make(map[string]int, len(fieldIDs)),
		width:   80,

		titleStyle:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")),
		okStyle:       lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
		failStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		pendingStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		summaryStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		progressFull:  lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
		progressEmpty: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		footerStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Italic(true),
	}
	for i, id := range fieldIDs {
		m.fields = append(m.fields, fieldRow{id: id})
		m.index[id] = i
	}
	return m
}

// Init starts the spinner tick.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles progress events and key presses.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case FieldEventMsg:
		i, ok := m.index[msg.Event.FieldID]
		if !ok {
			return m, nil
		}
		if !msg.Event.Done {
			m.fields[i].status = fieldRunning
			return m, nil
		}
		res := msg.Event.Result
		m.done++
		if res != nil && res.Failed() {
			m.fields[i].status = fieldFailed
			m.fields[i].err = res.Err.Error()
			m.failed++
		} else {
			m.fields[i].status = fieldDone
			if res != nil {
				m.fields[i].summary = res.Summary
			}
		}
		return m, nil

	case RunDoneMsg:
		m.finished = true
		m.err = msg.Err
		m.final = msg.Message
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.titleStyle.Render(fmt.Sprintf("fieldbrief: summarizing %d fields", len(m.fields))))
	b.WriteString("\n\n")

	b.WriteString(m.renderBar())
	b.WriteString(fmt.Sprintf("  %d/%d", m.done, len(m.fields)))
	if m.failed > 0 {
		b.WriteString(m.failStyle.Render(fmt.Sprintf("  (%d failed)", m.failed)))
	}
	b.WriteString("\n\n")

	for _, f := range m.fields {
		b.WriteString(m.renderField(f))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.finished {
		if m.err != nil {
			b.WriteString(m.failStyle.Render("run failed: " + m.err.Error()))
		} else {
			b.WriteString(m.okStyle.Render(m.final))
		}
		b.WriteString("\n")
		b.WriteString(m.footerStyle.Render("press q to quit"))
	} else {
		b.WriteString(m.footerStyle.Render("summarizing... press q to abort"))
	}
	b.WriteString("\n")

	return b.String()
}

// renderBar draws a fixed-width progress bar.
func (m *Model) renderBar() string {
	const barWidth = 30
	filled := 0
	if len(m.fields) > 0 {
		filled = barWidth * m.done / len(m.fields)
	}
	return m.progressFull.Render(strings.Repeat("█", filled)) +
		m.progressEmpty.Render(strings.Repeat("░", barWidth-filled))
}

// renderField draws one field's status line.
func (m *Model) renderField(f fieldRow) string {
	switch f.status {
	case fieldRunning:
		return fmt.Sprintf("%s %s", m.spinner.View(), f.id)
	case fieldDone:
		return fmt.Sprintf("%s %s  %s", m.okStyle.Render("✓"), f.id, m.summaryStyle.Render(truncate(f.summary, m.width-12)))
	case fieldFailed:
		return fmt.Sprintf("%s %s  %s", m.failStyle.Render("✗"), f.id, m.failStyle.Render(truncate(f.err, m.width-12)))
	default:
		return m.pendingStyle.Render(fmt.Sprintf("· %s", f.id))
	}
}

// Failed returns the number of fields whose summary is a sentinel.
func (m *Model) Failed() int {
	return m.failed
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if max < 4 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
