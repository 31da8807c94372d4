package tui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"epubfit/internal/pipeline"
)

// logLines is how many recent run log lines the view keeps on screen.
const logLines = 8

// Model renders the live progress of one pipeline run.
type Model struct {
	updates  <-chan pipeline.Update
	cancel   context.CancelFunc
	title    string
	started  time.Time
	width    int
	stage    string
	progress float64
	log      []string
	done     bool
	quitting bool
}

type doneMsg struct{}

type updateMsg pipeline.Update

// NewModel returns a model fed by updates. cancel, if non-nil, is called
// when the user interrupts with ctrl+c or q.
func NewModel(title string, updates <-chan pipeline.Update, cancel context.CancelFunc) Model {
	return Model{updates: updates, cancel: cancel, title: title, started: time.Now()}
}

func (m Model) Init() tea.Cmd {
	return listenForUpdates(m.updates)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case updateMsg:
		if msg.Stage != "" {
			m.stage = msg.Stage
		}
		m.progress = math.Max(m.progress, msg.Progress)
		if msg.Message != "" {
			m.log = append(m.log, msg.Message)
			if len(m.log) > logLines {
				m.log = m.log[len(m.log)-logLines:]
			}
		}
		if msg.Done {
			m.done = true
		}
		return m, listenForUpdates(m.updates)
	case doneMsg:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.cancel != nil {
				m.cancel()
			}
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	barWidth := 40
	if m.width > 0 {
		barWidth = int(math.Min(60, float64(m.width-16)))
		if barWidth < 20 {
			barWidth = 20
		}
	}

	stage := m.stage
	if m.done {
		stage = "Done"
	}
	elapsed := time.Since(m.started).Round(time.Millisecond)

	lines := []string{
		titleStyle.Render(m.title),
		labelStyle.Render(fmt.Sprintf("Stage: %s", stage)),
		barStyle.Render(renderBar(barWidth, m.progress/100)) + labelStyle.Render(fmt.Sprintf(" %5.1f%%", m.progress)),
		dimStyle.Render(fmt.Sprintf("Elapsed: %s", elapsed)),
		"",
	}
	for _, l := range m.log {
		lines = append(lines, logStyle(l).Render(l))
	}

	return strings.Join(lines, "\n")
}

func listenForUpdates(updates <-chan pipeline.Update) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return doneMsg{}
		}
		return updateMsg(update)
	}
}

func renderBar(width int, ratio float64) string {
	filled := int(math.Round(ratio * float64(width)))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}

func logStyle(line string) lipgloss.Style {
	switch {
	case strings.HasPrefix(line, "Error"):
		return errorStyle
	case strings.HasPrefix(line, "Warning"):
		return warnStyle
	default:
		return dimStyle
	}
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	labelStyle = lipgloss.NewStyle().Foreground(ColorInk)
	barStyle   = lipgloss.NewStyle().Foreground(ColorAccentAlt)
	dimStyle   = lipgloss.NewStyle().Foreground(ColorDim)
	warnStyle  = lipgloss.NewStyle().Foreground(ColorWarn)
	errorStyle = lipgloss.NewStyle().Foreground(ColorError)
)
