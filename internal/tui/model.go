package tui

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tiff2bit/internal/processor"
)

// maxDiagnostics is how many recent per-file problems the view keeps.
const maxDiagnostics = 5

type Model struct {
	updates     <-chan processor.ProgressUpdate
	stop        func()
	started     time.Time
	width       int
	total       int
	done        int
	percent     int
	problems    int
	current     string
	diagnostics []string
	stopping    bool
	quitting    bool
}

type doneMsg struct{}

type updateMsg processor.ProgressUpdate

// NewModel renders updates until the batch finishes or the channel closes.
// stop is called once when the user presses q or ctrl+c.
func NewModel(updates <-chan processor.ProgressUpdate, stop func()) Model {
	return Model{updates: updates, stop: stop, started: time.Now()}
}

func (m Model) Init() tea.Cmd {
	return listenForUpdates(m.updates)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case updateMsg:
		switch msg.Kind {
		case processor.UpdateProgress:
			m.percent = max(m.percent, msg.Percent)
			m.done, m.total = msg.Done, msg.Total
			m.current = filepath.Base(msg.Path)
		case processor.UpdateDiagnostic:
			m.problems++
			m.diagnostics = append(m.diagnostics, msg.Message)
			if len(m.diagnostics) > maxDiagnostics {
				m.diagnostics = m.diagnostics[len(m.diagnostics)-maxDiagnostics:]
			}
		case processor.UpdateFinished:
			m.done, m.total = msg.Done, msg.Total
			m.quitting = true
			return m, tea.Quit
		}
		return m, listenForUpdates(m.updates)
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if !m.stopping && m.stop != nil {
				m.stop()
			}
			m.stopping = true
		}
		return m, nil
	case doneMsg:
		m.quitting = true
		return m, tea.Quit
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
		barWidth = int(math.Min(60, float64(m.width-10)))
		if barWidth < 20 {
			barWidth = 20
		}
	}

	bar := renderBar(barWidth, float64(m.percent)/100)
	elapsed := time.Since(m.started).Round(time.Millisecond)

	status := dimStyle.Render(fmt.Sprintf("  problems:%d", m.problems))
	if m.stopping {
		status += warnStyle.Render("  stopping after current files")
	}
	lines := []string{
		titleStyle.Render("tiff2bit"),
		labelStyle.Render(fmt.Sprintf("Files: %d/%d", m.done, m.total)) + status,
		barStyle.Render(bar) + labelStyle.Render(fmt.Sprintf(" %3d%%", m.percent)),
		dimStyle.Render(fmt.Sprintf("Last: %s  Elapsed: %s", m.current, elapsed)),
	}
	for _, d := range m.diagnostics {
		lines = append(lines, warnStyle.Render("! "+d))
	}

	return strings.Join(lines, "\n")
}

func listenForUpdates(updates <-chan processor.ProgressUpdate) tea.Cmd {
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

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	labelStyle = lipgloss.NewStyle().Foreground(ColorInk)
	barStyle   = lipgloss.NewStyle().Foreground(ColorAccentAlt)
	dimStyle   = lipgloss.NewStyle().Foreground(ColorDim)
	warnStyle  = lipgloss.NewStyle().Foreground(ColorWarn)
)
