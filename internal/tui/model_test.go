package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"tiff2bit/internal/processor"
)

func step(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return nm, cmd
}

func TestModelTracksProgress(t *testing.T) {
	m := NewModel(make(chan processor.ProgressUpdate), nil)
	m, _ = step(t, m, updateMsg{Kind: processor.UpdateProgress, Percent: 50, Done: 1, Total: 2, Path: "/scans/a.tif"})
	m, _ = step(t, m, updateMsg{Kind: processor.UpdateDiagnostic, Message: "unsupported sample depth 4 in file b.tif"})

	view := m.View()
	for _, want := range []string{"Files: 1/2", "50%", "a.tif", "problems:1", "unsupported sample depth 4"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	m, cmd := step(t, m, updateMsg{Kind: processor.UpdateFinished, Percent: 100, Done: 2, Total: 2})
	if !m.quitting || cmd == nil {
		t.Fatalf("finished update did not quit")
	}
	if m.View() != "" {
		t.Errorf("view after quit = %q", m.View())
	}
}

func TestModelKeepsRecentDiagnostics(t *testing.T) {
	m := NewModel(nil, nil)
	for i := 0; i < maxDiagnostics+3; i++ {
		m, _ = step(t, m, updateMsg{Kind: processor.UpdateDiagnostic, Message: "x"})
	}
	if len(m.diagnostics) != maxDiagnostics || m.problems != maxDiagnostics+3 {
		t.Errorf("diagnostics = %d problems = %d", len(m.diagnostics), m.problems)
	}
}

func TestModelStopKey(t *testing.T) {
	calls := 0
	m := NewModel(nil, func() { calls++ })
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if calls != 1 || !m.stopping {
		t.Errorf("stop calls = %d stopping = %v", calls, m.stopping)
	}
	if !strings.Contains(m.View(), "stopping") {
		t.Errorf("view does not show stopping:\n%s", m.View())
	}
}

func TestListenForUpdatesClosedChannel(t *testing.T) {
	ch := make(chan processor.ProgressUpdate)
	close(ch)
	if _, ok := listenForUpdates(ch)().(doneMsg); !ok {
		t.Fatal("closed channel did not yield doneMsg")
	}
}

func TestRenderSummary(t *testing.T) {
	rows := BatchRows(processor.Summary{Total: 4, Converted: 2, Unsupported: 1, Failed: 1, Elapsed: 1500 * time.Millisecond})
	out := RenderSummary(rows)
	for _, want := range []string{"Files in batch", "Converted to 2-bit", "Unsupported depth", "1.5s"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "stopped") {
		t.Errorf("summary mentions stop without skipped jobs:\n%s", out)
	}
}

func TestRenderBarBounds(t *testing.T) {
	if got := renderBar(4, 2); got != "[====]" {
		t.Errorf("renderBar overflow = %q", got)
	}
	if got := renderBar(4, -1); got != "[    ]" {
		t.Errorf("renderBar underflow = %q", got)
	}
}
