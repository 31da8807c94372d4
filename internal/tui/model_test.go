package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"epubfit/internal/pipeline"
)

func TestModelTracksUpdates(t *testing.T) {
	updates := make(chan pipeline.Update)
	var m tea.Model = NewModel("epubfit", updates, nil)

	feed := []pipeline.Update{
		{Stage: "Unpack", Progress: 10, Message: "Processing book.epub with profile NST."},
		{Stage: "Resize", Progress: 60},
		{Stage: "Resize", Progress: 40},
		{Stage: "Repack", Progress: 100, Done: true},
	}
	for _, u := range feed {
		m, _ = m.Update(updateMsg(u))
	}

	got := m.(Model)
	if got.progress != 100 || !got.done {
		t.Fatalf("progress %v done %v", got.progress, got.done)
	}
	view := got.View()
	if !strings.Contains(view, "Stage: Done") || !strings.Contains(view, "Processing book.epub") {
		t.Fatalf("unexpected view:\n%s", view)
	}
}

func TestModelKeepsRecentLog(t *testing.T) {
	var m tea.Model = NewModel("epubfit", nil, nil)
	for i := 0; i < logLines+5; i++ {
		m, _ = m.Update(updateMsg(pipeline.Update{Message: strings.Repeat("x", i+1)}))
	}
	if n := len(m.(Model).log); n != logLines {
		t.Fatalf("kept %d lines, want %d", n, logLines)
	}
}

func TestModelInterruptCancels(t *testing.T) {
	cancelled := false
	m := NewModel("epubfit", nil, func() { cancelled = true })
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !cancelled || cmd == nil {
		t.Fatalf("cancelled %v cmd %v", cancelled, cmd)
	}
}

func TestRenderBar(t *testing.T) {
	if got := renderBar(4, 0.5); got != "[==  ]" {
		t.Fatalf("renderBar = %q", got)
	}
	if got := renderBar(4, 2); got != "[====]" {
		t.Fatalf("renderBar overflow = %q", got)
	}
}

func TestRenderSummary(t *testing.T) {
	out := RenderSummary([]SummaryRow{{Label: "Images resized", Value: "3"}, {Label: "Output", Value: "repacked-a.epub"}})
	if !strings.Contains(out, "Images resized") || !strings.Contains(out, "repacked-a.epub") {
		t.Fatalf("unexpected summary:\n%s", out)
	}
	if lines := strings.Split(out, "\n"); len(lines) != 4 {
		t.Fatalf("got %d lines, want rows framed top and bottom:\n%s", len(lines), out)
	}
	if RenderSummary(nil) != "" {
		t.Fatal("empty summary should render nothing")
	}
}

func TestRenderSummaryAlignsValues(t *testing.T) {
	out := RenderSummary([]SummaryRow{
		{Label: "Profile", Value: "kobo"},
		{Label: "Image errors", Value: "many", Alert: true},
	})
	lines := strings.Split(out, "\n")
	if len(lines) != 4 {
		t.Fatalf("unexpected summary:\n%s", out)
	}
	first := lipgloss.Width(lines[1][:strings.Index(lines[1], "kobo")])
	second := lipgloss.Width(lines[2][:strings.Index(lines[2], "many")])
	if first != second {
		t.Fatalf("values start at columns %d and %d:\n%s", first, second, out)
	}
}
