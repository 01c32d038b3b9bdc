package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alfredjeanlab/sitenav/internal/model"
	"github.com/alfredjeanlab/sitenav/internal/navigator"
	"github.com/alfredjeanlab/sitenav/internal/preview"
)

type fakeNav struct {
	mu    sync.Mutex
	state navigator.State
	calls []string
}

func (f *fakeNav) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeNav) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeNav) Start(context.Context) error { f.record("start"); return nil }
func (f *fakeNav) TypeURL(url string) {
	f.mu.Lock()
	f.state.URL = url
	f.mu.Unlock()
}
func (f *fakeNav) Submit(_ context.Context, rescan bool) error {
	if rescan {
		f.record("submit+scan " + f.Snapshot().URL)
	} else {
		f.record("submit " + f.Snapshot().URL)
	}
	return nil
}
func (f *fakeNav) Select(_ context.Context, id string) error { f.record("select " + id); return nil }
func (f *fakeNav) Navigate(_ context.Context, id string, rescan bool) error {
	if rescan {
		f.record("navigate+scan " + id)
	} else {
		f.record("navigate " + id)
	}
	return nil
}
func (f *fakeNav) ShowTree(context.Context) error { f.record("tree"); return nil }
func (f *fakeNav) Back(context.Context) error     { f.record("back"); return nil }
func (f *fakeNav) Reset(context.Context) error    { f.record("reset"); return nil }
func (f *fakeNav) Snapshot() navigator.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.Clone()
}

func landingState() navigator.State {
	nodes := []model.NodeItem{
		{ID: "https://a.test", Label: "Home", Children: []string{"https://a.test/x"}},
		{ID: "https://a.test/x", Label: "X"},
		{ID: "https://b.test", Label: "B"},
	}
	return navigator.State{
		Mode:    navigator.ModeLanding,
		History: nodes,
		Roots:   []model.NodeItem{nodes[0], nodes[2]},
	}
}

func explorerState() navigator.State {
	cur := model.NodeItem{ID: "https://a.test/x", Label: "X"}
	return navigator.State{
		Mode:     navigator.ModeExplorer,
		Current:  &cur,
		Parents:  []model.NodeItem{{ID: "https://a.test", Label: "Home"}},
		Children: []model.NodeItem{{ID: "https://a.test/y", Label: "Y"}, {ID: "https://a.test/z"}},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// send feeds msg to m and runs any resulting command to completion,
// feeding its message back, the way the bubbletea runtime would.
func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	if cmd == nil {
		return m
	}
	switch out := cmd().(type) {
	case opDoneMsg, previewMsg, StateMsg:
		next, _ = m.Update(out)
		m = next.(Model)
	}
	return m
}

func newModel(t *testing.T, st navigator.State) (Model, *fakeNav) {
	t.Helper()
	nav := &fakeNav{state: st}
	m := New(context.Background(), nav, nil)
	m = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	return m, nav
}

func TestInitStartsNavigator(t *testing.T) {
	m, nav := newModel(t, landingState())
	if msg := m.Init()(); msg == nil {
		t.Fatal("Init command returned no message")
	}
	if got := nav.Calls(); len(got) != 1 || got[0] != "start" {
		t.Fatalf("calls = %v", got)
	}
}

func TestLanding_SelectsRoots(t *testing.T) {
	m, nav := newModel(t, landingState())

	view := m.View()
	if !strings.Contains(view, "roots") || strings.Contains(view, "https://a.test/x") {
		t.Errorf("landing should list only roots:\n%s", view)
	}

	m = send(t, m, key("down"))
	m = send(t, m, key("enter"))
	if got := nav.Calls(); len(got) != 1 || got[0] != "select https://b.test" {
		t.Fatalf("calls = %v", got)
	}

	// l toggles the full listing.
	m = send(t, m, key("l"))
	if !strings.Contains(m.View(), "https://a.test/x") {
		t.Error("full listing should include non-root pages")
	}
}

func TestExplorer_NavigateParentsAndChildren(t *testing.T) {
	for _, tc := range []struct {
		name  string
		keys  []string
		wants string
	}{
		{"parent", []string{"enter"}, "navigate https://a.test"},
		{"child", []string{"down", "enter"}, "navigate https://a.test/y"},
		{"child with scan", []string{"down", "down", "s"}, "navigate+scan https://a.test/z"},
		{"cursor clamps", []string{"down", "down", "down", "down", "enter"}, "navigate https://a.test/z"},
		{"rescan current", []string{"S"}, "navigate+scan https://a.test/x"},
		{"back", []string{"b"}, "back"},
		{"tree", []string{"t"}, "tree"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m, nav := newModel(t, explorerState())
			for _, k := range tc.keys {
				m = send(t, m, key(k))
			}
			got := nav.Calls()
			if len(got) != 1 || got[0] != tc.wants {
				t.Fatalf("calls = %v, want [%s]", got, tc.wants)
			}
		})
	}
}

func TestURLInput(t *testing.T) {
	for _, tc := range []struct {
		name  string
		final string
		wants string
	}{
		{"enter focuses", "enter", "submit https://c.test"},
		{"ctrl+s scans", "ctrl+s", "submit+scan https://c.test"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m, nav := newModel(t, landingState())
			m = send(t, m, key("/"))
			if !m.input.Focused() {
				t.Fatal("input should be focused after /")
			}
			m = send(t, m, key("https://c.test"))
			if got := nav.Snapshot().URL; got != "https://c.test" {
				t.Errorf("typed url = %q", got)
			}
			// Navigation keys are plain text while typing.
			if len(nav.Calls()) != 0 {
				t.Fatalf("typing triggered calls: %v", nav.Calls())
			}
			m = send(t, m, key(tc.final))
			if m.input.Focused() {
				t.Error("input should blur after submit")
			}
			if got := nav.Calls(); len(got) != 1 || got[0] != tc.wants {
				t.Fatalf("calls = %v", got)
			}
		})
	}
}

func TestResetNeedsConfirmation(t *testing.T) {
	m, nav := newModel(t, landingState())

	m = send(t, m, key("R"))
	if !strings.Contains(m.View(), "Continue?") {
		t.Fatal("expected confirmation prompt")
	}
	m = send(t, m, key("n"))
	if len(nav.Calls()) != 0 {
		t.Fatalf("declined reset still ran: %v", nav.Calls())
	}
	if m.status() != "Reset cancelled" {
		t.Errorf("status = %q", m.status())
	}

	m = send(t, m, key("R"))
	send(t, m, key("y"))
	if got := nav.Calls(); len(got) != 1 || got[0] != "reset" {
		t.Fatalf("calls = %v", got)
	}
}

func TestStateMsgResetsCursorOnFocusChange(t *testing.T) {
	m, _ := newModel(t, explorerState())
	m = send(t, m, key("down"))
	m = send(t, m, key("down"))
	if m.cursor != 2 {
		t.Fatalf("cursor = %d", m.cursor)
	}

	st := explorerState()
	st.Status = "refreshed"
	m = send(t, m, StateMsg{State: st})
	if m.cursor != 2 {
		t.Errorf("same focus should keep cursor, got %d", m.cursor)
	}

	cur := model.NodeItem{ID: "https://a.test/y"}
	st.Current = &cur
	m = send(t, m, StateMsg{State: st})
	if m.cursor != 0 {
		t.Errorf("new focus should reset cursor, got %d", m.cursor)
	}
}

func TestStatusLine(t *testing.T) {
	st := explorerState()
	st.Status = "Error: Failed to start scan"
	m, _ := newModel(t, st)
	if !strings.Contains(m.View(), "Failed to start scan") {
		t.Error("status should be rendered")
	}

	st.Loading = true
	m = send(t, m, StateMsg{State: st})
	if m.status() != "Loading…" {
		t.Errorf("status = %q", m.status())
	}

	m = send(t, m, key("a"))
	if m.status() != AnalyzeUnavailable {
		t.Errorf("status = %q", m.status())
	}
}

func TestPreview(t *testing.T) {
	nav := &fakeNav{state: explorerState()}
	fetch := func(_ context.Context, url string) (*preview.Summary, error) {
		if url != "https://a.test/x" {
			return nil, errors.New("unexpected url " + url)
		}
		return preview.SummarizeBytes(url, []byte(`<html><head><title>Page X</title></head><body><h1>Hi</h1></body></html>`))
	}
	m := New(context.Background(), nav, fetch)
	m = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	m = send(t, m, key("p"))
	if m.previewing != "https://a.test/x" {
		t.Fatalf("previewing = %q", m.previewing)
	}
	if !strings.Contains(m.View(), "Page X") {
		t.Errorf("preview not rendered:\n%s", m.View())
	}

	m = send(t, m, key("esc"))
	if m.previewing != "" {
		t.Error("esc should close the preview")
	}
	if len(nav.Calls()) != 0 {
		t.Errorf("closing the preview should not go back: %v", nav.Calls())
	}
}

func TestQuit(t *testing.T) {
	m, _ := newModel(t, landingState())
	next, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
	if next.(Model).View() != "" {
		t.Error("view should be empty after quit")
	}
}
