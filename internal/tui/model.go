// Package tui is the interactive explorer: a landing list of crawl roots, a
// parents/current/children window around the focused page, and a scrollable
// whole-tree screen.
//
// The model runs inside the bubbletea event loop. Navigation operations block
// on the network, so they run as tea.Cmds and report back through messages.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alfredjeanlab/sitenav/internal/graph"
	"github.com/alfredjeanlab/sitenav/internal/model"
	"github.com/alfredjeanlab/sitenav/internal/navigator"
	"github.com/alfredjeanlab/sitenav/internal/preview"
)

// AnalyzeUnavailable is shown when the operator asks for AI analysis.
const AnalyzeUnavailable = "Analyze with AI is not available yet"

// Navigator is the part of navigator.Navigator the explorer drives.
type Navigator interface {
	Start(ctx context.Context) error
	TypeURL(url string)
	Submit(ctx context.Context, rescan bool) error
	Select(ctx context.Context, id string) error
	Navigate(ctx context.Context, id string, rescan bool) error
	ShowTree(ctx context.Context) error
	Back(ctx context.Context) error
	Reset(ctx context.Context) error
	Snapshot() navigator.State
}

// PreviewFunc fetches and summarizes the rendered page for url.
type PreviewFunc func(ctx context.Context, url string) (*preview.Summary, error)

// StateMsg carries a new navigation state into the event loop.
type StateMsg struct {
	State navigator.State
}

// opDoneMsg reports the end of a navigation operation.
type opDoneMsg struct {
	err error
}

// previewMsg carries a fetched preview.
type previewMsg struct {
	url     string
	summary *preview.Summary
	err     error
}

// item is one selectable row.
type item struct {
	node    model.NodeItem
	section string
}

// Model is the bubbletea model of the explorer.
type Model struct {
	ctx     context.Context
	nav     Navigator
	preview PreviewFunc

	state  navigator.State
	cursor int
	input  textinput.Model

	viewport viewport.Model
	ready    bool
	width    int
	height   int

	showAll      bool // landing lists every node instead of the roots
	confirmReset bool
	previewing   string
	note         string // local message that overrides the navigator status
	quitting     bool
}

// New creates the explorer model. preview may be nil.
func New(ctx context.Context, nav Navigator, preview PreviewFunc) Model {
	in := textinput.New()
	in.Placeholder = "Enter URL to scan"
	in.Prompt = "url> "
	in.CharLimit = 2048
	in.Cursor.SetMode(cursor.CursorStatic)
	return Model{
		ctx:     ctx,
		nav:     nav,
		preview: preview,
		state:   nav.Snapshot(),
		input:   in,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.run(m.nav.Start)
}

func (m Model) run(op func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{err: op(ctx)}
	}
}

// items returns the selectable rows for the current mode.
func (m Model) items() []item {
	switch m.state.Mode {
	case navigator.ModeExplorer:
		out := make([]item, 0, len(m.state.Parents)+len(m.state.Children))
		for _, p := range m.state.Parents {
			out = append(out, item{node: p, section: "parents"})
		}
		for _, c := range m.state.Children {
			out = append(out, item{node: c, section: "children"})
		}
		return out
	case navigator.ModeLanding:
		nodes := m.state.Roots
		if m.showAll {
			nodes = m.state.History
		}
		out := make([]item, 0, len(nodes))
		for _, n := range nodes {
			out = append(out, item{node: n, section: "history"})
		}
		return out
	}
	return nil
}

func (m Model) selected() (model.NodeItem, bool) {
	items := m.items()
	if m.cursor < 0 || m.cursor >= len(items) {
		return model.NodeItem{}, false
	}
	return items[m.cursor].node, true
}

func (m *Model) setState(st navigator.State) {
	prevMode, prevFocus := m.state.Mode, m.state.Focus()
	m.state = st
	if st.Mode != prevMode || st.Focus() != prevFocus {
		m.cursor = 0
		m.previewing = ""
	}
	if n := len(m.items()); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
	if !m.input.Focused() {
		m.input.SetValue(st.URL)
	}
	m.syncViewport()
}

func (m *Model) syncViewport() {
	if !m.ready {
		return
	}
	if m.state.Mode == navigator.ModeTree && m.state.Forest != nil {
		var b strings.Builder
		_ = graph.RenderForest(&b, m.state.Forest, graph.RenderOptions{})
		m.viewport.SetContent(b.String())
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		h := max(m.height-6, 1)
		if !m.ready {
			m.viewport = viewport.New(m.width, h)
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = h
		}
		m.input.Width = max(m.width-len(m.input.Prompt)-2, 10)
		m.syncViewport()
		return m, nil

	case StateMsg:
		m.setState(msg.State)
		return m, nil

	case opDoneMsg:
		// The navigator has already recorded any failure in its status.
		m.setState(m.nav.Snapshot())
		return m, nil

	case previewMsg:
		if msg.err != nil {
			m.note = "Preview failed: " + msg.err.Error()
			return m, nil
		}
		if msg.url == m.state.Focus() {
			var b strings.Builder
			_ = msg.summary.Write(&b)
			m.viewport.SetContent(b.String())
			m.viewport.GotoTop()
			m.previewing = msg.url
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		if m.input.Focused() {
			return m.updateInput(msg)
		}
		if m.confirmReset {
			m.confirmReset = false
			if msg.String() == "y" || msg.String() == "Y" {
				return m, m.run(m.nav.Reset)
			}
			m.note = "Reset cancelled"
			return m, nil
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.input.Blur()
		return m, nil
	case "enter", "ctrl+s":
		rescan := msg.String() == "ctrl+s"
		m.input.Blur()
		m.nav.TypeURL(m.input.Value())
		return m, m.run(func(ctx context.Context) error { return m.nav.Submit(ctx, rescan) })
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.nav.TypeURL(m.input.Value())
	return m, cmd
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.note = ""
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "/":
		m.input.SetValue(m.state.URL)
		m.input.CursorEnd()
		return m, m.input.Focus()

	case "R":
		m.confirmReset = true
		return m, nil

	case "t":
		return m, m.run(m.nav.ShowTree)

	case "j", "down":
		if m.state.Mode == navigator.ModeTree || m.previewing != "" {
			m.viewport.LineDown(1)
		} else if m.cursor < len(m.items())-1 {
			m.cursor++
		}

	case "k", "up":
		if m.state.Mode == navigator.ModeTree || m.previewing != "" {
			m.viewport.LineUp(1)
		} else if m.cursor > 0 {
			m.cursor--
		}

	case "g", "home":
		m.cursor = 0
		m.viewport.GotoTop()

	case "G", "end":
		m.cursor = max(len(m.items())-1, 0)
		m.viewport.GotoBottom()

	case "enter", "s":
		n, ok := m.selected()
		if !ok {
			return m, nil
		}
		rescan := msg.String() == "s"
		if m.state.Mode == navigator.ModeLanding && !rescan {
			return m, m.run(func(ctx context.Context) error { return m.nav.Select(ctx, n.ID) })
		}
		return m, m.run(func(ctx context.Context) error { return m.nav.Navigate(ctx, n.ID, rescan) })

	case "S":
		if id := m.state.Focus(); id != "" {
			return m, m.run(func(ctx context.Context) error { return m.nav.Navigate(ctx, id, true) })
		}

	case "l":
		if m.state.Mode == navigator.ModeLanding {
			m.showAll = !m.showAll
			m.cursor = 0
		}

	case "p":
		if m.previewing != "" {
			m.previewing = ""
			return m, nil
		}
		return m, m.fetchPreview()

	case "a":
		m.note = AnalyzeUnavailable

	case "b", "esc", "backspace":
		if m.previewing != "" {
			m.previewing = ""
			return m, nil
		}
		if m.state.Mode != navigator.ModeLanding {
			return m, m.run(m.nav.Back)
		}
	}
	return m, nil
}

func (m Model) fetchPreview() tea.Cmd {
	url := m.state.Focus()
	if url == "" || m.preview == nil {
		return nil
	}
	ctx, fetch := m.ctx, m.preview
	return func() tea.Msg {
		s, err := fetch(ctx, url)
		return previewMsg{url: url, summary: s, err: err}
	}
}

// status is the line shown under the body.
func (m Model) status() string {
	if m.note != "" {
		return m.note
	}
	if m.state.Loading {
		return "Loading…"
	}
	return m.state.Status
}

func nodeLine(n model.NodeItem) string {
	if n.Label == "" || n.Label == n.ID {
		return n.ID
	}
	return fmt.Sprintf("%s  %s", n.Label, mutedStyle.Render(n.ID))
}
