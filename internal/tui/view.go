package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alfredjeanlab/sitenav/internal/navigator"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("74"))
	sectionStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("250"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("74"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).BorderTop(true).BorderStyle(lipgloss.NormalBorder())
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch {
	case m.confirmReset:
		b.WriteString(errorStyle.Render("Reset clears every crawled page on the backend. Continue? [y/N]"))
	case m.previewing != "" || m.state.Mode == navigator.ModeTree:
		if m.ready {
			b.WriteString(m.viewport.View())
		}
	default:
		b.WriteString(m.renderList())
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	var mode string
	switch m.state.Mode {
	case navigator.ModeExplorer:
		mode = "explorer"
	case navigator.ModeTree:
		mode = "tree"
		if f := m.state.Forest; f != nil {
			mode = fmt.Sprintf("tree (%d pages)", f.Total)
		}
	default:
		mode = "landing"
	}
	return titleStyle.Render("sitenav") + mutedStyle.Render(" · "+mode)
}

func (m Model) renderList() string {
	var b strings.Builder
	if cur := m.state.Current; cur != nil {
		b.WriteString(sectionStyle.Render("current"))
		b.WriteString("\n  ")
		b.WriteString(nodeLine(*cur))
		b.WriteString("\n")
	}

	items := m.items()
	if len(items) == 0 {
		switch m.state.Mode {
		case navigator.ModeLanding:
			b.WriteString(mutedStyle.Render("No pages yet. Press / and enter a URL, ctrl+s to scan it."))
		default:
			b.WriteString(mutedStyle.Render("No parents or children."))
		}
		return b.String()
	}

	section := ""
	for i, it := range items {
		if it.section != section {
			section = it.section
			title := section
			if section == "history" && !m.showAll {
				title = "roots"
			}
			b.WriteString(sectionStyle.Render(title))
			b.WriteString("\n")
		}
		line := nodeLine(it.node)
		if i == m.cursor {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderFooter() string {
	status := m.status()
	if strings.HasPrefix(status, "Error") {
		status = errorStyle.Render(status)
	}
	var keys string
	switch {
	case m.input.Focused():
		keys = "enter focus · ctrl+s scan · esc cancel"
	case m.state.Mode == navigator.ModeExplorer:
		keys = "enter go · s go+scan · S rescan · p preview · a analyze · t tree · b back · R reset · q quit"
	case m.state.Mode == navigator.ModeTree:
		keys = "j/k scroll · b back · q quit"
	default:
		keys = "enter open · / url · l all/roots · t tree · R reset · q quit"
	}
	return footerStyle.Render(status + "\n" + keys)
}
