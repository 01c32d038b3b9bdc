package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alfredjeanlab/sitenav/internal/navigator"
)

// Run starts the explorer on the alternate screen and blocks until the
// operator quits.
func Run(ctx context.Context, nav *navigator.Navigator, preview PreviewFunc) error {
	p := tea.NewProgram(New(ctx, nav, preview), tea.WithAltScreen(), tea.WithContext(ctx))
	nav.OnChange(func(st navigator.State) { p.Send(StateMsg{State: st}) })
	if _, err := p.Run(); err != nil && err != tea.ErrProgramKilled {
		return fmt.Errorf("running explorer: %w", err)
	}
	return nil
}
