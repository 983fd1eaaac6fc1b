package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"ledgermatch/internal/cli"
)

// Run starts the full-screen review session and blocks until the reviewer
// finishes the queue or quits. It returns the decisions made; items left
// undecided carry no decision at all.
func Run(ctx context.Context, items []cli.ReviewItem) ([]cli.ReviewDecision, error) {
	if len(items) == 0 {
		return nil, nil
	}

	program := tea.NewProgram(newModel(items),
		tea.WithContext(ctx),
		tea.WithAltScreen(),
	)

	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("review session failed: %w", err)
	}

	m, ok := final.(Model)
	if !ok {
		return nil, fmt.Errorf("unexpected model type %T", final)
	}
	return m.Decisions(), nil
}
