// Package tui implements the full-screen review interface built on
// bubbletea. It walks the reviewer through the engine's review queue and
// collects accept/reject/skip decisions; persistence happens in the caller.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ledgermatch/internal/cli"
)

// Model holds the review screen state.
type Model struct {
	keymap    KeyMap
	help      help.Model
	items     []cli.ReviewItem
	decisions map[int]cli.Decision
	order     []int
	cursor    int
	width     int
	height    int
	quitting  bool
}

// newModel creates a review model over the given queue.
func newModel(items []cli.ReviewItem) Model {
	return Model{
		keymap:    DefaultKeyMap(),
		help:      help.New(),
		items:     items,
		decisions: make(map[int]cli.Decision),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keymap.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keymap.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keymap.Up):
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case key.Matches(msg, m.keymap.Down):
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
			return m, nil
		case key.Matches(msg, m.keymap.Accept):
			return m.decide(cli.DecisionAccept)
		case key.Matches(msg, m.keymap.Reject):
			return m.decide(cli.DecisionReject)
		case key.Matches(msg, m.keymap.Skip):
			return m.decide(cli.DecisionSkip)
		case key.Matches(msg, m.keymap.Undo):
			return m.undo()
		}
	}

	return m, nil
}

// decide records a decision for the item under the cursor and advances.
// Once every item has a decision the session ends.
func (m Model) decide(d cli.Decision) (tea.Model, tea.Cmd) {
	if len(m.items) == 0 {
		return m, tea.Quit
	}

	if _, already := m.decisions[m.cursor]; !already {
		m.order = append(m.order, m.cursor)
	}
	m.decisions[m.cursor] = d

	if len(m.decisions) == len(m.items) {
		m.quitting = true
		return m, tea.Quit
	}

	for i := 1; i <= len(m.items); i++ {
		next := (m.cursor + i) % len(m.items)
		if _, done := m.decisions[next]; !done {
			m.cursor = next
			break
		}
	}
	return m, nil
}

func (m Model) undo() (tea.Model, tea.Cmd) {
	if len(m.order) == 0 {
		return m, nil
	}
	last := m.order[len(m.order)-1]
	m.order = m.order[:len(m.order)-1]
	delete(m.decisions, last)
	m.cursor = last
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting || len(m.items) == 0 {
		return ""
	}

	var b strings.Builder

	b.WriteString(cli.FormatTitle(fmt.Sprintf("Review queue: %d of %d decided",
		len(m.decisions), len(m.items))) + "\n\n")

	b.WriteString(m.renderList() + "\n")
	b.WriteString(m.renderDetail() + "\n\n")
	b.WriteString(m.help.View(m.keymap))

	return b.String()
}

func (m Model) renderList() string {
	var b strings.Builder
	for i, item := range m.items {
		marker := "  "
		if i == m.cursor {
			marker = cli.PromptStyle.Render("> ")
		}

		status := cli.SubtleStyle.Render("·")
		if d, ok := m.decisions[i]; ok {
			switch d {
			case cli.DecisionAccept:
				status = cli.SuccessStyle.Render(cli.SuccessIcon)
			case cli.DecisionReject:
				status = cli.ErrorStyle.Render(cli.ErrorIcon)
			case cli.DecisionSkip:
				status = cli.SubtleStyle.Render("-")
			}
		}

		line := fmt.Sprintf("%s%s %-24s %-24s %5.1f",
			marker, status,
			clip(item.Transaction.RawMerchant, 24),
			clip(item.Receipt.RawMerchant, 24),
			item.Match.Confidence)
		if i == m.cursor {
			line = cli.BoldStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m Model) renderDetail() string {
	item := m.items[m.cursor]

	total, estimated := item.Receipt.EffectiveTotal()
	totalLabel := total.StringFixed(2)
	if estimated {
		totalLabel += " (estimated)"
	}
	receiptDate := "no date"
	if item.Receipt.HasDate() {
		receiptDate = item.Receipt.Date.Format("2006-01-02")
	}

	lines := []string{
		fmt.Sprintf("Transaction  %s  %s  %s",
			item.Transaction.Date.Format("2006-01-02"),
			item.Transaction.AbsAmount().StringFixed(2),
			item.Transaction.RawMerchant),
		fmt.Sprintf("Receipt      %s  %s  %s",
			receiptDate, totalLabel, item.Receipt.RawMerchant),
		fmt.Sprintf("Confidence   %.1f  %s",
			item.Match.Confidence,
			cli.TierStyle(string(item.Match.Tier)).Render(string(item.Match.Tier))),
		cli.SubtleStyle.Render(item.Match.Reasoning),
	}

	if flags := item.Match.Flags.List(); len(flags) > 0 {
		labels := make([]string, len(flags))
		for i, f := range flags {
			labels[i] = string(f)
		}
		lines = append(lines, "Flags: "+cli.WarningStyle.Render(strings.Join(labels, ", ")))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#333")).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

// Decisions returns the decisions made during the session, in queue order.
func (m Model) Decisions() []cli.ReviewDecision {
	decisions := make([]cli.ReviewDecision, 0, len(m.decisions))
	for i, item := range m.items {
		d, ok := m.decisions[i]
		if !ok {
			continue
		}
		decisions = append(decisions, cli.ReviewDecision{Item: item, Decision: d})
	}
	return decisions
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
