package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/dealprep/pkg/integrations/news"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// NewsListModel - Interactive headline selection
// =============================================================================

// NewsListModel is the bubbletea model for browsing headlines.
type NewsListModel struct {
	Items    []news.Item
	Fallback bool
	Cursor   int
	Selected *news.Item
	Height   int
	Offset   int

	now func() time.Time
}

// NewNewsListModel creates a new headline list model. fallback marks the
// items as placeholder data in the header.
func NewNewsListModel(items []news.Item, fallback bool) NewsListModel {
	return NewsListModel{
		Items:    items,
		Fallback: fallback,
		Height:   10,
		now:      time.Now,
	}
}

func (m NewsListModel) Init() tea.Cmd {
	return nil
}

func (m NewsListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Items)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Items) == 0 {
				return m, tea.Quit
			}
			item := m.Items[m.Cursor]
			m.Selected = &item
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 3)
	}
	return m, nil
}

func (m NewsListModel) View() string {
	var b strings.Builder

	title := "Recent Headlines"
	if m.Fallback {
		title += StyleWarning.Render("  (placeholder)")
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	if len(m.Items) == 0 {
		b.WriteString(listDimStyle.Render("  No recent headlines"))
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Items))
	now := time.Now()
	if m.now != nil {
		now = m.now()
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		it := m.Items[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, formatRelativeTime(it.Date, now), it.Source, it.Title})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "When", "Source", "Headline").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			isCurrent := m.Offset+row == m.Cursor
			switch {
			case isCurrent && col == 3:
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			case isCurrent:
				return lipgloss.NewStyle().Bold(true)
			case col == 3:
				return lipgloss.NewStyle().Foreground(colorWhite)
			default:
				return lipgloss.NewStyle().Foreground(colorDim)
			}
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Items))))

	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

// formatRelativeTime renders an RFC 3339 timestamp relative to now.
// Empty input means the upstream gave no date.
func formatRelativeTime(s string, now time.Time) string {
	if s == "" {
		return "undated"
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}

	diff := now.Sub(t)

	switch {
	case diff < 0:
		return t.Format("Jan 2, 2006")
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
