package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mgomes/quill/coverage"
)

type coverKeyMap struct {
	Open key.Binding
	Back key.Binding
	Up   key.Binding
	Down key.Binding
	Quit key.Binding
}

func (k coverKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Open, k.Back, k.Quit}
}

func (k coverKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var coverKeys = coverKeyMap{
	Open: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "methods"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc", "backspace"),
		key.WithHelp("esc", "classes"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// coverModel browses a report two levels deep: classes, then the methods
// of the selected class.
type coverModel struct {
	report   *coverage.Report
	title    string
	minimum  int
	table    table.Model
	help     help.Model
	class    *coverage.Class
	classRow int
	width    int
	height   int
	quitting bool
}

func newCoverModel(report *coverage.Report, title string, minimum int) coverModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Name", Width: 32},
			{Title: "Statements", Width: 10},
			{Title: "Covered", Width: 8},
			{Title: "Coverage", Width: 8},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(mutedColor).
		BorderBottom(true).
		Foreground(accentColor).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(accentColor)
	t.SetStyles(styles)

	m := coverModel{
		report:  report,
		title:   title,
		minimum: minimum,
		table:   t,
		help:    help.New(),
	}
	m.table.SetRows(classRows(report))
	return m
}

func classRows(report *coverage.Report) []table.Row {
	rows := make([]table.Row, 0, len(report.Classes))
	for _, class := range report.Classes {
		total, covered := class.Totals()
		rows = append(rows, coverageRow(class.Name, total, covered))
	}
	return rows
}

func methodRows(class *coverage.Class) []table.Row {
	rows := make([]table.Row, 0, len(class.Methods))
	for _, method := range class.Methods {
		total, covered := method.Totals()
		name := fmt.Sprintf("%s/%d", method.Name, method.Arity)
		rows = append(rows, coverageRow(name, total, covered))
	}
	return rows
}

func coverageRow(name string, total, covered int) table.Row {
	return table.Row{
		name,
		fmt.Sprint(total),
		fmt.Sprint(covered),
		coverage.FormatPercentage(coverage.Percentage(covered, total)),
	}
}

func (m coverModel) Init() tea.Cmd {
	return nil
}

func (m coverModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if h := msg.Height - 8; h > 3 {
			m.table.SetHeight(h)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, coverKeys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, coverKeys.Open):
			if m.class != nil || len(m.report.Classes) == 0 {
				return m, nil
			}
			m.classRow = m.table.Cursor()
			m.class = m.report.Classes[m.classRow]
			m.table.SetRows(methodRows(m.class))
			m.table.SetCursor(0)
			return m, nil

		case key.Matches(msg, coverKeys.Back):
			if m.class == nil {
				return m, nil
			}
			m.class = nil
			m.table.SetRows(classRows(m.report))
			m.table.SetCursor(m.classRow)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m coverModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	total, covered := m.report.Totals()
	b.WriteString(headerStyle.Render("Coverage") + " " + mutedStyle.Render(m.title) + "\n")
	fmt.Fprintf(&b, "%d of %d statements covered: %s\n\n",
		covered, total, renderPercent(m.report.Percentage(), m.minimum))

	if m.class != nil {
		b.WriteString(warnStyle.Render(m.class.Name))
		if m.class.Source != "" {
			b.WriteString(mutedStyle.Render("  " + m.class.Source))
		}
		b.WriteString("\n")
	}
	b.WriteString(borderStyle.Render(m.table.View()) + "\n")
	b.WriteString(m.help.View(coverKeys))
	return b.String()
}
