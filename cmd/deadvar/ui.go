// # cmd/deadvar/ui.go
package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"deadvar/internal/app"
	"deadvar/internal/shared/util"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	findingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

type item struct {
	title, desc string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

type model struct {
	list       list.Model
	update     app.Update
	lastUpdate time.Time
}

type updateMsg struct {
	update app.Update
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v-4)
	case updateMsg:
		m.update = msg.update
		m.lastUpdate = time.Now()

		items := []list.Item{}
		for _, file := range m.update.Files {
			for _, finding := range file.Findings {
				items = append(items, item{
					title: fmt.Sprintf("Unused local %q", finding.Name),
					desc:  fmt.Sprintf("%s:%d:%d", file.Path, finding.Span.StartLine, finding.Span.StartCol),
				})
			}
		}
		m.list.SetItems(items)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) View() string {
	status := statusStyle.Render(fmt.Sprintf("Last update: %v | %d files | %d scopes skipped | heap %dMB",
		m.lastUpdate.Format("15:04:05"), m.update.FileCount, m.update.Suppressed, util.GetHeapAllocMB()))

	var summary string
	if m.update.Findings == 0 && m.update.Errors == 0 {
		summary = successStyle.Render("✅ No unused locals")
	} else {
		summary = fmt.Sprintf("⚠️  %s | %s",
			findingStyle.Render(fmt.Sprintf("%d Unused", m.update.Findings)),
			errorStyle.Render(fmt.Sprintf("%d Failed files", m.update.Errors)))
	}

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("Unused Local Variable Monitor"), status, summary)
	return docStyle.Render(header + "\n" + m.list.View())
}

func initialModel() model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Findings"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)

	return model{
		list:       l,
		lastUpdate: time.Now(),
	}
}

func runUI(a *app.App) error {
	p := tea.NewProgram(initialModel(), tea.WithAltScreen())

	a.SetUpdateHandler(func(update app.Update) {
		p.Send(updateMsg{update: update})
	})

	// Push the state from the initial scan once the program is receiving.
	go func() {
		p.Send(updateMsg{update: a.CurrentUpdate()})
	}()

	_, err := p.Run()
	return err
}
