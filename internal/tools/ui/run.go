package ui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("70"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type doneMsg struct {
	details []string
	err     error
}

type model struct {
	title   string
	details []string
	err     error
	done    bool
	action  func(context.Context) ([]string, error)
}

func (m model) Init() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		details, err := m.action(ctx)
		return doneMsg{details: details, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case doneMsg:
		m.details = msg.details
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	title := titleStyle.Render(m.title)
	if !m.done {
		return fmt.Sprintf("%s\n\nRunning...\n", title)
	}
	status := okStyle.Render("OK")
	out := fmt.Sprintf("%s\n%s\n", title, status)
	if m.err != nil {
		out = fmt.Sprintf("%s\n%s: %v\n", title, failStyle.Render("FAILED"), m.err)
	}
	for _, d := range m.details {
		out += "- " + d + "\n"
	}
	return out
}

// Run executes the action under a small terminal UI and returns its result.
func Run(title string, action func(context.Context) ([]string, error)) ([]string, error) {
	m := model{title: title, action: action}
	p := tea.NewProgram(m)
	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	res := final.(model)
	return res.details, res.err
}
