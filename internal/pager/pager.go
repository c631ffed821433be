// Package pager displays a rendered note in a scrollable full-screen view.
package pager

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	keyEsc = "esc"

	chrome = 2 // blank line + status bar below the content area
)

var statusBarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

// Model is the top-level bubbletea model.
type Model struct {
	title   string
	content string
	vp      viewport.Model
	ready   bool
}

// New creates a pager over pre-rendered content.
func New(title, content string) *Model {
	return &Model{title: title, content: content}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.vp = viewport.New(msg.Width, max(1, msg.Height-chrome))
			m.vp.SetContent(m.content)
			m.ready = true
		} else {
			m.vp.Width = msg.Width
			m.vp.Height = max(1, msg.Height-chrome)
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, key.NewBinding(key.WithKeys("ctrl+c"))) {
			return m, tea.Quit
		}
		switch msg.String() {
		case "q", keyEsc:
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	return m.vp.View() + "\n" + m.renderStatusBar()
}

func (m *Model) renderStatusBar() string {
	status := fmt.Sprintf(" %s | %3.0f%% | j/k:scroll q:quit",
		m.title, m.vp.ScrollPercent()*100) //nolint:mnd // fraction to percent
	return statusBarStyle.Render(truncate(status, m.vp.Width))
}

// Run displays the pager until the user quits.
func Run(title, content string) error {
	p := tea.NewProgram(New(title, content), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running pager: %w", err)
	}
	return nil
}

func truncate(s string, maxLen int) string {
	if maxLen < 4 { //nolint:mnd // minimum length for truncation
		maxLen = 4
	}
	if lipgloss.Width(s) <= maxLen {
		return s
	}
	// Slice by runes to avoid breaking multi-byte UTF-8 characters.
	runes := []rune(s)
	target := maxLen - 3 //nolint:mnd // room for "..."
	if target > len(runes) {
		target = len(runes)
	}
	return string(runes[:target]) + "..."
}
