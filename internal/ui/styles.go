package ui

import (
	"github.com/charmbracelet/lipgloss"

	"protozoa/internal/agent"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	statsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	modeStyles = map[agent.Mode]lipgloss.Style{
		agent.Exploring:  lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Bold(true),
		agent.Exploiting: lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		agent.Panicking:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		agent.Exhausted:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		agent.GoalNav:    lipgloss.NewStyle().Foreground(lipgloss.Color("177")).Bold(true),
	}
)

func modeStyle(m agent.Mode) lipgloss.Style {
	if s, ok := modeStyles[m]; ok {
		return s
	}
	return statsStyle
}
