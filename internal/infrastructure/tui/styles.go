package tui

import "github.com/charmbracelet/lipgloss"

// Styles groups the lipgloss styles used by the terminal view.
type Styles struct {
	Header   lipgloss.Style
	Prompt   lipgloss.Style
	Input    lipgloss.Style
	Output   lipgloss.Style
	Error    lipgloss.Style
	Advisory lipgloss.Style
	Status   lipgloss.Style
	Online   lipgloss.Style
	Offline  lipgloss.Style
}

// DefaultStyles returns the green-on-dark terminal look.
func DefaultStyles() Styles {
	return Styles{
		Header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")).Padding(0, 1),
		Prompt:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		Input:    lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
		Output:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Advisory: lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Italic(true),
		Status:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1),
		Online:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Offline:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
}
