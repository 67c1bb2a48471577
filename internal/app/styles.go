package app

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	infoStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	promptStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("79")).Bold(true)
	listItemStyle    = lipgloss.NewStyle().PaddingLeft(2)
	progressBarStyle = lipgloss.NewStyle().Padding(0, 1)
	headerStyle      = lipgloss.NewStyle().Bold(true).MarginBottom(1)

	statusStyles = map[string]lipgloss.Style{
		"Queued":      lipgloss.NewStyle().Foreground(lipgloss.Color("248")),
		"Downloading": lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		"Complete":    lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
		"Error":       lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)
