package ui

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor   = lipgloss.Color("62")
	secondaryColor = lipgloss.Color("205")
	grayColor      = lipgloss.Color("240")

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(primaryColor).
			Padding(0, 1).
			Bold(true)

	spinnerStyle = lipgloss.NewStyle().Foreground(secondaryColor)

	userMsgStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Bold(true).
			Render

	assistantMsgStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#00AFFF")).
				Bold(true).
				Render

	functionMsgStyle = lipgloss.NewStyle().
				Foreground(grayColor).
				Render

	systemMsgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Render

	errorMsgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true).
			Render
)
