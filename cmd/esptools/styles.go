package main

import "github.com/charmbracelet/lipgloss"

// Palette shared by all CLI output. Colors are dropped automatically when
// the output is not a terminal.
const (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorMuted   = lipgloss.Color("#6B7280")
	colorError   = lipgloss.Color("#EF4444")
	colorCommand = lipgloss.Color("#3B82F6")
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	mutedStyle = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(colorError)
	cmdStyle   = lipgloss.NewStyle().Foreground(colorCommand)
)
