package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains all the style definitions for the UI
type Styles struct {
	Title       lipgloss.Style
	Tab         lipgloss.Style
	ActiveTab   lipgloss.Style
	TabGap      lipgloss.Style
	Label       lipgloss.Style
	FocusLabel  lipgloss.Style
	Input       lipgloss.Style
	Button      lipgloss.Style
	Status      lipgloss.Style
	StatusError lipgloss.Style
	Help        lipgloss.Style
	Main        lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() *Styles {
	tabBorder := lipgloss.RoundedBorder()
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginBottom(1),
		Tab: lipgloss.NewStyle().
			Border(tabBorder, true, true, false, true).
			BorderForeground(lipgloss.Color("241")).
			Padding(0, 1),
		ActiveTab: lipgloss.NewStyle().
			Border(tabBorder, true, true, false, true).
			BorderForeground(lipgloss.Color("99")).
			Foreground(lipgloss.Color("226")).
			Bold(true).
			Padding(0, 1),
		TabGap:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Label:       lipgloss.NewStyle().Width(20).Foreground(lipgloss.Color("252")),
		FocusLabel:  lipgloss.NewStyle().Width(20).Foreground(lipgloss.Color("226")).Bold(true),
		Input:       lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Button:      lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("78")).Padding(0, 2).MarginTop(1),
		Status:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1),
		StatusError: lipgloss.NewStyle().Foreground(lipgloss.Color("203")).MarginTop(1), // red
		Help:        lipgloss.NewStyle().Faint(true).MarginTop(1),
		Main:        lipgloss.NewStyle().Padding(1, 2),
	}
}
