package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for the console title bar.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// TimerStyle highlights a running timer in the status bar.
var TimerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorGreen).
	Background(ColorSubtle).
	Padding(0, 1)

// DividerStyle renders the rule between the output pane and the input.
var DividerStyle = lipgloss.NewStyle().
	Foreground(ColorBorder)

// PromptStyle renders echoed input lines.
var PromptStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// ErrorStyle renders replies that start with a failure marker.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(ColorRed)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// FieldNameStyle renders embed field titles.
var FieldNameStyle = lipgloss.NewStyle().Bold(true)

// EmbedStyle returns a left-bordered panel in the embed's accent color.
func EmbedStyle(color int) lipgloss.Style {
	accent := lipgloss.Color(fmt.Sprintf("#%06x", color))
	return lipgloss.NewStyle().
		PaddingLeft(1).
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(accent)
}

// EmbedTitleStyle returns the title style for an embed accent color.
func EmbedTitleStyle(color int) lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(fmt.Sprintf("#%06x", color)))
}
