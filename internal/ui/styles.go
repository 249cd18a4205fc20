// Package ui provides terminal styling for lineup CLI output.
// Uses the Ayu color theme with adaptive light/dark mode support.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Ayu theme color palette
var (
	ColorPass = lipgloss.AdaptiveColor{
		Light: "#86b300",
		Dark:  "#c2d94c",
	}
	ColorWarn = lipgloss.AdaptiveColor{
		Light: "#f2ae49",
		Dark:  "#ffb454",
	}
	ColorFail = lipgloss.AdaptiveColor{
		Light: "#f07171",
		Dark:  "#f07178",
	}
	ColorMuted = lipgloss.AdaptiveColor{
		Light: "#828c99",
		Dark:  "#6c7680",
	}
	ColorAccent = lipgloss.AdaptiveColor{
		Light: "#399ee6",
		Dark:  "#59c2ff",
	}
)

var (
	PassStyle   = lipgloss.NewStyle().Foreground(ColorPass)
	WarnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
	FailStyle   = lipgloss.NewStyle().Foreground(ColorFail)
	MutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	AccentStyle = lipgloss.NewStyle().Foreground(ColorAccent)

	// DoneStyle renders titles of completed items.
	DoneStyle = lipgloss.NewStyle().Foreground(ColorMuted).Strikethrough(true)

	// CategoryStyle for section headers
	CategoryStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
)

// Status icons
const (
	IconPass = "✓"
	IconWarn = "⚠"
	IconFail = "✗"
	IconOpen = "○"
)

// SeparatorLight is the rule printed between list sections.
const SeparatorLight = "──────────────────────────────────────────"

func render(style lipgloss.Style, s string) string {
	if !ShouldUseColor() {
		return s
	}
	return style.Render(s)
}

// RenderPass renders text with pass (green) styling
func RenderPass(s string) string { return render(PassStyle, s) }

// RenderWarn renders text with warning (yellow) styling
func RenderWarn(s string) string { return render(WarnStyle, s) }

// RenderFail renders text with fail (red) styling
func RenderFail(s string) string { return render(FailStyle, s) }

// RenderMuted renders text with muted (gray) styling
func RenderMuted(s string) string { return render(MutedStyle, s) }

// RenderAccent renders text with accent (blue) styling
func RenderAccent(s string) string { return render(AccentStyle, s) }

// RenderCategory renders a section header in uppercase with accent color
func RenderCategory(s string) string {
	return render(CategoryStyle, strings.ToUpper(s))
}

// RenderSeparator renders the light separator line in muted color
func RenderSeparator() string {
	return RenderMuted(SeparatorLight)
}
