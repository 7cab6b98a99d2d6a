// Package tui holds terminal styling and the interactive init wizard.
package tui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TermTheme holds all color values for a terminal theme.
type TermTheme struct {
	Name string

	Accent lipgloss.Color

	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color

	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Dim       lipgloss.Color

	Border       lipgloss.Color
	ActiveBorder lipgloss.Color
}

// DarkTheme is the default dark terminal theme.
var DarkTheme = TermTheme{
	Name:         "dark",
	Accent:       lipgloss.Color("#38bdf8"),
	Success:      lipgloss.Color("#22c55e"),
	Warning:      lipgloss.Color("#eab308"),
	Error:        lipgloss.Color("#ef4444"),
	Primary:      lipgloss.Color("#e0e0e8"),
	Secondary:    lipgloss.Color("#888888"),
	Dim:          lipgloss.Color("#5a5a70"),
	Border:       lipgloss.Color("#2a2a3a"),
	ActiveBorder: lipgloss.Color("#38bdf8"),
}

// LightTheme is the light terminal theme.
var LightTheme = TermTheme{
	Name:         "light",
	Accent:       lipgloss.Color("#0369a1"),
	Success:      lipgloss.Color("#15803d"),
	Warning:      lipgloss.Color("#a16207"),
	Error:        lipgloss.Color("#b91c1c"),
	Primary:      lipgloss.Color("#0f172a"),
	Secondary:    lipgloss.Color("#374151"),
	Dim:          lipgloss.Color("#4b5563"),
	Border:       lipgloss.Color("#d1d5db"),
	ActiveBorder: lipgloss.Color("#0369a1"),
}

// DetectTheme returns the appropriate theme based on flag, env, or detection.
func DetectTheme(flagVal string) TermTheme {
	switch strings.ToLower(flagVal) {
	case "dark":
		return DarkTheme
	case "light":
		return LightTheme
	}

	if env := os.Getenv("ANKLUME_THEME"); env != "" {
		switch strings.ToLower(env) {
		case "dark":
			return DarkTheme
		case "light":
			return LightTheme
		}
	}

	// COLORFGBG heuristic (format: "fg;bg"): bg 7 or 15 is a light terminal.
	if colorfgbg := os.Getenv("COLORFGBG"); colorfgbg != "" {
		parts := strings.Split(colorfgbg, ";")
		if len(parts) >= 2 {
			bg := parts[len(parts)-1]
			if bg == "15" || bg == "7" {
				return LightTheme
			}
		}
	}

	return DarkTheme
}

// StyleSet bundles the lipgloss styles derived from a theme.
type StyleSet struct {
	Title      lipgloss.Style
	Label      lipgloss.Style
	SuccessTxt lipgloss.Style
	WarnTxt    lipgloss.Style
	ErrorTxt   lipgloss.Style
	DimTxt     lipgloss.Style

	// Diff line styles for dry-run output.
	DiffAdd lipgloss.Style
	DiffDel lipgloss.Style
	DiffCtx lipgloss.Style

	InputBorder  lipgloss.Style
	ActiveBorder lipgloss.Style
}

// NewStyleSet derives the standard styles from a theme.
func NewStyleSet(t TermTheme) *StyleSet {
	return &StyleSet{
		Title:      lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
		Label:      lipgloss.NewStyle().Foreground(t.Primary).Bold(true),
		SuccessTxt: lipgloss.NewStyle().Foreground(t.Success),
		WarnTxt:    lipgloss.NewStyle().Foreground(t.Warning),
		ErrorTxt:   lipgloss.NewStyle().Foreground(t.Error),
		DimTxt:     lipgloss.NewStyle().Foreground(t.Dim),
		DiffAdd:    lipgloss.NewStyle().Foreground(t.Success),
		DiffDel:    lipgloss.NewStyle().Foreground(t.Error),
		DiffCtx:    lipgloss.NewStyle().Foreground(t.Secondary),
		InputBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),
		ActiveBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.ActiveBorder).
			Padding(0, 1),
	}
}
