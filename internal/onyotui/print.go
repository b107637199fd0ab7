// Package onyotui adapts the teacher's lipgloss/huh/isatty-based terminal
// UI (internal/tui) to onyo's confirm/diff/history/editor surface under its
// own package name; the teacher's original internal/tui is no longer part
// of this repository.
package onyotui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	styleError   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5555"))
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B"))
	styleWarn    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F1FA8C"))
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4"))
	styleHeading = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BE9FD"))
)

// PrintError writes a styled error message to stderr, in the teacher's
// PrintError idiom (internal/tui).
func PrintError(err error) {
	fmt.Fprintln(os.Stderr, styleError.Render("✗ "+err.Error()))
}

// PrintSuccess writes a styled success message to stdout.
func PrintSuccess(msg string) {
	fmt.Println(styleSuccess.Render("✓ " + msg))
}

// PrintWarning writes a styled warning message to stdout.
func PrintWarning(msg string) {
	fmt.Println(styleWarn.Render("! " + msg))
}

// PrintHeading writes a styled section heading to stdout.
func PrintHeading(msg string) {
	fmt.Println(styleHeading.Render(msg))
}

// PrintDim writes de-emphasised supplementary text to stdout.
func PrintDim(msg string) {
	fmt.Println(styleDim.Render(msg))
}
