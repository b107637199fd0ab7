package onyotui

import (
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

// IsInteractive reports whether stdin/stdout are attached to a real
// terminal, the same detection the teacher's non_interactive.go uses via
// go-isatty to decide between the huh wizard and flag-driven flows.
func IsInteractive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
}

// Confirm prompts the user with a yes/no question. In a non-interactive
// context (no TTY, or assumeYes set), it returns assumeYes without
// prompting — callers pass the --yes/-y flag value as assumeYes's default
// answer in that case.
func Confirm(question string, assumeYes bool) (bool, error) {
	if assumeYes || !IsInteractive() {
		return assumeYes, nil
	}
	var confirmed bool
	err := huh.NewConfirm().
		Title(question).
		Affirmative("Yes").
		Negative("No").
		Value(&confirmed).
		Run()
	if err != nil {
		return false, err
	}
	return confirmed, nil
}
