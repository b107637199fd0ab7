package onyotui

import (
	"os"
	"os/exec"
	"strings"
)

// OpenEditor spawns editorCmd (a shell-style command string, possibly with
// arguments, e.g. "code --wait") against path and waits for it to exit.
// The spawn is synchronous by design: user confirmation that editing is
// complete is part of the contract (spec §5, "Coroutines / streams" note).
func OpenEditor(editorCmd, path string) error {
	fields := strings.Fields(editorCmd)
	if len(fields) == 0 {
		return &NoEditorConfiguredError{}
	}
	args := append(append([]string(nil), fields[1:]...), path)
	cmd := exec.Command(fields[0], args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// NoEditorConfiguredError indicates the resolved editor command was empty.
type NoEditorConfiguredError struct{}

func (e *NoEditorConfiguredError) Error() string {
	return "Error: no editor configured\n  Context: onyo.core.editor, core.editor, and $EDITOR are all unset\n  Fix: set one of them, or pass -k/--keys instead of -e/--edit"
}
