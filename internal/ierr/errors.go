// Package ierr defines the typed domain errors shared across onyo's core
// packages (gitplumbing, asset, inventory, query, config).
//
// Error format follows the three-line convention used throughout onyo:
//
//	Error: <what went wrong>
//	  Context: <relevant details>
//	  Fix: <what the user should do>
package ierr

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions with no useful structured payload.
var (
	// ErrUserAbort indicates the user declined an interactive confirmation.
	ErrUserAbort = errors.New("aborted by user")
)

// NotARepositoryError indicates the target directory is not a git working tree.
type NotARepositoryError struct {
	Path string
}

func (e *NotARepositoryError) Error() string {
	return fmt.Sprintf("Error: '%s' is not a git repository\n  Context: onyo requires a non-bare git working tree as its root\n  Fix: run 'onyo init %s' to create one", e.Path, e.Path)
}

// AlreadyARepositoryError indicates init was run where one already exists, in conflict.
type AlreadyARepositoryError struct {
	Path string
}

func (e *AlreadyARepositoryError) Error() string {
	return fmt.Sprintf("Error: '%s' is already inside a conflicting repository\n  Context: the target directory belongs to a different onyo/git root\n  Fix: choose an empty directory, or run commands against the existing root", e.Path)
}

// DirtyWorkingTreeError indicates uncommitted changes exist before a transaction.
type DirtyWorkingTreeError struct {
	Paths []string
}

func (e *DirtyWorkingTreeError) Error() string {
	s := fmt.Sprintf("Error: working tree has uncommitted changes\n  Context: %d path(s) are staged, modified, or untracked", len(e.Paths))
	if len(e.Paths) > 0 {
		s += fmt.Sprintf(" (e.g. %s)", e.Paths[0])
	}
	s += "\n  Fix: commit, stash, or remove the offending files before retrying"
	return s
}

// InvalidAssetNameError indicates a name failed to parse against the configured template.
type InvalidAssetNameError struct {
	Name   string
	Clause string // which template field/rule failed
}

func (e *InvalidAssetNameError) Error() string {
	return fmt.Sprintf("Error: invalid asset name '%s'\n  Context: failed template clause '%s'\n  Fix: supply values matching the configured name template", e.Name, e.Clause)
}

// NameCollisionError indicates a path already exists where a new one was expected.
type NameCollisionError struct {
	Path string
}

func (e *NameCollisionError) Error() string {
	return fmt.Sprintf("Error: '%s' already exists\n  Context: an asset or directory with this path is already tracked\n  Fix: choose a different name, or remove the existing entry first", e.Path)
}

// NoSuchAssetError indicates an asset path was expected but not found.
type NoSuchAssetError struct {
	Path string
}

func (e *NoSuchAssetError) Error() string {
	return fmt.Sprintf("Error: no such asset '%s'\n  Context: the path is not a tracked asset\n  Fix: run 'onyo get' to list tracked assets", e.Path)
}

// NoSuchDirectoryError indicates a directory path was expected but not found.
type NoSuchDirectoryError struct {
	Path string
}

func (e *NoSuchDirectoryError) Error() string {
	return fmt.Sprintf("Error: no such directory '%s'\n  Context: the path is not a tracked directory\n  Fix: run 'onyo mkdir %s' to create it", e.Path, e.Path)
}

// NotEmptyError indicates rm/rmdir was attempted without --recursive on a populated directory.
type NotEmptyError struct {
	Path string
}

func (e *NotEmptyError) Error() string {
	return fmt.Sprintf("Error: '%s' is not empty\n  Context: the directory still contains tracked entries\n  Fix: pass -r/--recursive, or remove its contents first", e.Path)
}

// BoundKeyMutationError indicates modify tried to change a name-bound key directly.
type BoundKeyMutationError struct {
	Path string
	Key  string
}

func (e *BoundKeyMutationError) Error() string {
	return fmt.Sprintf("Error: cannot modify bound key '%s' on '%s'\n  Context: '%s' is mirrored from the asset's path\n  Fix: use 'onyo set' with rename, or 'onyo mv' to rename the asset", e.Key, e.Path, e.Key)
}

// MalformedDocumentError indicates a YAML document failed to parse.
type MalformedDocumentError struct {
	Path  string
	Cause error
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("Error: malformed document '%s'\n  Context: %v\n  Fix: correct the YAML syntax, or restore from history with 'onyo history'", e.Path, e.Cause)
}

func (e *MalformedDocumentError) Unwrap() error { return e.Cause }

// TemplateNotFoundError indicates a requested asset template does not exist.
type TemplateNotFoundError struct {
	Name string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("Error: template '%s' not found\n  Context: no file in .onyo/templates/ matches this name\n  Fix: run 'onyo new -t empty' or add the template first", e.Name)
}

// FauxSerialExhaustedError indicates no free faux serial could be generated.
type FauxSerialExhaustedError struct {
	Path    string
	Attempts int
}

func (e *FauxSerialExhaustedError) Error() string {
	return fmt.Sprintf("Error: could not generate a unique faux serial for '%s'\n  Context: %d attempt(s) all collided with existing assets\n  Fix: supply a serial explicitly with -k serial=<value>", e.Path, e.Attempts)
}

// PluginFailureError wraps a non-zero git subprocess invocation.
type PluginFailureError struct {
	Op    string
	Cause error
}

func (e *PluginFailureError) Error() string {
	return fmt.Sprintf("Error: git operation failed\n  Context: while performing '%s': %v\n  Fix: inspect the repository state with 'git status' and retry", e.Op, e.Cause)
}

func (e *PluginFailureError) Unwrap() error { return e.Cause }

// --- typed-error checking helpers (errors.As based), mirroring the
// teacher's Is* helper family ---

func IsNotARepository(err error) bool {
	var e *NotARepositoryError
	return errors.As(err, &e)
}

func IsAlreadyARepository(err error) bool {
	var e *AlreadyARepositoryError
	return errors.As(err, &e)
}

func IsDirtyWorkingTree(err error) bool {
	var e *DirtyWorkingTreeError
	return errors.As(err, &e)
}

func IsInvalidAssetName(err error) bool {
	var e *InvalidAssetNameError
	return errors.As(err, &e)
}

func IsNameCollision(err error) bool {
	var e *NameCollisionError
	return errors.As(err, &e)
}

func IsNoSuchAsset(err error) bool {
	var e *NoSuchAssetError
	return errors.As(err, &e)
}

func IsNoSuchDirectory(err error) bool {
	var e *NoSuchDirectoryError
	return errors.As(err, &e)
}

func IsNotEmpty(err error) bool {
	var e *NotEmptyError
	return errors.As(err, &e)
}

func IsBoundKeyMutation(err error) bool {
	var e *BoundKeyMutationError
	return errors.As(err, &e)
}

func IsMalformedDocument(err error) bool {
	var e *MalformedDocumentError
	return errors.As(err, &e)
}

func IsTemplateNotFound(err error) bool {
	var e *TemplateNotFoundError
	return errors.As(err, &e)
}

func IsFauxSerialExhausted(err error) bool {
	var e *FauxSerialExhaustedError
	return errors.As(err, &e)
}

func IsPluginFailure(err error) bool {
	var e *PluginFailureError
	return errors.As(err, &e)
}

func IsUserAbort(err error) bool {
	return errors.Is(err, ErrUserAbort)
}
