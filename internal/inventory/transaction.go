package inventory

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/onyo-cli/onyo/internal/asset"
	"github.com/onyo-cli/onyo/internal/gitplumbing"
	"github.com/onyo-cli/onyo/internal/ierr"
)

// TxState is the Transaction lifecycle state (spec §4.6: Open -> Rejected /
// Committed / Abandoned).
type TxState int

const (
	TxOpen TxState = iota
	TxCommitted
	TxRejected
	TxAbandoned
)

func (s TxState) String() string {
	switch s {
	case TxOpen:
		return "open"
	case TxCommitted:
		return "committed"
	case TxRejected:
		return "rejected"
	case TxAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Transaction borrows a View read-only and owns an overlay and ordered
// operation list exclusively until Commit or Abandon (spec §4.3 Ownership).
type Transaction struct {
	view  *View
	git   GitAdapter
	ov    *overlay
	ops   []Operation
	state TxState
}

// NewTransaction opens a transaction against view. Per spec §4.6 precondition,
// the working tree must be clean before any operation is pushed.
func NewTransaction(ctx context.Context, git GitAdapter, view *View) (*Transaction, error) {
	clean, err := git.IsClean(ctx)
	if err != nil {
		return nil, err
	}
	if !clean {
		return nil, &ierr.DirtyWorkingTreeError{}
	}
	return &Transaction{
		view:  view,
		git:   git,
		ov:    newOverlay(view),
		state: TxOpen,
	}, nil
}

// State returns the transaction's current lifecycle state.
func (tx *Transaction) State() TxState { return tx.state }

// Operations returns the ordered list of operations pushed so far.
func (tx *Transaction) Operations() []Operation { return append([]Operation(nil), tx.ops...) }

// Push validates op against the overlay accumulated so far and, on success,
// appends it to the transaction. On failure the transaction's overlay is
// left exactly as it was (clone-then-apply, spec §4.6 algorithm step 1).
func (tx *Transaction) Push(ctx context.Context, op Operation) error {
	if tx.state != TxOpen {
		return fmt.Errorf("transaction is %s, cannot push", tx.state)
	}
	candidate := tx.ov.clone()
	if _, err := op.Apply(ctx, candidate); err != nil {
		tx.state = TxRejected
		return err
	}
	tx.ov = candidate
	tx.ops = append(tx.ops, op)
	tx.state = TxOpen
	return nil
}

// Abandon discards the transaction's overlay and operation list without
// touching the working tree.
func (tx *Transaction) Abandon() {
	tx.ov = newOverlay(tx.view)
	tx.ops = nil
	tx.state = TxAbandoned
}

// CommitOpts configures the commit record produced by Transaction.Commit.
type CommitOpts struct {
	AuthorName string
	AuthorMail string
	// ExtraParagraphs are appended to the auto-composed commit message,
	// per spec §6: "optional user paragraphs last."
	ExtraParagraphs []string
	// NoAutoMessage disables the autogenerated "⟨op⟩ [N]: …" subject and
	// "Inventory Operations" body (spec §4.6), leaving only the joined
	// ExtraParagraphs as the commit message.
	NoAutoMessage bool
}

// BodyDiff is one asset's before/after body content, as it would be
// written by Commit, for pre-commit review (spec §4.6.2 render_diff).
type BodyDiff struct {
	Path   string
	Before string
	After  string
}

// BodyDiffs re-derives the step sequence Commit would produce, without
// touching the working tree, and pairs each write/convert step's new
// content with whatever currently sits on disk at that path.
func (tx *Transaction) BodyDiffs(ctx context.Context) ([]BodyDiff, error) {
	if tx.state != TxOpen {
		return nil, fmt.Errorf("transaction is %s, cannot preview", tx.state)
	}
	var steps []step
	fresh := newOverlay(tx.view)
	for _, op := range tx.ops {
		s, err := op.Apply(ctx, fresh)
		if err != nil {
			return nil, err
		}
		steps = append(steps, s...)
	}

	root := tx.git.Root()
	var diffs []BodyDiff
	for _, s := range steps {
		switch s.kind {
		case stepWrite, stepConvertToDir, stepConvertFromDir:
			readPath := s.path
			if s.kind == stepConvertFromDir {
				readPath = path.Join(s.path, asset.BodyFileName)
			}
			before := ""
			if b, err := os.ReadFile(filepath.Join(root, readPath)); err == nil {
				before = string(b)
			}
			diffs = append(diffs, BodyDiff{Path: s.path, Before: before, After: string(s.data)})
		}
	}
	return diffs, nil
}

// Commit materialises every pushed operation's filesystem steps in order
// (file/directory conversions first, then mkdir, write, move, remove —
// spec §4.6 step 3d), stages and commits them
// with an auto-composed message, and invalidates the view cache. A failure
// partway through triggers a best-effort rollback via ResetWorktree.
//
// If no operations were pushed, or all pushed operations net out to no
// filesystem change, Commit is a no-op and returns an empty commit hash.
func (tx *Transaction) Commit(ctx context.Context, opts CommitOpts) (string, error) {
	if tx.state != TxOpen {
		return "", fmt.Errorf("transaction is %s, cannot commit", tx.state)
	}
	if len(tx.ops) == 0 {
		tx.state = TxCommitted
		return "", nil
	}

	// Re-derive the full step sequence by re-applying every pushed operation
	// in order against a single fresh overlay, so later operations see the
	// staged state left by earlier ones within this transaction.
	var steps []step
	fresh := newOverlay(tx.view)
	for _, op := range tx.ops {
		s, err := op.Apply(ctx, fresh)
		if err != nil {
			tx.state = TxRejected
			return "", err
		}
		steps = append(steps, s...)
	}

	root := tx.git.Root()
	var touched []string
	applyStep := func(s step) error {
		switch s.kind {
		case stepMkdir:
			full := filepath.Join(root, s.path)
			if err := os.MkdirAll(full, 0o755); err != nil {
				return err
			}
			return nil
		case stepWrite:
			full := filepath.Join(root, s.path)
			if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(full, s.data, 0o644); err != nil {
				return err
			}
			touched = append(touched, s.path)
			return nil
		case stepMove:
			if err := tx.git.Move(ctx, s.path, s.dst); err != nil {
				return err
			}
			touched = append(touched, s.path, s.dst)
			return nil
		case stepRemove:
			if err := tx.git.Remove(ctx, s.recursive, s.path); err != nil {
				return err
			}
			touched = append(touched, s.path)
			return nil
		case stepConvertToDir:
			if err := tx.git.Remove(ctx, false, s.path); err != nil {
				return err
			}
			full := filepath.Join(root, s.path)
			if err := os.MkdirAll(full, 0o755); err != nil {
				return err
			}
			bodyFull := filepath.Join(full, asset.BodyFileName)
			if err := os.WriteFile(bodyFull, s.data, 0o644); err != nil {
				return err
			}
			touched = append(touched, path.Join(s.path, asset.BodyFileName))
			return nil
		case stepConvertFromDir:
			if err := tx.git.Remove(ctx, true, s.path); err != nil {
				return err
			}
			full := filepath.Join(root, s.path)
			if err := os.WriteFile(full, s.data, 0o644); err != nil {
				return err
			}
			touched = append(touched, s.path)
			return nil
		}
		return fmt.Errorf("unknown step kind %d", s.kind)
	}

	var mkdirs, writes, moves, removes, converts []step
	for _, s := range steps {
		switch s.kind {
		case stepMkdir:
			mkdirs = append(mkdirs, s)
		case stepWrite:
			writes = append(writes, s)
		case stepMove:
			moves = append(moves, s)
		case stepRemove:
			removes = append(removes, s)
		case stepConvertToDir, stepConvertFromDir:
			converts = append(converts, s)
		}
	}

	ordered := append(converts, append(append(append(mkdirs, writes...), moves...), removes...)...)
	wroteAny := false
	for _, s := range ordered {
		if err := applyStep(s); err != nil {
			if wroteAny {
				_ = tx.git.ResetWorktree(ctx)
			}
			tx.state = TxRejected
			return "", &ierr.PluginFailureError{Op: "commit", Cause: err}
		}
		wroteAny = true
	}

	sort.Strings(touched)
	if err := tx.git.Add(ctx, dedupe(touched)...); err != nil {
		_ = tx.git.ResetWorktree(ctx)
		tx.state = TxRejected
		return "", &ierr.PluginFailureError{Op: "stage", Cause: err}
	}

	msg := strings.Join(opts.ExtraParagraphs, "\n\n")
	if !opts.NoAutoMessage {
		msg = ComposeCommitMessage(tx.ops, opts.ExtraParagraphs...)
	}
	hash, err := tx.git.Commit(ctx, gitplumbing.CommitOpts{
		Message:    msg,
		AuthorName: opts.AuthorName,
		AuthorMail: opts.AuthorMail,
	})
	if err != nil {
		if err == gitplumbing.ErrNothingToCommit {
			tx.state = TxCommitted
			tx.view.Invalidate()
			return "", nil
		}
		_ = tx.git.ResetWorktree(ctx)
		tx.state = TxRejected
		return "", &ierr.PluginFailureError{Op: "commit", Cause: err}
	}

	tx.view.Invalidate()
	tx.state = TxCommitted
	return hash, nil
}

func dedupe(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
