package main

import (
	"context"
	"fmt"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/onyo-cli/onyo/internal/asset"
	"github.com/onyo-cli/onyo/internal/config"
	"github.com/onyo-cli/onyo/internal/ierr"
	"github.com/onyo-cli/onyo/internal/onyotui"
	"github.com/onyo-cli/onyo/internal/query"
)

// cliExit lets a command carry a specific process exit code through
// main's dispatch, for the handful of commands whose exit semantics are
// not the generic 0/1 success-or-error split (spec §6: get's 0 rows / 1
// none / 2 error, and history's "inherits the invoked tool's code").
type cliExit struct{ code int }

func (e *cliExit) Error() string { return "" }
func (e *cliExit) ExitCode() int { return e.code }

type getFlags struct {
	keys    []string
	match   []string
	include []string
	exclude []string
	depth   int
	sort    []query.SortKey
	machine bool
	types   []string
}

func parseGetFlags(args []string) getFlags {
	var f getFlags
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-k", "--keys":
			for i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				f.keys = append(f.keys, args[i+1])
				i++
			}
		case "-M", "--match":
			for i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				f.match = append(f.match, args[i+1])
				i++
			}
		case "-i", "--include":
			if i+1 < len(args) {
				f.include = append(f.include, args[i+1])
				i++
			}
		case "-e", "--exclude":
			if i+1 < len(args) {
				f.exclude = append(f.exclude, args[i+1])
				i++
			}
		case "-d", "--depth":
			if i+1 < len(args) {
				if n, err := strconv.Atoi(args[i+1]); err == nil {
					f.depth = n
				}
				i++
			}
		case "-s":
			if i+1 < len(args) {
				f.sort = append(f.sort, query.SortKey{Key: args[i+1]})
				i++
			}
		case "-S":
			if i+1 < len(args) {
				f.sort = append(f.sort, query.SortKey{Key: args[i+1], Descending: true})
				i++
			}
		case "-H":
			f.machine = true
		case "-t", "--types":
			for i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				f.types = append(f.types, args[i+1])
				i++
			}
		default:
			f.include = append(f.include, args[i])
		}
	}
	return f
}

// cmdGet implements "get" (spec §6 and §4.7: deterministic rows under
// fixed include/exclude/sort; exit 0 rows found, 1 none, 2 on error).
func (a *app) cmdGet(ctx context.Context, g globalFlags, args []string) error {
	f := parseGetFlags(args)

	preds, err := query.CompilePredicates(f.match)
	if err != nil {
		return &cliExit{code: 2}
	}
	if len(f.types) > 0 {
		typeRe, err := query.CompilePredicates([]string{"type=^(" + strings.Join(f.types, "|") + ")$"})
		if err != nil {
			return &cliExit{code: 2}
		}
		preds = append(preds, typeRe...)
	}

	params := query.Params{
		Include: f.include,
		Exclude: f.exclude,
		Depth:   f.depth,
		Match:   preds,
		Keys:    f.keys,
		Sort:    f.sort,
	}
	rows, err := query.Get(ctx, a.view, params)
	if err != nil {
		if g.json {
			onyotui.EmitJSONError(onyotui.ErrorCode(err), err.Error())
		}
		return &cliExit{code: 2}
	}
	if len(rows) == 0 {
		return &cliExit{code: 1}
	}

	if g.json {
		onyotui.EmitJSONSuccess(rows)
		return nil
	}

	for _, r := range rows {
		if f.machine {
			cols := make([]string, len(f.keys))
			for i, k := range f.keys {
				cols[i] = r.Values[k]
			}
			fmt.Println(strings.Join(append([]string{r.Path}, cols...), "\t"))
			continue
		}
		line := r.Path
		for _, k := range f.keys {
			line += "\t" + k + "=" + r.Values[k]
		}
		fmt.Println(line)
	}
	return nil
}

// cmdTree implements "tree DIR... [-d/--dirs-only]".
func (a *app) cmdTree(ctx context.Context, args []string) error {
	dirsOnly := false
	var dirs []string
	for _, arg := range args {
		if arg == "-d" || arg == "--dirs-only" {
			dirsOnly = true
			continue
		}
		dirs = append(dirs, arg)
	}
	if len(dirs) == 0 {
		dirs = []string{"."}
	}
	for _, root := range dirs {
		fmt.Println(root)
		if err := a.printTree(ctx, root, "", dirsOnly); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) printTree(ctx context.Context, dir, indent string, dirsOnly bool) error {
	subdirs, err := a.view.Directories(ctx, dir)
	if err != nil {
		return err
	}
	var entries []string
	for _, d := range subdirs {
		if path.Dir(d) == dir || (dir == "." && !strings.Contains(d, "/")) {
			entries = append(entries, d)
		}
	}
	if !dirsOnly {
		assets, err := a.view.AssetPaths(ctx, dir, 1)
		if err != nil {
			return err
		}
		entries = append(entries, assets...)
	}
	sort.Strings(entries)
	for i, e := range entries {
		connector := "├── "
		if i == len(entries)-1 {
			connector = "└── "
		}
		fmt.Println(indent + connector + path.Base(e))
		isDir, err := a.view.IsTrackedDirectory(ctx, e)
		if err != nil {
			return err
		}
		isAssetDir, err := a.view.IsAssetDirectory(ctx, e)
		if err != nil {
			return err
		}
		if isDir && !isAssetDir {
			nextIndent := indent + "│   "
			if i == len(entries)-1 {
				nextIndent = indent + "    "
			}
			if err := a.printTree(ctx, e, nextIndent, dirsOnly); err != nil {
				return err
			}
		}
	}
	return nil
}

// cmdShow implements "show PATH... [-b/--base-path]".
func (a *app) cmdShow(ctx context.Context, args []string) error {
	basePath := ""
	var paths []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-b", "--base-path":
			if i+1 < len(args) {
				basePath = args[i+1]
				i++
			}
		default:
			paths = append(paths, args[i])
		}
	}
	for _, p := range paths {
		doc, err := a.view.Document(ctx, p)
		if err != nil {
			return err
		}
		data, err := doc.Dump()
		if err != nil {
			return err
		}
		header := p
		if basePath != "" {
			header = strings.TrimPrefix(p, basePath+"/")
		}
		onyotui.PrintHeading(header)
		fmt.Print(string(data))
	}
	return nil
}

// cmdCat implements "cat ASSET...": prints the raw, unmodified YAML body.
func (a *app) cmdCat(ctx context.Context, args []string) error {
	for _, p := range args {
		doc, err := a.view.Document(ctx, p)
		if err != nil {
			return err
		}
		data, err := doc.Dump()
		if err != nil {
			return err
		}
		os.Stdout.Write(data)
	}
	return nil
}

// cmdConfig implements "config get|set|unset KEY [VALUE]" through the config
// Resolver, not by running git config directly: only recognised onyo.* keys
// are accepted, "get" of an unset key prints an empty line and exits 0, and
// any failure exits 1 instead of with git config's own exit code.
func (a *app) cmdConfig(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: onyo config <get|set|unset> KEY [VALUE]")
	}
	sub, key := args[0], args[1]
	switch sub {
	case "get":
		val, err := a.cfg.Get(ctx, key, "")
		if err != nil {
			return err
		}
		fmt.Println(val)
		return nil
	case "set":
		if len(args) < 3 {
			return fmt.Errorf("usage: onyo config set KEY VALUE")
		}
		return a.cfg.Set(ctx, key, args[2])
	case "unset":
		return a.cfg.Unset(ctx, key)
	default:
		return fmt.Errorf("unknown config subcommand %q", sub)
	}
}

// cmdFsck implements "fsck" (spec §6: "0 clean, non-zero with list of
// problems"), checking the invariants spec §8 states: one anchor per
// tracked directory, bound-field/path consistency, and global name
// uniqueness.
func (a *app) cmdFsck(ctx context.Context) error {
	var problems []string

	dirs, err := a.view.Directories(ctx, ".")
	if err != nil {
		return err
	}
	for _, d := range dirs {
		anchor := path.Join(a.git.Root(), d, ".anchor")
		if _, err := os.Stat(anchor); err != nil {
			isAssetDir, aErr := a.view.IsAssetDirectory(ctx, d)
			if aErr == nil && !isAssetDir {
				problems = append(problems, fmt.Sprintf("directory %q is missing its anchor marker", d))
			}
		}
	}

	assets, err := a.view.AssetPaths(ctx, ".", 0)
	if err != nil {
		return err
	}
	seen := map[string]string{}
	for _, p := range assets {
		name := path.Base(p)
		if prior, ok := seen[name]; ok && prior != p {
			problems = append(problems, fmt.Sprintf("name %q used by both %q and %q", name, prior, p))
		}
		seen[name] = p

		doc, err := a.view.Document(ctx, p)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%q: %v", p, err))
			continue
		}
		values, pErr := a.template.Parse(name)
		if pErr != nil {
			problems = append(problems, fmt.Sprintf("%q: name does not match configured template: %v", p, pErr))
			continue
		}
		bodyValues := asset.BoundValues(a.template, doc)
		for field, want := range values {
			if got := bodyValues[field]; got != want {
				problems = append(problems, fmt.Sprintf("%q: bound field %q is %q in the path but %q in the body", p, field, want, got))
			}
		}
	}

	if len(problems) == 0 {
		onyotui.PrintSuccess("no problems found")
		return nil
	}
	for _, p := range problems {
		onyotui.PrintWarning(p)
	}
	return &cliExit{code: 1}
}

type historyFlags struct {
	nonInteractive bool
	path           string
}

// cmdHistory implements "history PATH [-I/--non-interactive]".
func (a *app) cmdHistory(ctx context.Context, args []string) error {
	var f historyFlags
	for _, arg := range args {
		switch arg {
		case "-I", "--non-interactive":
			f.nonInteractive = true
		default:
			f.path = arg
		}
	}

	key := config.KeyHistoryInteractive
	def := config.DefaultHistoryInteractive
	if f.nonInteractive || !onyotui.IsInteractive() {
		key = config.KeyHistoryNonInteractive
		def = config.DefaultHistoryNonInteractive
	}
	cmdLine, err := a.cfg.Get(ctx, key, def)
	if err != nil {
		return err
	}
	if err := onyotui.RunHistoryViewer(cmdLine, a.git.Root(), f.path); err != nil {
		if ee, ok := err.(interface{ ExitCode() int }); ok {
			return &cliExit{code: ee.ExitCode()}
		}
		return &ierr.PluginFailureError{Op: "history", Cause: err}
	}
	return nil
}
