package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/onyo-cli/onyo/internal/asset"
	"github.com/onyo-cli/onyo/internal/config"
	"github.com/onyo-cli/onyo/internal/ierr"
	"github.com/onyo-cli/onyo/internal/inventory"
	"github.com/onyo-cli/onyo/internal/onyotui"
	"github.com/onyo-cli/onyo/internal/yamlstore"
)

type newFlags struct {
	keys      []string
	directory string
	template  string
	clone     string
	edit      bool
	tsv       string
}

func parseNewFlags(args []string) newFlags {
	var f newFlags
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-k", "--keys":
			for i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				f.keys = append(f.keys, args[i+1])
				i++
			}
		case "-d", "--directory":
			if i+1 < len(args) {
				f.directory = args[i+1]
				i++
			}
		case "-t", "--template":
			if i+1 < len(args) {
				f.template = args[i+1]
				i++
			}
		case "-c", "--clone":
			if i+1 < len(args) {
				f.clone = args[i+1]
				i++
			}
		case "-e", "--edit":
			f.edit = true
		case "--tsv":
			if i+1 < len(args) {
				f.tsv = args[i+1]
				i++
			}
		}
	}
	return f
}

// cmdNew implements "new" (spec §6). A single invocation creates one asset
// from -k key=value pairs, a cloned document, or a named template; --tsv
// delegates to the same batch path as the standalone tsv-to-yaml command.
func (a *app) cmdNew(ctx context.Context, g globalFlags, args []string) error {
	f := parseNewFlags(args)
	if f.tsv != "" {
		return a.newAssetsFromTSV(ctx, g, f.tsv, f.directory)
	}

	dir := f.directory
	if dir == "" {
		dir = "."
	}

	base, err := a.loadNewBase(ctx, f)
	if err != nil {
		return err
	}

	values, err := keysToMap(f.keys)
	if err != nil {
		return err
	}

	tail := a.template.TailField()
	if values[tail] == "" {
		serial, err := asset.GenerateFauxSerial(dir, asset.DefaultFauxSerialLength, asset.DefaultFauxSerialAttempts, func(candidate string) bool {
			values[tail] = candidate
			name, rErr := a.template.Render(values)
			if rErr != nil {
				return false
			}
			taken, _ := a.view.NameTaken(ctx, name)
			return taken
		})
		if err != nil {
			return err
		}
		values[tail] = serial
	}

	name, err := a.template.Render(values)
	if err != nil {
		return err
	}
	p := path.Join(dir, name)

	if f.edit {
		bound, err := asset.Bind(a.template, base, values)
		if err != nil {
			return err
		}
		edited, err := a.editDocument(bound, p)
		if err != nil {
			return err
		}
		base = edited
	}

	tx, err := a.beginTransaction(ctx)
	if err != nil {
		return err
	}
	op := &inventory.NewAsset{Path: p, Template: a.template, Body: base}
	if err := tx.Push(ctx, op); err != nil {
		return err
	}
	return a.finishTransaction(ctx, g, tx)
}

// loadNewBase resolves the starting document body for a new asset: a
// cloned existing asset, a named template, or the default template key.
func (a *app) loadNewBase(ctx context.Context, f newFlags) (*yamlstore.Document, error) {
	if f.clone != "" {
		doc, err := a.view.Document(ctx, f.clone)
		if err != nil {
			return nil, err
		}
		return doc.Clone(), nil
	}
	name := f.template
	if name == "" {
		var err error
		name, err = a.cfg.Get(ctx, config.KeyNewTemplate, config.DefaultNewTemplate)
		if err != nil {
			return nil, err
		}
	}
	return a.loadTemplate(name)
}

func (a *app) loadTemplate(name string) (*yamlstore.Document, error) {
	p := filepath.Join(a.git.Root(), ".onyo", "templates", name)
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, &ierr.TemplateNotFoundError{Name: name}
	}
	return yamlstore.Load(p, data)
}

// editDocument dumps doc to a temp file, opens it in the configured editor,
// and reloads the edited content, per spec §5 ("editor spawn is synchronous
// by design; user confirmation that editing is complete is part of the
// contract").
func (a *app) editDocument(doc *yamlstore.Document, displayPath string) (*yamlstore.Document, error) {
	data, err := doc.Dump()
	if err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp("", "onyo-edit-*.yaml")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, err
	}
	tmp.Close()

	editor, err := a.cfg.Editor(context.Background(), os.Getenv("EDITOR"))
	if err != nil {
		return nil, err
	}
	if err := onyotui.OpenEditor(editor, tmp.Name()); err != nil {
		return nil, err
	}
	edited, err := os.ReadFile(tmp.Name())
	if err != nil {
		return nil, err
	}
	return yamlstore.Load(displayPath, edited)
}

func keysToMap(tokens []string) (map[string]string, error) {
	out := map[string]string{}
	for _, t := range tokens {
		idx := strings.Index(t, "=")
		if idx < 0 {
			return nil, fmt.Errorf("malformed -k/--keys clause %q: expected key=value", t)
		}
		out[t[:idx]] = t[idx+1:]
	}
	return out, nil
}

// cmdTsvToYAML implements the standalone "tsv-to-yaml FILE" command, the
// same batch path "new --tsv FILE" uses.
func (a *app) cmdTsvToYAML(ctx context.Context, g globalFlags, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: onyo tsv-to-yaml FILE")
	}
	return a.newAssetsFromTSV(ctx, g, args[0], "")
}

// newAssetsFromTSV implements both "new --tsv FILE" and the standalone
// "tsv-to-yaml FILE" command (spec §8 scenario 5: "a TSV with columns type
// make model serial directory display and 5 rows produces one commit
// adding 5 assets; if any row is invalid, the entire batch aborts with no
// commit").
func (a *app) newAssetsFromTSV(ctx context.Context, g globalFlags, file, defaultDir string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.Comma = '\t'
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return err
	}
	if len(records) < 2 {
		return fmt.Errorf("tsv file %q has no data rows", file)
	}
	header := records[0]

	tx, err := a.beginTransaction(ctx)
	if err != nil {
		return err
	}

	for rowIdx, row := range records[1:] {
		values := map[string]string{}
		var directory, display string
		for i, col := range header {
			if i >= len(row) {
				continue
			}
			switch col {
			case "directory":
				directory = row[i]
			case "display":
				display = row[i]
			default:
				values[col] = row[i]
			}
		}
		if directory == "" {
			directory = defaultDir
		}
		if directory == "" {
			directory = "."
		}

		name, err := a.template.Render(values)
		if err != nil {
			tx.Abandon()
			return fmt.Errorf("tsv row %d: %w", rowIdx+2, err)
		}

		base := yamlstore.Empty()
		if display != "" {
			patched, err := yamlstore.ApplyPatch(base, yamlstore.Patch{
				Set: map[string]*yaml.Node{"display": yamlstore.NewScalar(display)},
			})
			if err != nil {
				tx.Abandon()
				return fmt.Errorf("tsv row %d: %w", rowIdx+2, err)
			}
			base = patched
		}

		op := &inventory.NewAsset{Path: path.Join(directory, name), Template: a.template, Body: base}
		if err := tx.Push(ctx, op); err != nil {
			tx.Abandon()
			return fmt.Errorf("tsv row %d: %w", rowIdx+2, err)
		}
	}

	return a.finishTransaction(ctx, g, tx)
}
