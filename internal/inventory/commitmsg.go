package inventory

import (
	"fmt"
	"path"
	"sort"
	"strings"
)

// changeSet groups an ordered batch of operations by kind for commit-message
// composition and diff summaries, per spec §6's literal format.
type changeSet struct {
	newAssets     []string
	movedAssets   [][2]string
	modifiedAssets []string
	removedAssets []string
	newDirs       []string
	movedDirs     [][2]string
	removedDirs   []string
}

func collectChangeSet(ops []Operation) changeSet {
	var cs changeSet
	for _, op := range ops {
		switch o := op.(type) {
		case *NewDirectory:
			cs.newDirs = append(cs.newDirs, o.Path)
		case *NewAsset:
			cs.newAssets = append(cs.newAssets, o.Path)
		case *ModifyAsset:
			cs.modifiedAssets = append(cs.modifiedAssets, o.Path)
		case *RenameAsset:
			cs.movedAssets = append(cs.movedAssets, [2]string{o.Path, path.Join(path.Dir(o.Path), o.NewName)})
		case *MoveAsset:
			cs.movedAssets = append(cs.movedAssets, [2]string{o.Path, path.Join(o.Destination, path.Base(o.Path))})
		case *MoveDirectory:
			cs.movedDirs = append(cs.movedDirs, [2]string{o.Source, o.Destination})
		case *RemoveAsset:
			cs.removedAssets = append(cs.removedAssets, o.Path)
		case *RemoveDirectory:
			cs.removedDirs = append(cs.removedDirs, o.Path)
		case *ConvertToAssetDir:
			cs.modifiedAssets = append(cs.modifiedAssets, o.Path)
		case *ConvertFromAssetDir:
			cs.modifiedAssets = append(cs.modifiedAssets, o.Path)
		}
	}
	sort.Strings(cs.newAssets)
	sort.Strings(cs.modifiedAssets)
	sort.Strings(cs.removedAssets)
	sort.Strings(cs.newDirs)
	sort.Strings(cs.removedDirs)
	return cs
}

func (cs changeSet) total() int {
	return len(cs.newAssets) + len(cs.movedAssets) + len(cs.modifiedAssets) + len(cs.removedAssets) +
		len(cs.newDirs) + len(cs.movedDirs) + len(cs.removedDirs)
}

// dominantVerb picks the subject-line verb for a transaction containing a
// mix of operation kinds, preferring the most specific single kind and
// falling back to the generic "update" when the batch is mixed.
func (cs changeSet) dominantVerb() string {
	kinds := 0
	var verb string
	note := func(n int, v string) {
		if n > 0 {
			kinds++
			verb = v
		}
	}
	note(len(cs.newAssets), "new")
	note(len(cs.movedAssets), "move")
	note(len(cs.modifiedAssets), "set")
	note(len(cs.removedAssets), "rm")
	note(len(cs.newDirs), "mkdir")
	note(len(cs.movedDirs), "move")
	note(len(cs.removedDirs), "rmdir")
	if kinds == 1 {
		return verb
	}
	return "update"
}

func (cs changeSet) allNames() []string {
	var names []string
	names = append(names, cs.newAssets...)
	for _, pair := range cs.movedAssets {
		names = append(names, pair[1])
	}
	names = append(names, cs.modifiedAssets...)
	names = append(names, cs.removedAssets...)
	names = append(names, cs.newDirs...)
	for _, pair := range cs.movedDirs {
		names = append(names, pair[1])
	}
	names = append(names, cs.removedDirs...)
	return names
}

// ComposeCommitMessage renders the subject + "Inventory Operations" body per
// spec §6: `⟨op⟩ [N]: ⟨names⟩`, blank line, `--- Inventory Operations ---`,
// grouped sections, then any user-supplied paragraphs.
func ComposeCommitMessage(ops []Operation, userParagraphs ...string) string {
	cs := collectChangeSet(ops)
	n := cs.total()
	names := cs.allNames()
	displayNames := names
	const maxNames = 3
	suffix := ""
	if len(displayNames) > maxNames {
		suffix = fmt.Sprintf(" and %d more", len(displayNames)-maxNames)
		displayNames = displayNames[:maxNames]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s [%d]: %s%s\n\n", cs.dominantVerb(), n, strings.Join(displayNames, ", "), suffix)
	b.WriteString("--- Inventory Operations ---\n\n")

	section := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "%s\n", title)
		for _, p := range items {
			fmt.Fprintf(&b, "- %s\n", p)
		}
		b.WriteString("\n")
	}
	sectionPairs := func(title string, items [][2]string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "%s\n", title)
		for _, p := range items {
			fmt.Fprintf(&b, "- %s -> %s\n", p[0], p[1])
		}
		b.WriteString("\n")
	}

	section("New assets:", cs.newAssets)
	sectionPairs("Moved assets:", cs.movedAssets)
	section("Modified assets:", cs.modifiedAssets)
	section("Removed assets:", cs.removedAssets)
	section("New directories:", cs.newDirs)
	sectionPairs("Moved directories:", cs.movedDirs)
	section("Removed directories:", cs.removedDirs)

	msg := strings.TrimRight(b.String(), "\n")
	if len(userParagraphs) > 0 {
		msg += "\n\n" + strings.Join(userParagraphs, "\n\n")
	}
	return msg
}
