package query_test

import (
	"context"
	"testing"

	"github.com/onyo-cli/onyo/internal/query"
	"github.com/onyo-cli/onyo/internal/yamlstore"
)

type fakeSource struct {
	paths map[string][]string // subtree -> asset paths
	docs  map[string]*yamlstore.Document
}

func (f *fakeSource) AssetPaths(ctx context.Context, subtree string, depth int) ([]string, error) {
	return f.paths[subtree], nil
}

func (f *fakeSource) Document(ctx context.Context, p string) (*yamlstore.Document, error) {
	return f.docs[p], nil
}

func mustDoc(t *testing.T, body string) *yamlstore.Document {
	t.Helper()
	doc, err := yamlstore.Load("a.yaml", []byte(body))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return doc
}

func TestGetFiltersByMatch(t *testing.T) {
	src := &fakeSource{
		paths: map[string][]string{".": {"shelf/laptop_1.1", "shelf/laptop_10.2", "shelf/phone_1.3"}},
		docs: map[string]*yamlstore.Document{
			"shelf/laptop_1.1":  mustDoc(t, "serial: \"1\"\nnotes: ok\n"),
			"shelf/laptop_10.2": mustDoc(t, "serial: \"10\"\n"),
			"shelf/phone_1.3":   mustDoc(t, "serial: \"3\"\n"),
		},
	}

	preds, err := query.CompilePredicates([]string{"notes=ok"})
	if err != nil {
		t.Fatalf("CompilePredicates: %v", err)
	}

	rows, err := query.Get(context.Background(), src, query.Params{Match: preds})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(rows) != 1 || rows[0].Path != "shelf/laptop_1.1" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestGetUnsetKeyRendersBracketLiteral(t *testing.T) {
	src := &fakeSource{
		paths: map[string][]string{".": {"shelf/x.1"}},
		docs:  map[string]*yamlstore.Document{"shelf/x.1": mustDoc(t, "notes: hi\n")},
	}
	rows, err := query.Get(context.Background(), src, query.Params{Keys: []string{"warranty"}})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rows[0].Values["warranty"] != "[unset]" {
		t.Fatalf("expected [unset], got %q", rows[0].Values["warranty"])
	}
}

func TestGetExcludeWinsOverInclude(t *testing.T) {
	src := &fakeSource{
		paths: map[string][]string{".": {"shelf/a.1", "shelf/sub/b.2"}},
		docs: map[string]*yamlstore.Document{
			"shelf/a.1":     mustDoc(t, "notes: x\n"),
			"shelf/sub/b.2": mustDoc(t, "notes: y\n"),
		},
	}
	rows, err := query.Get(context.Background(), src, query.Params{Exclude: []string{"shelf/sub"}})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(rows) != 1 || rows[0].Path != "shelf/a.1" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestNaturalSortOrdersDigitRunsNumerically(t *testing.T) {
	src := &fakeSource{
		paths: map[string][]string{".": {"shelf/laptop_1.1", "shelf/laptop_10.2", "shelf/laptop_2.3"}},
		docs: map[string]*yamlstore.Document{
			"shelf/laptop_1.1":  mustDoc(t, "serial: \"1\"\n"),
			"shelf/laptop_10.2": mustDoc(t, "serial: \"10\"\n"),
			"shelf/laptop_2.3":  mustDoc(t, "serial: \"2\"\n"),
		},
	}
	rows, err := query.Get(context.Background(), src, query.Params{
		Keys: []string{"serial"},
		Sort: []query.SortKey{{Key: "serial"}},
	})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := []string{"shelf/laptop_1.1", "shelf/laptop_2.3", "shelf/laptop_10.2"}
	for i, p := range want {
		if rows[i].Path != p {
			t.Fatalf("position %d: want %s, got %s", i, p, rows[i].Path)
		}
	}
}
