package yamlstore_test

import (
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/onyo-cli/onyo/internal/yamlstore"
)

func TestApplyPatchSetAndUnset(t *testing.T) {
	doc, err := yamlstore.Load("a.yaml", []byte("---\ntype: laptop\nserial: \"1\"\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	patched, err := yamlstore.ApplyPatch(doc, yamlstore.Patch{
		Set:   map[string]*yaml.Node{"ram_gb": yamlstore.NewScalarAuto("16")},
		Unset: []string{"serial"},
	})
	if err != nil {
		t.Fatalf("ApplyPatch: %v", err)
	}

	if _, kind := yamlstore.Get(patched.Body(), "serial"); kind != yamlstore.KindUnset {
		t.Fatalf("expected serial to be unset, got kind %v", kind)
	}
	val, kind := yamlstore.Get(patched.Body(), "ram_gb")
	if kind != yamlstore.KindScalar {
		t.Fatalf("expected scalar kind for ram_gb, got %v", kind)
	}
	s, _ := yamlstore.ScalarString(val)
	if s != "16" {
		t.Fatalf("expected 16, got %q", s)
	}

	// original untouched
	if _, kind := yamlstore.Get(doc.Body(), "serial"); kind == yamlstore.KindUnset {
		t.Fatal("ApplyPatch must not mutate the original document")
	}
}

func TestApplyPatchUnsetMissingIsNoOp(t *testing.T) {
	doc, err := yamlstore.Load("a.yaml", []byte("---\ntype: laptop\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	_, err = yamlstore.ApplyPatch(doc, yamlstore.Patch{Unset: []string{"does_not_exist"}})
	if err != nil {
		t.Fatalf("expected no-op, got error: %v", err)
	}
}

func TestApplyPatchAbsentIntermediateRequiresCreateIntermediate(t *testing.T) {
	doc, err := yamlstore.Load("a.yaml", []byte("---\nowner:\n  name: alice\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	_, err = yamlstore.ApplyPatch(doc, yamlstore.Patch{
		Set: map[string]*yaml.Node{"owner.team.lead": yamlstore.NewScalar("bob")},
	})
	if err == nil {
		t.Fatal("expected error when traversing through an absent intermediate mapping without CreateIntermediate")
	}

	patched, err := yamlstore.ApplyPatch(doc, yamlstore.Patch{
		Set:                map[string]*yaml.Node{"owner.team.lead": yamlstore.NewScalar("bob")},
		CreateIntermediate: true,
	})
	if err != nil {
		t.Fatalf("expected CreateIntermediate to allow the set, got: %v", err)
	}
	val, _ := yamlstore.Get(patched.Body(), "owner.team.lead")
	s, _ := yamlstore.ScalarString(val)
	if s != "bob" {
		t.Fatalf("expected bob, got %q", s)
	}
}
