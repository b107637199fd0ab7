package asset_test

import (
	"testing"

	"github.com/onyo-cli/onyo/internal/asset"
)

func mustCompile(t *testing.T, tmpl string) *asset.Template {
	t.Helper()
	tp, err := asset.Compile(tmpl)
	if err != nil {
		t.Fatalf("Compile(%q): %v", tmpl, err)
	}
	return tp
}

func TestParseDefaultTemplate(t *testing.T) {
	tp := mustCompile(t, "{type}_{make}_{model}.{serial}")

	values, err := tp.Parse("laptop_apple_macbookpro.867")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := map[string]string{"type": "laptop", "make": "apple", "model": "macbookpro", "serial": "867"}
	for k, v := range want {
		if values[k] != v {
			t.Fatalf("field %q: got %q, want %q", k, values[k], v)
		}
	}
	if tp.TailField() != "serial" {
		t.Fatalf("expected tail field 'serial', got %q", tp.TailField())
	}
}

func TestParseTailAllowsDotsAndUnderscores(t *testing.T) {
	tp := mustCompile(t, "{type}_{make}_{model}.{serial}")
	values, err := tp.Parse("cable_generic_usb.faux_a1.2b")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if values["serial"] != "faux_a1.2b" {
		t.Fatalf("expected relaxed tail charset to allow '_' and '.', got %q", values["serial"])
	}
}

func TestParseRejectsReservedCharsInNonTailFields(t *testing.T) {
	tp := mustCompile(t, "{type}_{make}_{model}.{serial}")
	if _, err := tp.Parse("lap.top_apple_macbookpro.867"); err == nil {
		t.Fatal("expected error: '.' not allowed in non-tail field")
	}
}

func TestRenderRoundTrip(t *testing.T) {
	tp := mustCompile(t, "{type}_{make}_{model}.{serial}")
	name, err := tp.Render(map[string]string{
		"type": "laptop", "make": "apple", "model": "macbookpro", "serial": "867",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if name != "laptop_apple_macbookpro.867" {
		t.Fatalf("unexpected rendered name: %q", name)
	}

	values, err := tp.Parse(name)
	if err != nil {
		t.Fatalf("Parse(Render(...)): %v", err)
	}
	if values["model"] != "macbookpro" {
		t.Fatalf("round trip mismatch: %v", values)
	}
}

func TestRenderRejectsReservedCharsInNonTailField(t *testing.T) {
	tp := mustCompile(t, "{type}_{make}_{model}.{serial}")
	_, err := tp.Render(map[string]string{
		"type": "lap.top", "make": "apple", "model": "macbookpro", "serial": "867",
	})
	if err == nil {
		t.Fatal("expected error for reserved character in non-tail field")
	}
}
