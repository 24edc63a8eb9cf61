package yamlfix

import (
	"errors"
	"testing"

	"mend/internal/diag"
	"mend/internal/source"
)

func TestPatchCleanFileUntouched(t *testing.T) {
	input := "version: 2\nmodels:\n  - name: orders\n    description: all orders\n"
	out, bag, err := patchString(t, "models/clean.yml", input, Options{})
	if err != nil {
		t.Fatalf("Patch() error: %v", err)
	}
	if out != input {
		t.Fatalf("clean file must stay byte-identical, got %q", out)
	}
	if bag.Len() != 0 {
		t.Fatalf("diagnostics = %+v", bag.Items())
	}
}

func TestPatchIdempotent(t *testing.T) {
	inputs := []string{
		"models:\n- name: a\n  materialized: table\n  meta:\n    team: core\n",
		"\tversion: 2\nmodels:\n  - name: b\n    custom: 1\n",
		"groups:\n  - name: g\n    owner:\n      email: g@example.com\n      slack: ch\n",
	}
	for _, input := range inputs {
		first, _, err := patchString(t, "models/i.yml", input, Options{})
		if err != nil {
			t.Fatalf("first Patch() error: %v", err)
		}
		second, bag, err := patchString(t, "models/i.yml", first, Options{})
		if err != nil {
			t.Fatalf("second Patch() error: %v", err)
		}
		if second != first {
			t.Errorf("not idempotent:\nfirst  %q\nsecond %q", first, second)
		}
		if bag.Len() != 0 {
			t.Errorf("second run produced diagnostics: %+v", bag.Items())
		}
	}
}

func TestNestedSequenceNeedsTwoPasses(t *testing.T) {
	input := "models:\n- name: a\n  columns:\n  - name: id\n"
	want := "models:\n  - name: a\n    columns:\n      - name: id\n"
	out, bag, err := patchString(t, "models/n.yml", input, Options{})
	if err != nil {
		t.Fatalf("Patch() error: %v", err)
	}
	if out != want {
		t.Fatalf("out = %q, want %q", out, want)
	}
	dents := 0
	for _, d := range bag.Items() {
		if d.Code == diag.YmlSequenceDent {
			dents++
		}
	}
	if dents != 2 {
		t.Fatalf("sequence findings = %d, want 2", dents)
	}
}

func TestPassLimitLeavesFileUntouched(t *testing.T) {
	input := "models:\n- name: a\n  columns:\n  - name: id\n"
	fs := source.NewFileSet()
	f := fs.Get(fs.AddVirtual("models/p.yml", []byte(input)))
	out, err := Patch(fs, f, diag.NopReporter{}, Options{PassLimit: 1})
	if !errors.Is(err, ErrPassLimit) {
		t.Fatalf("err = %v, want ErrPassLimit", err)
	}
	if string(out) != input {
		t.Fatalf("file must stay untouched on pass limit, got %q", out)
	}
}

func TestPatchSkipsUnparsableDocument(t *testing.T) {
	input := "models: [unclosed\n"
	out, bag, err := patchString(t, "models/bad.yml", input, Options{})
	if err != nil {
		t.Fatalf("Patch() error: %v", err)
	}
	if out != input {
		t.Fatalf("unparsable document must stay verbatim, got %q", out)
	}
	if bag.Len() != 0 {
		t.Fatalf("diagnostics = %+v", bag.Items())
	}
}

func TestPatchFixCarriesWholeDocumentEdit(t *testing.T) {
	input := "models:\n  - name: a\n    materialized: table\n"
	fs := source.NewFileSet()
	f := fs.Get(fs.AddVirtual("models/w.yml", []byte(input)))
	bag := diag.NewBag(8)
	out, err := Patch(fs, f, diag.BagReporter{Bag: bag}, Options{})
	if err != nil {
		t.Fatalf("Patch() error: %v", err)
	}
	if !bag.HasFixes() {
		t.Fatalf("node findings must carry a fix")
	}
	var fixed string
	for _, d := range bag.Items() {
		for _, fx := range d.Fixes {
			for _, e := range fx.Edits {
				fixed = e.NewText
			}
		}
	}
	if fixed != string(out) {
		t.Fatalf("fix text %q != returned content %q", fixed, out)
	}
}
