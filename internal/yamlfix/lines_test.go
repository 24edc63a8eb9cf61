package yamlfix

import (
	"strings"
	"testing"

	"mend/internal/diag"
	"mend/internal/source"
)

func patchString(t *testing.T, path, input string, opts Options) (string, *diag.Bag, error) {
	t.Helper()
	fs := source.NewFileSet()
	f := fs.Get(fs.AddVirtual(path, []byte(input)))
	bag := diag.NewBag(64)
	out, err := Patch(fs, f, diag.BagReporter{Bag: bag}, opts)
	return string(out), bag, err
}

func TestTabOnlyLineBlanked(t *testing.T) {
	out, bag, err := patchString(t, "models/a.yml", "models: []\n\t\t\nversion: 2\n", Options{})
	if err != nil {
		t.Fatalf("Patch() error: %v", err)
	}
	if out != "models: []\n\nversion: 2\n" {
		t.Fatalf("out = %q", out)
	}
	if got := bag.Items(); len(got) != 1 || got[0].Message != "Removed line containing only tabs on line 2" {
		t.Fatalf("diagnostics = %+v", got)
	}
}

func TestVersionLineNormalized(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		fixed bool
	}{
		{"indented", "  version: 2\n", "version: 2\n", true},
		{"spaced colon", "version :  2\n", "version: 2\n", true},
		{"already clean", "version: 2\n", "version: 2\n", false},
		{"other value", "version: 20\n", "version: 20\n", false},
		{"not version", "  revision: 2\n", "  revision: 2\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, bag, err := patchString(t, "models/v.yml", tt.input, Options{})
			if err != nil {
				t.Fatalf("Patch() error: %v", err)
			}
			if out != tt.want {
				t.Errorf("out = %q, want %q", out, tt.want)
			}
			if tt.fixed != (bag.Len() > 0) {
				t.Errorf("diagnostics = %d, fixed = %v", bag.Len(), tt.fixed)
			}
		})
	}
}

func TestLeadingTabsReplaced(t *testing.T) {
	out, bag, err := patchString(t, "models/t.yml", "models:\n\t- name: a\n", Options{})
	if err != nil {
		t.Fatalf("Patch() error: %v", err)
	}
	if out != "models:\n  - name: a\n" {
		t.Fatalf("out = %q", out)
	}
	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.YmlLeadingTab && d.Message == "Found extra tabs: line 2 - column 1" {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing tab diagnostic, got %+v", bag.Items())
	}
}

func TestTabInsideTextUntouched(t *testing.T) {
	input := "models:\n  - name: \"a\tb\"\n"
	out, bag, err := patchString(t, "models/q.yml", input, Options{})
	if err != nil {
		t.Fatalf("Patch() error: %v", err)
	}
	if out != input {
		t.Fatalf("out = %q, want input unchanged", out)
	}
	if bag.Len() != 0 {
		t.Fatalf("diagnostics = %+v", bag.Items())
	}
}

func TestSequenceReindented(t *testing.T) {
	input := "models:\n- name: a\n  description: b\n- name: c\n"
	want := "models:\n  - name: a\n    description: b\n  - name: c\n"
	out, bag, err := patchString(t, "models/s.yml", input, Options{})
	if err != nil {
		t.Fatalf("Patch() error: %v", err)
	}
	if out != want {
		t.Fatalf("out = %q, want %q", out, want)
	}
	var msg string
	for _, d := range bag.Items() {
		if d.Code == diag.YmlSequenceDent {
			msg = d.Message
		}
	}
	if !strings.Contains(msg, "under 'models'") || !strings.Contains(msg, "line 2") {
		t.Fatalf("message = %q", msg)
	}
}

func TestSequenceAlreadyIndentedUntouched(t *testing.T) {
	input := "models:\n  - name: a\n    description: b\n"
	out, bag, err := patchString(t, "models/ok.yml", input, Options{})
	if err != nil {
		t.Fatalf("Patch() error: %v", err)
	}
	if out != input {
		t.Fatalf("out = %q, want input unchanged", out)
	}
	if bag.Len() != 0 {
		t.Fatalf("diagnostics = %+v", bag.Items())
	}
}

func TestSequenceCommentsSurvive(t *testing.T) {
	input := "models:\n- name: a\n# standalone note\n- name: b\n"
	want := "models:\n  - name: a\n# standalone note\n  - name: b\n"
	out, _, err := patchString(t, "models/c.yml", input, Options{})
	if err != nil {
		t.Fatalf("Patch() error: %v", err)
	}
	if out != want {
		t.Fatalf("out = %q, want %q", out, want)
	}
}

func TestConflictingEditsConverge(t *testing.T) {
	// версия и таб на одной строке: правка табов уступает и уходит
	// в следующий проход
	out, _, err := patchString(t, "models/vt.yml", "\tversion: 2\n", Options{})
	if err != nil {
		t.Fatalf("Patch() error: %v", err)
	}
	if out != "version: 2\n" {
		t.Fatalf("out = %q", out)
	}
}
