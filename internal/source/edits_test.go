package source

import (
	"errors"
	"testing"
)

func TestEditList_IdentityLaw(t *testing.T) {
	content := []byte("select 1 as id\n")
	var el EditList
	got := el.Apply(content)
	if string(got) != string(content) {
		t.Fatalf("empty edit list must return original text, got %q", got)
	}
}

func TestEditList_Apply(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		edits    []Edit
		expected string
	}{
		{
			name:    "single deletion",
			content: "keep {% endif %} keep",
			edits: []Edit{
				{Span: Span{Start: 5, End: 16}},
			},
			expected: "keep  keep",
		},
		{
			name:    "single replacement",
			content: `version: 1.2.0`,
			edits: []Edit{
				{Span: Span{Start: 9, End: 14}, NewText: "1.4.0"},
			},
			expected: "version: 1.4.0",
		},
		{
			name:    "edits applied in offset order regardless of insertion order",
			content: "aaa bbb ccc",
			edits: []Edit{
				{Span: Span{Start: 8, End: 11}, NewText: "C"},
				{Span: Span{Start: 0, End: 3}, NewText: "A"},
			},
			expected: "A bbb C",
		},
		{
			name:    "insert at offset",
			content: "ab",
			edits: []Edit{
				{Span: Span{Start: 1, End: 1}, NewText: "X"},
			},
			expected: "aXb",
		},
		{
			name:    "adjacent edits",
			content: "abcd",
			edits: []Edit{
				{Span: Span{Start: 0, End: 2}, NewText: "1"},
				{Span: Span{Start: 2, End: 4}, NewText: "2"},
			},
			expected: "12",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var el EditList
			for _, e := range tt.edits {
				if err := el.Add(e); err != nil {
					t.Fatalf("Add(%+v) failed: %v", e, err)
				}
			}
			got := string(el.Apply([]byte(tt.content)))
			if got != tt.expected {
				t.Errorf("Apply() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestEditList_RejectsOverlap(t *testing.T) {
	var el EditList
	if err := el.Replace(Span{Start: 0, End: 10}, "x"); err != nil {
		t.Fatalf("first edit should succeed: %v", err)
	}
	err := el.Replace(Span{Start: 5, End: 15}, "y")
	if !errors.Is(err, ErrOverlappingEdit) {
		t.Fatalf("expected ErrOverlappingEdit, got %v", err)
	}
	// insert inside an edited range is also a conflict
	err = el.Replace(Span{Start: 3, End: 3}, "z")
	if !errors.Is(err, ErrOverlappingEdit) {
		t.Fatalf("expected ErrOverlappingEdit for insert inside span, got %v", err)
	}
	// but an insert at the boundary of two ranges is fine
	if err := el.Replace(Span{Start: 10, End: 10}, "z"); err != nil {
		t.Fatalf("boundary insert should succeed: %v", err)
	}
}

func TestEditList_SpanReconstructionLaw(t *testing.T) {
	content := "{% if x %}\nselect 1\n{% endif %}\n{% endfor %}\n"
	var el EditList
	if err := el.Delete(Span{Start: 32, End: 44}); err != nil {
		t.Fatal(err)
	}

	// concatenating verbatim gaps and replacements must equal Apply output
	var manual []byte
	pos := uint32(0)
	for _, e := range el.Edits() {
		manual = append(manual, content[pos:e.Span.Start]...)
		manual = append(manual, e.NewText...)
		pos = e.Span.End
	}
	manual = append(manual, content[pos:]...)

	got := el.Apply([]byte(content))
	if string(got) != string(manual) {
		t.Errorf("Apply() = %q, manual reconstruction = %q", got, manual)
	}
}
