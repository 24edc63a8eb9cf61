package source

import (
	"errors"
	"fmt"
	"sort"
)

// Edit replaces the bytes covered by Span with NewText. Spans always refer to
// the original, immutable content of one file; later offsets are never
// adjusted for earlier edits, the final text is materialized in one pass.
type Edit struct {
	Span    Span
	NewText string
}

// ErrOverlappingEdit is returned when an edit overlaps one already recorded.
var ErrOverlappingEdit = errors.New("edit overlaps an existing edit")

// EditList accumulates non-overlapping edits over a single file's content.
// The zero value is ready to use and applies as the identity.
type EditList struct {
	edits []Edit
}

// Len returns the number of recorded edits.
func (el *EditList) Len() int {
	return len(el.edits)
}

// Edits returns the recorded edits sorted by start offset.
// Не модифицируйте возвращаемый срез.
func (el *EditList) Edits() []Edit {
	el.sort()
	return el.edits
}

// Add records an edit. It fails if the span overlaps an already recorded
// edit, or if two zero-length inserts target the same offset.
func (el *EditList) Add(e Edit) error {
	for _, prev := range el.edits {
		if editsConflict(prev, e) {
			return fmt.Errorf("%w: %s vs %s", ErrOverlappingEdit, prev.Span, e.Span)
		}
	}
	el.edits = append(el.edits, e)
	return nil
}

// Delete records the removal of the bytes covered by span.
func (el *EditList) Delete(span Span) error {
	return el.Add(Edit{Span: span})
}

// Replace records the replacement of the bytes covered by span with text.
func (el *EditList) Replace(span Span, text string) error {
	return el.Add(Edit{Span: span, NewText: text})
}

// Apply materializes the final text: verbatim gaps and edit replacements are
// concatenated in original order. An empty list returns content unchanged.
func (el *EditList) Apply(content []byte) []byte {
	if len(el.edits) == 0 {
		return content
	}
	el.sort()

	grow := 0
	for _, e := range el.edits {
		grow += len(e.NewText) - int(e.Span.Len())
	}
	out := make([]byte, 0, len(content)+grow)

	pos := uint32(0)
	for _, e := range el.edits {
		start, end := e.Span.Start, e.Span.End
		if start > uint32(len(content)) {
			start = uint32(len(content))
		}
		if end > uint32(len(content)) {
			end = uint32(len(content))
		}
		if start > pos {
			out = append(out, content[pos:start]...)
		}
		out = append(out, e.NewText...)
		if end > pos {
			pos = end
		}
	}
	out = append(out, content[pos:]...)
	return out
}

func (el *EditList) sort() {
	sort.SliceStable(el.edits, func(i, j int) bool {
		if el.edits[i].Span.Start != el.edits[j].Span.Start {
			return el.edits[i].Span.Start < el.edits[j].Span.Start
		}
		return el.edits[i].Span.End < el.edits[j].Span.End
	})
}

// editsConflict treats spans as half-open intervals. Two zero-length inserts
// conflict only when they target the same offset; a zero-length insert
// conflicts with a non-empty span when its position falls inside it.
func editsConflict(a, b Edit) bool {
	if a.Span.File != b.Span.File {
		return false
	}
	aStart, aEnd := a.Span.Start, a.Span.End
	bStart, bEnd := b.Span.Start, b.Span.End

	if aStart == aEnd && bStart == bEnd {
		return aStart == bStart
	}
	if aStart == aEnd {
		return bStart <= aStart && aStart < bEnd
	}
	if bStart == bEnd {
		return aStart <= bStart && bStart < aEnd
	}
	return aStart < bEnd && bStart < aEnd
}
