package yamlfix

import (
	"fmt"
	"regexp"
	"strings"

	"fortio.org/safecast"

	"mend/internal/diag"
	"mend/internal/source"
)

// finding — одна найденная проблема плюс правки, которые её чинят.
type finding struct {
	code  diag.Code
	span  source.Span
	msg   string
	edits []source.Edit
}

type line struct {
	start uint32 // byte offset of the first character
	text  string // without the trailing newline and \r
}

func splitLines(f *source.File) []line {
	content := f.Content
	var lines []line
	start := uint32(0)
	for i := 0; i < len(content); i++ {
		if content[i] != '\n' {
			continue
		}
		end := i
		if end > int(start) && content[end-1] == '\r' {
			end--
		}
		lines = append(lines, line{start: start, text: string(content[start:end])})
		next, err := safecast.Conv[uint32](i + 1)
		if err != nil {
			return lines
		}
		start = next
	}
	if int(start) < len(content) {
		lines = append(lines, line{start: start, text: string(content[start:])})
	}
	return lines
}

func (l line) span(f *source.File) source.Span {
	end, err := safecast.Conv[uint32](int(l.start) + len(l.text))
	if err != nil {
		end = l.start
	}
	return source.Span{File: f.ID, Start: l.start, End: end}
}

var versionLineRe = regexp.MustCompile(`^[ \t]*version[ \t]*:[ \t]*2[ \t]*$`)

const versionLine = "version: 2"

// scanLines runs the line-level detectors. Every finding carries span edits
// against f, so untouched bytes survive exactly.
func scanLines(f *source.File) []finding {
	lines := splitLines(f)
	var out []finding
	out = append(out, scanTabOnly(f, lines)...)
	out = append(out, scanVersionLines(f, lines)...)
	out = append(out, scanLeadingTabs(f, lines)...)
	out = append(out, scanSequenceDent(f, lines)...)
	return out
}

func scanTabOnly(f *source.File, lines []line) []finding {
	var out []finding
	for i, l := range lines {
		if strings.ContainsRune(l.text, '\t') && strings.TrimSpace(l.text) == "" {
			out = append(out, finding{
				code:  diag.YmlTabOnlyLine,
				span:  l.span(f),
				msg:   fmt.Sprintf("Removed line containing only tabs on line %d", i+1),
				edits: []source.Edit{{Span: l.span(f)}},
			})
		}
	}
	return out
}

func scanVersionLines(f *source.File, lines []line) []finding {
	var out []finding
	for i, l := range lines {
		if !versionLineRe.MatchString(l.text) || l.text == versionLine {
			continue
		}
		out = append(out, finding{
			code:  diag.YmlVersionValue,
			span:  l.span(f),
			msg:   fmt.Sprintf("Removed the extra indentation around 'version: 2' on line %d", i+1),
			edits: []source.Edit{{Span: l.span(f), NewText: versionLine}},
		})
	}
	return out
}

func scanLeadingTabs(f *source.File, lines []line) []finding {
	var out []finding
	for i, l := range lines {
		if strings.TrimSpace(l.text) == "" {
			continue
		}
		for j := 0; j < len(l.text); j++ {
			c := l.text[j]
			if c == ' ' {
				continue
			}
			if c != '\t' {
				break
			}
			off, err := safecast.Conv[uint32](int(l.start) + j)
			if err != nil {
				break
			}
			sp := source.Span{File: f.ID, Start: off, End: off + 1}
			out = append(out, finding{
				code:  diag.YmlLeadingTab,
				span:  sp,
				msg:   fmt.Sprintf("Found extra tabs: line %d - column %d", i+1, j+1),
				edits: []source.Edit{{Span: sp, NewText: "  "}},
			})
		}
	}
	return out
}

var mapKeyRe = regexp.MustCompile(`^( *)([A-Za-z0-9_+.-]+):[ \t]*(#.*)?$`)

// scanSequenceDent finds block sequences whose items sit in the same column
// as their parent key and shifts the whole block one level deeper.
func scanSequenceDent(f *source.File, lines []line) []finding {
	var out []finding
	i := 0
	for i < len(lines) {
		m := mapKeyRe.FindStringSubmatch(lines[i].text)
		if m == nil {
			i++
			continue
		}
		keyIndent := len(m[1])
		key := m[2]

		j := i + 1
		for j < len(lines) && skippableLine(lines[j].text) {
			j++
		}
		if j >= len(lines) || !isItemAt(lines[j].text, keyIndent) {
			i++
			continue
		}

		firstItem := j
		var edits []source.Edit
		for j < len(lines) {
			t := lines[j].text
			if skippableLine(t) {
				j++
				continue
			}
			ind, tabbed := leadingSpaces(t)
			if tabbed {
				break
			}
			if ind > keyIndent || (ind == keyIndent && isItemAt(t, keyIndent)) {
				sp := source.Span{File: f.ID, Start: lines[j].start, End: lines[j].start}
				edits = append(edits, source.Edit{Span: sp, NewText: "  "})
				j++
				continue
			}
			break
		}

		out = append(out, finding{
			code:  diag.YmlSequenceDent,
			span:  lines[firstItem].span(f),
			msg:   fmt.Sprintf("Indented the sequence under '%s' one level deeper near line %d", key, firstItem+1),
			edits: edits,
		})
		i = j
	}
	return out
}

func skippableLine(text string) bool {
	trimmed := strings.TrimSpace(text)
	return trimmed == "" || strings.HasPrefix(trimmed, "#")
}

func isItemAt(text string, indent int) bool {
	ind, tabbed := leadingSpaces(text)
	if tabbed || ind != indent {
		return false
	}
	rest := text[ind:]
	return rest == "-" || strings.HasPrefix(rest, "- ")
}

// leadingSpaces counts leading space characters; tabbed is true when a tab
// shows up before the first non-blank character.
func leadingSpaces(text string) (int, bool) {
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case ' ':
		case '\t':
			return i, true
		default:
			return i, false
		}
	}
	return len(text), false
}
