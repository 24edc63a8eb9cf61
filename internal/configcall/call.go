package configcall

import (
	"strings"

	"mend/internal/source"
)

// callSite is one located config call; argSpan covers the text between the
// parentheses, exclusive.
type callSite struct {
	argSpan source.Span
}

type argText struct {
	span source.Span
	text string
}

// findCalls locates callee( occurrences inside span. The callee must not be
// preceded by an identifier character or a dot and must not be followed by a
// further attribute access (config.get is a different rule).
func findCalls(f *source.File, span source.Span, callee string) []callSite {
	var calls []callSite
	content := f.Content
	text := string(content[span.Start:span.End])
	base := span.Start

	from := 0
	for {
		idx := strings.Index(text[from:], callee)
		if idx < 0 {
			return calls
		}
		at := from + idx
		from = at + 1

		if at > 0 {
			prev := text[at-1]
			if isIdentByte(prev) || prev == '.' {
				continue
			}
		}
		i := at + len(callee)
		for i < len(text) && (text[i] == ' ' || text[i] == '\t' || text[i] == '\n' || text[i] == '\r') {
			i++
		}
		if i >= len(text) || text[i] != '(' {
			continue
		}
		openPos := base + uint32(i)
		closePos, ok := matchParen(content, openPos, span.End)
		if !ok {
			continue
		}
		calls = append(calls, callSite{
			argSpan: source.Span{File: f.ID, Start: openPos + 1, End: closePos},
		})
		from = int(closePos - base)
	}
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// matchParen returns the offset of the parenthesis matching the one at open,
// tracking nesting and skipping string literals.
func matchParen(content []byte, open, limit uint32) (uint32, bool) {
	depth := 1
	var quote byte
	for i := open + 1; i < limit; i++ {
		b := content[i]
		if quote != 0 {
			if b == '\\' {
				i++
				continue
			}
			if b == quote {
				quote = 0
			}
			continue
		}
		switch b {
		case '\'', '"':
			quote = b
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// splitArgs splits the argument list at depth-zero commas outside strings.
// Empty argument list yields nil, true. A syntactically hopeless list
// (e.g. unbalanced brackets) yields ok=false.
func splitArgs(f *source.File, argSpan source.Span) ([]argText, bool) {
	content := f.Content
	depth := 0
	var quote byte
	start := argSpan.Start
	var args []argText

	push := func(end uint32) {
		text := string(content[start:end])
		if strings.TrimSpace(text) != "" {
			args = append(args, argText{
				span: source.Span{File: f.ID, Start: start, End: end},
				text: text,
			})
		}
		start = end + 1
	}

	for i := argSpan.Start; i < argSpan.End; i++ {
		b := content[i]
		if quote != 0 {
			if b == '\\' {
				i++
				continue
			}
			if b == quote {
				quote = 0
			}
			continue
		}
		switch b {
		case '\'', '"':
			quote = b
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth < 0 {
				return nil, false
			}
		case ',':
			if depth == 0 {
				push(i)
			}
		}
	}
	if depth != 0 || quote != 0 {
		return nil, false
	}
	push(argSpan.End)
	return args, true
}

// splitKeyword parses one argument as identifier = value and returns the
// identifier with the trimmed value span.
func splitKeyword(f *source.File, argSpan source.Span) (string, source.Span, bool) {
	content := f.Content
	i := argSpan.Start
	for i < argSpan.End && isSpaceByte(content[i]) {
		i++
	}
	identStart := i
	for i < argSpan.End && isIdentByte(content[i]) {
		i++
	}
	if i == identStart {
		return "", source.Span{}, false
	}
	name := string(content[identStart:i])
	for i < argSpan.End && isSpaceByte(content[i]) {
		i++
	}
	if i >= argSpan.End || content[i] != '=' {
		return "", source.Span{}, false
	}
	i++
	if i < argSpan.End && content[i] == '=' {
		return "", source.Span{}, false
	}
	valStart := i
	valEnd := argSpan.End
	for valStart < valEnd && isSpaceByte(content[valStart]) {
		valStart++
	}
	for valEnd > valStart && isSpaceByte(content[valEnd-1]) {
		valEnd--
	}
	if valStart == valEnd {
		return "", source.Span{}, false
	}
	return name, source.Span{File: argSpan.File, Start: valStart, End: valEnd}, true
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// observeSeparator derives the separator from the whitespace that follows
// the call's first comma, so a rebuilt multi-line call keeps its indent.
// ", " when there is nothing to observe.
func observeSeparator(args []argText) string {
	if len(args) >= 2 {
		trimmed := strings.TrimLeft(args[1].text, " \t\n\r")
		lead := args[1].text[:len(args[1].text)-len(trimmed)]
		if lead != "" {
			return "," + lead
		}
		return ","
	}
	return ", "
}
