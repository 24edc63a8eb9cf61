// Package literal parses the restricted literal grammar used inside config
// call arguments: strings, numbers, booleans, none, sequences and mappings
// with unique ordered keys. Every parsed value keeps its source span so the
// rewriter can re-emit untouched values byte for byte.
package literal

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"mend/internal/source"
)

// Kind of a parsed literal value.
type Kind uint8

const (
	KindString Kind = iota
	KindNumber
	KindBool
	KindNone
	KindSeq
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindNone:
		return "none"
	case KindSeq:
		return "sequence"
	case KindMap:
		return "mapping"
	}
	return "unknown"
}

// Value is one parsed literal. Span covers the exact source bytes, leading
// and trailing whitespace excluded.
type Value struct {
	Kind Kind
	Span source.Span
	// Str holds the decoded text for strings, the raw token otherwise.
	Str string
	// Seq holds sequence elements in source order.
	Seq []Value
	// Entries holds mapping entries in source order, keys unique.
	Entries []MapEntry
}

// MapEntry is one key/value pair of a mapping literal. Keys are strings.
type MapEntry struct {
	Key Value
	Val Value
}

// Text returns the verbatim source slice of the value.
func (v Value) Text(f *source.File) string {
	return string(f.Content[v.Span.Start:v.Span.End])
}

// Lookup returns the entry for key and true when the mapping contains it.
func (v Value) Lookup(key string) (MapEntry, bool) {
	for _, e := range v.Entries {
		if e.Key.Str == key {
			return e, true
		}
	}
	return MapEntry{}, false
}

// ErrBadLiteral is wrapped by every parse failure.
var ErrBadLiteral = errors.New("bad literal")

// Parse reads the whole span as a single literal. Anything but trailing
// whitespace after the value is an error.
func Parse(f *source.File, span source.Span) (Value, error) {
	p := parser{f: f, off: span.Start, limit: span.End}
	v, err := p.value()
	if err != nil {
		return Value{}, err
	}
	p.skipSpace()
	if p.off != p.limit {
		return Value{}, fmt.Errorf("%w: trailing input at offset %d", ErrBadLiteral, p.off)
	}
	return v, nil
}

type parser struct {
	f     *source.File
	off   uint32
	limit uint32
}

func (p *parser) eof() bool  { return p.off >= p.limit }
func (p *parser) peek() byte { return p.f.Content[p.off] }

func (p *parser) span(start uint32) source.Span {
	return source.Span{File: p.f.ID, Start: start, End: p.off}
}

func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.peek() {
		case ' ', '\t', '\n', '\r':
			p.off++
		default:
			return
		}
	}
}

func (p *parser) value() (Value, error) {
	p.skipSpace()
	if p.eof() {
		return Value{}, fmt.Errorf("%w: unexpected end of input", ErrBadLiteral)
	}
	switch b := p.peek(); {
	case b == '\'' || b == '"':
		return p.stringLit()
	case b == '[':
		return p.seqLit()
	case b == '{':
		return p.mapLit()
	case b == '-' || b == '+' || (b >= '0' && b <= '9'):
		return p.numberLit()
	default:
		return p.wordLit()
	}
}

func (p *parser) stringLit() (Value, error) {
	start := p.off
	quote := p.peek()
	p.off++
	var sb strings.Builder
	for !p.eof() {
		b := p.peek()
		p.off++
		switch b {
		case quote:
			return Value{Kind: KindString, Span: p.span(start), Str: sb.String()}, nil
		case '\\':
			if p.eof() {
				return Value{}, fmt.Errorf("%w: dangling escape", ErrBadLiteral)
			}
			esc := p.peek()
			p.off++
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\', '\'', '"':
				sb.WriteByte(esc)
			default:
				sb.WriteByte('\\')
				sb.WriteByte(esc)
			}
		default:
			sb.WriteByte(b)
		}
	}
	return Value{}, fmt.Errorf("%w: unterminated string", ErrBadLiteral)
}

func (p *parser) numberLit() (Value, error) {
	start := p.off
	if b := p.peek(); b == '-' || b == '+' {
		p.off++
	}
	for !p.eof() {
		b := p.peek()
		if (b >= '0' && b <= '9') || b == '.' || b == '_' || b == 'e' || b == 'E' {
			p.off++
			continue
		}
		if (b == '-' || b == '+') && (p.f.Content[p.off-1] == 'e' || p.f.Content[p.off-1] == 'E') {
			p.off++
			continue
		}
		break
	}
	text := string(p.f.Content[start:p.off])
	plain := strings.ReplaceAll(text, "_", "")
	if _, err := strconv.ParseFloat(plain, 64); err != nil {
		return Value{}, fmt.Errorf("%w: number %q", ErrBadLiteral, text)
	}
	return Value{Kind: KindNumber, Span: p.span(start), Str: text}, nil
}

func (p *parser) wordLit() (Value, error) {
	start := p.off
	for !p.eof() {
		b := p.peek()
		if (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') {
			p.off++
			continue
		}
		break
	}
	word := string(p.f.Content[start:p.off])
	switch word {
	case "true", "True", "false", "False":
		return Value{Kind: KindBool, Span: p.span(start), Str: word}, nil
	case "none", "None", "null":
		return Value{Kind: KindNone, Span: p.span(start), Str: word}, nil
	}
	return Value{}, fmt.Errorf("%w: unexpected token %q", ErrBadLiteral, word)
}

func (p *parser) seqLit() (Value, error) {
	start := p.off
	p.off++ // '['
	var elems []Value
	for {
		p.skipSpace()
		if p.eof() {
			return Value{}, fmt.Errorf("%w: unterminated sequence", ErrBadLiteral)
		}
		if p.peek() == ']' {
			p.off++
			return Value{Kind: KindSeq, Span: p.span(start), Seq: elems}, nil
		}
		v, err := p.value()
		if err != nil {
			return Value{}, err
		}
		elems = append(elems, v)
		p.skipSpace()
		if p.eof() {
			return Value{}, fmt.Errorf("%w: unterminated sequence", ErrBadLiteral)
		}
		switch p.peek() {
		case ',':
			p.off++
		case ']':
		default:
			return Value{}, fmt.Errorf("%w: expected ',' or ']' at offset %d", ErrBadLiteral, p.off)
		}
	}
}

func (p *parser) mapLit() (Value, error) {
	start := p.off
	p.off++ // '{'
	var entries []MapEntry
	seen := make(map[string]struct{})
	for {
		p.skipSpace()
		if p.eof() {
			return Value{}, fmt.Errorf("%w: unterminated mapping", ErrBadLiteral)
		}
		if p.peek() == '}' {
			p.off++
			return Value{Kind: KindMap, Span: p.span(start), Entries: entries}, nil
		}
		key, err := p.value()
		if err != nil {
			return Value{}, err
		}
		if key.Kind != KindString {
			return Value{}, fmt.Errorf("%w: mapping key must be a string, got %s", ErrBadLiteral, key.Kind)
		}
		if _, dup := seen[key.Str]; dup {
			return Value{}, fmt.Errorf("%w: duplicate mapping key %q", ErrBadLiteral, key.Str)
		}
		seen[key.Str] = struct{}{}
		p.skipSpace()
		if p.eof() || p.peek() != ':' {
			return Value{}, fmt.Errorf("%w: expected ':' after mapping key %q", ErrBadLiteral, key.Str)
		}
		p.off++
		val, err := p.value()
		if err != nil {
			return Value{}, err
		}
		entries = append(entries, MapEntry{Key: key, Val: val})
		p.skipSpace()
		if p.eof() {
			return Value{}, fmt.Errorf("%w: unterminated mapping", ErrBadLiteral)
		}
		switch p.peek() {
		case ',':
			p.off++
		case '}':
		default:
			return Value{}, fmt.Errorf("%w: expected ',' or '}' at offset %d", ErrBadLiteral, p.off)
		}
	}
}

// Quote renders s as a double quoted literal of the grammar.
func Quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch b := s[i]; b {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteByte(b)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
