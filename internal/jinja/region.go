// Package jinja scans templated text for comment regions and block-tag
// balance without evaluating the template.
package jinja

import (
	"mend/internal/source"
)

// RegionKind separates template text that detectors may touch from text
// hidden inside comments.
type RegionKind uint8

const (
	// RegionActive is ordinary template text.
	RegionActive RegionKind = iota
	// RegionComment is text inside a comment, delimiters included.
	RegionComment
)

func (k RegionKind) String() string {
	if k == RegionComment {
		return "comment"
	}
	return "active"
}

// Region is a half-open slice of the file. Terminated is false only for a
// comment cut off by end of file.
type Region struct {
	Kind       RegionKind
	Span       source.Span
	Terminated bool
}

// Словарь открывающих токенов комментария. Порядок важен: более длинные
// токены раньше, иначе {## распознается как {#. Закрывающие токены
// (##}, -#}, #}) все оканчиваются на "#}", поэтому закрытие ищется по нему.
var commentOpeners = []string{"{##", "{#-", "{#"}

// ScanRegions splits the file into alternating active and comment regions in
// a single left-to-right pass. Any recognised closer terminates any opener.
// An unterminated comment swallows the rest of the file. A bare '#' outside
// these tokens is never a delimiter.
func ScanRegions(f *source.File) []Region {
	var regions []Region
	c := NewCursor(f)
	activeStart := c.Mark()

	flushActive := func(end Mark) {
		if end > activeStart {
			regions = append(regions, Region{
				Kind:       RegionActive,
				Span:       source.Span{File: f.ID, Start: uint32(activeStart), End: uint32(end)},
				Terminated: true,
			})
		}
	}

	for !c.EOF() {
		if b0, b1, ok := c.Peek2(); !ok || b0 != '{' || b1 != '#' {
			c.Bump()
			continue
		}
		start := c.Mark()
		flushActive(start)
		// "{#" сам по себе открывающий токен, совпадение гарантировано
		c.EatToken(matchToken(&c, commentOpeners))
		terminated := c.SkipTo("#}")
		regions = append(regions, Region{
			Kind:       RegionComment,
			Span:       c.SpanFrom(start),
			Terminated: terminated,
		})
		activeStart = c.Mark()
	}
	flushActive(c.Mark())
	return regions
}

// matchToken возвращает первый токен из списка, с которого начинается
// оставшийся ввод, без сдвига курсора.
func matchToken(c *Cursor, toks []string) string {
	for _, tok := range toks {
		if c.StartsWith(tok) {
			return tok
		}
	}
	return ""
}
