package jinja

import (
	"strings"

	"mend/internal/source"
)

// Tag is one {% ... %} statement tag found in an active region.
type Tag struct {
	Span source.Span
	// Content is the trimmed text between the delimiters, whitespace-control
	// dashes stripped.
	Content string
}

var (
	tagOpeners = []string{"{%-", "{%"}
	tagClosers = []string{"-%}", "%}"}
)

// scanTags collects statement tags inside one active region. A tag without a
// closing delimiter extends to the region end.
func scanTags(f *source.File, region source.Span) []Tag {
	var tags []Tag
	c := NewCursor(f)
	c.Off = region.Start
	c.Limit = region.End

	for !c.EOF() {
		if b0, b1, ok := c.Peek2(); !ok || b0 != '{' || b1 != '%' {
			c.Bump()
			continue
		}
		start := c.Mark()
		c.EatToken(matchToken(&c, tagOpeners))
		body := c.Mark()
		closed := false
		for !c.EOF() {
			if tok := matchToken(&c, tagClosers); tok != "" {
				end := c.Mark()
				c.EatToken(tok)
				tags = append(tags, Tag{
					Span:    c.SpanFrom(start),
					Content: strings.TrimSpace(string(f.Content[body:end])),
				})
				closed = true
				break
			}
			c.Bump()
		}
		if !closed {
			tags = append(tags, Tag{
				Span:    c.SpanFrom(start),
				Content: strings.TrimSpace(string(f.Content[body:c.Mark()])),
			})
		}
	}
	return tags
}

// Keyword returns the first word of the tag content.
func (t Tag) Keyword() string {
	content := t.Content
	for i := 0; i < len(content); i++ {
		if content[i] == ' ' || content[i] == '\t' || content[i] == '\n' ||
			content[i] == '\r' || content[i] == '(' {
			return content[:i]
		}
	}
	return content
}
