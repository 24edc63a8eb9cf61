package jinja

import (
	"fmt"
	"sort"
	"strings"

	"mend/internal/diag"
	"mend/internal/source"
)

// Options controls optional findings.
type Options struct {
	// Strict additionally reports dangling openers and unterminated
	// comments. Neither carries a rewrite.
	Strict bool
}

// Блочные конструкции и код для их непарного end-тега.
var blockConstructs = map[string]diag.Code{
	"if":       diag.JinUnmatchedEndif,
	"for":      diag.JinUnmatchedEndfor,
	"macro":    diag.JinUnmatchedEndmacro,
	"set":      diag.JinUnmatchedEndset,
	"filter":   diag.JinUnmatchedEndfilter,
	"block":    diag.JinUnmatchedEndblock,
	"call":     diag.JinUnmatchedEndcall,
	"raw":      diag.JinUnmatchedEndraw,
	"snapshot": diag.JinUnmatchedEndsnapshot,
	"docs":     diag.JinUnmatchedEnddocs,
}

// Detect scans the file and reports unmatched end tags (with a deletion fix)
// and, in strict mode, dangling openers and unterminated comments. Comment
// regions never contribute tags. Each construct keeps its own stack, so
// interleaved blocks of different constructs do not trigger removals.
func Detect(f *source.File, rep diag.Reporter, opts Options) {
	stacks := make(map[string][]source.Span, len(blockConstructs))
	rawDepth := 0

	for _, region := range ScanRegions(f) {
		if region.Kind == RegionComment {
			if !region.Terminated && opts.Strict {
				diag.ReportInfo(rep, diag.JinUnterminatedComment, region.Span,
					fmt.Sprintf("Comment opened near line %d is never closed", f.Line(region.Span.Start))).Emit()
			}
			continue
		}
		for _, tag := range scanTags(f, region.Span) {
			kw := tag.Keyword()

			// Внутри raw все теги кроме endraw - обычный текст.
			if rawDepth > 0 && kw != "raw" && kw != "endraw" {
				continue
			}

			if _, ok := blockConstructs[kw]; ok {
				if kw == "set" && hasTopLevelAssign(tag.Content) {
					continue // inline set, no end tag expected
				}
				if kw == "raw" {
					rawDepth++
				}
				stacks[kw] = append(stacks[kw], tag.Span)
				continue
			}

			base, isEnd := strings.CutPrefix(kw, "end")
			if !isEnd {
				continue
			}
			code, known := blockConstructs[base]
			if !known {
				continue
			}
			if base == "raw" && rawDepth > 0 {
				rawDepth--
			}
			if st := stacks[base]; len(st) > 0 {
				stacks[base] = st[:len(st)-1]
				continue
			}
			line := f.Line(tag.Span.Start)
			diag.ReportWarning(rep, code, tag.Span,
				fmt.Sprintf("Removed unmatched {%% end%s %%} near line %d", base, line)).
				WithFix("remove unmatched tag", source.Edit{Span: tag.Span}).
				Emit()
		}
	}

	if !opts.Strict {
		return
	}
	type dangling struct {
		name string
		span source.Span
	}
	var left []dangling
	for name, st := range stacks {
		for _, sp := range st {
			left = append(left, dangling{name: name, span: sp})
		}
	}
	sort.Slice(left, func(i, j int) bool { return left[i].span.Start < left[j].span.Start })
	for _, d := range left {
		diag.ReportInfo(rep, diag.JinDanglingOpener, d.span,
			fmt.Sprintf("{%% %s %%} opened near line %d has no matching end tag", d.name, f.Line(d.span.Start))).Emit()
	}
}

// hasTopLevelAssign reports whether the tag content contains a bare '=' at
// depth zero outside string literals. Distinguishes the inline form
// "set x = y" from the block form "set x".
func hasTopLevelAssign(content string) bool {
	depth := 0
	var quote byte
	for i := 0; i < len(content); i++ {
		ch := content[i]
		if quote != 0 {
			if ch == '\\' {
				i++
				continue
			}
			if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '\'', '"':
			quote = ch
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '=':
			if depth != 0 {
				continue
			}
			prev := byte(0)
			if i > 0 {
				prev = content[i-1]
			}
			next := byte(0)
			if i+1 < len(content) {
				next = content[i+1]
			}
			if prev != '=' && prev != '!' && prev != '<' && prev != '>' && next != '=' {
				return true
			}
		}
	}
	return false
}
