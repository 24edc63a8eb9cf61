package configcall

import (
	"fmt"
	"strings"

	"mend/internal/diag"
	"mend/internal/literal"
	"mend/internal/source"
)

const getCallee = "dbt.config.get"

// detectGetChains rewrites dbt.config.get("custom") accesses into
// dbt.config.get("meta").get("custom"), keeping an optional default.
func detectGetChains(f *source.File, rep diag.Reporter, opts Options, span source.Span) {
	text := string(f.Content[span.Start:span.End])
	base := span.Start
	reserved := opts.reserved()
	metaKey := opts.metaKey()

	from := 0
	for {
		idx := strings.Index(text[from:], getCallee)
		if idx < 0 {
			return
		}
		at := from + idx
		from = at + 1
		if at > 0 {
			prev := text[at-1]
			if isIdentByte(prev) || prev == '.' {
				continue
			}
		}

		i := at + len(getCallee)
		for i < len(text) && isSpaceByte(text[i]) {
			i++
		}
		if i >= len(text) || text[i] != '(' {
			continue
		}
		openPos := base + uint32(i)
		closePos, ok := matchParen(f.Content, openPos, span.End)
		if !ok {
			continue
		}

		key, def, ok := parseGetArgs(string(f.Content[openPos+1 : closePos]))
		if !ok {
			from = int(closePos - base)
			continue
		}
		if key == metaKey || isReserved(reserved, key) {
			from = int(closePos - base)
			continue
		}

		nameSpan := source.Span{File: f.ID, Start: base + uint32(at), End: base + uint32(at+len(getCallee))}
		argsSpan := source.Span{File: f.ID, Start: openPos, End: closePos + 1}
		callSpan := nameSpan.Cover(argsSpan)
		newCall := getCallee + "(" + literal.Quote(metaKey) + ").get(" + literal.Quote(key)
		if def != "" {
			newCall += ", " + def
		}
		newCall += ")"

		diag.ReportWarning(rep, diag.CfgGetChain, callSpan,
			fmt.Sprintf("Updated config.get('%s') to config.get('%s').get('%s')", key, metaKey, key)).
			WithFix("read custom config through "+metaKey,
				source.Edit{Span: callSpan, NewText: newCall}).
			Emit()
		from = int(closePos - base)
	}
}

// parseGetArgs expects a quoted key with an optional default expression.
func parseGetArgs(args string) (key, def string, ok bool) {
	i := 0
	for i < len(args) && isSpaceByte(args[i]) {
		i++
	}
	if i >= len(args) || (args[i] != '\'' && args[i] != '"') {
		return "", "", false
	}
	quote := args[i]
	i++
	start := i
	for i < len(args) && args[i] != quote {
		i++
	}
	if i >= len(args) {
		return "", "", false
	}
	key = args[start:i]
	if key == "" {
		return "", "", false
	}
	i++
	for i < len(args) && isSpaceByte(args[i]) {
		i++
	}
	if i == len(args) {
		return key, "", true
	}
	if args[i] != ',' {
		return "", "", false
	}
	def = strings.TrimSpace(args[i+1:])
	if def == "" {
		return "", "", false
	}
	return key, def, true
}
