// Package configcall relocates custom keys of config(...) calls into the
// meta mapping argument. It works on templated SQL ({{ config(...) }}) and
// on Python models (dbt.config(...)), rewriting one call at a time and
// leaving calls it cannot parse untouched.
package configcall

import (
	"fmt"
	"strings"

	"mend/internal/diag"
	"mend/internal/jinja"
	"mend/internal/literal"
	"mend/internal/source"
)

// Dialect selects the callee syntax.
type Dialect uint8

const (
	// DialectTemplate matches config( inside active template regions.
	DialectTemplate Dialect = iota
	// DialectPython matches dbt.config( anywhere in the file.
	DialectPython
)

func (d Dialect) callee() string {
	if d == DialectPython {
		return "dbt.config"
	}
	return "config"
}

// Options configures the rewriter.
type Options struct {
	Dialect Dialect
	// Reserved holds the config keys that stay top level. Empty means the
	// built-in set.
	Reserved map[string]struct{}
	// MetaKey is the name of the mapping argument, "meta" when empty.
	MetaKey string
	// Strict reports calls whose arguments could not be parsed.
	Strict bool
}

func (o Options) reserved() map[string]struct{} {
	if len(o.Reserved) > 0 {
		return o.Reserved
	}
	return defaultReserved
}

func (o Options) metaKey() string {
	if o.MetaKey != "" {
		return o.MetaKey
	}
	return "meta"
}

// Конфиги, которые остаются верхнеуровневыми аргументами config().
var defaultReserved = buildSet(
	"access", "alias", "batch_size", "begin", "cluster_by", "concurrent_batches",
	"contract", "database", "docs", "enabled", "error_if", "event_time",
	"fail_calc", "full_refresh", "grants", "group", "incremental_strategy",
	"limit", "lookback", "materialized", "on_configuration_change",
	"on_schema_change", "partition_by", "persist_docs", "post_hook", "pre_hook",
	"schema", "severity", "snapshot_meta_column_names", "sql_header",
	"store_failures", "tags", "unique_key", "warn_if", "where",
)

// ReservedWith returns the built-in reserved set extended with extra keys.
func ReservedWith(extra ...string) map[string]struct{} {
	if len(extra) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(defaultReserved)+len(extra))
	for k := range defaultReserved {
		set[k] = struct{}{}
	}
	for _, k := range extra {
		set[k] = struct{}{}
	}
	return set
}

func buildSet(keys ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		m[k] = struct{}{}
	}
	return m
}

// Detect finds config calls and reports one warning per relocated key. The
// rewrite for a call is a single edit replacing its argument list; it rides
// on the first reported key of that call.
func Detect(f *source.File, rep diag.Reporter, opts Options) {
	if opts.Dialect == DialectTemplate {
		for _, region := range jinja.ScanRegions(f) {
			if region.Kind != jinja.RegionActive {
				continue
			}
			detectInSpan(f, rep, opts, region.Span)
		}
		return
	}
	whole := source.Span{File: f.ID, Start: 0, End: uint32(len(f.Content))}
	detectInSpan(f, rep, opts, whole)
	detectGetChains(f, rep, opts, whole)
}

func detectInSpan(f *source.File, rep diag.Reporter, opts Options, span source.Span) {
	for _, call := range findCalls(f, span, opts.Dialect.callee()) {
		rewriteCall(f, rep, opts, call)
	}
}

func rewriteCall(f *source.File, rep diag.Reporter, opts Options, call callSite) {
	args, ok := splitArgs(f, call.argSpan)
	if !ok {
		reportUnparsable(f, rep, opts, call)
		return
	}

	metaKey := opts.metaKey()
	reserved := opts.reserved()

	type parsedArg struct {
		raw   argText
		name  string
		value literal.Value
	}
	parsed := make([]parsedArg, 0, len(args))
	var custom []int
	metaIdx := -1
	for i, a := range args {
		name, valueSpan, ok := splitKeyword(f, a.span)
		if !ok {
			reportUnparsable(f, rep, opts, call)
			return
		}
		v, err := literal.Parse(f, valueSpan)
		if err != nil {
			reportUnparsable(f, rep, opts, call)
			return
		}
		parsed = append(parsed, parsedArg{raw: a, name: name, value: v})
		switch {
		case name == metaKey:
			if v.Kind != literal.KindMap {
				reportUnparsable(f, rep, opts, call)
				return
			}
			metaIdx = i
		case !isReserved(reserved, name):
			custom = append(custom, i)
		}
	}
	if len(custom) == 0 {
		return
	}

	customSet := make(map[int]struct{}, len(custom))
	for _, i := range custom {
		customSet[i] = struct{}{}
	}

	// Новое значение meta: существующие записи по порядку, коллизии
	// перезаписываются на месте, новые ключи в конце.
	var entries []string
	replaced := make(map[string]string, len(custom))
	var order []string
	for _, i := range custom {
		key := parsed[i].name
		if _, seen := replaced[key]; !seen {
			order = append(order, key)
		}
		replaced[key] = parsed[i].value.Text(f)
	}
	if metaIdx >= 0 {
		for _, e := range parsed[metaIdx].value.Entries {
			if text, hit := replaced[e.Key.Str]; hit {
				entries = append(entries, e.Key.Text(f)+": "+text)
				delete(replaced, e.Key.Str)
				continue
			}
			entries = append(entries, e.Key.Text(f)+": "+e.Val.Text(f))
		}
	}
	for _, key := range order {
		if text, left := replaced[key]; left {
			entries = append(entries, literal.Quote(key)+": "+text)
		}
	}
	metaText := metaKey + "={" + strings.Join(entries, ", ") + "}"

	// Сборка нового списка аргументов: нетронутые по своим spans,
	// разделитель - первый наблюдаемый в вызове.
	sep := observeSeparator(args)
	var parts []string
	for i, pa := range parsed {
		if _, drop := customSet[i]; drop {
			continue
		}
		if i == metaIdx {
			parts = append(parts, metaText)
			continue
		}
		parts = append(parts, strings.TrimSpace(pa.raw.text))
	}
	if metaIdx < 0 {
		parts = append(parts, metaText)
	}

	// Пробелы вокруг списка аргументов сохраняем как есть.
	first := args[0].text
	prefix := first[:len(first)-len(strings.TrimLeft(first, " \t\n\r"))]
	last := args[len(args)-1].text
	suffix := last[len(strings.TrimRight(last, " \t\n\r")):]
	newArgs := prefix + strings.Join(parts, sep) + suffix

	for i, key := range order {
		line := f.Line(call.argSpan.Start)
		b := diag.ReportWarning(rep, diag.CfgCustomKey, call.argSpan,
			fmt.Sprintf("Moved custom config %q to %q near line %d", key, metaKey, line))
		if i == 0 {
			b = b.WithFix("move custom configs to "+metaKey,
				source.Edit{Span: call.argSpan, NewText: newArgs})
		}
		b.Emit()
	}
}

func isReserved(reserved map[string]struct{}, name string) bool {
	if _, ok := reserved[name]; ok {
		return true
	}
	// pre_hook/post_hook appear dashed in yaml and underscored in calls.
	alt := strings.ReplaceAll(name, "-", "_")
	_, ok := reserved[alt]
	return ok
}

func reportUnparsable(f *source.File, rep diag.Reporter, opts Options, call callSite) {
	if !opts.Strict {
		return
	}
	diag.ReportInfo(rep, diag.CfgUnparsableArgs, call.argSpan,
		fmt.Sprintf("config call near line %d left as is: arguments are not plain literals", f.Line(call.argSpan.Start))).Emit()
}
