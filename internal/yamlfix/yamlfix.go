// Package yamlfix rewrites deprecated authoring patterns in YAML config
// files. Line detectors fix whitespace defects with exact span edits, node
// detectors reshape the document through a yaml round trip: duplicate keys,
// misplaced resource keys, owner properties and the dbt_project.yml key set.
//
// Detectors run in a fixed order over a bounded number of passes. Edits that
// would conflict within one pass are deferred to the next; a file that does
// not converge is left byte-identical and reported as a failure.
package yamlfix

import (
	"errors"
	"fmt"

	"mend/internal/diag"
	"mend/internal/source"
)

// DefaultPassLimit bounds the rewrite passes per file.
const DefaultPassLimit = 5

// ErrPassLimit means the line detectors kept producing edits after the
// bounded number of passes. Это дефект детектора, файл не трогаем.
var ErrPassLimit = errors.New("yaml rewrite did not converge")

type Options struct {
	// Project enables the dbt_project.yml detector set instead of the
	// resource-file one.
	Project bool
	// ProjectDir is the directory holding dbt_project.yml, used to tell
	// config keys from directory names.
	ProjectDir string
	// PackagesDir is the packages install path relative to ProjectDir.
	// Defaults to dbt_packages.
	PackagesDir string
	// PassLimit overrides DefaultPassLimit when positive.
	PassLimit int
}

func (o Options) passLimit() int {
	if o.PassLimit > 0 {
		return o.PassLimit
	}
	return DefaultPassLimit
}

type nodeDetector func(f *source.File, opts Options) ([]byte, []finding)

func nodeDetectors(opts Options) []nodeDetector {
	if opts.Project {
		return []nodeDetector{dropDuplicateKeys, dropDeprecatedProjectKeys, prefixPlusConfig}
	}
	return []nodeDetector{dropDuplicateKeys, restructureKeys, restructureOwner}
}

// Patch runs every detector over f and returns the rewritten content.
// Diagnostics go to rep; each finding carries the edits that fix it, with a
// whole-document rewrite riding the first finding of each node detector.
// On ErrPassLimit the original content is returned untouched.
func Patch(fs *source.FileSet, f *source.File, rep diag.Reporter, opts Options) ([]byte, error) {
	cur := f

	// line stage: span edits over the current text until it settles
	for pass := 0; ; pass++ {
		if pass >= opts.passLimit() {
			return f.Content, fmt.Errorf("%w: %s", ErrPassLimit, f.Path)
		}

		findings := scanLines(cur)
		if len(findings) == 0 {
			break
		}

		var el source.EditList
		applied := 0
		for _, fd := range findings {
			if !addAll(&el, fd.edits) {
				// конфликтующая правка уедет в следующий проход
				continue
			}
			applied++
			b := diag.ReportWarning(rep, fd.code, fd.span, fd.msg)
			b.WithFix(fd.code.Title(), fd.edits...)
			b.Emit()
		}
		if applied == 0 {
			return f.Content, fmt.Errorf("%w: %s", ErrPassLimit, f.Path)
		}
		next := el.Apply(cur.Content)
		cur = fs.Get(fs.AddVirtual(f.Path, next))
	}

	// node stage: each detector is a full-document rewrite
	for _, det := range nodeDetectors(opts) {
		out, findings := det(cur, opts)
		if len(findings) == 0 {
			continue
		}
		for i, fd := range findings {
			b := diag.ReportWarning(rep, fd.code, fd.span, fd.msg)
			if i == 0 {
				b.WithFix(fd.code.Title(), source.Edit{
					Span:    wholeFileSpan(cur),
					NewText: string(out),
				})
			}
			b.Emit()
		}
		cur = fs.Get(fs.AddVirtual(f.Path, out))
	}

	return cur.Content, nil
}

// addAll adds edits to el atomically: on any conflict none are kept.
func addAll(el *source.EditList, edits []source.Edit) bool {
	var probe source.EditList
	for _, e := range el.Edits() {
		if probe.Add(e) != nil {
			return false
		}
	}
	for _, e := range edits {
		if probe.Add(e) != nil {
			return false
		}
	}
	for _, e := range edits {
		if el.Add(e) != nil {
			return false
		}
	}
	return true
}
