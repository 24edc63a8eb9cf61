// Package driver runs the detectors over files and directories, applies the
// collected rewrites and feeds the report stream. Directory runs are
// file-parallel; merging results into the reporter is the only serialized
// step, and results keep a deterministic order regardless of worker timing.
package driver

import (
	"bytes"
	"path/filepath"
	"strings"

	"mend/internal/compat"
	"mend/internal/configcall"
	"mend/internal/diag"
	"mend/internal/jinja"
	"mend/internal/pkgver"
	"mend/internal/project"
	"mend/internal/report"
	"mend/internal/source"
	"mend/internal/yamlfix"
)

// DefaultMaxDiagnostics bounds the per-file diagnostics bag.
const DefaultMaxDiagnostics = 256

// Options configures a run.
type Options struct {
	// Mode selects applying edits or only computing them.
	Mode report.Mode
	// Strict additionally reports findings that carry no rewrite.
	Strict bool
	// Jobs caps worker parallelism; non-positive means GOMAXPROCS.
	Jobs int
	// MaxDiagnostics caps the per-file bag, DefaultMaxDiagnostics when zero.
	MaxDiagnostics int

	// Reserved adds config keys to the built-in reserved set (mend.toml).
	Reserved []string
	// MetaArg overrides the metadata argument name (mend.toml).
	MetaArg string
	// PassLimit overrides the YAML rewrite pass bound (mend.toml).
	PassLimit int

	// Table is the package compatibility table, the built-in one when nil.
	Table *compat.Table
	// Layout is the discovered project, nil when running outside one.
	Layout *project.Layout
	// Sink receives progress events, may be nil.
	Sink ProgressSink
}

func (o Options) maxDiagnostics() int {
	if o.MaxDiagnostics > 0 {
		return o.MaxDiagnostics
	}
	return DefaultMaxDiagnostics
}

func (o Options) table() *compat.Table {
	if o.Table != nil {
		return o.Table
	}
	return compat.Default()
}

func (o Options) sink() ProgressSink {
	if o.Sink != nil {
		return o.Sink
	}
	return nopSink{}
}

// Result is the outcome for one processed file. FS and File are the set the
// file was processed in; FileSet is not safe for concurrent use, so Run
// gives every worker its own.
type Result struct {
	Path    string
	Kind    project.FileKind
	FS      *source.FileSet
	File    *source.File
	Bag     *diag.Bag
	Output  []byte
	Changed bool
	Err     error
}

// Process runs the detector set for kind over f and returns the rewritten
// content. The file itself is never written; Run does that. Failures are
// confined to the result, Process never panics on malformed input.
func Process(fs *source.FileSet, f *source.File, kind project.FileKind, opts Options) *Result {
	bag := diag.NewBag(opts.maxDiagnostics())
	rep := diag.NewDedupReporter(diag.BagReporter{Bag: bag})
	res := &Result{Path: f.Path, Kind: kind, FS: fs, File: f, Bag: bag, Output: f.Content}

	switch kind {
	case project.FileTemplatedSource:
		ccOpts := configcall.Options{
			Reserved: configcall.ReservedWith(opts.Reserved...),
			MetaKey:  opts.MetaArg,
			Strict:   opts.Strict,
		}
		if isPython(f.Path) {
			ccOpts.Dialect = configcall.DialectPython
		} else {
			jinja.Detect(f, rep, jinja.Options{Strict: opts.Strict})
			ccOpts.Dialect = configcall.DialectTemplate
		}
		configcall.Detect(f, rep, ccOpts)
		out, err := applyBagFixes(f, bag)
		if err != nil {
			res.Err = err
			return res
		}
		res.Output = out

	case project.FileYamlConfig:
		yOpts := yamlfix.Options{PassLimit: opts.PassLimit}
		if project.IsProjectFile(f.Path) {
			yOpts.Project = true
			yOpts.ProjectDir = filepath.Dir(f.Path)
			if opts.Layout != nil {
				yOpts.PackagesDir = opts.Layout.PackagesInstall
			}
		}
		out, err := yamlfix.Patch(fs, f, rep, yOpts)
		if err != nil {
			res.Err = err
			return res
		}
		res.Output = out

	case project.FileDependencyManifest:
		pkgver.Detect(f, rep, opts.table())
		out, err := applyBagFixes(f, bag)
		if err != nil {
			res.Err = err
			return res
		}
		res.Output = out
	}

	bag.Sort()
	res.Changed = !bytes.Equal(res.Output, f.Content)
	return res
}

// applyBagFixes collects every fix edit in the bag into one edit list and
// applies it. Detectors guarantee their fixes do not overlap; a conflict
// here is a defect and fails the file rather than corrupting it.
func applyBagFixes(f *source.File, bag *diag.Bag) ([]byte, error) {
	var edits source.EditList
	for _, d := range bag.Items() {
		for _, fix := range d.Fixes {
			for _, e := range fix.Edits {
				if err := edits.Add(e); err != nil {
					return nil, err
				}
			}
		}
	}
	return edits.Apply(f.Content), nil
}

func isPython(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".py")
}
