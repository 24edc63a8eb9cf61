// Package report renders findings for humans and machines.
//
// Machine output is a stream of json objects, one per line: a line per file
// that has refactors, optional error lines, and a closing line with
// mode "complete" and the run counters. Human output is one line per finding
// plus a summary.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"mend/internal/diag"
	"mend/internal/source"
)

// Reporter accumulates per-file results and writes them to a single stream.
// Safe for concurrent use: the driver calls File from worker goroutines.
type Reporter struct {
	mu   sync.Mutex
	out  io.Writer
	opts Options
	enc  *json.Encoder

	filesScanned int
	filesChanged int
	refactors    int
	failures     int
}

func NewReporter(out io.Writer, opts Options) *Reporter {
	return &Reporter{
		out:  out,
		opts: opts,
		enc:  json.NewEncoder(out),
	}
}

// File records the outcome for one processed file. Warning findings become
// refactor log lines; the file is reported only when it has at least one.
// Bag is expected to be sorted by the caller.
func (r *Reporter) File(fs *source.FileSet, file *source.File, mode Mode, bag *diag.Bag) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.filesScanned++
	if bag == nil || bag.Len() == 0 {
		return nil
	}

	var recs []refactorJSON
	for _, d := range bag.Items() {
		if d.Severity == diag.SevWarning {
			recs = append(recs, refactorJSON{
				Deprecation: d.Code.Deprecation(),
				Log:         d.Message,
			})
		}
	}
	r.refactors += len(recs)
	if bag.HasFixes() {
		r.filesChanged++
	}

	if r.opts.JSON {
		if len(recs) == 0 {
			return nil
		}
		return r.enc.Encode(fileLineJSON{
			Mode:      mode.String(),
			FilePath:  formatPath(file, fs, r.opts.PathMode),
			Refactors: recs,
		})
	}

	if r.opts.Quiet {
		return nil
	}
	for _, d := range bag.Items() {
		if d.Severity == diag.SevInfo && !r.opts.ShowUnfixed {
			continue
		}
		writePretty(r.out, fs, d, r.opts.PathMode, r.opts.Color)
	}
	return nil
}

// Failure records a per-file error that did not stop the run.
func (r *Reporter) Failure(path string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.failures++
	if r.opts.JSON {
		_ = r.enc.Encode(failureLineJSON{
			Mode:     "error",
			FilePath: path,
			Error:    err.Error(),
		})
		return
	}
	msg := "error"
	if r.opts.Color {
		msg = errColor.Sprint(msg)
	}
	fmt.Fprintf(r.out, "%s: %s: %v\n", msg, path, err)
}

// Complete closes the stream. For json output it emits the final line, for
// human output a short summary.
func (r *Reporter) Complete(mode Mode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.opts.JSON {
		return r.enc.Encode(completeLineJSON{
			Mode:         "complete",
			FilesScanned: r.filesScanned,
			FilesChanged: r.filesChanged,
			Refactors:    r.refactors,
			Failures:     r.failures,
		})
	}

	verb := "fixed"
	if mode == ModeCheck {
		verb = "would fix"
	}
	fmt.Fprintf(r.out, "%d files scanned, %s %d issues in %d files", r.filesScanned, verb, r.refactors, r.filesChanged)
	if r.failures > 0 {
		fmt.Fprintf(r.out, ", %d failures", r.failures)
	}
	fmt.Fprintln(r.out)
	return nil
}

// HasFailures reports whether any file failed during the run.
func (r *Reporter) HasFailures() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failures > 0
}

// Refactors returns the total number of recorded refactor logs.
func (r *Reporter) Refactors() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refactors
}
