package driver

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"mend/internal/project"
	"mend/internal/report"
	"mend/internal/source"
)

type target struct {
	path string
	kind project.FileKind
}

// Run processes the given paths (files or directories) and streams the
// outcome into rep. Per-file failures are reported and do not stop the run;
// the caller checks rep.HasFailures for the exit status. Run does not call
// rep.Complete.
func Run(ctx context.Context, paths []string, opts Options, rep *report.Reporter) error {
	targets, err := collectTargets(paths, opts.Layout)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return nil
	}

	sink := opts.sink()
	for _, t := range targets {
		sink.OnEvent(Event{File: t.path, Status: StatusQueued})
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Индексы уникальны для каждой горутины, мьютекс не нужен.
	results := make([]*Result, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(targets)))

	for i, t := range targets {
		g.Go(func(i int, t target) func() error {
			return func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				sink.OnEvent(Event{File: t.path, Status: StatusWorking})

				// FileSet не потокобезопасен, у каждого воркера свой.
				fileSet := source.NewFileSet()
				id, loadErr := fileSet.Load(t.path)
				if loadErr != nil {
					results[i] = &Result{Path: t.path, Kind: t.kind, Err: fmt.Errorf("failed to load file: %w", loadErr)}
					sink.OnEvent(Event{File: t.path, Status: StatusError, Err: loadErr})
					return nil
				}

				res := Process(fileSet, fileSet.Get(id), t.kind, opts)
				results[i] = res

				switch {
				case res.Err != nil:
					sink.OnEvent(Event{File: t.path, Status: StatusError, Err: res.Err})
				case res.Changed:
					sink.OnEvent(Event{File: t.path, Status: StatusFixed})
				default:
					sink.OnEvent(Event{File: t.path, Status: StatusClean})
				}
				return nil
			}
		}(i, t))
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// merge, единственная сериализованная стадия
	for i, t := range targets {
		res := results[i]
		if res == nil {
			continue
		}
		if res.Err != nil {
			rep.Failure(t.path, res.Err)
			continue
		}
		if err := rep.File(res.FS, res.File, opts.Mode, res.Bag); err != nil {
			return err
		}
		if res.Changed && opts.Mode == report.ModeApply {
			if err := writeFileAtomic(t.path, res.Output); err != nil {
				rep.Failure(t.path, err)
				sink.OnEvent(Event{File: t.path, Status: StatusError, Err: err})
			}
		}
	}
	return nil
}

// Targets returns the file paths a Run over the same arguments would
// process, in the same order. The progress UI uses it for its row list.
func Targets(paths []string, layout *project.Layout) ([]string, error) {
	targets, err := collectTargets(paths, layout)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(targets))
	for i, t := range targets {
		out[i] = t.path
	}
	return out, nil
}

// collectTargets expands the argument paths into classified files. Directory
// walks skip hidden entries, the target build directory and the installed
// packages directory; files named explicitly are taken as-is.
func collectTargets(paths []string, layout *project.Layout) ([]target, error) {
	var targets []target
	seen := make(map[string]struct{})

	add := func(path string, kind project.FileKind) {
		if _, dup := seen[path]; dup {
			return
		}
		seen[path] = struct{}{}
		targets = append(targets, target{path: path, kind: kind})
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %q: %w", p, err)
		}
		if !info.IsDir() {
			add(p, project.Classify(layout, p))
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if skipDir(path, d.Name(), layout) {
					return filepath.SkipDir
				}
				return nil
			}
			if kind := project.Classify(layout, path); kind != project.FileOther {
				add(path, kind)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(targets, func(i, j int) bool { return targets[i].path < targets[j].path })
	return targets, nil
}

func skipDir(path, name string, layout *project.Layout) bool {
	if len(name) > 1 && name[0] == '.' {
		return true
	}
	if name == "target" {
		return true
	}
	if layout == nil {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return abs == layout.PackagesDir
}

// writeFileAtomic replaces path via a temp file and rename, keeping the
// original permissions. The file is rewritten completely or not at all.
func writeFileAtomic(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %q: %w", path, err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".mend-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %q: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %q: %w", tmpName, err)
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to chmod %q: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %q: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %q: %w", path, err)
	}
	return nil
}
