package report

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto chooses relative or absolute path automatically.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses absolute paths.
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

// Mode tells the reader whether rewrites were written to disk.
type Mode uint8

const (
	// ModeApply means edits were applied to files.
	ModeApply Mode = iota
	// ModeCheck means edits were only computed (dry run).
	ModeCheck
)

func (m Mode) String() string {
	if m == ModeCheck {
		return "would-apply"
	}
	return "applied"
}

// Options configures a Reporter.
type Options struct {
	// JSON switches output to one json object per line.
	JSON bool
	// Color enables ANSI colors in the human format.
	Color bool
	// Quiet suppresses per-finding human output, summary stays.
	Quiet bool
	// PathMode controls path rendering in both formats.
	PathMode PathMode
	// ShowUnfixed includes informational findings in human output.
	ShowUnfixed bool
}
