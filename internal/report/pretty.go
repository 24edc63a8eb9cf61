package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"mend/internal/diag"
	"mend/internal/source"
)

var (
	errColor  = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	infoColor = color.New(color.FgCyan)
	pathColor = color.New(color.Bold)
)

// writePretty печатает одну находку:
// <path>:<line>:<col>: <SEV> [<CODE> <RULE>]: <Message>
func writePretty(w io.Writer, fs *source.FileSet, d diag.Diagnostic, pathMode PathMode, colored bool) {
	path, line, col := resolve(fs, d.Primary, pathMode)
	sev := d.Severity.String()
	id := d.Code.ID() + " " + d.Code.Rule()
	if colored {
		path = pathColor.Sprint(path)
		switch d.Severity {
		case diag.SevError:
			sev = errColor.Sprint(sev)
		case diag.SevWarning:
			sev = warnColor.Sprint(sev)
		default:
			sev = infoColor.Sprint(sev)
		}
	}
	fmt.Fprintf(w, "%s:%d:%d: %s [%s]: %s\n", path, line, col, sev, id, d.Message)
	for _, note := range d.Notes {
		npath, nline, ncol := resolve(fs, note.Span, pathMode)
		fmt.Fprintf(w, "  note: %s:%d:%d: %s\n", npath, nline, ncol, note.Msg)
	}
}

func resolve(fs *source.FileSet, sp source.Span, pathMode PathMode) (string, uint32, uint32) {
	f := fs.Get(sp.File)
	if f == nil {
		return "<unknown>", 0, 0
	}
	start, _ := fs.Resolve(sp)
	return formatPath(f, fs, pathMode), start.Line, start.Col
}

func formatPath(f *source.File, fs *source.FileSet, pathMode PathMode) string {
	switch pathMode {
	case PathModeAbsolute:
		return f.FormatPath("absolute", "")
	case PathModeRelative:
		return f.FormatPath("relative", fs.BaseDir())
	case PathModeBasename:
		return f.FormatPath("basename", "")
	default:
		return f.FormatPath("auto", fs.BaseDir())
	}
}
