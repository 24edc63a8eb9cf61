// Package pkgver rewrites version constraints in package manifests
// (packages.yml, dependencies.yml). Entries are extracted with a line
// pattern match, never a YAML round trip: when a package's pinned version is
// below the table's minimum compatible one, only the version-number span is
// replaced and every other byte of the line survives.
package pkgver

import (
	"fmt"
	"regexp"
	"strings"

	"fortio.org/safecast"

	"mend/internal/compat"
	"mend/internal/diag"
	"mend/internal/semver"
	"mend/internal/source"
)

// Entry is one package stanza found in a manifest.
type Entry struct {
	Name string
	// Constraint is the raw constraint text without quotes.
	Constraint string
	// ValueSpan covers the version number inside the constraint, operator
	// and quoting excluded.
	ValueSpan source.Span
	// Op is the comparison prefix of the constraint ("", "=", ">=", ...).
	Op string
	// Line is the 1-based manifest line the version sits on.
	Line int
}

var (
	packageLineRe = regexp.MustCompile(`^\s*-\s+package:\s*["']?([^"'\s#]+)["']?\s*(#.*)?$`)
	versionLineRe = regexp.MustCompile(`^(\s*version:\s*)(.*?)\s*(#.*)?$`)
	itemLineRe    = regexp.MustCompile(`^\s*-\s`)
)

// Extract finds package entries in the manifest content of f. Stanzas
// without a plain version value (flow sequences, ranges with commas, git or
// local entries) are skipped.
func Extract(f *source.File) []Entry {
	var entries []Entry
	var pending string // package name waiting for its version line
	lineNo := 0

	forEachLine(f, func(start uint32, text string) {
		lineNo++
		if m := packageLineRe.FindStringSubmatch(text); m != nil {
			pending = m[1]
			return
		}
		if itemLineRe.MatchString(text) {
			// новый элемент списка без package: git/local и прочее
			pending = ""
			return
		}
		if pending == "" {
			return
		}
		m := versionLineRe.FindStringSubmatchIndex(text)
		if m == nil {
			return
		}
		valStart, valEnd := m[4], m[5]
		value := text[valStart:valEnd]
		entry, ok := splitConstraint(f, start, valStart, value)
		if !ok {
			pending = ""
			return
		}
		entry.Name = pending
		entry.Line = lineNo
		entries = append(entries, entry)
		pending = ""
	})
	return entries
}

// splitConstraint peels quoting and a leading operator off the raw value and
// computes the span of the bare version number.
func splitConstraint(f *source.File, lineStart uint32, valStart int, value string) (Entry, bool) {
	if value == "" {
		return Entry{}, false
	}
	inner := value
	offset := valStart
	if len(inner) >= 2 {
		first, last := inner[0], inner[len(inner)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			inner = inner[1 : len(inner)-1]
			offset++
		}
	}
	if inner == "" || strings.ContainsAny(inner, ",[]{} ") {
		return Entry{}, false
	}

	op := ""
	for _, prefix := range []string{">=", "<=", "~>", "^", "=", ">", "<"} {
		if strings.HasPrefix(inner, prefix) {
			op = prefix
			inner = inner[len(prefix):]
			offset += len(prefix)
			break
		}
	}
	if inner == "" {
		return Entry{}, false
	}

	spanStart, err := safecast.Conv[uint32](int(lineStart) + offset)
	if err != nil {
		return Entry{}, false
	}
	spanEnd, err := safecast.Conv[uint32](int(spanStart) + len(inner))
	if err != nil {
		return Entry{}, false
	}
	return Entry{
		Constraint: inner,
		Op:         op,
		ValueSpan:  source.Span{File: f.ID, Start: spanStart, End: spanEnd},
	}, true
}

// Detect compares every manifest entry against the compatibility table and
// reports a version bump for entries pinned below the minimum. Unknown
// packages and already compatible ones produce informational findings only.
func Detect(f *source.File, rep diag.Reporter, table *compat.Table) {
	for _, entry := range Extract(f) {
		rec, known := table.Lookup(entry.Name)
		if !known {
			diag.ReportInfo(rep, diag.PkgUnknownVersion, entry.ValueSpan,
				fmt.Sprintf("Package '%s' is not in the compatibility table", entry.Name)).Emit()
			continue
		}

		current, err := semver.Parse(entry.Constraint)
		if err != nil {
			continue
		}
		minimum, err := semver.Parse(rec.MinVersion)
		if err != nil {
			continue
		}

		if !current.Less(minimum) {
			diag.ReportInfo(rep, diag.PkgVersionBump, entry.ValueSpan,
				fmt.Sprintf("Package '%s' already satisfies minimum version '%s'", entry.Name, rec.MinVersion)).Emit()
			continue
		}

		diag.ReportWarning(rep, diag.PkgVersionBump, entry.ValueSpan,
			fmt.Sprintf("Package '%s' - Updated version constraint '%s' to '%s'",
				entry.Name, entry.Constraint, rec.MinVersion)).
			WithFix(diag.PkgVersionBump.Title(), source.Edit{
				Span:    entry.ValueSpan,
				NewText: rec.MinVersion,
			}).
			Emit()
	}
}

// forEachLine walks f line by line with byte offsets, newline excluded.
func forEachLine(f *source.File, fn func(start uint32, text string)) {
	content := f.Content
	start := 0
	for i := 0; i < len(content); i++ {
		if content[i] != '\n' {
			continue
		}
		end := i
		if end > start && content[end-1] == '\r' {
			end--
		}
		off, err := safecast.Conv[uint32](start)
		if err != nil {
			return
		}
		fn(off, string(content[start:end]))
		start = i + 1
	}
	if start < len(content) {
		off, err := safecast.Conv[uint32](start)
		if err != nil {
			return
		}
		fn(off, string(content[start:]))
	}
}
