package diag

// Severity defines the importance of a finding.
type Severity uint8

const (
	// SevInfo is for informational findings that never change output files.
	SevInfo Severity = iota
	// SevWarning is for findings that carry an automatic rewrite.
	SevWarning
	// SevError is for per-file failures (unreadable input, pass limit hit).
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}
