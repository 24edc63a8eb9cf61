package diag

import (
	"mend/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

// Fix describes the rewrite that addresses a finding. Edits use the same
// span/replacement model the apply engine consumes.
type Fix struct {
	Title string
	Edits []source.Edit
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
	Fixes    []Fix
}

func New(sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

func NewError(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

func NewWarning(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevWarning, code, primary, msg)
}

func NewInfo(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevInfo, code, primary, msg)
}

func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Msg: msg})
	return d
}

func (d Diagnostic) WithFix(title string, edits ...source.Edit) Diagnostic {
	d.Fixes = append(d.Fixes, Fix{Title: title, Edits: edits})
	return d
}

// HasFix reports whether the finding carries at least one concrete edit.
func (d Diagnostic) HasFix() bool {
	for i := range d.Fixes {
		if len(d.Fixes[i].Edits) > 0 {
			return true
		}
	}
	return false
}
