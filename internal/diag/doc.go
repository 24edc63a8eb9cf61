// Package diag defines the finding model shared by all detectors.
//
// # Purpose
//
//   - Provide deterministic data structures that capture findings produced by
//     the template, config-call, yaml and manifest detectors.
//   - Offer light-weight utilities (Reporter, Bag) that let detectors emit
//     findings without coupling to concrete storage or formatting layers.
//   - Model rewrites as structured edits that the driver can materialise and
//     optionally apply.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code – compact numeric identifier (see codes.go) with stable string form.
//   - Message – human oriented text; keep it short and actionable.
//   - Primary span – the canonical source.Span pointing to the issue.
//   - Notes – optional secondary spans/messages for additional context.
//   - Fixes – optional Fix records carrying the concrete edits.
//
// Notes should be used sparingly: each note must add new context rather than
// repeating the diagnostic message.
//
// # Emitting diagnostics
//
// Detectors should use a diag.Reporter to decouple emission from storage.
// Construct a ReportBuilder via NewReportBuilder (or the helper functions
// ReportError/ReportWarning/ReportInfo) and chain WithNote / WithFix before
// calling Emit. When no additional metadata is needed, detectors may call
// Reporter.Report(...) directly. For convenience, diag.BagReporter aggregates
// diagnostics into a Bag, which supports sorting and deduplication.
//
// # Consumers
//
//   - internal/report: renders findings into json-lines and terminal output.
//   - internal/driver: collects bags per file and applies the attached edits.
//
// Keep the data model deterministic: any new fields should avoid side effects
// so repeated runs over unchanged trees produce identical reports.
package diag
