// Package diag defines the diagnostic model shared by the expansion stages.
//
// Producers (lexer, preprocessor, declaration parser, mangler) emit through a
// Reporter; BagReporter collects into a Bag which the pipeline inspects after
// each stage. A stage whose Bag holds an error fails the file.
//
// Package diag does not perform any formatting or IO beyond the single-line
// short form in short.go. Rich rendering lives in internal/diagfmt.
//
// Diagnostic is the central record:
//
//   - Severity - note, warning or error (severity.go).
//   - Code - compact numeric identifier (see codes.go) with stable string form.
//   - Message - human oriented text; keep it short and actionable.
//   - Primary span - the canonical source.Span pointing to the issue.
//   - Notes - optional secondary spans/messages, e.g. "macro defined here".
package diag
