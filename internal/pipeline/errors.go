package pipeline

import (
	"errors"
	"fmt"

	"drai/internal/diag"
	"drai/internal/source"
)

// ErrOutputWrite is returned when the destination cannot be created or written.
var ErrOutputWrite = errors.New("cannot write output")

// ErrDiagnostics is wrapped when a front-end pass reported errors but
// produced no error value of its own.
var ErrDiagnostics = errors.New("front-end reported errors")

// StageError labels a failure with the stage it happened in. Diags holds
// the front-end diagnostics collected up to the failure.
type StageError struct {
	Stage Stage
	Err   error
	Diags *diag.Bag
	Files *source.FileSet
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// firstError renders the first error diagnostic of bag as "path:line:col: msg".
func firstError(bag *diag.Bag, files *source.FileSet) string {
	errs := bag.Errors()
	if len(errs) == 0 {
		return ""
	}
	d := errs[0]
	msg := d.Message
	if files != nil && int(d.Primary.File) < files.Len() {
		msg = fmt.Sprintf("%s: %s", files.Position(d.Primary), msg)
	}
	if n := len(errs) - 1; n > 0 {
		msg = fmt.Sprintf("%s (and %d more)", msg, n)
	}
	return msg
}
