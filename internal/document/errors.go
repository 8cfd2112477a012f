package document

import "fmt"

// FormatError reports malformed import or migration input. The message names
// the violated expectation, e.g. "rows is not a sequence".
type FormatError struct {
	Expectation string
}

func (e *FormatError) Error() string {
	return "format: " + e.Expectation
}

func formatErrorf(format string, args ...any) *FormatError {
	return &FormatError{Expectation: fmt.Sprintf(format, args...)}
}

// ValidationError reports a mutator argument that would violate a document
// invariant. The document is returned unchanged.
type ValidationError struct {
	Op     string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func validationErrorf(op, format string, args ...any) *ValidationError {
	return &ValidationError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// PreconditionError reports an operation refused outright, such as deleting
// the last remaining stage. Surfaced to the user as a refusal, not a crash.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return e.Reason
}

// ErrLastStage refuses deletion of the only stage in the document.
var ErrLastStage = &PreconditionError{Reason: "the last stage cannot be deleted"}

// DuplicatePickError rejects a pick write that would place an asset twice
// inside the same area of one row.
type DuplicatePickError struct {
	RowIndex int
	Area     string
	Ref      Ref
}

func (e *DuplicatePickError) Error() string {
	return fmt.Sprintf("asset already picked in area %q of row %d", e.Area, e.RowIndex)
}
