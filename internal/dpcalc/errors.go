package dpcalc

import "fmt"

// ExtractionError reports an expected pattern missing from the source text,
// or a matched value that cannot be used (e.g. a non-positive array size).
// Unrecoverable for the parse attempt.
type ExtractionError struct {
	Rule   string
	Reason string
}

func (e *ExtractionError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("pattern %q not found in source", e.Rule)
	}
	return fmt.Sprintf("pattern %q: %s", e.Rule, e.Reason)
}

// ValidationError reports extracted data that is internally inconsistent:
// declared ranges, array sizes, and offsets that do not agree. Acting on such
// data would silently corrupt every downstream lookup, so it is fatal.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// FetchError reports a failure to retrieve the source document. Status is
// zero for transport-level failures.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
