package transport

import (
	"fmt"
)

// ErrorKind classifies why an operation failed.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNetwork    ErrorKind = "network"
	KindServer     ErrorKind = "server"
	KindFormat     ErrorKind = "format"
)

const (
	networkMessage = "Network error: could not reach the clinical record service. Check your connection and try again."
	formatMessage  = "Format error: the service returned an unexpected response."
)

// Failure is the error half of a Result. Detail carries the raw reason for
// diagnostics; Message is what the user sees.
type Failure struct {
	Kind   ErrorKind
	Status int // HTTP status for server errors, 0 otherwise
	Detail string
	Err    error
}

func (f *Failure) Error() string {
	if f.Status != 0 {
		return fmt.Sprintf("%s error (status %d): %s", f.Kind, f.Status, f.Detail)
	}
	return fmt.Sprintf("%s error: %s", f.Kind, f.Detail)
}

func (f *Failure) Unwrap() error { return f.Err }

// Message renders the failure as a single human-readable line.
func (f *Failure) Message() string {
	switch f.Kind {
	case KindValidation:
		return "Validation error: " + f.Detail
	case KindNetwork:
		return networkMessage
	case KindServer:
		return "Server error: " + f.Detail
	case KindFormat:
		return formatMessage
	default:
		return "Error: " + f.Detail
	}
}

// Result is either a success carrying Text or a failure.
type Result struct {
	Text    string
	Failure *Failure
}

// Success wraps a reply or status text.
func Success(text string) Result {
	return Result{Text: text}
}

// Fail builds a failed Result.
func Fail(kind ErrorKind, detail string, err error) Result {
	return Result{Failure: &Failure{Kind: kind, Detail: detail, Err: err}}
}

// OK reports whether the result is a success.
func (r Result) OK() bool { return r.Failure == nil }

// Kind returns the failure kind, or "" on success.
func (r Result) Kind() ErrorKind {
	if r.Failure == nil {
		return ""
	}
	return r.Failure.Kind
}

// Message is the text to show: the reply on success, the rendered failure otherwise.
func (r Result) Message() string {
	if r.Failure == nil {
		return r.Text
	}
	return r.Failure.Message()
}
