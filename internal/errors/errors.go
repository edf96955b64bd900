// internal/errors/errors.go
package errors

import "fmt"

type Kind string

const (
	// KindProcess marks a subprocess failure (spawn error or unexpected
	// stderr). Recoverable: callers report it and carry on.
	KindProcess Kind = "PROCESS"
	// KindParse marks malformed output from the external tool. There is no
	// safe continuation, so these bubble up as hard failures.
	KindParse Kind = "PARSE"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Process(message string, err error) *Error {
	return &Error{Kind: KindProcess, Message: message, Err: err}
}

func Parse(format string, args ...any) *Error {
	return &Error{Kind: KindParse, Message: fmt.Sprintf(format, args...)}
}

// IsProcess reports whether err is a recoverable subprocess failure.
func IsProcess(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == KindProcess
}

// IsParse reports whether err is a protocol violation from the tool.
func IsParse(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == KindParse
}
