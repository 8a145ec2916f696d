// Package scanerr defines the typed error taxonomy shared by the scan
// pipeline: InputError, IOError, ProtocolError, and InternalError. The
// classifier and scorer are total functions and never return these. The
// aggregator returns an InternalError only when its block-ordering
// invariant is violated. The reader and the hashing package return
// InputError and IOError, and the orchestrator passes them through.
package scanerr

import "errors"

// ErrRandomAccessUnsupported is returned by ReadBlock when the underlying
// source is a compressed stream that cannot seek.
var ErrRandomAccessUnsupported = errors.New("random-access reads are not supported on a compressed source")

// InputError covers missing files, unreadable paths, empty images, and
// images exceeding a configured size ceiling.
type InputError struct {
	Op  string
	Err error
}

func (e *InputError) Error() string { return "input error: " + e.Op + ": " + e.Err.Error() }
func (e *InputError) Unwrap() error { return e.Err }

// IOError covers a transient read failure mid-stream.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string { return "io error: " + e.Op + ": " + e.Err.Error() }
func (e *IOError) Unwrap() error { return e.Err }

// ProtocolError covers a session in the wrong state for a requested
// transition (scan of unknown session, results-before-done, etc.).
type ProtocolError struct {
	Op   string
	Code int // suggested HTTP status for the api package to surface
	Err  error
}

func (e *ProtocolError) Error() string { return "protocol error: " + e.Op + ": " + e.Err.Error() }
func (e *ProtocolError) Unwrap() error { return e.Err }

// InternalError covers a programmer-logic invariant violation, such as
// non-monotone block IDs reaching the aggregator. Fatal to the current
// scan.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string { return "internal error: " + e.Op + ": " + e.Err.Error() }
func (e *InternalError) Unwrap() error { return e.Err }

// NewInput wraps err as an InputError tagged with op.
func NewInput(op string, err error) error { return &InputError{Op: op, Err: err} }

// NewIO wraps err as an IOError tagged with op.
func NewIO(op string, err error) error { return &IOError{Op: op, Err: err} }

// NewProtocol wraps err as a ProtocolError with an HTTP status hint.
func NewProtocol(op string, code int, err error) error {
	return &ProtocolError{Op: op, Code: code, Err: err}
}

// NewInternal wraps err as an InternalError tagged with op.
func NewInternal(op string, err error) error { return &InternalError{Op: op, Err: err} }
