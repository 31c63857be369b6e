package geofuzz

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies harness failures. The set is closed.
//
// ErrorKind implements error so a kind can be used directly as an
// errors.Is target:
//
//	if errors.Is(err, geofuzz.KindValidation) { ... }
type ErrorKind int

const (
	// KindConfig marks batch setup failures: an unreadable corpus directory,
	// an empty corpus, or invalid plan parameters. Fatal to the whole batch.
	KindConfig ErrorKind = iota + 1

	// KindLoad marks an asset that failed to decode or decoded empty.
	KindLoad

	// KindValidation marks an engine result that broke the engine contract.
	KindValidation

	// KindWrite marks an output encode/save failure.
	KindWrite

	// KindEngine marks an error returned by the engine itself.
	KindEngine

	// KindCanceled marks a run aborted by cancellation or its deadline.
	KindCanceled
)

var kindNames = map[ErrorKind]string{
	KindConfig:     "config",
	KindLoad:       "load",
	KindValidation: "validation",
	KindWrite:      "write",
	KindEngine:     "engine",
	KindCanceled:   "canceled",
}

// String returns the short name of the kind.
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error implements error.
func (k ErrorKind) Error() string {
	return "geofuzz: " + k.String() + " error"
}

// Error is the error type returned by harness operations.
type Error struct {
	Kind ErrorKind
	Op   string // operation, e.g. "list corpus", "decode", "step"
	Path string // file or directory involved, if any
	Err  error
}

func (e *Error) Error() string {
	msg := "geofuzz: " + e.Kind.String() + ": " + e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the ErrorKind of e.
func (e *Error) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == e.Kind
}

func newError(kind ErrorKind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// KindOf returns the ErrorKind carried by err, or 0 if err is nil or not a
// harness error. Context cancellation maps to KindCanceled.
func KindOf(err error) ErrorKind {
	if err == nil {
		return 0
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}
	return 0
}

// ValidationError reports an engine result that violates the engine contract.
type ValidationError struct {
	Step    int       // zero-based step index within the run
	Ordinal int       // index of the result within the step
	Kind    ShapeKind // shape kind reported by the engine
	Score   float64   // reported score
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("step %d result %d (%s): %s: score %v", e.Step, e.Ordinal, e.Kind, e.Reason, e.Score)
}
