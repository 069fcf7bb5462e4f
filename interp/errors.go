package interp

// Error kinds, each wrapping the source context (line number and
// original source line) that produced it. Each kind is its own exported
// type implementing error, so callers can use errors.As to recover the
// structured fields instead of parsing a message string.

import (
	"fmt"
	"strings"

	"golang.org/x/xerrors"

	"github.com/openrexx/rexx/value"
)

// SourceContext carries the line number and original source text of the
// command that raised an error.
type SourceContext struct {
	Line         int
	OriginalLine string
}

func (c SourceContext) String() string {
	return fmt.Sprintf("line %d: %s", c.Line, c.OriginalLine)
}

// lineNo lets handleSignalError recover SIGL from any of the error types
// below without an errors.As chain per type, since every one of them
// embeds SourceContext by value and so gets this method for free.
func (c SourceContext) lineNo() int { return c.Line }

func errorLine(err error) int {
	if wl, ok := err.(interface{ lineNo() int }); ok {
		return wl.lineNo()
	}
	return 0
}

// srcContext is the same promotion trick as lineNo, recovering the full
// SourceContext (line and original source line) from any of the error
// types below so Run can build a RuntimeError without a per-type
// errors.As switch.
func (c SourceContext) srcContext() SourceContext { return c }

func errorContext(err error) SourceContext {
	if wc, ok := err.(interface{ srcContext() SourceContext }); ok {
		return wc.srcContext()
	}
	return SourceContext{}
}

// ReferenceError is raised for an unknown subroutine or label.
type ReferenceError struct {
	SourceContext
	Name string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s: unknown label or subroutine %q", e.SourceContext, e.Name)
}

// TypeError is raised for a non-numeric arithmetic operand, a
// non-iterable DO OVER target, or a bad array index type.
type TypeError struct {
	SourceContext
	Message string
}

func (e *TypeError) Error() string { return fmt.Sprintf("%s: %s", e.SourceContext, e.Message) }

// ArithmeticError is raised on division by zero for both / and //, %.
type ArithmeticError struct {
	SourceContext
	Op string
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("%s: division by zero (%s)", e.SourceContext, e.Op)
}

// FunctionError is raised when the dispatcher exhausts every resolution
// step and no AddressSender is configured to send the call on as an RPC.
type FunctionError struct {
	SourceContext
	Name   string
	DocURL string
}

func (e *FunctionError) Error() string {
	msg := fmt.Sprintf("%s: missing function %q", e.SourceContext, e.Name)
	if e.DocURL != "" {
		msg += " (see " + e.DocURL + ")"
	}
	return msg
}

// LibraryError wraps an error returned by a LibraryLoader.
type LibraryError struct {
	SourceContext
	Library string
	Err     error
}

func (e *LibraryError) Error() string {
	return fmt.Sprintf("%s: REQUIRE %q failed: %v", e.SourceContext, e.Library, e.Err)
}
func (e *LibraryError) Unwrap() error { return e.Err }

// AddressError wraps an error returned by an AddressSender or a handler
// registered against an ADDRESS target.
type AddressError struct {
	SourceContext
	Target string
	Err    error
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("%s: ADDRESS %q failed: %v", e.SourceContext, e.Target, e.Err)
}
func (e *AddressError) Unwrap() error { return e.Err }

// JSONError wraps value.JSONError with source context.
type JSONError struct {
	SourceContext
	Err error
}

func (e *JSONError) Error() string { return fmt.Sprintf("%s: %v", e.SourceContext, e.Err) }
func (e *JSONError) Unwrap() error { return e.Err }

// LoopSafetyError is raised when a While/Until/Forever loop exceeds the
// configured MaxLoopIterations.
type LoopSafetyError struct {
	SourceContext
	Limit int
}

func (e *LoopSafetyError) Error() string {
	return fmt.Sprintf("%s: loop exceeded the safety cap of %d iterations", e.SourceContext, e.Limit)
}

// RuntimeError is the categorised error populated into RC/ERRORTEXT/SIGL
// for SIGNAL ON ERROR, drawn from a small closed set of RC codes. It also
// carries a snapshot of every variable at the moment the underlying error
// was raised, taken by value with no back-reference to the *Interp that
// produced it, so it stays valid after the interpreter itself moves on.
type RuntimeError struct {
	SourceContext
	RC        int
	ErrorText string
	Snapshot  map[string]value.Value
	Original  error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: RC=%d %s", e.SourceContext, e.RC, e.ErrorText)
}
func (e *RuntimeError) Unwrap() error { return e.Original }

// newRuntimeError builds the categorised, variable-snapshotting wrapper
// around an error raised during command execution. snapshot is already a
// fresh copy owned by the caller.
func newRuntimeError(original error, snapshot map[string]value.Value) *RuntimeError {
	return &RuntimeError{
		SourceContext: errorContext(original),
		RC:            categorizeRC(original),
		ErrorText:     original.Error(),
		Snapshot:      snapshot,
		Original:      original,
	}
}

// categorizeRC implements the RC mapping: 40 stale element, 41
// element-not-found, 42 general DOM, else 1. Uses xerrors.As rather than
// the stdlib errors.As for the identity-preserving sentinel check used
// throughout the categorised runtime errors here.
func categorizeRC(err error) int {
	var addrErr *AddressError
	if xerrors.As(err, &addrErr) {
		msg := strings.ToUpper(addrErr.Error())
		switch {
		case strings.Contains(msg, "STALE"):
			return 40
		case strings.Contains(msg, "NOT FOUND"):
			return 41
		default:
			return 42
		}
	}
	return 1
}
