package interp

// SIGNAL ON/OFF ERROR and the bare SIGNAL label form, plus EXIT/EXIT
// UNLESS. The in_error_handler guard stops a second
// error raised while already inside a handler from re-triggering it;
// Run's top-level loop clears the guard once control reaches a label
// other than the handler's own, i.e. once the handler block has run its
// course. The shape follows the dispatcher's own error-wrapping
// conventions (errors.go).

import (
	"context"
	"strings"

	"github.com/openrexx/rexx/ast"
	"github.com/openrexx/rexx/value"
)

func (it *Interp) execSignal(ctx context.Context, c ast.Signal) (*directive, error) {
	switch strings.ToUpper(c.Action) {
	case "ON":
		it.errorHandler = &errorHandlerState{condition: strings.ToUpper(c.Condition), label: c.Label}
		it.inErrorHandler = false
		return nil, nil
	case "OFF":
		it.errorHandler = nil
		it.inErrorHandler = false
		return nil, nil
	default:
		idx, ok := it.labels[strings.ToUpper(c.Label)]
		if !ok {
			return nil, &ReferenceError{SourceContext: srcCtx(c), Name: c.Label}
		}
		return jumpTo(idx, value.Nil()), nil
	}
}

// handleSignalError is consulted by Run whenever a command raises an
// error. It reports (newIndex, true, nil) when a registered SIGNAL ON
// ERROR handler should take over, or (_, false, nil) to let the error
// propagate and end the program, in which case Run wraps it in a
// RuntimeError built from the same categorizeRC/Error() pair used here for
// RC/ERRORTEXT, so a handled and an unhandled error report identical codes
// and text.
func (it *Interp) handleSignalError(ctx context.Context, err error) (int, bool, error) {
	if it.errorHandler == nil || it.inErrorHandler {
		return 0, false, nil
	}
	if it.errorHandler.condition != "" && it.errorHandler.condition != "ERROR" {
		return 0, false, nil
	}
	idx, ok := it.labels[strings.ToUpper(it.errorHandler.label)]
	if !ok {
		return 0, false, nil
	}
	it.setVariable("RC", value.OfInt(int64(categorizeRC(err))))
	it.setVariable("ERRORTEXT", value.OfString(err.Error()))
	it.setVariable("SIGL", value.OfInt(int64(errorLine(err))))
	it.inErrorHandler = true
	return idx, true, nil
}

func (it *Interp) execExit(ctx context.Context, c ast.Exit) (*directive, error) {
	if c.Code == nil {
		return terminated(value.OfInt(0)), nil
	}
	v, err := it.resolve(ctx, c, c.Code)
	if err != nil {
		return nil, err
	}
	return terminated(v), nil
}

// execExitUnless implements EXIT UNLESS cond, message: the
// program keeps running when cond is true, and otherwise prints message
// and exits with Code (default 1).
func (it *Interp) execExitUnless(ctx context.Context, c ast.ExitUnless) (*directive, error) {
	ok, err := it.evalCondition(ctx, c, c.Condition)
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, nil
	}
	if c.Message != nil {
		msg, err := it.resolve(ctx, c, c.Message)
		if err != nil {
			return nil, err
		}
		if err := it.sink.Output(ctx, msg.String()); err != nil {
			return nil, err
		}
	}
	code := value.OfInt(1)
	if c.Code != nil {
		v, err := it.resolve(ctx, c, c.Code)
		if err != nil {
			return nil, err
		}
		code = v
	}
	return terminated(code), nil
}
