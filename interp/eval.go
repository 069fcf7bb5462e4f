package interp

// Run drives the top-level command list and
// the per-command dispatch that every other file in this package hangs
// off of: walking a flat []ast.Command, honouring jumps for SIGNAL/CALL.

import (
	"context"
	"strings"

	"github.com/openrexx/rexx/ast"
	"github.com/openrexx/rexx/value"
)

// Run executes a parsed program to completion. It returns the EXIT code
// (Null if the program fell off the end without an explicit EXIT).
func (it *Interp) Run(ctx context.Context, cmds []ast.Command) (value.Value, error) {
	it.program = cmds
	it.discoverLabels(cmds)

	i := 0
	for i < len(cmds) {
		cmd := cmds[i]
		if lbl, ok := cmd.(ast.Label); ok && it.inErrorHandler && it.errorHandler != nil &&
			!strings.EqualFold(lbl.Name, it.errorHandler.label) {
			it.inErrorHandler = false
		}
		it.emitTrace(ctx, cmd)
		d, err := it.execCommand(ctx, cmd)
		if err != nil {
			newIdx, handled, herr := it.handleSignalError(ctx, err)
			if herr != nil {
				return value.Nil(), herr
			}
			if handled {
				i = newIdx
				continue
			}
			return value.Nil(), newRuntimeError(err, it.snapshotVars())
		}
		switch {
		case d == nil:
			i++
		case d.kind == dTerminated:
			return d.exitCode, nil
		case d.kind == dReturn:
			return d.returnValue, nil
		case d.kind == dJump:
			i = d.jumpTo
		case d.kind == dSkip:
			i += 1 + d.skipN
		default:
			i++
		}
	}
	return value.Nil(), nil
}

// runBlock executes a nested command list (an IF branch, a DO body, a
// SELECT branch, ...). Terminated and Jump bubble straight up to Run's
// loop since their targets are indices into it.program, not this local
// slice; SkipCommands is consumed locally.
func (it *Interp) runBlock(ctx context.Context, cmds []ast.Command) (*directive, error) {
	i := 0
	for i < len(cmds) {
		cmd := cmds[i]
		it.emitTrace(ctx, cmd)
		d, err := it.execCommand(ctx, cmd)
		if err != nil {
			return nil, err
		}
		if d != nil {
			if d.kind == dSkip {
				i += 1 + d.skipN
				continue
			}
			return d, nil
		}
		i++
	}
	return nil, nil
}

func (it *Interp) execCommand(ctx context.Context, cmd ast.Command) (*directive, error) {
	switch c := cmd.(type) {
	case ast.Assignment:
		v, err := it.resolve(ctx, c, c.Expression)
		if err != nil {
			return nil, err
		}
		it.setVariable(c.Target, v)
		return nil, nil
	case ast.FunctionCallCmd:
		params := make(map[string]value.Value, len(c.Params))
		for name, pe := range c.Params {
			v, err := it.resolve(ctx, c, pe)
			if err != nil {
				return nil, err
			}
			params[name] = v
		}
		_, err := it.dispatch(ctx, c, c.Command, params, c.Order)
		return nil, err
	case ast.Say:
		// SAY of a heredoc prints its raw content even when the delimiter
		// marks it as JSON: JSON decoding is
		// triggered only by contexts that actually consume the decoded
		// value, not by every heredoc read.
		if hd, ok := c.Expression.(ast.Heredoc); ok {
			return nil, it.sink.Output(ctx, hd.Content)
		}
		v, err := it.resolve(ctx, c, c.Expression)
		if err != nil {
			return nil, err
		}
		return nil, it.sink.Output(ctx, v.String())
	case ast.Push:
		v, err := it.resolve(ctx, c, c.Expression)
		if err != nil {
			return nil, err
		}
		it.push(v)
		return nil, nil
	case ast.Queue:
		v, err := it.resolve(ctx, c, c.Expression)
		if err != nil {
			return nil, err
		}
		it.queue(v)
		return nil, nil
	case ast.Pull:
		it.setVariable(c.Var, it.pull())
		return nil, nil
	case ast.Parse:
		return nil, it.execParse(ctx, c)
	case ast.If:
		return it.execIf(ctx, c)
	case ast.Do:
		return it.execDo(ctx, c)
	case ast.Select:
		return it.execSelect(ctx, c)
	case ast.RetryOnStale:
		return it.execRetryOnStale(ctx, c)
	case ast.Call:
		return it.execCall(ctx, c)
	case ast.Return:
		return it.execReturn(ctx, c)
	case ast.Signal:
		return it.execSignal(ctx, c)
	case ast.Label:
		if c.Statement != nil {
			return it.execCommand(ctx, c.Statement)
		}
		return nil, nil
	case ast.Exit:
		return it.execExit(ctx, c)
	case ast.ExitUnless:
		return it.execExitUnless(ctx, c)
	case ast.Trace:
		it.traceMode = strings.ToUpper(c.Mode)
		return nil, nil
	case ast.Numeric:
		return nil, it.execNumeric(ctx, c)
	case ast.Address:
		if c.Target == "" {
			it.addressTarget = ""
		} else {
			it.addressTarget = strings.ToUpper(c.Target)
		}
		return nil, nil
	case ast.AddressWithString:
		return nil, it.execAddressWithString(ctx, c)
	case ast.AddressRemote:
		return nil, it.execAddressRemote(ctx, c)
	case ast.Interpret:
		return it.execInterpret(ctx, c)
	case ast.NoInterpret:
		return nil, nil
	case ast.HeredocCmd:
		return nil, it.execHeredocCmd(ctx, c)
	case ast.QuotedStringCmd:
		if it.addressTarget == "" {
			return nil, it.sink.Output(ctx, c.Value)
		}
		return nil, it.execAddressWithString(ctx, ast.AddressWithString{Base: c.Base, Target: it.addressTarget, Command: ast.Literal{Value: value.OfString(c.Value)}})
	case ast.Nop:
		return nil, nil
	default:
		return nil, &TypeError{SourceContext: srcCtx(cmd), Message: "unsupported command"}
	}
}
