package interp

// CALL/RETURN and label discovery: a label partitions the
// top-level program into subroutine bodies the way classic Rexx does —
// everything between one label and the next becomes that label's
// subroutine.

import (
	"context"
	"strings"

	"github.com/openrexx/rexx/ast"
	"github.com/openrexx/rexx/value"
)

// discoverLabels scans the top-level command list once before Run starts,
// recording each label's index (for SIGNAL/CALL-by-label jumps) and the
// command slice from just after it up to the next label (for CALL).
func (it *Interp) discoverLabels(cmds []ast.Command) {
	for i, cmd := range cmds {
		lbl, ok := cmd.(ast.Label)
		if !ok {
			continue
		}
		name := strings.ToUpper(lbl.Name)
		it.labels[name] = i
		end := len(cmds)
		for j := i + 1; j < len(cmds); j++ {
			if _, ok := cmds[j].(ast.Label); ok {
				end = j
				break
			}
		}
		it.subroutines[name] = subroutineDef{startIndex: i, cmds: cmds[i+1 : end]}
	}
}

// runSubroutine executes a subroutine body, catching RETURN locally and
// handing its value back as an ordinary result; Terminated and Jump still
// bubble out since EXIT and a SIGNAL-driven jump must unwind past the call.
func (it *Interp) runSubroutine(ctx context.Context, cmds []ast.Command) (value.Value, *directive, error) {
	i := 0
	for i < len(cmds) {
		cmd := cmds[i]
		it.emitTrace(ctx, cmd)
		d, err := it.execCommand(ctx, cmd)
		if err != nil {
			return value.Nil(), nil, err
		}
		if d != nil {
			switch d.kind {
			case dSkip:
				i += 1 + d.skipN
				continue
			case dReturn:
				return d.returnValue, nil, nil
			default:
				return value.Nil(), d, nil
			}
		}
		i++
	}
	return value.Nil(), nil, nil
}

func (it *Interp) execCall(ctx context.Context, c ast.Call) (*directive, error) {
	target := c.Subroutine
	if c.IsVariableCall {
		target = it.resolveVariable(c.Subroutine).String()
	}

	args := make([]value.Value, len(c.Args))
	for i, a := range c.Args {
		v, err := it.resolve(ctx, c, a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	// DisplayName carries the LET v = CALL target; bind RESULT to it once
	// the call returns normally.
	bind := func(d *directive, err error) (*directive, error) {
		if err == nil && d == nil && c.DisplayName != "" {
			it.setVariable(c.DisplayName, it.resolveVariable("RESULT"))
		}
		return d, err
	}
	upper := strings.ToUpper(target)
	if sub, ok := it.subroutines[upper]; ok {
		return bind(it.invoke(ctx, sub.cmds, args))
	}
	if it.scriptLoader != nil {
		cmds, _, err := it.scriptLoader.LoadScript(ctx, target)
		if err == nil {
			return bind(it.invoke(ctx, cmds, args))
		}
	}
	return nil, &ReferenceError{SourceContext: srcCtx(c), Name: target}
}

// invoke runs a subroutine body with a fresh ARG() slot, implementing
// PROCEDURE EXPOSE-less locality: a subroutine normally shares the
// caller's variable store, but when its very first statement is the bare
// word PROCEDURE, its variables are isolated for the call's duration
// (classic Rexx PROCEDURE semantics). There's no dedicated AST node for
// that marker; it's recognised from the statement's own original source
// text via Command.Text(), since any plain identifier-only line parses as
// a no-op/implicit-assignment-like statement that still carries its text.
func (it *Interp) invoke(ctx context.Context, cmds []ast.Command, args []value.Value) (*directive, error) {
	isolated := len(cmds) > 0 && strings.EqualFold(strings.TrimSpace(cmds[0].Text()), "PROCEDURE")
	body := cmds
	var saved map[string]value.Value
	if isolated {
		body = cmds[1:]
		saved = it.Vars
		it.Vars = map[string]value.Value{}
	}

	it.argSlots = append(it.argSlots, args)
	result, d, err := it.runSubroutine(ctx, body)
	it.argSlots = it.argSlots[:len(it.argSlots)-1]

	if isolated {
		it.Vars = saved
	}
	if err != nil {
		return nil, err
	}
	if d != nil {
		return d, nil
	}
	it.setVariable("RESULT", result)
	return nil, nil
}

func (it *Interp) execReturn(ctx context.Context, c ast.Return) (*directive, error) {
	if c.Value == nil {
		return returned(value.Nil()), nil
	}
	v, err := it.resolve(ctx, c, c.Value)
	if err != nil {
		return nil, err
	}
	return returned(v), nil
}
