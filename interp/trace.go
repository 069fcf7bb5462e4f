package interp

// Trace: when traceMode != "OFF", the evaluator emits one line per
// executed instruction through the OutputSink, carrying the original
// source line and its line number. SELECT is traced as its own line; the
// WHEN or OTHERWISE clause it takes gets no line of its own, only the
// commands inside that clause are traced. A single boolean gate checked once
// per statement, rather than a separate tracing pass.

import (
	"context"
	"fmt"

	"github.com/openrexx/rexx/ast"
)

func (it *Interp) traceEnabled() bool {
	return it.traceMode != "" && it.traceMode != "OFF"
}

func (it *Interp) emitTrace(ctx context.Context, cmd ast.Command) {
	if !it.traceEnabled() {
		return
	}
	it.traceLine(ctx, cmd.Pos(), cmd.Text())
}

func (it *Interp) traceLine(ctx context.Context, line int, text string) {
	if !it.traceEnabled() {
		return
	}
	_ = it.sink.Output(ctx, fmt.Sprintf("%d *-* %s", line, text))
}
