package interp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrexx/rexx/ast"
	"github.com/openrexx/rexx/value"
)

func TestCallSubroutineSetsResult(t *testing.T) {
	it, _ := newTestInterp(t)
	cmds := []ast.Command{
		ast.Call{Base: base(1, "call greet"), Subroutine: "GREET"},
		ast.Exit{Base: base(2, "exit"), Code: ast.Literal{Value: value.OfInt(0)}},
		ast.Label{Base: base(3, "greet:"), Name: "GREET"},
		ast.Return{Base: base(4, "return 42"), Value: lit(value.OfInt(42))},
	}
	_, err := it.Run(context.Background(), cmds)
	require.NoError(t, err)
	n, _ := it.Vars["RESULT"].Number()
	assert.Equal(t, float64(42), n)
}

func TestCallSubroutineSharesVarsByDefault(t *testing.T) {
	it, _ := newTestInterp(t)
	it.Vars["SHARED"] = value.OfInt(1)
	cmds := []ast.Command{
		ast.Call{Base: base(1, "call bump"), Subroutine: "BUMP"},
		ast.Exit{Base: base(2, "exit")},
		ast.Label{Base: base(3, "bump:"), Name: "BUMP"},
		ast.Assignment{Base: base(4, "shared = shared + 1"), Target: "SHARED",
			Expression: ast.BinaryOp{Op: "+", Left: ast.Variable{Name: "SHARED"}, Right: lit(value.OfInt(1))}},
		ast.Return{Base: base(5, "return")},
	}
	_, err := it.Run(context.Background(), cmds)
	require.NoError(t, err)
	n, _ := it.Vars["SHARED"].Number()
	assert.Equal(t, float64(2), n)
}

func TestCallProcedureIsolatesVars(t *testing.T) {
	it, _ := newTestInterp(t)
	it.Vars["SHARED"] = value.OfInt(1)
	cmds := []ast.Command{
		ast.Call{Base: base(1, "call bump"), Subroutine: "BUMP"},
		ast.Exit{Base: base(2, "exit")},
		ast.Label{Base: base(3, "bump:"), Name: "BUMP"},
		ast.Nop{Base: base(4, "PROCEDURE")},
		ast.Assignment{Base: base(5, "shared = shared + 1"), Target: "SHARED",
			Expression: ast.BinaryOp{Op: "+", Left: ast.Variable{Name: "SHARED"}, Right: lit(value.OfInt(1))}},
		ast.Return{Base: base(6, "return")},
	}
	_, err := it.Run(context.Background(), cmds)
	require.NoError(t, err)
	n, _ := it.Vars["SHARED"].Number()
	assert.Equal(t, float64(1), n, "caller's SHARED must be untouched by an isolated subroutine")
}

func TestCallUnknownSubroutineIsReferenceError(t *testing.T) {
	it, _ := newTestInterp(t)
	_, err := it.Run(context.Background(), []ast.Command{
		ast.Call{Base: base(1, "call missing"), Subroutine: "MISSING"},
	})
	require.Error(t, err)
	var re *ReferenceError
	require.ErrorAs(t, err, &re)
}

func TestReturnInsideIfUnwindsToCaller(t *testing.T) {
	it, _ := newTestInterp(t)
	cmds := []ast.Command{
		ast.Call{Base: base(1, "call choose"), Subroutine: "CHOOSE"},
		ast.Exit{Base: base(2, "exit")},
		ast.Label{Base: base(3, "choose:"), Name: "CHOOSE"},
		ast.If{
			Base:      base(4, "if 1 = 1 then return 5"),
			Condition: ast.Comparison{Op: "=", Left: lit(value.OfInt(1)), Right: lit(value.OfInt(1))},
			Then:      []ast.Command{ast.Return{Base: base(4, "return 5"), Value: lit(value.OfInt(5))}},
		},
		ast.Assignment{Base: base(5, "unreached = 1"), Target: "UNREACHED", Expression: lit(value.OfInt(1))},
		ast.Return{Base: base(6, "return 0")},
	}
	_, err := it.Run(context.Background(), cmds)
	require.NoError(t, err)
	n, _ := it.Vars["RESULT"].Number()
	assert.Equal(t, float64(5), n)
	assert.Equal(t, value.Null, it.Vars["UNREACHED"].Kind)
}
