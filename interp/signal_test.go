package interp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrexx/rexx/ast"
	"github.com/openrexx/rexx/value"
)

func TestSignalOnErrorJumpsToHandler(t *testing.T) {
	it, _ := newTestInterp(t)
	cmds := []ast.Command{
		ast.Signal{Base: base(1, "signal on error name handler"), Action: "ON", Condition: "ERROR", Label: "HANDLER"},
		ast.Call{Base: base(2, "call missing"), Subroutine: "MISSING"},
		ast.Exit{Base: base(3, "exit 1"), Code: lit(value.OfInt(1))},
		ast.Label{Base: base(4, "handler:"), Name: "HANDLER"},
		ast.Assignment{Base: base(5, "caught = 1"), Target: "CAUGHT", Expression: lit(value.OfInt(1))},
	}
	_, err := it.Run(context.Background(), cmds)
	require.NoError(t, err)
	n, _ := it.Vars["CAUGHT"].Number()
	assert.Equal(t, float64(1), n)
	rc, _ := it.Vars["RC"].Number()
	assert.NotEqual(t, float64(0), rc)
	assert.NotEmpty(t, it.Vars["ERRORTEXT"].String())
}

func TestSignalOffDisablesHandler(t *testing.T) {
	it, _ := newTestInterp(t)
	cmds := []ast.Command{
		ast.Signal{Base: base(1, "signal on error name handler"), Action: "ON", Condition: "ERROR", Label: "HANDLER"},
		ast.Signal{Base: base(2, "signal off error"), Action: "OFF", Condition: "ERROR"},
		ast.Call{Base: base(3, "call missing"), Subroutine: "MISSING"},
		ast.Label{Base: base(4, "handler:"), Name: "HANDLER"},
	}
	_, err := it.Run(context.Background(), cmds)
	require.Error(t, err)
	var re *ReferenceError
	require.ErrorAs(t, err, &re)
}

func TestSignalBareLabelJumps(t *testing.T) {
	it, _ := newTestInterp(t)
	cmds := []ast.Command{
		ast.Signal{Base: base(1, "signal skip"), Label: "SKIP"},
		ast.Assignment{Base: base(2, "x = 1"), Target: "X", Expression: lit(value.OfInt(1))},
		ast.Label{Base: base(3, "skip:"), Name: "SKIP"},
		ast.Assignment{Base: base(4, "y = 1"), Target: "Y", Expression: lit(value.OfInt(1))},
	}
	_, err := it.Run(context.Background(), cmds)
	require.NoError(t, err)
	assert.Equal(t, value.Null, it.Vars["X"].Kind)
	n, _ := it.Vars["Y"].Number()
	assert.Equal(t, float64(1), n)
}

func TestExitUnlessTerminatesWhenConditionFalse(t *testing.T) {
	it, buf := newTestInterp(t)
	cmds := []ast.Command{
		ast.ExitUnless{
			Base:      base(1, "exit unless 1 = 2, \"nope\""),
			Condition: ast.Comparison{Op: "=", Left: lit(value.OfInt(1)), Right: lit(value.OfInt(2))},
			Message:   lit(value.OfString("nope")),
			Code:      lit(value.OfInt(3)),
		},
		ast.Assignment{Base: base(2, "unreached = 1"), Target: "UNREACHED", Expression: lit(value.OfInt(1))},
	}
	code, err := it.Run(context.Background(), cmds)
	require.NoError(t, err)
	n, _ := code.Number()
	assert.Equal(t, float64(3), n)
	assert.Equal(t, []string{"nope"}, buf.Lines)
	assert.Equal(t, value.Null, it.Vars["UNREACHED"].Kind)
}

func TestExitUnlessContinuesWhenConditionTrue(t *testing.T) {
	it, _ := newTestInterp(t)
	cmds := []ast.Command{
		ast.ExitUnless{
			Base:      base(1, "exit unless 1 = 1"),
			Condition: ast.Comparison{Op: "=", Left: lit(value.OfInt(1)), Right: lit(value.OfInt(1))},
		},
		ast.Assignment{Base: base(2, "reached = 1"), Target: "REACHED", Expression: lit(value.OfInt(1))},
	}
	_, err := it.Run(context.Background(), cmds)
	require.NoError(t, err)
	n, _ := it.Vars["REACHED"].Number()
	assert.Equal(t, float64(1), n)
}
