package interp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrexx/rexx/ast"
	"github.com/openrexx/rexx/value"
)

func sumBody(varName, sumName string) []ast.Command {
	return []ast.Command{
		ast.Assignment{
			Base:   base(2, "sum = sum + i"),
			Target: sumName,
			Expression: ast.BinaryOp{
				Op: "+", Left: ast.Variable{Name: sumName}, Right: ast.Variable{Name: varName},
			},
		},
	}
}

func TestDoRangeAscending(t *testing.T) {
	it, _ := newTestInterp(t)
	cmds := []ast.Command{
		ast.Assignment{Base: base(1, "sum = 0"), Target: "SUM", Expression: lit(value.OfInt(0))},
		ast.Do{
			Base: base(2, "do i = 1 to 5"),
			Spec: ast.RangeLoop{Var: "I", Start: lit(value.OfInt(1)), End: lit(value.OfInt(5))},
			Body: sumBody("I", "SUM"),
		},
	}
	_, err := it.Run(context.Background(), cmds)
	require.NoError(t, err)
	n, _ := it.Vars["SUM"].Number()
	assert.Equal(t, float64(15), n)
}

func TestDoRangeWithStepDescending(t *testing.T) {
	it, _ := newTestInterp(t)
	cmds := []ast.Command{
		ast.Assignment{Base: base(1, "sum = 0"), Target: "SUM", Expression: lit(value.OfInt(0))},
		ast.Do{
			Base: base(2, "do i = 5 to 1 by -2"),
			Spec: ast.RangeWithStepLoop{Var: "I", Start: lit(value.OfInt(5)), End: lit(value.OfInt(1)), Step: lit(value.OfInt(-2))},
			Body: sumBody("I", "SUM"),
		},
	}
	_, err := it.Run(context.Background(), cmds)
	require.NoError(t, err)
	n, _ := it.Vars["SUM"].Number()
	assert.Equal(t, float64(9), n) // 5 + 3 + 1
}

func TestDoRangeRestoresShadowedVariable(t *testing.T) {
	it, _ := newTestInterp(t)
	it.Vars["I"] = value.OfString("outer")
	cmds := []ast.Command{
		ast.Do{
			Base: base(1, "do i = 1 to 3"),
			Spec: ast.RangeLoop{Var: "I", Start: lit(value.OfInt(1)), End: lit(value.OfInt(3))},
			Body: nil,
		},
	}
	_, err := it.Run(context.Background(), cmds)
	require.NoError(t, err)
	assert.Equal(t, "outer", it.Vars["I"].String())
}

func TestDoRangeKeepsLastValueWhenNotPreviouslyBound(t *testing.T) {
	it, _ := newTestInterp(t)
	cmds := []ast.Command{
		ast.Do{
			Base: base(1, "do i = 1 to 3"),
			Spec: ast.RangeLoop{Var: "I", Start: lit(value.OfInt(1)), End: lit(value.OfInt(3))},
			Body: nil,
		},
	}
	_, err := it.Run(context.Background(), cmds)
	require.NoError(t, err)
	n, _ := it.Vars["I"].Number()
	assert.Equal(t, float64(3), n)
}

func TestDoRangeZeroStepIsTypeError(t *testing.T) {
	it, _ := newTestInterp(t)
	cmds := []ast.Command{
		ast.Do{
			Base: base(1, "do i = 1 to 5 by 0"),
			Spec: ast.RangeWithStepLoop{Var: "I", Start: lit(value.OfInt(1)), End: lit(value.OfInt(5)), Step: lit(value.OfInt(0))},
		},
	}
	_, err := it.Run(context.Background(), cmds)
	require.Error(t, err)
	var te *TypeError
	require.ErrorAs(t, err, &te)
}

func TestDoUntilRunsBodyAtLeastOnce(t *testing.T) {
	it, _ := newTestInterp(t)
	cmds := []ast.Command{
		ast.Assignment{Base: base(1, "n = 0"), Target: "N", Expression: lit(value.OfInt(0))},
		ast.Do{
			Base: base(2, "do until n > 0"),
			Spec: ast.UntilLoop{Cond: ast.Comparison{Op: ">", Left: ast.Variable{Name: "N"}, Right: lit(value.OfInt(0))}},
			Body: []ast.Command{
				ast.Assignment{Base: base(3, "n = n + 1"), Target: "N",
					Expression: ast.BinaryOp{Op: "+", Left: ast.Variable{Name: "N"}, Right: lit(value.OfInt(1))}},
			},
		},
	}
	_, err := it.Run(context.Background(), cmds)
	require.NoError(t, err)
	n, _ := it.Vars["N"].Number()
	assert.Equal(t, float64(1), n)
}

func TestDoWhilePreTestSkipsBodyWhenFalse(t *testing.T) {
	it, _ := newTestInterp(t)
	cmds := []ast.Command{
		ast.Assignment{Base: base(1, "n = 0"), Target: "N", Expression: lit(value.OfInt(0))},
		ast.Do{
			Base: base(2, "do while n > 0"),
			Spec: ast.WhileLoop{Cond: ast.Comparison{Op: ">", Left: ast.Variable{Name: "N"}, Right: lit(value.OfInt(0))}},
			Body: []ast.Command{
				ast.Assignment{Base: base(3, "n = n + 1"), Target: "N",
					Expression: ast.BinaryOp{Op: "+", Left: ast.Variable{Name: "N"}, Right: lit(value.OfInt(1))}},
			},
		},
	}
	_, err := it.Run(context.Background(), cmds)
	require.NoError(t, err)
	n, _ := it.Vars["N"].Number()
	assert.Equal(t, float64(0), n)
}

func TestDoRepeatNegativeCountIsError(t *testing.T) {
	it, _ := newTestInterp(t)
	cmds := []ast.Command{
		ast.Do{Base: base(1, "do -1"), Spec: ast.RepeatLoop{Count: lit(value.OfInt(-1))}},
	}
	_, err := it.Run(context.Background(), cmds)
	require.Error(t, err)
}

func TestDoOverArrayInOrder(t *testing.T) {
	it, _ := newTestInterp(t)
	it.Vars["ITEMS"] = value.OfArray([]value.Value{value.OfInt(1), value.OfInt(2), value.OfInt(3)})
	cmds := []ast.Command{
		ast.Assignment{Base: base(1, "sum = 0"), Target: "SUM", Expression: lit(value.OfInt(0))},
		ast.Do{
			Base: base(2, "do x over items"),
			Spec: ast.OverLoop{Var: "X", Array: ast.Variable{Name: "ITEMS"}},
			Body: sumBody("X", "SUM"),
		},
	}
	_, err := it.Run(context.Background(), cmds)
	require.NoError(t, err)
	n, _ := it.Vars["SUM"].Number()
	assert.Equal(t, float64(6), n)
}

func TestDoOverObjectKeySortedNumericFirst(t *testing.T) {
	it, _ := newTestInterp(t)
	it.Vars["OBJ"] = value.OfObject(map[string]value.Value{
		"2": value.OfString("b"), "1": value.OfString("a"), "10": value.OfString("c"),
	})
	cmds := []ast.Command{
		ast.Do{
			Base: base(1, "do v over obj"),
			Spec: ast.OverLoop{Var: "V", Array: ast.Variable{Name: "OBJ"}},
			Body: []ast.Command{
				ast.Queue{Base: base(2, "queue v"), Expression: ast.Variable{Name: "V"}},
			},
		},
	}
	_, err := it.Run(context.Background(), cmds)
	require.NoError(t, err)
	require.Len(t, it.Stack, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{it.Stack[0].String(), it.Stack[1].String(), it.Stack[2].String()})
}

func TestDoOverRestoresShadowedVariable(t *testing.T) {
	it, _ := newTestInterp(t)
	it.Vars["X"] = value.OfString("outer")
	it.Vars["ITEMS"] = value.OfArray([]value.Value{value.OfInt(1), value.OfInt(2)})
	cmds := []ast.Command{
		ast.Do{
			Base: base(1, "do x over items"),
			Spec: ast.OverLoop{Var: "X", Array: ast.Variable{Name: "ITEMS"}},
			Body: nil,
		},
	}
	_, err := it.Run(context.Background(), cmds)
	require.NoError(t, err)
	assert.Equal(t, "outer", it.Vars["X"].String())
}

func TestDoOverNonIterableIsTypeError(t *testing.T) {
	it, _ := newTestInterp(t)
	it.Vars["N"] = value.OfInt(5)
	cmds := []ast.Command{
		ast.Do{Base: base(1, "do x over n"), Spec: ast.OverLoop{Var: "X", Array: ast.Variable{Name: "N"}}},
	}
	_, err := it.Run(context.Background(), cmds)
	require.Error(t, err)
	var te *TypeError
	require.ErrorAs(t, err, &te)
}

func TestExecSelectFirstWhenWins(t *testing.T) {
	it, _ := newTestInterp(t)
	cmds := []ast.Command{
		ast.Select{
			Base: base(1, "select"),
			Whens: []ast.WhenClause{
				{Condition: ast.Boolean{Expression: lit(value.Of(false))}, Body: []ast.Command{
					ast.Assignment{Base: base(2, "r = 1"), Target: "R", Expression: lit(value.OfInt(1))},
				}},
				{Condition: ast.Boolean{Expression: lit(value.Of(true))}, Body: []ast.Command{
					ast.Assignment{Base: base(3, "r = 2"), Target: "R", Expression: lit(value.OfInt(2))},
				}},
			},
			Otherwise: []ast.Command{
				ast.Assignment{Base: base(4, "r = 3"), Target: "R", Expression: lit(value.OfInt(3))},
			},
		},
	}
	_, err := it.Run(context.Background(), cmds)
	require.NoError(t, err)
	n, _ := it.Vars["R"].Number()
	assert.Equal(t, float64(2), n)
}

func TestExecSelectFallsToOtherwise(t *testing.T) {
	it, _ := newTestInterp(t)
	cmds := []ast.Command{
		ast.Select{
			Base: base(1, "select"),
			Whens: []ast.WhenClause{
				{Condition: ast.Boolean{Expression: lit(value.Of(false))}, Body: nil},
			},
			Otherwise: []ast.Command{
				ast.Assignment{Base: base(2, "r = 9"), Target: "R", Expression: lit(value.OfInt(9))},
			},
		},
	}
	_, err := it.Run(context.Background(), cmds)
	require.NoError(t, err)
	n, _ := it.Vars["R"].Number()
	assert.Equal(t, float64(9), n)
}
