package interp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrexx/rexx/ast"
	"github.com/openrexx/rexx/value"
)

func lit(v value.Value) ast.Expression { return ast.Literal{Value: v} }

func TestEvalBinaryOpArithmetic(t *testing.T) {
	it, _ := newTestInterp(t)
	src := fakeCmd{}
	cases := []struct {
		op   string
		l, r float64
		want float64
	}{
		{"+", 2, 3, 5},
		{"-", 5, 3, 2},
		{"*", 4, 3, 12},
		{"/", 7, 2, 3.5},
		{"//", 7, 2, 3},
		{"%", 7, 2, 1},
		{"**", 2, 5, 32},
	}
	for _, c := range cases {
		t.Run(c.op, func(t *testing.T) {
			v, err := it.evalBinaryOp(context.Background(), src, ast.BinaryOp{
				Op: c.op, Left: lit(value.OfFloat(c.l)), Right: lit(value.OfFloat(c.r)),
			})
			require.NoError(t, err)
			got, err := v.Number()
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestEvalBinaryOpDivisionByZero(t *testing.T) {
	it, _ := newTestInterp(t)
	src := fakeCmd{}
	for _, op := range []string{"/", "//", "%"} {
		_, err := it.evalBinaryOp(context.Background(), src, ast.BinaryOp{
			Op: op, Left: lit(value.OfInt(1)), Right: lit(value.OfInt(0)),
		})
		require.Error(t, err)
		var ae *ArithmeticError
		require.ErrorAsf(t, err, &ae, "op %s", op)
	}
}

func TestEvalBinaryOpNonNumericIsTypeError(t *testing.T) {
	it, _ := newTestInterp(t)
	_, err := it.evalBinaryOp(context.Background(), fakeCmd{}, ast.BinaryOp{
		Op: "+", Left: lit(value.OfString("abc")), Right: lit(value.OfInt(1)),
	})
	require.Error(t, err)
	var te *TypeError
	require.ErrorAs(t, err, &te)
}
