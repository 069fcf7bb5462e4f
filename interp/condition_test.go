package interp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrexx/rexx/ast"
	"github.com/openrexx/rexx/value"
)

func TestEvalConditionComparison(t *testing.T) {
	it, _ := newTestInterp(t)
	cases := []struct {
		op   string
		l, r value.Value
		want bool
	}{
		{"=", value.OfInt(3), value.OfString("3"), true},
		{"<>", value.OfInt(3), value.OfInt(4), true},
		{"<", value.OfInt(1), value.OfInt(2), true},
		{">=", value.OfInt(2), value.OfInt(2), true},
		{">", value.OfInt(1), value.OfInt(2), false},
	}
	for _, c := range cases {
		t.Run(c.op, func(t *testing.T) {
			ok, err := it.evalCondition(context.Background(), fakeCmd{}, ast.Comparison{
				Op: c.op, Left: lit(c.l), Right: lit(c.r),
			})
			require.NoError(t, err)
			assert.Equal(t, c.want, ok)
		})
	}
}

func TestEvalConditionLogical(t *testing.T) {
	it, _ := newTestInterp(t)
	truth := ast.Boolean{Expression: lit(value.Of(true))}
	falsy := ast.Boolean{Expression: lit(value.Of(false))}

	ok, err := it.evalCondition(context.Background(), fakeCmd{}, ast.LogicalAnd{Parts: []ast.Condition{truth, falsy}})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = it.evalCondition(context.Background(), fakeCmd{}, ast.LogicalOr{Parts: []ast.Condition{truth, falsy}})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = it.evalCondition(context.Background(), fakeCmd{}, ast.LogicalNot{Operand: falsy})
	require.NoError(t, err)
	assert.True(t, ok)
}
