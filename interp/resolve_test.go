package interp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrexx/rexx/ast"
	"github.com/openrexx/rexx/value"
)

func TestResolveVariableDottedPath(t *testing.T) {
	it, _ := newTestInterp(t)
	it.Vars["USER"] = value.OfObject(map[string]value.Value{
		"NAME": value.OfString("ada"),
		"TAGS": value.OfArray([]value.Value{value.OfString("admin"), value.OfString("owner")}),
	})
	assert.Equal(t, "ada", it.resolveVariable("USER.NAME").String())
	assert.Equal(t, "owner", it.resolveVariable("USER.TAGS.1").String())
	assert.Equal(t, value.Null, it.resolveVariable("USER.MISSING").Kind)
	assert.Equal(t, value.Null, it.resolveVariable("NEVER_SET").Kind)
}

func TestResolveConcatenationJoinsReparsedPieces(t *testing.T) {
	it, _ := newTestInterp(t)
	it.Vars["NAME"] = value.OfString("ada")
	v, err := it.resolveConcatenation(context.Background(), fakeCmd{}, `"hello " || name`)
	require.NoError(t, err)
	assert.Equal(t, "hello ada", v.String())
}

func TestResolveArrayAccess(t *testing.T) {
	it, _ := newTestInterp(t)
	v, err := it.resolve(context.Background(), fakeCmd{}, ast.ArrayAccess{
		Variable: ast.ArrayLiteral{Elements: []ast.Expression{lit(value.OfInt(10)), lit(value.OfInt(20))}},
		Index:    lit(value.OfInt(1)),
	})
	require.NoError(t, err)
	n, _ := v.Number()
	assert.Equal(t, float64(20), n)
}

func TestResolveArrayAccessOutOfRangeIsNull(t *testing.T) {
	it, _ := newTestInterp(t)
	v, err := it.resolve(context.Background(), fakeCmd{}, ast.ArrayAccess{
		Variable: ast.ArrayLiteral{Elements: []ast.Expression{lit(value.OfInt(10))}},
		Index:    lit(value.OfInt(5)),
	})
	require.NoError(t, err)
	assert.Equal(t, value.Null, v.Kind)
}

func TestInterpolateStringUsesConfiguredPattern(t *testing.T) {
	it, _ := newTestInterp(t)
	it.Vars["NAME"] = value.OfString("world")
	got := it.interpolateString("hello {{name}}")
	assert.Equal(t, "hello world", got)
}

func TestSplitTopLevelConcatIgnoresPipesInsideStringsAndParens(t *testing.T) {
	parts := splitTopLevelConcat(`"a||b" || f(x||y) || z`)
	require.Len(t, parts, 3)
	assert.Equal(t, `"a||b" `, parts[0])
	assert.Equal(t, ` f(x||y) `, parts[1])
	assert.Equal(t, ` z`, parts[2])
}
