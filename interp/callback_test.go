package interp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrexx/rexx/value"
)

func TestEvalCallbackBindsNamedParam(t *testing.T) {
	it, _ := newTestInterp(t)
	v, err := it.EvalCallback(context.Background(), "x => x * 2", map[string]value.Value{"x": value.OfInt(5)})
	require.NoError(t, err)
	n, _ := v.Number()
	assert.Equal(t, float64(10), n)
}

func TestEvalCallbackFallsBackToSoleArgWhenNameDiffers(t *testing.T) {
	it, _ := newTestInterp(t)
	v, err := it.EvalCallback(context.Background(), "item => item", map[string]value.Value{"0": value.OfString("hi")})
	require.NoError(t, err)
	assert.Equal(t, "hi", v.String())
}

func TestEvalCallbackRestoresShadowedVariable(t *testing.T) {
	it, _ := newTestInterp(t)
	it.Vars["X"] = value.OfInt(99)
	_, err := it.EvalCallback(context.Background(), "x => x + 1", map[string]value.Value{"x": value.OfInt(1)})
	require.NoError(t, err)
	n, _ := it.Vars["X"].Number()
	assert.Equal(t, float64(99), n)
}

func TestEvalCallbackRejectsNonArrowText(t *testing.T) {
	it, _ := newTestInterp(t)
	_, err := it.EvalCallback(context.Background(), "not a callback", nil)
	require.Error(t, err)
}
