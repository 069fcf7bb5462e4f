package interp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrexx/rexx/ast"
	"github.com/openrexx/rexx/collab/sink"
	"github.com/openrexx/rexx/value"
)

func base(line int, text string) ast.Base {
	return ast.NewBase(line, text)
}

func newTestInterp(t *testing.T, opts ...Option) (*Interp, *sink.Buffer) {
	t.Helper()
	buf := sink.NewBuffer()
	full := append([]Option{WithOutputSink(buf)}, opts...)
	it, err := New(full...)
	require.NoError(t, err)
	return it, buf
}

func TestRunAssignmentAndSay(t *testing.T) {
	it, buf := newTestInterp(t)
	cmds := []ast.Command{
		ast.Assignment{Base: base(1, `x = 3`), Target: "X", Expression: ast.Literal{Value: value.OfInt(3)}},
		ast.Say{Base: base(2, `say x`), Expression: ast.Variable{Name: "X"}},
	}
	_, err := it.Run(context.Background(), cmds)
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, buf.Lines)
}

func TestRunSayHeredocPrintsRawEvenWhenJSONDelimiter(t *testing.T) {
	it, buf := newTestInterp(t)
	cmds := []ast.Command{
		ast.Say{Base: base(1, `say <<ENDJSON`), Expression: ast.Heredoc{Content: `{"a": 1}`, Delimiter: "ENDJSON"}},
	}
	_, err := it.Run(context.Background(), cmds)
	require.NoError(t, err)
	assert.Equal(t, []string{`{"a": 1}`}, buf.Lines)
}

func TestRunExitReturnsExitCode(t *testing.T) {
	it, _ := newTestInterp(t)
	cmds := []ast.Command{
		ast.Exit{Base: base(1, "exit 7"), Code: ast.Literal{Value: value.OfInt(7)}},
		ast.Say{Base: base(2, "say 1"), Expression: ast.Literal{Value: value.OfInt(1)}},
	}
	code, err := it.Run(context.Background(), cmds)
	require.NoError(t, err)
	n, _ := code.Number()
	assert.Equal(t, float64(7), n)
}

func TestRunBareExitDefaultsToZero(t *testing.T) {
	it, _ := newTestInterp(t)
	cmds := []ast.Command{ast.Exit{Base: base(1, "exit")}}
	code, err := it.Run(context.Background(), cmds)
	require.NoError(t, err)
	n, _ := code.Number()
	assert.Equal(t, float64(0), n)
}

func TestRunPushQueuePull(t *testing.T) {
	it, _ := newTestInterp(t)
	cmds := []ast.Command{
		ast.Push{Base: base(1, `push "a"`), Expression: ast.Literal{Value: value.OfString("a")}},
		ast.Queue{Base: base(2, `queue "b"`), Expression: ast.Literal{Value: value.OfString("b")}},
		ast.Push{Base: base(3, `push "c"`), Expression: ast.Literal{Value: value.OfString("c")}},
		ast.Pull{Base: base(4, `pull v1`), Var: "V1"},
		ast.Pull{Base: base(5, `pull v2`), Var: "V2"},
		ast.Pull{Base: base(6, `pull v3`), Var: "V3"},
	}
	_, err := it.Run(context.Background(), cmds)
	require.NoError(t, err)
	assert.Equal(t, "c", it.Vars["V1"].String())
	assert.Equal(t, "a", it.Vars["V2"].String())
	assert.Equal(t, "b", it.Vars["V3"].String())
}

func TestRunUnsupportedCommandIsTypeError(t *testing.T) {
	it, _ := newTestInterp(t)
	_, err := it.Run(context.Background(), []ast.Command{fakeCmd{}})
	require.Error(t, err)
	var te *TypeError
	require.ErrorAs(t, err, &te)
}

func TestRunUnhandledErrorWrapsRuntimeErrorWithSnapshot(t *testing.T) {
	it, _ := newTestInterp(t)
	it.Vars["X"] = value.OfInt(9)
	cmds := []ast.Command{
		ast.Call{Base: base(1, "call missing"), Subroutine: "MISSING"},
	}
	_, err := it.Run(context.Background(), cmds)
	require.Error(t, err)
	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 1, re.RC)
	assert.NotEmpty(t, re.ErrorText)
	n, _ := re.Snapshot["X"].Number()
	assert.Equal(t, float64(9), n)
	var ref *ReferenceError
	require.ErrorAs(t, err, &ref)
}

type fakeCmd struct{ ast.Base }
