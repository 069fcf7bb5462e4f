package exec

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSenderRunsShellCommand(t *testing.T) {
	s := Sender{Timeout: 5 * time.Second}
	v, err := s.Send(context.Background(), "system", "echo hello", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", v.String())
}

func TestSenderWrapsFailureWithStderr(t *testing.T) {
	s := Sender{Timeout: 5 * time.Second}
	_, err := s.Send(context.Background(), "system", "echo oops 1>&2; exit 3", nil)
	require.Error(t, err)
	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Contains(t, cmdErr.Stderr, "oops")
}

func TestLoaderLoadsAndParsesScript(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "greet.rexx")
	require.NoError(t, os.WriteFile(path, []byte("say \"hi\"\n"), 0o644))

	l := Loader{}
	cmds, lines, err := l.LoadScript(context.Background(), path)
	require.NoError(t, err)
	assert.NotEmpty(t, cmds)
	assert.Equal(t, []string{`say "hi"`, ""}, lines)
}

func TestLoaderMissingFileErrors(t *testing.T) {
	l := Loader{}
	_, _, err := l.LoadScript(context.Background(), "/nonexistent/path.rexx")
	require.Error(t, err)
}
