// Package exec provides the default AddressSender and ScriptLoader
// collaborators: running ADDRESS system commands as local OS processes
// and loading CALL "path" scripts from disk. A command runs through
// os/exec with a context-derived deadline, the same way an external exec
// handler would for a single already-formatted command string rather than
// a parsed shell call expression.
package exec

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"time"

	"github.com/openrexx/rexx/ast"
	"github.com/openrexx/rexx/syntax"
	"github.com/openrexx/rexx/value"
)

// Sender runs ADDRESS commands as local OS processes via /bin/sh -c.
// namespace is ignored: a Sender only ever knows how to run shell
// commands, so every ADDRESS target routed to it is treated the same way.
type Sender struct {
	// Shell is the interpreter used to run method strings; defaults to
	// "/bin/sh" when empty.
	Shell string
	// Timeout bounds a single command's runtime; zero means no extra
	// deadline beyond whatever ctx already carries.
	Timeout time.Duration
	Dir     string
	Env     []string
}

func (s Sender) Send(ctx context.Context, namespace, method string, params map[string]value.Value) (value.Value, error) {
	shell := s.Shell
	if shell == "" {
		shell = "/bin/sh"
	}
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, shell, "-c", method)
	cmd.Dir = s.Dir
	if s.Env != nil {
		cmd.Env = s.Env
	}
	var out, errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut

	if err := cmd.Run(); err != nil {
		return value.Value{}, &CommandError{Method: method, Stderr: errOut.String(), Err: err}
	}
	return value.OfString(out.String()), nil
}

// CommandError wraps a failed external command, keeping its stderr output
// alongside the underlying *exec.ExitError for diagnostics.
type CommandError struct {
	Method string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return e.Method + ": " + e.Err.Error() + ": " + e.Stderr
	}
	return e.Method + ": " + e.Err.Error()
}
func (e *CommandError) Unwrap() error { return e.Err }

// Loader loads CALL "path" scripts from the local filesystem.
type Loader struct{}

func (Loader) LoadScript(ctx context.Context, path string) ([]ast.Command, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	src := string(data)
	cmds, err := syntax.Parse(src)
	if err != nil {
		return nil, nil, err
	}
	return cmds, splitLines(src), nil
}

func splitLines(src string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			lines = append(lines, src[start:i])
			start = i + 1
		}
	}
	lines = append(lines, src[start:])
	return lines
}
