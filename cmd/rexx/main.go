// rexx runs Rexx-family scripts on top of the github.com/openrexx/rexx
// interpreter: a script path, an inline -c/--command source, or an
// interactive REPL when stdin is a terminal and neither is given.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"golang.org/x/xerrors"

	"github.com/openrexx/rexx/collab/exec"
	"github.com/openrexx/rexx/collab/loader"
	"github.com/openrexx/rexx/collab/sink"
	"github.com/openrexx/rexx/interp"
	"github.com/openrexx/rexx/interpolate"
	"github.com/openrexx/rexx/syntax"
)

var (
	inlineCommand string
	traceMode     string
	interpolation string
	maxIterations int
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		var exitErr *interp.ExitResult
		if xerrors.As(err, &exitErr) {
			code, _ := exitErr.Code.Number()
			os.Exit(int(code))
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rexx [script]",
		Short: "Run a Rexx-family script",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runAll(ctx, args)
		},
	}
	cmd.Flags().StringVarP(&inlineCommand, "command", "c", "", "inline script source")
	cmd.Flags().StringVar(&traceMode, "trace", "OFF", "initial TRACE mode (OFF, A, R, I, O, NORMAL)")
	cmd.Flags().StringVar(&interpolation, "interpolation", "handlebars", "interpolation pattern (handlebars, rexx, shell, batch, doubledollar, brackets)")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", 10000, "safety cap on While/Until/Forever loop iterations")
	return cmd
}

func runAll(ctx context.Context, args []string) error {
	if inlineCommand != "" {
		return runSource(ctx, inlineCommand)
	}
	if len(args) == 0 {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return runREPL(ctx, os.Stdin, os.Stdout)
		}
		src, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
		return runSource(ctx, string(src))
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	return runSource(ctx, string(data))
}

func newInterp(w io.Writer) (*interp.Interp, error) {
	pattern, ok := interpolate.Named(interpolation)
	if !ok {
		if custom, cok := interpolate.Custom(interpolation); cok {
			pattern = custom
		} else {
			pattern = interpolate.HandlebarsPattern
		}
	}
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	return interp.New(
		interp.WithOutputSink(sink.NewWriter(w)),
		interp.WithAddressSender(exec.Sender{Timeout: 30 * time.Second}),
		interp.WithScriptLoader(exec.Loader{}),
		interp.WithLibraryLoader(loader.NewRegistry()),
		interp.WithInterpolationPattern(pattern),
		interp.WithMaxLoopIterations(maxIterations),
		interp.WithTrace(traceMode),
		interp.WithLogger(logger),
	)
}

func runSource(ctx context.Context, src string) error {
	cmds, err := syntax.Parse(src)
	if err != nil {
		return err
	}
	it, err := newInterp(os.Stdout)
	if err != nil {
		return err
	}
	code, err := it.Run(ctx, cmds)
	if err != nil {
		return err
	}
	if n, nerr := code.Number(); nerr == nil && n != 0 {
		return &interp.ExitResult{Code: code}
	}
	return nil
}

func runREPL(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	it, err := newInterp(stdout)
	if err != nil {
		return err
	}
	reader := bufio.NewReader(stdin)
	fmt.Fprint(stdout, "rexx> ")
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		cmds, perr := syntax.Parse(line)
		if perr != nil {
			fmt.Fprintln(stdout, perr)
			fmt.Fprint(stdout, "rexx> ")
			continue
		}
		if _, rerr := it.Run(ctx, cmds); rerr != nil {
			fmt.Fprintln(stdout, rerr)
		}
		fmt.Fprint(stdout, "rexx> ")
	}
}
