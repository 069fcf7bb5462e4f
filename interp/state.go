package interp

// The Interp type and its functional-options constructor hold the
// runtime's own state: variables, stack, labels, subroutines, address,
// trace mode, signal handlers.

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/openrexx/rexx/ast"
	"github.com/openrexx/rexx/interpolate"
	"github.com/openrexx/rexx/value"
)

// Interp interprets Rexx-family programs. It is not safe for concurrent
// use — a single-threaded cooperative scheduling model, one Interp per
// isolated script, per embedder.
type Interp struct {
	Vars map[string]value.Value

	// Stack is the PUSH/PULL/QUEUE double-ended sequence.
	Stack []value.Value

	// program is the flat top-level command list Run was given; CALL,
	// SIGNAL and label jumps all resolve against indices into this slice,
	// never into a nested IF/DO/SELECT body's own list.
	program []ast.Command

	labels      map[string]int
	subroutines map[string]subroutineDef

	// addressTarget is the current ADDRESS target name; "" means the
	// default: dispatch straight to the registered function/operation
	// tables.
	addressTarget   string
	addressHandlers map[string]AddressSender

	traceMode     string
	interpolation interpolate.Pattern
	maxLoopIters  int

	// inErrorHandler guards against re-entrant SIGNAL ON ERROR dispatch
	//.
	inErrorHandler bool
	errorHandler   *errorHandlerState

	// argSlots is a stack of ARG()-style argument bindings, one per
	// active CALL frame.
	argSlots [][]value.Value

	registry      FunctionRegistry
	addressSender AddressSender
	libraryLoader LibraryLoader
	scriptLoader  ScriptLoader
	sink          OutputSink

	requiredLibraries map[string]Registrations

	numericDigits string
	numericFuzz   string
	numericForm   string

	sourceFilename string
	sourceLines    []string

	// logger is the embedder's channel for operational diagnostics,
	// distinct from sink: TRACE output is script-observable behaviour and
	// always goes through OutputSink. No code in this package writes to
	// logger; it is only stored.
	logger logrus.FieldLogger
}

type errorHandlerState struct {
	condition string // "ERROR"
	label     string
}

type subroutineDef struct {
	startIndex int
	cmds       []ast.Command
	isolated   bool // PROCEDURE locality
}

// Option configures an Interp via the functional-options pattern:
// options are applied left to right, and New fills in defaults
// afterwards.
type Option func(*Interp) error

// New builds an Interp, applying opts in order and then filling in
// neutral defaults.
func New(opts ...Option) (*Interp, error) {
	it := &Interp{
		Vars:              map[string]value.Value{},
		labels:            map[string]int{},
		subroutines:       map[string]subroutineDef{},
		addressHandlers:   map[string]AddressSender{},
		requiredLibraries: map[string]Registrations{},
		traceMode:         "OFF",
		maxLoopIters:      10000,
		numericDigits:     "9",
		numericFuzz:       "0",
		numericForm:       "SCIENTIFIC",
	}
	discardLog := logrus.New()
	discardLog.SetOutput(io.Discard)
	it.logger = discardLog
	for _, opt := range opts {
		if err := opt(it); err != nil {
			return nil, err
		}
	}
	if it.sink == nil {
		it.sink = discardSink{}
	}
	if it.interpolation.Name == "" {
		it.interpolation = interpolate.HandlebarsPattern
	}
	return it, nil
}

type discardSink struct{}

func (discardSink) Output(context.Context, string) error { return nil }

// Env seeds initial variables from a plain string map.
func Env(env map[string]string) Option {
	return func(it *Interp) error {
		for k, v := range env {
			it.Vars[k] = value.OfString(v)
		}
		return nil
	}
}

// InitialStack seeds the PUSH/PULL/QUEUE stack.
func InitialStack(vals []value.Value) Option {
	return func(it *Interp) error {
		it.Stack = append(it.Stack, vals...)
		return nil
	}
}

// WithOutputSink sets the collaborator that receives SAY/TRACE/EXIT
// UNLESS output.
func WithOutputSink(sink OutputSink) Option {
	return func(it *Interp) error {
		it.sink = sink
		return nil
	}
}

// WithAddressSender sets the final-fallback RPC collaborator.
func WithAddressSender(sender AddressSender) Option {
	return func(it *Interp) error {
		it.addressSender = sender
		return nil
	}
}

// WithFunctionRegistry sets the built-in/operation resolver.
func WithFunctionRegistry(reg FunctionRegistry) Option {
	return func(it *Interp) error {
		it.registry = reg
		return nil
	}
}

// WithLibraryLoader sets the REQUIRE collaborator.
func WithLibraryLoader(loader LibraryLoader) Option {
	return func(it *Interp) error {
		it.libraryLoader = loader
		return nil
	}
}

// WithScriptLoader sets the CALL "path" collaborator.
func WithScriptLoader(loader ScriptLoader) Option {
	return func(it *Interp) error {
		it.scriptLoader = loader
		return nil
	}
}

// WithInterpolationPattern sets the initial interpolation delimiter
// pattern; scripts may switch it at runtime.
func WithInterpolationPattern(p interpolate.Pattern) Option {
	return func(it *Interp) error {
		it.interpolation = p
		return nil
	}
}

// WithMaxLoopIterations overrides the While/Until/Forever safety cap;
// defaults to 10,000.
func WithMaxLoopIterations(n int) Option {
	return func(it *Interp) error {
		it.maxLoopIters = n
		return nil
	}
}

// WithTrace sets the initial TRACE mode.
func WithTrace(mode string) Option {
	return func(it *Interp) error {
		it.traceMode = mode
		return nil
	}
}

// WithLogger sets the operational logger; defaults to a discard
// logrus.Logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(it *Interp) error {
		it.logger = l
		return nil
	}
}

// WithSourceFilename records the script's filename on the Interp. The
// filename is not copied into SourceContext: error values carry the line
// number and source line only.
func WithSourceFilename(name string) Option {
	return func(it *Interp) error {
		it.sourceFilename = name
		return nil
	}
}
