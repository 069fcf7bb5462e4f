package interp

// The five collaborator interfaces the core consumes. The core never
// implements their bodies — only dispatches to them — keeping process
// execution, filesystem access and remote dispatch as pluggable seams
// rather than baking them into the interpreter itself.

import (
	"context"

	"github.com/openrexx/rexx/ast"
	"github.com/openrexx/rexx/value"
)

// FunctionRegistry resolves built-in functions, operations and converters.
type FunctionRegistry interface {
	Call(ctx context.Context, nameUpper string, params map[string]value.Value) (value.Value, error)
	IsOperation(nameUpper string) bool
	IsBuiltin(nameUpper string) bool
	// GetConverter returns a positional-to-named argument converter for
	// nameUpper, and whether one is registered.
	GetConverter(nameUpper string) (Converter, bool)
}

// Converter maps a function's resolved positional arguments to its named
// parameter map, per the per-function alias tables the
// function library owns.
type Converter interface {
	ToNamedParams(positional []value.Value) (map[string]value.Value, error)
}

// AddressSender is the final dispatcher fallback and the handler for any
// ADDRESS target without its own registered handler.
type AddressSender interface {
	Send(ctx context.Context, namespace, method string, params map[string]value.Value) (value.Value, error)
}

// LibraryLoader resolves REQUIRE.
type LibraryLoader interface {
	Require(ctx context.Context, name string, asClause string) (Registrations, error)
}

// Registrations is what a LibraryLoader hands back after a successful
// REQUIRE: the names it registered and provider metadata for diagnostics.
type Registrations struct {
	Functions      []string
	Operations     []string
	AddressTargets []AddressTargetRegistration
	Metadata       ProviderMetadata
}

type AddressTargetRegistration struct {
	Name    string
	Handler AddressSender
}

type ProviderMetadata struct {
	Name    string
	Version string
}

// OutputSink receives SAY results, TRACE lines, and EXIT UNLESS messages.
type OutputSink interface {
	Output(ctx context.Context, line string) error
}

// ScriptLoader resolves CALL "path".
type ScriptLoader interface {
	LoadScript(ctx context.Context, path string) ([]ast.Command, []string, error)
}
