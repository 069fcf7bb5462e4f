// Package ast defines the command tree produced by the statement parser
// and consumed by the evaluator: Command, Expression, Condition, LoopSpec.
//
// The per-type declaration style — one small struct per node kind, a
// shared marker interface, no single giant tagged struct — keeps each
// node's fields self-describing instead of forcing every kind through a
// common set of optional slots.
package ast

import "github.com/openrexx/rexx/value"

// Node is implemented by every command-tree node. Pos reports the 1-based
// source line the node begins at; every Command carries its line number
// and original source line.
type Node interface {
	Pos() int
}

// Base is embedded by every Command to satisfy the line_number/original_line
// invariant without repeating the two fields in every struct literal site.
type Base struct {
	Line         int
	OriginalLine string
}

func (b Base) Pos() int { return b.Line }

// Text returns the original, unmodified source line a command was parsed
// from (used by TRACE output).
func (b Base) Text() string { return b.OriginalLine }

// NewBase is the usual way for the parser to build the embedded Base of a
// Command literal: ast.Assignment{Base: ast.NewBase(line, text), ...}.
func NewBase(line int, originalLine string) Base {
	return Base{Line: line, OriginalLine: originalLine}
}

// Command is the tagged command-tree node. Every concrete type below
// implements it by embedding Base and getting Pos() for free.
type Command interface {
	Node
	Text() string
	commandNode()
}

func (Base) commandNode() {}

// --- Expressions ---

// Expression is the tagged expression-tree node evaluated by the
// expression evaluator.
type Expression interface {
	exprNode()
}

type Literal struct{ Value value.Value }

func (Literal) exprNode() {}

// Variable is a (possibly dotted) variable reference, e.g. "a.b.c".
type Variable struct{ Name string }

func (Variable) exprNode() {}

type ArrayLiteral struct{ Elements []Expression }

func (ArrayLiteral) exprNode() {}

type BinaryOp struct {
	Op          string // "+", "-", "*", "/", "//", "%", "**"
	Left, Right Expression
}

func (BinaryOp) exprNode() {}

// PipeOp is `left |> right`, where right must be a FunctionCall.
type PipeOp struct {
	Left  Expression
	Right Expression
}

func (PipeOp) exprNode() {}

// FunctionCall appears both as a statement (ast.FunctionCall command) and
// as an expression; the expression form carries parsed argument
// expressions keyed by parameter name for named arguments, and by their
// positional index (as a string, "0", "1", ...) for positional ones,
// since a call can mix positional and named arguments freely.
type FunctionCall struct {
	Command string
	Params  map[string]Expression
	// Order preserves positional-argument order; named-only arguments are
	// not listed here.
	Order []string
}

func (FunctionCall) exprNode() {}

// InterpolatedString holds the raw template text; interpolation is
// applied by the evaluator against the current pattern, not at parse time,
// because the pattern can change at runtime ("runtime pattern switching").
type InterpolatedString struct{ Template string }

func (InterpolatedString) exprNode() {}

type Heredoc struct {
	Content   string
	Delimiter string
}

func (Heredoc) exprNode() {}

// Concatenation is a raw, unparsed `||`-joined text node; the `||`
// evaluator resolves each side as a value expression at evaluation
// time rather than the parser pre-splitting it, so that interpolation and
// value resolution order apply uniformly to both sides.
type Concatenation struct{ Raw string }

func (Concatenation) exprNode() {}

// ArrayAccess is only ever produced by the callback-expression module and
// by internal rewriting (ARRAY_GET is the user-facing spelling);
// the statement/expression parser itself rejects `name[i]` as a syntax
// error and never builds this node from source text.
type ArrayAccess struct {
	Variable Expression
	Index    Expression
}

func (ArrayAccess) exprNode() {}

// --- Conditions ---

type Condition interface {
	condNode()
}

type Comparison struct {
	Left, Right Expression
	Op          string // "=", "<>", "<", "<=", ">", ">="
}

func (Comparison) condNode() {}

// Boolean treats an arbitrary expression's truthiness as the condition
// (e.g. a bare function call used as a WHEN guard).
type Boolean struct{ Expression Expression }

func (Boolean) condNode() {}

type LogicalAnd struct{ Parts []Condition }

func (LogicalAnd) condNode() {}

type LogicalOr struct{ Parts []Condition }

func (LogicalOr) condNode() {}

type LogicalNot struct{ Operand Condition }

func (LogicalNot) condNode() {}

// --- LoopSpec ---

type LoopSpec interface {
	loopSpecNode()
}

type RangeLoop struct {
	Var        string
	Start, End Expression
}

func (RangeLoop) loopSpecNode() {}

type RangeWithStepLoop struct {
	Var              string
	Start, End, Step Expression
}

func (RangeWithStepLoop) loopSpecNode() {}

type WhileLoop struct{ Cond Condition }

func (WhileLoop) loopSpecNode() {}

type UntilLoop struct{ Cond Condition }

func (UntilLoop) loopSpecNode() {}

type RepeatLoop struct{ Count Expression }

func (RepeatLoop) loopSpecNode() {}

type OverLoop struct {
	Var   string
	Array Expression
}

func (OverLoop) loopSpecNode() {}

// Infinite is a bare `DO` with no loop spec at all; this is a hard
// parse-time error. ForeverLoop is the explicit,
// allowed spelling of the same idea.
type Infinite struct{}

func (Infinite) loopSpecNode() {}

type ForeverLoop struct{}

func (ForeverLoop) loopSpecNode() {}

// --- Commands ---

type Assignment struct {
	Base
	Target     string
	Expression Expression
}

type FunctionCallCmd struct {
	Base
	Command string
	Params  map[string]Expression
	Order   []string
}

type Say struct {
	Base
	Expression Expression
}

type If struct {
	Base
	Condition  Condition
	Then, Else []Command
}

type Do struct {
	Base
	Spec LoopSpec
	Body []Command
}

type WhenClause struct {
	Condition Condition
	Body      []Command
}

type Select struct {
	Base
	Whens     []WhenClause
	Otherwise []Command
}

type Call struct {
	Base
	Subroutine     string
	DisplayName    string
	Args           []Expression
	IsVariableCall bool
}

type Return struct {
	Base
	Value Expression // nil if bare RETURN
}

// Signal covers both SIGNAL ON/OFF ERROR [NAME label] and SIGNAL label.
type Signal struct {
	Base
	Action    string // "ON" or "OFF"; empty for the bare-label form
	Condition string // e.g. "ERROR"
	Label     string
}

type Label struct {
	Base
	Name      string
	Statement Command // inline statement on the same line, or nil
}

type Parse struct {
	Base
	Source   string // "ARG", "VAR", "VALUE"
	Input    Expression
	Template []string
}

type Push struct {
	Base
	Expression Expression
}

type Pull struct {
	Base
	Var string
}

type Queue struct {
	Base
	Expression Expression
}

type Address struct {
	Base
	Target string // "" means reset to default
}

type AddressWithString struct {
	Base
	Target  string
	Command Expression
}

type AddressRemote struct {
	Base
	URL    string
	Auth   string
	AsName string
}

type Trace struct {
	Base
	Mode string // "A", "R", "I", "O", "OFF", "NORMAL"
}

type Numeric struct {
	Base
	Setting string // "DIGITS", "FUZZ", "FORM"
	Value   Expression
}

type Exit struct {
	Base
	Code Expression // nil means exit 0
}

type ExitUnless struct {
	Base
	Code          Expression
	ConditionText string
	Condition     Condition
	Message       Expression
}

type Interpret struct {
	Base
	Mode       string // "" or "ISOLATED"
	Expression Expression
	Imports    []string
	Exports    []string
}

type NoInterpret struct{ Base }

type HeredocCmd struct {
	Base
	Content       string
	Delimiter     string
	AddressTarget string // "" if none
}

type QuotedStringCmd struct {
	Base
	Value string
}

type Nop struct{ Base }

// RetryOnStale models the `RETRY_ON_STALE timeout=N [PRESERVE v1,v2] ...
// END_RETRY` block, a Rexx-family extension for idempotent
// retry-on-stale-state blocks.
type RetryOnStale struct {
	Base
	Timeout  Expression
	Preserve []string
	Body     []Command
}
