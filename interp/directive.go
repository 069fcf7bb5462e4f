package interp

import "github.com/openrexx/rexx/value"

// Control-flow directives a command's execution can return to its caller:
// Terminated ends the whole run, Jump resumes at a label's index,
// SkipCommands skips forward n commands in the current list, and nil means
// "continue to the next command normally". Folding several "what should
// the runner do next" signals into one value avoids using panics for
// control flow.
type directive struct {
	kind directiveKind

	// Terminated
	exitCode value.Value

	// Jump
	jumpTo     int
	jumpResult value.Value

	// SkipCommands
	skipN int

	// Return
	returnValue value.Value
}

type directiveKind int

const (
	dNone directiveKind = iota
	dTerminated
	dJump
	dSkip
	dReturn
)

func terminated(code value.Value) *directive {
	return &directive{kind: dTerminated, exitCode: code}
}

func jumpTo(idx int, result value.Value) *directive {
	return &directive{kind: dJump, jumpTo: idx, jumpResult: result}
}

func skip(n int) *directive {
	return &directive{kind: dSkip, skipN: n}
}

// returned models RETURN: it unwinds through any enclosing
// IF/DO/SELECT bodies until runSubroutine catches it and converts it back
// into a plain value.Value for the CALLer's RESULT variable. A RETURN that
// escapes all the way to Run's top-level loop (i.e. one not inside any
// CALL) behaves like EXIT, per classic Rexx's "RETURN at the top level
// ends the program" rule.
func returned(v value.Value) *directive {
	return &directive{kind: dReturn, returnValue: v}
}

// ExitResult is what Run returns on a clean EXIT.
type ExitResult struct {
	Code value.Value
}

func (r *ExitResult) Error() string { return "exit " + r.Code.String() }
