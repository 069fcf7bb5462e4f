package interp

// The callback-expression module: evaluates the `param => body` lambda
// strings a FunctionRegistry's ARRAY_FILTER/ARRAY_MAP-style builtins pass
// back in for each element, reusing the same expression evaluator and
// value model as the rest of the script rather than a separate
// mini-interpreter. The core itself never interprets these strings on its
// own initiative — a registry calls EvalCallback once it has decided (via
// its own CallbackMode metadata) that a given argument is a callback
// rather than plain data.

import (
	"context"
	"fmt"
	"strings"

	"github.com/openrexx/rexx/ast"
	"github.com/openrexx/rexx/syntax"
	"github.com/openrexx/rexx/value"
)

// callbackSrc gives EvalCallback's resolve call something to anchor
// SourceContext on, since a callback body has no line in the original
// script.
type callbackSrc struct{ text string }

func (callbackSrc) Pos() int       { return 0 }
func (c callbackSrc) Text() string { return c.text }
func (callbackSrc) commandNode()   {}

var _ ast.Command = callbackSrc{}

// EvalCallback evaluates a `param => expr` string against a single
// argument binding. The parameter name in the callback text is bound to
// whichever value args holds (args[param] if present, otherwise the
// lone entry when there's exactly one, which covers both the Rexx-style
// single-value convention and a JS-style {item, index} pair where the
// registry already knows which key the callback's parameter refers to).
func (it *Interp) EvalCallback(ctx context.Context, callback string, args map[string]value.Value) (value.Value, error) {
	param, body, ok := splitArrow(callback)
	if !ok {
		return value.Value{}, fmt.Errorf("not an arrow callback: %q", callback)
	}
	expr, err := syntax.ParseExpression(body)
	if err != nil {
		return value.Value{}, fmt.Errorf("callback body: %w", err)
	}

	argVal, ok := args[param]
	if !ok && len(args) == 1 {
		for _, v := range args {
			argVal = v
			break
		}
	}

	key := strings.ToUpper(param)
	old, existed := it.Vars[key]
	it.Vars[key] = argVal
	result, err := it.resolve(ctx, callbackSrc{text: callback}, expr)
	if existed {
		it.Vars[key] = old
	} else {
		delete(it.Vars, key)
	}
	return result, err
}

func splitArrow(callback string) (param, body string, ok bool) {
	idx := strings.Index(callback, "=>")
	if idx < 0 {
		return "", "", false
	}
	param = strings.TrimSpace(callback[:idx])
	body = strings.TrimSpace(callback[idx+2:])
	if param == "" || body == "" {
		return "", "", false
	}
	return param, body, true
}
