package interp

// Expression resolution: turns an ast.Expression into a
// value.Value. Most of the value resolution order is
// already applied at parse time by the expression parser (a quoted
// literal becomes ast.Literal or ast.InterpolatedString, a bare number
// becomes ast.Literal, a bare identifier becomes ast.Variable, and so on);
// what's left for the evaluator is dotted-path variable walking, heredoc
// JSON decoding, interpolation, arithmetic, and concatenation's raw-text
// splitting, which still needs the order applied piece by piece.

import (
	"context"
	"strconv"
	"strings"

	"github.com/openrexx/rexx/ast"
	"github.com/openrexx/rexx/interpolate"
	"github.com/openrexx/rexx/syntax"
	"github.com/openrexx/rexx/value"
)

func (it *Interp) resolve(ctx context.Context, src ast.Node, expr ast.Expression) (value.Value, error) {
	switch e := expr.(type) {
	case nil:
		return value.Nil(), nil
	case ast.Literal:
		return e.Value, nil
	case ast.Variable:
		return it.resolveVariable(e.Name), nil
	case ast.ArrayLiteral:
		elems := make([]value.Value, len(e.Elements))
		for i, el := range e.Elements {
			v, err := it.resolve(ctx, src, el)
			if err != nil {
				return value.Value{}, err
			}
			elems[i] = v
		}
		return value.OfArray(elems), nil
	case ast.BinaryOp:
		return it.evalBinaryOp(ctx, src, e)
	case ast.PipeOp:
		// Defensive: the parser always folds |> into a FunctionCall via
		// applyPipe, but resolve it the same way if one is ever built by
		// hand (e.g. the callback-expression module).
		left, err := it.resolve(ctx, src, e.Left)
		if err != nil {
			return value.Value{}, err
		}
		call, ok := e.Right.(ast.FunctionCall)
		if !ok {
			return value.Value{}, &TypeError{SourceContext: srcCtx(src), Message: "right side of |> must be a function call"}
		}
		params := map[string]value.Value{"0": left}
		order := []string{"0"}
		for i, name := range call.Order {
			v, err := it.resolve(ctx, src, call.Params[name])
			if err != nil {
				return value.Value{}, err
			}
			key := strconv.Itoa(i + 1)
			params[key] = v
			order = append(order, key)
		}
		return it.dispatch(ctx, src, call.Command, params, order)
	case ast.FunctionCall:
		params := make(map[string]value.Value, len(e.Params))
		for name, pe := range e.Params {
			v, err := it.resolve(ctx, src, pe)
			if err != nil {
				return value.Value{}, err
			}
			params[name] = v
		}
		return it.dispatch(ctx, src, e.Command, params, e.Order)
	case ast.InterpolatedString:
		return value.OfString(it.interpolateString(e.Template)), nil
	case ast.Heredoc:
		return value.OfHeredoc(e.Content, e.Delimiter).Decode()
	case ast.Concatenation:
		return it.resolveConcatenation(ctx, src, e.Raw)
	case ast.ArrayAccess:
		return it.resolveArrayAccess(ctx, src, e)
	default:
		return value.Nil(), nil
	}
}

// resolveVariable resolves a dotted path: its root is looked up as a
// variable, then each remaining segment walks into Array (numeric index)
// or Object (string key). An unset variable resolves to Null, the richer
// value model's analogue of reading an unset variable as an empty string.
func (it *Interp) resolveVariable(name string) value.Value {
	segments := strings.Split(name, ".")
	root, ok := it.Vars[strings.ToUpper(segments[0])]
	if !ok {
		root, ok = it.Vars[segments[0]]
	}
	if !ok {
		return value.Nil()
	}
	cur := root
	for _, seg := range segments[1:] {
		switch cur.Kind {
		case value.Array:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(cur.Arr) {
				return value.Nil()
			}
			cur = cur.Arr[idx]
		case value.Object:
			v, ok := cur.Obj[seg]
			if !ok {
				return value.Nil()
			}
			cur = v
		default:
			return value.Nil()
		}
	}
	return cur
}

func (it *Interp) setVariable(name string, v value.Value) {
	it.Vars[strings.ToUpper(name)] = v
}

// snapshotVars copies the current variable table for attaching to an
// error, so the copy outlives whatever the interpreter does next.
func (it *Interp) snapshotVars() map[string]value.Value {
	snap := make(map[string]value.Value, len(it.Vars))
	for k, v := range it.Vars {
		snap[k] = v
	}
	return snap
}

func (it *Interp) resolveArrayAccess(ctx context.Context, src ast.Node, e ast.ArrayAccess) (value.Value, error) {
	base, err := it.resolve(ctx, src, e.Variable)
	if err != nil {
		return value.Value{}, err
	}
	idx, err := it.resolve(ctx, src, e.Index)
	if err != nil {
		return value.Value{}, err
	}
	switch base.Kind {
	case value.Array:
		n, err := idx.Number()
		if err != nil {
			return value.Value{}, &TypeError{SourceContext: srcCtx(src), Message: "array index must be numeric"}
		}
		i := int(n)
		if i < 0 || i >= len(base.Arr) {
			return value.Nil(), nil
		}
		return base.Arr[i], nil
	case value.Object:
		v, ok := base.Obj[idx.String()]
		if !ok {
			return value.Nil(), nil
		}
		return v, nil
	default:
		return value.Value{}, &TypeError{SourceContext: srcCtx(src), Message: "cannot index a " + base.Kind.String()}
	}
}

// resolveConcatenation implements the `||` operator: split on
// top-level `||`, apply the full value-resolution order to each side by
// reparsing it as an expression, then join the textual forms.
func (it *Interp) resolveConcatenation(ctx context.Context, src ast.Node, raw string) (value.Value, error) {
	parts := splitTopLevelConcat(raw)
	var sb strings.Builder
	for _, p := range parts {
		expr, err := syntax.ParseExpression(strings.TrimSpace(p))
		if err != nil {
			sb.WriteString(strings.TrimSpace(p))
			continue
		}
		v, err := it.resolve(ctx, src, expr)
		if err != nil {
			return value.Value{}, err
		}
		sb.WriteString(v.String())
	}
	return value.OfString(sb.String()), nil
}

func splitTopLevelConcat(s string) []string {
	var parts []string
	depth := 0
	inStr := byte(0)
	last := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inStr != 0 {
			if c == '\\' {
				i++
				continue
			}
			if c == inStr {
				inStr = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			inStr = c
		case '(':
			depth++
		case ')':
			depth--
		case '|':
			if depth == 0 && i+1 < len(s) && s[i+1] == '|' {
				parts = append(parts, s[last:i])
				i++
				last = i + 1
			}
		}
	}
	parts = append(parts, s[last:])
	return parts
}

// interpolateString applies the currently configured interpolation
// pattern to a template, resolving dotted-path lookups against the
// variable store.
func (it *Interp) interpolateString(template string) string {
	return interpolate.Interpolate(template, it.interpolation, func(path string) (string, bool) {
		v := it.resolveVariable(path)
		if v.Kind == value.Null {
			return "", false
		}
		return v.String(), true
	})
}

func srcCtx(n ast.Node) SourceContext {
	if c, ok := n.(ast.Command); ok {
		return SourceContext{Line: c.Pos(), OriginalLine: c.Text()}
	}
	return SourceContext{Line: n.Pos()}
}
