package interp

// Condition evaluation: shared by IF, WHILE/UNTIL, WHEN and EXIT UNLESS.
// Comparison uses value.Equal/value.Compare's numeric-first rule; Boolean
// treats an arbitrary expression's Truthy() as the verdict.

import (
	"context"

	"github.com/openrexx/rexx/ast"
	"github.com/openrexx/rexx/value"
)

func (it *Interp) evalCondition(ctx context.Context, src ast.Node, cond ast.Condition) (bool, error) {
	switch c := cond.(type) {
	case ast.Comparison:
		left, err := it.resolve(ctx, src, c.Left)
		if err != nil {
			return false, err
		}
		right, err := it.resolve(ctx, src, c.Right)
		if err != nil {
			return false, err
		}
		switch c.Op {
		case "=":
			return value.Equal(left, right), nil
		case "<>", "><":
			return !value.Equal(left, right), nil
		case "<":
			return value.Compare(left, right) < 0, nil
		case "<=":
			return value.Compare(left, right) <= 0, nil
		case ">":
			return value.Compare(left, right) > 0, nil
		case ">=":
			return value.Compare(left, right) >= 0, nil
		default:
			return false, &TypeError{SourceContext: srcCtx(src), Message: "unknown comparison operator " + c.Op}
		}
	case ast.Boolean:
		v, err := it.resolve(ctx, src, c.Expression)
		if err != nil {
			return false, err
		}
		return v.Truthy(), nil
	case ast.LogicalAnd:
		for _, part := range c.Parts {
			ok, err := it.evalCondition(ctx, src, part)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case ast.LogicalOr:
		for _, part := range c.Parts {
			ok, err := it.evalCondition(ctx, src, part)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case ast.LogicalNot:
		ok, err := it.evalCondition(ctx, src, c.Operand)
		if err != nil {
			return false, err
		}
		return !ok, nil
	default:
		return false, nil
	}
}
