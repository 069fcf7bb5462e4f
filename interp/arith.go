package interp

// Arithmetic: +, -, *, / (true division), // (integer
// division), % (modulo), ** (power). Both operands are coerced to float64
// via value.Value.Number; a non-numeric operand is a hard TypeError rather
// than the classic Rexx "treat as zero" leniency, keeping arithmetic
// errors loud instead of coercing silently.

import (
	"context"
	"math"

	"github.com/openrexx/rexx/ast"
	"github.com/openrexx/rexx/value"
)

func (it *Interp) evalBinaryOp(ctx context.Context, src ast.Node, e ast.BinaryOp) (value.Value, error) {
	left, err := it.resolve(ctx, src, e.Left)
	if err != nil {
		return value.Value{}, err
	}
	right, err := it.resolve(ctx, src, e.Right)
	if err != nil {
		return value.Value{}, err
	}
	ln, err := left.Number()
	if err != nil {
		return value.Value{}, &TypeError{SourceContext: srcCtx(src), Message: "left operand of " + e.Op + " is not numeric: " + left.String()}
	}
	rn, err := right.Number()
	if err != nil {
		return value.Value{}, &TypeError{SourceContext: srcCtx(src), Message: "right operand of " + e.Op + " is not numeric: " + right.String()}
	}
	switch e.Op {
	case "+":
		return value.FromNumber(ln + rn), nil
	case "-":
		return value.FromNumber(ln - rn), nil
	case "*":
		return value.FromNumber(ln * rn), nil
	case "/":
		if rn == 0 {
			return value.Value{}, &ArithmeticError{SourceContext: srcCtx(src), Op: "/"}
		}
		return value.FromNumber(ln / rn), nil
	case "//":
		if rn == 0 {
			return value.Value{}, &ArithmeticError{SourceContext: srcCtx(src), Op: "//"}
		}
		return value.OfInt(int64(math.Trunc(ln / rn))), nil
	case "%":
		if rn == 0 {
			return value.Value{}, &ArithmeticError{SourceContext: srcCtx(src), Op: "%"}
		}
		return value.FromNumber(math.Mod(ln, rn)), nil
	case "**":
		return value.FromNumber(math.Pow(ln, rn)), nil
	default:
		return value.Value{}, &TypeError{SourceContext: srcCtx(src), Message: "unknown operator " + e.Op}
	}
}
