package syntax

// Expression parsing: recursive descent, pipe lowest, then additive, then
// multiplicative (which also holds ** by deliberate precedence choice),
// then factor. Each level follows the same shape: parse at the next level
// down, then fold while an operator at this level follows.

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/openrexx/rexx/ast"
	"github.com/openrexx/rexx/value"
)

// ExprParser parses a single expression out of a text fragment (an RHS of
// LET/RETURN, a function argument, an array element, ...). It is
// deliberately separate from the statement-level Parser: the statement
// parser hands it already-isolated substrings.
type ExprParser struct {
	toks []exprTok
	pos  int
	err  error
}

type exprTokKind int

const (
	tEOF exprTokKind = iota
	tIdent
	tNumber
	tString
	tOp
	tLParen
	tRParen
	tLBrack
	tRBrack
	tComma
)

type exprTok struct {
	kind exprTokKind
	text string
}

// ParseExpression is the entry point used by the statement parser.
func ParseExpression(src string) (ast.Expression, error) {
	toks, err := lexExpr(src)
	if err != nil {
		return nil, err
	}
	p := &ExprParser{toks: toks}
	e := p.parsePipe()
	if p.err != nil {
		return nil, p.err
	}
	if p.cur().kind != tEOF {
		return nil, fmt.Errorf("unexpected trailing input at %q", p.cur().text)
	}
	return e, nil
}

func (p *ExprParser) cur() exprTok {
	if p.pos >= len(p.toks) {
		return exprTok{kind: tEOF}
	}
	return p.toks[p.pos]
}

func (p *ExprParser) peekOp(ops ...string) bool {
	c := p.cur()
	if c.kind != tOp {
		return false
	}
	for _, op := range ops {
		if c.text == op {
			return true
		}
	}
	return false
}

func (p *ExprParser) advance() exprTok {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *ExprParser) fail(format string, args ...any) {
	if p.err == nil {
		p.err = fmt.Errorf(format, args...)
	}
}

// parsePipe: a |> f(args) [|> g(args) ...]
func (p *ExprParser) parsePipe() ast.Expression {
	left := p.parseAdditive()
	for p.peekOp("|>") {
		p.advance()
		right := p.parseAdditive()
		call, ok := right.(ast.FunctionCall)
		if !ok {
			p.fail("right side of |> must be a function call")
			return left
		}
		left = applyPipe(left, call)
	}
	return left
}

// applyPipe implements the placeholder rule: the piped value becomes
// call's first positional argument, and the existing positional arguments
// shift one place right, unless one position holds the literal
// placeholder "_", in which case it's substituted there and the other
// arguments keep their positions.
func applyPipe(piped ast.Expression, call ast.FunctionCall) ast.Expression {
	for i, name := range call.Order {
		if lit, ok := call.Params[name].(ast.Literal); ok && lit.Value.Kind == value.String && lit.Value.Str == "_" {
			newParams := map[string]ast.Expression{}
			newOrder := make([]string, 0, len(call.Order))
			for k, n := range call.Order {
				if k == i {
					newParams[n] = piped
				} else {
					newParams[n] = call.Params[n]
				}
				newOrder = append(newOrder, n)
			}
			return ast.FunctionCall{Command: call.Command, Params: newParams, Order: newOrder}
		}
	}
	newParams := map[string]ast.Expression{"0": piped}
	newOrder := []string{"0"}
	for i, name := range call.Order {
		newParams[strconv.Itoa(i+1)] = call.Params[name]
		newOrder = append(newOrder, strconv.Itoa(i+1))
	}
	return ast.FunctionCall{Command: call.Command, Params: newParams, Order: newOrder}
}

func (p *ExprParser) parseAdditive() ast.Expression {
	left := p.parseMultiplicative()
	for p.peekOp("+", "-") {
		op := p.advance().text
		right := p.parseMultiplicative()
		left = ast.BinaryOp{Op: op, Left: left, Right: right}
	}
	return left
}

func (p *ExprParser) parseMultiplicative() ast.Expression {
	left := p.parseFactor()
	for p.peekOp("*", "/", "//", "%", "**") {
		op := p.advance().text
		right := p.parseFactor()
		left = ast.BinaryOp{Op: op, Left: left, Right: right}
	}
	return left
}

func (p *ExprParser) parseFactor() ast.Expression {
	c := p.cur()
	switch {
	case c.kind == tLParen:
		p.advance()
		e := p.parsePipe()
		if p.cur().kind != tRParen {
			p.fail("expected ) to close parenthesised expression")
			return e
		}
		p.advance()
		return e
	case c.kind == tOp && (c.text == "-" || c.text == "+"):
		p.advance()
		operand := p.parseFactor()
		if c.text == "-" {
			return ast.BinaryOp{Op: "-", Left: ast.Literal{Value: value.OfInt(0)}, Right: operand}
		}
		return operand
	case c.kind == tString:
		p.advance()
		return stringFactor(c.text)
	case c.kind == tNumber:
		p.advance()
		return numberLiteral(c.text)
	case c.kind == tLBrack:
		return p.parseArrayLiteral()
	case c.kind == tIdent:
		return p.parseIdentOrCall()
	default:
		p.fail("unexpected token %q in expression", c.text)
		p.advance()
		return ast.Literal{Value: value.Nil()}
	}
}

func numberLiteral(text string) ast.Expression {
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return ast.Literal{Value: value.OfInt(n)}
	}
	f, _ := strconv.ParseFloat(text, 64)
	return ast.Literal{Value: value.OfFloat(f)}
}

// stringFactor implements the "quoted-string handling in expressions" rule
// a quoted literal containing `{`, `$`, `%` or `[` becomes an
// InterpolatedString, otherwise a plain string Literal with escapes
// processed.
func stringFactor(raw string) ast.Expression {
	unescaped := processEscapes(raw)
	if strings.ContainsRune(unescaped, '{') || strings.ContainsRune(unescaped, '$') || strings.ContainsRune(unescaped, '%') || strings.ContainsRune(unescaped, '[') {
		return ast.InterpolatedString{Template: unescaped}
	}
	return ast.Literal{Value: value.OfString(unescaped)}
}

func processEscapes(s string) string {
	replacer := strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\r`, "\r", `\\`, `\`)
	return replacer.Replace(s)
}

func (p *ExprParser) parseArrayLiteral() ast.Expression {
	// Try whole-bracket JSON parse first, falling back to per-element
	// expression parsing when that fails.
	start := p.pos
	depth := 0
	var raw strings.Builder
	for {
		c := p.cur()
		if c.kind == tEOF {
			break
		}
		switch c.kind {
		case tLBrack:
			depth++
		case tRBrack:
			depth--
		}
		raw.WriteString(tokenText(c))
		raw.WriteByte(' ')
		p.advance()
		if depth == 0 {
			break
		}
	}
	var asJSON []any
	if json.Unmarshal([]byte(raw.String()), &asJSON) == nil {
		elems := make([]ast.Expression, len(asJSON))
		for i, v := range asJSON {
			elems[i] = jsonToLiteral(v)
		}
		return ast.ArrayLiteral{Elements: elems}
	}

	// Fall back: reparse the bracketed span element-by-element.
	p.pos = start
	p.advance() // consume '['
	var elems []ast.Expression
	for p.cur().kind != tRBrack && p.cur().kind != tEOF {
		elems = append(elems, p.parsePipe())
		if p.cur().kind == tComma {
			p.advance()
		}
	}
	if p.cur().kind == tRBrack {
		p.advance()
	}
	return ast.ArrayLiteral{Elements: elems}
}

func jsonToLiteral(v any) ast.Expression {
	switch x := v.(type) {
	case nil:
		return ast.Literal{Value: value.Nil()}
	case bool:
		return ast.Literal{Value: value.Of(x)}
	case float64:
		return ast.Literal{Value: value.FromNumber(x)}
	case string:
		return ast.Literal{Value: value.OfString(x)}
	case []any:
		elems := make([]ast.Expression, len(x))
		for i, e := range x {
			elems[i] = jsonToLiteral(e)
		}
		return ast.ArrayLiteral{Elements: elems}
	default:
		return ast.Literal{Value: value.Nil()}
	}
}

func tokenText(t exprTok) string {
	switch t.kind {
	case tString:
		return strconv.Quote(t.text)
	default:
		return t.text
	}
}

// parseIdentOrCall handles a bare identifier (variable, possibly dotted),
// a boolean literal, or Name(args) function call with the positional/named
// mixture and arrow-callback pass-through. Array access (name[i]) is a
// hard parse error, pointing callers at ARRAY_GET instead.
func (p *ExprParser) parseIdentOrCall() ast.Expression {
	name := p.advance().text
	switch strings.ToUpper(name) {
	case "TRUE":
		return ast.Literal{Value: value.Of(true)}
	case "FALSE":
		return ast.Literal{Value: value.Of(false)}
	}
	if p.cur().kind == tLBrack {
		p.fail("array access %s[...] is not allowed in expressions; use ARRAY_GET", name)
		// Consume the bracket so the caller doesn't also choke on it.
		depth := 0
		for {
			c := p.cur()
			if c.kind == tEOF {
				break
			}
			if c.kind == tLBrack {
				depth++
			}
			if c.kind == tRBrack {
				depth--
			}
			p.advance()
			if depth == 0 {
				break
			}
		}
		return ast.Variable{Name: name}
	}
	if p.cur().kind != tLParen {
		return ast.Variable{Name: name}
	}
	p.advance() // consume '('
	params := map[string]ast.Expression{}
	var order []string
	posIndex := 0
	for p.cur().kind != tRParen && p.cur().kind != tEOF {
		if arrow, ok := p.tryArrowArg(); ok {
			key := strconv.Itoa(posIndex)
			params[key] = ast.Literal{Value: value.OfString(arrow)}
			order = append(order, key)
			posIndex++
		} else if paramName, ok := p.tryNamedArg(); ok {
			val := p.parsePipe()
			params[paramName] = val
		} else {
			val := p.parsePipe()
			key := strconv.Itoa(posIndex)
			params[key] = val
			order = append(order, key)
			posIndex++
		}
		if p.cur().kind == tComma {
			p.advance()
		}
	}
	if p.cur().kind == tRParen {
		p.advance()
	}
	return ast.FunctionCall{Command: name, Params: params, Order: order}
}

// tryNamedArg recognises "name=" (not "name=>") lookahead: an `=` not
// immediately followed by `>` marks a named argument.
func (p *ExprParser) tryNamedArg() (string, bool) {
	if p.cur().kind != tIdent {
		return "", false
	}
	save := p.pos
	name := p.advance().text
	if p.cur().kind == tOp && p.cur().text == "=" {
		p.advance()
		return name, true
	}
	p.pos = save
	return "", false
}

// tryArrowArg recognises an arrow-function-looking argument "p => body" and
// preserves it verbatim as a string parameter, since callback
// bodies are evaluated by the callback-expression module, not the main
// expression parser.
func (p *ExprParser) tryArrowArg() (string, bool) {
	if p.cur().kind != tIdent {
		return "", false
	}
	save := p.pos
	param := p.advance().text
	if p.cur().kind == tOp && p.cur().text == "=>" {
		p.advance()
		var body strings.Builder
		depth := 0
		for {
			c := p.cur()
			if c.kind == tEOF {
				break
			}
			if c.kind == tLParen {
				depth++
			}
			if c.kind == tRParen {
				if depth == 0 {
					break
				}
				depth--
			}
			if c.kind == tComma && depth == 0 {
				break
			}
			body.WriteString(tokenText(c))
			body.WriteByte(' ')
			p.advance()
		}
		return param + " => " + strings.TrimSpace(body.String()), true
	}
	p.pos = save
	return "", false
}
