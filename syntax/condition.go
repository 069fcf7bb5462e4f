package syntax

// Condition parsing: shared by IF, WHILE, UNTIL, WHEN and EXIT UNLESS.
// Grammar, loosest to tightest: OR, AND, NOT, primary. A
// primary is either a parenthesised condition, a comparison
// (expr op expr), or a bare expression whose truthiness is tested.
//
// AND/OR/NOT are ordinary words here, not symbols: condParser recognises
// them as tIdent tokens from the same lexExpr used by ExprParser, rather
// than teaching the expression lexer a second operator syntax.

import (
	"fmt"

	"github.com/openrexx/rexx/ast"
)

// ParseCondition parses one condition expression.
func ParseCondition(src string) (ast.Condition, error) {
	toks, err := lexExpr(src)
	if err != nil {
		return nil, err
	}
	cp := &condParser{toks: toks}
	c := cp.parseOr()
	if cp.err != nil {
		return nil, cp.err
	}
	if cp.cur().kind != tEOF {
		return nil, fmt.Errorf("unexpected trailing input in condition at %q", cp.cur().text)
	}
	return c, nil
}

type condParser struct {
	toks []exprTok
	pos  int
	err  error
}

func (p *condParser) cur() exprTok {
	if p.pos >= len(p.toks) {
		return exprTok{kind: tEOF}
	}
	return p.toks[p.pos]
}

func (p *condParser) advance() exprTok {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *condParser) fail(format string, args ...any) {
	if p.err == nil {
		p.err = fmt.Errorf(format, args...)
	}
}

func (p *condParser) isWord(w string) bool {
	c := p.cur()
	return c.kind == tIdent && equalFold(c.text, w)
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if ca >= 'a' && ca <= 'z' {
			ca -= 32
		}
		if cb >= 'a' && cb <= 'z' {
			cb -= 32
		}
		if ca != cb {
			return false
		}
	}
	return true
}

func (p *condParser) parseOr() ast.Condition {
	parts := []ast.Condition{p.parseAnd()}
	for p.isWord("OR") {
		p.advance()
		parts = append(parts, p.parseAnd())
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return ast.LogicalOr{Parts: parts}
}

func (p *condParser) parseAnd() ast.Condition {
	parts := []ast.Condition{p.parseNot()}
	for p.isWord("AND") {
		p.advance()
		parts = append(parts, p.parseNot())
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return ast.LogicalAnd{Parts: parts}
}

func (p *condParser) parseNot() ast.Condition {
	if p.isWord("NOT") {
		p.advance()
		return ast.LogicalNot{Operand: p.parseNot()}
	}
	return p.parsePrimary()
}

func (p *condParser) parsePrimary() ast.Condition {
	if p.cur().kind == tLParen {
		// Ambiguous with a parenthesised arithmetic expression. When the
		// span holds AND/OR/NOT or a comparison operator, try a nested
		// condition first (the common case for IF/WHILE); otherwise, or
		// if that fails to consume the whole span, treat the
		// parenthesised span as an ordinary expression.
		save := p.pos
		p.advance()
		depth := 1
		start := p.pos
		for depth > 0 {
			c := p.cur()
			if c.kind == tEOF {
				p.fail("unterminated ( in condition")
				return ast.Boolean{}
			}
			if c.kind == tLParen {
				depth++
			}
			if c.kind == tRParen {
				depth--
			}
			if depth > 0 {
				p.advance()
			}
		}
		inner := p.toks[start:p.pos]
		afterParen := p.pos + 1
		nested := containsLogicalWord(inner)
		for _, t := range inner {
			for _, op := range comparisonOps {
				if t.kind == tOp && t.text == op {
					nested = true
				}
			}
		}
		if nested {
			p.advance() // consume ')'
			sub := &condParser{toks: inner}
			cond := sub.parseOr()
			if sub.err == nil && sub.cur().kind == tEOF {
				return cond
			}
			p.pos = afterParen
		}
		p.pos = save
	}
	return p.parseComparisonOrBoolean()
}

func containsLogicalWord(toks []exprTok) bool {
	for _, t := range toks {
		if t.kind == tIdent && (equalFold(t.text, "AND") || equalFold(t.text, "OR") || equalFold(t.text, "NOT")) {
			return true
		}
	}
	return false
}

var comparisonOps = []string{"<>", "><", "<=", ">=", "=", "<", ">"}

func (p *condParser) parseComparisonOrBoolean() ast.Condition {
	left := p.parseExprForCondition()
	if p.cur().kind == tOp {
		for _, op := range comparisonOps {
			if p.cur().text == op {
				p.advance()
				right := p.parseExprForCondition()
				return ast.Comparison{Left: left, Right: right, Op: op}
			}
		}
	}
	return ast.Boolean{Expression: left}
}

// parseExprForCondition parses one arithmetic/pipe expression, stopping
// naturally before a comparison operator or AND/OR/NOT word since those
// aren't part of ExprParser's own operator set.
func (p *condParser) parseExprForCondition() ast.Expression {
	ep := &ExprParser{toks: p.toks, pos: p.pos}
	e := ep.parsePipe()
	p.pos = ep.pos
	if ep.err != nil {
		p.fail(ep.err.Error())
	}
	return e
}
