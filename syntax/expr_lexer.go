package syntax

import (
	"fmt"
	"strings"
)

// lexExpr tokenizes a single expression fragment for ExprParser. It is
// intentionally much smaller than the statement tokenizer in lexer.go:
// expressions never span heredocs or multiple logical lines.
func lexExpr(src string) ([]exprTok, error) {
	runes := []rune(src)
	var toks []exprTok
	i := 0
	for i < len(runes) {
		c := runes[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '"' || c == '\'':
			quote := c
			j := i + 1
			var sb strings.Builder
			for j < len(runes) && runes[j] != quote {
				if runes[j] == '\\' && j+1 < len(runes) {
					sb.WriteRune(runes[j])
					sb.WriteRune(runes[j+1])
					j += 2
					continue
				}
				sb.WriteRune(runes[j])
				j++
			}
			if j >= len(runes) {
				return nil, fmt.Errorf("unterminated string literal in expression %q", src)
			}
			toks = append(toks, exprTok{kind: tString, text: sb.String()})
			i = j + 1
		case c >= '0' && c <= '9':
			j := i
			for j < len(runes) && (runes[j] >= '0' && runes[j] <= '9' || runes[j] == '.') {
				j++
			}
			toks = append(toks, exprTok{kind: tNumber, text: string(runes[i:j])})
			i = j
		case isIdentStart(c):
			j := i
			for j < len(runes) && isIdentPart(runes[j]) {
				j++
			}
			toks = append(toks, exprTok{kind: tIdent, text: string(runes[i:j])})
			i = j
		case c == '(':
			toks = append(toks, exprTok{kind: tLParen, text: "("})
			i++
		case c == ')':
			toks = append(toks, exprTok{kind: tRParen, text: ")"})
			i++
		case c == '[':
			toks = append(toks, exprTok{kind: tLBrack, text: "["})
			i++
		case c == ']':
			toks = append(toks, exprTok{kind: tRBrack, text: "]"})
			i++
		case c == ',':
			toks = append(toks, exprTok{kind: tComma, text: ","})
			i++
		default:
			op, n := lexOperator(runes[i:])
			if n == 0 {
				return nil, fmt.Errorf("unexpected character %q in expression %q", c, src)
			}
			toks = append(toks, exprTok{kind: tOp, text: op})
			i += n
		}
	}
	return toks, nil
}

// multiCharOps is ordered longest-first so the scanner greedily matches
// "//" before "/", "**" before "*", etc.
var multiCharOps = []string{"|>", "//", "**", "=>", "<>", "><", "<=", ">=", "||"}

func lexOperator(rest []rune) (string, int) {
	for _, op := range multiCharOps {
		if len(rest) >= len(op) && string(rest[:len(op)]) == op {
			return op, len(op)
		}
	}
	switch rest[0] {
	case '+', '-', '*', '/', '%', '=', '<', '>':
		return string(rest[0]), 1
	}
	return "", 0
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9') || r == '.'
}
