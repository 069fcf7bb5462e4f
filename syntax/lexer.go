package syntax

import (
	"fmt"
	"strings"
)

// TokenKind distinguishes the two token kinds produced by the tokenizer.
type TokenKind int

const (
	LineToken TokenKind = iota
	HeredocToken
)

// Token is one lexical unit: either a trimmed logical source line, or the
// literal content of a heredoc block. Line carries the 1-based source line
// the token starts at.
type Token struct {
	Kind      TokenKind
	Content   string
	Delimiter string // HeredocToken only
	Line      int
}

// UnterminatedHeredocError is raised when end-of-input is reached before a
// heredoc's terminator line.
type UnterminatedHeredocError struct {
	Delimiter string
	StartLine int
}

func (e *UnterminatedHeredocError) Error() string {
	return fmt.Sprintf("line %d: unterminated heredoc <<%s", e.StartLine, e.Delimiter)
}

// Tokenize scans preprocessed source into Line and Heredoc tokens. It is a
// line-oriented scan, not a rune-at-a-time one, because the statement
// grammar is itself line-oriented; only the heredoc-start search below
// needs to look inside a line for the "<<NAME" marker outside of quotes.
func Tokenize(src string) ([]Token, error) {
	lines := strings.Split(src, "\n")
	var toks []Token
	for i := 0; i < len(lines); i++ {
		lineNo := i + 1
		raw := lines[i]
		trimmed := strings.TrimSpace(raw)

		if idx, name, ok := findHeredocStart(raw); ok {
			head := strings.TrimSpace(raw[:idx])
			toks = append(toks, Token{Kind: LineToken, Content: head, Line: lineNo})

			var content []string
			start := lineNo
			i++
			found := false
			for i < len(lines) {
				if strings.TrimSpace(lines[i]) == name {
					found = true
					break
				}
				content = append(content, lines[i])
				i++
			}
			if !found {
				return nil, &UnterminatedHeredocError{Delimiter: name, StartLine: start}
			}
			toks = append(toks, Token{
				Kind:      HeredocToken,
				Content:   strings.Join(content, "\n"),
				Delimiter: name,
				Line:      start,
			})
			// Anything after the terminator on its own line becomes an
			// additional Line token.
			after := strings.TrimSpace(strings.TrimPrefix(lines[i], name))
			if after != "" {
				toks = append(toks, Token{Kind: LineToken, Content: after, Line: i + 1})
			}
			continue
		}

		if trimmed != "" {
			toks = append(toks, Token{Kind: LineToken, Content: trimmed, Line: lineNo})
		} else {
			toks = append(toks, Token{Kind: LineToken, Content: "", Line: lineNo})
		}
	}
	return toks, nil
}

// findHeredocStart scans line for a "<<NAME" marker outside of string
// literals, returning the index right after the marker and the delimiter
// name.
func findHeredocStart(line string) (end int, name string, ok bool) {
	runes := []rune(line)
	i := 0
	for i < len(runes) {
		c := runes[i]
		if c == '"' || c == '\'' {
			quote := c
			i++
			for i < len(runes) {
				if runes[i] == '\\' && i+1 < len(runes) {
					i += 2
					continue
				}
				if runes[i] == quote {
					i++
					break
				}
				i++
			}
			continue
		}
		if c == '<' && i+1 < len(runes) && runes[i+1] == '<' {
			j := i + 2
			start := j
			for j < len(runes) && isNameRune(runes[j]) {
				j++
			}
			if j > start {
				return j, string(runes[start:j]), true
			}
		}
		i++
	}
	return 0, "", false
}

func isNameRune(r rune) bool {
	return r == '_' || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}
