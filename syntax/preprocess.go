// Package syntax implements the source preprocessor, tokenizer, statement
// parser and expression parser for the language. Recursive descent throughout:
// the statement tokenizer scans line by line, the expression lexer scans
// rune by rune, and a Parser holds the token slice and a cursor.
package syntax

import "strings"

// Preprocess normalises line endings, strips comments without descending
// into string literals, and merges pipe-continuation lines (a line whose
// next non-empty line starts with "|>").
func Preprocess(src string) string {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	lines := strings.Split(src, "\n")
	stripped := make([]string, len(lines))
	inBlockComment := false
	for i, line := range lines {
		stripped[i], inBlockComment = stripLineComments(line, inBlockComment)
	}
	return mergeContinuations(stripped)
}

// stripLineComments removes /* ... */, // ... and -- ... comments from a
// single line, passing quoted spans through verbatim. inBlock carries
// whether the line begins already inside a /* */ block comment; it
// returns the updated state for the next line.
func stripLineComments(line string, inBlock bool) (string, bool) {
	var out strings.Builder
	runes := []rune(line)
	i := 0
	for i < len(runes) {
		if inBlock {
			if i+1 < len(runes) && runes[i] == '*' && runes[i+1] == '/' {
				inBlock = false
				i += 2
				continue
			}
			i++
			continue
		}
		c := runes[i]
		if c == '"' || c == '\'' {
			quote := c
			out.WriteRune(c)
			i++
			for i < len(runes) {
				out.WriteRune(runes[i])
				if runes[i] == '\\' && i+1 < len(runes) {
					i++
					out.WriteRune(runes[i])
					i++
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
		if c == '/' && i+1 < len(runes) && runes[i+1] == '*' {
			inBlock = true
			i += 2
			continue
		}
		if c == '/' && i+1 < len(runes) && runes[i+1] == '/' {
			break
		}
		if c == '-' && i+1 < len(runes) && runes[i+1] == '-' {
			break
		}
		out.WriteRune(c)
		i++
	}
	return strings.TrimRight(out.String(), " \t"), inBlock
}

// mergeContinuations joins a line with the following one(s) when the next
// non-empty line begins with the pipe-continuation token "|>".
func mergeContinuations(lines []string) string {
	var out []string
	i := 0
	for i < len(lines) {
		cur := lines[i]
		j := i + 1
		for j < len(lines) {
			trimmed := strings.TrimSpace(lines[j])
			if trimmed == "" {
				// Blank lines are skipped when a pipe-continued line
				// follows them; they are absorbed along with it (and kept
				// as empty placeholder lines below).
				k := j + 1
				for k < len(lines) && strings.TrimSpace(lines[k]) == "" {
					k++
				}
				if k < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[k]), "|>") {
					j = k
					continue
				}
				break
			}
			if strings.HasPrefix(trimmed, "|>") {
				cur = strings.TrimRight(cur, " \t") + " " + trimmed
				j++
				continue
			}
			break
		}
		out = append(out, cur)
		for k := i + 1; k < j; k++ {
			out = append(out, "")
		}
		i = j
	}
	return strings.Join(out, "\n")
}
