package interp

// PARSE: splits a source text into whitespace-separated words bound
// to the template variables in order, with the final variable receiving
// whatever text remains (including its interior whitespace) rather than
// just its own next word — the classic Rexx "trailing var soaks up the
// rest" rule.

import (
	"context"
	"strings"

	"github.com/openrexx/rexx/ast"
	"github.com/openrexx/rexx/value"
)

func (it *Interp) execParse(ctx context.Context, c ast.Parse) error {
	var text string
	switch strings.ToUpper(c.Source) {
	case "ARG":
		text = it.currentArgText()
	case "VAR":
		v, err := it.resolve(ctx, c, c.Input)
		if err != nil {
			return err
		}
		text = v.String()
	case "VALUE":
		v, err := it.resolve(ctx, c, c.Input)
		if err != nil {
			return err
		}
		text = v.String()
	default:
		return &TypeError{SourceContext: srcCtx(c), Message: "unknown PARSE source " + c.Source}
	}

	words := splitParseWords(text, len(c.Template))
	for i, name := range c.Template {
		it.setVariable(name, value.OfString(words[i]))
	}
	return nil
}

// currentArgText joins the innermost CALL frame's arguments with single
// spaces, the text PARSE ARG splits back apart.
func (it *Interp) currentArgText() string {
	if len(it.argSlots) == 0 {
		return ""
	}
	args := it.argSlots[len(it.argSlots)-1]
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return strings.Join(parts, " ")
}

func splitParseWords(text string, n int) []string {
	if n == 0 {
		return nil
	}
	parts := make([]string, n)
	rest := text
	for i := 0; i < n-1; i++ {
		rest = strings.TrimLeft(rest, " \t")
		idx := strings.IndexAny(rest, " \t")
		if idx < 0 {
			parts[i] = rest
			rest = ""
			continue
		}
		parts[i] = rest[:idx]
		rest = rest[idx:]
	}
	parts[n-1] = strings.TrimSpace(rest)
	return parts
}
