// Package interpolate implements a runtime-switchable interpolation
// engine: a template string with variable references delimited by a
// configurable pattern, resolved against a variable lookup function that
// understands dotted paths.
//
// One pattern table plus a single engine function drives every delimiter
// style, the "rules" being the delimiter pair rather than a set of
// quoting/globbing modes.
package interpolate

import "strings"

// Pattern describes one interpolation delimiter scheme. Open/Close mark
// the start/end of a variable reference; Balanced means nested
// occurrences of Open must be balanced before the reference ends (needed
// for the "rexx" pattern's single-brace form, where a naive first-Close
// search would stop too early on nested braces).
type Pattern struct {
	Name     string
	Open     string
	Close    string
	Balanced bool
}

// Named patterns: handlebars is the default.
var (
	HandlebarsPattern   = Pattern{Name: "handlebars", Open: "{{", Close: "}}"}
	RexxPattern         = Pattern{Name: "rexx", Open: "{", Close: "}", Balanced: true}
	ShellPattern        = Pattern{Name: "shell", Open: "${", Close: "}"}
	BatchPattern        = Pattern{Name: "batch", Open: "%", Close: "%"}
	DoubleDollarPattern = Pattern{Name: "doubledollar", Open: "$$", Close: "$$"}
	BracketsPattern     = Pattern{Name: "brackets", Open: "[", Close: "]"}
)

// Named looks up one of the built-in patterns by name for runtime
// pattern-switching configuration; ok is false for an unknown name.
func Named(name string) (Pattern, bool) {
	switch strings.ToLower(name) {
	case "handlebars":
		return HandlebarsPattern, true
	case "rexx":
		return RexxPattern, true
	case "shell":
		return ShellPattern, true
	case "batch":
		return BatchPattern, true
	case "doubledollar":
		return DoubleDollarPattern, true
	case "brackets":
		return BracketsPattern, true
	default:
		return Pattern{}, false
	}
}

// Custom builds a Pattern from an example string like "<<v>>", splitting
// it on the placeholder letter "v" to recover the open/close delimiters.
func Custom(example string) (Pattern, bool) {
	i := strings.IndexByte(example, 'v')
	if i < 0 {
		return Pattern{}, false
	}
	j := i + 1
	for j < len(example) && example[j] == 'v' {
		j++
	}
	open, close := example[:i], example[j:]
	if open == "" && close == "" {
		return Pattern{}, false
	}
	return Pattern{Name: "custom:" + example, Open: open, Close: close}, true
}

// Lookup resolves a dotted variable path ("a.b.c") against a root
// variable map, walking Array/Object values by segment. It returns the
// textual form of whatever it finds, and false if the path doesn't
// resolve to anything — callers use that to implement identity on a
// missing variable.
type Lookup func(path string) (string, bool)

// Interpolate substitutes every pattern-delimited reference in template
// with the result of calling lookup on the enclosed path. A reference that
// lookup can't resolve, or a delimiter with no matching close, is left
// verbatim in the output.
func Interpolate(template string, p Pattern, lookup Lookup) string {
	if p.Open == "" {
		return template
	}
	var out strings.Builder
	i := 0
	for i < len(template) {
		start := strings.Index(template[i:], p.Open)
		if start < 0 {
			out.WriteString(template[i:])
			break
		}
		start += i
		out.WriteString(template[i:start])
		exprStart := start + len(p.Open)
		end, ok := findClose(template, exprStart, p)
		if !ok {
			out.WriteString(template[start:])
			break
		}
		path := strings.TrimSpace(template[exprStart:end])
		if resolved, ok := lookup(path); ok {
			out.WriteString(resolved)
		} else {
			out.WriteString(template[start : end+len(p.Close)])
		}
		i = end + len(p.Close)
	}
	return out.String()
}

// findClose locates the matching Close for a reference that starts at
// exprStart, balancing nested Opens when p.Balanced is set (the "rexx"
// single-brace pattern needs this so "{a.{b}}"-style nesting, if it ever
// occurs in generated templates, doesn't close on the first inner brace).
func findClose(s string, exprStart int, p Pattern) (int, bool) {
	if !p.Balanced || p.Open == p.Close {
		idx := strings.Index(s[exprStart:], p.Close)
		if idx < 0 {
			return 0, false
		}
		return exprStart + idx, true
	}
	depth := 1
	i := exprStart
	for i < len(s) {
		switch {
		case strings.HasPrefix(s[i:], p.Open):
			depth++
			i += len(p.Open)
		case strings.HasPrefix(s[i:], p.Close):
			depth--
			if depth == 0 {
				return i, true
			}
			i += len(p.Close)
		default:
			i++
		}
	}
	return 0, false
}
