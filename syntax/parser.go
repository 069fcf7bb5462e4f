package syntax

// The statement parser: drives over the Token stream produced by Tokenize
// and, for each Line, matches one of the statement forms in priority
// order. Nested forms (IF/DO/SELECT) recurse into parseBlock, which
// collects commands until it sees a line whose leading keyword is one of
// the caller-supplied terminators (END/ENDIF/ELSE/WHEN/OTHERWISE/
// END_RETRY) — a "parse until a terminator keyword" loop, the same shape
// a here-doc or case-item body needs.

import (
	"fmt"
	"strings"

	"github.com/openrexx/rexx/ast"
)

// SyntaxError is the error kind for tokenization/parse failures.
type SyntaxError struct {
	Line    int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Parser holds the token stream and cursor used while building the
// command tree.
type Parser struct {
	toks []Token
	pos  int
}

// Parse implements the full pipeline: Preprocess -> Tokenize -> statement
// parse, returning the top-level command list.
func Parse(src string) ([]ast.Command, error) {
	pre := Preprocess(src)
	toks, err := Tokenize(pre)
	if err != nil {
		return nil, err
	}
	p := &Parser{toks: toks}
	cmds, err := p.parseBlock(nil)
	if err != nil {
		return nil, err
	}
	return cmds, nil
}

func (p *Parser) cur() (Token, bool) {
	if p.pos >= len(p.toks) {
		return Token{}, false
	}
	return p.toks[p.pos], true
}

func (p *Parser) advance() (Token, bool) {
	t, ok := p.cur()
	if ok {
		p.pos++
	}
	return t, ok
}

// leadingKeyword returns the upper-cased first word of a trimmed line and
// the remainder, used both to dispatch statement forms and to recognise
// block terminators.
func leadingKeyword(line string) (kw, rest string) {
	line = strings.TrimSpace(line)
	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return strings.ToUpper(line), ""
	}
	return strings.ToUpper(line[:i]), strings.TrimSpace(line[i+1:])
}

// parseBlock parses statements until EOF or a line whose leading keyword
// is in terminators (which is left unconsumed so the caller can inspect
// it). terminators == nil means "parse to EOF" (top level).
func (p *Parser) parseBlock(terminators []string) ([]ast.Command, error) {
	var cmds []ast.Command
	for {
		t, ok := p.cur()
		if !ok {
			return cmds, nil
		}
		if t.Kind == LineToken {
			kw, _ := leadingKeyword(t.Content)
			if terminators != nil && containsFold(terminators, kw) {
				return cmds, nil
			}
			if strings.TrimSpace(t.Content) == "" {
				p.advance()
				continue
			}
		}
		cmd, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
}

func containsFold(list []string, s string) bool {
	for _, l := range list {
		if strings.EqualFold(l, s) {
			return true
		}
	}
	return false
}

// parseStatement recognises one statement form, in priority order, from
// the token at the cursor, consuming whatever tokens it needs (possibly
// including a following Heredoc token).
func (p *Parser) parseStatement() (ast.Command, error) {
	tok, ok := p.advance()
	if !ok {
		return nil, nil
	}
	if tok.Kind == HeredocToken {
		// A heredoc reached without a preceding routing Line is a bare
		// heredoc statement, addressed to the current
		// ADDRESS target at evaluation time.
		return &ast.HeredocCmd{Base: ast.NewBase(tok.Line, tok.Content), Content: tok.Content, Delimiter: tok.Delimiter}, nil
	}

	line := tok.Content
	lineNo := tok.Line
	if strings.TrimSpace(line) == "" {
		return &ast.Nop{Base: ast.NewBase(lineNo, line)}, nil
	}

	// 1. LABEL: [inline statement]
	if cmd, ok, err := p.tryLabel(line, lineNo); ok || err != nil {
		return cmd, err
	}

	kw, rest := leadingKeyword(line)

	switch kw {
	case "ADDRESS":
		return p.parseAddress(rest, lineNo, line)
	case "NUMERIC":
		return p.parseNumeric(rest, lineNo, line)
	case "ARG":
		return p.parseParseForm("ARG", rest, lineNo, line)
	case "PARSE":
		return p.parseParseKeyword(rest, lineNo, line)
	case "PUSH":
		return p.parsePush(rest, lineNo, line)
	case "PULL":
		return p.parsePull(rest, lineNo, line)
	case "QUEUE":
		return p.parseQueue(rest, lineNo, line)
	case "CALL":
		return p.parseCall(rest, lineNo, line, "")
	case "LET":
		return p.parseLet(rest, lineNo, line)
	case "RETURN":
		return p.parseReturn(rest, lineNo, line)
	case "TRACE":
		return &ast.Trace{Base: ast.NewBase(lineNo, line), Mode: strings.ToUpper(strings.TrimSpace(rest))}, nil
	case "RETRY_ON_STALE":
		return p.parseRetryOnStale(rest, lineNo, line)
	case "SIGNAL":
		return p.parseSignal(rest, lineNo, line)
	case "IF":
		return p.parseIf(rest, lineNo, line)
	case "DO":
		return p.parseDo(rest, lineNo, line)
	case "SELECT":
		return p.parseSelect(lineNo, line)
	case "INTERPRET":
		return p.parseInterpret(rest, lineNo, line)
	case "NO-INTERPRET":
		return &ast.NoInterpret{Base: ast.NewBase(lineNo, line)}, nil
	case "EXIT":
		return p.parseExit(rest, lineNo, line)
	case "SAY":
		return &ast.Say{Base: ast.NewBase(lineNo, line), Expression: parseRHSExpression(rest)}, nil
	}

	// 20. bare quoted string, routed to current ADDRESS
	trimmed := strings.TrimSpace(line)
	if len(trimmed) > 1 && (trimmed[0] == '"' || trimmed[0] == '\'') {
		if s, ok := stripQuotes(trimmed); ok {
			return &ast.QuotedStringCmd{Base: ast.NewBase(lineNo, line), Value: processEscapes(s)}, nil
		}
	}

	// 21. implicit assignment name = expression
	if name, expr, ok := splitAssignment(line); ok {
		if _, err := requireValidTarget(name); err != nil {
			return nil, &SyntaxError{Line: lineNo, Message: err.Error()}
		}
		return &ast.Assignment{Base: ast.NewBase(lineNo, line), Target: name, Expression: parseRHSExpression(expr)}, nil
	}

	// 22. free-standing function call (fallback)
	expr, err := ParseExpression(line)
	if err != nil {
		return nil, &SyntaxError{Line: lineNo, Message: err.Error()}
	}
	if call, ok := expr.(ast.FunctionCall); ok {
		return &ast.FunctionCallCmd{Base: ast.NewBase(lineNo, line), Command: call.Command, Params: call.Params, Order: call.Order}, nil
	}
	return nil, &SyntaxError{Line: lineNo, Message: fmt.Sprintf("unrecognised statement: %s", line)}
}

func stripQuotes(s string) (string, bool) {
	if len(s) < 2 {
		return "", false
	}
	q := s[0]
	if s[len(s)-1] != q {
		return "", false
	}
	return s[1 : len(s)-1], true
}

// splitAssignment finds a top-level "=" (outside quotes/parens/brackets)
// for the implicit-assignment fallback form.
func splitAssignment(line string) (name, expr string, ok bool) {
	depth := 0
	inStr := byte(0)
	for i := 0; i < len(line); i++ {
		c := line[i]
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
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case '=':
			if depth == 0 && i > 0 && line[i-1] != '!' && line[i-1] != '<' && line[i-1] != '>' &&
				(i+1 >= len(line) || line[i+1] != '=') {
				left := strings.TrimSpace(line[:i])
				right := strings.TrimSpace(line[i+1:])
				if left != "" && isPlainTarget(left) {
					return left, right, true
				}
				return "", "", false
			}
		}
	}
	return "", "", false
}

func isPlainTarget(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		ok := r == '_' || r == '.' || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if i == 0 && (r >= '0' && r <= '9') {
			return false
		}
		if !ok {
			return false
		}
	}
	return true
}

func requireValidTarget(name string) (string, error) {
	// target must be a bare identifier or dotted-stem key;
	// "a[i] = ..." is a hard error (use ARRAY_SET).
	if strings.ContainsAny(name, "[]") {
		return "", fmt.Errorf("assignment target %q must be a bare identifier or dotted path; use ARRAY_SET for indexed assignment", name)
	}
	if !isPlainTarget(name) {
		return "", fmt.Errorf("invalid assignment target %q", name)
	}
	return name, nil
}

// parseRHSExpression implements the concatenation-handling rule: `||`
// outside strings and outside parentheses makes the RHS a raw
// Concatenation node; otherwise it's parsed as an ordinary expression.
func parseRHSExpression(rhs string) ast.Expression {
	rhs = strings.TrimSpace(rhs)
	if hasTopLevelConcat(rhs) {
		return ast.Concatenation{Raw: rhs}
	}
	expr, err := ParseExpression(rhs)
	if err != nil {
		// Preserve the raw text rather than failing the whole parse;
		// the evaluator's value-resolution fallback will
		// still make sense of simple cases, and reports a clearer
		// error if not.
		return ast.Concatenation{Raw: rhs}
	}
	return expr
}

func hasTopLevelConcat(s string) bool {
	depth := 0
	inStr := byte(0)
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
				return true
			}
		}
	}
	return false
}

func (p *Parser) tryLabel(line string, lineNo int) (ast.Command, bool, error) {
	trimmed := strings.TrimSpace(line)
	colon := strings.IndexByte(trimmed, ':')
	if colon <= 0 {
		return nil, false, nil
	}
	name := trimmed[:colon]
	if !isPlainTarget(name) || strings.ContainsAny(name, " \t") {
		return nil, false, nil
	}
	// Don't mistake "ADDRESS url AS name" or a ternary-like construct for
	// a label: a label's name must be the entire token before the colon
	// with nothing else preceding it on the line. Keywords are not
	// excluded: any plain name followed by a colon is a label.
	rest := strings.TrimSpace(trimmed[colon+1:])
	var inline ast.Command
	if rest != "" {
		sp := &Parser{toks: []Token{{Kind: LineToken, Content: rest, Line: lineNo}}}
		cmd, err := sp.parseStatement()
		if err != nil {
			return nil, true, err
		}
		inline = cmd
	}
	return &ast.Label{Base: ast.NewBase(lineNo, line), Name: name, Statement: inline}, true, nil
}

func (p *Parser) parseNumeric(rest string, lineNo int, line string) (ast.Command, error) {
	fields := strings.Fields(rest)
	if len(fields) < 1 {
		return nil, &SyntaxError{Line: lineNo, Message: "NUMERIC requires DIGITS, FUZZ, or FORM"}
	}
	setting := strings.ToUpper(fields[0])
	valueExpr := strings.TrimSpace(strings.TrimPrefix(rest, fields[0]))
	return &ast.Numeric{Base: ast.NewBase(lineNo, line), Setting: setting, Value: parseRHSExpression(valueExpr)}, nil
}

func (p *Parser) parseExit(rest string, lineNo int, line string) (ast.Command, error) {
	rest = strings.TrimSpace(rest)
	upperRest := strings.ToUpper(rest)
	if idx := strings.Index(upperRest, "UNLESS"); idx >= 0 {
		codeText := strings.TrimSpace(rest[:idx])
		remainder := strings.TrimSpace(rest[idx+len("UNLESS"):])
		condText, msgText, err := splitCondAndMessage(remainder, lineNo)
		if err != nil {
			return nil, err
		}
		cond, err := ParseCondition(condText)
		if err != nil {
			return nil, &SyntaxError{Line: lineNo, Message: err.Error()}
		}
		var codeExpr ast.Expression
		if codeText != "" {
			codeExpr = parseRHSExpression(codeText)
		}
		return &ast.ExitUnless{
			Base:          ast.NewBase(lineNo, line),
			Code:          codeExpr,
			ConditionText: condText,
			Condition:     cond,
			Message:       parseRHSExpression(msgText),
		}, nil
	}
	if rest == "" {
		return &ast.Exit{Base: ast.NewBase(lineNo, line)}, nil
	}
	return &ast.Exit{Base: ast.NewBase(lineNo, line), Code: parseRHSExpression(rest)}, nil
}

// splitCondAndMessage splits "cond, message" on the top-level comma that
// separates an EXIT UNLESS condition from its message. A "." or ";"
// between them instead is a syntax error.
func splitCondAndMessage(s string, lineNo int) (cond, msg string, err error) {
	depth := 0
	inStr := byte(0)
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
		case '.', ';':
			if depth == 0 {
				return "", "", &SyntaxError{Line: lineNo, Message: "EXIT UNLESS requires a comma, not '" + string(c) + "', between the condition and the message"}
			}
		case ',':
			if depth == 0 {
				return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:]), nil
			}
		}
	}
	return strings.TrimSpace(s), "", nil
}

func (p *Parser) parseLet(rest string, lineNo int, line string) (ast.Command, error) {
	rest = strings.TrimSpace(rest)
	name, expr, ok := splitAssignment(rest)
	if !ok {
		return nil, &SyntaxError{Line: lineNo, Message: "LET requires target = expression"}
	}
	if _, err := requireValidTarget(name); err != nil {
		return nil, &SyntaxError{Line: lineNo, Message: err.Error()}
	}
	if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(expr)), "CALL ") {
		// LET v = CALL name [args] is sugar for CALL followed by binding
		// the subroutine's RETURN value to v.
		return p.parseCall(strings.TrimSpace(expr)[5:], lineNo, line, name)
	}
	return &ast.Assignment{Base: ast.NewBase(lineNo, line), Target: name, Expression: parseRHSExpression(expr)}, nil
}

// --- ADDRESS (four variants) ---

func (p *Parser) parseAddress(rest string, lineNo int, line string) (ast.Command, error) {
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return &ast.Address{Base: ast.NewBase(lineNo, line)}, nil
	}
	fields := strings.SplitN(rest, " ", 2)
	target := fields[0]
	if strings.EqualFold(target, "URL") && len(fields) == 2 {
		return p.parseAddressRemote(fields[1], lineNo, line)
	}
	if len(fields) == 1 {
		return &ast.Address{Base: ast.NewBase(lineNo, line), Target: target}, nil
	}
	remainder := strings.TrimSpace(fields[1])
	return &ast.AddressWithString{
		Base:    ast.NewBase(lineNo, line),
		Target:  target,
		Command: parseRHSExpression(remainder),
	}, nil
}

func (p *Parser) parseAddressRemote(rest string, lineNo int, line string) (ast.Command, error) {
	rest = strings.TrimSpace(rest)
	urlText, rest := takeQuotedOrWord(rest)
	addr := &ast.AddressRemote{Base: ast.NewBase(lineNo, line), URL: urlText}
	for rest != "" {
		kw, tail := leadingKeyword(rest)
		switch kw {
		case "AUTH":
			authText, r := takeQuotedOrWord(tail)
			addr.Auth = authText
			rest = r
		case "AS":
			nameText, r := takeQuotedOrWord(tail)
			addr.AsName = nameText
			rest = r
		default:
			return nil, &SyntaxError{Line: lineNo, Message: fmt.Sprintf("unexpected token in ADDRESS URL: %s", rest)}
		}
	}
	return addr, nil
}

// takeQuotedOrWord consumes either a quoted string or a single bare word
// from the front of s, returning the unquoted value and the remainder.
func takeQuotedOrWord(s string) (value, remainder string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}
	if s[0] == '"' || s[0] == '\'' {
		quote := s[0]
		for i := 1; i < len(s); i++ {
			if s[i] == '\\' {
				i++
				continue
			}
			if s[i] == quote {
				return processEscapes(s[1:i]), strings.TrimSpace(s[i+1:])
			}
		}
		return processEscapes(s[1:]), ""
	}
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i+1:])
}

// --- NUMERIC is handled above; ARG/PARSE ---

func (p *Parser) parseParseForm(source, rest string, lineNo int, line string) (ast.Command, error) {
	return &ast.Parse{
		Base:     ast.NewBase(lineNo, line),
		Source:   source,
		Template: strings.Fields(rest),
	}, nil
}

func (p *Parser) parseParseKeyword(rest string, lineNo int, line string) (ast.Command, error) {
	kw, tail := leadingKeyword(rest)
	switch kw {
	case "ARG":
		return &ast.Parse{Base: ast.NewBase(lineNo, line), Source: "ARG", Template: strings.Fields(tail)}, nil
	case "VAR":
		fields := strings.Fields(tail)
		if len(fields) < 1 {
			return nil, &SyntaxError{Line: lineNo, Message: "PARSE VAR requires a source variable and a template"}
		}
		return &ast.Parse{
			Base:     ast.NewBase(lineNo, line),
			Source:   "VAR",
			Input:    ast.Variable{Name: fields[0]},
			Template: fields[1:],
		}, nil
	case "VALUE":
		idx := strings.Index(strings.ToUpper(tail), " WITH ")
		if idx < 0 {
			return nil, &SyntaxError{Line: lineNo, Message: "PARSE VALUE requires ... WITH template"}
		}
		valueText := strings.TrimSpace(tail[:idx])
		template := strings.Fields(strings.TrimSpace(tail[idx+len(" WITH "):]))
		return &ast.Parse{
			Base:     ast.NewBase(lineNo, line),
			Source:   "VALUE",
			Input:    parseRHSExpression(valueText),
			Template: template,
		}, nil
	}
	return nil, &SyntaxError{Line: lineNo, Message: fmt.Sprintf("unsupported PARSE form: %s", rest)}
}

// --- PUSH/PULL/QUEUE (stack access) ---

func (p *Parser) parsePush(rest string, lineNo int, line string) (ast.Command, error) {
	return &ast.Push{Base: ast.NewBase(lineNo, line), Expression: parseRHSExpression(rest)}, nil
}

func (p *Parser) parsePull(rest string, lineNo int, line string) (ast.Command, error) {
	name := strings.TrimSpace(rest)
	if _, err := requireValidTarget(name); err != nil {
		return nil, &SyntaxError{Line: lineNo, Message: err.Error()}
	}
	return &ast.Pull{Base: ast.NewBase(lineNo, line), Var: name}, nil
}

func (p *Parser) parseQueue(rest string, lineNo int, line string) (ast.Command, error) {
	return &ast.Queue{Base: ast.NewBase(lineNo, line), Expression: parseRHSExpression(rest)}, nil
}

// --- CALL/LET-CALL/RETURN ---

// parseCall handles both bare CALL statements and the LET v = CALL sugar
// (assignTarget is "" for the former).
func (p *Parser) parseCall(rest string, lineNo int, line, assignTarget string) (ast.Command, error) {
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return nil, &SyntaxError{Line: lineNo, Message: "CALL requires a subroutine name"}
	}
	name, argText := splitCallHead(rest)
	isVariableCall := strings.HasPrefix(name, "(") // CALL (expr) args — indirect call via variable
	var subroutine string
	if isVariableCall {
		subroutine = strings.TrimSuffix(strings.TrimPrefix(name, "("), ")")
	} else {
		subroutine = name
	}
	args, err := splitCallArgs(argText)
	if err != nil {
		return nil, &SyntaxError{Line: lineNo, Message: err.Error()}
	}
	argExprs := make([]ast.Expression, len(args))
	for i, a := range args {
		argExprs[i] = parseRHSExpression(a)
	}
	return &ast.Call{
		Base:           ast.NewBase(lineNo, line),
		Subroutine:     subroutine,
		DisplayName:    assignTarget,
		Args:           argExprs,
		IsVariableCall: isVariableCall,
	}, nil
}

// splitCallHead splits "name arg1, arg2" or "name(arg1, arg2)" into the
// callee name (or "(expr)" for an indirect call) and the unparsed argument
// text.
func splitCallHead(s string) (name, argText string) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "(") {
		depth := 0
		for i, c := range s {
			if c == '(' {
				depth++
			}
			if c == ')' {
				depth--
				if depth == 0 {
					return s[:i+1], strings.TrimSpace(s[i+1:])
				}
			}
		}
		return s, ""
	}
	i := strings.IndexAny(s, " \t(")
	if i < 0 {
		return s, ""
	}
	if s[i] == '(' {
		depth := 0
		for j := i; j < len(s); j++ {
			if s[j] == '(' {
				depth++
			}
			if s[j] == ')' {
				depth--
				if depth == 0 {
					return s[:i], s[i+1 : j]
				}
			}
		}
		return s[:i], s[i+1:]
	}
	return s[:i], strings.TrimSpace(s[i+1:])
}

// splitCallArgs splits a comma-separated argument list at top level,
// respecting quotes, parens and brackets (CALL's arguments
// are whitespace- or comma-separated).
func splitCallArgs(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if strings.Contains(s, ",") {
		return splitTopLevel(s, ','), nil
	}
	return strings.Fields(s), nil
}

func splitTopLevel(s string, sep byte) []string {
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
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[last:i]))
				last = i + 1
			}
		}
	}
	parts = append(parts, strings.TrimSpace(s[last:]))
	return parts
}

func (p *Parser) parseReturn(rest string, lineNo int, line string) (ast.Command, error) {
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return &ast.Return{Base: ast.NewBase(lineNo, line)}, nil
	}
	return &ast.Return{Base: ast.NewBase(lineNo, line), Value: parseRHSExpression(rest)}, nil
}

// --- SIGNAL ---

func (p *Parser) parseSignal(rest string, lineNo int, line string) (ast.Command, error) {
	rest = strings.TrimSpace(rest)
	upper := strings.ToUpper(rest)
	if strings.HasPrefix(upper, "ON ") || strings.HasPrefix(upper, "OFF ") {
		action, tail := leadingKeyword(rest)
		condKw, tail := leadingKeyword(tail)
		sig := &ast.Signal{Base: ast.NewBase(lineNo, line), Action: action, Condition: condKw}
		tail = strings.TrimSpace(tail)
		if tail != "" {
			nameKw, labelName := leadingKeyword(tail)
			if strings.EqualFold(nameKw, "NAME") {
				sig.Label = strings.TrimSpace(labelName)
			}
		}
		return sig, nil
	}
	return &ast.Signal{Base: ast.NewBase(lineNo, line), Label: rest}, nil
}

// --- RETRY_ON_STALE ... END_RETRY ---

func (p *Parser) parseRetryOnStale(rest string, lineNo int, line string) (ast.Command, error) {
	rest = strings.TrimSpace(rest)
	retry := &ast.RetryOnStale{Base: ast.NewBase(lineNo, line)}
	for rest != "" {
		kw, tail := splitKeyValue(rest)
		switch strings.ToUpper(kw.key) {
		case "TIMEOUT":
			retry.Timeout = parseRHSExpression(kw.value)
		case "PRESERVE":
			retry.Preserve = splitTopLevel(kw.value, ',')
		}
		rest = tail
	}
	body, err := p.parseBlock([]string{"END_RETRY"})
	if err != nil {
		return nil, err
	}
	if _, ok := p.cur(); ok {
		p.advance() // consume END_RETRY
	}
	retry.Body = body
	return retry, nil
}

type kv struct{ key, value string }

// splitKeyValue pulls one "key=value" or "KEYWORD list" token off the
// front of a RETRY_ON_STALE header, returning it and the remainder.
func splitKeyValue(s string) (kv, string) {
	s = strings.TrimSpace(s)
	if eq := strings.IndexByte(s, '='); eq >= 0 {
		key := strings.TrimSpace(s[:eq])
		rest := s[eq+1:]
		end := len(rest)
		for i, r := range rest {
			if r == ' ' {
				end = i
				break
			}
		}
		return kv{key: key, value: strings.TrimSpace(rest[:end])}, strings.TrimSpace(rest[end:])
	}
	kw, tail := leadingKeyword(s)
	word, rest := takeQuotedOrWord(tail)
	return kv{key: kw, value: word}, rest
}

// --- IF/DO/SELECT ---

func (p *Parser) parseIf(rest string, lineNo int, line string) (ast.Command, error) {
	condText := rest
	upper := strings.ToUpper(rest)
	if idx := strings.Index(upper, " THEN"); idx >= 0 {
		condText = rest[:idx]
	}
	cond, err := ParseCondition(strings.TrimSpace(condText))
	if err != nil {
		return nil, &SyntaxError{Line: lineNo, Message: err.Error()}
	}
	thenBody, err := p.parseBlock([]string{"ELSE", "END", "ENDIF"})
	if err != nil {
		return nil, err
	}
	ifCmd := &ast.If{Base: ast.NewBase(lineNo, line), Condition: cond, Then: thenBody}
	t, ok := p.cur()
	if ok && t.Kind == LineToken {
		kw, elseRest := leadingKeyword(t.Content)
		if kw == "ELSE" {
			p.advance()
			if strings.TrimSpace(elseRest) != "" {
				if strings.HasPrefix(strings.ToUpper(elseRest), "IF ") {
					elseIf, err := p.parseIf(strings.TrimSpace(elseRest[3:]), t.Line, t.Content)
					if err != nil {
						return nil, err
					}
					ifCmd.Else = []ast.Command{elseIf}
					return ifCmd, nil
				}
				sp := &Parser{toks: []Token{{Kind: LineToken, Content: elseRest, Line: t.Line}}}
				inline, err := sp.parseStatement()
				if err != nil {
					return nil, err
				}
				ifCmd.Else = []ast.Command{inline}
			} else {
				elseBody, err := p.parseBlock([]string{"END", "ENDIF"})
				if err != nil {
					return nil, err
				}
				ifCmd.Else = elseBody
			}
		}
	}
	t, ok = p.cur()
	if ok && t.Kind == LineToken {
		kw, _ := leadingKeyword(t.Content)
		if kw == "END" || kw == "ENDIF" {
			p.advance()
		}
	}
	return ifCmd, nil
}

func (p *Parser) parseDo(rest string, lineNo int, line string) (ast.Command, error) {
	spec, err := parseLoopSpec(strings.TrimSpace(rest), lineNo)
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock([]string{"END"})
	if err != nil {
		return nil, err
	}
	if _, ok := p.cur(); ok {
		p.advance() // consume END
	}
	return &ast.Do{Base: ast.NewBase(lineNo, line), Spec: spec, Body: body}, nil
}

// parseLoopSpec implements the six loop-spec forms plus DO FOREVER. A
// bare DO with no spec at all is a hard parse error pointing at FOREVER.
func parseLoopSpec(rest string, lineNo int) (ast.LoopSpec, error) {
	if rest == "" {
		return nil, &SyntaxError{Line: lineNo, Message: "DO with no loop spec is not allowed; use DO FOREVER"}
	}
	upper := strings.ToUpper(rest)
	switch {
	case upper == "FOREVER":
		return ast.ForeverLoop{}, nil
	case strings.HasPrefix(upper, "WHILE "):
		cond, err := ParseCondition(strings.TrimSpace(rest[6:]))
		if err != nil {
			return nil, &SyntaxError{Line: lineNo, Message: err.Error()}
		}
		return ast.WhileLoop{Cond: cond}, nil
	case strings.HasPrefix(upper, "UNTIL "):
		cond, err := ParseCondition(strings.TrimSpace(rest[6:]))
		if err != nil {
			return nil, &SyntaxError{Line: lineNo, Message: err.Error()}
		}
		return ast.UntilLoop{Cond: cond}, nil
	case strings.HasPrefix(upper, "REPEAT "):
		return ast.RepeatLoop{Count: parseRHSExpression(strings.TrimSpace(rest[7:]))}, nil
	}
	fields := strings.Fields(rest)
	if len(fields) >= 4 && strings.EqualFold(fields[1], "OVER") {
		return ast.OverLoop{Var: fields[0], Array: parseRHSExpression(strings.Join(fields[2:], " "))}, nil
	}
	// i = start TO end [BY step]
	eq := strings.IndexByte(rest, '=')
	if eq > 0 {
		varName := strings.TrimSpace(rest[:eq])
		tail := rest[eq+1:]
		upperTail := strings.ToUpper(tail)
		toIdx := strings.Index(upperTail, " TO ")
		if toIdx < 0 {
			return nil, &SyntaxError{Line: lineNo, Message: "DO range requires i = start TO end"}
		}
		startText := strings.TrimSpace(tail[:toIdx])
		afterTo := tail[toIdx+4:]
		byIdx := strings.Index(strings.ToUpper(afterTo), " BY ")
		if byIdx < 0 {
			return ast.RangeLoop{
				Var:   varName,
				Start: parseRHSExpression(startText),
				End:   parseRHSExpression(strings.TrimSpace(afterTo)),
			}, nil
		}
		endText := strings.TrimSpace(afterTo[:byIdx])
		stepText := strings.TrimSpace(afterTo[byIdx+4:])
		return ast.RangeWithStepLoop{
			Var:   varName,
			Start: parseRHSExpression(startText),
			End:   parseRHSExpression(endText),
			Step:  parseRHSExpression(stepText),
		}, nil
	}
	return nil, &SyntaxError{Line: lineNo, Message: fmt.Sprintf("unrecognised DO loop spec: %s", rest)}
}

func (p *Parser) parseSelect(lineNo int, line string) (ast.Command, error) {
	sel := &ast.Select{Base: ast.NewBase(lineNo, line)}
	for {
		t, ok := p.cur()
		if !ok {
			return nil, &SyntaxError{Line: lineNo, Message: "unterminated SELECT"}
		}
		if t.Kind != LineToken {
			return nil, &SyntaxError{Line: t.Line, Message: "unexpected heredoc inside SELECT"}
		}
		kw, rest := leadingKeyword(t.Content)
		switch kw {
		case "WHEN":
			p.advance()
			condText := rest
			if idx := strings.Index(strings.ToUpper(rest), " THEN"); idx >= 0 {
				condText = rest[:idx]
			}
			cond, err := ParseCondition(strings.TrimSpace(condText))
			if err != nil {
				return nil, &SyntaxError{Line: t.Line, Message: err.Error()}
			}
			body, err := p.parseBlock([]string{"WHEN", "OTHERWISE", "END"})
			if err != nil {
				return nil, err
			}
			sel.Whens = append(sel.Whens, ast.WhenClause{Condition: cond, Body: body})
		case "OTHERWISE":
			p.advance()
			body, err := p.parseBlock([]string{"END"})
			if err != nil {
				return nil, err
			}
			sel.Otherwise = body
		case "END":
			p.advance()
			return sel, nil
		default:
			return nil, &SyntaxError{Line: t.Line, Message: fmt.Sprintf("expected WHEN, OTHERWISE or END inside SELECT, got %q", t.Content)}
		}
	}
}

// --- INTERPRET / NO-INTERPRET ---

func (p *Parser) parseInterpret(rest string, lineNo int, line string) (ast.Command, error) {
	rest = strings.TrimSpace(rest)
	mode := ""
	if strings.HasPrefix(strings.ToUpper(rest), "ISOLATED ") {
		mode = "ISOLATED"
		rest = strings.TrimSpace(rest[9:])
	}
	interp := &ast.Interpret{Base: ast.NewBase(lineNo, line), Mode: mode}
	upper := strings.ToUpper(rest)
	if idx := strings.Index(upper, " EXPORT "); idx >= 0 {
		interp.Exports = splitTopLevel(strings.TrimSpace(rest[idx+8:]), ',')
		rest = strings.TrimSpace(rest[:idx])
		upper = strings.ToUpper(rest)
	}
	if idx := strings.Index(upper, " IMPORT "); idx >= 0 {
		interp.Imports = splitTopLevel(strings.TrimSpace(rest[idx+8:]), ',')
		rest = strings.TrimSpace(rest[:idx])
	}
	interp.Expression = parseRHSExpression(rest)
	return interp, nil
}
