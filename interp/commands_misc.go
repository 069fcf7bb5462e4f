package interp

// NUMERIC, ADDRESS (string and remote forms), INTERPRET and the bare
// heredoc command.

import (
	"context"
	"strings"

	"github.com/openrexx/rexx/ast"
	"github.com/openrexx/rexx/syntax"
	"github.com/openrexx/rexx/value"
)

func (it *Interp) execNumeric(ctx context.Context, c ast.Numeric) error {
	v, err := it.resolve(ctx, c, c.Value)
	if err != nil {
		return err
	}
	switch strings.ToUpper(c.Setting) {
	case "DIGITS":
		it.numericDigits = v.String()
	case "FUZZ":
		it.numericFuzz = v.String()
	case "FORM":
		it.numericForm = strings.ToUpper(v.String())
	default:
		return &TypeError{SourceContext: srcCtx(c), Message: "unknown NUMERIC setting " + c.Setting}
	}
	return nil
}

// execAddressWithString sends a single command string to the named
// ADDRESS target without changing the current default target:
// `ADDRESS target "command"`.
func (it *Interp) execAddressWithString(ctx context.Context, c ast.AddressWithString) error {
	v, err := it.resolve(ctx, c, c.Command)
	if err != nil {
		return err
	}
	target := strings.ToUpper(c.Target)
	sender, ok := it.addressHandlers[target]
	if !ok {
		sender = it.addressSender
	}
	if sender == nil {
		return &AddressError{SourceContext: srcCtx(c), Target: target, Err: errNoAddressSender}
	}
	result, err := sender.Send(ctx, target, v.String(), nil)
	if err != nil {
		return &AddressError{SourceContext: srcCtx(c), Target: target, Err: err}
	}
	it.setVariable("RESULT", result)
	return nil
}

// execAddressRemote implements `ADDRESS URL url [AUTH auth] [AS name]`:
// registers a handler bound to the AddressSender collaborator, addressed
// by name for subsequent ADDRESS statements.
func (it *Interp) execAddressRemote(ctx context.Context, c ast.AddressRemote) error {
	if it.addressSender == nil {
		return &AddressError{SourceContext: srcCtx(c), Target: c.AsName, Err: errNoAddressSender}
	}
	name := c.AsName
	if name == "" {
		name = c.URL
	}
	it.addressHandlers[strings.ToUpper(name)] = remoteSender{base: it.addressSender, url: c.URL, auth: c.Auth}
	it.addressTarget = strings.ToUpper(name)
	return nil
}

type remoteSender struct {
	base      AddressSender
	url, auth string
}

func (r remoteSender) Send(ctx context.Context, namespace, method string, params map[string]value.Value) (value.Value, error) {
	if params == nil {
		params = map[string]value.Value{}
	}
	params["_url"] = value.OfString(r.url)
	if r.auth != "" {
		params["_auth"] = value.OfString(r.auth)
	}
	return r.base.Send(ctx, namespace, method, params)
}

// execInterpret implements INTERPRET [ISOLATED] expr [IMPORT ...] [EXPORT
// ...]: evaluates expr to a string, parses it as a fresh
// statement list, and runs it inline. ISOLATED mode runs it against a
// scratch variable scope seeded only by the named imports, copying any
// named exports back afterward.
func (it *Interp) execInterpret(ctx context.Context, c ast.Interpret) (*directive, error) {
	v, err := it.resolve(ctx, c, c.Expression)
	if err != nil {
		return nil, err
	}
	cmds, err := syntax.Parse(v.String())
	if err != nil {
		return nil, &TypeError{SourceContext: srcCtx(c), Message: "INTERPRET: " + err.Error()}
	}

	if strings.ToUpper(c.Mode) != "ISOLATED" {
		return it.runBlock(ctx, cmds)
	}

	saved := it.Vars
	scratch := make(map[string]value.Value, len(c.Imports))
	for _, name := range c.Imports {
		scratch[strings.ToUpper(name)] = it.resolveVariable(name)
	}
	it.Vars = scratch
	d, err := it.runBlock(ctx, cmds)
	result := it.Vars
	it.Vars = saved
	if err != nil {
		return nil, err
	}
	for _, name := range c.Exports {
		if v, ok := result[strings.ToUpper(name)]; ok {
			it.setVariable(name, v)
		}
	}
	return d, nil
}

func (it *Interp) execHeredocCmd(ctx context.Context, c ast.HeredocCmd) error {
	v, err := value.OfHeredoc(c.Content, c.Delimiter).Decode()
	if err != nil {
		return &JSONError{SourceContext: srcCtx(c), Err: err}
	}
	targetName := c.AddressTarget
	if targetName == "" {
		targetName = it.addressTarget
	}
	if targetName == "" {
		return it.sink.Output(ctx, v.String())
	}
	target := strings.ToUpper(targetName)
	sender, ok := it.addressHandlers[target]
	if !ok {
		sender = it.addressSender
	}
	if sender == nil {
		return &AddressError{SourceContext: srcCtx(c), Target: target, Err: errNoAddressSender}
	}
	_, err = sender.Send(ctx, target, v.String(), nil)
	if err != nil {
		return &AddressError{SourceContext: srcCtx(c), Target: target, Err: err}
	}
	return nil
}
