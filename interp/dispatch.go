package interp

// dispatch implements the 9-step function/operation resolution chain:
// REQUIRE special-case, special variables, builtins (with converter
// fallback), operations, REQUIRE'd library functions, the current ADDRESS
// target, the browser-string-function shim, a hard MissingFunction error
// with no AddressSender configured, and finally an RPC through the
// AddressSender. A single external seam generalised into this language's
// layered collaborator chain, rather than one hook per backend.

import (
	"context"
	"errors"
	"strings"

	"github.com/openrexx/rexx/ast"
	"github.com/openrexx/rexx/value"
)

var errNoAddressSender = errors.New("no ADDRESS target or sender configured")

// browserFunctions is the fixed set of function-style calls the dispatcher
// forwards to the AddressSender as a single formatted command string when
// no ADDRESS target claims them first (step 7's "shim" — these verbs exist
// to let scripts drive a browser-automation collaborator without an
// explicit ADDRESS BROWSER block first).
var browserFunctions = map[string]bool{
	"CLICK": true, "TYPE": true, "NAVIGATE": true, "SCREENSHOT": true,
	"WAIT": true, "SELECT": true, "HOVER": true, "SCROLL": true,
}

func (it *Interp) dispatch(ctx context.Context, src ast.Node, command string, params map[string]value.Value, order []string) (value.Value, error) {
	nameUpper := strings.ToUpper(command)

	// Step 1: REQUIRE is handled before any registry lookup since it
	// mutates the registry's own reach.
	if nameUpper == "REQUIRE" {
		return it.dispatchRequire(ctx, src, params, order)
	}

	// Step 2: RC/ERRORTEXT/SIGL are readable in function-call syntax too,
	// and so is the current NUMERIC DIGITS/FORM/FUZZ setting.
	switch nameUpper {
	case "RC", "ERRORTEXT", "SIGL":
		return it.resolveVariable(nameUpper), nil
	case "DIGITS":
		return value.OfString(it.numericDigits), nil
	case "FORM":
		return value.OfString(it.numericForm), nil
	case "FUZZ":
		return value.OfString(it.numericFuzz), nil
	}

	if it.registry != nil {
		// Step 3: registered builtin, falling back to a positional-args
		// converter when the call supplied positional (not named) args.
		if it.registry.IsBuiltin(nameUpper) {
			callParams := params
			if conv, ok := it.registry.GetConverter(nameUpper); ok && len(order) > 0 {
				positional := make([]value.Value, len(order))
				for i, name := range order {
					positional[i] = params[name]
				}
				converted, err := conv.ToNamedParams(positional)
				if err != nil {
					return value.Value{}, &FunctionError{SourceContext: srcCtx(src), Name: nameUpper}
				}
				callParams = converted
			}
			v, err := it.registry.Call(ctx, nameUpper, callParams)
			if err != nil {
				return value.Value{}, &FunctionError{SourceContext: srcCtx(src), Name: nameUpper}
			}
			return v, nil
		}
		// Step 4: registered operation.
		if it.registry.IsOperation(nameUpper) {
			v, err := it.registry.Call(ctx, nameUpper, params)
			if err != nil {
				return value.Value{}, &FunctionError{SourceContext: srcCtx(src), Name: nameUpper}
			}
			return v, nil
		}
	}

	// Step 5: a function exposed by a REQUIRE'd library, routed through
	// that library's own address target if it registered one.
	for libName, reg := range it.requiredLibraries {
		if !containsUpper(reg.Functions, nameUpper) {
			continue
		}
		if len(reg.AddressTargets) > 0 {
			v, err := reg.AddressTargets[0].Handler.Send(ctx, libName, nameUpper, params)
			if err != nil {
				return value.Value{}, &LibraryError{SourceContext: srcCtx(src), Library: libName, Err: err}
			}
			return v, nil
		}
	}

	// Step 6: the current ADDRESS target's handler.
	if it.addressTarget != "" {
		if sender, ok := it.addressHandlers[it.addressTarget]; ok {
			v, err := sender.Send(ctx, it.addressTarget, nameUpper, params)
			if err != nil {
				return value.Value{}, &AddressError{SourceContext: srcCtx(src), Target: it.addressTarget, Err: err}
			}
			return v, nil
		}
	}

	// Step 7: browser-string-function shim.
	if browserFunctions[nameUpper] && it.addressSender != nil {
		v, err := it.addressSender.Send(ctx, "browser", formatBrowserCommand(nameUpper, params, order), params)
		if err != nil {
			return value.Value{}, &AddressError{SourceContext: srcCtx(src), Target: "browser", Err: err}
		}
		return v, nil
	}

	// Step 8: nothing can resolve this call.
	if it.addressSender == nil {
		return value.Value{}, &FunctionError{SourceContext: srcCtx(src), Name: nameUpper, DocURL: it.docURL(nameUpper)}
	}

	// Step 9: last resort, forward as an RPC.
	v, err := it.addressSender.Send(ctx, "", nameUpper, params)
	if err != nil {
		return value.Value{}, &AddressError{SourceContext: srcCtx(src), Target: "", Err: err}
	}
	return v, nil
}

func (it *Interp) dispatchRequire(ctx context.Context, src ast.Node, params map[string]value.Value, order []string) (value.Value, error) {
	if it.libraryLoader == nil {
		return value.Value{}, &FunctionError{SourceContext: srcCtx(src), Name: "REQUIRE"}
	}
	var libName string
	if len(order) > 0 {
		libName = params[order[0]].String()
	}
	// The "AS" argument is passed through to the loader verbatim rather
	// than resolved further, so a library can use it as an opaque alias
	// or a namespacing hint without the core caring which.
	asClause := ""
	if v, ok := params["AS"]; ok {
		asClause = v.String()
	}
	reg, err := it.libraryLoader.Require(ctx, libName, asClause)
	if err != nil {
		return value.Value{}, &LibraryError{SourceContext: srcCtx(src), Library: libName, Err: err}
	}
	key := libName
	if asClause != "" {
		key = asClause
	}
	it.requiredLibraries[key] = reg
	for _, t := range reg.AddressTargets {
		it.addressHandlers[strings.ToUpper(t.Name)] = t.Handler
	}
	return value.Of(true), nil
}

func formatBrowserCommand(nameUpper string, params map[string]value.Value, order []string) string {
	var sb strings.Builder
	sb.WriteString(nameUpper)
	for _, name := range order {
		sb.WriteByte(' ')
		sb.WriteString(params[name].String())
	}
	return sb.String()
}

func containsUpper(list []string, nameUpper string) bool {
	for _, s := range list {
		if strings.EqualFold(s, nameUpper) {
			return true
		}
	}
	return false
}

// docURL gives MissingFunction errors a stable, greppable reference even
// though this evaluator has no fixed function catalogue (a spec
// Non-goal); it's just a deep link into the collaborator docs.
func (it *Interp) docURL(nameUpper string) string {
	return "https://pkg.go.dev/github.com/openrexx/rexx/interp#" + nameUpper
}
