package interp

// IF/DO/SELECT/RETRY_ON_STALE: structured control flow over
// nested command lists, each delegating its body to runBlock and
// propagating whatever directive (Terminated/Jump) that body produces.

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/openrexx/rexx/ast"
	"github.com/openrexx/rexx/value"
)

// shadowLoopVar captures the pre-loop binding of a loop control variable
// so the caller can restore it once the loop ends. If the variable had no
// prior binding, the loop's last assigned value is left in place instead
// (ordinary persistence, not shadowing).
func (it *Interp) shadowLoopVar(name string) (prior value.Value, hadPrior bool) {
	prior, hadPrior = it.Vars[strings.ToUpper(name)]
	return prior, hadPrior
}

func (it *Interp) restoreLoopVar(name string, prior value.Value, hadPrior bool) {
	if hadPrior {
		it.Vars[strings.ToUpper(name)] = prior
	}
}

func (it *Interp) execIf(ctx context.Context, c ast.If) (*directive, error) {
	ok, err := it.evalCondition(ctx, c, c.Condition)
	if err != nil {
		return nil, err
	}
	if ok {
		return it.runBlock(ctx, c.Then)
	}
	return it.runBlock(ctx, c.Else)
}

func (it *Interp) execSelect(ctx context.Context, c ast.Select) (*directive, error) {
	for _, when := range c.Whens {
		ok, err := it.evalCondition(ctx, c, when.Condition)
		if err != nil {
			return nil, err
		}
		if ok {
			return it.runBlock(ctx, when.Body)
		}
	}
	return it.runBlock(ctx, c.Otherwise)
}

func (it *Interp) execDo(ctx context.Context, c ast.Do) (*directive, error) {
	switch spec := c.Spec.(type) {
	case ast.RangeLoop:
		return it.doRange(ctx, c, spec.Var, spec.Start, spec.End, nil)
	case ast.RangeWithStepLoop:
		return it.doRange(ctx, c, spec.Var, spec.Start, spec.End, spec.Step)
	case ast.WhileLoop:
		return it.doWhile(ctx, c, spec.Cond, false)
	case ast.UntilLoop:
		return it.doUntil(ctx, c, spec.Cond)
	case ast.RepeatLoop:
		return it.doRepeat(ctx, c, spec.Count)
	case ast.OverLoop:
		return it.doOver(ctx, c, spec.Var, spec.Array)
	case ast.ForeverLoop:
		return it.doForever(ctx, c)
	case ast.Infinite:
		return nil, &TypeError{SourceContext: srcCtx(c), Message: "DO with no loop spec is not allowed; use DO FOREVER"}
	default:
		return nil, &TypeError{SourceContext: srcCtx(c), Message: "unsupported loop spec"}
	}
}

func (it *Interp) doRange(ctx context.Context, c ast.Do, varName string, startE, endE, stepE ast.Expression) (*directive, error) {
	prior, hadPrior := it.shadowLoopVar(varName)
	defer it.restoreLoopVar(varName, prior, hadPrior)
	start, err := it.numericArg(ctx, c, startE)
	if err != nil {
		return nil, err
	}
	end, err := it.numericArg(ctx, c, endE)
	if err != nil {
		return nil, err
	}
	step := 1.0
	if stepE != nil {
		step, err = it.numericArg(ctx, c, stepE)
		if err != nil {
			return nil, err
		}
		if step == 0 {
			return nil, &TypeError{SourceContext: srcCtx(c), Message: "DO loop step must not be zero"}
		}
	}
	if step == 0 {
		return nil, nil
	}
	for i := start; (step > 0 && i <= end) || (step < 0 && i >= end); i += step {
		it.setVariable(varName, value.FromNumber(i))
		d, err := it.runBlock(ctx, c.Body)
		if err != nil {
			return nil, err
		}
		if d != nil {
			return d, nil
		}
	}
	return nil, nil
}

// doWhile binds no loop control variable (WhileLoop carries only Cond),
// so there is nothing to shadow/restore here; that invariant belongs to
// doRange and doOver, the only LoopSpec forms with a Var field.
func (it *Interp) doWhile(ctx context.Context, c ast.Do, cond ast.Condition, _ bool) (*directive, error) {
	iters := 0
	for {
		ok, err := it.evalCondition(ctx, c, cond)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		if iters >= it.maxLoopIters {
			return nil, &LoopSafetyError{SourceContext: srcCtx(c), Limit: it.maxLoopIters}
		}
		iters++
		d, err := it.runBlock(ctx, c.Body)
		if err != nil {
			return nil, err
		}
		if d != nil {
			return d, nil
		}
	}
}

// doUntil is a post-test loop: the body always runs at least once, then
// the loop repeats while cond is false (classic Rexx DO UNTIL semantics).
// Like doWhile, UntilLoop carries no Var, so there is no loop control
// variable to shadow/restore.
func (it *Interp) doUntil(ctx context.Context, c ast.Do, cond ast.Condition) (*directive, error) {
	iters := 0
	for {
		d, err := it.runBlock(ctx, c.Body)
		if err != nil {
			return nil, err
		}
		if d != nil {
			return d, nil
		}
		ok, err := it.evalCondition(ctx, c, cond)
		if err != nil {
			return nil, err
		}
		if ok {
			return nil, nil
		}
		iters++
		if iters >= it.maxLoopIters {
			return nil, &LoopSafetyError{SourceContext: srcCtx(c), Limit: it.maxLoopIters}
		}
	}
}

func (it *Interp) doRepeat(ctx context.Context, c ast.Do, countE ast.Expression) (*directive, error) {
	n, err := it.numericArg(ctx, c, countE)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, &TypeError{SourceContext: srcCtx(c), Message: "DO count must not be negative"}
	}
	for i := 0; i < int(n); i++ {
		d, err := it.runBlock(ctx, c.Body)
		if err != nil {
			return nil, err
		}
		if d != nil {
			return d, nil
		}
	}
	return nil, nil
}

// doOver implements DO var OVER expr: expr may
// be a string (iterates runes), an array (iterates elements in order), or
// an object (iterates values in key-sorted order, numeric keys first when
// the object is array-like).
func (it *Interp) doOver(ctx context.Context, c ast.Do, varName string, srcE ast.Expression) (*directive, error) {
	prior, hadPrior := it.shadowLoopVar(varName)
	defer it.restoreLoopVar(varName, prior, hadPrior)
	v, err := it.resolve(ctx, c, srcE)
	if err != nil {
		return nil, err
	}
	var items []value.Value
	switch v.Kind {
	case value.Array:
		items = v.Arr
	case value.String:
		for _, r := range v.Str {
			items = append(items, value.OfString(string(r)))
		}
	case value.Object:
		keys := make([]string, 0, len(v.Obj))
		for k := range v.Obj {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			ni, erri := strconv.Atoi(keys[i])
			nj, errj := strconv.Atoi(keys[j])
			if erri == nil && errj == nil {
				return ni < nj
			}
			return keys[i] < keys[j]
		})
		for _, k := range keys {
			items = append(items, v.Obj[k])
		}
	default:
		return nil, &TypeError{SourceContext: srcCtx(c), Message: "DO OVER target is not iterable: " + v.Kind.String()}
	}
	for _, item := range items {
		it.setVariable(varName, item)
		d, err := it.runBlock(ctx, c.Body)
		if err != nil {
			return nil, err
		}
		if d != nil {
			return d, nil
		}
	}
	return nil, nil
}

func (it *Interp) doForever(ctx context.Context, c ast.Do) (*directive, error) {
	iters := 0
	for {
		d, err := it.runBlock(ctx, c.Body)
		if err != nil {
			return nil, err
		}
		if d != nil {
			return d, nil
		}
		iters++
		if iters >= it.maxLoopIters {
			return nil, &LoopSafetyError{SourceContext: srcCtx(c), Limit: it.maxLoopIters}
		}
	}
}

func (it *Interp) numericArg(ctx context.Context, src ast.Node, e ast.Expression) (float64, error) {
	v, err := it.resolve(ctx, src, e)
	if err != nil {
		return 0, err
	}
	n, err := v.Number()
	if err != nil {
		return 0, &TypeError{SourceContext: srcCtx(src), Message: "expected a numeric value, got " + v.String()}
	}
	return n, nil
}

// execRetryOnStale implements RETRY_ON_STALE timeout=N [PRESERVE v1,v2]
// ... END_RETRY: runs the body once, and on an AddressError
// whose RC categorises as 40 (stale), re-runs it until the deadline-style
// timeout (expressed as a retry budget, since this evaluator has no wall
// clock collaborator) is exhausted. PRESERVE names variables that must
// keep their pre-block value across a retry rather than whatever the
// failed attempt partially assigned.
func (it *Interp) execRetryOnStale(ctx context.Context, c ast.RetryOnStale) (*directive, error) {
	limit, err := it.numericArg(ctx, c, c.Timeout)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 1
	}
	preserved := make(map[string]value.Value, len(c.Preserve))
	for _, name := range c.Preserve {
		preserved[name] = it.resolveVariable(name)
	}
	var lastErr error
	for attempt := 0; attempt < int(limit); attempt++ {
		for name, v := range preserved {
			it.setVariable(name, v)
		}
		d, err := it.runBlock(ctx, c.Body)
		if err == nil {
			return d, nil
		}
		if categorizeRC(err) != 40 {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}
