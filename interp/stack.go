package interp

import "github.com/openrexx/rexx/value"

// push, queue and pull implement the double-ended PUSH/QUEUE/PULL stack:
// PUSH places at the front, QUEUE at the back, PULL removes from the
// front. An empty PULL yields an empty string rather than erroring.

func (it *Interp) push(v value.Value) {
	it.Stack = append([]value.Value{v}, it.Stack...)
}

func (it *Interp) queue(v value.Value) {
	it.Stack = append(it.Stack, v)
}

func (it *Interp) pull() value.Value {
	if len(it.Stack) == 0 {
		return value.OfString("")
	}
	v := it.Stack[0]
	it.Stack = it.Stack[1:]
	return v
}
