package interp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrexx/rexx/value"
)

type fakeRegistry struct {
	builtins, operations map[string]bool
	calls                []string
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{builtins: map[string]bool{}, operations: map[string]bool{}}
}

func (r *fakeRegistry) Call(ctx context.Context, nameUpper string, params map[string]value.Value) (value.Value, error) {
	r.calls = append(r.calls, nameUpper)
	if nameUpper == "UPPER" {
		return value.OfString("SHOUTED"), nil
	}
	return value.Of(true), nil
}
func (r *fakeRegistry) IsOperation(nameUpper string) bool { return r.operations[nameUpper] }
func (r *fakeRegistry) IsBuiltin(nameUpper string) bool   { return r.builtins[nameUpper] }
func (r *fakeRegistry) GetConverter(nameUpper string) (Converter, bool) {
	return nil, false
}

type fakeSender struct {
	namespace, method string
	params            map[string]value.Value
	err               error
}

func (f *fakeSender) Send(ctx context.Context, namespace, method string, params map[string]value.Value) (value.Value, error) {
	f.namespace, f.method, f.params = namespace, method, params
	if f.err != nil {
		return value.Value{}, f.err
	}
	return value.OfString("sent"), nil
}

func TestDispatchBuiltinTakesPriority(t *testing.T) {
	reg := newFakeRegistry()
	reg.builtins["UPPER"] = true
	it, _ := newTestInterp(t, WithFunctionRegistry(reg))

	v, err := it.dispatch(context.Background(), fakeCmd{}, "upper", map[string]value.Value{"0": value.OfString("hi")}, []string{"0"})
	require.NoError(t, err)
	assert.Equal(t, "SHOUTED", v.String())
	assert.Equal(t, []string{"UPPER"}, reg.calls)
}

func TestDispatchOperationWhenNotBuiltin(t *testing.T) {
	reg := newFakeRegistry()
	reg.operations["DO_THING"] = true
	it, _ := newTestInterp(t, WithFunctionRegistry(reg))

	_, err := it.dispatch(context.Background(), fakeCmd{}, "do_thing", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"DO_THING"}, reg.calls)
}

func TestDispatchAddressTargetHandlesUnknownCall(t *testing.T) {
	sender := &fakeSender{}
	it, _ := newTestInterp(t)
	it.addressTarget = "SYSTEM"
	it.addressHandlers["SYSTEM"] = sender

	v, err := it.dispatch(context.Background(), fakeCmd{}, "ls -la", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "sent", v.String())
	assert.Equal(t, "SYSTEM", sender.namespace)
}

func TestDispatchBrowserShimForwardsToAddressSender(t *testing.T) {
	sender := &fakeSender{}
	it, _ := newTestInterp(t, WithAddressSender(sender))

	_, err := it.dispatch(context.Background(), fakeCmd{}, "click", map[string]value.Value{"0": value.OfString("#btn")}, []string{"0"})
	require.NoError(t, err)
	assert.Equal(t, "browser", sender.namespace)
	assert.Contains(t, sender.method, "CLICK")
}

func TestDispatchMissingFunctionErrorsWithoutAddressSender(t *testing.T) {
	it, _ := newTestInterp(t)
	_, err := it.dispatch(context.Background(), fakeCmd{}, "nonexistent_call", nil, nil)
	require.Error(t, err)
	var fe *FunctionError
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.DocURL, "NONEXISTENT_CALL")
}

func TestDispatchFallsBackToRPCWhenAddressSenderConfigured(t *testing.T) {
	sender := &fakeSender{}
	it, _ := newTestInterp(t, WithAddressSender(sender))
	_, err := it.dispatch(context.Background(), fakeCmd{}, "remote_func", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "", sender.namespace)
	assert.Equal(t, "REMOTE_FUNC", sender.method)
}

func TestDispatchRequireRegistersLibraryAndAddressTargets(t *testing.T) {
	loader := &fakeLoader{
		reg: Registrations{
			Functions:      []string{"GREET"},
			AddressTargets: []AddressTargetRegistration{{Name: "GREETER", Handler: &fakeSender{}}},
		},
	}
	it, _ := newTestInterp(t, WithLibraryLoader(loader))

	v, err := it.dispatch(context.Background(), fakeCmd{}, "require", map[string]value.Value{"0": value.OfString("greetlib")}, []string{"0"})
	require.NoError(t, err)
	assert.True(t, v.Truthy())
	assert.Equal(t, "greetlib", loader.gotName)
	_, ok := it.addressHandlers["GREETER"]
	assert.True(t, ok)
}

type fakeLoader struct {
	reg     Registrations
	gotName string
	err     error
}

func (f *fakeLoader) Require(ctx context.Context, name, asClause string) (Registrations, error) {
	f.gotName = name
	if f.err != nil {
		return Registrations{}, f.err
	}
	return f.reg, nil
}
