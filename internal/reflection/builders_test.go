package reflection

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type builtService struct {
	Name string
	Dep  *analyzedDep
}

func TestConstruct(t *testing.T) {
	dep := &analyzedDep{Value: 7}

	instance, err := Construct(reflect.TypeOf(builtService{}), []any{"svc", dep})
	require.NoError(t, err)

	svc, ok := instance.(*builtService)
	require.True(t, ok)
	assert.Equal(t, "svc", svc.Name)
	assert.Same(t, dep, svc.Dep)
}

func TestConstruct_PartialArgs(t *testing.T) {
	// Fewer values than fields leaves the remainder zero.
	instance, err := Construct(reflect.TypeOf(builtService{}), []any{"svc"})
	require.NoError(t, err)

	svc := instance.(*builtService)
	assert.Equal(t, "svc", svc.Name)
	assert.Nil(t, svc.Dep)
}

func TestConstruct_Errors(t *testing.T) {
	_, err := Construct(nil, nil)
	assert.Error(t, err)

	_, err = Construct(reflect.TypeOf(0), nil)
	assert.Error(t, err)

	_, err = Construct(reflect.TypeOf(builtService{}), []any{"a", nil, "too many"})
	assert.Error(t, err)

	_, err = Construct(reflect.TypeOf(builtService{}), []any{"a", 42})
	assert.Error(t, err, "int is not assignable to a pointer field")
}

func TestConstruct_NilArgForNilableField(t *testing.T) {
	instance, err := Construct(reflect.TypeOf(builtService{}), []any{"svc", nil})
	require.NoError(t, err)
	assert.Nil(t, instance.(*builtService).Dep)
}

func TestSetMember(t *testing.T) {
	svc := &builtService{}
	dep := &analyzedDep{Value: 3}

	require.NoError(t, SetMember(svc, "Dep", dep))
	assert.Same(t, dep, svc.Dep)

	require.NoError(t, SetMember(svc, "Name", "patched"))
	assert.Equal(t, "patched", svc.Name)
}

func TestSetMember_Errors(t *testing.T) {
	assert.Error(t, SetMember(builtService{}, "Name", "x"), "non-pointer instance")
	assert.Error(t, SetMember(&builtService{}, "Nope", "x"))
	assert.Error(t, SetMember(&builtService{}, "Dep", "not a dep"))
	assert.Error(t, SetMember(42, "Name", "x"))
}

func TestMember(t *testing.T) {
	svc := &builtService{Name: "svc"}

	value, ok := Member(svc, "Name")
	require.True(t, ok)
	assert.Equal(t, "svc", value)

	// Zero values read as absent.
	_, ok = Member(svc, "Dep")
	assert.False(t, ok)

	_, ok = Member(svc, "Nope")
	assert.False(t, ok)

	_, ok = Member("not a struct", "Name")
	assert.False(t, ok)
}

func TestInvoke(t *testing.T) {
	dep := &analyzedDep{Value: 1}

	result, err := Invoke(func(d *analyzedDep, name string) *builtService {
		return &builtService{Name: name, Dep: d}
	}, []any{dep, "svc"})
	require.NoError(t, err)

	svc := result.(*builtService)
	assert.Equal(t, "svc", svc.Name)
	assert.Same(t, dep, svc.Dep)
}

func TestInvoke_ErrorReturn(t *testing.T) {
	boom := errors.New("boom")

	_, err := Invoke(func() (*builtService, error) { return nil, boom }, nil)
	assert.ErrorIs(t, err, boom)

	result, err := Invoke(func() (*builtService, error) { return &builtService{Name: "ok"}, nil }, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", result.(*builtService).Name)
}

func TestInvoke_OnlyError(t *testing.T) {
	result, err := Invoke(func() error { return nil }, nil)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestInvoke_PanicRecovered(t *testing.T) {
	_, err := Invoke(func() *builtService { panic("kaboom") }, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestInvoke_Errors(t *testing.T) {
	_, err := Invoke("not a func", nil)
	assert.Error(t, err)

	_, err = Invoke(func(a, b string) {}, []any{"only one"})
	assert.Error(t, err)

	_, err = Invoke(func(n int) {}, []any{"not an int"})
	assert.Error(t, err)
}
