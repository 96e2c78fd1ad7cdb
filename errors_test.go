package wyre

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errFixture struct {
	Name string
}

func TestMissingIdentifierError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  MissingIdentifierError
		want []string
	}{
		{
			name: "parameter",
			err:  MissingIdentifierError{Target: &errFixture{}, Type: reflect.TypeOf(""), Index: 1},
			want: []string{"parameter 1", "errFixture", "string"},
		},
		{
			name: "member",
			err:  MissingIdentifierError{Target: &errFixture{}, Type: reflect.TypeOf(0), Index: -1, Member: "Port"},
			want: []string{`member "Port"`, "int"},
		},
		{
			name: "return value",
			err:  MissingIdentifierError{Target: &errFixture{}, Type: reflect.TypeOf(true), Index: -1},
			want: []string{"return value", "bool"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, fragment := range tt.want {
				assert.Contains(t, msg, fragment)
			}
		})
	}
}

func TestWrappingErrors_Unwrap(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name string
		err  error
	}{
		{"declaration", DeclarationError{Target: &errFixture{}, Cause: cause}},
		{"registration", RegistrationError{Identifier: "db", Operation: "register factory", Cause: cause}},
		{"resolution", ResolutionError{Identifier: "db", Cause: cause}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, cause)
			assert.Contains(t, tt.err.Error(), "boom")
		})
	}
}

func TestRegistrationError_SentinelCauses(t *testing.T) {
	err := RegistrationError{Identifier: "x", Operation: "register", Cause: ErrContainerNil}
	assert.ErrorIs(t, err, ErrContainerNil)

	err = RegistrationError{Identifier: "x", Operation: "look up", Cause: ErrNotDeclared}
	assert.ErrorIs(t, err, ErrNotDeclared)
}

func TestResolutionError_WrapsCircularDependency(t *testing.T) {
	cyc := &CircularDependencyError{Identifier: "a", Path: []any{"a", "b", "a"}}
	err := ResolutionError{Identifier: "a", Cause: cyc}

	var target *CircularDependencyError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, []any{"a", "b", "a"}, target.Path)
}

func TestUnknownKindError_Error(t *testing.T) {
	err := UnknownKindError{Identifier: "svc", Kind: Kind(42)}
	assert.Contains(t, err.Error(), "42")
	assert.Contains(t, err.Error(), `"svc"`)
}

func TestAlreadyRegisteredError_Error(t *testing.T) {
	err := AlreadyRegisteredError{Identifier: reflect.TypeOf(&errFixture{})}
	assert.Contains(t, err.Error(), "*errFixture")
	assert.Contains(t, err.Error(), "already registered")
}

func TestFormatIdentifier(t *testing.T) {
	assert.Equal(t, "<nil>", formatIdentifier(nil))
	assert.Equal(t, `"db"`, formatIdentifier("db"))
	assert.Equal(t, "*errFixture", formatIdentifier(reflect.TypeOf(&errFixture{})))
	assert.Equal(t, "errFixture", formatIdentifier(reflect.TypeOf(errFixture{})))
	assert.Equal(t, "42", formatIdentifier(42))
}

func TestFormatTarget(t *testing.T) {
	assert.Equal(t, "<nil>", formatTarget(nil))
	assert.Equal(t, "*errFixture", formatTarget(&errFixture{}))
	assert.Equal(t, "errFixture", formatTarget(reflect.TypeOf(errFixture{})))
}
