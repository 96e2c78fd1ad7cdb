package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wyredi/wyre"
)

// MustInject resolves a handle and asserts the value has the expected type.
func MustInject[T any](t *testing.T, ctx context.Context, handle wyre.Handle) T {
	t.Helper()
	require.NotNil(t, handle, "handle is nil")
	value, err := handle.Inject(ctx)
	require.NoError(t, err, "injection failed")
	typed, ok := value.(T)
	require.True(t, ok, "injected value is %T, expected %T", value, *new(T))
	return typed
}

// MustGetDep looks up an identifier on a container and fails the test if
// nothing is registered under it.
func MustGetDep(t *testing.T, container wyre.Container, identifier any) wyre.Handle {
	t.Helper()
	handle := container.GetDep(identifier)
	require.NotNil(t, handle, "no registration for identifier %v", identifier)
	return handle
}

// RequireNotRegistered asserts an identifier has no registration.
func RequireNotRegistered(t *testing.T, container wyre.Container, identifier any) {
	t.Helper()
	require.Nil(t, container.GetDep(identifier), "unexpected registration for identifier %v", identifier)
}
