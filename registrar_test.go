package wyre_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyredi/wyre"
	"github.com/wyredi/wyre/internal/testutil"
)

func declareDiamond(t *testing.T, b *wyre.Builder) *wyre.Descriptor {
	t.Helper()

	root, err := b.DeclareRoot(&testutil.Service{})
	require.NoError(t, err)
	_, err = b.DeclareRoot(&testutil.Database{})
	require.NoError(t, err)
	_, err = b.DeclareRoot(&testutil.Cache{})
	require.NoError(t, err)
	_, err = b.DeclareInstance(&testutil.Config{DSN: "postgres://localhost"})
	require.NoError(t, err)

	return root
}

func TestRegister_Diamond(t *testing.T) {
	b := wyre.NewBuilder(nil, nil)
	root := declareDiamond(t, b)

	g := wyre.NewRegistrar(b.Registry())
	container := testutil.NewRecordingContainer("test")
	require.NoError(t, g.Register(context.Background(), container, root))

	// Config is reachable through both Database and Cache but must register
	// exactly once.
	assert.Equal(t, 1, container.Count(reflect.TypeOf(&testutil.Config{})))
	assert.Equal(t, 1, container.Count(reflect.TypeOf(&testutil.Database{})))
	assert.Equal(t, 1, container.Count(reflect.TypeOf(&testutil.Cache{})))
	assert.Equal(t, 1, container.Count(reflect.TypeOf(&testutil.Service{})))
	assert.Len(t, container.Records(), 4)
}

func TestRegister_Reentrant(t *testing.T) {
	b := wyre.NewBuilder(nil, nil)
	root := declareDiamond(t, b)

	g := wyre.NewRegistrar(b.Registry())
	container := testutil.NewRecordingContainer("test")
	require.NoError(t, g.Register(context.Background(), container, root))

	// A second pass over the same root is a no-op.
	require.NoError(t, g.Register(context.Background(), container, root))
	assert.Len(t, container.Records(), 4)
}

func TestRegister_KindsAndArguments(t *testing.T) {
	b := wyre.NewBuilder(nil, nil)

	cfg := &testutil.Config{DSN: "live"}
	_, err := b.DeclareInstance(cfg)
	require.NoError(t, err)
	root, err := b.DeclareRoot(testutil.NewDatabase)
	require.NoError(t, err)

	g := wyre.NewRegistrar(b.Registry())
	container := testutil.NewRecordingContainer("test")
	require.NoError(t, g.Register(context.Background(), container, root))

	var factory, instance *testutil.Registration
	for _, r := range container.Records() {
		r := r
		switch r.Kind {
		case "factory":
			factory = &r
		case "instance":
			instance = &r
		}
	}

	require.NotNil(t, factory)
	assert.Equal(t, reflect.TypeOf(&testutil.Database{}), factory.Identifier)
	assert.Equal(t, []any{reflect.TypeOf(&testutil.Config{})}, factory.Deps)

	require.NotNil(t, instance)
	assert.Same(t, cfg, instance.Value)
}

func TestRegister_GapFailsRegistration(t *testing.T) {
	b := wyre.NewBuilder(nil, nil)

	// The string parameter was never annotated, so the descriptor keeps a
	// placeholder gap that registration must reject.
	root, err := b.DeclareRoot(func(cfg *testutil.Config, dsn string) *testutil.Database {
		return &testutil.Database{Config: cfg}
	})
	require.NoError(t, err)

	g := wyre.NewRegistrar(b.Registry())
	container := testutil.NewRecordingContainer("test")

	err = g.Register(context.Background(), container, root)
	var missing wyre.MissingIdentifierError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, 1, missing.Index)
}

func TestRegister_UndeclaredPropertyFails(t *testing.T) {
	b := wyre.NewBuilder(nil, nil)

	root, err := b.DeclareRoot(&testutil.Config{})
	require.NoError(t, err)
	root.Dependencies = nil
	root.Properties = []*wyre.Property{{Identifier: "ghost", MemberKey: "DSN"}}

	g := wyre.NewRegistrar(b.Registry())
	container := testutil.NewRecordingContainer("test")

	err = g.Register(context.Background(), container, root)
	assert.ErrorIs(t, err, wyre.ErrNotDeclared)
}

func TestRegister_UnknownKind(t *testing.T) {
	b := wyre.NewBuilder(nil, nil)

	root, err := b.DeclareRoot(&testutil.Config{})
	require.NoError(t, err)
	root.Dependencies = nil
	root.Kind = wyre.Kind(99)

	g := wyre.NewRegistrar(b.Registry())
	container := testutil.NewRecordingContainer("test")

	err = g.Register(context.Background(), container, root)
	var unknown wyre.UnknownKindError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, wyre.Kind(99), unknown.Kind)
}

func TestRegister_NilArguments(t *testing.T) {
	g := wyre.NewRegistrar(wyre.NewRegistry())

	err := g.Register(context.Background(), nil, &wyre.Descriptor{Identifier: "x"})
	assert.ErrorIs(t, err, wyre.ErrContainerNil)

	err = g.Register(context.Background(), testutil.NewRecordingContainer("test"), nil)
	assert.ErrorIs(t, err, wyre.ErrNotDeclared)
}

func TestRegister_PropertyLeavesPositionalGap(t *testing.T) {
	b := wyre.NewBuilder(nil, nil)
	g := wyre.NewRegistrar(b.Registry())
	container := testutil.NewRecordingContainer("test")

	root, err := b.DeclareRoot(&testutil.Config{})
	require.NoError(t, err)
	_, err = b.DeclareProperty(&testutil.Config{}, "DSN", wyre.WithIdentifier("dsn"))
	require.NoError(t, err)
	_, err = b.DeclareInstance("postgres://localhost", wyre.WithIdentifier("dsn"))
	require.NoError(t, err)

	// The property names the same member as position 0, but positional gaps
	// are only closed by DeclareParameter.
	err = g.Register(context.Background(), container, root)
	var missing wyre.MissingIdentifierError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, 0, missing.Index)

	_, err = b.DeclareParameter(root, reflect.TypeOf(""), 0, wyre.WithIdentifier("dsn"))
	require.NoError(t, err)
	require.NoError(t, g.Register(context.Background(), container, root))
}

func TestRegister_InstanceGapsAllowed(t *testing.T) {
	b := wyre.NewBuilder(nil, nil)

	// Instances never construct, so leftover positional gaps on them are
	// harmless metadata.
	d, err := b.DeclareInstance(&testutil.Config{DSN: "live"})
	require.NoError(t, err)
	d.Dependencies = []*wyre.Descriptor{nil}

	g := wyre.NewRegistrar(b.Registry())
	container := testutil.NewRecordingContainer("test")
	require.NoError(t, g.Register(context.Background(), container, d))
	assert.Len(t, container.Records(), 1)
}
