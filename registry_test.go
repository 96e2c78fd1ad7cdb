package wyre

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_PutGet(t *testing.T) {
	r := NewRegistry()

	d := &Descriptor{Identifier: "db", Kind: KindFactory}
	require.NoError(t, r.Put(d))

	got, ok := r.Get("db")
	require.True(t, ok)
	assert.Same(t, d, got)

	_, ok = r.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_PutInvalidIdentifier(t *testing.T) {
	r := NewRegistry()

	assert.ErrorIs(t, r.Put(&Descriptor{}), ErrIdentifierNil)
	assert.ErrorIs(t, r.Put(&Descriptor{Identifier: []string{"not", "comparable"}}), ErrIdentifierNotComparable)
}

func TestRegistry_GetNonComparable(t *testing.T) {
	r := NewRegistry()

	// A non-comparable lookup must not panic the map access.
	_, ok := r.Get([]int{1, 2})
	assert.False(t, ok)
	_, ok = r.Get(nil)
	assert.False(t, ok)
}

func TestRegistry_GetOrCreate(t *testing.T) {
	r := NewRegistry()

	created, existed, err := r.GetOrCreate("svc", func() *Descriptor {
		return &Descriptor{Kind: KindType}
	})
	require.NoError(t, err)
	assert.False(t, existed)
	assert.Equal(t, "svc", created.Identifier)

	// The second call returns the same descriptor, never a replacement.
	again, existed, err := r.GetOrCreate("svc", func() *Descriptor {
		t.Fatal("create must not run for an existing identifier")
		return nil
	})
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Same(t, created, again)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_GetOrCreateInvalidIdentifier(t *testing.T) {
	r := NewRegistry()

	_, _, err := r.GetOrCreate(nil, func() *Descriptor { return &Descriptor{} })
	assert.ErrorIs(t, err, ErrIdentifierNil)

	_, _, err = r.GetOrCreate(map[string]int{}, func() *Descriptor { return &Descriptor{} })
	assert.ErrorIs(t, err, ErrIdentifierNotComparable)
}

func TestRegistry_AmendInPlace(t *testing.T) {
	r := NewRegistry()

	d, _, err := r.GetOrCreate("svc", func() *Descriptor { return &Descriptor{} })
	require.NoError(t, err)

	d.Kind = KindFactory
	d.Lifecycle = Transient

	got, ok := r.Get("svc")
	require.True(t, ok)
	assert.Equal(t, KindFactory, got.Kind)
	assert.Equal(t, Transient, got.Lifecycle)
}

func TestRegistry_Identifiers(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 5; i++ {
		require.NoError(t, r.Put(&Descriptor{Identifier: fmt.Sprintf("id%d", i)}))
	}

	ids := r.Identifiers()
	assert.Len(t, ids, 5)
	assert.ElementsMatch(t, []any{"id0", "id1", "id2", "id3", "id4"}, ids)
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("id%d", n%10)
			_, _, _ = r.GetOrCreate(id, func() *Descriptor { return &Descriptor{} })
			r.Get(id)
			r.Identifiers()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, r.Len())
}
