package wyre

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind_String(t *testing.T) {
	assert.Equal(t, "Type", KindType.String())
	assert.Equal(t, "Factory", KindFactory.String())
	assert.Equal(t, "Instance", KindInstance.String())
	assert.Equal(t, "Unknown(99)", Kind(99).String())
}

func TestLifecycle_String(t *testing.T) {
	assert.Equal(t, "Singleton", Singleton.String())
	assert.Equal(t, "Transient", Transient.String())
}

func TestLifecycle_IsValid(t *testing.T) {
	assert.True(t, Singleton.IsValid())
	assert.True(t, Transient.IsValid())
	assert.False(t, Lifecycle(99).IsValid())
}

func TestDescriptor_DependencyIdentifiers(t *testing.T) {
	d := &Descriptor{Identifier: "root"}
	assert.Nil(t, d.DependencyIdentifiers())

	d.Dependencies = []*Descriptor{
		{Identifier: "a"},
		nil,
		{Identifier: "b"},
	}

	// Placeholder gaps keep their position as nil entries.
	assert.Equal(t, []any{"a", nil, "b"}, d.DependencyIdentifiers())
}

func TestDescriptor_PropertyIdentifiers(t *testing.T) {
	d := &Descriptor{Identifier: "root"}
	assert.Nil(t, d.PropertyIdentifiers())

	d.Properties = []*Property{
		{Identifier: "logger", MemberKey: "Logger"},
		{Identifier: "cache", MemberKey: "Cache"},
	}
	assert.Equal(t, []any{"logger", "cache"}, d.PropertyIdentifiers())
}

func TestDescriptor_PropertyLookup(t *testing.T) {
	d := &Descriptor{
		Properties: []*Property{{Identifier: "cache", MemberKey: "Cache"}},
	}

	prop, ok := d.property("Cache")
	assert.True(t, ok)
	assert.Equal(t, "cache", prop.Identifier)

	_, ok = d.property("Missing")
	assert.False(t, ok)
}

func TestDescriptor_String(t *testing.T) {
	d := &Descriptor{
		Identifier:   "svc",
		Kind:         KindFactory,
		Lifecycle:    Transient,
		Dependencies: []*Descriptor{{Identifier: "db"}},
	}

	s := d.String()
	assert.Contains(t, s, `"svc"`)
	assert.Contains(t, s, "Factory")
	assert.Contains(t, s, "Transient")
	assert.Contains(t, s, "deps:1")
}
