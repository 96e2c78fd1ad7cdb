package wyre

import "fmt"

// Kind identifies the resolution strategy a descriptor registers under.
type Kind int

const (
	// KindType produces the value by constructing the target struct type and
	// injecting its positional and property dependencies.
	KindType Kind = iota

	// KindFactory produces the value by invoking the target function with
	// its resolved positional dependencies.
	KindFactory

	// KindInstance registers a precomputed value directly. Instances do not
	// undergo further injection.
	KindInstance
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindType:
		return "Type"
	case KindFactory:
		return "Factory"
	case KindInstance:
		return "Instance"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Descriptor is the metadata record describing one injectable dependency:
// its identity, production strategy, lifecycle, and children. Descriptors
// are created at declaration time, amended in place by later declarations
// touching the same site, and consumed during graph registration. They are
// never removed from their registry.
type Descriptor struct {
	// Identifier addresses the dependency within the registry and the
	// container. It is an explicit value supplied at declaration, or the
	// target's reflected type when none was given. Stable once assigned.
	Identifier any

	// Target is the underlying constructible type (KindType), the bound
	// factory function (KindFactory), or the captured value (KindInstance).
	Target any

	// Kind selects the resolution strategy.
	Kind Kind

	// Lifecycle is forwarded opaquely to the container.
	Lifecycle Lifecycle

	// Dependencies are the positional children for constructor/factory
	// parameters, indexed by parameter position. A nil entry is a
	// placeholder for a parameter whose identifier is not yet known;
	// registration fails while gaps remain.
	Dependencies []*Descriptor

	// Properties are the unordered property-style children assigned onto a
	// constructed instance after positional construction.
	Properties []*Property
}

// Property references a dependency to be assigned onto a constructed
// instance under a named member. The dependency itself lives in the
// registry under Identifier; the reference only binds it to a member.
type Property struct {
	// Identifier addresses the dependency supplying the member's value.
	Identifier any

	// MemberKey names the member the resolved value is assigned to.
	MemberKey string
}

// DependencyIdentifiers returns the identifiers of the positional children,
// in parameter order. Placeholder gaps yield nil entries.
func (d *Descriptor) DependencyIdentifiers() []any {
	if len(d.Dependencies) == 0 {
		return nil
	}

	ids := make([]any, len(d.Dependencies))
	for i, dep := range d.Dependencies {
		if dep != nil {
			ids[i] = dep.Identifier
		}
	}
	return ids
}

// PropertyIdentifiers returns the identifiers of the property children.
func (d *Descriptor) PropertyIdentifiers() []any {
	if len(d.Properties) == 0 {
		return nil
	}

	ids := make([]any, len(d.Properties))
	for i, prop := range d.Properties {
		ids[i] = prop.Identifier
	}
	return ids
}

// property returns the property reference bound to a member, if any.
func (d *Descriptor) property(memberKey string) (*Property, bool) {
	for _, prop := range d.Properties {
		if prop.MemberKey == memberKey {
			return prop, true
		}
	}
	return nil, false
}

// String returns a short representation for logs and errors.
func (d *Descriptor) String() string {
	return fmt.Sprintf("Descriptor{%s, %s, %s, deps:%d, props:%d}",
		formatIdentifier(d.Identifier), d.Kind, d.Lifecycle, len(d.Dependencies), len(d.Properties))
}
