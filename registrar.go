package wyre

import (
	"context"
	"fmt"
	"reflect"

	"golang.org/x/sync/errgroup"

	"github.com/wyredi/wyre/internal/reflection"
)

// Registrar walks a root descriptor's transitive dependency closure and
// registers every not-yet-registered node with a container under the
// strategy its kind dictates. It holds no state beyond the work list of a
// single traversal, so it is reentrant across independent roots.
//
// Strict topological order is not needed: the container resolves lazily by
// identifier, so the traversal only guarantees that every referenced
// identifier is registered before the session resolves the root.
type Registrar struct {
	registry *Registry
}

// NewRegistrar creates a Registrar reading from the given registry.
func NewRegistrar(registry *Registry) *Registrar {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Registrar{registry: registry}
}

// Register seeds an explicit LIFO work list with the root and drains it.
// Sibling order is immaterial; a descriptor whose identifier the container
// already holds is skipped, which keeps shared dependencies reachable via
// multiple paths from being registered twice.
func (g *Registrar) Register(ctx context.Context, container Container, root *Descriptor) error {
	if container == nil {
		return RegistrationError{Operation: "register", Cause: ErrContainerNil}
	}
	if root == nil {
		return RegistrationError{Operation: "register", Cause: ErrNotDeclared}
	}

	work := []*Descriptor{root}
	for len(work) > 0 {
		d := work[len(work)-1]
		work = work[:len(work)-1]

		// Idempotent re-entry guard.
		if container.GetDep(d.Identifier) != nil {
			continue
		}

		var err error
		if work, err = g.pushChildren(work, d); err != nil {
			return err
		}

		switch d.Kind {
		case KindFactory:
			err = container.RegisterFactory(d.Identifier, g.factoryProducer(d), d.DependencyIdentifiers(), d.Lifecycle)
			if err != nil {
				return RegistrationError{Identifier: d.Identifier, Operation: "register factory", Cause: err}
			}
		case KindInstance:
			err = container.RegisterInstance(d.Identifier, d.Target, d.DependencyIdentifiers(), d.Lifecycle)
			if err != nil {
				return RegistrationError{Identifier: d.Identifier, Operation: "register instance", Cause: err}
			}
		case KindType:
			err = container.RegisterFactory(d.Identifier, g.typeProducer(container, d), d.DependencyIdentifiers(), d.Lifecycle)
			if err != nil {
				return RegistrationError{Identifier: d.Identifier, Operation: "register type", Cause: err}
			}
		default:
			return UnknownKindError{Identifier: d.Identifier, Kind: d.Kind}
		}
	}

	return nil
}

// pushChildren appends every child descriptor to the work list. A gap in
// the positional sequence of a constructed or factory descriptor means a
// parameter never resolved to an identifier, which fails registration.
func (g *Registrar) pushChildren(work []*Descriptor, d *Descriptor) ([]*Descriptor, error) {
	for i, dep := range d.Dependencies {
		if dep == nil {
			if d.Kind == KindInstance {
				continue
			}
			return nil, MissingIdentifierError{Target: d.Target, Index: i}
		}
		work = append(work, dep)
	}

	for _, prop := range d.Properties {
		child, ok := g.registry.Get(prop.Identifier)
		if !ok {
			return nil, RegistrationError{Identifier: prop.Identifier, Operation: "look up property dependency", Cause: ErrNotDeclared}
		}
		work = append(work, child)
	}

	return work, nil
}

// factoryProducer wraps a factory descriptor's target function.
func (g *Registrar) factoryProducer(d *Descriptor) Producer {
	identifier, target := d.Identifier, d.Target
	return func(_ context.Context, deps []any) (any, error) {
		value, err := reflection.Invoke(target, deps)
		if err != nil {
			return nil, ResolutionError{Identifier: identifier, Cause: err}
		}
		return value, nil
	}
}

// typeProducer builds the two-phase producer for a constructed type: build
// the base instance from its positional dependencies, then resolve every
// property dependency concurrently and apply the member patch once all of
// them have completed. A failure in either phase fails the whole produced
// value; a partially patched instance never escapes.
func (g *Registrar) typeProducer(container Container, d *Descriptor) Producer {
	identifier := d.Identifier
	structType, _ := d.Target.(reflect.Type)

	return func(ctx context.Context, deps []any) (any, error) {
		if structType == nil || structType.Kind() != reflect.Struct {
			return nil, ResolutionError{
				Identifier: identifier,
				Cause:      fmt.Errorf("target %s is not constructible", formatTarget(d.Target)),
			}
		}

		instance, err := reflection.Construct(structType, deps)
		if err != nil {
			return nil, ResolutionError{Identifier: identifier, Cause: err}
		}

		// Properties are looked up by identifier at production time, not
		// registration time, so members declared after this node was
		// registered still apply.
		current, ok := g.registry.Get(identifier)
		if !ok || len(current.Properties) == 0 {
			return instance, nil
		}

		props := current.Properties
		values := make([]any, len(props))

		eg, egCtx := errgroup.WithContext(ctx)
		for i, prop := range props {
			i, prop := i, prop
			eg.Go(func() error {
				handle := container.GetDep(prop.Identifier)
				if handle == nil {
					return ResolutionError{Identifier: prop.Identifier, Cause: ErrNotRegistered}
				}
				value, err := handle.Inject(egCtx)
				if err != nil {
					return err
				}
				values[i] = value
				return nil
			})
		}

		// All-or-nothing barrier: the member patch is applied only after
		// every property resolution has completed.
		if err := eg.Wait(); err != nil {
			return nil, err
		}

		for i, prop := range props {
			if err := reflection.SetMember(instance, prop.MemberKey, values[i]); err != nil {
				return nil, ResolutionError{Identifier: identifier, Cause: err}
			}
		}

		return instance, nil
	}
}

// childIdentifiers reports the child identifiers of a declared identifier,
// positional and property alike. Used by the session's cycle check.
func (g *Registrar) childIdentifiers(identifier any) []any {
	d, ok := g.registry.Get(identifier)
	if !ok {
		return nil
	}

	ids := make([]any, 0, len(d.Dependencies)+len(d.Properties))
	for _, dep := range d.Dependencies {
		if dep != nil {
			ids = append(ids, dep.Identifier)
		}
	}
	for _, prop := range d.Properties {
		ids = append(ids, prop.Identifier)
	}
	return ids
}
