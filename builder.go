package wyre

import (
	"errors"
	"reflect"

	"github.com/wyredi/wyre/internal/reflection"
)

// DeclareOption configures a single declaration.
type DeclareOption interface {
	applyDeclareOption(*declareOptions)
}

type declareOptions struct {
	identifier   any
	lifecycle    Lifecycle
	hasLifecycle bool
}

type identifierOption struct{ identifier any }

func (o identifierOption) applyDeclareOption(opts *declareOptions) { opts.identifier = o.identifier }

// WithIdentifier sets an explicit identifier for the declared dependency.
// Parameters and members of primitive type require one, since a primitive
// type carries no unique registrable identity.
func WithIdentifier(identifier any) DeclareOption { return identifierOption{identifier} }

type lifecycleOption struct{ lifecycle Lifecycle }

func (o lifecycleOption) applyDeclareOption(opts *declareOptions) {
	opts.lifecycle = o.lifecycle
	opts.hasLifecycle = true
}

// WithLifecycle sets the lifecycle forwarded to the container for the
// declared dependency.
func WithLifecycle(lifecycle Lifecycle) DeclareOption { return lifecycleOption{lifecycle} }

// Builder translates declaration events into registry updates. It resolves
// implicit parameter dependencies from reflected type metadata and explicit
// overrides from supplied identifiers, upserting descriptors so that
// re-declaring a site amends the existing record in place.
type Builder struct {
	registry  *Registry
	reflector TypeReflector
}

// NewBuilder creates a Builder over the given registry and reflector. Nil
// arguments fall back to a fresh registry and the runtime reflector.
func NewBuilder(registry *Registry, reflector TypeReflector) *Builder {
	if registry == nil {
		registry = NewRegistry()
	}
	if reflector == nil {
		reflector = NewRuntimeReflector()
	}
	return &Builder{registry: registry, reflector: reflector}
}

// Registry returns the registry this builder writes into.
func (b *Builder) Registry() *Registry { return b.registry }

// DeclareRoot declares a constructible type or factory function as a
// dependency. The kind follows from the target: callables become factories,
// struct types (given as a type, value, or pointer prototype) become
// constructed types. Positional dependencies are filled from the reflected
// parameter sequence, skipping positions already explicitly annotated; a
// primitive-typed position stays a placeholder gap until a DeclareParameter
// call supplies its identifier.
func (b *Builder) DeclareRoot(target any, opts ...DeclareOption) (*Descriptor, error) {
	if target == nil {
		return nil, DeclarationError{Target: target, Cause: ErrTargetNil}
	}
	options := applyDeclareOptions(opts)

	kind := KindType
	if _, isType := target.(reflect.Type); !isType && reflect.ValueOf(target).Kind() == reflect.Func {
		kind = KindFactory
	}

	identifier, storedTarget, err := b.rootIdentity(target, kind, options)
	if err != nil {
		return nil, err
	}

	d, existed, err := b.registry.GetOrCreate(identifier, func() *Descriptor {
		return &Descriptor{Lifecycle: options.lifecycle}
	})
	if err != nil {
		return nil, DeclarationError{Target: target, Cause: err}
	}

	d.Target = storedTarget
	d.Kind = kind
	if options.hasLifecycle || !existed {
		d.Lifecycle = options.lifecycle
	}

	if err := b.fillImplicitDependencies(d, target); err != nil {
		return nil, err
	}

	return d, nil
}

// rootIdentity derives the identifier and stored target for a root
// declaration. Explicit identifiers win; otherwise factories fall back to
// their reflected return type and constructible types to their pointer
// type, which is what their producer yields.
func (b *Builder) rootIdentity(target any, kind Kind, options declareOptions) (any, any, error) {
	if kind == KindFactory {
		if options.identifier != nil {
			return options.identifier, target, nil
		}
		ret := b.reflector.ReturnType(target, "")
		if reflection.IsSimple(ret) {
			return nil, nil, MissingIdentifierError{Target: target, Type: ret, Index: -1}
		}
		return ret, target, nil
	}

	base := reflection.NormalizeType(target)
	if base == nil {
		return nil, nil, DeclarationError{Target: target, Cause: errors.New("target is not a constructible struct type")}
	}
	if options.identifier != nil {
		return options.identifier, base, nil
	}
	return reflect.PointerTo(base), base, nil
}

// fillImplicitDependencies fills positional children from the reflected
// parameter sequence. Existing entries (explicit annotations, possibly
// declared before this root) are preserved.
func (b *Builder) fillImplicitDependencies(d *Descriptor, target any) error {
	params := b.reflector.ParamTypes(target, "")
	if len(params) > len(d.Dependencies) {
		grown := make([]*Descriptor, len(params))
		copy(grown, d.Dependencies)
		d.Dependencies = grown
	}

	for i, paramType := range params {
		if d.Dependencies[i] != nil {
			continue
		}
		if reflection.IsSimple(paramType) {
			// No registrable identity; stays a gap until explicitly
			// annotated. Registration fails if it never is.
			continue
		}

		child, err := b.upsertChild(paramType, paramType, d.Lifecycle, false)
		if err != nil {
			return DeclarationError{Target: target, Cause: err}
		}
		d.Dependencies[i] = child
	}

	return nil
}

// DeclareParameter places an explicitly annotated parameter dependency at a
// positional index of the owning descriptor. A primitive-typed parameter
// without an explicit identifier fails with MissingIdentifierError.
func (b *Builder) DeclareParameter(owner *Descriptor, paramType reflect.Type, index int, opts ...DeclareOption) (*Descriptor, error) {
	if owner == nil {
		return nil, DeclarationError{Cause: errors.New("owning descriptor cannot be nil")}
	}
	if index < 0 {
		return nil, DeclarationError{Target: owner.Target, Cause: errors.New("parameter index cannot be negative")}
	}
	options := applyDeclareOptions(opts)

	identifier := options.identifier
	if identifier == nil {
		if reflection.IsSimple(paramType) {
			return nil, MissingIdentifierError{Target: owner.Target, Type: paramType, Index: index}
		}
		identifier = paramType
	}

	lifecycle := owner.Lifecycle
	if options.hasLifecycle {
		lifecycle = options.lifecycle
	}
	child, err := b.upsertChild(identifier, paramType, lifecycle, options.hasLifecycle)
	if err != nil {
		return nil, DeclarationError{Target: owner.Target, Cause: err}
	}

	if index >= len(owner.Dependencies) {
		grown := make([]*Descriptor, index+1)
		copy(grown, owner.Dependencies)
		owner.Dependencies = grown
	}
	owner.Dependencies[index] = child

	if owner.Identifier != nil {
		if err := b.registry.Put(owner); err != nil {
			return nil, DeclarationError{Target: owner.Target, Cause: err}
		}
	}

	return child, nil
}

// DeclareProperty declares a member of the owning target as an injectable
// property: an unordered child resolved after construction and assigned
// under memberKey. If the member currently holds a concrete value on the
// supplied prototype, that value is captured as a standalone INSTANCE
// dependency, immediately registered under its identifier and available to
// any other consumer.
//
// A property declaration never fills the owner's positional sequence: a
// member that also appears as a constructor position keeps its placeholder
// gap until DeclareParameter supplies it.
func (b *Builder) DeclareProperty(owner any, memberKey string, opts ...DeclareOption) (*Descriptor, error) {
	if owner == nil {
		return nil, DeclarationError{Target: owner, Cause: ErrTargetNil}
	}
	if memberKey == "" {
		return nil, DeclarationError{Target: owner, Cause: errors.New("member key cannot be empty")}
	}
	options := applyDeclareOptions(opts)

	base := reflection.NormalizeType(owner)
	if base == nil {
		return nil, DeclarationError{Target: owner, Cause: errors.New("owner is not a constructible struct type")}
	}

	ownerDesc, _, err := b.registry.GetOrCreate(reflect.PointerTo(base), func() *Descriptor {
		return &Descriptor{Target: base, Kind: KindType}
	})
	if err != nil {
		return nil, DeclarationError{Target: owner, Cause: err}
	}

	memberType := b.reflector.ReturnType(owner, memberKey)
	identifier := options.identifier
	if identifier == nil {
		if reflection.IsSimple(memberType) {
			return nil, MissingIdentifierError{Target: owner, Type: memberType, Index: -1, Member: memberKey}
		}
		identifier = memberType
	}

	lifecycle := ownerDesc.Lifecycle
	if options.hasLifecycle {
		lifecycle = options.lifecycle
	}

	var child *Descriptor
	if value, held := concreteMember(owner, memberKey); held {
		child, err = b.captureInstance(identifier, value, lifecycle)
	} else {
		child, err = b.upsertChild(identifier, memberType, lifecycle, options.hasLifecycle)
	}
	if err != nil {
		return nil, DeclarationError{Target: owner, Cause: err}
	}

	if existing, ok := ownerDesc.property(memberKey); ok {
		existing.Identifier = identifier
	} else {
		ownerDesc.Properties = append(ownerDesc.Properties, &Property{
			Identifier: identifier,
			MemberKey:  memberKey,
		})
	}

	return child, nil
}

// DeclareInstance declares a precomputed value as an INSTANCE dependency.
// Primitive values require an explicit identifier.
func (b *Builder) DeclareInstance(value any, opts ...DeclareOption) (*Descriptor, error) {
	if value == nil {
		return nil, DeclarationError{Target: value, Cause: ErrTargetNil}
	}
	options := applyDeclareOptions(opts)

	identifier := options.identifier
	if identifier == nil {
		t := reflect.TypeOf(value)
		if reflection.IsSimple(t) {
			return nil, MissingIdentifierError{Target: value, Type: t, Index: -1}
		}
		identifier = t
	}

	d, err := b.captureInstance(identifier, value, options.lifecycle)
	if err != nil {
		return nil, DeclarationError{Target: value, Cause: err}
	}
	return d, nil
}

// IdentifierFor derives the registry identifier a declaration of target
// (optionally at memberKey) would use, without declaring anything. Targets
// that are themselves valid identifiers resolve as-is.
func (b *Builder) IdentifierFor(target any, memberKey string) (any, error) {
	if target == nil {
		return nil, ErrTargetNil
	}
	if memberKey != "" {
		t := b.reflector.ReturnType(target, memberKey)
		if t == nil {
			return nil, ErrMemberUnknown
		}
		return t, nil
	}

	if _, ok := b.registry.Get(target); ok {
		return target, nil
	}

	if _, isType := target.(reflect.Type); !isType && reflect.ValueOf(target).Kind() == reflect.Func {
		ret := b.reflector.ReturnType(target, "")
		if ret == nil {
			return nil, ErrNotDeclared
		}
		return ret, nil
	}

	if base := reflection.NormalizeType(target); base != nil {
		return reflect.PointerTo(base), nil
	}
	return target, nil
}

// upsertChild fetches or creates the descriptor a child entry points at. A
// descriptor already declared under the identifier is reused untouched
// (except for an explicitly supplied lifecycle); otherwise a placeholder is
// stored, to be amended when its own declaration arrives.
func (b *Builder) upsertChild(identifier any, placeholderType reflect.Type, lifecycle Lifecycle, hasLifecycle bool) (*Descriptor, error) {
	child, existed, err := b.registry.GetOrCreate(identifier, func() *Descriptor {
		var target any
		if placeholderType != nil {
			if base := reflection.NormalizeType(placeholderType); base != nil {
				target = base
			} else {
				target = placeholderType
			}
		}
		return &Descriptor{Target: target, Kind: KindType, Lifecycle: lifecycle}
	})
	if err != nil {
		return nil, err
	}
	if existed && hasLifecycle {
		child.Lifecycle = lifecycle
	}
	return child, nil
}

// captureInstance upserts an INSTANCE descriptor holding a concrete value.
func (b *Builder) captureInstance(identifier any, value any, lifecycle Lifecycle) (*Descriptor, error) {
	d, _, err := b.registry.GetOrCreate(identifier, func() *Descriptor {
		return &Descriptor{}
	})
	if err != nil {
		return nil, err
	}

	d.Target = value
	d.Kind = KindInstance
	d.Lifecycle = lifecycle
	return d, nil
}

// concreteMember reports whether the owner prototype is a live instance
// whose member currently holds a non-zero value.
func concreteMember(owner any, memberKey string) (any, bool) {
	if _, isType := owner.(reflect.Type); isType {
		return nil, false
	}
	v := reflect.ValueOf(owner)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return nil, false
	}
	return reflection.Member(owner, memberKey)
}

func applyDeclareOptions(opts []DeclareOption) declareOptions {
	options := declareOptions{lifecycle: Singleton}
	for _, opt := range opts {
		if opt != nil {
			opt.applyDeclareOption(&options)
		}
	}
	return options
}
