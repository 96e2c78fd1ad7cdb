package wyre

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/dig"
)

var (
	anyType   = reflect.TypeOf((*any)(nil)).Elem()
	errorType = reflect.TypeOf((*error)(nil)).Elem()
	digInType = reflect.TypeOf(dig.In{})
)

// digNestedKey marks a context as belonging to a resolution already running
// inside a dig invocation. Nested resolutions bypass dig and produce
// directly, since dig invocations do not nest.
type digNestedKey struct{}

// digContainer adapts go.uber.org/dig to the Container interface. Each
// registration becomes a dig provider of type any under a generated name;
// handles extract values through generated extraction functions, the same
// way keyed services are pulled out of a dig scope.
//
// dig memoizes every provider, so Transient registrations skip dig and
// re-invoke their producer on each Inject.
type digContainer struct {
	name string

	// regMu guards the registration and key maps; invokeMu serializes dig
	// Provide/Invoke calls, which are not safe for concurrent use.
	regMu         sync.RWMutex
	invokeMu      sync.Mutex
	container     *dig.Container
	registrations map[any]*digRegistration
	keys          map[any]string
	nextKey       int
	resolveCtx    context.Context
}

// NewDigContainer creates a dig-backed Container. An empty name gets a
// generated one.
func NewDigContainer(name string) Container {
	if name == "" {
		name = uuid.NewString()
	}
	return &digContainer{
		name:          name,
		container:     dig.New(),
		registrations: make(map[any]*digRegistration),
		keys:          make(map[any]string),
	}
}

func (c *digContainer) Name() string { return c.name }

// keyFor assigns a stable per-container dig provider name to an identifier.
// Callers must hold regMu.
func (c *digContainer) keyFor(identifier any) string {
	if key, ok := c.keys[identifier]; ok {
		return key
	}
	c.nextKey++
	key := fmt.Sprintf("wyre%d", c.nextKey)
	c.keys[identifier] = key
	return key
}

func (c *digContainer) RegisterFactory(identifier any, producer Producer, depIdentifiers []any, lifecycle Lifecycle) error {
	if producer == nil {
		return RegistrationError{Identifier: identifier, Operation: "register factory", Cause: ErrTargetNil}
	}

	reg, err := c.addRegistration(identifier, producer, depIdentifiers, lifecycle)
	if err != nil {
		return err
	}

	constructor := c.buildConstructor(reg)
	c.invokeMu.Lock()
	err = c.container.Provide(constructor, dig.Name(reg.key))
	c.invokeMu.Unlock()
	if err != nil {
		c.removeRegistration(identifier)
		return RegistrationError{Identifier: identifier, Operation: "register factory", Cause: err}
	}
	return nil
}

func (c *digContainer) RegisterInstance(identifier any, value any, depIdentifiers []any, lifecycle Lifecycle) error {
	reg, err := c.addRegistration(identifier, nil, depIdentifiers, lifecycle)
	if err != nil {
		return err
	}
	reg.value = value
	reg.resolved = true

	c.invokeMu.Lock()
	err = c.container.Provide(func() any { return value }, dig.Name(reg.key))
	c.invokeMu.Unlock()
	if err != nil {
		c.removeRegistration(identifier)
		return RegistrationError{Identifier: identifier, Operation: "register instance", Cause: err}
	}
	return nil
}

func (c *digContainer) GetDep(identifier any) Handle {
	if !isComparable(identifier) {
		return nil
	}

	c.regMu.RLock()
	defer c.regMu.RUnlock()

	reg, ok := c.registrations[identifier]
	if !ok {
		return nil
	}
	return reg
}

func (c *digContainer) addRegistration(identifier any, producer Producer, deps []any, lifecycle Lifecycle) (*digRegistration, error) {
	if identifier == nil {
		return nil, RegistrationError{Operation: "register", Cause: ErrIdentifierNil}
	}
	if !isComparable(identifier) {
		return nil, RegistrationError{Identifier: identifier, Operation: "register", Cause: ErrIdentifierNotComparable}
	}
	if !lifecycle.IsValid() {
		lifecycle = Singleton
	}

	c.regMu.Lock()
	defer c.regMu.Unlock()

	if _, ok := c.registrations[identifier]; ok {
		return nil, AlreadyRegisteredError{Identifier: identifier}
	}

	reg := &digRegistration{
		container:  c,
		identifier: identifier,
		key:        c.keyFor(identifier),
		producer:   producer,
		deps:       deps,
		lifecycle:  lifecycle,
	}
	c.registrations[identifier] = reg
	return reg, nil
}

func (c *digContainer) removeRegistration(identifier any) {
	c.regMu.Lock()
	delete(c.registrations, identifier)
	c.regMu.Unlock()
}

// buildConstructor generates the dig provider for a registration: a
// function taking a parameter object whose any-typed fields name the
// registration's dependencies, returning (any, error).
func (c *digContainer) buildConstructor(reg *digRegistration) any {
	fields := make([]reflect.StructField, 0, len(reg.deps)+1)
	fields = append(fields, reflect.StructField{
		Name:      "In",
		Type:      digInType,
		Anonymous: true,
	})

	c.regMu.Lock()
	for i, dep := range reg.deps {
		fields = append(fields, reflect.StructField{
			Name: fmt.Sprintf("Dep%d", i),
			Type: anyType,
			Tag:  reflect.StructTag(fmt.Sprintf(`name:%q`, c.keyFor(dep))),
		})
	}
	c.regMu.Unlock()

	paramType := reflect.StructOf(fields)
	fnType := reflect.FuncOf([]reflect.Type{paramType}, []reflect.Type{anyType, errorType}, false)

	fn := reflect.MakeFunc(fnType, func(args []reflect.Value) []reflect.Value {
		resolved := make([]any, len(reg.deps))
		for i := range reg.deps {
			resolved[i] = args[0].Field(i + 1).Interface()
		}

		ctx := c.resolveCtx
		if ctx == nil {
			ctx = context.Background()
		}

		value, err := reg.resolveOnce(ctx, resolved)

		out := reflect.New(anyType).Elem()
		if value != nil {
			out.Set(reflect.ValueOf(value))
		}
		outErr := reflect.New(errorType).Elem()
		if err != nil {
			outErr.Set(reflect.ValueOf(err))
		}
		return []reflect.Value{out, outErr}
	})

	return fn.Interface()
}

// digRegistration is one registered producer or instance; it doubles as the
// Handle handed back to callers.
type digRegistration struct {
	container  *digContainer
	identifier any
	key        string
	producer   Producer
	deps       []any
	lifecycle  Lifecycle

	mu       sync.Mutex
	inflight chan struct{}
	resolved bool
	value    any
	lastErr  error
}

func (r *digRegistration) Inject(ctx context.Context) (any, error) {
	c := r.container

	// Transient registrations and resolutions nested inside a running dig
	// invocation produce directly through handles instead of invoking dig.
	if nested, _ := ctx.Value(digNestedKey{}).(bool); nested || (r.lifecycle == Transient && r.producer != nil) {
		return r.resolveDirect(ctx)
	}

	c.invokeMu.Lock()
	defer c.invokeMu.Unlock()

	c.resolveCtx = context.WithValue(ctx, digNestedKey{}, true)
	defer func() { c.resolveCtx = nil }()

	// Extraction function in the keyed-service style: a parameter object
	// with one named any field pulls the value out of dig.
	paramType := reflect.StructOf([]reflect.StructField{
		{Name: "In", Type: digInType, Anonymous: true},
		{Name: "Value", Type: anyType, Tag: reflect.StructTag(fmt.Sprintf(`name:%q`, r.key))},
	})

	var result any
	fnType := reflect.FuncOf([]reflect.Type{paramType}, nil, false)
	fn := reflect.MakeFunc(fnType, func(args []reflect.Value) []reflect.Value {
		result = args[0].Field(1).Interface()
		return nil
	})

	if err := c.container.Invoke(fn.Interface()); err != nil {
		return nil, ResolutionError{Identifier: r.identifier, Cause: err}
	}

	r.mu.Lock()
	r.value = result
	r.resolved = true
	r.mu.Unlock()
	return result, nil
}

func (r *digRegistration) Injected() (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value, r.resolved
}

// resolveDirect resolves the registration's dependencies through their
// handles and runs the producer itself, memoizing singleton results so the
// dig provider and the direct path agree on the produced value.
func (r *digRegistration) resolveDirect(ctx context.Context) (any, error) {
	if r.producer == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.value, nil
	}

	if r.lifecycle != Transient {
		r.mu.Lock()
		if r.resolved {
			value := r.value
			r.mu.Unlock()
			return value, nil
		}
		r.mu.Unlock()
	}

	resolved := make([]any, len(r.deps))
	for i, depID := range r.deps {
		if depID == nil {
			continue
		}
		handle := r.container.GetDep(depID)
		if handle == nil {
			return nil, ResolutionError{Identifier: depID, Cause: ErrNotRegistered}
		}
		value, err := handle.Inject(ctx)
		if err != nil {
			return nil, err
		}
		resolved[i] = value
	}

	return r.resolveOnce(ctx, resolved)
}

// resolveOnce invokes the producer with already-resolved dependency values.
// Singleton invocations are deduplicated with an in-flight channel, so
// concurrent callers on the direct path share one producer run.
func (r *digRegistration) resolveOnce(ctx context.Context, resolved []any) (any, error) {
	if r.lifecycle == Transient {
		value, err := r.producer(ctx, resolved)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.value = value
		r.resolved = true
		r.mu.Unlock()
		return value, nil
	}

	r.mu.Lock()
	if r.resolved {
		value := r.value
		r.mu.Unlock()
		return value, nil
	}
	if r.inflight != nil {
		// Another resolution is in flight; wait for its outcome.
		done := r.inflight
		r.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return nil, ResolutionError{Identifier: r.identifier, Cause: ctx.Err()}
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.resolved {
			return r.value, nil
		}
		return nil, r.lastErr
	}

	done := make(chan struct{})
	r.inflight = done
	r.mu.Unlock()

	value, err := r.producer(ctx, resolved)

	r.mu.Lock()
	if err == nil {
		r.value = value
		r.resolved = true
	} else {
		// Failures are surfaced, not memoized; a later resolution may
		// succeed once the environment changes.
		r.lastErr = err
	}
	r.inflight = nil
	close(done)
	r.mu.Unlock()

	return value, err
}
