package wyre

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// resolutionPathKey carries the chain of identifiers currently being
// resolved on this call path, so re-entering one is reported as a cycle
// instead of deadlocking.
type resolutionPathKey struct{}

// memoryContainer is the reference Container implementation: lazy,
// identifier-keyed resolution with singleton memoization, transient
// re-invocation, and single-flight deduplication of concurrent resolutions.
type memoryContainer struct {
	name string

	mu            sync.RWMutex
	registrations map[any]*memoryRegistration
}

// NewMemoryContainer creates an in-memory Container. An empty name gets a
// generated one.
func NewMemoryContainer(name string) Container {
	if name == "" {
		name = uuid.NewString()
	}
	return &memoryContainer{
		name:          name,
		registrations: make(map[any]*memoryRegistration),
	}
}

func (c *memoryContainer) Name() string { return c.name }

func (c *memoryContainer) RegisterFactory(identifier any, producer Producer, depIdentifiers []any, lifecycle Lifecycle) error {
	if producer == nil {
		return RegistrationError{Identifier: identifier, Operation: "register factory", Cause: ErrTargetNil}
	}
	return c.register(&memoryRegistration{
		container:  c,
		identifier: identifier,
		producer:   producer,
		deps:       depIdentifiers,
		lifecycle:  lifecycle,
	})
}

func (c *memoryContainer) RegisterInstance(identifier any, value any, depIdentifiers []any, lifecycle Lifecycle) error {
	return c.register(&memoryRegistration{
		container:  c,
		identifier: identifier,
		deps:       depIdentifiers,
		lifecycle:  lifecycle,
		value:      value,
		resolved:   true,
	})
}

func (c *memoryContainer) register(reg *memoryRegistration) error {
	if reg.identifier == nil {
		return RegistrationError{Operation: "register", Cause: ErrIdentifierNil}
	}
	if !isComparable(reg.identifier) {
		return RegistrationError{Identifier: reg.identifier, Operation: "register", Cause: ErrIdentifierNotComparable}
	}
	if !reg.lifecycle.IsValid() {
		reg.lifecycle = Singleton
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.registrations[reg.identifier]; ok {
		return AlreadyRegisteredError{Identifier: reg.identifier}
	}
	c.registrations[reg.identifier] = reg
	return nil
}

func (c *memoryContainer) GetDep(identifier any) Handle {
	if !isComparable(identifier) {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	reg, ok := c.registrations[identifier]
	if !ok {
		return nil
	}
	return reg
}

// memoryRegistration is one registered producer or instance; it doubles as
// the Handle handed back to callers.
type memoryRegistration struct {
	container  *memoryContainer
	identifier any
	producer   Producer
	deps       []any
	lifecycle  Lifecycle

	mu       sync.Mutex
	inflight chan struct{}
	resolved bool
	value    any
	lastErr  error
}

func (r *memoryRegistration) Inject(ctx context.Context) (any, error) {
	path, _ := ctx.Value(resolutionPathKey{}).([]any)
	if slices.Contains(path, r.identifier) {
		return nil, ResolutionError{
			Identifier: r.identifier,
			Cause:      &CircularDependencyError{Identifier: r.identifier, Path: append(slices.Clone(path), r.identifier)},
		}
	}
	ctx = context.WithValue(ctx, resolutionPathKey{}, append(slices.Clone(path), r.identifier))

	// Instances and transients skip memoization entirely.
	if r.producer == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.value, nil
	}
	if r.lifecycle == Transient {
		value, err := r.produce(ctx)
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

	value, err := r.produce(ctx)

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

func (r *memoryRegistration) Injected() (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value, r.resolved
}

// produce resolves the registration's dependency identifiers in positional
// order and invokes the producer with their values.
func (r *memoryRegistration) produce(ctx context.Context) (any, error) {
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

	return r.producer(ctx, resolved)
}
