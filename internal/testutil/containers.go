package testutil

import (
	"context"
	"sync"

	"github.com/wyredi/wyre"
)

// Registration records one call a RecordingContainer received.
type Registration struct {
	Identifier any
	Kind       string
	Deps       []any
	Lifecycle  wyre.Lifecycle
	Value      any
}

// RecordingContainer implements wyre.Container by recording registrations
// without resolving anything. Registrar tests use it to assert traversal
// order, idempotence, and the arguments forwarded per kind.
type RecordingContainer struct {
	mu      sync.Mutex
	name    string
	records []Registration
	handles map[any]*recordedHandle
}

func NewRecordingContainer(name string) *RecordingContainer {
	return &RecordingContainer{
		name:    name,
		handles: make(map[any]*recordedHandle),
	}
}

func (c *RecordingContainer) Name() string { return c.name }

func (c *RecordingContainer) RegisterFactory(identifier any, producer wyre.Producer, deps []any, lifecycle wyre.Lifecycle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, Registration{Identifier: identifier, Kind: "factory", Deps: deps, Lifecycle: lifecycle})
	c.handles[identifier] = &recordedHandle{producer: producer}
	return nil
}

func (c *RecordingContainer) RegisterInstance(identifier any, value any, deps []any, lifecycle wyre.Lifecycle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, Registration{Identifier: identifier, Kind: "instance", Deps: deps, Lifecycle: lifecycle, Value: value})
	c.handles[identifier] = &recordedHandle{value: value, resolved: true}
	return nil
}

func (c *RecordingContainer) GetDep(identifier any) wyre.Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.handles[identifier]
	if !ok {
		return nil
	}
	return h
}

// Records returns a copy of the recorded registrations in call order.
func (c *RecordingContainer) Records() []Registration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Registration, len(c.records))
	copy(out, c.records)
	return out
}

// Count reports how many times the identifier was registered.
func (c *RecordingContainer) Count(identifier any) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, r := range c.records {
		if r.Identifier == identifier {
			n++
		}
	}
	return n
}

type recordedHandle struct {
	mu       sync.Mutex
	producer wyre.Producer
	resolved bool
	value    any
}

func (h *recordedHandle) Inject(ctx context.Context) (any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.resolved || h.producer == nil {
		return h.value, nil
	}
	value, err := h.producer(ctx, nil)
	if err != nil {
		return nil, err
	}
	h.value = value
	h.resolved = true
	return value, nil
}

func (h *recordedHandle) Injected() (any, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.value, h.resolved
}
