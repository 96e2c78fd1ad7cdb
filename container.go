package wyre

import "context"

// Producer builds one value for the container, given the resolved values of
// the registration's dependency identifiers in positional order.
type Producer func(ctx context.Context, deps []any) (any, error)

// Container is the external injection collaborator this package registers
// into. The container owns resolution and caching; this package only
// declares producers and instances against it and never retains a container
// beyond the session that created it.
//
// Registering the same identifier twice is a caller error; implementations
// return AlreadyRegisteredError. The graph registrar's re-entry guard
// ensures it never does so for descriptors reached through traversal.
type Container interface {
	// Name identifies the container, for diagnostics only.
	Name() string

	// RegisterFactory registers a producer under an identifier. The
	// container resolves depIdentifiers lazily and passes their values to
	// the producer in order.
	RegisterFactory(identifier any, producer Producer, depIdentifiers []any, lifecycle Lifecycle) error

	// RegisterInstance registers a precomputed value under an identifier.
	// Dependency identifiers and lifecycle are forwarded opaquely.
	RegisterInstance(identifier any, value any, depIdentifiers []any, lifecycle Lifecycle) error

	// GetDep returns the handle for an identifier, or nil when nothing is
	// registered under it yet.
	GetDep(identifier any) Handle
}

// Handle represents a pending or completed resolution for one identifier.
type Handle interface {
	// Inject drives the resolution and returns the resolved value. For
	// singleton registrations repeated calls return the same value; for
	// transient registrations each call produces anew.
	Inject(ctx context.Context) (any, error)

	// Injected returns the most recently resolved value, and whether one is
	// available yet.
	Injected() (any, bool)
}
