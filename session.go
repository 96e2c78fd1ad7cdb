package wyre

import (
	"context"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/wyredi/wyre/internal/graph"
)

// Option configures an Injector.
type Option interface {
	applyOption(*injectorOptions)
}

type injectorOptions struct {
	registry         *Registry
	reflector        TypeReflector
	containerFactory func(name string) Container
	logger           *log.Logger
	sink             func(error)
	cycleCheck       bool
}

type optionFunc func(*injectorOptions)

func (f optionFunc) applyOption(opts *injectorOptions) { f(opts) }

// WithRegistry installs a specific registry, letting tests and hosts run
// isolated descriptor namespaces.
func WithRegistry(registry *Registry) Option {
	return optionFunc(func(opts *injectorOptions) { opts.registry = registry })
}

// WithReflector installs the TypeReflector used to derive implicit
// parameter and return metadata.
func WithReflector(reflector TypeReflector) Option {
	return optionFunc(func(opts *injectorOptions) { opts.reflector = reflector })
}

// WithContainerFactory installs the factory used to create the container
// backing each session. The default creates in-memory containers; pass
// NewDigContainer to back sessions with dig.
func WithContainerFactory(factory func(name string) Container) Option {
	return optionFunc(func(opts *injectorOptions) { opts.containerFactory = factory })
}

// WithLogger installs the logger used for session diagnostics and, absent
// an explicit sink, for deferred-trigger failures.
func WithLogger(logger *log.Logger) Option {
	return optionFunc(func(opts *injectorOptions) { opts.logger = logger })
}

// WithErrorSink routes failures from deferred, fire-and-forget resolutions
// to the given function. Such failures occur after the declaring call site
// has returned and have no caller to propagate to; the default sink logs
// them at error level.
func WithErrorSink(sink func(error)) Option {
	return optionFunc(func(opts *injectorOptions) { opts.sink = sink })
}

// WithoutCycleCheck disables the descriptor-graph cycle check that
// ResolveViaSession runs before registration.
func WithoutCycleCheck() Option {
	return optionFunc(func(opts *injectorOptions) { opts.cycleCheck = false })
}

// SessionOption configures a single session.
type SessionOption interface {
	applySessionOption(*sessionOptions)
}

type sessionOptions struct {
	containerName    string
	defaultLifecycle Lifecycle
}

type sessionOptionFunc func(*sessionOptions)

func (f sessionOptionFunc) applySessionOption(opts *sessionOptions) { f(opts) }

// WithContainerName names the container created for the session. An empty
// name gets a generated one.
func WithContainerName(name string) SessionOption {
	return sessionOptionFunc(func(opts *sessionOptions) { opts.containerName = name })
}

// WithDefaultLifecycle sets the lifecycle applied to the session's root
// when the trigger supplies none.
func WithDefaultLifecycle(lifecycle Lifecycle) SessionOption {
	return sessionOptionFunc(func(opts *sessionOptions) { opts.defaultLifecycle = lifecycle })
}

// Injector binds the registry, builder, and registrar together and
// coordinates injection sessions: one container bound to one top-level
// registration request at a time.
type Injector struct {
	registry  *Registry
	builder   *Builder
	registrar *Registrar

	containerFactory func(name string) Container
	logger           *log.Logger
	sink             func(error)
	cycleCheck       bool

	// current is the single active session. Beginning a session while one
	// is current overwrites the pointer: last writer wins, per the
	// single-active-session discipline.
	mu      sync.Mutex
	current *Session
}

// New creates an Injector. Without options it uses a fresh registry, the
// runtime reflector, in-memory containers, and a stderr logger.
func New(opts ...Option) *Injector {
	options := injectorOptions{
		containerFactory: NewMemoryContainer,
		cycleCheck:       true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt.applyOption(&options)
		}
	}

	if options.registry == nil {
		options.registry = NewRegistry()
	}
	if options.reflector == nil {
		options.reflector = NewRuntimeReflector()
	}
	if options.logger == nil {
		options.logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "wyre"})
	}
	logger := options.logger
	if options.sink == nil {
		options.sink = func(err error) {
			logger.Error("deferred resolution failed", "error", err)
		}
	}

	return &Injector{
		registry:         options.registry,
		builder:          NewBuilder(options.registry, options.reflector),
		registrar:        NewRegistrar(options.registry),
		containerFactory: options.containerFactory,
		logger:           options.logger,
		sink:             options.sink,
		cycleCheck:       options.cycleCheck,
	}
}

// Registry returns the injector's registry.
func (in *Injector) Registry() *Registry { return in.registry }

// Builder returns the injector's descriptor builder, for declaration-site
// callers.
func (in *Injector) Builder() *Builder { return in.builder }

// Session is the short-lived coordination object binding one container to
// one top-level registration request.
type Session struct {
	id               string
	injector         *Injector
	container        Container
	defaultLifecycle Lifecycle
}

// ID returns the session's unique id.
func (s *Session) ID() string { return s.id }

// Container returns the container bound to this session.
func (s *Session) Container() Container { return s.container }

// GetDep is the session-bound lookup: it returns the handle the session's
// container holds for an identifier, or nil when nothing is registered yet.
func (s *Session) GetDep(identifier any) Handle {
	return s.container.GetDep(identifier)
}

// BeginSession creates a new container and makes the session current.
// Callers must finish one root's declaration and handle acquisition before
// beginning another, or accept that the earlier session's container becomes
// unreachable through this pathway.
func (in *Injector) BeginSession(opts ...SessionOption) *Session {
	options := sessionOptions{defaultLifecycle: Singleton}
	for _, opt := range opts {
		if opt != nil {
			opt.applySessionOption(&options)
		}
	}

	name := options.containerName
	if name == "" {
		name = uuid.NewString()
	}

	s := &Session{
		id:               uuid.NewString(),
		injector:         in,
		container:        in.containerFactory(name),
		defaultLifecycle: options.defaultLifecycle,
	}

	in.mu.Lock()
	in.current = s
	in.mu.Unlock()

	in.logger.Debug("session started", "session", s.id, "container", name)
	return s
}

// ResolveViaSession fetches the descriptor previously declared for the
// target (optionally at memberKey), registers its transitive closure with
// the current session's container, and returns the container handle for its
// identifier. The current-session pointer is cleared before returning so no
// later, unrelated call reuses this container.
func (in *Injector) ResolveViaSession(ctx context.Context, target any, memberKey string) (Handle, error) {
	in.mu.Lock()
	s := in.current
	in.mu.Unlock()
	if s == nil {
		return nil, ResolutionError{Identifier: target, Cause: ErrNoActiveSession}
	}

	identifier, err := in.builder.IdentifierFor(target, memberKey)
	if err != nil {
		return nil, ResolutionError{Identifier: target, Cause: err}
	}
	d, ok := in.registry.Get(identifier)
	if !ok {
		return nil, ResolutionError{Identifier: identifier, Cause: ErrNotDeclared}
	}

	if in.cycleCheck {
		if err := graph.Detect(d.Identifier, in.registrar.childIdentifiers); err != nil {
			return nil, err
		}
	}

	if err := in.registrar.Register(ctx, s.container, d); err != nil {
		return nil, err
	}

	handle := s.container.GetDep(d.Identifier)
	if handle == nil {
		return nil, RegistrationError{Identifier: d.Identifier, Operation: "look up", Cause: ErrNotRegistered}
	}

	in.mu.Lock()
	if in.current == s {
		in.current = nil
	}
	in.mu.Unlock()

	in.logger.Debug("root registered", "session", s.id, "identifier", formatIdentifier(d.Identifier))
	return handle, nil
}

// TriggerImplicitInjection composes a whole implicit flow for a declared
// identifier: begin a session, apply the trigger's lifecycle to the
// identifier's descriptor so the target is itself injectable into others,
// obtain the root handle, and drive its resolution on a detached goroutine.
// The deferred resolution has no caller left to report to, so its failure
// goes to the injector's error sink and is otherwise discarded.
func (in *Injector) TriggerImplicitInjection(ctx context.Context, identifier any, containerName string, lifecycle Lifecycle) (Handle, error) {
	d, ok := in.registry.Get(identifier)
	if !ok {
		return nil, ResolutionError{Identifier: identifier, Cause: ErrNotDeclared}
	}
	if lifecycle.IsValid() {
		d.Lifecycle = lifecycle
	}

	in.BeginSession(WithContainerName(containerName), WithDefaultLifecycle(lifecycle))

	handle, err := in.ResolveViaSession(ctx, identifier, "")
	if err != nil {
		return nil, err
	}

	detached := context.WithoutCancel(ctx)
	go func() {
		if _, err := handle.Inject(detached); err != nil {
			in.sink(err)
		}
	}()

	return handle, nil
}
