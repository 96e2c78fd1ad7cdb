// Package wyre builds dependency graphs from runtime declarations and
// registers them with pluggable resolution containers.
//
// # Overview
//
// wyre separates describing a dependency graph from resolving it. Call
// sites declare what they need; descriptors accumulate in a registry; a
// registrar later walks a root's transitive closure and registers every
// node with a container, which resolves lazily by identifier. The library
// provides:
//   - A shared descriptor registry with one record per identifier
//   - A builder that merges implicit (reflected) and explicit declarations
//   - A registrar that registers whole closures idempotently
//   - Constructor injection and post-construction property injection
//   - Singleton and Transient lifecycles
//   - An in-memory container and a dig-backed container
//   - Injection sessions binding one container to one resolution request
//
// # Basic Usage
//
// Declare a constructible type, then resolve it through a session:
//
//	type Database struct{ DSN string }
//
//	type UserService struct {
//		DB *Database
//	}
//
//	injector := wyre.New()
//	injector.Builder().DeclareRoot(&UserService{})
//	injector.Builder().DeclareRoot(&Database{})
//
//	injector.BeginSession()
//	handle, err := injector.ResolveViaSession(ctx, &UserService{}, "")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svc, err := handle.Inject(ctx)
//
// # Declarations
//
// DeclareRoot accepts a struct prototype (value, pointer, or reflect.Type)
// or a factory function. Struct declarations derive positional dependencies
// from exported fields in order; factory declarations derive them from
// parameters. A parameter or member of primitive type carries no unique
// identity and must be annotated with WithIdentifier:
//
//	b.DeclareParameter(desc, reflect.TypeOf(""), 1, wyre.WithIdentifier("dsn"))
//
// DeclareProperty marks a member for post-construction injection. If the
// prototype already holds a concrete value for the member, that value is
// captured as a standalone instance dependency. Property declarations
// never fill positional slots: a primitive member declared as a root's
// constructor position still needs DeclareParameter to close its gap,
// even when a property declaration already names its identifier.
//
// # Lifecycles
//
// Singleton registrations are produced once per container and memoized;
// Transient registrations re-invoke their producer on every resolution.
//
// # Sessions
//
// BeginSession creates a fresh container and makes it current; the next
// ResolveViaSession registers a declared root's closure with it, returns
// the root's handle, and clears the current-session pointer. Only one
// session is current at a time and the last writer wins.
// TriggerImplicitInjection composes the whole flow and drives resolution
// on a detached goroutine, routing failures to the injector's error sink.
//
// # Thread Safety
//
// The registry, containers, and handles are safe for concurrent use.
// Concurrent resolutions of one singleton registration are deduplicated to
// a single producer invocation.
//
// # Error Handling
//
// Failures carry typed errors that wrap sentinel causes:
//   - MissingIdentifierError: a primitive site was never given an identifier
//   - CircularDependencyError: the descriptor graph reaches itself
//   - RegistrationError, ResolutionError: phase-tagged wrappers
//   - AlreadyRegisteredError: duplicate identifier within one container
package wyre
