package wyre

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/wyredi/wyre/internal/graph"
)

// Sentinel errors. These are base errors that get wrapped in typed errors
// with context before being returned.
var (
	ErrTargetNil               = errors.New("declaration target cannot be nil")
	ErrIdentifierNil           = errors.New("identifier cannot be nil")
	ErrIdentifierNotComparable = errors.New("identifier must be a comparable value")
	ErrNotDeclared             = errors.New("no descriptor declared for this target")
	ErrNotRegistered           = errors.New("identifier is not registered in the container")
	ErrNoActiveSession         = errors.New("no injection session is active")
	ErrContainerNil            = errors.New("container cannot be nil")
	ErrMemberUnknown           = errors.New("target has no such member")
)

var (
	_ error = MissingIdentifierError{}
	_ error = UnknownKindError{}
	_ error = DeclarationError{}
	_ error = RegistrationError{}
	_ error = ResolutionError{}
	_ error = AlreadyRegisteredError{}
)

// CircularDependencyError is re-exported from the graph package so callers
// can match it with errors.As without importing internal packages.
type CircularDependencyError = graph.CircularDependencyError

// MissingIdentifierError indicates a primitive-typed parameter, member, or
// factory return lacks an explicit identifier. Primitive types carry no
// unique registrable identity, so the declaration is rejected.
type MissingIdentifierError struct {
	Target any          // the owning declaration target
	Type   reflect.Type // the offending primitive type, nil if unreflectable
	Index  int          // parameter position; -1 for returns and members
	Member string       // member name for property declarations
}

func (e MissingIdentifierError) Error() string {
	where := fmt.Sprintf("parameter %d", e.Index)
	if e.Member != "" {
		where = fmt.Sprintf("member %q", e.Member)
	} else if e.Index < 0 {
		where = "return value"
	}
	return fmt.Sprintf("%s of %s has primitive type %s and needs an explicit identifier",
		where, formatTarget(e.Target), formatType(e.Type))
}

// UnknownKindError indicates a descriptor carries an unrecognized kind.
// This means the registry holds a corrupted or hand-crafted descriptor and
// is a programming error, not a recoverable condition.
type UnknownKindError struct {
	Identifier any
	Kind       Kind
}

func (e UnknownKindError) Error() string {
	return fmt.Sprintf("descriptor %s has unknown kind %d", formatIdentifier(e.Identifier), int(e.Kind))
}

// DeclarationError wraps errors raised while translating a declaration site
// into a registry update.
type DeclarationError struct {
	Target any
	Cause  error
}

func (e DeclarationError) Error() string {
	return fmt.Sprintf("declaring %s: %v", formatTarget(e.Target), e.Cause)
}

func (e DeclarationError) Unwrap() error {
	return e.Cause
}

// RegistrationError wraps errors raised during graph registration.
type RegistrationError struct {
	Identifier any
	Operation  string // "lookup", "register-factory", "register-instance", ...
	Cause      error
}

func (e RegistrationError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Operation, formatIdentifier(e.Identifier), e.Cause)
}

func (e RegistrationError) Unwrap() error {
	return e.Cause
}

// ResolutionError wraps failures produced by a container while resolving a
// registered identifier. It propagates to whichever caller is awaiting the
// affected handle; nothing in this package retries.
type ResolutionError struct {
	Identifier any
	Cause      error
}

func (e ResolutionError) Error() string {
	return fmt.Sprintf("resolving %s: %v", formatIdentifier(e.Identifier), e.Cause)
}

func (e ResolutionError) Unwrap() error {
	return e.Cause
}

// AlreadyRegisteredError indicates an identifier was registered twice with
// the same container. The registrar's re-entry guard prevents this for
// descriptors reached through graph traversal.
type AlreadyRegisteredError struct {
	Identifier any
}

func (e AlreadyRegisteredError) Error() string {
	return fmt.Sprintf("%s is already registered", formatIdentifier(e.Identifier))
}

// formatIdentifier renders an identifier for error messages.
func formatIdentifier(id any) string {
	switch v := id.(type) {
	case nil:
		return "<nil>"
	case string:
		return fmt.Sprintf("%q", v)
	case reflect.Type:
		return formatType(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// formatTarget renders a declaration target for error messages.
func formatTarget(target any) string {
	switch v := target.(type) {
	case nil:
		return "<nil>"
	case reflect.Type:
		return formatType(v)
	default:
		return formatType(reflect.TypeOf(target))
	}
}

// formatType formats a reflect.Type, preferring short names.
func formatType(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind() {
	case reflect.Pointer:
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "*" + elem.Name()
		}
		return t.String()
	case reflect.Struct, reflect.Interface:
		if t.Name() != "" {
			return t.Name()
		}
		return t.String()
	default:
		if t.Name() != "" {
			return t.Name()
		}
		return t.String()
	}
}
