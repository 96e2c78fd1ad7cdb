package wyre

import (
	"reflect"

	"github.com/wyredi/wyre/internal/reflection"
)

// TypeReflector supplies parameter and return type metadata for declaration
// targets. It is a capability supplied by the host environment; the builder
// treats nil results as "no implicit dependencies", so environments without
// runtime reflection can install ExplicitReflector and require explicit
// identifiers for every injected parameter instead.
type TypeReflector interface {
	// ParamTypes returns the ordered parameter types of a target: the
	// signature parameters of a factory function, or the exported field
	// types of a constructible struct. With a non-empty memberKey it
	// describes that member instead of the target itself.
	ParamTypes(target any, memberKey string) []reflect.Type

	// ReturnType returns the type a target produces: the first non-error
	// return of a factory, the struct type of a constructible target, or
	// the type of the named member when memberKey is non-empty. Nil means
	// the type could not be reflected.
	ReturnType(target any, memberKey string) reflect.Type
}

// NewRuntimeReflector returns the default TypeReflector backed by the
// runtime reflect package, with cached analysis per target.
func NewRuntimeReflector() TypeReflector {
	return &runtimeReflector{analyzer: reflection.NewAnalyzer()}
}

type runtimeReflector struct {
	analyzer *reflection.Analyzer
}

func (r *runtimeReflector) ParamTypes(target any, memberKey string) []reflect.Type {
	if memberKey != "" {
		field, ok := r.analyzer.FieldByName(target, memberKey)
		if !ok {
			return nil
		}
		return r.ParamTypes(field.Type, "")
	}

	info, err := r.analyzer.Analyze(target)
	if err != nil {
		return nil
	}
	return info.Params
}

func (r *runtimeReflector) ReturnType(target any, memberKey string) reflect.Type {
	if memberKey != "" {
		field, ok := r.analyzer.FieldByName(target, memberKey)
		if !ok {
			return nil
		}
		return field.Type
	}

	info, err := r.analyzer.Analyze(target)
	if err != nil {
		return nil
	}
	return info.Return
}

// ExplicitReflector is the degradation path for hosts without usable
// runtime reflection: it reports no implicit metadata, which forces every
// injected parameter to carry an explicit identifier.
type ExplicitReflector struct{}

func (ExplicitReflector) ParamTypes(any, string) []reflect.Type { return nil }
func (ExplicitReflector) ReturnType(any, string) reflect.Type   { return nil }
