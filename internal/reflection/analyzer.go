package reflection

import (
	"fmt"
	"reflect"
	"sync"
)

var errType = reflect.TypeOf((*error)(nil)).Elem()

// Analyzer performs reflection-based analysis of declaration targets and
// caches the results, since the same target is typically declared and
// registered many times over the life of a process.
type Analyzer struct {
	mu    sync.RWMutex
	cache map[uintptr]*TargetInfo
}

// TargetInfo contains analyzed information about a declaration target:
// a factory function, a constructible struct type, or a plain value.
type TargetInfo struct {
	// Type is the normalized type: the function type for factories, the
	// underlying struct type for constructible targets, the value type
	// otherwise.
	Type reflect.Type

	// IsFunc is true when the target is a factory function.
	IsFunc bool

	// IsStruct is true when the target normalizes to a struct type.
	IsStruct bool

	// Params holds the ordered parameter types. For functions these are the
	// signature parameters; for struct types they are the exported field
	// types in declaration order.
	Params []reflect.Type

	// Fields holds the exported fields of a struct target, in declaration
	// order. Empty for functions and plain values.
	Fields []Field

	// Return is the primary produced type: the first non-error return for
	// functions, the normalized type otherwise. Nil when a function returns
	// nothing but errors.
	Return reflect.Type

	// HasErrorReturn is true when a function's last return value is an error.
	HasErrorReturn bool
}

// Field describes one exported field of a struct target.
type Field struct {
	Name  string
	Index int
	Type  reflect.Type
}

// NewAnalyzer creates an Analyzer with an empty cache.
func NewAnalyzer() *Analyzer {
	return &Analyzer{cache: make(map[uintptr]*TargetInfo)}
}

// Analyze inspects a declaration target and returns its cached TargetInfo.
func (a *Analyzer) Analyze(target any) (*TargetInfo, error) {
	if target == nil {
		return nil, fmt.Errorf("target cannot be nil")
	}

	val := reflect.ValueOf(target)
	if !val.IsValid() || (val.Kind() == reflect.Func && val.IsNil()) {
		return nil, fmt.Errorf("target cannot be nil")
	}

	key, cacheable := cacheKey(target, val)
	if cacheable {
		a.mu.RLock()
		if cached, ok := a.cache[key]; ok {
			a.mu.RUnlock()
			return cached, nil
		}
		a.mu.RUnlock()
	}

	info, err := analyze(target, val)
	if err != nil {
		return nil, err
	}

	if cacheable {
		a.mu.Lock()
		a.cache[key] = info
		a.mu.Unlock()
	}

	return info, nil
}

// cacheKey derives a stable cache key for a target. Functions key by code
// pointer, types and typed values key by their reflect.Type. Non-comparable
// one-off values are not cached.
func cacheKey(target any, val reflect.Value) (uintptr, bool) {
	if t, ok := target.(reflect.Type); ok {
		return reflect.ValueOf(t).Pointer(), true
	}

	switch val.Kind() {
	case reflect.Func:
		return val.Pointer(), true
	default:
		return reflect.ValueOf(val.Type()).Pointer(), true
	}
}

func analyze(target any, val reflect.Value) (*TargetInfo, error) {
	// A reflect.Type target describes the type itself, not a value of it.
	if t, ok := target.(reflect.Type); ok {
		return analyzeType(t)
	}

	if val.Kind() == reflect.Func {
		return analyzeFunc(val.Type())
	}

	return analyzeType(val.Type())
}

// analyzeFunc analyzes a factory function signature.
func analyzeFunc(fnType reflect.Type) (*TargetInfo, error) {
	info := &TargetInfo{
		Type:   fnType,
		IsFunc: true,
		Params: make([]reflect.Type, fnType.NumIn()),
	}

	for i := 0; i < fnType.NumIn(); i++ {
		info.Params[i] = fnType.In(i)
	}

	numOut := fnType.NumOut()
	for i := 0; i < numOut; i++ {
		out := fnType.Out(i)
		if out.Implements(errType) {
			if i == numOut-1 {
				info.HasErrorReturn = true
			}
			continue
		}
		if info.Return == nil {
			info.Return = out
		}
	}

	return info, nil
}

// analyzeType analyzes a constructible type or plain value type. Pointer
// types are unwrapped so *T and T share one analysis.
func analyzeType(t reflect.Type) (*TargetInfo, error) {
	base := t
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}

	info := &TargetInfo{
		Type:   base,
		Return: base,
	}

	if base.Kind() != reflect.Struct {
		return info, nil
	}

	info.IsStruct = true
	for i := 0; i < base.NumField(); i++ {
		field := base.Field(i)
		if !field.IsExported() {
			continue
		}
		info.Fields = append(info.Fields, Field{
			Name:  field.Name,
			Index: i,
			Type:  field.Type,
		})
		info.Params = append(info.Params, field.Type)
	}

	return info, nil
}

// FieldByName returns the exported field with the given name on a struct
// target, if any.
func (a *Analyzer) FieldByName(target any, name string) (Field, bool) {
	info, err := a.Analyze(target)
	if err != nil {
		return Field{}, false
	}

	for _, f := range info.Fields {
		if f.Name == name {
			return f, true
		}
	}

	return Field{}, false
}

// Clear drops all cached analyses.
func (a *Analyzer) Clear() {
	a.mu.Lock()
	a.cache = make(map[uintptr]*TargetInfo)
	a.mu.Unlock()
}

// CacheSize returns the number of cached analyses.
func (a *Analyzer) CacheSize() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.cache)
}

// NormalizeType returns the underlying struct type for a constructible
// target given as a reflect.Type, a value, or a pointer prototype. It
// returns nil when the target does not normalize to a struct.
func NormalizeType(target any) reflect.Type {
	var t reflect.Type
	if typ, ok := target.(reflect.Type); ok {
		t = typ
	} else if target != nil {
		t = reflect.TypeOf(target)
	}

	if t == nil {
		return nil
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	return t
}

// IsSimple reports whether a type is a simple/primitive kind that carries no
// unique registrable identity: bare numerics, strings, booleans, functions,
// untyped interfaces, and types that could not be reflected at all.
func IsSimple(t reflect.Type) bool {
	if t == nil {
		return true
	}

	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128,
		reflect.String, reflect.Func:
		return true
	case reflect.Interface:
		// A bare interface{} says nothing about what should satisfy it.
		return t.NumMethod() == 0
	default:
		return false
	}
}
