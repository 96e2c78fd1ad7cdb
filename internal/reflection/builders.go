package reflection

import (
	"fmt"
	"reflect"
	"runtime/debug"
)

// Construct builds a new *T for the given struct type, assigning the
// resolved positional values to its exported fields in declaration order.
func Construct(t reflect.Type, args []any) (any, error) {
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("cannot construct non-struct type %v", t)
	}

	info, err := analyzeType(t)
	if err != nil {
		return nil, err
	}
	if len(args) > len(info.Fields) {
		return nil, fmt.Errorf("%s has %d injectable fields, got %d values", t, len(info.Fields), len(args))
	}

	ptr := reflect.New(t)
	elem := ptr.Elem()
	for i, arg := range args {
		field := info.Fields[i]
		if err := assign(elem.Field(field.Index), arg, field.Name); err != nil {
			return nil, err
		}
	}

	return ptr.Interface(), nil
}

// SetMember assigns a resolved value onto a named exported field of an
// already-constructed instance. The instance must be a struct pointer.
func SetMember(instance any, name string, value any) error {
	val := reflect.ValueOf(instance)
	if val.Kind() != reflect.Pointer || val.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("cannot set member %q on non-struct-pointer %T", name, instance)
	}

	field := val.Elem().FieldByName(name)
	if !field.IsValid() || !field.CanSet() {
		return fmt.Errorf("%T has no settable member %q", instance, name)
	}

	return assign(field, value, name)
}

// Member reads the current value of a named exported field. The second
// return is false when the field does not exist or holds its zero value.
func Member(instance any, name string) (any, bool) {
	val := reflect.ValueOf(instance)
	if val.Kind() == reflect.Pointer {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil, false
	}

	field := val.FieldByName(name)
	if !field.IsValid() || field.IsZero() {
		return nil, false
	}

	return field.Interface(), true
}

// Invoke calls a factory function with the resolved positional values. A
// trailing error return fails the invocation; a panic inside the factory is
// recovered and reported as an error.
func Invoke(fn any, args []any) (result any, err error) {
	fnValue := reflect.ValueOf(fn)
	if fnValue.Kind() != reflect.Func {
		return nil, fmt.Errorf("cannot invoke non-function %T", fn)
	}
	fnType := fnValue.Type()
	if fnType.NumIn() != len(args) {
		return nil, fmt.Errorf("%v takes %d parameters, got %d values", fnType, fnType.NumIn(), len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		v := reflect.New(fnType.In(i)).Elem()
		if err := assign(v, arg, fmt.Sprintf("parameter %d", i)); err != nil {
			return nil, err
		}
		in[i] = v
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("factory %v panicked: %v\n%s", fnType, r, debug.Stack())
		}
	}()

	out := fnValue.Call(in)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i].Type().Implements(errType) {
			if !out[i].IsNil() {
				return nil, out[i].Interface().(error)
			}
			continue
		}
		return out[i].Interface(), nil
	}

	// Factories returning nothing but a nil error produce no value.
	return nil, nil
}

// assign sets value into dst, tolerating nil for nilable kinds and
// converting assignable-but-distinct types.
func assign(dst reflect.Value, value any, what string) error {
	if value == nil {
		switch dst.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		default:
			return fmt.Errorf("cannot assign nil to %s (%v)", what, dst.Type())
		}
	}

	v := reflect.ValueOf(value)
	if !v.Type().AssignableTo(dst.Type()) {
		if v.Type().ConvertibleTo(dst.Type()) {
			dst.Set(v.Convert(dst.Type()))
			return nil
		}
		return fmt.Errorf("cannot assign %v to %s (%v)", v.Type(), what, dst.Type())
	}

	dst.Set(v)
	return nil
}
