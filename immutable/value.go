// Package immutable provides a single value wrapper used to snapshot field
// values without risking aliasing between a Model's live state and a
// caller's copy.
//
// model.Watcher uses it for trackOld: when a watcher asks to see the value
// a field held before a change, the snapshot must survive further mutation
// of that field. Taking a deep clone at the moment of the change is the
// only way to guarantee that for values reachable through a map or slice.
//
// immutable imports only the standard library (reflect). It must not import
// model, registry, factory, track, replicate, or wire.
package immutable

import "reflect"

// Value wraps an arbitrary Go value.
type Value struct {
	val any
}

// Wrap wraps v directly, with ownership transfer semantics: after calling
// Wrap, the caller must not retain or mutate v or anything reachable from
// it. Use [WrapClone] when that can't be guaranteed.
func Wrap(v any) Value {
	return Value{val: v}
}

// WrapClone wraps a deep clone of v. The caller may freely mutate the
// original afterward; the wrapped copy is unaffected.
func WrapClone(v any) Value {
	return Value{val: deepClone(v)}
}

// Unwrap returns the wrapped value, in its original shape: a cloned map
// comes back as the same map type, not some other wrapper.
func (v Value) Unwrap() any {
	return v.val
}

// IsNil reports whether the wrapped value is nil, including typed nil
// pointers, channels, funcs, interfaces, maps, and slices.
func (v Value) IsNil() bool {
	if v.val == nil {
		return true
	}
	rv := reflect.ValueOf(v.val)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

// deepClone recursively clones maps and slices; every other kind (including
// pointers, which model field values often are) is returned unchanged,
// since model.Field never stores a mutable value behind a pointer.
func deepClone(v any) any {
	if v == nil {
		return nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		return deepCloneMap(rv)
	case reflect.Slice:
		return deepCloneSlice(rv)
	default:
		return v
	}
}

func deepCloneMap(rv reflect.Value) any {
	if rv.IsNil() {
		return rv.Interface()
	}
	out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
	elemType := rv.Type().Elem()
	iter := rv.MapRange()
	for iter.Next() {
		cloned := deepClone(iter.Value().Interface())
		if cloned == nil {
			out.SetMapIndex(iter.Key(), reflect.Zero(elemType))
			continue
		}
		out.SetMapIndex(iter.Key(), reflect.ValueOf(cloned))
	}
	return out.Interface()
}

func deepCloneSlice(rv reflect.Value) any {
	if rv.IsNil() {
		return rv.Interface()
	}
	out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
	elemType := rv.Type().Elem()
	for i := range rv.Len() {
		cloned := deepClone(rv.Index(i).Interface())
		if cloned == nil {
			out.Index(i).Set(reflect.Zero(elemType))
			continue
		}
		out.Index(i).Set(reflect.ValueOf(cloned))
	}
	return out.Interface()
}
