package reactive

import (
	"math"
	"reflect"
)

// isObject reports whether v is a raw value that can be wrapped.
func isObject(v any) bool {
	switch x := v.(type) {
	case map[string]any:
		return x != nil
	case *[]any:
		return x != nil
	}
	return false
}

// rawPointer returns the identity of a raw object.
func rawPointer(v any) uintptr {
	return reflect.ValueOf(v).Pointer()
}

func isNaN(v any) bool {
	switch f := v.(type) {
	case float64:
		return math.IsNaN(f)
	case float32:
		return math.IsNaN(float64(f))
	}
	return false
}

// sameValue reports whether a and b are the same value. Reference kinds
// compare by identity, comparable values with ==, and NaN equals itself.
// Functions are never the same unless both are nil. Since floats use ==,
// +0 and -0 are the same value and writing one over the other is not a
// change.
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if isNaN(a) && isNaN(b) {
		return true
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}

	switch va.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	case reflect.Func:
		return va.IsNil() && vb.IsNil()
	}

	if va.Comparable() && vb.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

// hasChanged reports whether value differs from old under sameValue.
func hasChanged(value, old any) bool {
	return !sameValue(value, old)
}

// strictEqual is sameValue without the NaN exception, matching indexOf.
func strictEqual(a, b any) bool {
	if isNaN(a) || isNaN(b) {
		return false
	}
	return sameValue(a, b)
}
