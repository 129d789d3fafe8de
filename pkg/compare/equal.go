package compare

import (
	"github.com/matzehuels/jsonops/pkg/jsonvalue"
)

// DeepEqual reports whether a and b are semantically identical.
//
// The checks run in order:
//  1. strictly identical values are equal;
//  2. values with different typeof tags are unequal (null, arrays and
//     objects all share the tag "object");
//  3. two nulls, two undefineds or two NaNs are equal;
//  4. a null, undefined or NaN against anything else is unequal;
//  5. two arrays are equal when they have the same length and pairwise
//     DeepEqual elements;
//  6. an array against a non-array is unequal;
//  7. two objects are equal when they have the same number of keys and every
//     key of a exists in b with a DeepEqual value;
//  8. anything else is unequal.
//
// Note that null does not equal undefined, and NaN equals NaN.
func DeepEqual(a, b jsonvalue.Value) bool {
	if identical(a, b) {
		return true
	}
	if typeOf(a) != typeOf(b) {
		return false
	}

	aVoid, bVoid := isVoid(a), isVoid(b)
	if aVoid && bVoid {
		return a.Kind() == b.Kind()
	}
	if aVoid || bVoid {
		return false
	}

	if a.IsArray() && b.IsArray() {
		ea, eb := a.AsArray(), b.AsArray()
		if len(ea) != len(eb) {
			return false
		}
		for i := range ea {
			if !DeepEqual(ea[i], eb[i]) {
				return false
			}
		}
		return true
	}
	if a.IsArray() || b.IsArray() {
		return false
	}

	if a.IsPlainObject() && b.IsPlainObject() {
		oa, ob := a.AsObject(), b.AsObject()
		if oa.Len() != ob.Len() {
			return false
		}
		for _, k := range oa.Keys() {
			vb, ok := ob.Get(k)
			if !ok {
				return false
			}
			va, _ := oa.Get(k)
			if !DeepEqual(va, vb) {
				return false
			}
		}
		return true
	}
	return false
}

// isVoid reports whether v is null, undefined or NaN.
func isVoid(v jsonvalue.Value) bool {
	return v.IsNull() || v.IsUndefined() || v.IsNaN()
}

// typeOf returns the JavaScript typeof tag of v.
func typeOf(v jsonvalue.Value) string {
	switch v.Kind() {
	case jsonvalue.KindUndefined:
		return "undefined"
	case jsonvalue.KindBool:
		return "boolean"
	case jsonvalue.KindNumber:
		return "number"
	case jsonvalue.KindString:
		return "string"
	default:
		return "object"
	}
}
