package compare

import (
	"github.com/matzehuels/jsonops/pkg/jsonvalue"
)

// Type classifies a Difference.
type Type string

// Difference types.
const (
	MissingInFirst  Type = "missing in first"
	MissingInSecond Type = "missing in second"
	ArrayDifference Type = "array difference"
	ValueDifference Type = "value difference"
)

// Difference records one divergence between two objects.
//
// Value1 is undefined for MissingInFirst and Value2 is undefined for
// MissingInSecond.
type Difference struct {
	Property string          // dot-joined path from the comparison roots
	Type     Type            // kind of divergence
	Value1   jsonvalue.Value // value in the first object
	Value2   jsonvalue.Value // value in the second object
}

// Value returns the record as a JSON object with the keys property, type,
// value1 and value2. Undefined values are omitted when encoded.
func (d Difference) Value() jsonvalue.Value {
	obj := jsonvalue.NewObject().
		Set("property", jsonvalue.String(d.Property)).
		Set("type", jsonvalue.String(string(d.Type))).
		Set("value1", d.Value1).
		Set("value2", d.Value2)
	return jsonvalue.ObjectValue(obj)
}

// MarshalJSON encodes the record the way Value does.
func (d Difference) MarshalJSON() ([]byte, error) {
	return d.Value().MarshalJSON()
}

// Differences converts records into a JSON array value. The result is an empty
// array, never undefined, when diffs is empty.
func Differences(diffs []Difference) jsonvalue.Value {
	elems := make([]jsonvalue.Value, len(diffs))
	for i, d := range diffs {
		elems[i] = d.Value()
	}
	return jsonvalue.Array(elems...)
}

// Diff compares two objects and returns their differences. It is DiffPath
// with an empty prefix.
func Diff(a, b jsonvalue.Value) []Difference {
	return DiffPath(a, b, "")
}

// DiffPath compares two objects and returns their differences with every
// property path prefixed by prefix.
//
// Keys are visited in the order of a's keys followed by the keys only b has.
// Differences found inside a nested object appear at the position of that
// object's key. A value that is not an object contributes no keys.
//
// For a key present in both objects:
//   - two objects are compared recursively;
//   - two arrays produce one ArrayDifference record when they are unequal
//     under arraysEqual;
//   - anything else produces a ValueDifference record unless the values are
//     strictly identical. Kind mismatches (object vs number, array vs
//     object) land here.
func DiffPath(a, b jsonvalue.Value, prefix string) []Difference {
	objA, objB := ownKeys(a), ownKeys(b)

	var diffs []Difference
	visit := func(key string) {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		v1, inA := objA.Get(key)
		v2, inB := objB.Get(key)
		switch {
		case !inA:
			diffs = append(diffs, Difference{Property: path, Type: MissingInFirst, Value2: v2})
		case !inB:
			diffs = append(diffs, Difference{Property: path, Type: MissingInSecond, Value1: v1})
		case v1.IsPlainObject() && v2.IsPlainObject():
			diffs = append(diffs, DiffPath(v1, v2, path)...)
		case v1.IsArray() && v2.IsArray():
			if !arraysEqual(v1.AsArray(), v2.AsArray()) {
				diffs = append(diffs, Difference{Property: path, Type: ArrayDifference, Value1: v1, Value2: v2})
			}
		case !identical(v1, v2):
			diffs = append(diffs, Difference{Property: path, Type: ValueDifference, Value1: v1, Value2: v2})
		}
	}

	for _, k := range objA.Keys() {
		visit(k)
	}
	for _, k := range objB.Keys() {
		if !objA.Has(k) {
			visit(k)
		}
	}
	return diffs
}

// ownKeys returns the object held by v, or nil when v is not an object.
func ownKeys(v jsonvalue.Value) *jsonvalue.Object {
	if !v.IsPlainObject() {
		return nil
	}
	return v.AsObject()
}

// arraysEqual reports whether two arrays have the same length and pairwise
// equal elements. Object elements are equal when a fresh top-level Diff finds
// nothing, array elements recurse, and everything else must be strictly
// identical.
//
// This is deliberately not DeepEqual: NaN elements never match here, and
// undefined members inside object elements count as present keys.
func arraysEqual(a, b []jsonvalue.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		switch {
		case x.IsPlainObject() && y.IsPlainObject():
			if len(Diff(x, y)) > 0 {
				return false
			}
		case x.IsArray() && y.IsArray():
			if !arraysEqual(x.AsArray(), y.AsArray()) {
				return false
			}
		case !identical(x, y):
			return false
		}
	}
	return true
}

// identical is strict identity comparison. Scalars compare by value, NaN is
// never identical to anything, and distinct containers are never identical.
func identical(a, b jsonvalue.Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case jsonvalue.KindUndefined, jsonvalue.KindNull:
		return true
	case jsonvalue.KindBool:
		return a.AsBool() == b.AsBool()
	case jsonvalue.KindNumber:
		return a.AsNumber() == b.AsNumber()
	case jsonvalue.KindString:
		return a.AsString() == b.AsString()
	default:
		return false
	}
}
