package jsonvalue

import (
	"math"
	"strconv"
	"unicode/utf16"
)

// Kind identifies the variant held by a Value.
type Kind uint8

// Value kinds.
const (
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

var kindNames = [...]string{
	KindUndefined: "undefined",
	KindNull:      "null",
	KindBool:      "boolean",
	KindNumber:    "number",
	KindString:    "string",
	KindArray:     "array",
	KindObject:    "object",
}

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is an immutable JSON value. The zero Value is undefined.
//
// Arrays and objects returned by the accessors share storage with the Value;
// callers must not modify them.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	arr  []Value
	obj  *Object
}

// Undefined returns the undefined value.
func Undefined() Value { return Value{} }

// Null returns JSON null.
func Null() Value { return Value{kind: KindNull} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// NaN returns the numeric NaN value.
func NaN() Value { return Number(math.NaN()) }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array returns an array value holding elems. The slice is not copied.
func Array(elems ...Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{kind: KindArray, arr: elems}
}

// ObjectValue wraps o as a Value. A nil o yields an empty object.
func ObjectValue(o *Object) Value {
	if o == nil {
		o = NewObject()
	}
	return Value{kind: KindObject, obj: o}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsUndefined reports whether v is undefined.
func (v Value) IsUndefined() bool { return v.kind == KindUndefined }

// IsNull reports whether v is JSON null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsNaN reports whether v is the number NaN.
func (v Value) IsNaN() bool { return v.kind == KindNumber && math.IsNaN(v.n) }

// IsArray reports whether v is an array.
func (v Value) IsArray() bool { return v.kind == KindArray }

// IsPlainObject reports whether v is an object. Arrays and null are not plain
// objects.
func (v Value) IsPlainObject() bool { return v.kind == KindObject }

// AsBool returns the boolean held by v, or false.
func (v Value) AsBool() bool { return v.b }

// AsNumber returns the number held by v, or 0.
func (v Value) AsNumber() float64 { return v.n }

// AsString returns the string held by v, or "".
func (v Value) AsString() string { return v.s }

// AsArray returns the elements of an array value, or nil.
func (v Value) AsArray() []Value { return v.arr }

// AsObject returns the object held by v, or nil.
func (v Value) AsObject() *Object { return v.obj }

// Truthy reports whether v converts to true in a JavaScript boolean context.
// Objects and arrays are always truthy; "", 0, NaN, null and undefined are not.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n != 0 && !math.IsNaN(v.n)
	case KindString:
		return v.s != ""
	case KindArray, KindObject:
		return true
	default:
		return false
	}
}

// Property looks up an own property of v. Objects expose their keys, arrays
// and strings expose their indices and "length". Strings are indexed by UTF-16
// code unit. Every other kind has no own properties.
func (v Value) Property(name string) (Value, bool) {
	switch v.kind {
	case KindObject:
		return v.obj.Get(name)
	case KindArray:
		if name == "length" {
			return Number(float64(len(v.arr))), true
		}
		if i, ok := arrayIndex(name); ok && i < len(v.arr) {
			return v.arr[i], true
		}
	case KindString:
		units := utf16.Encode([]rune(v.s))
		if name == "length" {
			return Number(float64(len(units))), true
		}
		if i, ok := arrayIndex(name); ok && i < len(units) {
			return String(string(utf16.Decode(units[i : i+1]))), true
		}
	}
	return Value{}, false
}

// arrayIndex parses a canonical non-negative integer index ("0", "17"; not
// "01" or "+1").
func arrayIndex(s string) (int, bool) {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return i, true
}

// Equal reports whether v and o are structurally identical: same kind, same
// scalar, same elements, same object keys in the same order. NaN equals NaN.
//
// Equal is not the comparison used by the diff engine; see package compare.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindUndefined, KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		if math.IsNaN(v.n) {
			return math.IsNaN(o.n)
		}
		return v.n == o.n
	case KindString:
		return v.s == o.s
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		return v.obj.equal(o.obj)
	}
	return false
}

// String returns the compact JSON encoding of v, for logs and test output.
func (v Value) String() string {
	b, err := v.MarshalJSON()
	if err != nil {
		return "<" + v.kind.String() + ">"
	}
	return string(b)
}
