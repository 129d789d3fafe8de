// Package jsonvalue provides an explicit tagged union for JSON-shaped data.
//
// Every operation in jsonops works on [Value] rather than on the loose
// interface{} trees produced by encoding/json. The union makes each branch
// point exhaustive and keeps two properties that map[string]any loses:
//
//   - Object key order. [Object] remembers the order in which keys were first
//     inserted, so differences and groupings come out in document order.
//   - The difference between an absent value and null. [Undefined] is the
//     zero Value and is distinct from [Null].
//
// # Kinds
//
// A Value is one of:
//
//	KindUndefined  the zero Value; never produced by Parse
//	KindNull       JSON null
//	KindBool       true / false
//	KindNumber     a float64, possibly NaN or ±Inf
//	KindString     a UTF-8 string
//	KindArray      an ordered sequence of Values
//	KindObject     an ordered mapping from string keys to Values
//
// # Encoding
//
// [Parse] decodes JSON text preserving key order. [Value.MarshalJSON] mirrors
// JSON.stringify: NaN and infinities become null, undefined object members
// are dropped and undefined array elements become null.
//
// # Coercion
//
// [ToString], [ToNumber] and [Value.Truthy] implement the JavaScript
// conversions used when JSON values act as map keys or sort keys.
package jsonvalue
