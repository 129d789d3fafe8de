// Package compare implements the structural comparison engine: recursive
// object diffing, deep equality and set-style array difference.
//
// All functions are pure. They never mutate their inputs, never fail, and may
// be called concurrently without synchronization.
//
// # Object diff
//
// [Diff] walks two objects in lockstep and returns a flat list of
// [Difference] records, each naming the dot-separated path where the objects
// diverge:
//
//	a := jsonvalue.MustParse(`{"a": {"x": 1, "y": 2}}`)
//	b := jsonvalue.MustParse(`{"a": {"x": 1, "y": 3}}`)
//	compare.Diff(a, b)
//	// [{Property: "a.y", Type: "value difference", Value1: 2, Value2: 3}]
//
// Arrays are compared atomically: a changed array produces one
// "array difference" record carrying both arrays, never per-element records.
//
// # Deep equality
//
// [DeepEqual] decides value equality across primitives, arrays and objects.
// Two carve-outs differ from naive comparison: NaN equals NaN, and null does
// not equal undefined.
//
// # Array difference
//
// [PartitionArrays] splits two arrays into the elements that have no
// deep-equal counterpart in the other array. Membership, not position, is
// compared, and duplicates are not counted.
package compare
