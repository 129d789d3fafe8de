// Package transform provides the array reshaping operations: recursive
// flattening, grouping by a key, keyed lookup maps and polymorphic sorting.
//
// Every function returns fresh values and leaves its input untouched.
// Keys derived from element values are stringified the way JavaScript
// coerces a value into a property name (see [jsonvalue.ToString]), so the
// number 1 and the string "1" land under the same key.
package transform
