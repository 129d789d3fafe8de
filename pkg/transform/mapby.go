package transform

import (
	"strings"

	"github.com/matzehuels/jsonops/pkg/jsonvalue"
)

// MapBy builds a lookup object from arr keyed by the value found at the
// dot-separated path inside each item.
//
// Items whose path does not resolve are skipped. When several items resolve to
// the same key the last one wins, but the key keeps the position of its first
// occurrence.
func MapBy(arr []jsonvalue.Value, path string) *jsonvalue.Object {
	out := jsonvalue.NewObject()
	parts := strings.Split(path, ".")
	for _, item := range arr {
		v := Lookup(item, parts)
		if v.IsUndefined() {
			continue
		}
		out.Set(jsonvalue.ToString(v), item)
	}
	return out
}

// Lookup resolves parts against v one own property at a time. Resolution
// stops with undefined as soon as the current value is falsy or lacks the
// next property.
func Lookup(v jsonvalue.Value, parts []string) jsonvalue.Value {
	cur := v
	for _, part := range parts {
		if !cur.Truthy() {
			return jsonvalue.Undefined()
		}
		next, ok := cur.Property(part)
		if !ok {
			return jsonvalue.Undefined()
		}
		cur = next
	}
	return cur
}
