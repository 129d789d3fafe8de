package transform

import "github.com/matzehuels/jsonops/pkg/jsonvalue"

// GroupBy buckets the items of arr by the stringified value of their key
// property. Items without the property, including null items and primitives,
// are grouped under "undefined".
//
// Groups appear in the order their key is first seen and each group keeps the
// input order of its items.
func GroupBy(arr []jsonvalue.Value, key string) *jsonvalue.Object {
	groups := jsonvalue.NewObject()
	buckets := make(map[string][]jsonvalue.Value)
	var order []string

	for _, item := range arr {
		v, _ := item.Property(key)
		name := jsonvalue.ToString(v)
		if _, seen := buckets[name]; !seen {
			order = append(order, name)
		}
		buckets[name] = append(buckets[name], item)
	}

	for _, name := range order {
		groups.Set(name, jsonvalue.Array(buckets[name]...))
	}
	return groups
}
