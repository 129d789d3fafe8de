package transform

import "github.com/matzehuels/jsonops/pkg/jsonvalue"

// Flatten returns the leaves of arr in depth-first order, with every nested
// array expanded in place. Objects are leaves and are not descended into.
func Flatten(arr []jsonvalue.Value) []jsonvalue.Value {
	out := make([]jsonvalue.Value, 0, len(arr))
	return appendFlat(out, arr)
}

func appendFlat(out, arr []jsonvalue.Value) []jsonvalue.Value {
	for _, v := range arr {
		if v.IsArray() {
			out = appendFlat(out, v.AsArray())
			continue
		}
		out = append(out, v)
	}
	return out
}
