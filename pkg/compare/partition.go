package compare

import (
	"github.com/matzehuels/jsonops/pkg/jsonvalue"
)

// Partition is the result of PartitionArrays.
type Partition struct {
	OnlyInFirst  []jsonvalue.Value // elements of the first array with no match in the second
	OnlyInSecond []jsonvalue.Value // elements of the second array with no match in the first
}

// Value returns the partition as {"onlyInFirst": [...], "onlyInSecond": [...]}.
// Both members are arrays even when empty.
func (p Partition) Value() jsonvalue.Value {
	obj := jsonvalue.NewObject().
		Set("onlyInFirst", jsonvalue.Array(p.OnlyInFirst...)).
		Set("onlyInSecond", jsonvalue.Array(p.OnlyInSecond...))
	return jsonvalue.ObjectValue(obj)
}

// MarshalJSON encodes the partition the way Value does.
func (p Partition) MarshalJSON() ([]byte, error) {
	return p.Value().MarshalJSON()
}

// PartitionArrays returns the elements of array1 that are not DeepEqual to any
// element of array2, and vice versa. Relative order is kept. Duplicates are
// treated as set membership: every copy of an element with a match anywhere in
// the other array is dropped, and every copy without one is kept.
func PartitionArrays(array1, array2 []jsonvalue.Value) Partition {
	return Partition{
		OnlyInFirst:  without(array1, array2),
		OnlyInSecond: without(array2, array1),
	}
}

// without returns the elements of xs with no DeepEqual counterpart in ys.
func without(xs, ys []jsonvalue.Value) []jsonvalue.Value {
	out := make([]jsonvalue.Value, 0, len(xs))
	for _, x := range xs {
		if !containsEqual(ys, x) {
			out = append(out, x)
		}
	}
	return out
}

func containsEqual(ys []jsonvalue.Value, x jsonvalue.Value) bool {
	for _, y := range ys {
		if DeepEqual(x, y) {
			return true
		}
	}
	return false
}
