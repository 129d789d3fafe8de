package ops

import (
	"github.com/matzehuels/jsonops/pkg/archive"
	"github.com/matzehuels/jsonops/pkg/compare"
	"github.com/matzehuels/jsonops/pkg/errors"
	"github.com/matzehuels/jsonops/pkg/jsonvalue"
	"github.com/matzehuels/jsonops/pkg/transform"
)

// CompareObjects diffs body.obj1 against body.obj2.
var CompareObjects = Operation{
	Name:    "compareObjects",
	Summary: "List the differences between two objects",
	Run:     runCompareObjects,
}

// DiffArrays partitions body.array1 and body.array2 by deep equality.
var DiffArrays = Operation{
	Name:       "diffArrays",
	Summary:    "Find the elements unique to each of two arrays",
	JSONErrors: true,
	Run:        runDiffArrays,
}

// CreateMapFromArray keys the items of body.array by body.property.
var CreateMapFromArray = Operation{
	Name:    "createMapFromArray",
	Summary: "Index array items by a nested property",
	Run:     runCreateMapFromArray,
}

// FlattenArray flattens body.array recursively.
var FlattenArray = Operation{
	Name:    "flattenArray",
	Summary: "Flatten nested arrays",
	Run:     runFlattenArray,
}

// GroupArrayBy groups the items of body.array by body.key.
var GroupArrayBy = Operation{
	Name:    "groupArrayBy",
	Summary: "Group array items by a property",
	Run:     runGroupArrayBy,
}

// SortArray sorts body.array using body.sortMode.
var SortArray = Operation{
	Name:    "sortArray",
	Summary: "Sort an array of primitives",
	Run:     runSortArray,
}

// ExtractFilesFromZip lists the files of a Base64-encoded ZIP body.
var ExtractFilesFromZip = Operation{
	Name:    "extractFilesFromZip",
	Summary: "Extract the files of a Base64-encoded ZIP archive",
	Run:     runExtractFilesFromZip,
}

func invalid(msg string) error {
	return errors.New(errors.ErrCodeInvalidInput, "%s", msg)
}

// field reads an own property of the decoded body. Bodies that are not
// objects have no fields.
func field(body jsonvalue.Value, name string) jsonvalue.Value {
	v, _ := body.Property(name)
	return v
}

func runCompareObjects(req Request) (jsonvalue.Value, error) {
	body, err := req.decode()
	if err != nil {
		return body, err
	}
	obj1, obj2 := field(body, "obj1"), field(body, "obj2")
	if !obj1.IsPlainObject() || !obj2.IsPlainObject() {
		return jsonvalue.Undefined(), invalid(MsgNeedObjects)
	}
	return compare.Differences(compare.Diff(obj1, obj2)), nil
}

func runDiffArrays(req Request) (jsonvalue.Value, error) {
	body, err := req.decode()
	if err != nil {
		return body, err
	}
	a1, a2 := field(body, "array1"), field(body, "array2")
	if !a1.IsArray() || !a2.IsArray() {
		return jsonvalue.Undefined(), invalid(MsgNeedArrays)
	}
	return compare.PartitionArrays(a1.AsArray(), a2.AsArray()).Value(), nil
}

func runCreateMapFromArray(req Request) (jsonvalue.Value, error) {
	body, err := req.decode()
	if err != nil {
		return body, err
	}
	arr, prop := field(body, "array"), field(body, "property")
	if !arr.IsArray() {
		return jsonvalue.Undefined(), invalid(MsgNeedArray)
	}
	if prop.Kind() != jsonvalue.KindString || prop.AsString() == "" {
		return jsonvalue.Undefined(), invalid(MsgNeedProperty)
	}
	return jsonvalue.ObjectValue(transform.MapBy(arr.AsArray(), prop.AsString())), nil
}

func runFlattenArray(req Request) (jsonvalue.Value, error) {
	body, err := req.decode()
	if err != nil {
		return body, err
	}
	arr := field(body, "array")
	if !arr.IsArray() {
		return jsonvalue.Undefined(), invalid(MsgNeedArray)
	}
	return jsonvalue.Array(transform.Flatten(arr.AsArray())...), nil
}

func runGroupArrayBy(req Request) (jsonvalue.Value, error) {
	body, err := req.decode()
	if err != nil {
		return body, err
	}
	arr, key := field(body, "array"), field(body, "key")
	if !arr.IsArray() || !key.Truthy() {
		return jsonvalue.Undefined(), invalid(MsgNeedGroupKey)
	}
	return jsonvalue.ObjectValue(transform.GroupBy(arr.AsArray(), jsonvalue.ToString(key))), nil
}

func runSortArray(req Request) (jsonvalue.Value, error) {
	body, err := req.decode()
	if err != nil {
		return body, err
	}
	arr := field(body, "array")
	if !arr.IsArray() {
		return jsonvalue.Undefined(), invalid(MsgNeedArray)
	}

	// Mode names match exactly; anything else auto-detects.
	mode := transform.SortAuto
	if m := field(body, "sortMode"); m.Kind() == jsonvalue.KindString {
		mode = transform.SortMode(m.AsString())
	}

	sorted, err := transform.Sort(arr.AsArray(), mode)
	if err != nil {
		return jsonvalue.Undefined(), errors.Wrap(errors.ErrCodeInvalidInput, err, MsgUnsortable)
	}
	return jsonvalue.Array(sorted...), nil
}

func runExtractFilesFromZip(req Request) (jsonvalue.Value, error) {
	if len(req.Body) == 0 {
		return jsonvalue.Undefined(), invalid(MsgNeedZip)
	}
	files, err := archive.ExtractBase64(req.Body)
	if err != nil {
		return jsonvalue.Undefined(), errors.Wrap(errors.ErrCodeInvalidArchive, err, "%s%v", MsgZipPrefix, err)
	}
	return archive.Files(files), nil
}
