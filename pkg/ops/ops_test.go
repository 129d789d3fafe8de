package ops

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/klauspost/compress/zip"

	"github.com/matzehuels/jsonops/pkg/codec"
	"github.com/matzehuels/jsonops/pkg/errors"
	"github.com/matzehuels/jsonops/pkg/jsonvalue"
)

func TestRegistry(t *testing.T) {
	want := []string{
		"compareObjects", "diffArrays", "createMapFromArray", "flattenArray",
		"groupArrayBy", "sortArray", "extractFilesFromZip",
	}
	names := Names()
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
		op, ok := Lookup(want[i])
		if !ok || op.Name != want[i] || op.Run == nil || op.Summary == "" {
			t.Errorf("Lookup(%q) = %+v, %v", want[i], op.Name, ok)
		}
	}

	if _, ok := Lookup("CompareObjects"); ok {
		t.Error("Lookup should be case-sensitive")
	}

	for _, op := range All() {
		if op.JSONErrors != (op.Name == "diffArrays") {
			t.Errorf("%s: JSONErrors = %v", op.Name, op.JSONErrors)
		}
	}
}

func TestOperations(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
		body string
		want string
	}{
		{"compare identical", CompareObjects, `{"obj1":{"a":1,"b":"test"},"obj2":{"a":1,"b":"test"}}`, `[]`},
		{"compare value", CompareObjects, `{"obj1":{"a":1},"obj2":{"a":2}}`,
			`[{"property":"a","type":"value difference","value1":1,"value2":2}]`},
		{"compare nested", CompareObjects, `{"obj1":{"a":{"x":1,"y":2}},"obj2":{"a":{"x":1,"y":3}}}`,
			`[{"property":"a.y","type":"value difference","value1":2,"value2":3}]`},
		{"compare arrays", CompareObjects, `{"obj1":{"arr":[1,2,3]},"obj2":{"arr":[1,2,4]}}`,
			`[{"property":"arr","type":"array difference","value1":[1,2,3],"value2":[1,2,4]}]`},
		{"compare missing", CompareObjects, `{"obj1":{"a":1},"obj2":{"b":2}}`,
			`[{"property":"a","type":"missing in second","value1":1},{"property":"b","type":"missing in first","value2":2}]`},
		{"diff arrays", DiffArrays, `{"array1":[1,2,3,4],"array2":[3,4,5,6]}`,
			`{"onlyInFirst":[1,2],"onlyInSecond":[5,6]}`},
		{"diff objects", DiffArrays,
			`{"array1":[{"id":1,"name":"Alice"},{"id":2,"name":"Bob"}],"array2":[{"id":2,"name":"Bob"},{"id":3,"name":"Charlie"}]}`,
			`{"onlyInFirst":[{"id":1,"name":"Alice"}],"onlyInSecond":[{"id":3,"name":"Charlie"}]}`},
		{"diff duplicates", DiffArrays, `{"array1":[1,1,2],"array2":[1]}`, `{"onlyInFirst":[2],"onlyInSecond":[]}`},
		{"map", CreateMapFromArray,
			`{"array":[{"u":{"id":"a"},"n":1},{"u":{"id":"b"},"n":2},{"n":3}],"property":"u.id"}`,
			`{"a":{"u":{"id":"a"},"n":1},"b":{"u":{"id":"b"},"n":2}}`},
		{"flatten", FlattenArray, `{"array":[1,[2,[3,[4]]],[]]}`, `[1,2,3,4]`},
		{"group", GroupArrayBy, `{"array":[{"t":"x","v":1},{"t":"y","v":2},{"t":"x","v":3},{"v":4}],"key":"t"}`,
			`{"x":[{"t":"x","v":1},{"t":"x","v":3}],"y":[{"t":"y","v":2}],"undefined":[{"v":4}]}`},
		{"sort auto numeric", SortArray, `{"array":[10,2,33,1]}`, `[1,2,10,33]`},
		{"sort explicit lex", SortArray, `{"array":[10,2,33,1],"sortMode":"lex"}`, `[1,10,2,33]`},
		{"sort dates", SortArray, `{"array":["2024-03-01","2023-12-25","2024-01-15"]}`,
			`["2023-12-25","2024-01-15","2024-03-01"]`},
		{"sort unknown mode", SortArray, `{"array":["b","a"],"sortMode":"Numeric"}`, `["a","b"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.op.Run(Request{Body: []byte(tt.body)})
			if err != nil {
				t.Fatalf("Run() error: %v", err)
			}
			// Difference records carry the absent side as an undefined
			// member, which encoding drops.
			want := jsonvalue.MustParse(tt.want)
			if got.String() != want.String() {
				t.Errorf("Run() = %s, want %s", got, want)
			}
		})
	}
}

func TestOperationErrors(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
		body string
		code errors.Code
		msg  string
	}{
		{"bad json", CompareObjects, `{"obj1":`, errors.ErrCodeInvalidJSON, MsgInvalidJSON},
		{"empty body", SortArray, ``, errors.ErrCodeInvalidJSON, MsgInvalidJSON},
		{"missing obj2", CompareObjects, `{"obj1":{}}`, errors.ErrCodeInvalidInput, MsgNeedObjects},
		{"obj is array", CompareObjects, `{"obj1":[],"obj2":{}}`, errors.ErrCodeInvalidInput, MsgNeedObjects},
		{"null body", CompareObjects, `null`, errors.ErrCodeInvalidInput, MsgNeedObjects},
		{"array2 missing", DiffArrays, `{"array1":[]}`, errors.ErrCodeInvalidInput, MsgNeedArrays},
		{"array2 object", DiffArrays, `{"array1":[],"array2":{}}`, errors.ErrCodeInvalidInput, MsgNeedArrays},
		{"map no array", CreateMapFromArray, `{"property":"a"}`, errors.ErrCodeInvalidInput, MsgNeedArray},
		{"map no property", CreateMapFromArray, `{"array":[]}`, errors.ErrCodeInvalidInput, MsgNeedProperty},
		{"map empty property", CreateMapFromArray, `{"array":[],"property":""}`, errors.ErrCodeInvalidInput, MsgNeedProperty},
		{"map number property", CreateMapFromArray, `{"array":[],"property":1}`, errors.ErrCodeInvalidInput, MsgNeedProperty},
		{"flatten no array", FlattenArray, `{"array":"x"}`, errors.ErrCodeInvalidInput, MsgNeedArray},
		{"group no key", GroupArrayBy, `{"array":[]}`, errors.ErrCodeInvalidInput, MsgNeedGroupKey},
		{"group zero key", GroupArrayBy, `{"array":[],"key":0}`, errors.ErrCodeInvalidInput, MsgNeedGroupKey},
		{"group empty key", GroupArrayBy, `{"array":[],"key":""}`, errors.ErrCodeInvalidInput, MsgNeedGroupKey},
		{"group no array", GroupArrayBy, `{"key":"a"}`, errors.ErrCodeInvalidInput, MsgNeedGroupKey},
		{"sort no array", SortArray, `{}`, errors.ErrCodeInvalidInput, MsgNeedArray},
		{"sort objects", SortArray, `{"array":[1,{"a":1}]}`, errors.ErrCodeInvalidInput, MsgUnsortable},
		{"sort nested", SortArray, `{"array":[[1],[2]]}`, errors.ErrCodeInvalidInput, MsgUnsortable},
		{"zip empty", ExtractFilesFromZip, ``, errors.ErrCodeInvalidInput, MsgNeedZip},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.op.Run(Request{Body: []byte(tt.body)})
			if err == nil {
				t.Fatal("Run() should fail")
			}
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("code = %q, want %q", got, tt.code)
			}
			if got := errors.UserMessage(err); got != tt.msg {
				t.Errorf("message = %q, want %q", got, tt.msg)
			}
		})
	}
}

func TestExtractFilesFromZip(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if _, err := zw.Create("docs/"); err != nil {
		t.Fatal(err)
	}
	w, err := zw.Create("docs/readme.txt")
	if err != nil {
		t.Fatal(err)
	}
	w.Write([]byte("hello"))
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	body := base64.StdEncoding.EncodeToString(buf.Bytes())
	got, err := ExtractFilesFromZip.Run(Request{Body: []byte(body)})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	want := jsonvalue.MustParse(`[{"fileName":"docs/readme.txt","content":{"$content-type":"text/plain","$content":"aGVsbG8="}}]`)
	if !got.Equal(want) {
		t.Errorf("Run() = %s, want %s", got, want)
	}
}

func TestExtractFilesFromZipNotAZip(t *testing.T) {
	body := base64.StdEncoding.EncodeToString([]byte("definitely not a zip"))
	_, err := ExtractFilesFromZip.Run(Request{Body: []byte(body)})
	if !errors.Is(err, errors.ErrCodeInvalidArchive) {
		t.Fatalf("Run() error = %v, want INVALID_ARCHIVE", err)
	}
	msg := errors.UserMessage(err)
	if len(msg) <= len(MsgZipPrefix) || msg[:len(MsgZipPrefix)] != MsgZipPrefix {
		t.Errorf("message = %q, want prefix %q", msg, MsgZipPrefix)
	}
	if errors.StatusOf(err) != 500 {
		t.Errorf("status = %d, want 500", errors.StatusOf(err))
	}
}

func TestRequestDecoder(t *testing.T) {
	yaml, _ := codec.ByName("yaml")
	body := "array1: [1, 2]\narray2: [2]\n"

	got, err := DiffArrays.Run(Request{Body: []byte(body), Decoder: yaml})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	want := jsonvalue.MustParse(`{"onlyInFirst":[1],"onlyInSecond":[]}`)
	if !got.Equal(want) {
		t.Errorf("Run() = %s, want %s", got, want)
	}

	_, err = DiffArrays.Run(Request{Body: []byte("a: [unclosed"), Decoder: yaml})
	if errors.UserMessage(err) != MsgInvalidJSON {
		t.Errorf("yaml decode failure message = %q", errors.UserMessage(err))
	}
}
