package jsonvalue

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestParsePreservesKeyOrder(t *testing.T) {
	v, err := Parse([]byte(`{"z": 1, "a": {"y": true, "b": null}, "m": [1, "two"]}`))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if !v.IsPlainObject() {
		t.Fatalf("Parse() kind = %v, want object", v.Kind())
	}

	got := strings.Join(v.AsObject().Keys(), ",")
	if got != "z,a,m" {
		t.Errorf("keys = %q, want %q", got, "z,a,m")
	}

	inner, _ := v.AsObject().Get("a")
	if got := strings.Join(inner.AsObject().Keys(), ","); got != "y,b" {
		t.Errorf("nested keys = %q, want %q", got, "y,b")
	}
}

func TestParseDuplicateKeys(t *testing.T) {
	v := MustParse(`{"a": 1, "b": 2, "a": 3}`)

	if got := strings.Join(v.AsObject().Keys(), ","); got != "a,b" {
		t.Errorf("keys = %q, want %q", got, "a,b")
	}
	a, _ := v.AsObject().Get("a")
	if a.AsNumber() != 3 {
		t.Errorf("a = %v, want 3", a)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"garbage", "invalid json"},
		{"trailing data", `{"a":1} {"b":2}`},
		{"unterminated object", `{"a":1`},
		{"unterminated array", `[1,2`},
		{"single quotes", `{'a':1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.input)); err == nil {
				t.Errorf("Parse(%q) succeeded, want error", tt.input)
			}
		})
	}
}

func TestParseDepthLimit(t *testing.T) {
	nested := func(n int) string {
		return strings.Repeat("[", n) + strings.Repeat("]", n)
	}

	v, err := Parse([]byte(nested(MaxDepth)))
	if err != nil {
		t.Fatalf("Parse at MaxDepth: %v", err)
	}
	depth := 0
	for v.IsArray() {
		depth++
		if len(v.AsArray()) == 0 {
			break
		}
		v = v.AsArray()[0]
	}
	if depth != MaxDepth {
		t.Errorf("depth = %d, want %d", depth, MaxDepth)
	}

	tests := map[string]string{
		"arrays":          nested(MaxDepth + 1),
		"objects":         strings.Repeat(`{"a":`, MaxDepth+1) + "1" + strings.Repeat("}", MaxDepth+1),
		"unterminated":    strings.Repeat("[", 1<<20),
		"mixed under key": `{"obj1":` + strings.Repeat(`[{"k":`, MaxDepth),
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(in)); !errors.Is(err, ErrTooDeep) {
				t.Errorf("Parse error = %v, want ErrTooDeep", err)
			}
		})
	}
}

func TestParseReplacesInvalidUTF16(t *testing.T) {
	a, err := Parse([]byte(`"\ud800"`))
	if err != nil {
		t.Fatal(err)
	}
	b := MustParse(`"\ufffd"`)
	if !a.Equal(b) {
		t.Errorf("lone surrogate decoded to %q, want U+FFFD", a.AsString())
	}
}

func TestParseScalars(t *testing.T) {
	tests := []struct {
		input string
		want  Value
	}{
		{`null`, Null()},
		{`true`, Bool(true)},
		{`"hi"`, String("hi")},
		{`1.25`, Number(1.25)},
		{`-0`, Number(0)},
		{`1e400`, Number(math.Inf(1))},
		{`  42  `, Number(42)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse([]byte(tt.input))
			if err != nil {
				t.Fatalf("Parse() error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestMarshalJSON(t *testing.T) {
	obj := NewObject().
		Set("a", Number(1)).
		Set("skip", Undefined()).
		Set("nan", NaN()).
		Set("arr", Array(Undefined(), String("<x>"), Bool(false))).
		Set("nested", ObjectValue(NewObject().Set("q", String("line\nbreak"))))

	got, err := ObjectValue(obj).MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error: %v", err)
	}

	want := `{"a":1,"nan":null,"arr":[null,"<x>",false],"nested":{"q":"line\nbreak"}}`
	if string(got) != want {
		t.Errorf("MarshalJSON() = %s, want %s", got, want)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	const doc = `{"name":"Alice","age":30,"tags":["a","b"],"address":{"city":"Seattle","zip":"98101"},"none":null}`
	v := MustParse(doc)
	if got := v.String(); got != doc {
		t.Errorf("String() = %s, want %s", got, doc)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{1, "1"},
		{-42, "-42"},
		{1.5, "1.5"},
		{0.1, "0.1"},
		{1234.5678, "1234.5678"},
		{100, "100"},
		{1e20, "100000000000000000000"},
		{1e21, "1e+21"},
		{1.5e300, "1.5e+300"},
		{0.000001, "0.000001"},
		{1e-7, "1e-7"},
		{1.23e-18, "1.23e-18"},
		{math.NaN(), "NaN"},
		{math.Inf(-1), "-Infinity"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatNumber(tt.in); got != tt.want {
				t.Errorf("FormatNumber(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestToString(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want string
	}{
		{"undefined", Undefined(), "undefined"},
		{"null", Null(), "null"},
		{"bool", Bool(true), "true"},
		{"integer", Number(3), "3"},
		{"float", Number(2.5), "2.5"},
		{"string", String("x"), "x"},
		{"array", MustParse(`[1,null,"a",[2,3]]`), "1,,a,2,3"},
		{"empty array", Array(), ""},
		{"object", MustParse(`{"a":1}`), "[object Object]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToString(tt.in); got != tt.want {
				t.Errorf("ToString(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestToNumber(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want float64
	}{
		{"null", Null(), 0},
		{"true", Bool(true), 1},
		{"number", Number(7), 7},
		{"numeric string", String(" 42 "), 42},
		{"empty string", String(""), 0},
		{"hex string", String("0x1f"), 31},
		{"exponent string", String("1e3"), 1000},
		{"infinity string", String("-Infinity"), math.Inf(-1)},
		{"single element array", MustParse(`[5]`), 5},
		{"empty array", Array(), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToNumber(tt.in); got != tt.want {
				t.Errorf("ToNumber(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	nan := []Value{Undefined(), String("abc"), String("inf"), String("1_000"), MustParse(`{}`), MustParse(`[1,2]`)}
	for _, v := range nan {
		if got := ToNumber(v); !math.IsNaN(got) {
			t.Errorf("ToNumber(%v) = %v, want NaN", v, got)
		}
	}
}

func TestTruthy(t *testing.T) {
	truthy := []Value{Bool(true), Number(-1), String("0"), Array(), ObjectValue(nil)}
	falsy := []Value{Undefined(), Null(), Bool(false), Number(0), NaN(), String("")}

	for _, v := range truthy {
		if !v.Truthy() {
			t.Errorf("%v should be truthy", v)
		}
	}
	for _, v := range falsy {
		if v.Truthy() {
			t.Errorf("%v should be falsy", v)
		}
	}
}

func TestProperty(t *testing.T) {
	doc := MustParse(`{"tags":["x","y"],"name":"héllo"}`)
	tags, _ := doc.Property("tags")
	name, _ := doc.Property("name")

	tests := []struct {
		name   string
		v      Value
		key    string
		want   Value
		wantOK bool
	}{
		{"object key", doc, "tags", tags, true},
		{"missing key", doc, "nope", Undefined(), false},
		{"array index", tags, "1", String("y"), true},
		{"array out of range", tags, "2", Undefined(), false},
		{"array non-canonical index", tags, "01", Undefined(), false},
		{"array length", tags, "length", Number(2), true},
		{"string length", name, "length", Number(5), true},
		{"string index", name, "1", String("é"), true},
		{"number has no properties", Number(1), "length", Undefined(), false},
		{"null has no properties", Null(), "a", Undefined(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.v.Property(tt.key)
			if ok != tt.wantOK || !got.Equal(tt.want) {
				t.Errorf("Property(%q) = (%v, %v), want (%v, %v)", tt.key, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	a := MustParse(`{"a":1,"b":[1,2]}`)
	b := MustParse(`{"a":1,"b":[1,2]}`)
	reordered := MustParse(`{"b":[1,2],"a":1}`)

	if !a.Equal(b) {
		t.Error("identical documents should be Equal")
	}
	if a.Equal(reordered) {
		t.Error("Equal should be sensitive to key order")
	}
	if !NaN().Equal(NaN()) {
		t.Error("NaN should Equal NaN")
	}
	if Null().Equal(Undefined()) {
		t.Error("null should not Equal undefined")
	}
}

func TestFromAny(t *testing.T) {
	in := map[string]any{
		"b":     []any{int64(1), uint8(2), float32(0.5)},
		"a":     map[any]any{"k": true},
		"c":     nil,
		"bytes": []byte("hi"),
	}

	v, err := FromAny(in)
	if err != nil {
		t.Fatalf("FromAny() error: %v", err)
	}

	want := `{"a":{"k":true},"b":[1,2,0.5],"bytes":"aGk=","c":null}`
	if got := v.String(); got != want {
		t.Errorf("FromAny() = %s, want %s", got, want)
	}

	if _, err := FromAny(struct{}{}); err == nil {
		t.Error("FromAny(struct{}{}) should fail")
	}
}

func TestToAny(t *testing.T) {
	obj := NewObject().Set("x", Number(1)).Set("u", Undefined()).Set("l", Array(Null(), String("s")))
	got, ok := ToAny(ObjectValue(obj)).(map[string]any)
	if !ok {
		t.Fatalf("ToAny() returned %T, want map[string]any", got)
	}
	if _, present := got["u"]; present {
		t.Error("undefined members should be dropped")
	}
	if got["x"] != float64(1) {
		t.Errorf("x = %v, want 1", got["x"])
	}
	if l, ok := got["l"].([]any); !ok || len(l) != 2 || l[0] != nil || l[1] != "s" {
		t.Errorf("l = %#v, want [nil s]", got["l"])
	}
}
