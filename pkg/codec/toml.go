package codec

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/jsonops/pkg/jsonvalue"
)

// ErrTOMLRoot is returned when encoding a value that is not an object as TOML.
var ErrTOMLRoot = errors.New("toml documents must be objects")

type tomlCodec struct{}

// TOML returns the TOML codec. Decoding keeps the document's key order;
// encoding writes keys sorted, with tables after plain keys. Nulls have no
// TOML form: null object members are dropped and null array elements fail.
func TOML() Codec {
	return &tomlCodec{}
}

func (c *tomlCodec) Name() string         { return "toml" }
func (c *tomlCodec) ContentType() string  { return "application/toml" }
func (c *tomlCodec) Extensions() []string { return []string{".toml"} }

func (c *tomlCodec) Decode(data []byte) (jsonvalue.Value, error) {
	var m map[string]any
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return jsonvalue.Value{}, fmt.Errorf("decode toml: %w", err)
	}

	order := make(map[string]int)
	for i, key := range md.Keys() {
		p := strings.Join(key, "\x00")
		if _, ok := order[p]; !ok {
			order[p] = i
		}
	}

	v, err := fromTOML(m, nil, order)
	if err != nil {
		return jsonvalue.Value{}, fmt.Errorf("decode toml: %w", err)
	}
	return v, nil
}

func (c *tomlCodec) Encode(v jsonvalue.Value) ([]byte, error) {
	if !v.IsPlainObject() {
		return nil, fmt.Errorf("encode toml: %w", ErrTOMLRoot)
	}
	tree, err := toTOML(v)
	if err != nil {
		return nil, fmt.Errorf("encode toml: %w", err)
	}
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.Indent = ""
	if err := enc.Encode(tree); err != nil {
		return nil, fmt.Errorf("encode toml: %w", err)
	}
	return buf.Bytes(), nil
}

// fromTOML converts a decoded TOML tree, ordering table keys by their first
// appearance in the document.
func fromTOML(x any, path []string, order map[string]int) (jsonvalue.Value, error) {
	switch t := x.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		pos := func(k string) int {
			if i, ok := order[strings.Join(append(path[:len(path):len(path)], k), "\x00")]; ok {
				return i
			}
			return math.MaxInt
		}
		sort.SliceStable(keys, func(i, j int) bool {
			pi, pj := pos(keys[i]), pos(keys[j])
			if pi != pj {
				return pi < pj
			}
			return keys[i] < keys[j]
		})

		obj := jsonvalue.NewObject()
		for _, k := range keys {
			v, err := fromTOML(t[k], append(path[:len(path):len(path)], k), order)
			if err != nil {
				return jsonvalue.Value{}, err
			}
			obj.Set(k, v)
		}
		return jsonvalue.ObjectValue(obj), nil

	case []map[string]any:
		elems := make([]jsonvalue.Value, len(t))
		for i, e := range t {
			v, err := fromTOML(e, path, order)
			if err != nil {
				return jsonvalue.Value{}, err
			}
			elems[i] = v
		}
		return jsonvalue.Array(elems...), nil

	case []any:
		elems := make([]jsonvalue.Value, len(t))
		for i, e := range t {
			v, err := fromTOML(e, path, order)
			if err != nil {
				return jsonvalue.Value{}, err
			}
			elems[i] = v
		}
		return jsonvalue.Array(elems...), nil

	case time.Time:
		return jsonvalue.String(formatTOMLTime(t)), nil
	}
	return jsonvalue.FromAny(x)
}

// formatTOMLTime renders local dates and times without a zone. The decoder
// marks them with fixed zones named date-local, time-local and
// datetime-local.
func formatTOMLTime(t time.Time) string {
	switch t.Location().String() {
	case "date-local":
		return t.Format("2006-01-02")
	case "time-local":
		return t.Format("15:04:05.999999999")
	case "datetime-local":
		return t.Format("2006-01-02T15:04:05.999999999")
	}
	return t.Format(time.RFC3339Nano)
}

func toTOML(v jsonvalue.Value) (any, error) {
	switch v.Kind() {
	case jsonvalue.KindObject:
		out := make(map[string]any, v.AsObject().Len())
		var err error
		v.AsObject().Each(func(k string, e jsonvalue.Value) bool {
			if e.IsUndefined() || e.IsNull() {
				return true
			}
			out[k], err = toTOML(e)
			return err == nil
		})
		return out, err

	case jsonvalue.KindArray:
		out := make([]any, len(v.AsArray()))
		for i, e := range v.AsArray() {
			if e.IsUndefined() || e.IsNull() {
				return nil, fmt.Errorf("[%d]: null array elements cannot be encoded", i)
			}
			x, err := toTOML(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = x
		}
		return out, nil

	case jsonvalue.KindNumber:
		f := v.AsNumber()
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f), nil
		}
		return f, nil

	case jsonvalue.KindBool:
		return v.AsBool(), nil

	case jsonvalue.KindString:
		return v.AsString(), nil
	}
	return nil, fmt.Errorf("cannot encode %s", v.Kind())
}
