package codec

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"

	"github.com/matzehuels/jsonops/pkg/jsonvalue"
)

// ErrBSONRoot is returned when encoding a value that is not an object as BSON.
var ErrBSONRoot = errors.New("bson documents must be objects")

var errBSONMalformed = errors.New("malformed document")

type bsonCodec struct{}

// BSON returns the BSON codec. Documents keep their field order. Dates are
// read as RFC 3339 strings, object ids as hex strings and binary data as
// Base64.
func BSON() Codec {
	return &bsonCodec{}
}

func (c *bsonCodec) Name() string         { return "bson" }
func (c *bsonCodec) ContentType() string  { return "application/bson" }
func (c *bsonCodec) Extensions() []string { return []string{".bson"} }

func (c *bsonCodec) Decode(data []byte) (jsonvalue.Value, error) {
	if err := checkBSONDepth(data); err != nil {
		return jsonvalue.Value{}, fmt.Errorf("decode bson: %w", err)
	}
	var doc bson.D
	if err := bson.Unmarshal(data, &doc); err != nil {
		return jsonvalue.Value{}, fmt.Errorf("decode bson: %w", err)
	}
	v, err := fromBSON(doc)
	if err != nil {
		return jsonvalue.Value{}, fmt.Errorf("decode bson: %w", err)
	}
	return v, nil
}

func (c *bsonCodec) Encode(v jsonvalue.Value) ([]byte, error) {
	if !v.IsPlainObject() {
		return nil, fmt.Errorf("encode bson: %w", ErrBSONRoot)
	}
	data, err := bson.Marshal(toBSON(v))
	if err != nil {
		return nil, fmt.Errorf("encode bson: %w", err)
	}
	return data, nil
}

// checkBSONDepth walks the embedded documents and arrays of data without
// recursion and fails with jsonvalue.ErrTooDeep when they nest deeper than
// jsonvalue.MaxDepth.
func checkBSONDepth(data []byte) error {
	type frame struct {
		doc   []byte
		depth int
	}
	stack := []frame{{doc: data, depth: 1}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.depth > jsonvalue.MaxDepth {
			return jsonvalue.ErrTooDeep
		}

		length, rem, ok := bsoncore.ReadLength(f.doc)
		if !ok || length < 5 || int(length) > len(f.doc) {
			return errBSONMalformed
		}
		rem = rem[:length-5] // elements, without the trailing null byte
		for len(rem) > 0 {
			elem, rest, ok := bsoncore.ReadElement(rem)
			if !ok {
				return errBSONMalformed
			}
			rem = rest
			val, err := elem.ValueErr()
			if err != nil {
				return err
			}
			if val.Type == bsontype.EmbeddedDocument || val.Type == bsontype.Array {
				stack = append(stack, frame{doc: val.Data, depth: f.depth + 1})
			}
		}
	}
	return nil
}

func fromBSON(x any) (jsonvalue.Value, error) {
	switch t := x.(type) {
	case bson.D:
		obj := jsonvalue.NewObject()
		for _, e := range t {
			v, err := fromBSON(e.Value)
			if err != nil {
				return jsonvalue.Value{}, fmt.Errorf("%s: %w", e.Key, err)
			}
			obj.Set(e.Key, v)
		}
		return jsonvalue.ObjectValue(obj), nil

	case bson.M:
		return jsonvalue.FromAny(map[string]any(t))

	case bson.A:
		elems := make([]jsonvalue.Value, len(t))
		for i, e := range t {
			v, err := fromBSON(e)
			if err != nil {
				return jsonvalue.Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			elems[i] = v
		}
		return jsonvalue.Array(elems...), nil

	case primitive.DateTime:
		return jsonvalue.String(t.Time().UTC().Format(time.RFC3339Nano)), nil

	case primitive.ObjectID:
		return jsonvalue.String(t.Hex()), nil

	case primitive.Binary:
		return jsonvalue.FromAny(t.Data)

	case primitive.Decimal128:
		f, err := strconv.ParseFloat(t.String(), 64)
		if err != nil {
			return jsonvalue.NaN(), nil
		}
		return jsonvalue.Number(f), nil

	case primitive.Timestamp:
		return jsonvalue.Number(float64(t.T)), nil

	case primitive.Regex:
		return jsonvalue.String("/" + t.Pattern + "/" + t.Options), nil

	case primitive.Symbol:
		return jsonvalue.String(string(t)), nil

	case primitive.JavaScript:
		return jsonvalue.String(string(t)), nil

	case primitive.Undefined:
		return jsonvalue.Undefined(), nil

	case primitive.Null:
		return jsonvalue.Null(), nil
	}
	return jsonvalue.FromAny(x)
}

func toBSON(v jsonvalue.Value) any {
	switch v.Kind() {
	case jsonvalue.KindObject:
		doc := make(bson.D, 0, v.AsObject().Len())
		v.AsObject().Each(func(k string, e jsonvalue.Value) bool {
			if !e.IsUndefined() {
				doc = append(doc, bson.E{Key: k, Value: toBSON(e)})
			}
			return true
		})
		return doc

	case jsonvalue.KindArray:
		arr := make(bson.A, len(v.AsArray()))
		for i, e := range v.AsArray() {
			arr[i] = toBSON(e)
		}
		return arr

	case jsonvalue.KindNumber:
		f := v.AsNumber()
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			n := int64(f)
			if n >= math.MinInt32 && n <= math.MaxInt32 {
				return int32(n)
			}
			return n
		}
		return f

	case jsonvalue.KindBool:
		return v.AsBool()

	case jsonvalue.KindString:
		return v.AsString()
	}
	return nil
}
