package codec

import (
	"bytes"
	"fmt"
	"math"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"

	"github.com/matzehuels/jsonops/pkg/jsonvalue"
)

type msgpackCodec struct{}

// MsgPack returns the MessagePack codec. Maps are read and written in wire
// order and integral numbers are written as compact integers.
func MsgPack() Codec {
	return &msgpackCodec{}
}

func (c *msgpackCodec) Name() string         { return "msgpack" }
func (c *msgpackCodec) ContentType() string  { return "application/msgpack" }
func (c *msgpackCodec) Extensions() []string { return []string{".msgpack", ".mpk"} }

func (c *msgpackCodec) Decode(data []byte) (jsonvalue.Value, error) {
	r := bytes.NewReader(data)
	dec := msgpack.NewDecoder(r)
	v, err := decodeMsgpack(dec, 1)
	if err != nil {
		return jsonvalue.Value{}, fmt.Errorf("decode msgpack: %w", err)
	}
	if r.Len() > 0 {
		return jsonvalue.Value{}, fmt.Errorf("decode msgpack: %d bytes of trailing data", r.Len())
	}
	return v, nil
}

func (c *msgpackCodec) Encode(v jsonvalue.Value) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := encodeMsgpack(enc, v); err != nil {
		return nil, fmt.Errorf("encode msgpack: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeMsgpack reads one value. Containers nested deeper than
// jsonvalue.MaxDepth fail with jsonvalue.ErrTooDeep.
func decodeMsgpack(dec *msgpack.Decoder, depth int) (jsonvalue.Value, error) {
	code, err := dec.PeekCode()
	if err != nil {
		return jsonvalue.Value{}, err
	}

	isMap := msgpcode.IsFixedMap(code) || code == msgpcode.Map16 || code == msgpcode.Map32
	isArray := msgpcode.IsFixedArray(code) || code == msgpcode.Array16 || code == msgpcode.Array32
	if (isMap || isArray) && depth > jsonvalue.MaxDepth {
		return jsonvalue.Value{}, jsonvalue.ErrTooDeep
	}

	switch {
	case isMap:
		n, err := dec.DecodeMapLen()
		if err != nil {
			return jsonvalue.Value{}, err
		}
		obj := jsonvalue.NewObject()
		for i := 0; i < n; i++ {
			k, err := dec.DecodeInterfaceLoose()
			if err != nil {
				return jsonvalue.Value{}, err
			}
			key, ok := k.(string)
			if !ok {
				key = fmt.Sprint(k)
			}
			v, err := decodeMsgpack(dec, depth+1)
			if err != nil {
				return jsonvalue.Value{}, err
			}
			obj.Set(key, v)
		}
		return jsonvalue.ObjectValue(obj), nil

	case isArray:
		n, err := dec.DecodeArrayLen()
		if err != nil {
			return jsonvalue.Value{}, err
		}
		elems := make([]jsonvalue.Value, 0, n)
		for i := 0; i < n; i++ {
			v, err := decodeMsgpack(dec, depth+1)
			if err != nil {
				return jsonvalue.Value{}, err
			}
			elems = append(elems, v)
		}
		return jsonvalue.Array(elems...), nil
	}

	x, err := dec.DecodeInterfaceLoose()
	if err != nil {
		return jsonvalue.Value{}, err
	}
	return jsonvalue.FromAny(x)
}

func encodeMsgpack(enc *msgpack.Encoder, v jsonvalue.Value) error {
	switch v.Kind() {
	case jsonvalue.KindObject:
		obj := v.AsObject()
		n := 0
		obj.Each(func(_ string, e jsonvalue.Value) bool {
			if !e.IsUndefined() {
				n++
			}
			return true
		})
		if err := enc.EncodeMapLen(n); err != nil {
			return err
		}
		var err error
		obj.Each(func(k string, e jsonvalue.Value) bool {
			if e.IsUndefined() {
				return true
			}
			if err = enc.EncodeString(k); err != nil {
				return false
			}
			err = encodeMsgpack(enc, e)
			return err == nil
		})
		return err

	case jsonvalue.KindArray:
		elems := v.AsArray()
		if err := enc.EncodeArrayLen(len(elems)); err != nil {
			return err
		}
		for _, e := range elems {
			if err := encodeMsgpack(enc, e); err != nil {
				return err
			}
		}
		return nil

	case jsonvalue.KindNumber:
		f := v.AsNumber()
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return enc.EncodeInt(int64(f))
		}
		return enc.EncodeFloat64(f)

	case jsonvalue.KindBool:
		return enc.EncodeBool(v.AsBool())

	case jsonvalue.KindString:
		return enc.EncodeString(v.AsString())

	default:
		return enc.EncodeNil()
	}
}
