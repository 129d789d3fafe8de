package codec

import (
	"github.com/matzehuels/jsonops/pkg/jsonvalue"
)

type jsonCodec struct{}

// JSON returns the JSON codec. Output is compact.
func JSON() Codec {
	return &jsonCodec{}
}

func (c *jsonCodec) Name() string         { return "json" }
func (c *jsonCodec) ContentType() string  { return "application/json" }
func (c *jsonCodec) Extensions() []string { return []string{".json"} }

func (c *jsonCodec) Decode(data []byte) (jsonvalue.Value, error) {
	return jsonvalue.Parse(data)
}

func (c *jsonCodec) Encode(v jsonvalue.Value) ([]byte, error) {
	return v.MarshalJSON()
}
