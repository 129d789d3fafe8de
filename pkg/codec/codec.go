// Package codec converts between wire formats and [jsonvalue.Value].
//
// Every codec decodes a document into the JSON value model and encodes a value
// back. Codecs preserve object key order wherever the format carries one
// (JSON, YAML, MessagePack and BSON); TOML input keeps document order but TOML
// output is written with sorted keys.
//
// Codecs are looked up by name, media type or file extension:
//
//	c, ok := codec.ByContentType("application/x-yaml; charset=utf-8")
//	v, err := c.Decode(body)
package codec

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/matzehuels/jsonops/pkg/jsonvalue"
)

// Codec is a wire format for JSON values.
type Codec interface {
	// Name returns the short format name (e.g., "yaml").
	Name() string

	// ContentType returns the canonical media type for this codec.
	ContentType() string

	// Extensions returns the file extensions, with leading dot, mapped to
	// this codec.
	Extensions() []string

	// Decode parses one document.
	Decode(data []byte) (jsonvalue.Value, error)

	// Encode serializes v as one document.
	Encode(v jsonvalue.Value) ([]byte, error)
}

// Default is the codec used when a request names no format.
var Default = JSON()

var registry = []Codec{Default, YAML(), TOML(), MsgPack(), BSON()}

// mediaAliases maps alternate media types onto codec names.
var mediaAliases = map[string]string{
	"text/json":                "json",
	"application/x-yaml":       "yaml",
	"text/yaml":                "yaml",
	"text/x-yaml":              "yaml",
	"application/x-toml":       "toml",
	"application/x-msgpack":    "msgpack",
	"application/vnd.msgpack":  "msgpack",
	"application/x-bson":       "bson",
	"application/octet-stream": "",
}

// All returns every registered codec in a stable order.
func All() []Codec {
	out := make([]Codec, len(registry))
	copy(out, registry)
	return out
}

// Names returns the names of all registered codecs.
func Names() []string {
	names := make([]string, len(registry))
	for i, c := range registry {
		names[i] = c.Name()
	}
	return names
}

// ByName looks up a codec by name or extension, case-insensitively.
func ByName(name string) (Codec, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, c := range registry {
		if c.Name() == name {
			return c, true
		}
	}
	return ByExtension(name)
}

// ByContentType looks up a codec by media type. Parameters are ignored and
// any "+json" structured suffix selects JSON.
func ByContentType(contentType string) (Codec, bool) {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, false
	}
	for _, c := range registry {
		if c.ContentType() == mt {
			return c, true
		}
	}
	if name, ok := mediaAliases[mt]; ok && name != "" {
		return ByName(name)
	}
	if strings.HasSuffix(mt, "+json") {
		return Default, true
	}
	return nil, false
}

// ByExtension looks up a codec by file extension, with or without the
// leading dot.
func ByExtension(ext string) (Codec, bool) {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	for _, c := range registry {
		for _, e := range c.Extensions() {
			if e == ext {
				return c, true
			}
		}
	}
	return nil, false
}

// Detect picks the codec for a file path from its extension, falling back to
// Default.
func Detect(path string) Codec {
	if c, ok := ByExtension(filepath.Ext(path)); ok {
		return c
	}
	return Default
}

// Negotiate picks the codec for an Accept header. The first media range that
// names a registered codec wins; wildcards and unknown types fall back to
// Default.
func Negotiate(accept string) Codec {
	for _, part := range strings.Split(accept, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if c, ok := ByContentType(part); ok {
			return c
		}
	}
	return Default
}
