package codec

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/jsonops/pkg/jsonvalue"
)

const (
	yamlMergeTag     = "!!merge"
	yamlTimestampTag = "!!timestamp"
	yamlBinaryTag    = "!!binary"
)

type yamlCodec struct{}

// YAML returns the YAML codec. Mappings keep their document order; only the
// first document of a stream is read.
func YAML() Codec {
	return &yamlCodec{}
}

func (c *yamlCodec) Name() string         { return "yaml" }
func (c *yamlCodec) ContentType() string  { return "application/yaml" }
func (c *yamlCodec) Extensions() []string { return []string{".yaml", ".yml"} }

func (c *yamlCodec) Decode(data []byte) (jsonvalue.Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return jsonvalue.Value{}, fmt.Errorf("decode yaml: %w", err)
	}
	if doc.Kind == 0 {
		return jsonvalue.Value{}, errors.New("decode yaml: empty document")
	}
	v, err := fromYAMLNode(&doc)
	if err != nil {
		return jsonvalue.Value{}, fmt.Errorf("decode yaml: %w", err)
	}
	return v, nil
}

func (c *yamlCodec) Encode(v jsonvalue.Value) ([]byte, error) {
	node, err := toYAMLNode(v)
	if err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

func fromYAMLNode(n *yaml.Node) (jsonvalue.Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return jsonvalue.Null(), nil
		}
		return fromYAMLNode(n.Content[0])

	case yaml.AliasNode:
		return fromYAMLNode(n.Alias)

	case yaml.SequenceNode:
		elems := make([]jsonvalue.Value, 0, len(n.Content))
		for _, child := range n.Content {
			v, err := fromYAMLNode(child)
			if err != nil {
				return jsonvalue.Value{}, err
			}
			elems = append(elems, v)
		}
		return jsonvalue.Array(elems...), nil

	case yaml.MappingNode:
		obj := jsonvalue.NewObject()
		if err := mergeYAMLMapping(obj, n); err != nil {
			return jsonvalue.Value{}, err
		}
		return jsonvalue.ObjectValue(obj), nil

	case yaml.ScalarNode:
		return fromYAMLScalar(n)
	}
	return jsonvalue.Value{}, fmt.Errorf("line %d: unsupported node kind %d", n.Line, n.Kind)
}

// mergeYAMLMapping copies the pairs of a mapping node into obj. Merge keys
// (<<) contribute only keys not set explicitly.
func mergeYAMLMapping(obj *jsonvalue.Object, n *yaml.Node) error {
	var merges []*yaml.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, val := n.Content[i], n.Content[i+1]
		if k.ShortTag() == yamlMergeTag {
			merges = append(merges, val)
			continue
		}
		key, err := yamlKey(k)
		if err != nil {
			return err
		}
		v, err := fromYAMLNode(val)
		if err != nil {
			return err
		}
		obj.Set(key, v)
	}

	for _, m := range merges {
		if m.Kind == yaml.AliasNode {
			m = m.Alias
		}
		sources := []*yaml.Node{m}
		if m.Kind == yaml.SequenceNode {
			sources = m.Content
		}
		for _, src := range sources {
			if src.Kind == yaml.AliasNode {
				src = src.Alias
			}
			if src.Kind != yaml.MappingNode {
				return fmt.Errorf("line %d: merge value must be a mapping", src.Line)
			}
			merged := jsonvalue.NewObject()
			if err := mergeYAMLMapping(merged, src); err != nil {
				return err
			}
			merged.Each(func(k string, v jsonvalue.Value) bool {
				if !obj.Has(k) {
					obj.Set(k, v)
				}
				return true
			})
		}
	}
	return nil
}

func yamlKey(k *yaml.Node) (string, error) {
	if k.Kind == yaml.AliasNode {
		k = k.Alias
	}
	if k.Kind == yaml.ScalarNode {
		return k.Value, nil
	}
	v, err := fromYAMLNode(k)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

func fromYAMLScalar(n *yaml.Node) (jsonvalue.Value, error) {
	switch n.ShortTag() {
	case yamlTimestampTag, yamlBinaryTag:
		return jsonvalue.String(n.Value), nil
	}
	var x any
	if err := n.Decode(&x); err != nil {
		return jsonvalue.Value{}, err
	}
	return jsonvalue.FromAny(x)
}

func toYAMLNode(v jsonvalue.Value) (*yaml.Node, error) {
	switch v.Kind() {
	case jsonvalue.KindObject:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		var err error
		v.AsObject().Each(func(k string, e jsonvalue.Value) bool {
			if e.IsUndefined() {
				return true
			}
			var child *yaml.Node
			if child, err = toYAMLNode(e); err != nil {
				return false
			}
			key := &yaml.Node{}
			if err = key.Encode(k); err != nil {
				return false
			}
			n.Content = append(n.Content, key, child)
			return true
		})
		return n, err

	case jsonvalue.KindArray:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range v.AsArray() {
			child, err := toYAMLNode(e)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, child)
		}
		return n, nil

	case jsonvalue.KindNumber:
		n := &yaml.Node{}
		f := v.AsNumber()
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return n, n.Encode(int64(f))
		}
		return n, n.Encode(f)

	case jsonvalue.KindBool:
		n := &yaml.Node{}
		return n, n.Encode(v.AsBool())

	case jsonvalue.KindString:
		n := &yaml.Node{}
		return n, n.Encode(v.AsString())

	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	}
}
