// Package report renders comparison results for people and tools.
//
// The difference records produced by [compare.Diff] can be written as
// indented JSON, or the two compared documents can be rendered as an RFC 6902
// JSON Patch or as a unified line diff of their pretty-printed forms. The
// table format is drawn by the CLI.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/wI2L/jsondiff"
	"znkr.io/diff"
	"znkr.io/diff/textdiff"

	"github.com/matzehuels/jsonops/pkg/errors"
	"github.com/matzehuels/jsonops/pkg/jsonvalue"
)

// Format names an output format.
type Format string

// Output formats.
const (
	FormatJSON    Format = "json"
	FormatTable   Format = "table"
	FormatPatch   Format = "jsonpatch"
	FormatUnified Format = "unified"
)

// Formats lists every format in help-text order.
var Formats = []Format{FormatJSON, FormatTable, FormatPatch, FormatUnified}

// DefaultContext is the number of unchanged lines around each unified hunk.
const DefaultContext = 3

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unknown format %q (want one of %s)", s, formatList())
}

func formatList() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// JSON writes v indented by two spaces and followed by a newline.
func JSON(w io.Writer, v jsonvalue.Value) error {
	data, err := jsonvalue.Indent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// Patch computes the RFC 6902 operations that turn a into b.
func Patch(a, b jsonvalue.Value) (jsonvalue.Value, error) {
	src, err := a.MarshalJSON()
	if err != nil {
		return jsonvalue.Value{}, err
	}
	dst, err := b.MarshalJSON()
	if err != nil {
		return jsonvalue.Value{}, err
	}

	ops, err := jsondiff.CompareJSON(src, dst, jsondiff.Factorize())
	if err != nil {
		return jsonvalue.Value{}, fmt.Errorf("compare: %w", err)
	}
	if len(ops) == 0 {
		return jsonvalue.Array(), nil
	}

	data, err := json.Marshal(ops)
	if err != nil {
		return jsonvalue.Value{}, fmt.Errorf("marshal patch: %w", err)
	}
	return jsonvalue.Parse(data)
}

// Unified pretty-prints a and b and returns their line diff in unified
// format, headed by the two labels. Identical documents yield "".
func Unified(a, b jsonvalue.Value, labelA, labelB string, context int) (string, error) {
	x, err := pretty(a)
	if err != nil {
		return "", err
	}
	y, err := pretty(b)
	if err != nil {
		return "", err
	}
	if x == y {
		return "", nil
	}

	if context < 0 {
		context = DefaultContext
	}
	hunks := textdiff.Unified(x, y, diff.Context(context))

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- %s\n+++ %s\n", labelA, labelB)
	sb.WriteString(hunks)
	return sb.String(), nil
}

func pretty(v jsonvalue.Value) (string, error) {
	data, err := jsonvalue.Indent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}
