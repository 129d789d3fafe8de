// Package ops defines the jsonops operations and the runner that executes
// them with caching.
//
// An [Operation] turns a request body into a JSON value. The HTTP service and
// the CLI both go through [Runner.Execute], so validation messages, cache keys
// and encoded results are identical on both surfaces.
//
//	op, _ := ops.Lookup("compareObjects")
//	res, err := runner.Execute(ctx, op, ops.Request{Body: body}, codec.Default)
//	// res.Body is {"value": [...]} encoded as JSON
package ops

import (
	"github.com/matzehuels/jsonops/pkg/codec"
	"github.com/matzehuels/jsonops/pkg/errors"
	"github.com/matzehuels/jsonops/pkg/jsonvalue"
)

// Operation is one named transformation.
type Operation struct {
	// Name is the route name (e.g., "compareObjects").
	Name string

	// Summary is a one-line description for listings.
	Summary string

	// JSONErrors reports whether failures are answered as {"error": msg}
	// JSON documents instead of plain text.
	JSONErrors bool

	// Run computes the operation result. Errors are *errors.Error values
	// carrying the user-facing message.
	Run func(req Request) (jsonvalue.Value, error)
}

// Request is the input of an operation.
type Request struct {
	// Body is the raw request payload.
	Body []byte

	// Decoder parses Body for operations that take a structured payload.
	// Nil means JSON.
	Decoder codec.Codec
}

func (r Request) decoder() codec.Codec {
	if r.Decoder == nil {
		return codec.Default
	}
	return r.Decoder
}

// decode parses the body into a value. Any decode failure, in any format,
// yields the invalid-payload message.
func (r Request) decode() (jsonvalue.Value, error) {
	v, err := r.decoder().Decode(r.Body)
	if err != nil {
		return jsonvalue.Undefined(), errors.Wrap(errors.ErrCodeInvalidJSON, err, MsgInvalidJSON)
	}
	return v, nil
}

// =============================================================================
// Registry
// =============================================================================

var registry = []Operation{
	CompareObjects,
	DiffArrays,
	CreateMapFromArray,
	FlattenArray,
	GroupArrayBy,
	SortArray,
	ExtractFilesFromZip,
}

// All returns every operation in a stable order.
func All() []Operation {
	out := make([]Operation, len(registry))
	copy(out, registry)
	return out
}

// Names returns the name of every operation in registry order.
func Names() []string {
	names := make([]string, len(registry))
	for i, op := range registry {
		names[i] = op.Name
	}
	return names
}

// Lookup finds an operation by its exact name.
func Lookup(name string) (Operation, bool) {
	for _, op := range registry {
		if op.Name == name {
			return op, true
		}
	}
	return Operation{}, false
}
