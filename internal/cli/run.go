package cli

import (
	"context"

	"github.com/matzehuels/jsonops/pkg/codec"
	"github.com/matzehuels/jsonops/pkg/jsonvalue"
	"github.com/matzehuels/jsonops/pkg/ops"
)

// field is one member of an operation request body.
type field struct {
	name  string
	value jsonvalue.Value
}

// requestBody encodes fields as the JSON body an operation expects.
func requestBody(fields ...field) ([]byte, error) {
	obj := jsonvalue.NewObject()
	for _, f := range fields {
		obj.Set(f.name, f.value)
	}
	return jsonvalue.ObjectValue(obj).MarshalJSON()
}

// runOperation executes op through a runner and writes the encoded result.
func (c *CLI) runOperation(ctx context.Context, op ops.Operation, req ops.Request, opts ioOpts) error {
	out, err := codecByName(opts.to)
	if err != nil {
		return err
	}

	runner := c.newRunner(ctx)
	defer runner.Close()

	res, err := runner.Execute(ctx, op, req, out)
	if err != nil {
		return err
	}
	if err := c.writeResult(prettyJSON(out, res.Body), opts.output); err != nil {
		return err
	}
	if opts.output != "" {
		printResultStatus(op.Name, len(res.Body), res.Cached, res.Duration)
	}
	return nil
}

// runJSONOperation builds a JSON request from fields and runs op.
func (c *CLI) runJSONOperation(ctx context.Context, op ops.Operation, opts ioOpts, fields ...field) error {
	body, err := requestBody(fields...)
	if err != nil {
		return err
	}
	return c.runOperation(ctx, op, ops.Request{Body: body, Decoder: codec.Default}, opts)
}
