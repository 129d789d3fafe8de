package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/jsonops/pkg/codec"
	"github.com/matzehuels/jsonops/pkg/errors"
	"github.com/matzehuels/jsonops/pkg/jsonvalue"
)

// stdinPath names standard input on the command line.
const stdinPath = "-"

// ioOpts holds the input and output flags shared by the data commands.
type ioOpts struct {
	from   string // input format; empty detects from the file extension
	to     string // output format
	output string // output file; empty writes to stdout
}

func (o *ioOpts) register(cmd *cobra.Command) {
	formats := strings.Join(codec.Names(), ", ")
	cmd.Flags().StringVar(&o.from, "from", "", "input format: "+formats+" (default: from extension)")
	cmd.Flags().StringVar(&o.to, "to", "json", "output format: "+formats)
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "output file (default stdout)")
}

// codecByName resolves a format flag.
func codecByName(name string) (codec.Codec, error) {
	c, ok := codec.ByName(name)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown format %q (want one of %s)",
			name, strings.Join(codec.Names(), ", "))
	}
	return c, nil
}

// inputCodec picks the codec for path: the --from format when set, otherwise
// the one matching the extension, otherwise JSON.
func inputCodec(path, from string) (codec.Codec, error) {
	if from != "" {
		return codecByName(from)
	}
	if path == stdinPath {
		return codec.Default, nil
	}
	return codec.Detect(path), nil
}

// readRaw reads path, or stdin for "-".
func (c *CLI) readRaw(path string) ([]byte, error) {
	if path == stdinPath {
		data, err := io.ReadAll(c.In)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "file not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// readDocument reads and decodes one input.
func (c *CLI) readDocument(path, from string) (jsonvalue.Value, error) {
	dec, err := inputCodec(path, from)
	if err != nil {
		return jsonvalue.Undefined(), err
	}
	data, err := c.readRaw(path)
	if err != nil {
		return jsonvalue.Undefined(), err
	}
	v, err := dec.Decode(data)
	if err != nil {
		return jsonvalue.Undefined(), errors.Wrap(errors.ErrCodeInvalidJSON, err, "%s: invalid %s: %v", path, dec.Name(), err)
	}
	return v, nil
}

// loadDocuments reads and decodes every path concurrently. Results keep the
// order of paths. Standard input may be named at most once.
func (c *CLI) loadDocuments(ctx context.Context, paths []string, from string) ([]jsonvalue.Value, error) {
	stdin := 0
	for _, p := range paths {
		if p == stdinPath {
			stdin++
		}
	}
	if stdin > 1 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "standard input can only be read once")
	}

	prog := newProgress(loggerFromContext(ctx))
	docs := make([]jsonvalue.Value, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, err := c.readDocument(p, from)
			if err != nil {
				return err
			}
			docs[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	prog.done(fmt.Sprintf("Loaded %d documents", len(paths)))
	return docs, nil
}

// writeResult writes data to the output file, or to c.Out when path is empty.
func (c *CLI) writeResult(data []byte, path string) error {
	if path == "" {
		_, err := c.Out.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	printFile(path)
	return nil
}

// prettyJSON re-indents a JSON document for terminals and adds a trailing
// newline. Non-JSON data is returned unchanged.
func prettyJSON(out codec.Codec, data []byte) []byte {
	if out.Name() != codec.Default.Name() {
		return data
	}
	v, err := jsonvalue.Parse(data)
	if err != nil {
		return data
	}
	pretty, err := jsonvalue.Indent(v, "", "  ")
	if err != nil {
		return data
	}
	return append(pretty, '\n')
}
