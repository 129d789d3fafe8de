package cli

import (
	"github.com/spf13/cobra"
)

// convertCommand creates the convert command.
func (c *CLI) convertCommand() *cobra.Command {
	var opts ioOpts

	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Convert a document between formats",
		Long: `Convert a document between JSON, YAML, TOML, MessagePack and BSON.

Object key order is kept wherever the target format allows it. TOML and BSON
documents must be objects at the top level.`,
		Example: `  jsonops convert config.yaml --to toml -o config.toml
  cat doc.json | jsonops convert - --to msgpack -o doc.msgpack`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := codecByName(opts.to)
			if err != nil {
				return err
			}
			docs, err := c.loadDocuments(cmd.Context(), args, opts.from)
			if err != nil {
				return err
			}
			data, err := out.Encode(docs[0])
			if err != nil {
				return err
			}
			return c.writeResult(prettyJSON(out, data), opts.output)
		},
	}

	opts.register(cmd)
	return cmd
}
