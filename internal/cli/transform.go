package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/jsonops/pkg/errors"
	"github.com/matzehuels/jsonops/pkg/jsonvalue"
	"github.com/matzehuels/jsonops/pkg/ops"
)

// mapCommand creates the map command.
func (c *CLI) mapCommand() *cobra.Command {
	var opts ioOpts
	var property string

	cmd := &cobra.Command{
		Use:   "map <file>",
		Short: "Index array items by a nested property",
		Long: `Build an object that maps the value of a dot-separated property of each
array item to the item. Items without the property are skipped; when two items
share a value the last one wins.`,
		Example: `  jsonops map users.json --property profile.id`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidatePropertyPath(property); err != nil {
				return err
			}
			docs, err := c.loadDocuments(cmd.Context(), args, opts.from)
			if err != nil {
				return err
			}
			return c.runJSONOperation(cmd.Context(), ops.CreateMapFromArray, opts,
				field{"array", docs[0]}, field{"property", jsonvalue.String(property)})
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&property, "property", "p", "", "dot-separated property path (required)")
	_ = cmd.MarkFlagRequired("property")
	return cmd
}

// flattenCommand creates the flatten command.
func (c *CLI) flattenCommand() *cobra.Command {
	var opts ioOpts

	cmd := &cobra.Command{
		Use:   "flatten <file>",
		Short: "Flatten nested arrays",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := c.loadDocuments(cmd.Context(), args, opts.from)
			if err != nil {
				return err
			}
			return c.runJSONOperation(cmd.Context(), ops.FlattenArray, opts, field{"array", docs[0]})
		},
	}

	opts.register(cmd)
	return cmd
}

// groupCommand creates the group command.
func (c *CLI) groupCommand() *cobra.Command {
	var opts ioOpts
	var key string

	cmd := &cobra.Command{
		Use:   "group <file>",
		Short: "Group array items by a property",
		Long: `Group array items by the string value of one of their properties. Items
without the property are grouped under "undefined".`,
		Example: `  jsonops group orders.yaml --key status --to yaml`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := c.loadDocuments(cmd.Context(), args, opts.from)
			if err != nil {
				return err
			}
			return c.runJSONOperation(cmd.Context(), ops.GroupArrayBy, opts,
				field{"array", docs[0]}, field{"key", jsonvalue.String(key)})
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&key, "key", "k", "", "property to group by (required)")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

// sortCommand creates the sort command.
func (c *CLI) sortCommand() *cobra.Command {
	var opts ioOpts
	var mode string

	cmd := &cobra.Command{
		Use:   "sort <file>",
		Short: "Sort an array of primitives",
		Long: `Sort an array of numbers, strings, booleans or nulls.

Modes:
  numeric  by numeric value
  lex      by string value
  date     by parsed date
  auto     numeric for numbers, date for date strings, lex otherwise`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := c.loadDocuments(cmd.Context(), args, opts.from)
			if err != nil {
				return err
			}
			fields := []field{{"array", docs[0]}}
			if mode != "" {
				fields = append(fields, field{"sortMode", jsonvalue.String(mode)})
			}
			return c.runJSONOperation(cmd.Context(), ops.SortArray, opts, fields...)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "sort mode: numeric, lex, date or auto (default auto)")
	return cmd
}
