package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/jsonops/pkg/compare"
	"github.com/matzehuels/jsonops/pkg/errors"
	"github.com/matzehuels/jsonops/pkg/jsonvalue"
	"github.com/matzehuels/jsonops/pkg/ops"
	"github.com/matzehuels/jsonops/pkg/report"
)

// maxCellWidth truncates values in the difference table.
const maxCellWidth = 40

// diffOpts holds the flags of the diff command.
type diffOpts struct {
	ioOpts
	format      string // report format
	context     int    // unified context lines
	interactive bool   // open the difference browser
}

// diffCommand creates the diff command.
func (c *CLI) diffCommand() *cobra.Command {
	opts := diffOpts{format: string(report.FormatJSON), context: report.DefaultContext}

	cmd := &cobra.Command{
		Use:   "diff <first> <second>",
		Short: "List the differences between two objects",
		Long: `List the differences between two objects as path-qualified records.

Nested objects are compared recursively; arrays are compared as a whole and
reported once when they differ. Use --format to render the differences as a
table, an RFC 6902 JSON Patch, or a unified text diff.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := report.ParseFormat(opts.format)
			if err != nil {
				return err
			}
			return c.runDiff(cmd.Context(), args, format, opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "report format: json, table, jsonpatch, unified")
	cmd.Flags().IntVarP(&opts.context, "context", "U", opts.context, "context lines for the unified format")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "browse the differences interactively")

	return cmd
}

func (c *CLI) runDiff(ctx context.Context, paths []string, format report.Format, opts diffOpts) error {
	docs, err := c.loadDocuments(ctx, paths, opts.from)
	if err != nil {
		return err
	}
	a, b := docs[0], docs[1]

	if format == report.FormatJSON && !opts.interactive {
		return c.runJSONOperation(ctx, ops.CompareObjects, opts.ioOpts,
			field{"obj1", a}, field{"obj2", b})
	}

	if !a.IsPlainObject() || !b.IsPlainObject() {
		return errors.New(errors.ErrCodeInvalidInput, "%s", ops.MsgNeedObjects)
	}
	diffs := compare.Diff(a, b)

	if opts.interactive {
		return browseDifferences(diffs, paths[0], paths[1])
	}

	var out string
	switch format {
	case report.FormatTable:
		out = renderDifferenceTable(diffs)
	case report.FormatPatch:
		patch, err := report.Patch(a, b)
		if err != nil {
			return err
		}
		var sb strings.Builder
		if err := report.JSON(&sb, patch); err != nil {
			return err
		}
		out = sb.String()
	case report.FormatUnified:
		out, err = report.Unified(a, b, paths[0], paths[1], opts.context)
		if err != nil {
			return err
		}
	}
	return c.writeResult([]byte(out), opts.output)
}

// renderDifferenceTable renders difference records as a bordered table.
func renderDifferenceTable(diffs []compare.Difference) string {
	if len(diffs) == 0 {
		return StyleDim.Render("No differences") + "\n"
	}

	rows := make([][]string, len(diffs))
	for i, d := range diffs {
		rows[i] = []string{d.Property, string(d.Type), cell(d.Value1), cell(d.Value2)}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Property", "Type", "First", "Second").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col != 1 || row < 0 || row >= len(diffs) {
				return lipgloss.NewStyle()
			}
			return typeStyle(diffs[row].Type)
		})
	return t.Render() + "\n"
}

// typeStyle colors a difference type.
func typeStyle(t compare.Type) lipgloss.Style {
	switch t {
	case compare.MissingInFirst:
		return styleMissingInFirst
	case compare.MissingInSecond:
		return styleMissingInSecond
	default:
		return styleChanged
	}
}

// cell renders a value compactly for a table cell. Undefined renders as a
// dash.
func cell(v jsonvalue.Value) string {
	if v.IsUndefined() {
		return "—"
	}
	data, err := v.MarshalJSON()
	if err != nil {
		return v.String()
	}
	s := string(data)
	if r := []rune(s); len(r) > maxCellWidth {
		s = string(r[:maxCellWidth-1]) + "…"
	}
	return s
}

// browseDifferences opens the interactive difference browser.
func browseDifferences(diffs []compare.Difference, first, second string) error {
	if len(diffs) == 0 {
		printSuccess("No differences between %s and %s", first, second)
		return nil
	}
	p := tea.NewProgram(newDiffBrowserModel(diffs, first, second), tea.WithOutput(statusOut))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("difference browser: %w", err)
	}
	return nil
}

// diffArraysCommand creates the diff-arrays command.
func (c *CLI) diffArraysCommand() *cobra.Command {
	var opts ioOpts

	cmd := &cobra.Command{
		Use:   "diff-arrays <first> <second>",
		Short: "Find the elements unique to each of two arrays",
		Long: `Find the elements of each array that have no deep-equal counterpart in the
other. Membership, not position, is compared.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := c.loadDocuments(cmd.Context(), args, opts.from)
			if err != nil {
				return err
			}
			return c.runJSONOperation(cmd.Context(), ops.DiffArrays, opts,
				field{"array1", docs[0]}, field{"array2", docs[1]})
		},
	}

	opts.register(cmd)
	return cmd
}
