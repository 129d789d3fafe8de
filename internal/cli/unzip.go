package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/jsonops/pkg/archive"
	"github.com/matzehuels/jsonops/pkg/errors"
	"github.com/matzehuels/jsonops/pkg/ops"
)

// zipMagic prefixes local file headers and empty archives.
var zipMagic = [][]byte{[]byte("PK\x03\x04"), []byte("PK\x05\x06")}

// unzipCommand creates the unzip command.
func (c *CLI) unzipCommand() *cobra.Command {
	var opts ioOpts
	var extractDir string

	cmd := &cobra.Command{
		Use:   "unzip <archive>",
		Short: "List or extract the files of a ZIP archive",
		Long: `List the files of a ZIP archive with their content type and Base64 content.
The archive may be a binary .zip file or its Base64 text.

With --extract, files are written below the given directory instead. Entries
with absolute or escaping paths are rejected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := c.readRaw(args[0])
			if err != nil {
				return err
			}
			body := archiveBody(raw)
			if extractDir != "" {
				return extractArchive(cmd.Context(), body, extractDir)
			}
			return c.runOperation(cmd.Context(), ops.ExtractFilesFromZip, ops.Request{Body: body}, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.to, "to", "t", "json", "output format for the listing")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "listing output file (default stdout)")
	cmd.Flags().StringVarP(&extractDir, "extract", "x", "", "write the files below this directory")
	return cmd
}

// archiveBody returns the Base64 text of an archive given either binary ZIP
// data or Base64 text.
func archiveBody(raw []byte) []byte {
	for _, magic := range zipMagic {
		if bytes.HasPrefix(raw, magic) {
			out := make([]byte, base64.StdEncoding.EncodedLen(len(raw)))
			base64.StdEncoding.Encode(out, raw)
			return out
		}
	}
	return raw
}

// extractArchive writes every file of the archive below dir.
func extractArchive(ctx context.Context, body []byte, dir string) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	files, err := archive.ExtractBase64(body)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidArchive, err, "%s%v", ops.MsgZipPrefix, err)
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := errors.ValidatePath(f.Name); err != nil {
			return fmt.Errorf("entry %q: %w", f.Name, err)
		}
		dst := filepath.Join(dir, filepath.FromSlash(f.Name))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("create directory for %s: %w", f.Name, err)
		}
		if err := os.WriteFile(dst, f.Content, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", f.Name, err)
		}
		logger.Debug("extracted", "file", f.Name, "type", f.ContentType, "bytes", len(f.Content))
		printFile(dst)
	}

	prog.done(fmt.Sprintf("Extracted %d files", len(files)))
	printSuccess("Extracted %d files to %s", len(files), dir)
	return nil
}
