package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// openOutput returns the file named by path, or the command's stdout when
// path is empty. The returned close func is always safe to call.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}
