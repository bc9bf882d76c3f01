package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gpuviz/pkg/core/hierarchy"
	gvio "github.com/matzehuels/gpuviz/pkg/io"
)

// sampleCommand creates the sample command, which writes the reference
// two-organization cluster as a starting point for new hierarchy files.
func (c *CLI) sampleCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write the reference GPU hierarchy",
		Long: `Write the reference GPU hierarchy.

Without --output the hierarchy is printed to stdout as JSON. The output file
extension selects the format (.json or .toml).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cluster := hierarchy.Sample()
			if output == "" {
				return gvio.WriteJSON(cluster, os.Stdout)
			}
			if err := gvio.ExportFile(cluster, output); err != nil {
				return fmt.Errorf("write sample: %w", err)
			}
			printSuccess("Sample hierarchy written")
			printFile(output)
			printNewline()
			printNextStep("Explore", appName+" explore "+output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (.json or .toml)")

	return cmd
}
