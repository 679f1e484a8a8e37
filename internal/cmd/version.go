package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opmodel/extplugin/internal/version"
)

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Show extplugin version information.

Displays:
  - extplugin version, commit, and build date
  - Go version and the CUE SDK version that evaluates unit documents`,
		RunE: runVersion,
	}
}

func runVersion(cmd *cobra.Command, args []string) error {
	fmt.Fprintln(cmd.OutOrStdout(), version.Get().String())
	return nil
}
