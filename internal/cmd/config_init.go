package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/opmodel/extplugin/internal/config"
	oerrors "github.com/opmodel/extplugin/internal/errors"
	"github.com/opmodel/extplugin/internal/output"
)

var configInitForce bool

const configHeader = `# extplugin configuration.
# Environment variables (EXTPLUGIN_*) and command flags override these values.
`

// NewConfigInitCmd creates the config init command.
func NewConfigInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize default configuration",
		Long: `Initialize the extplugin configuration.

Creates the following in ~/.extplugin/:
  config.yaml   Main configuration file
  ext-lib/      Default package directory scanned by 'extplugin serve'

Examples:
  # Initialize configuration
  extplugin config init

  # Overwrite existing configuration
  extplugin config init --force`,
		RunE: runConfigInit,
	}

	cmd.Flags().BoolVarP(&configInitForce, "force", "f", false,
		"Overwrite existing configuration")

	return cmd
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	pathResult, err := config.ResolveConfigPath(config.ResolveConfigPathOptions{
		FlagValue: GetConfigPath(),
	})
	if err != nil {
		return withExitCode(oerrors.Wrap(oerrors.ErrNotFound, "could not determine home directory"))
	}
	configFile, err := config.ExpandPath(pathResult.ConfigPath)
	if err != nil {
		return withExitCode(oerrors.Wrap(oerrors.ErrNotFound, "could not expand config path"))
	}

	if _, err := os.Stat(configFile); err == nil && !configInitForce {
		return withExitCode(&oerrors.DetailError{
			Type:     "validation failed",
			Message:  "configuration already exists",
			Location: configFile,
			Hint:     "Use --force to overwrite existing configuration.",
			Cause:    oerrors.ErrValidation,
		})
	}

	def := config.DefaultConfig()
	data, err := yaml.Marshal(def)
	if err != nil {
		return withExitCode(err)
	}

	// Create directories with secure permissions (0700)
	if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
		return withExitCode(err)
	}
	extLib, err := config.ExpandPath(def.ExtPlugin.Path)
	if err != nil {
		return withExitCode(err)
	}
	if err := os.MkdirAll(extLib, 0o700); err != nil {
		return withExitCode(err)
	}

	// Write config.yaml with secure permissions (0600)
	if err := os.WriteFile(configFile, append([]byte(configHeader), data...), 0o600); err != nil {
		return withExitCode(err)
	}

	output.Println(output.FormatCheckmark("Configuration initialized at " + configFile))
	output.Println("Package directory: " + extLib)
	output.Println("Validate with: extplugin config vet")
	return nil
}
