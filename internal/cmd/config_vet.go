package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/opmodel/extplugin/internal/config"
	oerrors "github.com/opmodel/extplugin/internal/errors"
	"github.com/opmodel/extplugin/internal/output"
)

// NewConfigVetCmd creates the config vet command.
func NewConfigVetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vet",
		Short: "Validate configuration",
		Long: `Validate the extplugin configuration file.

Checks performed:
  1. Config file exists at resolved path
  2. Config file is valid YAML
  3. Merged values (file, env, defaults) satisfy the configuration schema

The config path is resolved using precedence:
  --config flag > EXTPLUGIN_CONFIG env > ~/.extplugin/config.yaml

Examples:
  # Validate default configuration
  extplugin config vet

  # Validate custom config path
  extplugin config vet --config /path/to/config.yaml`,
		RunE: runConfigVet,
	}

	return cmd
}

func runConfigVet(cmd *cobra.Command, args []string) error {
	pathResult, err := config.ResolveConfigPath(config.ResolveConfigPathOptions{
		FlagValue: GetConfigPath(),
	})
	if err != nil {
		return withExitCode(oerrors.Wrap(oerrors.ErrNotFound, "could not resolve config path"))
	}

	configPath, err := config.ExpandPath(pathResult.ConfigPath)
	if err != nil {
		return withExitCode(err)
	}

	output.Debug("validating config",
		"path", configPath,
		"source", pathResult.Source,
	)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return withExitCode(oerrors.NewNotFoundError(
			"configuration file not found",
			configPath,
			"Run 'extplugin config init' to create default configuration",
		))
	}

	validator, err := config.NewValidator()
	if err != nil {
		return withExitCode(err)
	}

	if err := validator.ValidateFile(configPath); err != nil {
		if verrs, ok := err.(config.ValidationErrors); ok {
			return withExitCode(&oerrors.DetailError{
				Type:     "validation failed",
				Message:  verrs.Error(),
				Location: configPath,
				Hint:     "Fix the listed fields, then run 'extplugin config vet' again",
				Cause:    oerrors.ErrValidation,
			})
		}
		return withExitCode(oerrors.NewValidationError(err.Error(), configPath, ""))
	}

	output.Println(output.FormatCheckmark("Configuration is valid: " + configPath))
	return nil
}
