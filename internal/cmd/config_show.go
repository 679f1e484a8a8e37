package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/opmodel/extplugin/internal/config"
	"github.com/opmodel/extplugin/internal/output"
)

// NewConfigShowCmd creates the config show command.
func NewConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long: `Show every configuration value and where it came from
(flag, env, config or default).

Examples:
  extplugin config show
  extplugin config show -o yaml`,
		RunE: runConfigShow,
	}
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	loader, cfg := configLoader, GetConfig()
	if loader == nil {
		loader = config.NewLoader()
		loaded, err := loader.Load(GetConfigPath())
		if err != nil {
			return withExitCode(err)
		}
		cfg = loaded
	}
	values := loader.Resolved()

	switch GetOutputFormat() {
	case output.FormatJSON:
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		output.Println(string(data))
	case output.FormatYAML:
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		output.Println(string(data))
	default:
		t := output.NewTable("KEY", "VALUE", "SOURCE")
		for _, v := range values {
			t.Row(v.Key, fmt.Sprint(v.Value), string(v.Source))
		}
		output.Println(t.String())
	}
	return nil
}
