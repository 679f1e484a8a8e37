package cmd

import (
	"github.com/spf13/cobra"

	"github.com/opmodel/extplugin/internal/config"
	"github.com/opmodel/extplugin/internal/output"
)

var (
	// Global flags
	configFlag       string
	outputFormatFlag string
	verboseFlag      bool
	timestampsFlag   bool

	// Loaded configuration (set during PersistentPreRunE)
	appConfig    *config.Config
	configLoader *config.Loader
)

// NewRootCmd creates the root command for the extplugin CLI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "extplugin",
		Short: "Hot-load plugin packages into a running gateway",
		Long: `extplugin runs a gateway that discovers plugin packages at runtime and
publishes their plugins and handlers without a restart.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeGlobals(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to config file (env: EXTPLUGIN_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&outputFormatFlag, "output", "o", "table", "Output format: table, yaml, json")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&timestampsFlag, "timestamps", true, "Show timestamps in log output")

	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(NewInspectCmd())
	rootCmd.AddCommand(NewLoadCmd())
	rootCmd.AddCommand(NewPackCmd())
	rootCmd.AddCommand(NewConfigCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// initializeGlobals loads configuration and sets up logging.
func initializeGlobals(cmd *cobra.Command) error {
	pathResult, err := config.ResolveConfigPath(config.ResolveConfigPathOptions{FlagValue: configFlag})
	if err != nil {
		return err
	}

	configLoader = config.NewLoader()
	applyFlagOverrides(cmd, configLoader)

	loaded, err := configLoader.Load(pathResult.ConfigPath)
	if err != nil {
		// Commands that don't need config still work.
		output.Debug("config load error", "error", err)
		loaded = config.DefaultConfig()
	}
	appConfig = loaded

	logCfg := output.LogConfig{Verbose: verboseFlag}
	if cmd.Flags().Changed("timestamps") {
		logCfg.Timestamps = output.BoolPtr(timestampsFlag)
	} else if appConfig.Log.Timestamps != nil {
		logCfg.Timestamps = appConfig.Log.Timestamps
	}
	output.SetupLogging(logCfg)

	if verboseFlag {
		output.Debug("initializing CLI",
			"config", pathResult.ConfigPath,
			"configSource", pathResult.Source,
			"output", outputFormatFlag,
		)
		config.LogResolvedValues(configLoader.Resolved())
	}
	return nil
}

// commandFlagKeys maps command flags to the config keys they override.
var commandFlagKeys = map[string]string{
	"path":           "extPlugin.path",
	"threads":        "extPlugin.threadCount",
	"watch":          "extPlugin.watch",
	"source":         "source.kind",
	"kubeconfig":     "source.kubernetes.kubeconfig",
	"context":        "source.kubernetes.context",
	"namespace":      "source.kubernetes.namespace",
	"label-selector": "source.kubernetes.labelSelector",
	"addr":           "server.addr",
}

// applyFlagOverrides gives explicitly set command flags the highest precedence.
func applyFlagOverrides(cmd *cobra.Command, l *config.Loader) {
	for flag, key := range commandFlagKeys {
		f := cmd.Flags().Lookup(flag)
		if f == nil || !f.Changed {
			continue
		}
		switch f.Value.Type() {
		case "bool":
			v, _ := cmd.Flags().GetBool(flag)
			l.Override(key, v)
		case "int":
			v, _ := cmd.Flags().GetInt(flag)
			l.Override(key, v)
		default:
			l.Override(key, f.Value.String())
		}
	}
}

// GetConfig returns the loaded configuration.
func GetConfig() *config.Config {
	if appConfig == nil {
		return config.DefaultConfig()
	}
	return appConfig
}

// GetConfigPath returns the raw --config flag value.
func GetConfigPath() string {
	return configFlag
}

// GetOutputFormat returns the parsed --output flag.
func GetOutputFormat() output.Format {
	return output.ParseFormat(outputFormatFlag)
}
