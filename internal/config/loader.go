package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// Environment variable prefix for extplugin configuration.
const envPrefix = "EXTPLUGIN"

// envBindings maps config keys to their short environment variables.
var envBindings = map[string]string{
	"extPlugin.enabled":            "EXTPLUGIN_ENABLED",
	"extPlugin.path":               "EXTPLUGIN_PATH",
	"extPlugin.threadCount":        "EXTPLUGIN_THREADS",
	"source.kind":                  "EXTPLUGIN_SOURCE",
	"source.kubernetes.kubeconfig": "EXTPLUGIN_KUBECONFIG",
	"source.kubernetes.context":    "EXTPLUGIN_CONTEXT",
	"source.kubernetes.namespace":  "EXTPLUGIN_NAMESPACE",
	"server.addr":                  "EXTPLUGIN_ADDR",
	"server.maxUploadBytes":        "EXTPLUGIN_MAX_UPLOAD_BYTES",
}

// Loader handles loading and merging configuration from multiple sources.
// Precedence: override (flag) > env > file > default.
type Loader struct {
	v         *viper.Viper
	overrides map[string]any
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("extPlugin.enabled", def.ExtPlugin.Enabled)
	v.SetDefault("extPlugin.path", def.ExtPlugin.Path)
	v.SetDefault("extPlugin.threadCount", def.ExtPlugin.ThreadCount)
	v.SetDefault("extPlugin.initialDelaySeconds", def.ExtPlugin.InitialDelaySeconds)
	v.SetDefault("extPlugin.intervalSeconds", def.ExtPlugin.IntervalSeconds)
	v.SetDefault("extPlugin.loadTimeoutSeconds", def.ExtPlugin.LoadTimeoutSeconds)
	v.SetDefault("extPlugin.watch", def.ExtPlugin.Watch)
	v.SetDefault("source.kind", def.Source.Kind)
	v.SetDefault("source.kubernetes.kubeconfig", def.Source.Kubernetes.Kubeconfig)
	v.SetDefault("source.kubernetes.context", "")
	v.SetDefault("source.kubernetes.namespace", def.Source.Kubernetes.Namespace)
	v.SetDefault("source.kubernetes.labelSelector", "")
	v.SetDefault("server.addr", def.Server.Addr)
	v.SetDefault("server.maxUploadBytes", def.Server.MaxUploadBytes)
	v.SetDefault("log.timestamps", true)

	// Set up environment variable bindings
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	return &Loader{v: v, overrides: map[string]any{}}
}

// Override sets a value with flag precedence.
func (l *Loader) Override(key string, value any) {
	l.v.Set(key, value)
	l.overrides[key] = value
}

// Load loads configuration from the given file path.
// If configFile is empty, it uses the default config file path.
// A missing file is not an error.
func (l *Loader) Load(configFile string) (*Config, error) {
	if configFile == "" {
		var err error
		configFile, err = GetConfigFile()
		if err != nil {
			return nil, fmt.Errorf("getting config file path: %w", err)
		}
	}

	// Expand ~ in path
	expandedPath, err := ExpandPath(configFile)
	if err != nil {
		return nil, fmt.Errorf("expanding config path: %w", err)
	}

	l.v.SetConfigFile(expandedPath)
	l.v.SetConfigType("yaml")

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.ExtPlugin.Path, err = ExpandPath(cfg.ExtPlugin.Path)
	if err != nil {
		return nil, fmt.Errorf("expanding extPlugin.path: %w", err)
	}
	return &cfg, nil
}

// Resolved reports where each configuration value came from.
func (l *Loader) Resolved() []ResolvedValue {
	keys := l.v.AllKeys()
	sort.Strings(keys)

	envByLower := make(map[string]string, len(envBindings))
	for key, env := range envBindings {
		envByLower[strings.ToLower(key)] = env
	}

	out := make([]ResolvedValue, 0, len(keys))
	for _, key := range keys {
		rv := ResolvedValue{Key: key, Value: l.v.Get(key), Source: SourceDefault}
		env := envByLower[key]
		if env == "" {
			env = envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		}
		switch {
		case l.isOverridden(key):
			rv.Source = SourceFlag
		case os.Getenv(env) != "":
			rv.Source = SourceEnv
		case l.v.InConfig(key):
			rv.Source = SourceConfig
		}
		out = append(out, rv)
	}
	return out
}

func (l *Loader) isOverridden(key string) bool {
	for k := range l.overrides {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

// ConfigFileExists checks if the config file exists.
func ConfigFileExists(configFile string) (bool, error) {
	if configFile == "" {
		var err error
		configFile, err = GetConfigFile()
		if err != nil {
			return false, err
		}
	}

	expandedPath, err := ExpandPath(configFile)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(expandedPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}
