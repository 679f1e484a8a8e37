// Package config provides configuration loading and management.
package config

import "time"

// Source kinds.
const (
	SourceKindDir        = "dir"
	SourceKindKubernetes = "kubernetes"
)

// ExtPluginConfig controls the periodic package scan.
type ExtPluginConfig struct {
	// Enabled turns the periodic scan on.
	// Env: EXTPLUGIN_ENABLED, Default: true
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// Path is the directory scanned for package files.
	// Env: EXTPLUGIN_PATH, Default: ~/.extplugin/ext-lib
	Path string `json:"path" mapstructure:"path"`

	// ThreadCount bounds parallel package loads in one scan.
	// Env: EXTPLUGIN_THREADS, Default: 1
	ThreadCount int `json:"threadCount" mapstructure:"threadCount"`

	// InitialDelaySeconds is the wait before the first scan.
	// Default: 30
	InitialDelaySeconds int `json:"initialDelaySeconds" mapstructure:"initialDelaySeconds"`

	// IntervalSeconds is the time between scans.
	// Default: 300
	IntervalSeconds int `json:"intervalSeconds" mapstructure:"intervalSeconds"`

	// LoadTimeoutSeconds bounds reading one package.
	// Default: 30
	LoadTimeoutSeconds int `json:"loadTimeoutSeconds" mapstructure:"loadTimeoutSeconds"`

	// Watch triggers a scan when package files in Path change.
	// Default: false
	Watch bool `json:"watch" mapstructure:"watch"`
}

// KubernetesConfig contains settings for the ConfigMap package source.
type KubernetesConfig struct {
	// Kubeconfig is the path to the kubeconfig file.
	// Env: EXTPLUGIN_KUBECONFIG, Default: ~/.kube/config
	Kubeconfig string `json:"kubeconfig,omitempty" mapstructure:"kubeconfig"`

	// Context is the Kubernetes context to use.
	// Env: EXTPLUGIN_CONTEXT, Default: current-context from kubeconfig
	Context string `json:"context,omitempty" mapstructure:"context"`

	// Namespace holds the package ConfigMaps.
	// Env: EXTPLUGIN_NAMESPACE, Default: namespace of the kubeconfig context
	Namespace string `json:"namespace,omitempty" mapstructure:"namespace"`

	// LabelSelector selects package ConfigMaps.
	LabelSelector string `json:"labelSelector,omitempty" mapstructure:"labelSelector"`
}

// PackageSourceConfig selects where the periodic scan finds packages.
type PackageSourceConfig struct {
	// Kind is "dir" or "kubernetes".
	// Env: EXTPLUGIN_SOURCE, Default: "dir"
	Kind string `json:"kind" mapstructure:"kind"`

	Kubernetes KubernetesConfig `json:"kubernetes" mapstructure:"kubernetes"`
}

// ServerConfig contains gateway HTTP server settings.
type ServerConfig struct {
	// Addr is the listen address.
	// Env: EXTPLUGIN_ADDR, Default: ":9195"
	Addr string `json:"addr" mapstructure:"addr"`

	// MaxUploadBytes bounds the request body of a package upload.
	// Env: EXTPLUGIN_MAX_UPLOAD_BYTES, Default: 67108864 (64 MiB)
	MaxUploadBytes int64 `json:"maxUploadBytes" mapstructure:"maxUploadBytes"`
}

// LogConfig contains logging-related settings.
type LogConfig struct {
	// Timestamps controls whether timestamps are shown in log output.
	// Default: true. Override with --timestamps flag.
	Timestamps *bool `json:"timestamps,omitempty" mapstructure:"timestamps"`
}

// Config represents the extplugin configuration.
// Loaded from ~/.extplugin/config.yaml, validated against the embedded CUE schema.
type Config struct {
	ExtPlugin ExtPluginConfig     `json:"extPlugin" mapstructure:"extPlugin"`
	Source    PackageSourceConfig `json:"source" mapstructure:"source"`
	Server    ServerConfig        `json:"server" mapstructure:"server"`
	Log       LogConfig           `json:"log" mapstructure:"log"`
}

// DefaultConfig returns a Config with all default values populated.
// Used by `extplugin config init` to generate the initial config file.
func DefaultConfig() *Config {
	timestamps := true
	return &Config{
		ExtPlugin: ExtPluginConfig{
			Enabled:             true,
			Path:                "~/.extplugin/ext-lib",
			ThreadCount:         1,
			InitialDelaySeconds: 30,
			IntervalSeconds:     300,
			LoadTimeoutSeconds:  30,
		},
		Source: PackageSourceConfig{
			Kind: SourceKindDir,
			Kubernetes: KubernetesConfig{
				Kubeconfig: "~/.kube/config",
			},
		},
		Server: ServerConfig{Addr: ":9195", MaxUploadBytes: 64 << 20},
		Log:    LogConfig{Timestamps: &timestamps},
	}
}

// InitialDelay returns the initial scan delay.
func (c ExtPluginConfig) InitialDelay() time.Duration {
	return time.Duration(c.InitialDelaySeconds) * time.Second
}

// Interval returns the scan interval.
func (c ExtPluginConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// LoadTimeout returns the per-package read bound.
func (c ExtPluginConfig) LoadTimeout() time.Duration {
	return time.Duration(c.LoadTimeoutSeconds) * time.Second
}
