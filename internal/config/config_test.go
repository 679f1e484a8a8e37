package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := NewLoader().Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.True(t, cfg.ExtPlugin.Enabled)
	assert.Equal(t, filepath.Join(home, ".extplugin", "ext-lib"), cfg.ExtPlugin.Path)
	assert.Equal(t, 1, cfg.ExtPlugin.ThreadCount)
	assert.Equal(t, 30*time.Second, cfg.ExtPlugin.InitialDelay())
	assert.Equal(t, 300*time.Second, cfg.ExtPlugin.Interval())
	assert.Equal(t, 30*time.Second, cfg.ExtPlugin.LoadTimeout())
	assert.Equal(t, SourceKindDir, cfg.Source.Kind)
	assert.Equal(t, ":9195", cfg.Server.Addr)
	assert.Equal(t, int64(64<<20), cfg.Server.MaxUploadBytes)
	require.NotNil(t, cfg.Log.Timestamps)
	assert.True(t, *cfg.Log.Timestamps)
}

func TestLoad_FileEnvAndOverridePrecedence(t *testing.T) {
	path := writeConfig(t, `
extPlugin:
  path: /srv/ext-lib
  threadCount: 4
  intervalSeconds: 60
source:
  kind: kubernetes
  kubernetes:
    namespace: gateway
server:
  addr: ":8080"
`)
	t.Setenv("EXTPLUGIN_THREADS", "8")
	t.Setenv("EXTPLUGIN_NAMESPACE", "from-env")
	t.Setenv("EXTPLUGIN_MAX_UPLOAD_BYTES", "1024")

	l := NewLoader()
	l.Override("server.addr", ":7070")
	cfg, err := l.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/ext-lib", cfg.ExtPlugin.Path)
	assert.Equal(t, 8, cfg.ExtPlugin.ThreadCount, "env beats file")
	assert.Equal(t, 60, cfg.ExtPlugin.IntervalSeconds)
	assert.Equal(t, SourceKindKubernetes, cfg.Source.Kind)
	assert.Equal(t, "from-env", cfg.Source.Kubernetes.Namespace)
	assert.Equal(t, ":7070", cfg.Server.Addr, "override beats file")
	assert.Equal(t, int64(1024), cfg.Server.MaxUploadBytes)

	sources := map[string]ConfigSource{}
	for _, rv := range l.Resolved() {
		sources[rv.Key] = rv.Source
	}
	assert.Equal(t, SourceEnv, sources["extplugin.threadcount"])
	assert.Equal(t, SourceConfig, sources["extplugin.intervalseconds"])
	assert.Equal(t, SourceFlag, sources["server.addr"])
	assert.Equal(t, SourceDefault, sources["extplugin.loadtimeoutseconds"])
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "extPlugin: [unclosed")
	_, err := NewLoader().Load(path)
	assert.Error(t, err)
}

func TestConfigFileExists(t *testing.T) {
	path := writeConfig(t, "server:\n  addr: \":1\"\n")
	ok, err := ConfigFileExists(path)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ConfigFileExists(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/abs/path", "/abs/path"},
		{"~", home},
		{"~/x/y", filepath.Join(home, "x", "y")},
		{"~other/x", "~other/x"},
	}
	for _, tt := range tests {
		got, err := ExpandPath(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("EXTPLUGIN_CONFIG", "/env/config.yaml")

	res, err := ResolveConfigPath(ResolveConfigPathOptions{FlagValue: "/flag/config.yaml"})
	require.NoError(t, err)
	assert.Equal(t, "/flag/config.yaml", res.ConfigPath)
	assert.Equal(t, SourceFlag, res.Source)
	assert.Equal(t, "/env/config.yaml", res.Shadowed[SourceEnv])

	res, err = ResolveConfigPath(ResolveConfigPathOptions{})
	require.NoError(t, err)
	assert.Equal(t, "/env/config.yaml", res.ConfigPath)
	assert.Equal(t, SourceEnv, res.Source)

	t.Setenv("EXTPLUGIN_CONFIG", "")
	res, err = ResolveConfigPath(ResolveConfigPathOptions{})
	require.NoError(t, err)
	assert.Equal(t, SourceDefault, res.Source)
	assert.Equal(t, "config.yaml", filepath.Base(res.ConfigPath))
}
