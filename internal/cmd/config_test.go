package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opmodel/extplugin/internal/config"
)

// isolateHome points HOME at a temp directory and clears config overrides.
func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("EXTPLUGIN_CONFIG", "")
	configFlag = ""
	return home
}

func TestNewConfigInitCmd(t *testing.T) {
	cmd := NewConfigInitCmd()

	assert.Equal(t, "init", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
	assert.NotNil(t, cmd.Flags().Lookup("force"))
}

func TestConfigInit_CreatesFiles(t *testing.T) {
	home := isolateHome(t)

	cmd := NewConfigInitCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	require.NoError(t, cmd.Execute())

	dir := filepath.Join(home, ".extplugin")
	configFile := filepath.Join(dir, "config.yaml")
	assert.FileExists(t, configFile)
	assert.DirExists(t, filepath.Join(dir, "ext-lib"))

	dirInfo, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), dirInfo.Mode().Perm())

	fileInfo, err := os.Stat(configFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fileInfo.Mode().Perm())

	content, err := os.ReadFile(configFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "extPlugin:")
	assert.Contains(t, string(content), "threadCount: 1")

	cfg, err := config.NewLoader().Load(configFile)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".extplugin", "ext-lib"), cfg.ExtPlugin.Path)
}

func TestConfigInit_ExistingConfig(t *testing.T) {
	home := isolateHome(t)
	dir := filepath.Join(home, ".extplugin")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	configFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("# old config\n"), 0o600))

	cmd := NewConfigInitCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
	assert.Equal(t, ExitValidationError, ExitCodeFromError(err))

	cmd = NewConfigInitCmd()
	cmd.SetArgs([]string{"--force"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	require.NoError(t, cmd.Execute())

	content, err := os.ReadFile(configFile)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "old config")
}

func TestConfigVet_MissingConfigFile(t *testing.T) {
	isolateHome(t)

	cmd := NewConfigVetCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.Equal(t, ExitNotFound, ExitCodeFromError(err))
}

func TestConfigVet_ValidAfterInit(t *testing.T) {
	isolateHome(t)

	initCmd := NewConfigInitCmd()
	initCmd.SetOut(&bytes.Buffer{})
	require.NoError(t, initCmd.Execute())

	vetCmd := NewConfigVetCmd()
	vetCmd.SetOut(&bytes.Buffer{})
	assert.NoError(t, vetCmd.Execute())
}

func TestConfigVet_InvalidValues(t *testing.T) {
	home := isolateHome(t)
	dir := filepath.Join(home, ".extplugin")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("extPlugin:\n  threadCount: 100\nsource:\n  kind: s3\n"), 0o600))

	cmd := NewConfigVetCmd()
	cmd.SetOut(&bytes.Buffer{})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitValidationError, ExitCodeFromError(err))
	assert.Contains(t, err.Error(), "extPlugin.threadCount")

	var exitErr *ExitError
	assert.True(t, errors.As(err, &exitErr))
}

func TestConfigShow(t *testing.T) {
	isolateHome(t)
	configLoader = nil
	t.Cleanup(func() { configLoader = nil })

	cmd := NewConfigShowCmd()
	cmd.SetOut(&bytes.Buffer{})
	assert.NoError(t, cmd.Execute())
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
