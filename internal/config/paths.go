package config

import (
	"os"
	"path/filepath"
)

// Paths contains standard filesystem paths for extplugin.
type Paths struct {
	// ConfigFile is the path to the config file (~/.extplugin/config.yaml).
	ConfigFile string

	// ExtLibDir is the default package directory (~/.extplugin/ext-lib).
	ExtLibDir string

	// HomeDir is the extplugin home directory (~/.extplugin).
	HomeDir string
}

// DefaultPaths returns the default paths for extplugin.
func DefaultPaths() (*Paths, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	home := filepath.Join(homeDir, ".extplugin")

	return &Paths{
		ConfigFile: filepath.Join(home, "config.yaml"),
		ExtLibDir:  filepath.Join(home, "ext-lib"),
		HomeDir:    home,
	}, nil
}

// GetConfigFile returns the config file path.
// If EXTPLUGIN_CONFIG is set, it takes precedence.
func GetConfigFile() (string, error) {
	if envPath := os.Getenv("EXTPLUGIN_CONFIG"); envPath != "" {
		return envPath, nil
	}

	paths, err := DefaultPaths()
	if err != nil {
		return "", err
	}

	return paths.ConfigFile, nil
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if len(path) == 0 {
		return path, nil
	}

	if path[0] != '~' {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if len(path) == 1 {
		return homeDir, nil
	}

	// Handle ~/path/to/something
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:]), nil
	}

	// Handle ~username (not supported, return as-is)
	return path, nil
}
