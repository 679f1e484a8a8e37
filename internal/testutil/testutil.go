// Package testutil provides test helpers for building plugin packages.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/opmodel/extplugin/internal/archive"
	"github.com/opmodel/extplugin/internal/unit"
)

// WriteFile creates a file with the given content in the specified directory.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create parent dirs for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
	return path
}

// PluginUnit returns a plugin unit document.
func PluginUnit(name string, order int) string {
	return fmt.Sprintf("kind: \"plugin\"\nname: %q\norder: %d\n", name, order)
}

// RespondingPluginUnit returns a plugin unit document that answers every
// request with body.
func RespondingPluginUnit(name string, order int, body string) string {
	return PluginUnit(name, order) + fmt.Sprintf("respond: body: %q\n", body)
}

// DataHandlerUnit returns a data handler unit document.
func DataHandlerUnit(plugin string) string {
	return fmt.Sprintf("kind: \"dataHandler\"\nplugin: %q\n", plugin)
}

// MetaDataHandlerUnit returns a metadata handler unit document.
func MetaDataHandlerUnit(rpcType string) string {
	return fmt.Sprintf("kind: \"metaDataHandler\"\nrpcType: %q\n", rpcType)
}

// Package builds an in-memory package.
func Package(groupID, artifactID, version string, units map[string]string) *archive.Package {
	pkg := &archive.Package{
		GroupID:    groupID,
		ArtifactID: artifactID,
		Version:    version,
		Units:      make(map[string][]byte, len(units)),
	}
	for name, src := range units {
		pkg.Units[name] = []byte(src)
	}
	return pkg
}

// Archive encodes pkg as a package archive.
func Archive(t *testing.T, pkg *archive.Package) []byte {
	t.Helper()
	data, err := archive.Build(pkg)
	if err != nil {
		t.Fatalf("failed to build package archive: %v", err)
	}
	return data
}

// WritePackage writes pkg as an archive file in dir and returns its path.
func WritePackage(t *testing.T, dir, file string, pkg *archive.Package) string {
	t.Helper()
	path := filepath.Join(dir, file)
	if err := os.WriteFile(path, Archive(t, pkg), 0o644); err != nil {
		t.Fatalf("failed to write package %s: %v", path, err)
	}
	return path
}

// Definer returns a CUE unit definer.
func Definer(t *testing.T) *unit.CUEDefiner {
	t.Helper()
	d, err := unit.NewCUEDefiner()
	if err != nil {
		t.Fatalf("failed to create definer: %v", err)
	}
	return d
}

// Host returns a host providing types.
func Host(t *testing.T, types ...*unit.Type) *unit.Host {
	t.Helper()
	h, err := unit.NewHost(types...)
	if err != nil {
		t.Fatalf("failed to create host: %v", err)
	}
	return h
}
