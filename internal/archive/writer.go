package archive

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/magiconair/properties"
)

// Writer streams a package archive.
type Writer struct {
	zw   *zip.Writer
	meta bool
}

// NewWriter creates a package writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{zw: zip.NewWriter(w)}
}

// WriteMetadata writes the plugin.properties entry. Only the first call takes effect.
func (w *Writer) WriteMetadata(groupID, artifactID, version string) error {
	if w.meta {
		return nil
	}
	props := properties.NewProperties()
	props.WriteSeparator = "="
	for _, kv := range [][2]string{{"groupId", groupID}, {"artifactId", artifactID}, {"version", version}} {
		if _, _, err := props.Set(kv[0], kv[1]); err != nil {
			return fmt.Errorf("setting %s: %w", kv[0], err)
		}
	}

	f, err := w.zw.Create("META-INF/" + MetadataFile)
	if err != nil {
		return fmt.Errorf("creating metadata entry: %w", err)
	}
	if _, err := props.Write(f, properties.UTF8); err != nil {
		return fmt.Errorf("writing metadata entry: %w", err)
	}
	w.meta = true
	return nil
}

// WriteEntry writes a raw entry.
func (w *Writer) WriteEntry(name string, content []byte) error {
	f, err := w.zw.Create(name)
	if err != nil {
		return fmt.Errorf("creating entry %s: %w", name, err)
	}
	if _, err := f.Write(content); err != nil {
		return fmt.Errorf("writing entry %s: %w", name, err)
	}
	return nil
}

// WriteUnit writes a unit document under its dotted name.
func (w *Writer) WriteUnit(name string, src []byte) error {
	return w.WriteEntry(EntryName(name), src)
}

// Close finishes the archive.
func (w *Writer) Close() error {
	return w.zw.Close()
}

// Build encodes pkg as an archive.
func Build(pkg *Package) ([]byte, error) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if !pkg.IsEmpty() {
		if err := w.WriteMetadata(pkg.GroupID, pkg.ArtifactID, pkg.Version); err != nil {
			return nil, err
		}
	}
	for _, name := range pkg.UnitNames() {
		if err := w.WriteUnit(name, pkg.Units[name]); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing archive: %w", err)
	}
	return buf.Bytes(), nil
}

// FromDir builds a package from a directory tree of unit documents. Unit
// names are the relative paths in dotted form.
func FromDir(dir, groupID, artifactID, version string) (*Package, error) {
	pkg := &Package{
		GroupID:    groupID,
		ArtifactID: artifactID,
		Version:    version,
		Units:      map[string][]byte{},
	}

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, UnitSuffix) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		pkg.Units[UnitName(filepath.ToSlash(rel))] = content
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading unit directory %s: %w", dir, err)
	}
	if len(pkg.Units) == 0 {
		return nil, fmt.Errorf("no %s documents found in %s", UnitSuffix, dir)
	}
	return pkg, nil
}
