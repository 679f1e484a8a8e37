package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/magiconair/properties"

	oerrors "github.com/opmodel/extplugin/internal/errors"
)

// Parse reads a package stream. It never returns a partial package: any read
// or metadata decode failure wraps ErrPackageUnreadable.
func Parse(r io.Reader) (*Package, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, unreadable("reading package stream", err)
	}
	return parseBytes(data)
}

// ParseContext is Parse bounded by ctx. A read that outlives ctx fails with
// ErrPackageUnreadable wrapping the context error.
func ParseContext(ctx context.Context, r io.Reader) (*Package, error) {
	type result struct {
		pkg *Package
		err error
	}

	done := make(chan result, 1)
	go func() {
		pkg, err := Parse(r)
		done <- result{pkg, err}
	}()

	select {
	case res := <-done:
		return res.pkg, res.err
	case <-ctx.Done():
		return nil, unreadable("reading package stream", ctx.Err())
	}
}

// ParseFile parses the package at path and records it as the source path.
func ParseFile(ctx context.Context, path string) (*Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, oerrors.NewUnreadableError("opening package", path, err)
	}
	defer f.Close()

	pkg, err := ParseContext(ctx, f)
	if err != nil {
		return nil, err
	}
	pkg.SourcePath = path
	return pkg, nil
}

func parseBytes(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, unreadable("opening archive", err)
	}

	pkg := &Package{Units: map[string][]byte{}}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}

		switch {
		case strings.HasSuffix(f.Name, MetadataFile):
			if !pkg.IsEmpty() {
				continue
			}
			content, err := readEntry(f)
			if err != nil {
				return nil, err
			}
			if err := decodeMetadata(pkg, content); err != nil {
				return nil, unreadable(fmt.Sprintf("decoding %s", f.Name), err)
			}
		case strings.HasSuffix(f.Name, UnitSuffix) && !strings.Contains(f.Name, NestedMarker):
			content, err := readEntry(f)
			if err != nil {
				return nil, err
			}
			pkg.Units[UnitName(f.Name)] = content
		}
	}
	return pkg, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, unreadable(fmt.Sprintf("opening entry %s", f.Name), err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, unreadable(fmt.Sprintf("reading entry %s", f.Name), err)
	}
	return content, nil
}

func decodeMetadata(pkg *Package, content []byte) error {
	props, err := properties.Load(content, properties.UTF8)
	if err != nil {
		return err
	}
	pkg.GroupID = strings.TrimSpace(props.GetString("groupId", ""))
	pkg.ArtifactID = strings.TrimSpace(props.GetString("artifactId", ""))
	pkg.Version = strings.TrimSpace(props.GetString("version", ""))
	return nil
}

// UnitName converts an entry path to a dotted unit name.
func UnitName(entry string) string {
	return strings.ReplaceAll(strings.TrimSuffix(entry, UnitSuffix), "/", ".")
}

// EntryName converts a dotted unit name to an entry path.
func EntryName(unit string) string {
	return strings.ReplaceAll(unit, ".", "/") + UnitSuffix
}

func unreadable(msg string, err error) error {
	return fmt.Errorf("%s: %w: %w", msg, oerrors.ErrPackageUnreadable, err)
}
