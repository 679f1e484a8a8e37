package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/opmodel/extplugin/internal/archive"
	"github.com/opmodel/extplugin/internal/output"
)

// DirSource offers every package file in one directory.
type DirSource struct {
	Path string
}

// NewDirSource creates a source for path.
func NewDirSource(path string) *DirSource {
	return &DirSource{Path: path}
}

// Candidates lists the package files in the directory sorted by name. A
// missing directory has no candidates.
func (s *DirSource) Candidates(ctx context.Context) ([]Candidate, error) {
	entries, err := os.ReadDir(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		output.Debug("ext plugin path does not exist", "path", s.Path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading ext plugin path %s: %w", s.Path, err)
	}

	var out []Candidate
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), archive.Extension) {
			continue
		}
		path := filepath.Join(s.Path, e.Name())
		out = append(out, NewCandidate(path, func(context.Context) (io.ReadCloser, error) {
			return os.Open(path)
		}))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *DirSource) String() string {
	return "dir:" + s.Path
}
