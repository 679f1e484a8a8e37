// Package archive reads and writes plugin packages: zip archives carrying a
// plugin.properties metadata record and CUE unit documents.
package archive

import (
	"sort"
)

const (
	// MetadataFile is the suffix of the metadata entry name.
	MetadataFile = "plugin.properties"

	// UnitSuffix is the file suffix of code unit entries.
	UnitSuffix = ".cue"

	// NestedMarker marks nested unit names that are never loaded directly.
	NestedMarker = "$"

	// Extension is the file extension of packages on disk.
	Extension = ".zip"
)

// Package is a parsed plugin package.
type Package struct {
	// SourcePath is where the package was read from, if known.
	SourcePath string `json:"sourcePath,omitempty"`

	GroupID    string `json:"groupId"`
	ArtifactID string `json:"artifactId"`
	Version    string `json:"version"`

	// Units maps dotted unit names to their raw document bytes.
	Units map[string][]byte `json:"-"`
}

// IsEmpty reports whether no identity was read.
func (p *Package) IsEmpty() bool {
	return p.GroupID == "" && p.ArtifactID == "" && p.Version == ""
}

// Key returns the registry identity of the package.
func (p *Package) Key() string {
	return p.GroupID + ":" + p.ArtifactID
}

// UnitNames returns the unit names in sorted order.
func (p *Package) UnitNames() []string {
	names := make([]string, 0, len(p.Units))
	for name := range p.Units {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasUnit reports whether the package carries a unit of that name.
func (p *Package) HasUnit(name string) bool {
	_, ok := p.Units[name]
	return ok
}
