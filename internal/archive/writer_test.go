package archive_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opmodel/extplugin/internal/archive"
	"github.com/opmodel/extplugin/internal/testutil"
)

func TestBuild_RoundTrip(t *testing.T) {
	in := &archive.Package{
		GroupID:    "io.example",
		ArtifactID: "waf",
		Version:    "1.2.0",
		Units: map[string][]byte{
			"com.x.Waf":     []byte(`kind: "plugin"`),
			"com.x.WafData": []byte(`kind: "dataHandler", plugin: "waf"`),
		},
	}

	data, err := archive.Build(in)
	require.NoError(t, err)

	out, err := archive.Parse(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, in.Key(), out.Key())
	assert.Equal(t, in.Version, out.Version)
	assert.Equal(t, in.Units, out.Units)
}

func TestWriter_MetadataOnce(t *testing.T) {
	var buf bytes.Buffer
	w := archive.NewWriter(&buf)
	require.NoError(t, w.WriteMetadata("g", "a", "1"))
	require.NoError(t, w.WriteMetadata("g", "a", "2"))
	require.NoError(t, w.Close())

	pkg, err := archive.Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, "1", pkg.Version)
}

func TestFromDir(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "com/x/Waf.cue", `kind: "plugin"`)
	testutil.WriteFile(t, dir, "notes.txt", "ignored")

	pkg, err := archive.FromDir(dir, "g", "a", "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"com.x.Waf"}, pkg.UnitNames())

	_, err = archive.FromDir(t.TempDir(), "g", "a", "1")
	assert.Error(t, err)
}
