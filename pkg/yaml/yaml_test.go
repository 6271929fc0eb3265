package yaml

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string   `yaml:"name"`
	Count int      `yaml:"count"`
	Tags  []string `yaml:"tags"`
}

func TestSaveYAML_LoadYAML_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.yaml")
	in := sample{Name: "registry", Count: 3, Tags: []string{"a", "b"}}

	require.NoError(t, SaveYAML(path, in))

	var out sample
	require.NoError(t, LoadYAML(path, &out))
	assert.Equal(t, in, out)
}

func TestLoadYAML_InvalidInput_ReturnsError(t *testing.T) {
	dir := t.TempDir()
	unknown := filepath.Join(dir, "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("name: x\ncolour: red\n"), 0644))
	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("name: [unterminated\n"), 0644))

	tests := []struct {
		name   string
		path   string
		target interface{}
	}{
		{"empty path", "", &sample{}},
		{"nil target", unknown, nil},
		{"missing file", filepath.Join(dir, "missing.yaml"), &sample{}},
		{"unknown field", unknown, &sample{}},
		{"malformed", broken, &sample{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, LoadYAML(tt.path, tt.target))
		})
	}
}
