package manifest

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBytes_Valid(t *testing.T) {
	t.Parallel()
	data := []byte(`
base_url: https://cdn.example.com/views/
delims: ["<%", "%>"]
templates:
  greeting: /t/greeting.html
  footer: https://static.example.com/footer.html
`)
	m, err := ParseBytes(data)
	require.NoError(t, err)
	want := &Manifest{
		BaseURL: "https://cdn.example.com/views/",
		Delims:  []string{"<%", "%>"},
		Templates: map[string]string{
			"greeting": "/t/greeting.html",
			"footer":   "https://static.example.com/footer.html",
		},
	}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("manifest mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, m.Options(), 1)
}

func TestParseBytes_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		data string
	}{
		{"not yaml", "templates: [unclosed"},
		{"no templates", "base_url: https://x"},
		{"empty location", "templates:\n  a: \"\""},
		{"one delim", "delims: [\"{{\"]\ntemplates:\n  a: /a.html"},
		{"empty delim", "delims: [\"\", \"}}\"]\ntemplates:\n  a: /a.html"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseBytes([]byte(tt.data))
			require.ErrorIs(t, err, ErrInvalidManifest)
		})
	}
}

func TestParseBytes_NoDelimsNoOptions(t *testing.T) {
	t.Parallel()
	m, err := ParseBytes([]byte("templates:\n  a: /a.html\n"))
	require.NoError(t, err)
	assert.Empty(t, m.Options())
}

func TestParseFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "registry.yaml")
	require.NoError(t, os.WriteFile(path, []byte("templates:\n  nav: /nav.html\n"), 0o600))
	m, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/nav.html", m.Templates["nav"])

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestParseFS(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{
		"conf/registry.yaml": {Data: []byte("templates:\n  row: /row.html\n")},
	}
	m, err := ParseFS(fsys, "conf/registry.yaml")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"row": "/row.html"}, m.Templates)
}
