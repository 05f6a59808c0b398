package fetcher

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"views/t/greeting.html": {Data: []byte("Hello {{name}}!")},
		"views/row.html":        {Data: []byte("<tr></tr>")},
		"secret.txt":            {Data: []byte("nope")},
	}
}

func TestFSFetcher_Fetch(t *testing.T) {
	t.Parallel()
	f := NewFSFetcher(testFS(), "views")
	tests := []struct {
		location string
		want     string
	}{
		{"/t/greeting.html", "Hello {{name}}!"},
		{"t/greeting.html", "Hello {{name}}!"},
		{"row.html", "<tr></tr>"},
	}
	for _, tt := range tests {
		data, err := f.Fetch(context.Background(), tt.location)
		require.NoError(t, err, tt.location)
		assert.Equal(t, tt.want, string(data))
	}
}

func TestFSFetcher_Fetch_NotFound(t *testing.T) {
	t.Parallel()
	f := NewFSFetcher(testFS(), "")
	_, err := f.Fetch(context.Background(), "/views/missing.html")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFSFetcher_Fetch_EscapesRoot(t *testing.T) {
	t.Parallel()
	f := NewFSFetcher(testFS(), "views")
	for _, loc := range []string{"../secret.txt", "t/../../secret.txt", "", "/"} {
		_, err := f.Fetch(context.Background(), loc)
		assert.ErrorIs(t, err, ErrInvalidLocation, loc)
	}
}

func TestFSFetcher_Fetch_CanceledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFSFetcher(testFS(), "").Fetch(ctx, "secret.txt")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewFSFetcher_NilPanics(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { NewFSFetcher(nil, "") })
}
