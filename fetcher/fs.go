package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// FSFetcher reads locations from an fs.FS (embed.FS, os.DirFS, fstest.MapFS) under an
// optional root directory. A leading "/" is stripped so registries written for HTTP paths work unchanged.
type FSFetcher struct {
	fsys fs.FS
	root string
}

var _ Fetcher = (*FSFetcher)(nil)

// NewFSFetcher creates an FSFetcher reading from fsys under root ("" or "." for the top).
// Panics if fsys is nil.
func NewFSFetcher(fsys fs.FS, root string) *FSFetcher {
	if fsys == nil {
		panic("fetcher: fs.FS must not be nil")
	}
	if root == "" {
		root = "."
	}
	return &FSFetcher{fsys: fsys, root: path.Clean(root)}
}

// Fetch returns the file contents at location. Paths escaping root return ErrInvalidLocation.
func (f *FSFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	name, err := f.resolve(location)
	if err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(f.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, location)
		}
		return nil, fmt.Errorf("%w: read %s: %w", ErrFetchFailed, name, err)
	}
	return data, nil
}

func (f *FSFetcher) resolve(location string) (string, error) {
	rel := strings.TrimPrefix(strings.TrimSpace(location), "/")
	if rel == "" {
		return "", fmt.Errorf("%w: empty location", ErrInvalidLocation)
	}
	name := path.Join(f.root, rel)
	if !fs.ValidPath(name) || (f.root != "." && name != f.root && !strings.HasPrefix(name, f.root+"/")) {
		return "", fmt.Errorf("%w: %q escapes root", ErrInvalidLocation, location)
	}
	return name, nil
}
