// Package asset opens scene inputs (environment maps, meshes, scene files)
// from local paths or http(s) URLs.
package asset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Resource is an open asset stream. Callers must Close it.
type Resource struct {
	io.ReadCloser
	url *url.URL
}

// Path returns the location the resource was opened from
func (r *Resource) Path() string {
	if r.IsRemote() {
		return r.url.String()
	}
	return r.url.Path
}

// Name returns the last element of the resource path
func (r *Resource) Name() string {
	return path.Base(filepath.ToSlash(r.url.Path))
}

// IsRemote reports whether the resource is streamed over http(s)
func (r *Resource) IsRemote() bool {
	return r.url.Scheme != ""
}

// Open opens location, which is either a file path or an http(s) URL. A
// relative location is resolved against the directory of relTo when relTo
// is not nil, so a scene file can refer to its meshes by relative name.
func Open(ctx context.Context, location string, relTo *Resource) (*Resource, error) {
	u, err := url.Parse(strings.ReplaceAll(location, `\`, `/`))
	if err != nil {
		return nil, fmt.Errorf("resource: invalid location '%s': %w", location, err)
	}

	if u.Scheme == "" && relTo != nil && !filepath.IsAbs(u.Path) {
		u = resolve(relTo.url, u.Path)
	}

	var reader io.ReadCloser
	switch u.Scheme {
	case "":
		f, err := os.Open(filepath.Clean(filepath.FromSlash(u.Path)))
		if err != nil {
			return nil, fmt.Errorf("resource: %w", err)
		}
		reader = f
	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("resource: could not fetch '%s': %w", u, err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("resource: could not fetch '%s': %w", u, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("resource: could not fetch '%s': status %d", u, resp.StatusCode)
		}
		reader = resp.Body
	default:
		return nil, fmt.Errorf("resource: unsupported scheme '%s'", u.Scheme)
	}

	return &Resource{ReadCloser: reader, url: u}, nil
}

// FromStream wraps an in-memory reader as a named resource
func FromStream(name string, source io.Reader) *Resource {
	u, err := url.Parse(name)
	if err != nil {
		u = &url.URL{Path: name}
	}
	return &Resource{ReadCloser: io.NopCloser(source), url: u}
}

func resolve(base *url.URL, rel string) *url.URL {
	if base.Scheme != "" {
		return base.ResolveReference(&url.URL{Path: rel})
	}
	dir := filepath.Dir(filepath.FromSlash(base.Path))
	return &url.URL{Path: filepath.ToSlash(filepath.Join(dir, filepath.FromSlash(rel)))}
}
