package resource

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"lazyimg/pkg/images"
	stdnet "lazyimg/std/net"
)

// ErrUnsupportedURI is returned for URIs no fetcher scheme handles.
var ErrUnsupportedURI = errors.New("unsupported URI")

// Fetcher retrieves resources by URI.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) (body []byte, contentType string, err error)
}

// DefaultFetcher fetches http(s), file and data: URIs, resolving relative
// URIs against a base which may be a URL or a local directory.
type DefaultFetcher struct {
	baseURL string
}

// NewFetcher creates a DefaultFetcher with the given base.
func NewFetcher(baseURL string) *DefaultFetcher {
	return &DefaultFetcher{baseURL: baseURL}
}

// Resolve returns uri made absolute against the fetcher's base.
func (f *DefaultFetcher) Resolve(uri string) string {
	switch {
	case images.IsDataURI(uri), stdnet.IsNetworkURL(uri), strings.HasPrefix(uri, "file://"):
		return uri
	case f.baseURL == "":
		return uri
	case stdnet.IsNetworkURL(f.baseURL):
		return stdnet.ResolveURL(f.baseURL, uri)
	case filepath.IsAbs(uri):
		return uri
	}
	base := strings.TrimPrefix(f.baseURL, "file://")
	if info, err := os.Stat(base); err == nil && !info.IsDir() {
		base = filepath.Dir(base)
	}
	return filepath.Join(base, uri)
}

// Fetch retrieves the resource at the given URI.
func (f *DefaultFetcher) Fetch(ctx context.Context, uri string) ([]byte, string, error) {
	resolved := f.Resolve(uri)
	switch {
	case images.IsDataURI(resolved):
		body, err := images.DecodeDataURI(resolved)
		if err != nil {
			return nil, "", err
		}
		meta, _, _ := strings.Cut(strings.TrimPrefix(resolved, "data:"), ",")
		mediaType, _, _ := strings.Cut(meta, ";")
		return body, mediaType, nil
	case stdnet.IsNetworkURL(resolved):
		return stdnet.Fetch(ctx, resolved)
	case strings.HasPrefix(resolved, "file://"):
		u, err := url.Parse(resolved)
		if err != nil {
			return nil, "", fmt.Errorf("parsing %s: %w", resolved, err)
		}
		return readFile(u.Path)
	case strings.Contains(resolved, "://"):
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedURI, resolved)
	}
	return readFile(resolved)
}

func readFile(path string) ([]byte, string, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	return body, "", nil
}

// ImageFetcher adapts f to the image cache.
func ImageFetcher(f Fetcher) images.ImageFetcher {
	return func(uri string) ([]byte, error) {
		body, _, err := f.Fetch(context.Background(), uri)
		return body, err
	}
}
