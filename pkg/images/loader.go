package images

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"os"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ImageFetcher retrieves the raw bytes of a non data: image URI.
type ImageFetcher func(uri string) ([]byte, error)

// ImageCache caches decoded images by source. Concurrent loads of the same
// source share one fetch.
type ImageCache struct {
	fetcher ImageFetcher
	cache   map[string]image.Image
	mu      sync.RWMutex
	group   singleflight.Group
}

// NewCache returns a cache that fetches through fetcher. A nil fetcher reads
// plain paths from the filesystem.
func NewCache(fetcher ImageFetcher) *ImageCache {
	return &ImageCache{
		fetcher: fetcher,
		cache:   make(map[string]image.Image),
	}
}

// Load decodes src, returning the cached image when there is one.
func (c *ImageCache) Load(src string) (image.Image, error) {
	c.mu.RLock()
	img, ok := c.cache[src]
	c.mu.RUnlock()
	if ok {
		return img, nil
	}

	v, err, _ := c.group.Do(src, func() (any, error) {
		img, err := c.decode(src)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.cache[src] = img
		c.mu.Unlock()
		return img, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(image.Image), nil
}

// Dimensions returns the pixel size of src, loading it if needed.
func (c *ImageCache) Dimensions(src string) (int, int, error) {
	img, err := c.Load(src)
	if err != nil {
		return 0, 0, err
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), nil
}

// Cached reports whether src has already been decoded.
func (c *ImageCache) Cached(src string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.cache[src]
	return ok
}

func (c *ImageCache) decode(src string) (image.Image, error) {
	if src == "" {
		return nil, errors.New("empty image source")
	}
	if IsDataURI(src) {
		return LoadImageFromDataURI(src)
	}
	var (
		data []byte
		err  error
	)
	if c.fetcher != nil {
		data, err = c.fetcher(src)
	} else {
		data, err = os.ReadFile(src)
	}
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", src, err)
	}
	return img, nil
}

// IsDataURI reports whether s is a data: URI.
func IsDataURI(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// DecodeDataURI returns the payload of a data: URI, base64 or percent
// encoded.
func DecodeDataURI(uri string) ([]byte, error) {
	if !IsDataURI(uri) {
		return nil, fmt.Errorf("not a data URI")
	}
	meta, payload, ok := strings.Cut(uri[len("data:"):], ",")
	if !ok {
		return nil, fmt.Errorf("malformed data URI: missing comma")
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("decoding base64 payload: %w", err)
		}
		return data, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("decoding payload: %w", err)
	}
	return []byte(s), nil
}

// LoadImageFromDataURI decodes the image embedded in a data: URI.
func LoadImageFromDataURI(uri string) (image.Image, error) {
	data, err := DecodeDataURI(uri)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding data URI image: %w", err)
	}
	return img, nil
}
