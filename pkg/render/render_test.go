package render

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"lazyimg/pkg/html"
	"lazyimg/pkg/images"
	"lazyimg/pkg/layout"
	"lazyimg/pkg/lazyload"
)

func solidPNG(t *testing.T, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func renderPage(t *testing.T, markup string, scrollY float64) image.Image {
	t.Helper()
	doc, err := html.Parse(markup)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	boxes := layout.NewLayoutEngine(200, 100).Layout(doc)
	r := NewRenderer(200, 100, images.NewCache(nil), lazyload.DefaultSettings())
	r.Render(boxes, 0, scrollY)
	return r.Image()
}

func rgbAt(img image.Image, x, y int) (uint8, uint8, uint8) {
	r, g, b, _ := img.At(x, y).RGBA()
	return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)
}

func TestRender_LoadedImage(t *testing.T) {
	red := solidPNG(t, color.RGBA{255, 0, 0, 255})
	img := renderPage(t, `<img src="`+red+`" width="40" height="40">`, 0)

	if r, g, b := rgbAt(img, 20, 20); r != 255 || g != 0 || b != 0 {
		t.Errorf("inside image = (%d,%d,%d), want red", r, g, b)
	}
	if r, g, b := rgbAt(img, 100, 80); r != 255 || g != 255 || b != 255 {
		t.Errorf("background = (%d,%d,%d), want white", r, g, b)
	}
}

func TestRender_PendingPlaceholder(t *testing.T) {
	img := renderPage(t, `<img data-src="later.jpg" width="40" height="40">`, 0)
	if r, g, b := rgbAt(img, 20, 20); r != 0xe6 || g != 0xe6 || b != 0xe6 {
		t.Errorf("placeholder = (%d,%d,%d), want light grey", r, g, b)
	}
}

func TestRender_Scrolled(t *testing.T) {
	red := solidPNG(t, color.RGBA{255, 0, 0, 255})
	img := renderPage(t, `<div style="height: 150px"></div><img src="`+red+`" width="40" height="40">`, 120)
	// image at y=150 is drawn at y=30 after scrolling by 120
	if r, g, b := rgbAt(img, 20, 50); r != 255 || g != 0 || b != 0 {
		t.Errorf("scrolled image = (%d,%d,%d), want red", r, g, b)
	}
}

func TestRender_Background(t *testing.T) {
	img := renderPage(t, `<div style="height: 50px; background-color: #00f"></div>`, 0)
	if r, g, b := rgbAt(img, 10, 10); r != 0 || g != 0 || b != 255 {
		t.Errorf("background = (%d,%d,%d), want blue", r, g, b)
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
		ok   bool
	}{
		{"#ff0000", color.RGBA{255, 0, 0, 255}, true},
		{"#0f0", color.RGBA{0, 255, 0, 255}, true},
		{"red", color.RGBA{}, false},
		{"#12345", color.RGBA{}, false},
	}
	for _, tt := range tests {
		c, ok := parseHexColor(tt.in)
		if ok != tt.ok {
			t.Errorf("parseHexColor(%q) ok = %v", tt.in, ok)
			continue
		}
		if ok && c != tt.want {
			t.Errorf("parseHexColor(%q) = %v, want %v", tt.in, c, tt.want)
		}
	}
}

func TestRender_UncachedImageNotFetched(t *testing.T) {
	red := solidPNG(t, color.RGBA{255, 0, 0, 255})
	payload, err := images.DecodeDataURI(red)
	if err != nil {
		t.Fatal(err)
	}
	fetches := 0
	cache := images.NewCache(func(string) ([]byte, error) {
		fetches++
		return payload, nil
	})

	doc, err := html.Parse(`<img src="http://example.com/a.png" width="40" height="40">`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	boxes := layout.NewLayoutEngine(200, 100).Layout(doc)
	paint := func() image.Image {
		r := NewRenderer(200, 100, cache, lazyload.DefaultSettings())
		r.Render(boxes, 0, 0)
		return r.Image()
	}

	img := paint()
	if fetches != 0 {
		t.Fatalf("painting fetched %d times", fetches)
	}
	if r, g, b := rgbAt(img, 30, 15); r != 0xe6 || g != 0xe6 || b != 0xe6 {
		t.Errorf("uncached image = (%d,%d,%d), want broken placeholder", r, g, b)
	}

	if _, err := cache.Load("http://example.com/a.png"); err != nil {
		t.Fatal(err)
	}
	img = paint()
	if r, g, b := rgbAt(img, 30, 15); r != 255 || g != 0 || b != 0 {
		t.Errorf("cached image = (%d,%d,%d), want red", r, g, b)
	}
	if fetches != 1 {
		t.Errorf("fetches = %d, want 1", fetches)
	}
}
