package render

import (
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/fogleman/gg"

	"lazyimg/pkg/html"
	"lazyimg/pkg/images"
	"lazyimg/pkg/layout"
	"lazyimg/pkg/lazyload"
)

var (
	placeholderFill   = color.RGBA{0xe6, 0xe6, 0xe6, 0xff}
	placeholderStroke = color.RGBA{0xb0, 0xb0, 0xb0, 0xff}
	brokenStroke      = color.RGBA{0x80, 0x80, 0x80, 0xff}
	errorStroke       = color.RGBA{0xc0, 0x30, 0x30, 0xff}
	spinnerStroke     = color.RGBA{0x40, 0x80, 0xc0, 0xff}
	textColor         = color.RGBA{0x20, 0x20, 0x20, 0xff}
)

// Renderer paints the visible part of a laid out document. Images come from
// the shared cache; elements still waiting for their deferred source are
// drawn as placeholders.
type Renderer struct {
	context  *gg.Context
	cache    *images.ImageCache
	settings lazyload.Settings
}

func NewRenderer(width, height int, cache *images.ImageCache, settings lazyload.Settings) *Renderer {
	if cache == nil {
		cache = images.NewCache(nil)
	}
	return &Renderer{
		context:  gg.NewContext(width, height),
		cache:    cache,
		settings: settings,
	}
}

// Render clears the canvas and draws boxes with the viewport scrolled to
// (scrollX, scrollY).
func (r *Renderer) Render(boxes []*layout.Box, scrollX, scrollY float64) {
	r.context.SetRGB(1, 1, 1)
	r.context.Clear()

	r.context.Push()
	defer r.context.Pop()
	r.context.Translate(-scrollX, -scrollY)

	w, h := float64(r.context.Width()), float64(r.context.Height())
	for _, box := range collectAllBoxes(boxes) {
		if box.Hidden {
			continue
		}
		if box.X+box.OuterWidth() < scrollX || box.X > scrollX+w ||
			box.Y+box.OuterHeight() < scrollY || box.Y > scrollY+h {
			continue
		}
		r.drawBox(box)
	}
}

// Image returns the canvas.
func (r *Renderer) Image() image.Image {
	return r.context.Image()
}

func (r *Renderer) SavePNG(filename string) error {
	return r.context.SavePNG(filename)
}

// collectAllBoxes flattens the box tree in painting order.
func collectAllBoxes(boxes []*layout.Box) []*layout.Box {
	result := make([]*layout.Box, 0, len(boxes))
	for _, box := range boxes {
		result = append(result, box)
		result = append(result, collectAllBoxes(box.Children)...)
	}
	return result
}

func (r *Renderer) drawBox(box *layout.Box) {
	if box.Text != "" {
		r.drawText(box)
		return
	}
	if box.Node == nil || box.Node.Type != html.ElementNode {
		return
	}
	r.drawBackground(box)

	n := box.Node
	switch {
	case n.HasClass(r.settings.PreloaderClass):
		r.drawSpinner(box)
	case n.HasAttribute(r.settings.SrcAttr) && !n.HasAttribute("src"):
		r.drawPlaceholder(box, n.HasClass(r.settings.ErrorClass))
	case box.ImagePath != "":
		r.drawImage(box)
	}
}

func (r *Renderer) drawBackground(box *layout.Box) {
	v, ok := box.Style.Get("background-color")
	if !ok {
		return
	}
	c, ok := parseHexColor(v)
	if !ok || box.OuterWidth() <= 0 || box.OuterHeight() <= 0 {
		return
	}
	r.context.SetColor(c)
	r.context.DrawRectangle(box.X, box.Y, box.OuterWidth(), box.OuterHeight())
	r.context.Fill()
}

// drawImage scales the decoded image into the box, or draws a broken image
// marker when it is not available. Painting never fetches: only cached
// images and data URIs are drawn.
func (r *Renderer) drawImage(box *layout.Box) {
	if box.Width <= 0 || box.Height <= 0 {
		return
	}
	src := box.ImagePath
	if !r.cache.Cached(src) && !images.IsDataURI(src) {
		r.drawCross(box, placeholderFill, brokenStroke)
		return
	}
	img, err := r.cache.Load(src)
	if err != nil {
		r.drawCross(box, placeholderFill, brokenStroke)
		return
	}

	r.context.Push()
	defer r.context.Pop()
	r.context.Translate(box.X, box.Y)
	bounds := img.Bounds()
	r.context.Scale(box.Width/float64(bounds.Dx()), box.Height/float64(bounds.Dy()))
	r.context.DrawImage(img, 0, 0)
}

// drawPlaceholder outlines an element whose deferred source has not loaded.
// Failed loads get a red cross.
func (r *Renderer) drawPlaceholder(box *layout.Box, failed bool) {
	if box.OuterWidth() <= 0 || box.OuterHeight() <= 0 {
		return
	}
	if failed {
		r.drawCross(box, placeholderFill, errorStroke)
		return
	}
	r.context.SetColor(placeholderFill)
	r.context.DrawRectangle(box.X, box.Y, box.OuterWidth(), box.OuterHeight())
	r.context.FillPreserve()
	r.context.SetColor(placeholderStroke)
	r.context.SetLineWidth(1)
	r.context.Stroke()
}

func (r *Renderer) drawCross(box *layout.Box, fill, stroke color.Color) {
	x, y, w, h := box.X, box.Y, box.OuterWidth(), box.OuterHeight()
	r.context.SetColor(fill)
	r.context.DrawRectangle(x, y, w, h)
	r.context.Fill()
	r.context.SetColor(stroke)
	r.context.SetLineWidth(2)
	r.context.DrawLine(x, y, x+w, y+h)
	r.context.DrawLine(x+w, y, x, y+h)
	r.context.Stroke()
}

func (r *Renderer) drawSpinner(box *layout.Box) {
	radius := min(box.OuterWidth(), box.OuterHeight()) / 2
	if radius <= 0 {
		radius = 8
	}
	r.context.SetColor(spinnerStroke)
	r.context.SetLineWidth(2)
	r.context.DrawArc(box.X+radius, box.Y+radius, radius-1, 0, 3*gg.Radians(90))
	r.context.Stroke()
}

func (r *Renderer) drawText(box *layout.Box) {
	r.context.SetColor(textColor)
	r.context.DrawStringWrapped(strings.TrimSpace(box.Text), box.X, box.Y, 0, 0, box.Width, 1.2, gg.AlignLeft)
}

// parseHexColor accepts #rgb and #rrggbb.
func parseHexColor(s string) (color.Color, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return nil, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return nil, false
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 0xff}, true
}
