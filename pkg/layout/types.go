package layout

import (
	"lazyimg/pkg/css"
	"lazyimg/pkg/html"
)

// Box is the laid out geometry of one node. Coordinates are document
// relative: X/Y locate the top-left corner of the padding box.
type Box struct {
	Node      *html.Node
	Style     *css.Style
	X         float64
	Y         float64
	Width     float64 // Content width
	Height    float64 // Content height
	Margin    css.BoxEdge
	Padding   css.BoxEdge
	Children  []*Box
	Parent    *Box
	Position  css.PositionType
	Hidden    bool   // visibility: hidden, inherited
	ImagePath string // src of replaced image elements
	Text      string // content of text boxes
}

// ImageSizer reports the intrinsic size of an image source.
type ImageSizer func(src string) (width, height int, err error)

type LayoutEngine struct {
	viewport struct {
		width  float64
		height float64
	}
	imageSizer    ImageSizer
	absoluteBoxes []*Box
}

// Default metrics for text runs; there is no font shaping here.
const (
	CharWidth  = 8.0
	LineHeight = 18.0
)

// OuterWidth is the padding box width.
func (b *Box) OuterWidth() float64 {
	return b.Width + b.Padding.Left + b.Padding.Right
}

// OuterHeight is the padding box height.
func (b *Box) OuterHeight() float64 {
	return b.Height + b.Padding.Top + b.Padding.Bottom
}

// Visible reports whether the box is rendered with a non-empty area in at
// least one dimension and is not visibility-hidden.
func (b *Box) Visible() bool {
	if b == nil || b.Hidden {
		return false
	}
	return b.OuterWidth() > 0 || b.OuterHeight() > 0
}

// shift moves the box and its whole subtree.
func (b *Box) shift(dx, dy float64) {
	b.X += dx
	b.Y += dy
	for _, c := range b.Children {
		c.shift(dx, dy)
	}
}

// Index maps every node that produced a box to that box.
func Index(boxes []*Box) map[*html.Node]*Box {
	idx := make(map[*html.Node]*Box)
	var walk func([]*Box)
	walk = func(bs []*Box) {
		for _, b := range bs {
			if b.Node != nil {
				idx[b.Node] = b
			}
			walk(b.Children)
		}
	}
	walk(boxes)
	return idx
}

// Extent returns the bottom-most and right-most edges of the laid out
// content, i.e. the scrollable document size.
func Extent(boxes []*Box) (width, height float64) {
	var walk func([]*Box)
	walk = func(bs []*Box) {
		for _, b := range bs {
			if r := b.X + b.OuterWidth() + b.Margin.Right; r > width {
				width = r
			}
			if btm := b.Y + b.OuterHeight() + b.Margin.Bottom; btm > height {
				height = btm
			}
			walk(b.Children)
		}
	}
	walk(boxes)
	return width, height
}
