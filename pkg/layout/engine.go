package layout

import (
	"math"
	"strings"
	"unicode/utf8"

	"lazyimg/pkg/css"
	"lazyimg/pkg/html"
)

func NewLayoutEngine(viewportWidth, viewportHeight float64) *LayoutEngine {
	le := &LayoutEngine{}
	le.viewport.width = viewportWidth
	le.viewport.height = viewportHeight
	return le
}

// SetImageSizer sets the lookup used to size images that lack an explicit
// width or height.
func (le *LayoutEngine) SetImageSizer(sizer ImageSizer) {
	le.imageSizer = sizer
}

// Layout lays out the document in normal flow and returns the boxes of the
// root's children. Block boxes stack vertically; inline-level boxes and text
// runs fill lines left to right and wrap at the available width.
func (le *LayoutEngine) Layout(doc *html.Document) []*Box {
	le.absoluteBoxes = nil
	boxes, _, _ := le.layoutChildren(nil, doc.Root.Children, 0, 0, le.viewport.width)
	for _, b := range le.absoluteBoxes {
		le.applyAbsolutePositioning(b)
	}
	return boxes
}

func isBlockDisplay(display string) bool {
	switch display {
	case "block", "list-item", "flex", "grid", "table":
		return true
	}
	return false
}

func outOfFlow(b *Box) bool {
	return b.Position == css.PositionAbsolute || b.Position == css.PositionFixed
}

// layoutChildren places nodes inside a content area whose top-left corner is
// (x, y) and returns their boxes with the used content height and width.
func (le *LayoutEngine) layoutChildren(parent *Box, nodes []*html.Node, x, y, avail float64) ([]*Box, float64, float64) {
	var (
		boxes         []*Box
		cursorY       = y
		lineX, lineH  float64
		width         float64
		parentHidden  = parent != nil && parent.Hidden
	)
	flush := func() {
		cursorY += lineH
		lineX, lineH = 0, 0
	}

	for _, n := range nodes {
		if n.Type == html.TextNode {
			if lineX == 0 && strings.TrimSpace(n.Text) == "" {
				continue
			}
			w := float64(utf8.RuneCountInString(n.Text)) * CharWidth
			h := LineHeight
			if lineX > 0 && lineX+w > avail {
				flush()
			}
			if avail > 0 && w > avail {
				h = math.Ceil(w/avail) * LineHeight
				w = avail
			}
			boxes = append(boxes, &Box{
				Node:   n,
				Style:  css.NewStyle(),
				Parent: parent,
				X:      x + lineX,
				Y:      cursorY,
				Width:  w,
				Height: h,
				Hidden: parentHidden,
				Text:   n.Text,
			})
			lineX += w
			lineH = math.Max(lineH, h)
			width = math.Max(width, lineX)
			continue
		}

		style := css.ComputeStyle(n)
		display := style.Display()
		if display == "none" {
			continue
		}
		block := isBlockDisplay(display)
		b, ow, oh := le.layoutBox(parent, n, style, avail, block)
		boxes = append(boxes, b)

		if outOfFlow(b) {
			// static position only
			if block {
				b.shift(x, cursorY+lineH)
			} else {
				b.shift(x+lineX, cursorY)
			}
			continue
		}
		if block {
			flush()
			b.shift(x, cursorY)
			cursorY += oh
			width = math.Max(width, ow)
			continue
		}
		if lineX > 0 && lineX+ow > avail {
			flush()
		}
		b.shift(x+lineX, cursorY)
		lineX += ow
		lineH = math.Max(lineH, oh)
		width = math.Max(width, lineX)
	}
	flush()
	return boxes, cursorY - y, width
}

// layoutBox lays out one element with its margin box at the origin and
// returns the box plus its margin box size. The caller shifts it into place.
func (le *LayoutEngine) layoutBox(parent *Box, n *html.Node, style *css.Style, avail float64, block bool) (*Box, float64, float64) {
	b := &Box{
		Node:     n,
		Style:    style,
		Parent:   parent,
		Margin:   style.GetMargin(),
		Padding:  style.GetPadding(),
		Position: style.GetPosition(),
		Hidden:   parent != nil && parent.Hidden,
	}
	switch style.Visibility() {
	case "hidden":
		b.Hidden = true
	case "visible":
		b.Hidden = false
	}

	width, hasW := lengthOf(n, style, "width")
	height, hasH := lengthOf(n, style, "height")

	if n.TagName == "img" {
		b.ImagePath, _ = n.GetAttribute("src")
		b.Width, b.Height = le.imageSize(b.ImagePath, width, hasW, height, hasH)
	} else {
		contentAvail := avail - b.Margin.Left - b.Margin.Right - b.Padding.Left - b.Padding.Right
		if hasW {
			contentAvail = width
		}
		contentAvail = math.Max(contentAvail, 0)
		children, usedH, usedW := le.layoutChildren(b, n.Children,
			b.Margin.Left+b.Padding.Left, b.Margin.Top+b.Padding.Top, contentAvail)
		b.Children = children
		switch {
		case hasW:
			b.Width = width
		case block && !outOfFlow(b):
			b.Width = contentAvail
		default:
			b.Width = usedW
		}
		b.Height = usedH
		if hasH {
			b.Height = height
		}
	}
	b.X = b.Margin.Left
	b.Y = b.Margin.Top

	outerW := b.Margin.Left + b.OuterWidth() + b.Margin.Right
	outerH := b.Margin.Top + b.OuterHeight() + b.Margin.Bottom

	switch b.Position {
	case css.PositionRelative:
		applyRelativePositioning(b)
	case css.PositionAbsolute, css.PositionFixed:
		le.absoluteBoxes = append(le.absoluteBoxes, b)
	}
	return b, outerW, outerH
}

// lengthOf reads a pixel length from the style, falling back to the
// presentational attribute of the same name.
func lengthOf(n *html.Node, style *css.Style, prop string) (float64, bool) {
	if v, ok := style.GetLength(prop); ok {
		return v, true
	}
	if attr, ok := n.GetAttribute(prop); ok {
		return css.ParseLength(attr)
	}
	return 0, false
}

// imageSize resolves the used size of an image, scaling the intrinsic size
// when only one dimension is given. Unknown sizes are zero.
func (le *LayoutEngine) imageSize(src string, w float64, hasW bool, h float64, hasH bool) (float64, float64) {
	if hasW && hasH {
		return w, h
	}
	var iw, ih float64
	if src != "" && le.imageSizer != nil {
		if sw, sh, err := le.imageSizer(src); err == nil && sw > 0 && sh > 0 {
			iw, ih = float64(sw), float64(sh)
		}
	}
	switch {
	case iw == 0:
		return w, h
	case hasW:
		return w, w * ih / iw
	case hasH:
		return h * iw / ih, h
	}
	return iw, ih
}
