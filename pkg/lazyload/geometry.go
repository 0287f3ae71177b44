package lazyload

// Viewport is a snapshot of scroll offsets and viewport size.
type Viewport struct {
	ScrollTop  float64
	ScrollLeft float64
	Width      float64
	Height     float64
}

// Position is a document-relative offset.
type Position struct {
	Top  float64
	Left float64
}

// InViewportOrAbove reports whether an element at pos should load. Anything
// above the bottom edge of the extended viewport qualifies, including
// content scrolled past. Elements at or left of the document edge never
// qualify, which excludes content hidden with negative offscreen offsets.
func InViewportOrAbove(pos Position, vp Viewport, distance float64) bool {
	return pos.Left > 0 &&
		vp.Height+vp.ScrollTop+distance > pos.Top &&
		vp.Width+vp.ScrollLeft+distance > pos.Left
}
