package layout

// applyAbsolutePositioning moves an absolutely positioned box (and its
// subtree) from its static position to the offsets given by top/left or
// bottom/right, relative to its containing block's padding box. Without any
// offset on an axis the static position is kept.
func (le *LayoutEngine) applyAbsolutePositioning(box *Box) {
	cb := box.FindContainingBlock()

	var cbX, cbY, cbWidth, cbHeight float64
	if cb == nil {
		cbWidth = le.viewport.width
		cbHeight = le.viewport.height
	} else {
		cbX, cbY = cb.X, cb.Y
		cbWidth, cbHeight = cb.OuterWidth(), cb.OuterHeight()
	}

	offset := box.Style.GetPositionOffset()
	x, y := box.X, box.Y
	switch {
	case offset.HasLeft:
		x = cbX + offset.Left + box.Margin.Left
	case offset.HasRight:
		x = cbX + cbWidth - offset.Right - box.Margin.Right - box.OuterWidth()
	}
	switch {
	case offset.HasTop:
		y = cbY + offset.Top + box.Margin.Top
	case offset.HasBottom:
		y = cbY + cbHeight - offset.Bottom - box.Margin.Bottom - box.OuterHeight()
	}
	box.shift(x-box.X, y-box.Y)
}

// applyRelativePositioning offsets a relatively positioned box from its
// place in the flow without affecting siblings.
func applyRelativePositioning(box *Box) {
	offset := box.Style.GetPositionOffset()
	var dx, dy float64
	switch {
	case offset.HasLeft:
		dx = offset.Left
	case offset.HasRight:
		dx = -offset.Right
	}
	switch {
	case offset.HasTop:
		dy = offset.Top
	case offset.HasBottom:
		dy = -offset.Bottom
	}
	box.shift(dx, dy)
}
