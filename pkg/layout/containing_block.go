package layout

import "lazyimg/pkg/css"

// FindContainingBlock returns the box an absolutely positioned box is
// placed against: the nearest positioned ancestor, or nil for the initial
// containing block. Other boxes use their parent.
func (b *Box) FindContainingBlock() *Box {
	switch b.Position {
	case css.PositionAbsolute:
		for p := b.Parent; p != nil; p = p.Parent {
			if p.IsPositioned() {
				return p
			}
		}
		return nil
	case css.PositionFixed:
		return nil
	}
	return b.Parent
}

// IsPositioned returns true if the box has position != static
func (b *Box) IsPositioned() bool {
	return b.Position != "" && b.Position != css.PositionStatic
}
