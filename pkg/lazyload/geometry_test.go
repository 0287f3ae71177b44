package lazyload

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInViewportOrAbove(t *testing.T) {
	vp := Viewport{ScrollTop: 100, ScrollLeft: 0, Width: 800, Height: 600}
	const d = 250.0
	edge := vp.Height + vp.ScrollTop + d

	tests := []struct {
		name string
		pos  Position
		want bool
	}{
		{"inside", Position{Top: 300, Left: 10}, true},
		{"just before bottom edge", Position{Top: edge - 1, Left: 10}, true},
		{"on bottom edge", Position{Top: edge, Left: 10}, false},
		{"below", Position{Top: edge + 500, Left: 10}, false},
		{"above scroll position", Position{Top: -400, Left: 10}, true},
		{"zero left", Position{Top: 300, Left: 0}, false},
		{"offscreen left", Position{Top: 300, Left: -9999}, false},
		{"right edge within distance", Position{Top: 300, Left: 800 + d - 1}, true},
		{"right edge beyond distance", Position{Top: 300, Left: 800 + d}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InViewportOrAbove(tt.pos, vp, d))
		})
	}
}

func TestInViewportOrAbove_NonPositiveLeftNeverQualifies(t *testing.T) {
	viewports := []Viewport{
		{Width: 800, Height: 600},
		{ScrollTop: 5000, ScrollLeft: 5000, Width: 1, Height: 1},
		{Width: 1e6, Height: 1e6},
	}
	for _, vp := range viewports {
		for _, left := range []float64{0, -1, -0.5, -1e6} {
			for _, top := range []float64{-1e6, 0, 100} {
				assert.False(t, InViewportOrAbove(Position{Top: top, Left: left}, vp, 1e6),
					"left=%v top=%v vp=%+v", left, top, vp)
			}
		}
	}
}
