package lazyload

import "lazyimg/pkg/html"

// Shape selects how an item is rendered. It is fixed when the item is
// created.
type Shape int

const (
	// ShapeImage is a single element carrying the deferred source, or a
	// wrapper whose first descendant does.
	ShapeImage Shape = iota
	// ShapeGroup is a container of several independent deferred images.
	ShapeGroup
	// ShapePicture is a picture container whose descendants carry deferred
	// source sets.
	ShapePicture
)

func (s Shape) String() string {
	switch s {
	case ShapeImage:
		return "image"
	case ShapeGroup:
		return "group"
	case ShapePicture:
		return "picture"
	}
	return "unknown"
}

// Item is one element registered for deferred loading. Items have no
// identity beyond their node; enqueueing the same node twice renders it
// twice.
type Item struct {
	Node  *html.Node
	Shape Shape
}
