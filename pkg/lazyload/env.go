package lazyload

import (
	"time"

	"lazyimg/pkg/html"
)

// Geometry reads layout information from the hosting document.
type Geometry interface {
	// Viewport returns the current scroll offsets and viewport size.
	Viewport() Viewport
	// Visible reports whether n is rendered with a non-zero size.
	Visible(n *html.Node) bool
	// Offset returns the document-relative position of n.
	Offset(n *html.Node) (Position, bool)
}

// Preloader loads a source in the background and calls done on the event
// loop once the load finished.
type Preloader interface {
	Preload(src string, done func(error))
}

// FrameScheduler runs fn before the next paint.
type FrameScheduler interface {
	RequestFrame(fn func())
}

// ResponsiveImages re-evaluates responsive image sources after their source
// sets changed.
type ResponsiveImages interface {
	Reevaluate()
}

// Event names a window event the scheduler listens to.
type Event string

const (
	EventScroll Event = "scroll"
	EventResize Event = "resize"
)

// EventSource delivers window events.
type EventSource interface {
	Listen(ev Event, fn func())
}

// MutationObservable watches a subtree for child list, attribute and
// subtree changes. A nil root means the whole document.
type MutationObservable interface {
	ObserveMutations(root *html.Node, fn func())
}

// Timers is the loop's clock. Callbacks run on the event loop.
type Timers interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) (stop func())
	Every(d time.Duration, fn func()) (stop func())
}

// Env is the environment a Loader runs in. Geometry and Timers are required;
// a nil optional capability selects its fallback.
type Env struct {
	Geometry Geometry
	Timers   Timers
	Events   EventSource

	Preloader  Preloader
	Frames     FrameScheduler
	Responsive ResponsiveImages
	Mutations  MutationObservable
}
