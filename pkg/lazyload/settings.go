package lazyload

import (
	"time"

	"lazyimg/pkg/html"
)

// Default tunables.
const (
	DefaultOffset           = 250.0
	DefaultThrottleInterval = 250 * time.Millisecond
	DefaultLoadedClass      = "lazy-loaded"
	DefaultPreloaderClass   = "preloader-icon"
	DefaultErrorClass       = "lazy-error"
)

// Settings is the resolved configuration of a Loader. It is a plain value;
// changing it means building a new one with Merge.
type Settings struct {
	// Context is the subtree watched for mutations. nil means the whole
	// document.
	Context *html.Node

	// Offset is the trigger distance in pixels added to the viewport on
	// both axes.
	Offset float64

	// ThrottleInterval is the minimum spacing between automatic checks.
	ThrottleInterval time.Duration

	LoadedClass    string
	PreloaderClass string
	ErrorClass     string

	// SrcAttr and SrcsetAttr hold the deferred sources.
	SrcAttr    string
	SrcsetAttr string

	// GroupAttr marks a container whose deferred images load as one item.
	GroupAttr string
}

// DefaultSettings returns the settings used when no options are given.
func DefaultSettings() Settings {
	return Settings{
		Offset:           DefaultOffset,
		ThrottleInterval: DefaultThrottleInterval,
		LoadedClass:      DefaultLoadedClass,
		PreloaderClass:   DefaultPreloaderClass,
		ErrorClass:       DefaultErrorClass,
		SrcAttr:          "data-src",
		SrcsetAttr:       "data-srcset",
		GroupAttr:        "data-lazy-group",
	}
}

// Options overrides individual settings. A nil field leaves the current
// value in place.
type Options struct {
	Context          *html.Node
	Offset           *float64
	ThrottleInterval *time.Duration
	LoadedClass      *string
	PreloaderClass   *string
	ErrorClass       *string
}

// Ptr returns a pointer to v, for filling Options literals.
func Ptr[T any](v T) *T {
	return &v
}

// Merge returns a copy of s with every field set in o applied.
func (s Settings) Merge(o Options) Settings {
	if o.Context != nil {
		s.Context = o.Context
	}
	if o.Offset != nil {
		s.Offset = *o.Offset
	}
	if o.ThrottleInterval != nil {
		s.ThrottleInterval = *o.ThrottleInterval
	}
	if o.LoadedClass != nil {
		s.LoadedClass = *o.LoadedClass
	}
	if o.PreloaderClass != nil {
		s.PreloaderClass = *o.PreloaderClass
	}
	if o.ErrorClass != nil {
		s.ErrorClass = *o.ErrorClass
	}
	return s
}
