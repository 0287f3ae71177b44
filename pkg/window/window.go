// Package window hosts a parsed document on a single-threaded event loop
// and exposes the browsing context the lazy loader needs: layout geometry,
// scroll and resize events, timers, mutation observation and a frame clock.
//
// Methods documented as loop-only must run inside Do or Call.
package window

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	eventloop "github.com/joeycumines/go-eventloop"
	"go.uber.org/zap"

	"lazyimg/pkg/html"
	"lazyimg/pkg/layout"
	"lazyimg/pkg/lazyload"
)

// ErrClosed is returned when work is submitted to a closed window.
var ErrClosed = errors.New("window: closed")

type Config struct {
	Width  float64
	Height float64

	// MutationObserver and FrameSync advertise the optional capabilities to
	// the lazy loader. Turning one off selects the loader's fallback.
	MutationObserver bool
	FrameSync        bool

	// FrameInterval is the spacing of animation frames.
	FrameInterval time.Duration

	// ImageSizer resolves intrinsic image sizes during layout.
	ImageSizer layout.ImageSizer

	Logger *zap.Logger
}

func DefaultConfig() Config {
	return Config{
		Width:            800,
		Height:           600,
		MutationObserver: true,
		FrameSync:        true,
		FrameInterval:    16 * time.Millisecond,
	}
}

type Window struct {
	cfg    Config
	log    *zap.Logger
	loop   *eventloop.Loop
	timers *eventloop.JS
	cancel context.CancelFunc
	done   chan struct{}
	closed atomic.Bool

	doc *html.Document

	// loop-owned
	width, height         float64
	scrollTop, scrollLeft float64
	boxes                 []*layout.Box
	index                 map[*html.Node]*layout.Box
	dirty                 bool
	listeners             map[lazyload.Event][]func()
	frames                []func()
	frameScheduled        bool
	layouts               int
}

// Open starts an event loop hosting doc.
func Open(doc *html.Document, cfg Config) (*Window, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid viewport %vx%v", cfg.Width, cfg.Height)
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultConfig().FrameInterval
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	loop, err := eventloop.New()
	if err != nil {
		return nil, fmt.Errorf("creating event loop: %w", err)
	}
	timers, err := eventloop.NewJS(loop)
	if err != nil {
		return nil, fmt.Errorf("creating loop timers: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Window{
		cfg:       cfg,
		log:       log,
		loop:      loop,
		timers:    timers,
		cancel:    cancel,
		done:      make(chan struct{}),
		doc:       doc,
		width:     cfg.Width,
		height:    cfg.Height,
		dirty:     true,
		listeners: make(map[lazyload.Event][]func()),
	}

	// layout goes stale on any change; records are delivered synchronously
	invalidate := html.NewMutationObserver(func([]html.MutationRecord) { w.dirty = true })
	invalidate.Observe(doc.Root, html.ObserveOptions{ChildList: true, Attributes: true, Subtree: true})

	go func() {
		defer close(w.done)
		if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("event loop stopped", zap.Error(err))
		}
	}()
	return w, nil
}

// Do queues fn on the event loop.
func (w *Window) Do(fn func()) error {
	if w.closed.Load() {
		return ErrClosed
	}
	if err := w.loop.Submit(fn); err != nil {
		return fmt.Errorf("%w: %v", ErrClosed, err)
	}
	return nil
}

// Call runs fn on the event loop and waits for it to return.
func (w *Window) Call(ctx context.Context, fn func()) error {
	ran := make(chan struct{})
	if err := w.Do(func() {
		defer close(ran)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-ran:
		return nil
	case <-w.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the event loop. Pending timers and callbacks are dropped.
func (w *Window) Close() error {
	if w.closed.Swap(true) {
		return nil
	}
	w.cancel()
	<-w.done
	return nil
}

// FrameInterval returns the spacing of animation frames.
func (w *Window) FrameInterval() time.Duration {
	return w.cfg.FrameInterval
}

func (w *Window) Document() *html.Document {
	return w.doc
}

// Env returns the lazy loader environment backed by this window. Optional
// capabilities follow the config.
func (w *Window) Env(preloader lazyload.Preloader, responsive lazyload.ResponsiveImages) lazyload.Env {
	env := lazyload.Env{
		Geometry:   w,
		Timers:     w,
		Events:     w,
		Preloader:  preloader,
		Responsive: responsive,
	}
	if w.cfg.MutationObserver {
		env.Mutations = w
	}
	if w.cfg.FrameSync {
		env.Frames = w
	}
	return env
}

// Boxes returns the current layout, recomputing it if the document changed.
// Loop-only.
func (w *Window) Boxes() []*layout.Box {
	w.relayout()
	return w.boxes
}

// Layouts returns how many times layout ran. Loop-only.
func (w *Window) Layouts() int {
	return w.layouts
}

func (w *Window) relayout() {
	if !w.dirty {
		return
	}
	engine := layout.NewLayoutEngine(w.width, w.height)
	if w.cfg.ImageSizer != nil {
		engine.SetImageSizer(w.cfg.ImageSizer)
	}
	w.boxes = engine.Layout(w.doc)
	w.index = layout.Index(w.boxes)
	w.dirty = false
	w.layouts++
}

// ContentSize returns the size of the laid out document. Loop-only.
func (w *Window) ContentSize() (float64, float64) {
	return layout.Extent(w.Boxes())
}

// Viewport implements lazyload.Geometry. Loop-only.
func (w *Window) Viewport() lazyload.Viewport {
	return lazyload.Viewport{
		ScrollTop:  w.scrollTop,
		ScrollLeft: w.scrollLeft,
		Width:      w.width,
		Height:     w.height,
	}
}

// Visible implements lazyload.Geometry. Loop-only.
func (w *Window) Visible(n *html.Node) bool {
	w.relayout()
	b, ok := w.index[n]
	return ok && b.Visible()
}

// Offset implements lazyload.Geometry. Loop-only.
func (w *Window) Offset(n *html.Node) (lazyload.Position, bool) {
	w.relayout()
	b, ok := w.index[n]
	if !ok {
		return lazyload.Position{}, false
	}
	return lazyload.Position{Top: b.Y, Left: b.X}, true
}

// ScrollTo moves the viewport, clamped to the document, and fires scroll
// listeners when the position changed. Loop-only.
func (w *Window) ScrollTo(x, y float64) {
	cw, ch := w.ContentSize()
	x = clamp(x, cw-w.width)
	y = clamp(y, ch-w.height)
	if x == w.scrollLeft && y == w.scrollTop {
		return
	}
	w.scrollLeft, w.scrollTop = x, y
	w.dispatch(lazyload.EventScroll)
}

func clamp(v, hi float64) float64 {
	return math.Max(0, math.Min(v, math.Max(hi, 0)))
}

// Resize changes the viewport size and fires resize listeners. Loop-only.
func (w *Window) Resize(width, height float64) {
	if width == w.width && height == w.height {
		return
	}
	w.width, w.height = width, height
	w.dirty = true
	w.dispatch(lazyload.EventResize)
}

// Listen implements lazyload.EventSource. Loop-only.
func (w *Window) Listen(ev lazyload.Event, fn func()) {
	w.listeners[ev] = append(w.listeners[ev], fn)
}

func (w *Window) dispatch(ev lazyload.Event) {
	for _, fn := range w.listeners[ev] {
		fn()
	}
}

// ObserveMutations implements lazyload.MutationObservable. Batches of
// records are delivered as a later loop task. Loop-only.
func (w *Window) ObserveMutations(root *html.Node, fn func()) {
	if root == nil {
		root = w.doc.Root
	}
	obs := html.NewMutationObserver(func([]html.MutationRecord) { fn() })
	obs.SetDispatcher(func(deliver func()) {
		if err := w.Do(deliver); err != nil {
			w.log.Debug("dropping mutation records", zap.Error(err))
		}
	})
	obs.Observe(root, html.ObserveOptions{ChildList: true, Attributes: true, Subtree: true})
}

// RequestFrame implements lazyload.FrameScheduler. Loop-only.
func (w *Window) RequestFrame(fn func()) {
	w.frames = append(w.frames, fn)
	if w.frameScheduled {
		return
	}
	w.frameScheduled = true
	w.AfterFunc(w.cfg.FrameInterval, w.runFrame)
}

func (w *Window) runFrame() {
	w.frameScheduled = false
	frames := w.frames
	w.frames = nil
	w.relayout()
	for _, fn := range frames {
		fn()
	}
}

// FramePending reports whether frame callbacks are waiting. Loop-only.
func (w *Window) FramePending() bool {
	return w.frameScheduled
}

// Now implements lazyload.Timers. It reads the loop's tick clock, the
// same clock timers are scheduled against.
func (w *Window) Now() time.Time {
	return w.loop.CurrentTickTime()
}

// AfterFunc implements lazyload.Timers. fn runs on the loop. The returned
// stop may be called from any goroutine.
func (w *Window) AfterFunc(d time.Duration, fn func()) func() {
	if w.closed.Load() {
		return func() {}
	}
	id, err := w.loop.ScheduleTimer(d, fn)
	if err != nil {
		w.log.Debug("timer dropped", zap.Error(err))
		return func() {}
	}
	return func() {
		// a closed loop never runs the timer and cannot confirm a cancel
		if w.closed.Load() {
			return
		}
		if err := w.loop.CancelTimer(id); err != nil && !errors.Is(err, eventloop.ErrTimerNotFound) {
			w.log.Debug("cancelling timer", zap.Error(err))
		}
	}
}

// Every implements lazyload.Timers. fn runs on the loop every d, rounded up
// to whole milliseconds, until stopped or the window closes.
func (w *Window) Every(d time.Duration, fn func()) func() {
	if w.closed.Load() {
		return func() {}
	}
	ms := int((d + time.Millisecond - 1) / time.Millisecond)
	id, err := w.timers.SetInterval(fn, max(ms, 1))
	if err != nil {
		w.log.Debug("interval dropped", zap.Error(err))
		return func() {}
	}
	return func() {
		if w.closed.Load() {
			return
		}
		if err := w.timers.ClearInterval(id); err != nil && !errors.Is(err, eventloop.ErrTimerNotFound) {
			w.log.Debug("clearing interval", zap.Error(err))
		}
	}
}
