// Package lazyload defers image loading until elements approach the
// viewport. A Loader owns a queue of pending items, checks them against the
// viewport when the scheduler fires, and replaces each qualifying element
// with its loaded image.
//
// A Loader is not safe for concurrent use. All calls, including preload
// completions and timer callbacks, must run on the hosting event loop.
package lazyload

import (
	"go.uber.org/zap"
)

// EvaluateFunc observes each viewport evaluation with its outcome.
type EvaluateFunc func(it Item, qualifies bool)

// Option configures a Loader.
type Option func(*Loader)

func WithLogger(log *zap.Logger) Option {
	return func(l *Loader) {
		if log != nil {
			l.log = log
		}
	}
}

// WithEvaluateHook installs a hook called for every geometry evaluation.
func WithEvaluateHook(fn EvaluateFunc) Option {
	return func(l *Loader) { l.onEvaluate = fn }
}

// WithLoadHook installs a hook called after an element was replaced.
func WithLoadHook(fn LoadFunc) Option {
	return func(l *Loader) { l.renderer.onLoad = fn }
}

// WithFailureHook installs a hook called when a preload fails. The failed
// element keeps its deferred source and gains the error class.
func WithFailureHook(fn FailFunc) Option {
	return func(l *Loader) { l.renderer.onFail = fn }
}

type Loader struct {
	env        Env
	settings   Settings
	queue      Queue
	renderer   *Renderer
	scheduler  *Scheduler
	onEvaluate EvaluateFunc
	log        *zap.Logger
}

// New returns a Loader with opts merged over DefaultSettings. env.Geometry
// and env.Timers must be set.
func New(env Env, opts Options, options ...Option) *Loader {
	if env.Geometry == nil || env.Timers == nil {
		panic("lazyload: Env.Geometry and Env.Timers are required")
	}
	l := &Loader{
		env:      env,
		settings: DefaultSettings().Merge(opts),
		renderer: &Renderer{env: env},
		log:      zap.NewNop(),
	}
	for _, o := range options {
		o(l)
	}
	l.renderer.log = l.log
	l.scheduler = newScheduler(env, l.Settings, l.queue.Len, l.CheckItems, l.log)
	return l
}

// Settings returns the current settings.
func (l *Loader) Settings() Settings {
	return l.settings
}

// Pending returns the number of queued items.
func (l *Loader) Pending() int {
	return l.queue.Len()
}

// Items returns a copy of the queue.
func (l *Loader) Items() []Item {
	return l.queue.Items()
}

// Scheduler returns the loader's scheduler.
func (l *Loader) Scheduler() *Scheduler {
	return l.scheduler
}

// AddItems appends items to the queue and checks immediately. A non-nil
// override is merged into the settings first and stays in effect for later
// checks.
func (l *Loader) AddItems(items []Item, override *Options) {
	if override != nil {
		prev := l.settings
		l.settings = l.settings.Merge(*override)
		if l.settings.ThrottleInterval != prev.ThrottleInterval {
			l.scheduler.setInterval(l.settings.ThrottleInterval)
		}
	}
	l.queue.Push(items...)
	l.log.Debug("items added", zap.Int("added", len(items)), zap.Int("pending", l.queue.Len()))
	l.CheckItems()
}

// CheckItems renders every queued item that is visible and within the
// trigger distance of the viewport, removing it from the queue. An empty
// queue reads no geometry.
func (l *Loader) CheckItems() {
	if l.queue.Len() == 0 {
		return
	}
	s := l.settings
	vp := l.env.Geometry.Viewport()
	rendered := l.queue.Sweep(
		func(it Item) bool { return l.qualifies(it, vp, s) },
		func(it Item) { l.renderer.Render(it, s) },
	)
	if rendered > 0 {
		l.log.Debug("check rendered items", zap.Int("rendered", rendered), zap.Int("pending", l.queue.Len()))
	}
}

func (l *Loader) qualifies(it Item, vp Viewport, s Settings) bool {
	if it.Node == nil || !l.env.Geometry.Visible(it.Node) {
		return false
	}
	pos, ok := l.env.Geometry.Offset(it.Node)
	in := ok && InViewportOrAbove(pos, vp, s.Offset)
	if l.onEvaluate != nil {
		l.onEvaluate(it, in)
	}
	return in
}

// CreateCheckListeners starts the scheduler. It reports false when the
// listeners were already created.
func (l *Loader) CreateCheckListeners() bool {
	return l.scheduler.Start()
}

// RenderImage renders it immediately without consulting the queue.
func (l *Loader) RenderImage(it Item) {
	l.renderer.Render(it, l.settings)
}
