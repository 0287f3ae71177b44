package lazyload

import (
	"sort"
	"time"

	"lazyimg/pkg/html"
)

type fakeTimer struct {
	at      time.Time
	every   time.Duration
	fn      func()
	stopped bool
}

// fakeClock runs timers synchronously from Advance.
type fakeClock struct {
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) func() {
	t := &fakeTimer{at: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, t)
	return func() { t.stopped = true }
}

func (c *fakeClock) Every(d time.Duration, fn func()) func() {
	t := &fakeTimer{at: c.now.Add(d), every: d, fn: fn}
	c.timers = append(c.timers, t)
	return func() { t.stopped = true }
}

func (c *fakeClock) Advance(d time.Duration) {
	end := c.now.Add(d)
	for {
		due := c.due(end)
		if due == nil {
			break
		}
		c.now = due.at
		if due.every > 0 {
			due.at = due.at.Add(due.every)
		} else {
			due.stopped = true
		}
		due.fn()
	}
	c.now = end
}

func (c *fakeClock) due(end time.Time) *fakeTimer {
	live := c.timers[:0]
	for _, t := range c.timers {
		if !t.stopped {
			live = append(live, t)
		}
	}
	c.timers = live
	sort.SliceStable(c.timers, func(i, j int) bool { return c.timers[i].at.Before(c.timers[j].at) })
	if len(c.timers) == 0 || c.timers[0].at.After(end) {
		return nil
	}
	return c.timers[0]
}

func (c *fakeClock) Pending() int {
	n := 0
	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

type fakeGeometry struct {
	viewport      Viewport
	positions     map[*html.Node]Position
	hidden        map[*html.Node]bool
	viewportReads int
	offsetReads   int
}

func newFakeGeometry(w, h float64) *fakeGeometry {
	return &fakeGeometry{
		viewport:  Viewport{Width: w, Height: h},
		positions: make(map[*html.Node]Position),
		hidden:    make(map[*html.Node]bool),
	}
}

func (g *fakeGeometry) Viewport() Viewport {
	g.viewportReads++
	return g.viewport
}

func (g *fakeGeometry) Visible(n *html.Node) bool { return !g.hidden[n] }

func (g *fakeGeometry) Offset(n *html.Node) (Position, bool) {
	g.offsetReads++
	p, ok := g.positions[n]
	return p, ok
}

func (g *fakeGeometry) place(n *html.Node, top, left float64) {
	g.positions[n] = Position{Top: top, Left: left}
}

type preloadCall struct {
	src  string
	done func(error)
}

// fakePreloader holds completions until the test resolves them.
type fakePreloader struct {
	calls []preloadCall
}

func (p *fakePreloader) Preload(src string, done func(error)) {
	p.calls = append(p.calls, preloadCall{src: src, done: done})
}

func (p *fakePreloader) resolveAll(err error) {
	calls := p.calls
	p.calls = nil
	for _, c := range calls {
		c.done(err)
	}
}

type fakeEvents struct {
	listeners map[Event][]func()
}

func (e *fakeEvents) Listen(ev Event, fn func()) {
	if e.listeners == nil {
		e.listeners = make(map[Event][]func())
	}
	e.listeners[ev] = append(e.listeners[ev], fn)
}

func (e *fakeEvents) fire(ev Event) {
	for _, fn := range e.listeners[ev] {
		fn()
	}
}

type fakeMutations struct {
	root *html.Node
	fns  []func()
}

func (m *fakeMutations) ObserveMutations(root *html.Node, fn func()) {
	m.root = root
	m.fns = append(m.fns, fn)
}

func (m *fakeMutations) fire() {
	for _, fn := range m.fns {
		fn()
	}
}

type fakeFrames struct {
	queued []func()
}

func (f *fakeFrames) RequestFrame(fn func()) { f.queued = append(f.queued, fn) }

func (f *fakeFrames) flush() {
	q := f.queued
	f.queued = nil
	for _, fn := range q {
		fn()
	}
}

type fakeResponsive struct{ calls int }

func (r *fakeResponsive) Reevaluate() { r.calls++ }

// lazyImage appends a deferred image to parent.
func lazyImage(parent *html.Node, src string, attrs map[string]string) *html.Node {
	a := map[string]string{"data-src": src}
	for k, v := range attrs {
		a[k] = v
	}
	n := html.NewElement("img", a)
	parent.AddChild(n)
	return n
}
