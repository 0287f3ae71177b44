package lazyload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"lazyimg/pkg/html"
)

type harness struct {
	root      *html.Node
	clock     *fakeClock
	geometry  *fakeGeometry
	preloader *fakePreloader
	events    *fakeEvents
	evaluated int
	loaded    []string
}

func newHarness() *harness {
	return &harness{
		root:      html.NewElement("body", nil),
		clock:     newFakeClock(),
		geometry:  newFakeGeometry(800, 600),
		preloader: &fakePreloader{},
		events:    &fakeEvents{},
	}
}

func (h *harness) env() Env {
	return Env{
		Geometry:  h.geometry,
		Timers:    h.clock,
		Events:    h.events,
		Preloader: h.preloader,
	}
}

func (h *harness) loader(t *testing.T, env Env, opts Options, extra ...Option) *Loader {
	options := append([]Option{
		WithLogger(zaptest.NewLogger(t)),
		WithEvaluateHook(func(Item, bool) { h.evaluated++ }),
		WithLoadHook(func(_, img *html.Node) {
			src, _ := img.GetAttribute("src")
			h.loaded = append(h.loaded, src)
		}),
	}, extra...)
	return New(env, opts, options...)
}

func TestNew_RequiresGeometryAndTimers(t *testing.T) {
	assert.Panics(t, func() { New(Env{}, Options{}) })
}

func TestAddItems_ChecksImmediately(t *testing.T) {
	h := newHarness()
	near := lazyImage(h.root, "near.jpg", nil)
	far := lazyImage(h.root, "far.jpg", nil)
	h.geometry.place(near, 100, 10)
	h.geometry.place(far, 5000, 10)

	l := h.loader(t, h.env(), Options{})
	l.AddItems([]Item{{Node: near}, {Node: far}}, nil)

	require.Len(t, h.preloader.calls, 1)
	assert.Equal(t, "near.jpg", h.preloader.calls[0].src)
	require.Equal(t, 1, l.Pending())
	assert.Same(t, far, l.Items()[0].Node)
}

func TestCheckItems_IdempotentWhenNothingQualifies(t *testing.T) {
	h := newHarness()
	a := lazyImage(h.root, "a.jpg", nil)
	b := lazyImage(h.root, "b.jpg", nil)
	h.geometry.place(a, 2000, 10)
	h.geometry.place(b, 3000, 10)

	l := h.loader(t, h.env(), Options{})
	l.AddItems([]Item{{Node: a}, {Node: b}}, nil)
	before := h.root.SerializeOuter()
	for range 5 {
		l.CheckItems()
	}

	assert.Equal(t, 2, l.Pending())
	assert.Empty(t, h.preloader.calls)
	assert.Equal(t, before, h.root.SerializeOuter())
}

func TestCheckItems_EachItemRemovedOnce(t *testing.T) {
	h := newHarness()
	var items []Item
	for i, top := range []float64{100, 900, 1500, 2500, 99999} {
		n := lazyImage(h.root, string(rune('a'+i))+".jpg", nil)
		h.geometry.place(n, top, 10)
		items = append(items, Item{Node: n})
	}

	l := h.loader(t, h.env(), Options{}, WithEvaluateHook(nil))
	l.AddItems(items, nil)
	for _, scroll := range []float64{0, 500, 1000, 2000, 1000, 0} {
		h.geometry.viewport.ScrollTop = scroll
		l.CheckItems()
		l.CheckItems()
	}
	h.preloader.resolveAll(nil)

	assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg"}, h.loaded)
	require.Equal(t, 1, l.Pending())
	assert.Same(t, items[4].Node, l.Items()[0].Node)
}

func TestCheckItems_HiddenItemsStayQueued(t *testing.T) {
	h := newHarness()
	n := lazyImage(h.root, "a.jpg", nil)
	h.geometry.place(n, 10, 10)
	h.geometry.hidden[n] = true

	l := h.loader(t, h.env(), Options{})
	l.AddItems([]Item{{Node: n}}, nil)
	assert.Equal(t, 1, l.Pending())
	assert.Zero(t, h.evaluated, "hidden items are not evaluated")

	delete(h.geometry.hidden, n)
	l.CheckItems()
	assert.Equal(t, 0, l.Pending())
	assert.Equal(t, 1, h.evaluated)
}

func TestCheckItems_NestedCheckDuringRender(t *testing.T) {
	h := newHarness()
	env := h.env()
	env.Preloader = nil

	var items []Item
	for i := range 4 {
		n := lazyImage(h.root, string(rune('a'+i))+".jpg", nil)
		h.geometry.place(n, float64(10+i), 10)
		items = append(items, Item{Node: n})
	}

	var l *Loader
	l = h.loader(t, env, Options{}, WithLoadHook(func(_, img *html.Node) {
		src, _ := img.GetAttribute("src")
		h.loaded = append(h.loaded, src)
		l.CheckItems()
	}))
	l.AddItems(items, nil)

	assert.ElementsMatch(t, []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg"}, h.loaded)
	assert.Equal(t, 0, l.Pending())
	assert.Len(t, h.root.ElementsByClass("lazy-loaded"), 4)
}

func TestAddItems_OverrideMergesSettings(t *testing.T) {
	h := newHarness()
	n := lazyImage(h.root, "a.jpg", nil)
	h.geometry.place(n, 1000, 10)

	l := h.loader(t, h.env(), Options{})
	l.AddItems([]Item{{Node: n}}, nil)
	require.Equal(t, 1, l.Pending())

	l.AddItems(nil, &Options{Offset: Ptr(500.0), LoadedClass: Ptr("ready")})
	assert.Equal(t, 0, l.Pending())
	assert.Equal(t, 500.0, l.Settings().Offset)

	h.preloader.resolveAll(nil)
	img := h.root.Children[0]
	assert.True(t, img.HasClass("ready"))
}

func TestRenderImage_BypassesQueue(t *testing.T) {
	h := newHarness()
	queued := lazyImage(h.root, "q.jpg", nil)
	direct := lazyImage(h.root, "d.jpg", nil)
	h.geometry.place(queued, 9000, 10)

	l := h.loader(t, h.env(), Options{})
	l.AddItems([]Item{{Node: queued}}, nil)
	l.RenderImage(Item{Node: direct})
	h.preloader.resolveAll(nil)

	assert.Equal(t, []string{"d.jpg"}, h.loaded)
	assert.Equal(t, 1, l.Pending())
	assert.Equal(t, 1, h.geometry.offsetReads, "render does not read geometry")
}

func TestCheckItems_EmptyQueueReadsNoGeometry(t *testing.T) {
	h := newHarness()
	env := h.env()
	mutations := &fakeMutations{}
	env.Mutations = mutations

	l := h.loader(t, env, Options{})
	l.AddItems(nil, nil)
	require.True(t, l.CreateCheckListeners())

	for range 3 {
		h.events.fire(EventScroll)
		h.events.fire(EventResize)
		mutations.fire()
		h.clock.Advance(DefaultThrottleInterval * 2)
	}
	l.CheckItems()

	assert.Zero(t, h.geometry.viewportReads)
	assert.Zero(t, h.geometry.offsetReads)
	assert.Zero(t, h.evaluated)
}
