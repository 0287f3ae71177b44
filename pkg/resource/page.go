package resource

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lazyimg/pkg/html"
	"lazyimg/pkg/images"
	"lazyimg/pkg/js"
	"lazyimg/pkg/lazyload"
	"lazyimg/pkg/render"
	"lazyimg/pkg/window"
)

// warmLimit bounds concurrent fetches of eagerly sourced images.
const warmLimit = 8

type Config struct {
	Window  window.Config
	Options lazyload.Options

	// Scripts runs the page's inline scripts with the lazyload global bound.
	Scripts bool
	// AutoScan queues every lazy image in the document when no script
	// queued any.
	AutoScan bool

	Logger *zap.Logger
}

func DefaultConfig() Config {
	return Config{
		Window:   window.DefaultConfig(),
		Scripts:  true,
		AutoScan: true,
	}
}

// Page is a loaded document hosted in a window with a lazy loader
// attached.
type Page struct {
	win    *window.Window
	loader *lazyload.Loader
	engine *js.Engine
	cache  *images.ImageCache
	pre    *images.Preloader
	log    *zap.Logger
}

// Stats counts lazy images by state.
type Stats struct {
	Pending int
	Loaded  int
	Failed  int
}

// Open fetches uri and opens it as a page. Relative resources resolve
// against uri.
func Open(ctx context.Context, uri string, cfg Config) (*Page, error) {
	fetcher := NewFetcher(uri)
	body, _, err := fetcher.Fetch(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	return OpenDocument(ctx, fetcher, string(body), cfg)
}

// OpenDocument parses markup and opens it as a page, loading resources
// through fetcher.
func OpenDocument(ctx context.Context, fetcher Fetcher, markup string, cfg Config) (*Page, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	doc, err := html.Parse(markup)
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}

	cache := images.NewCache(ImageFetcher(fetcher))
	if err := warm(ctx, cache, doc, log); err != nil {
		return nil, err
	}

	wcfg := cfg.Window
	if wcfg.Logger == nil {
		wcfg.Logger = log.Named("window")
	}
	wcfg.ImageSizer = cachedSizer(cache)
	win, err := window.Open(doc, wcfg)
	if err != nil {
		return nil, err
	}

	p := &Page{
		win:   win,
		cache: cache,
		pre:   images.NewPreloader(cache, win.Do, log.Named("preload")),
		log:   log,
	}
	var setupErr error
	err = win.Call(ctx, func() {
		p.engine = js.New(log.Named("js"))
		p.engine.Attach(doc)
		p.loader = lazyload.New(win.Env(p.pre, p.engine), cfg.Options,
			lazyload.WithLogger(log.Named("lazyload")),
			lazyload.WithLoadHook(func(_, img *html.Node) {
				src, _ := img.GetAttribute("src")
				log.Debug("image loaded", zap.String("src", src))
			}))
		if setupErr = p.engine.BindLoader(p.loader); setupErr != nil {
			return
		}
		if cfg.Scripts {
			if err := p.engine.Execute(doc); err != nil {
				log.Warn("page script failed", zap.Error(err))
			}
		}
		if cfg.AutoScan && p.loader.Pending() == 0 {
			root := p.loader.Settings().Context
			if root == nil {
				root = doc.Root
			}
			p.loader.AddItems(lazyload.Scan(root, p.loader.Settings()), nil)
		}
		p.loader.CreateCheckListeners()
		log.Info("page opened",
			zap.Int("pending", p.loader.Pending()),
			zap.String("trigger", p.loader.Scheduler().Mode()))
	})
	if err == nil {
		err = setupErr
	}
	if err != nil {
		_ = win.Close()
		return nil, err
	}
	return p, nil
}

// warm fetches images that already carry a src so the first layout sees
// their intrinsic sizes. Failures leave the image unsized.
func warm(ctx context.Context, cache *images.ImageCache, doc *html.Document, log *zap.Logger) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(warmLimit)
	for _, img := range doc.Root.ElementsByTag("img") {
		src, ok := img.GetAttribute("src")
		if !ok || src == "" {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if _, err := cache.Load(src); err != nil {
				log.Debug("image unavailable", zap.String("src", src), zap.Error(err))
			}
			return nil
		})
	}
	return g.Wait()
}

// cachedSizer sizes images from the cache without fetching, since layout
// runs on the event loop.
func cachedSizer(cache *images.ImageCache) func(string) (int, int, error) {
	return func(src string) (int, int, error) {
		if !images.IsDataURI(src) && !cache.Cached(src) {
			return 0, 0, errors.New("image not loaded")
		}
		return cache.Dimensions(src)
	}
}

func (p *Page) Window() *window.Window { return p.win }

// Loader returns the page's lazy loader. Its methods must run inside
// Window().Do or Window().Call.
func (p *Page) Loader() *lazyload.Loader { return p.loader }

// ScrollTo scrolls the viewport, firing the loader's scroll listener.
func (p *Page) ScrollTo(ctx context.Context, x, y float64) error {
	return p.win.Call(ctx, func() { p.win.ScrollTo(x, y) })
}

// Resize changes the viewport size, firing the loader's resize listener.
func (p *Page) Resize(ctx context.Context, width, height float64) error {
	return p.win.Call(ctx, func() { p.win.Resize(width, height) })
}

// Eval runs script in the page.
func (p *Page) Eval(ctx context.Context, script string) (any, error) {
	var (
		out any
		err error
	)
	if cerr := p.win.Call(ctx, func() { out, err = p.engine.Eval(script) }); cerr != nil {
		return nil, cerr
	}
	return out, err
}

// Settle checks the queue and waits until no frame or preload is
// outstanding.
func (p *Page) Settle(ctx context.Context) error {
	interval := p.win.FrameInterval()
	for {
		var busy bool
		if err := p.win.Call(ctx, func() {
			p.loader.CheckItems()
			busy = p.win.FramePending() || p.pre.Inflight() > 0
		}); err != nil {
			return err
		}
		if !busy {
			return nil
		}
		if err := p.pre.Wait(ctx); err != nil {
			return err
		}
		t := time.NewTimer(interval)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}
	}
}

// Snapshot paints the current viewport.
func (p *Page) Snapshot(ctx context.Context) (image.Image, error) {
	var img image.Image
	err := p.win.Call(ctx, func() {
		vp := p.win.Viewport()
		r := render.NewRenderer(int(vp.Width), int(vp.Height), p.cache, p.loader.Settings())
		r.Render(p.win.Boxes(), vp.ScrollLeft, vp.ScrollTop)
		img = r.Image()
	})
	return img, err
}

func (p *Page) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := p.win.Call(ctx, func() {
		s := p.loader.Settings()
		root := p.win.Document().Root
		st = Stats{
			Pending: p.loader.Pending(),
			Loaded:  len(root.ElementsByClass(s.LoadedClass)),
			Failed:  len(root.ElementsByClass(s.ErrorClass)),
		}
	})
	return st, err
}

// ContentSize returns the laid out document size.
func (p *Page) ContentSize(ctx context.Context) (width, height float64, err error) {
	err = p.win.Call(ctx, func() { width, height = p.win.ContentSize() })
	return width, height, err
}

// Close stops the page's event loop and waits for outstanding preloads.
func (p *Page) Close() error {
	err := p.win.Close()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = p.pre.Wait(ctx)
	return err
}
