package main

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"lazyimg/pkg/resource"
)

const (
	viewWidth  = 1024
	viewHeight = 700
)

type viewer struct {
	log *zap.Logger

	canvasImg *canvas.Image
	status    *widget.Label
	scroll    *widget.Slider
	win       fyne.Window

	mu   sync.Mutex
	page *resource.Page
}

func main() {
	log, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	a := app.New()
	w := a.NewWindow("lazyview")
	w.Resize(fyne.NewSize(viewWidth+40, viewHeight+80))

	v := &viewer{log: log, win: w}
	v.canvasImg = canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, viewWidth, viewHeight)))
	v.canvasImg.FillMode = canvas.ImageFillOriginal
	v.status = widget.NewLabel("Enter a URL and press Enter")

	// vertical sliders grow upwards; the top of the page is Max
	v.scroll = widget.NewSlider(0, 1)
	v.scroll.Orientation = widget.Vertical
	v.scroll.Value = 1
	v.scroll.OnChanged = func(value float64) {
		y := v.scroll.Max - value
		go v.scrollTo(y)
	}

	urlEntry := widget.NewEntry()
	urlEntry.SetPlaceHolder("https://example.com")
	urlEntry.OnSubmitted = func(uri string) {
		v.status.SetText("Loading " + uri + "...")
		go v.open(uri)
	}

	topBar := container.NewBorder(nil, nil, nil, nil, urlEntry)
	content := container.NewBorder(topBar, v.status, nil, v.scroll, v.canvasImg)
	w.SetContent(content)

	// Keep focus on URL entry to prevent Tab freeze with no other focusable widgets
	w.Canvas().Focus(urlEntry)

	w.ShowAndRun()
	v.closePage()
}

func (v *viewer) open(uri string) {
	v.closePage()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := resource.DefaultConfig()
	cfg.Window.Width, cfg.Window.Height = viewWidth, viewHeight
	cfg.Logger = v.log
	page, err := resource.Open(ctx, uri, cfg)
	if err != nil {
		fyne.Do(func() { v.status.SetText("Error: " + err.Error()) })
		return
	}
	v.mu.Lock()
	v.page = page
	v.mu.Unlock()

	_, h, err := page.ContentSize(ctx)
	if err != nil {
		v.log.Warn("content size", zap.Error(err))
	}
	maxY := max(h-viewHeight, 1)
	fyne.Do(func() {
		v.scroll.Max = maxY
		v.scroll.SetValue(maxY)
		v.win.SetTitle(fmt.Sprintf("lazyview - %s", uri))
	})
	v.refresh(page)
}

func (v *viewer) scrollTo(y float64) {
	v.mu.Lock()
	page := v.page
	v.mu.Unlock()
	if page == nil {
		return
	}
	if err := page.ScrollTo(context.Background(), 0, y); err != nil {
		v.log.Warn("scroll", zap.Error(err))
		return
	}
	v.refresh(page)
}

// refresh paints once right away and again when loading has settled.
func (v *viewer) refresh(page *resource.Page) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	v.paint(ctx, page)
	if err := page.Settle(ctx); err != nil {
		v.log.Warn("settle", zap.Error(err))
	}
	v.paint(ctx, page)
}

func (v *viewer) paint(ctx context.Context, page *resource.Page) {
	img, err := page.Snapshot(ctx)
	if err != nil {
		return
	}
	st, err := page.Stats(ctx)
	if err != nil {
		return
	}
	text := fmt.Sprintf("%d loaded, %d pending, %d failed", st.Loaded, st.Pending, st.Failed)
	fyne.Do(func() {
		v.canvasImg.Image = img
		v.canvasImg.Refresh()
		v.status.SetText(text)
	})
}

func (v *viewer) closePage() {
	v.mu.Lock()
	page := v.page
	v.page = nil
	v.mu.Unlock()
	if page != nil {
		_ = page.Close()
	}
}
