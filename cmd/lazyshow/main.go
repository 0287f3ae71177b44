package main

import (
	"context"
	"flag"
	"fmt"
	"image/png"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"lazyimg/pkg/lazyload"
	"lazyimg/pkg/render"
	"lazyimg/pkg/resource"
)

func main() {
	width := flag.Int("w", 800, "viewport width in pixels")
	height := flag.Int("h", 600, "viewport height in pixels")
	scrollY := flag.Float64("y", 0, "scroll offset to settle at before the snapshot")
	output := flag.String("o", "output.png", "output PNG file path")
	reference := flag.String("compare", "", "reference PNG to compare the snapshot against")
	tolerance := flag.Int("tolerance", 2, "per channel tolerance for -compare")
	offset := flag.Float64("offset", lazyload.DefaultOffset, "lazy load distance below the viewport in pixels")
	polling := flag.Bool("polling", false, "disable mutation observation and frame sync")
	noScripts := flag.Bool("noscript", false, "do not run page scripts")
	timeout := flag.Duration("timeout", 30*time.Second, "overall time limit")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: lazyshow [flags] <url|file>\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if *verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	log, err := zcfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	opts := options{
		uri:       flag.Arg(0),
		width:     *width,
		height:    *height,
		scrollY:   *scrollY,
		offset:    *offset,
		polling:   *polling,
		scripts:   !*noScripts,
		timeout:   *timeout,
		output:    *output,
		reference: *reference,
		tolerance: *tolerance,
	}
	if err := run(log, opts); err != nil {
		log.Error("lazyshow failed", zap.Error(err))
		os.Exit(1)
	}
}

type options struct {
	uri           string
	width, height int
	scrollY       float64
	offset        float64
	polling       bool
	scripts       bool
	timeout       time.Duration
	output        string
	reference     string
	tolerance     int
}

func run(log *zap.Logger, o options) error {
	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()

	cfg := resource.DefaultConfig()
	cfg.Window.Width, cfg.Window.Height = float64(o.width), float64(o.height)
	if o.polling {
		cfg.Window.MutationObserver = false
		cfg.Window.FrameSync = false
	}
	cfg.Options.Offset = lazyload.Ptr(o.offset)
	cfg.Scripts = o.scripts
	cfg.Logger = log

	log.Info("opening", zap.String("uri", o.uri))
	page, err := resource.Open(ctx, o.uri, cfg)
	if err != nil {
		return err
	}
	defer page.Close()

	if err := page.Settle(ctx); err != nil {
		return fmt.Errorf("settling: %w", err)
	}
	if o.scrollY > 0 {
		if err := page.ScrollTo(ctx, 0, o.scrollY); err != nil {
			return err
		}
		if err := page.Settle(ctx); err != nil {
			return fmt.Errorf("settling after scroll: %w", err)
		}
	}

	img, err := page.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	f, err := os.Create(o.output)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encoding PNG: %w", err)
	}

	st, err := page.Stats(ctx)
	if err != nil {
		return err
	}
	log.Info("saved",
		zap.String("file", o.output),
		zap.Int("loaded", st.Loaded),
		zap.Int("pending", st.Pending),
		zap.Int("failed", st.Failed))

	if o.reference == "" {
		return nil
	}
	diff, err := render.CompareFile(img, o.reference, o.tolerance)
	if err != nil {
		return fmt.Errorf("comparing: %w", err)
	}
	if !diff.Match() {
		return fmt.Errorf("%d of %d pixels differ from %s (max difference %d)",
			diff.DifferentPixels, diff.TotalPixels, o.reference, diff.MaxDifference)
	}
	log.Info("matches reference", zap.String("file", o.reference))
	return nil
}
