package images

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Preloader loads images off the caller's thread, like a detached <img>
// element, and reports completion through a dispatcher so the callback runs
// on the owner's event loop.
type Preloader struct {
	cache    *ImageCache
	dispatch func(func()) error
	log      *zap.Logger

	mu       sync.Mutex
	inflight int
	idle     []chan struct{}
}

// NewPreloader returns a preloader backed by cache. dispatch schedules a
// completion callback; nil runs callbacks on the loading goroutine.
func NewPreloader(cache *ImageCache, dispatch func(func()) error, log *zap.Logger) *Preloader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Preloader{cache: cache, dispatch: dispatch, log: log}
}

// Preload starts loading src and calls done with the outcome. A preload
// cannot be cancelled once started.
func (p *Preloader) Preload(src string, done func(error)) {
	p.mu.Lock()
	p.inflight++
	p.mu.Unlock()

	go func() {
		_, err := p.cache.Load(src)
		if err != nil {
			p.log.Debug("preload failed", zap.String("src", src), zap.Error(err))
		}
		complete := func() {
			defer p.finish()
			if done != nil {
				done(err)
			}
		}
		if p.dispatch == nil {
			complete()
			return
		}
		if derr := p.dispatch(complete); derr != nil {
			p.log.Warn("dropping preload completion", zap.String("src", src), zap.Error(derr))
			p.finish()
		}
	}()
}

func (p *Preloader) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inflight--
	if p.inflight > 0 {
		return
	}
	for _, ch := range p.idle {
		close(ch)
	}
	p.idle = nil
}

// Inflight returns the number of preloads whose completion has not run yet.
func (p *Preloader) Inflight() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inflight
}

// Wait blocks until no preload is in flight or ctx is done.
func (p *Preloader) Wait(ctx context.Context) error {
	p.mu.Lock()
	if p.inflight == 0 {
		p.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	p.idle = append(p.idle, ch)
	p.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
