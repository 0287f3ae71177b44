package images

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestPreloader_Success(t *testing.T) {
	p := NewPreloader(NewCache(nil), nil, zaptest.NewLogger(t))
	uri := redPNGDataURI()

	got := make(chan error, 1)
	p.Preload(uri, func(err error) { got <- err })

	select {
	case err := <-got:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("preload never completed")
	}
	require.NoError(t, p.Wait(context.Background()))
	assert.Zero(t, p.Inflight())
	assert.True(t, p.cache.Cached(uri))
}

func TestPreloader_Failure(t *testing.T) {
	fetchErr := errors.New("404")
	cache := NewCache(func(string) ([]byte, error) { return nil, fetchErr })
	p := NewPreloader(cache, nil, nil)

	got := make(chan error, 1)
	p.Preload("http://example.com/missing.png", func(err error) { got <- err })
	assert.ErrorIs(t, <-got, fetchErr)
}

func TestPreloader_CompletionsGoThroughDispatcher(t *testing.T) {
	var (
		mu     sync.Mutex
		queued []func()
	)
	dispatch := func(fn func()) error {
		mu.Lock()
		defer mu.Unlock()
		queued = append(queued, fn)
		return nil
	}
	p := NewPreloader(NewCache(nil), dispatch, nil)

	var done atomic.Int32
	uri := redPNGDataURI()
	for range 3 {
		p.Preload(uri, func(error) { done.Add(1) })
	}
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(queued) == 3
	}, 2*time.Second, time.Millisecond)
	assert.Zero(t, done.Load(), "callbacks wait for the dispatcher")
	assert.Equal(t, 3, p.Inflight())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Wait(ctx), context.DeadlineExceeded)

	mu.Lock()
	for _, fn := range queued {
		fn()
	}
	mu.Unlock()
	assert.Equal(t, int32(3), done.Load())
	require.NoError(t, p.Wait(context.Background()))
}

func TestPreloader_DispatchFailureReleasesInflight(t *testing.T) {
	p := NewPreloader(NewCache(nil), func(func()) error { return errors.New("closed") }, zaptest.NewLogger(t))
	called := false
	p.Preload(redPNGDataURI(), func(error) { called = true })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Wait(ctx))
	assert.False(t, called)
}
