package lazyload

import (
	"time"

	"golang.org/x/time/rate"
)

// throttle runs fn at most once per interval. A trigger inside a free slot
// runs fn at once; a trigger inside a busy interval schedules a single
// trailing run at the start of the next slot, and further triggers coalesce
// into it.
type throttle struct {
	timers  Timers
	limiter *rate.Limiter
	fn      func()
	pending bool
}

func newThrottle(timers Timers, interval time.Duration, fn func()) *throttle {
	return &throttle{
		timers:  timers,
		limiter: rate.NewLimiter(limitFor(interval), 1),
		fn:      fn,
	}
}

func limitFor(interval time.Duration) rate.Limit {
	if interval <= 0 {
		return rate.Inf
	}
	return rate.Every(interval)
}

func (t *throttle) Trigger() {
	if t.pending {
		return
	}
	now := t.timers.Now()
	delay := t.limiter.ReserveN(now, 1).DelayFrom(now)
	if delay <= 0 {
		t.fn()
		return
	}
	t.pending = true
	t.timers.AfterFunc(delay, func() {
		t.pending = false
		t.fn()
	})
}

func (t *throttle) SetInterval(interval time.Duration) {
	t.limiter.SetLimitAt(t.timers.Now(), limitFor(interval))
}
