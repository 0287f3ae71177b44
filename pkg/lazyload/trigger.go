package lazyload

import (
	"time"

	"lazyimg/pkg/html"
)

// TriggerSource produces re-check signals besides scroll and resize.
type TriggerSource interface {
	Start(fire func())
	// SetInterval follows a throttle interval change.
	SetInterval(d time.Duration)
	Mode() string
}

// mutationSource fires whenever the observed subtree changes.
type mutationSource struct {
	observable MutationObservable
	root       *html.Node
}

func (s *mutationSource) Start(fire func()) {
	s.observable.ObserveMutations(s.root, fire)
}

func (s *mutationSource) SetInterval(time.Duration) {}

func (s *mutationSource) Mode() string { return "mutation" }

// pollingSource fires on the throttle interval.
type pollingSource struct {
	timers   Timers
	interval time.Duration
	fire     func()
	stop     func()
}

func (s *pollingSource) Start(fire func()) {
	s.fire = fire
	s.stop = s.timers.Every(s.interval, fire)
}

// SetInterval restarts a running poll with the new interval.
func (s *pollingSource) SetInterval(d time.Duration) {
	d = pollInterval(d)
	if d == s.interval {
		return
	}
	s.interval = d
	if s.stop == nil {
		return
	}
	s.stop()
	s.stop = s.timers.Every(d, s.fire)
}

func pollInterval(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultThrottleInterval
	}
	return d
}

func (s *pollingSource) Mode() string { return "polling" }

// newTriggerSource picks mutation observation when the environment supports
// it and falls back to polling at the throttle interval.
func newTriggerSource(env Env, s Settings) TriggerSource {
	if env.Mutations != nil {
		return &mutationSource{observable: env.Mutations, root: s.Context}
	}
	return &pollingSource{timers: env.Timers, interval: pollInterval(s.ThrottleInterval)}
}
