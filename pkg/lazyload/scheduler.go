package lazyload

import (
	"time"

	"go.uber.org/zap"
)

// Scheduler turns window events and the trigger source into throttled
// checks. It starts listening once and never stops.
type Scheduler struct {
	env       Env
	settings  func() Settings
	source    TriggerSource
	throttle  *throttle
	pending   func() int
	check     func()
	listening bool
	log       *zap.Logger
}

func newScheduler(env Env, settings func() Settings, pending func() int, check func(), log *zap.Logger) *Scheduler {
	sc := &Scheduler{
		env:      env,
		settings: settings,
		pending:  pending,
		check:    check,
		log:      log,
	}
	sc.throttle = newThrottle(env.Timers, settings().ThrottleInterval, sc.run)
	return sc
}

// Start registers the listeners, choosing the trigger source from the
// settings in effect at that moment. It reports false if the listeners were
// already registered.
func (sc *Scheduler) Start() bool {
	if sc.listening {
		return false
	}
	sc.listening = true
	sc.source = newTriggerSource(sc.env, sc.settings())
	if sc.env.Events != nil {
		sc.env.Events.Listen(EventScroll, sc.Trigger)
		sc.env.Events.Listen(EventResize, sc.Trigger)
	}
	sc.source.Start(sc.Trigger)
	sc.log.Debug("listening for checks", zap.String("mode", sc.source.Mode()))
	return true
}

// Trigger requests a throttled check. Nothing happens while the queue is
// empty.
func (sc *Scheduler) Trigger() {
	if sc.pending() == 0 {
		return
	}
	sc.throttle.Trigger()
}

func (sc *Scheduler) run() {
	if sc.pending() == 0 {
		return
	}
	sc.check()
}

func (sc *Scheduler) Listening() bool { return sc.listening }

// Mode names the trigger source, or "idle" before Start.
func (sc *Scheduler) Mode() string {
	if sc.source == nil {
		return "idle"
	}
	return sc.source.Mode()
}

func (sc *Scheduler) setInterval(d time.Duration) {
	sc.throttle.SetInterval(d)
	if sc.source != nil {
		sc.source.SetInterval(d)
	}
}
