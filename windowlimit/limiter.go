/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package windowlimit

import (
	"context"
	"time"

	"go.uber.org/atomic"

	"github.com/acronis/go-docgate/log"
)

// Option represents an optional parameter for the Limiter.
type Option func(*options)

type options struct {
	logger  log.FieldLogger
	metrics MetricsCollector
	clock   func() time.Time
}

// WithLogger sets the logger. Window resets are logged at "debug" level,
// panics recovered in the scheduler at "error" level.
func WithLogger(logger log.FieldLogger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetricsCollector sets the collector of limiter metrics.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metrics = mc
	}
}

// WithClock sets the function used for timestamping windows. time.Now is used by default.
// It does not affect the schedule of window resets.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// Snapshot represents the limiter state at some moment.
type Snapshot struct {
	Limit       int
	Window      time.Duration
	Available   int
	Waiting     int
	WindowStart time.Time
}

// Limiter is a fixed-window blocking admission limiter.
// Each Limiter owns its own scheduler, so any number of independent limiters may coexist.
type Limiter struct {
	cfg       Config
	gate      *gate
	scheduler *scheduler
	logger    log.FieldLogger
	metrics   MetricsCollector
	waiting   atomic.Int32
}

// New validates the config, creates a Limiter and starts its scheduler.
// The first window begins before New returns, so the first Limit calls are admitted immediately.
// Nothing is started if the config is invalid.
func New(cfg Config, opts ...Option) (*Limiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.NewDisabledLogger()
	}
	if o.metrics == nil {
		o.metrics = disabledMetricsCollector
	}

	l := &Limiter{
		cfg:     cfg,
		gate:    newGate(cfg.Limit, o.clock),
		logger:  o.logger,
		metrics: o.metrics,
	}
	l.scheduler = newScheduler(cfg.Window, l.resetWindow, l.logger)
	l.scheduler.start()
	return l, nil
}

// Config returns the config the limiter was created with.
func (l *Limiter) Config() Config {
	return l.cfg
}

// Acquire blocks until a permit is granted. There is no upper bound on the wait.
func (l *Limiter) Acquire() {
	_ = l.AcquireContext(context.Background())
}

// AcquireContext blocks until a permit is granted or ctx is done.
// In the latter case *InterruptedWaitError is returned and no permit is consumed,
// even if one is available and ctx was done before the call.
func (l *Limiter) AcquireContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		l.metrics.IncInterrupted()
		return &InterruptedWaitError{Err: err}
	}
	if acquired, _ := l.gate.tryAcquire(); acquired {
		l.metrics.IncAdmitted()
		return nil
	}

	startTime := time.Now()
	l.metrics.SetWaiting(int(l.waiting.Inc()))
	defer func() {
		l.metrics.SetWaiting(int(l.waiting.Dec()))
	}()

	if err := l.gate.acquire(ctx); err != nil {
		waited := time.Since(startTime)
		l.metrics.IncInterrupted()
		l.logger.Debug("wait for admission interrupted", log.Error(err), log.Duration("waited", waited))
		return &InterruptedWaitError{Err: err, Waited: waited}
	}
	l.metrics.ObserveWaitDuration(time.Since(startTime))
	l.metrics.IncAdmitted()
	return nil
}

// TryAcquire grants a permit only if one is available right now.
func (l *Limiter) TryAcquire() bool {
	acquired, _ := l.gate.tryAcquire()
	if acquired {
		l.metrics.IncAdmitted()
	}
	return acquired
}

// Available returns the number of permits left in the current window.
func (l *Limiter) Available() int {
	available, _ := l.gate.snapshot()
	return available
}

// WindowStart returns the time when the current window began.
func (l *Limiter) WindowStart() time.Time {
	_, windowStart := l.gate.snapshot()
	return windowStart
}

// Snapshot returns the current limiter state.
func (l *Limiter) Snapshot() Snapshot {
	available, windowStart := l.gate.snapshot()
	return Snapshot{
		Limit:       l.cfg.Limit,
		Window:      l.cfg.Window,
		Available:   available,
		Waiting:     int(l.waiting.Load()),
		WindowStart: windowStart,
	}
}

// Shutdown stops the scheduler: no window resets happen after it returns.
// It may be called any number of times from any goroutine.
//
// Callers already blocked in Acquire are not woken up and stay blocked forever.
// Use AcquireContext when the wait must be abandoned on shutdown.
func (l *Limiter) Shutdown() {
	l.scheduler.stop()
}

func (l *Limiter) resetWindow() {
	dropped := l.gate.reset()
	l.metrics.IncResets(dropped)
	l.logger.AtLevel(log.LevelDebug, func(logFunc log.LogFunc) {
		logFunc("window reset", log.Int("limit", l.cfg.Limit), log.Int("dropped_permits", dropped),
			log.Int("waiting", int(l.waiting.Load())))
	})
}
