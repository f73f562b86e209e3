package poller

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/tinytelemetry/flowdeck/internal/clock"
	"github.com/tinytelemetry/flowdeck/internal/model"
)

// Sink receives successfully fetched snapshots.
type Sink interface {
	ReplaceAll(flows []model.Flow) bool
}

// Event describes a fetch state transition.
type Event struct {
	State   model.FetchState
	Updated bool // a snapshot was written to the sink
	Changed bool // the written snapshot differs from the previous one
}

// Coordinator owns the polling loop for the flow listing. At most one
// listing request is honored at a time: starting a fetch cancels the one
// before it, and a completion is applied only when its sequence number is
// the latest issued.
type Coordinator struct {
	lister model.FlowLister
	sink   Sink
	clock  clock.Clock

	mu       sync.Mutex
	interval time.Duration
	enabled  bool
	started  bool
	timer    clock.Timer
	timerGen uint64
	seq      uint64
	cancel   context.CancelFunc
	state    model.FetchState
	onChange func(Event)

	// afterComplete observes every completion in tests.
	afterComplete func(seq uint64, honored bool)
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock injects the clock used for scheduling.
func WithClock(c clock.Clock) Option {
	return func(co *Coordinator) {
		co.clock = c
	}
}

// WithEnabled sets the initial polling toggle.
func WithEnabled(enabled bool) Option {
	return func(co *Coordinator) {
		co.enabled = enabled
	}
}

// New creates a coordinator that pulls from lister into sink.
func New(lister model.FlowLister, sink Sink, opts ...Option) *Coordinator {
	c := &Coordinator{
		lister:   lister,
		sink:     sink,
		clock:    clock.Real(),
		interval: model.DefaultPollInterval,
		enabled:  true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnChange registers a listener for state transitions. It is called outside
// the coordinator's lock.
func (c *Coordinator) OnChange(fn func(Event)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// Start fires one refresh immediately, then repeats every interval while
// polling is enabled. Calling Start on a running coordinator only updates
// the interval.
func (c *Coordinator) Start(interval time.Duration) {
	c.mu.Lock()
	if interval > 0 {
		c.interval = interval
	}
	if c.started {
		c.rescheduleLocked()
		c.mu.Unlock()
		return
	}
	c.started = true
	ev := c.beginFetchLocked()
	c.scheduleLocked()
	c.mu.Unlock()

	c.emit(ev)
}

// Stop cancels the timer and aborts any in-flight request. Late completions
// are dropped, so nothing reaches the sink after Stop returns.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	c.started = false
	c.stopTimerLocked()
	c.seq++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	wasInFlight := c.state.InFlight
	c.state.InFlight = false
	ev := Event{State: c.state}
	c.mu.Unlock()

	if wasInFlight {
		c.emit(ev)
	}
}

// RefreshNow starts a fetch immediately, cancelling an outstanding one. It
// is a no-op once the coordinator has been stopped.
func (c *Coordinator) RefreshNow() {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	ev := c.beginFetchLocked()
	c.mu.Unlock()

	c.emit(ev)
}

// SetEnabled toggles periodic polling. Disabling stops future ticks;
// enabling on a started coordinator refreshes at once and resumes ticking.
func (c *Coordinator) SetEnabled(enabled bool) {
	c.mu.Lock()
	if c.enabled == enabled {
		c.mu.Unlock()
		return
	}
	c.enabled = enabled
	if !enabled || !c.started {
		c.stopTimerLocked()
		c.mu.Unlock()
		return
	}
	ev := c.beginFetchLocked()
	c.scheduleLocked()
	c.mu.Unlock()

	c.emit(ev)
}

// Enabled reports the polling toggle.
func (c *Coordinator) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// SetInterval changes the polling cadence from the next tick on.
func (c *Coordinator) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interval = d
	c.rescheduleLocked()
}

// Interval returns the polling cadence.
func (c *Coordinator) Interval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interval
}

// State returns a copy of the fetch state.
func (c *Coordinator) State() model.FetchState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Coordinator) tick(gen uint64) {
	c.mu.Lock()
	if gen != c.timerGen {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	if !c.started || !c.enabled {
		c.mu.Unlock()
		return
	}
	ev := c.beginFetchLocked()
	c.scheduleLocked()
	c.mu.Unlock()

	c.emit(ev)
}

func (c *Coordinator) scheduleLocked() {
	if !c.started || !c.enabled || c.timer != nil {
		return
	}
	c.timerGen++
	gen := c.timerGen
	c.timer = c.clock.AfterFunc(c.interval, func() { c.tick(gen) })
}

func (c *Coordinator) rescheduleLocked() {
	if c.timer == nil {
		return
	}
	c.stopTimerLocked()
	c.scheduleLocked()
}

func (c *Coordinator) stopTimerLocked() {
	c.timerGen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// beginFetchLocked supersedes any outstanding fetch and launches a new one.
func (c *Coordinator) beginFetchLocked() Event {
	if c.cancel != nil {
		c.cancel()
	}
	c.seq++
	seq := c.seq
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.state.InFlight = true
	c.state.LastError = nil

	go c.fetch(ctx, seq)
	return Event{State: c.state}
}

func (c *Coordinator) fetch(ctx context.Context, seq uint64) {
	flows, err := c.lister.ListFlows(ctx)
	c.complete(seq, flows, err)
}

func (c *Coordinator) complete(seq uint64, flows []model.Flow, err error) {
	c.mu.Lock()
	hook := c.afterComplete
	if seq != c.seq {
		c.mu.Unlock()
		if hook != nil {
			hook(seq, false)
		}
		return
	}

	c.cancel()
	c.cancel = nil
	c.state.InFlight = false

	ev := Event{}
	switch {
	case err == nil:
		ev.Changed = c.sink.ReplaceAll(flows)
		ev.Updated = true
		c.state.LastSuccess = c.clock.Now()
	case errors.Is(err, context.Canceled):
		// Superseded requests are dropped above; this only happens when the
		// lister reports a cancellation of its own.
	default:
		c.state.LastError = err
		log.Printf("poller: list flows failed: %v", err)
	}
	ev.State = c.state
	c.mu.Unlock()

	c.emit(ev)
	if hook != nil {
		hook(seq, true)
	}
}

// emit delivers ev to the listener. Events from concurrent fetches may be
// delivered out of order; listeners should read State for the latest view.
func (c *Coordinator) emit(ev Event) {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}
