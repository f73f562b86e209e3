// Package dispatch runs artifact generation requests for the current
// selection, one at a time, and turns their outcome into a notification.
package dispatch

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/tinytelemetry/flowdeck/internal/clock"
	"github.com/tinytelemetry/flowdeck/internal/model"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrBusy is returned when a generation is already running.
	ErrBusy = errors.New("dispatch: generation already in progress")
	// ErrEmptySelection is returned when there is nothing to generate from.
	ErrEmptySelection = errors.New("dispatch: no flows selected")
)

const (
	defaultSuccessText = "Generated successfully"
	defaultFailureText = "Failed to generate file"
)

// Saver stores a generated artifact locally and returns where it went.
type Saver interface {
	Save(ctx context.Context, file string) (string, error)
}

// Event describes a dispatcher state change.
type Event struct {
	Busy         bool
	Notification model.Notification
	// Saved is set once a scheduled download has been written.
	Saved       string
	DownloadErr error
}

type pendingDownload struct {
	file  string
	timer clock.Timer
}

// Dispatcher sends generate requests to the backend.
type Dispatcher struct {
	gen   model.ArtifactGenerator
	saver Saver
	clock clock.Clock
	delay time.Duration
	sem   *semaphore.Weighted

	mu       sync.Mutex
	busy     bool
	note     model.Notification
	pending  map[*pendingDownload]struct{}
	saving   int
	closed   bool
	onChange func(Event)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClock injects the clock used to delay downloads.
func WithClock(c clock.Clock) Option {
	return func(d *Dispatcher) {
		if c != nil {
			d.clock = c
		}
	}
}

// WithSaver sets where generated files are downloaded to. Without one,
// generated file names are only reported.
func WithSaver(s Saver) Option {
	return func(d *Dispatcher) {
		d.saver = s
	}
}

// WithDownloadDelay overrides the pause between a successful generation and
// its download.
func WithDownloadDelay(delay time.Duration) Option {
	return func(d *Dispatcher) {
		if delay >= 0 {
			d.delay = delay
		}
	}
}

// New creates a dispatcher backed by gen.
func New(gen model.ArtifactGenerator, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		gen:     gen,
		clock:   clock.Real(),
		delay:   model.DefaultDownloadDelay,
		sem:     semaphore.NewWeighted(1),
		pending: make(map[*pendingDownload]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// OnChange registers a listener called after every state change. It runs
// outside the dispatcher's lock.
func (d *Dispatcher) OnChange(fn func(Event)) {
	d.mu.Lock()
	d.onChange = fn
	d.mu.Unlock()
}

// Busy reports whether a generation is running.
func (d *Dispatcher) Busy() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.busy
}

// Notification returns the outcome of the last generation.
func (d *Dispatcher) Notification() model.Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.note
}

// Dismiss clears the current notification.
func (d *Dispatcher) Dismiss() {
	d.mu.Lock()
	if d.note.Empty() {
		d.mu.Unlock()
		return
	}
	d.note = model.Notification{}
	ev := d.eventLocked()
	d.mu.Unlock()
	d.emit(ev)
}

// Generate asks the backend to build kind from ids and blocks until it
// answers. Backend and transport failures are reported through the returned
// notification; the error is only set when no request was made.
func (d *Dispatcher) Generate(ctx context.Context, kind model.ArtifactKind, ids []model.FlowID) (model.Notification, error) {
	if len(ids) == 0 {
		return model.Notification{}, ErrEmptySelection
	}
	if !d.sem.TryAcquire(1) {
		return model.Notification{}, ErrBusy
	}
	defer d.sem.Release(1)

	d.begin()

	res, err := d.gen.Generate(ctx, kind, ids)
	note := outcome(res, err)
	if err != nil {
		log.Printf("dispatch: generate %s for %d flows failed: %v", kind, len(ids), err)
	} else if !res.Success {
		log.Printf("dispatch: backend refused %s generation: %s", kind, note.Text)
	}

	d.mu.Lock()
	d.busy = false
	d.note = note
	if err == nil && res.Success && res.File != "" {
		d.scheduleDownloadLocked(res.File)
	}
	ev := d.eventLocked()
	d.mu.Unlock()
	d.emit(ev)

	return note, nil
}

// PendingDownloads counts downloads that are scheduled or being written.
// A download's event is emitted before it stops being counted.
func (d *Dispatcher) PendingDownloads() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending) + d.saving
}

// Close cancels downloads that have not started yet.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for pd := range d.pending {
		pd.timer.Stop()
		delete(d.pending, pd)
	}
}

func outcome(res model.GenerateResult, err error) model.Notification {
	switch {
	case err != nil:
		text := err.Error()
		if text == "" {
			text = defaultFailureText
		}
		return model.Notification{Kind: model.NotifyError, Text: text}
	case res.Success:
		return model.Notification{Kind: model.NotifyOK, Text: orDefault(res.Message, defaultSuccessText)}
	default:
		return model.Notification{Kind: model.NotifyError, Text: orDefault(res.Message, defaultFailureText)}
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// begin marks a generation as running and clears the previous outcome.
func (d *Dispatcher) begin() {
	d.mu.Lock()
	d.busy = true
	d.note = model.Notification{}
	ev := d.eventLocked()
	d.mu.Unlock()
	d.emit(ev)
}

func (d *Dispatcher) scheduleDownloadLocked(file string) {
	if d.saver == nil || d.closed {
		return
	}
	pd := &pendingDownload{file: file}
	pd.timer = d.clock.AfterFunc(d.delay, func() { d.download(pd) })
	d.pending[pd] = struct{}{}
}

func (d *Dispatcher) download(pd *pendingDownload) {
	d.mu.Lock()
	if _, ok := d.pending[pd]; !ok {
		d.mu.Unlock()
		return
	}
	delete(d.pending, pd)
	d.saving++
	d.mu.Unlock()

	file := pd.file

	path, err := d.saver.Save(context.Background(), file)
	if err != nil {
		log.Printf("dispatch: download %s failed: %v", file, err)
	} else {
		log.Printf("dispatch: saved %s to %s", file, path)
	}

	d.mu.Lock()
	ev := d.eventLocked()
	d.mu.Unlock()
	ev.Saved = path
	ev.DownloadErr = err
	d.emit(ev)

	d.mu.Lock()
	d.saving--
	d.mu.Unlock()
}

func (d *Dispatcher) eventLocked() Event {
	return Event{Busy: d.busy, Notification: d.note}
}

func (d *Dispatcher) emit(ev Event) {
	d.mu.Lock()
	fn := d.onChange
	d.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}
