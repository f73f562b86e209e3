package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinytelemetry/flowdeck/internal/clock"
	"github.com/tinytelemetry/flowdeck/internal/model"
)

type fakeGenerator struct {
	mu     sync.Mutex
	calls  int
	kinds  []model.ArtifactKind
	ids    [][]model.FlowID
	result model.GenerateResult
	err    error
	// gate, when set, blocks Generate until closed.
	gate    chan struct{}
	started chan struct{}
}

func (g *fakeGenerator) Generate(ctx context.Context, kind model.ArtifactKind, ids []model.FlowID) (model.GenerateResult, error) {
	g.mu.Lock()
	g.calls++
	g.kinds = append(g.kinds, kind)
	g.ids = append(g.ids, ids)
	gate, started := g.gate, g.started
	g.mu.Unlock()

	if started != nil {
		close(started)
	}
	if gate != nil {
		<-gate
	}
	return g.result, g.err
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type fakeSaver struct {
	mu    sync.Mutex
	files []string
	err   error
}

func (s *fakeSaver) Save(_ context.Context, file string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = append(s.files, file)
	if s.err != nil {
		return "", s.err
	}
	return "/tmp/" + file, nil
}

func (s *fakeSaver) saved() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.files...)
}

func newFakeClock() *clock.Fake {
	return clock.NewFake(time.Unix(1_700_000_000, 0))
}

func TestGenerate_EmptySelectionIsNoop(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{}
	d := New(gen)
	fired := false
	d.OnChange(func(Event) { fired = true })

	note, err := d.Generate(context.Background(), model.ArtifactOpenAPI, nil)
	assert.ErrorIs(t, err, ErrEmptySelection)
	assert.True(t, note.Empty())
	assert.Zero(t, gen.callCount())
	assert.False(t, fired)
	assert.True(t, d.Notification().Empty())
	assert.False(t, d.Busy())
}

func TestGenerate_SuccessSchedulesDownload(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{result: model.GenerateResult{Success: true, Message: "OpenAPI spec generated", File: "openapi.yaml"}}
	saver := &fakeSaver{}
	clk := newFakeClock()
	d := New(gen, WithClock(clk), WithSaver(saver))

	var saved []string
	d.OnChange(func(ev Event) {
		if ev.Saved != "" {
			saved = append(saved, ev.Saved)
		}
	})

	ids := []model.FlowID{"1", "2"}
	note, err := d.Generate(context.Background(), model.ArtifactOpenAPI, ids)
	require.NoError(t, err)
	assert.Equal(t, model.Notification{Kind: model.NotifyOK, Text: "OpenAPI spec generated"}, note)
	assert.Equal(t, note, d.Notification())
	assert.Equal(t, [][]model.FlowID{ids}, gen.ids)
	assert.False(t, d.Busy())

	assert.Empty(t, saver.saved(), "download waits for the delay")
	clk.Advance(model.DefaultDownloadDelay - time.Millisecond)
	assert.Empty(t, saver.saved())
	clk.Advance(time.Millisecond)
	assert.Equal(t, []string{"openapi.yaml"}, saver.saved())
	assert.Equal(t, []string{"/tmp/openapi.yaml"}, saved)
}

func TestGenerate_SuccessDefaultText(t *testing.T) {
	t.Parallel()

	d := New(&fakeGenerator{result: model.GenerateResult{Success: true}}, WithClock(newFakeClock()))
	note, err := d.Generate(context.Background(), model.ArtifactPostman, []model.FlowID{"1"})
	require.NoError(t, err)
	assert.Equal(t, model.Notification{Kind: model.NotifyOK, Text: "Generated successfully"}, note)
}

func TestGenerate_BackendFailure(t *testing.T) {
	t.Parallel()

	saver := &fakeSaver{}
	clk := newFakeClock()
	gen := &fakeGenerator{result: model.GenerateResult{Success: false, Message: "no flows"}}
	d := New(gen, WithClock(clk), WithSaver(saver))

	note, err := d.Generate(context.Background(), model.ArtifactOpenAPI, []model.FlowID{"1"})
	require.NoError(t, err)
	assert.Equal(t, model.Notification{Kind: model.NotifyError, Text: "no flows"}, note)
	assert.Zero(t, clk.Pending(), "failures never download")

	gen.result = model.GenerateResult{}
	note, err = d.Generate(context.Background(), model.ArtifactOpenAPI, []model.FlowID{"1"})
	require.NoError(t, err)
	assert.Equal(t, "Failed to generate file", note.Text)
}

func TestGenerate_TransportError(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{err: errors.New("flowapi: generate: connection refused")}
	d := New(gen, WithClock(newFakeClock()))

	note, err := d.Generate(context.Background(), model.ArtifactPostman, []model.FlowID{"7"})
	require.NoError(t, err)
	assert.Equal(t, model.NotifyError, note.Kind)
	assert.Equal(t, "flowapi: generate: connection refused", note.Text)
	assert.False(t, d.Busy())
}

func TestGenerate_SingleFlight(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{
		result:  model.GenerateResult{Success: true},
		gate:    make(chan struct{}),
		started: make(chan struct{}),
	}
	d := New(gen, WithClock(newFakeClock()))

	done := make(chan error, 1)
	go func() {
		_, err := d.Generate(context.Background(), model.ArtifactOpenAPI, []model.FlowID{"1"})
		done <- err
	}()

	<-gen.started
	assert.True(t, d.Busy())

	_, err := d.Generate(context.Background(), model.ArtifactPostman, []model.FlowID{"2"})
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, 1, gen.callCount(), "busy call must not reach the backend")

	close(gen.gate)
	require.NoError(t, <-done)
	assert.False(t, d.Busy())

	gen.mu.Lock()
	gen.gate, gen.started = nil, nil
	gen.mu.Unlock()
	_, err = d.Generate(context.Background(), model.ArtifactPostman, []model.FlowID{"2"})
	assert.NoError(t, err)
	assert.Equal(t, 2, gen.callCount())
}

func TestDismiss(t *testing.T) {
	t.Parallel()

	d := New(&fakeGenerator{result: model.GenerateResult{Success: false, Message: "boom"}}, WithClock(newFakeClock()))
	_, err := d.Generate(context.Background(), model.ArtifactOpenAPI, []model.FlowID{"1"})
	require.NoError(t, err)

	events := 0
	d.OnChange(func(Event) { events++ })

	d.Dismiss()
	assert.True(t, d.Notification().Empty())
	assert.Equal(t, 1, events)

	d.Dismiss()
	assert.Equal(t, 1, events, "dismissing nothing is silent")
}

func TestNotificationPersistsUntilDismissed(t *testing.T) {
	t.Parallel()

	clk := newFakeClock()
	d := New(&fakeGenerator{result: model.GenerateResult{Success: true, Message: "ok"}}, WithClock(clk))
	_, err := d.Generate(context.Background(), model.ArtifactOpenAPI, []model.FlowID{"1"})
	require.NoError(t, err)

	clk.Advance(time.Hour)
	assert.Equal(t, "ok", d.Notification().Text)
}

func TestDownloadFailureKeepsNotification(t *testing.T) {
	t.Parallel()

	saver := &fakeSaver{err: errors.New("disk full")}
	clk := newFakeClock()
	d := New(&fakeGenerator{result: model.GenerateResult{Success: true, File: "c.json"}},
		WithClock(clk), WithSaver(saver), WithDownloadDelay(time.Second))

	var downloadErr error
	d.OnChange(func(ev Event) {
		if ev.DownloadErr != nil {
			downloadErr = ev.DownloadErr
		}
	})

	_, err := d.Generate(context.Background(), model.ArtifactPostman, []model.FlowID{"1"})
	require.NoError(t, err)
	clk.Advance(time.Second)

	assert.EqualError(t, downloadErr, "disk full")
	assert.Equal(t, model.NotifyOK, d.Notification().Kind)
}

func TestCloseCancelsPendingDownloads(t *testing.T) {
	t.Parallel()

	saver := &fakeSaver{}
	clk := newFakeClock()
	d := New(&fakeGenerator{result: model.GenerateResult{Success: true, File: "a.yaml"}},
		WithClock(clk), WithSaver(saver))

	_, err := d.Generate(context.Background(), model.ArtifactOpenAPI, []model.FlowID{"1"})
	require.NoError(t, err)
	require.Equal(t, 1, clk.Pending())

	d.Close()
	clk.Advance(time.Second)
	assert.Empty(t, saver.saved())

	_, err = d.Generate(context.Background(), model.ArtifactOpenAPI, []model.FlowID{"1"})
	require.NoError(t, err)
	assert.Zero(t, clk.Pending())
}

func TestPendingDownloads(t *testing.T) {
	t.Parallel()

	clk := newFakeClock()
	gen := &fakeGenerator{result: model.GenerateResult{Success: true, File: "a.yaml"}}
	d := New(gen, WithClock(clk), WithSaver(&fakeSaver{}))

	_, err := d.Generate(context.Background(), model.ArtifactOpenAPI, []model.FlowID{"1"})
	require.NoError(t, err)
	assert.Equal(t, 1, d.PendingDownloads())

	clk.Advance(model.DefaultDownloadDelay)
	assert.Zero(t, d.PendingDownloads())

	gen.result = model.GenerateResult{Success: true}
	_, err = d.Generate(context.Background(), model.ArtifactOpenAPI, []model.FlowID{"1"})
	require.NoError(t, err)
	assert.Zero(t, d.PendingDownloads(), "no file named, nothing to download")
}

func TestGenerate_ClearsPreviousNotificationWhileRunning(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{result: model.GenerateResult{Success: false, Message: "boom"}}
	d := New(gen, WithClock(newFakeClock()))

	_, err := d.Generate(context.Background(), model.ArtifactOpenAPI, []model.FlowID{"1"})
	require.NoError(t, err)
	require.Equal(t, model.NotifyError, d.Notification().Kind)

	var events []Event
	var mu sync.Mutex
	d.OnChange(func(ev Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})

	gen.mu.Lock()
	gen.result = model.GenerateResult{Success: true, Message: "done"}
	gen.gate, gen.started = make(chan struct{}), make(chan struct{})
	started, gate := gen.started, gen.gate
	gen.mu.Unlock()

	done := make(chan model.Notification, 1)
	go func() {
		note, _ := d.Generate(context.Background(), model.ArtifactOpenAPI, []model.FlowID{"1"})
		done <- note
	}()

	<-started
	assert.True(t, d.Notification().Empty(), "old banner must not linger during a new request")
	mu.Lock()
	require.NotEmpty(t, events)
	assert.True(t, events[0].Busy)
	assert.True(t, events[0].Notification.Empty())
	mu.Unlock()

	close(gate)
	note := <-done
	assert.Equal(t, model.Notification{Kind: model.NotifyOK, Text: "done"}, note)
	assert.Equal(t, note, d.Notification())
}
