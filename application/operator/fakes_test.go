package operator

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/reglet-dev/operator-host/domain/entities"
	"github.com/reglet-dev/operator-host/domain/ports"
)

type dispatchFunc func(ctx context.Context, ev entities.IncomingEvent, out ports.OutputSink) (int64, error)

type fakeRuntime struct {
	mu       sync.Mutex
	instance *fakeInstance
	loadErr  error
	requests []ports.LoadRequest
}

func newFakeRuntime(dispatch dispatchFunc) *fakeRuntime {
	return &fakeRuntime{instance: &fakeInstance{dispatch: dispatch}}
}

func (r *fakeRuntime) Kind() entities.RuntimeKind { return entities.RuntimeScript }

func (r *fakeRuntime) Load(_ context.Context, req ports.LoadRequest) (ports.HandlerInstance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	return r.instance, nil
}

func (r *fakeRuntime) loads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

type fakeInstance struct {
	mu       sync.Mutex
	dispatch dispatchFunc
	events   []entities.IncomingEvent
	closed   int
	closeErr error
}

func (f *fakeInstance) Dispatch(ctx context.Context, ev entities.IncomingEvent, out ports.OutputSink) (int64, error) {
	f.mu.Lock()
	f.events = append(f.events, ev)
	f.mu.Unlock()
	if f.dispatch == nil {
		return 0, nil
	}
	return f.dispatch(ctx, ev, out)
}

func (f *fakeInstance) Close(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return f.closeErr
}

func (f *fakeInstance) dispatched() []entities.IncomingEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entities.IncomingEvent(nil), f.events...)
}

func (f *fakeInstance) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// fakeFetcher writes body to the destination instead of downloading.
type fakeFetcher struct {
	body []byte
	err  error
	urls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url, destination string) error {
	f.urls = append(f.urls, url)
	if f.err != nil {
		return f.err
	}
	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return err
	}
	return os.WriteFile(destination, f.body, 0o644)
}

// fakeTracer derives "child(<parent>)" contexts and records ended spans.
type fakeTracer struct {
	mu    sync.Mutex
	ended []string
}

type traceKey struct{}

func (t *fakeTracer) Deserialize(ctx context.Context, serialized string) context.Context {
	return context.WithValue(ctx, traceKey{}, serialized)
}

func (t *fakeTracer) StartSpan(ctx context.Context, name string) (context.Context, func()) {
	parent, _ := ctx.Value(traceKey{}).(string)
	child := "child(" + parent + ")"
	return context.WithValue(ctx, traceKey{}, child), func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.ended = append(t.ended, name)
	}
}

func (t *fakeTracer) Serialize(ctx context.Context) string {
	s, _ := ctx.Value(traceKey{}).(string)
	return s
}

func (t *fakeTracer) endedSpans() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.ended...)
}
