// Package operatortest provides helpers for driving operator sessions in tests.
package operatortest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/reglet-dev/operator-host/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// DefaultTimeout bounds Collect when no explicit timeout is needed.
const DefaultTimeout = 10 * time.Second

// WriteModule writes a handler module named name into dir and returns its path.
func WriteModule(t *testing.T, dir, name string, src []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, src, 0o644))
	return path
}

// Inputs returns a closed upstream channel preloaded with events.
func Inputs(events ...entities.IncomingEvent) <-chan entities.IncomingEvent {
	ch := make(chan entities.IncomingEvent, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return ch
}

// Collect reads events until the first terminal event and returns all of
// them, terminal last. It fails the test if none arrives within timeout.
func Collect(t *testing.T, events <-chan entities.OutgoingEvent, timeout time.Duration) []entities.OutgoingEvent {
	t.Helper()

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	var got []entities.OutgoingEvent
	for {
		select {
		case ev := <-events:
			got = append(got, ev)
			if ev.IsTerminal() {
				return got
			}
		case <-deadline.C:
			require.FailNow(t, "no terminal event", "received %d events before timeout", len(got))
			return got
		}
	}
}

// Outputs returns the Output events of events, in order.
func Outputs(events []entities.OutgoingEvent) []entities.OutgoingEvent {
	var out []entities.OutgoingEvent
	for _, ev := range events {
		if ev.Type == entities.OutgoingOutput {
			out = append(out, ev)
		}
	}
	return out
}

// Terminal returns the last event and asserts it is the only terminal one.
func Terminal(t *testing.T, events []entities.OutgoingEvent) entities.OutgoingEvent {
	t.Helper()
	require.NotEmpty(t, events)

	for _, ev := range events[:len(events)-1] {
		assert.False(t, ev.IsTerminal(), "terminal event %s before the end of the stream", ev.Type)
	}
	last := events[len(events)-1]
	require.True(t, last.IsTerminal(), "stream does not end with a terminal event")
	return last
}

// AssertFinished asserts the stream ends with Finished for reason.
func AssertFinished(t *testing.T, events []entities.OutgoingEvent, reason entities.StopReason) {
	t.Helper()
	last := Terminal(t, events)
	require.Equal(t, entities.OutgoingFinished, last.Type, "terminal error: %v", last.Err)
	assert.Equal(t, reason, last.Reason)
}

// AssertError asserts the stream ends with Error and returns its cause.
func AssertError(t *testing.T, events []entities.OutgoingEvent) error {
	t.Helper()
	last := Terminal(t, events)
	require.Equal(t, entities.OutgoingError, last.Type)
	require.Error(t, last.Err)
	return last.Err
}

// AssertAborted asserts the stream ends with Aborted and returns its info.
func AssertAborted(t *testing.T, events []entities.OutgoingEvent) string {
	t.Helper()
	last := Terminal(t, events)
	require.Equal(t, entities.OutgoingAborted, last.Type)
	return last.Info
}
