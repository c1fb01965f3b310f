package operator

import (
	"context"
	"errors"
	"sync"

	"github.com/reglet-dev/operator-host/domain/entities"
)

var (
	// ErrOutboxClosed is returned after the receiving side closed the outbox.
	ErrOutboxClosed = errors.New("outbox closed")
	// ErrOutboxFull is returned by TrySend when the buffer has no free slot.
	ErrOutboxFull = errors.New("outbox full")
)

// Outbox is the channel a session uses to report outputs and its terminal
// event. The receiver signals that it lost interest by calling Close; the
// event channel itself is never closed.
type Outbox struct {
	events chan entities.OutgoingEvent
	done   chan struct{}
	once   sync.Once
}

// NewOutbox creates an Outbox with the given buffer capacity.
func NewOutbox(capacity int) *Outbox {
	if capacity < 0 {
		capacity = 0
	}
	return &Outbox{
		events: make(chan entities.OutgoingEvent, capacity),
		done:   make(chan struct{}),
	}
}

// Events returns the receiving side of the outbox.
func (o *Outbox) Events() <-chan entities.OutgoingEvent {
	return o.events
}

// Done is closed once the receiver closed the outbox.
func (o *Outbox) Done() <-chan struct{} {
	return o.done
}

// Close marks the receiving side as gone. It is safe to call more than once.
func (o *Outbox) Close() {
	o.once.Do(func() { close(o.done) })
}

// Send blocks until ev is accepted, the outbox is closed or ctx is done.
func (o *Outbox) Send(ctx context.Context, ev entities.OutgoingEvent) error {
	select {
	case <-o.done:
		return ErrOutboxClosed
	default:
	}

	select {
	case o.events <- ev:
		return nil
	case <-o.done:
		return ErrOutboxClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySend enqueues ev only if that is possible without waiting.
func (o *Outbox) TrySend(ev entities.OutgoingEvent) error {
	select {
	case <-o.done:
		return ErrOutboxClosed
	default:
	}

	select {
	case o.events <- ev:
		return nil
	default:
		return ErrOutboxFull
	}
}

// Finish hands over the terminal event without blocking the caller. If the
// buffer is full, delivery continues in the background until the receiver
// reads the event or closes the outbox; events sent earlier stay ahead of it.
func (o *Outbox) Finish(ev entities.OutgoingEvent) error {
	err := o.TrySend(ev)
	if !errors.Is(err, ErrOutboxFull) {
		return err
	}

	go func() {
		select {
		case o.events <- ev:
		case <-o.done:
		}
	}()
	return nil
}
