package events

import (
	"context"
	"sync"
	"sync/atomic"
)

// ChanEmitter is the default Emitter backed by a buffered channel.
//
// Thread-safe. When the buffer is full the event is dropped: progress events
// are advisory and the conversation loop must never stall on a slow reader.
type ChanEmitter struct {
	mu      sync.RWMutex
	ch      chan Event
	closed  bool
	dropped atomic.Int64
}

// NewChanEmitter creates a ChanEmitter with the given buffer size.
func NewChanEmitter(buffer int) *ChanEmitter {
	return &ChanEmitter{
		ch: make(chan Event, buffer),
	}
}

// Emit sends the event unless the emitter is closed, ctx is done or the
// buffer is full.
func (e *ChanEmitter) Emit(ctx context.Context, event Event) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed || ctx.Err() != nil {
		return
	}

	select {
	case e.ch <- event:
	default:
		e.dropped.Add(1)
	}
}

// Dropped returns how many events were discarded because the buffer was full.
func (e *ChanEmitter) Dropped() int {
	return int(e.dropped.Load())
}

// Subscribe returns a Subscriber reading from the shared channel.
func (e *ChanEmitter) Subscribe() Subscriber {
	return &chanSubscriber{ch: e.ch}
}

// Close closes the channel. Emit becomes a no-op afterwards.
func (e *ChanEmitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	close(e.ch)
}

// chanSubscriber implements Subscriber.
type chanSubscriber struct {
	ch <-chan Event
}

// Events returns the read-only event channel.
func (s *chanSubscriber) Events() <-chan Event {
	return s.ch
}

// Close is a no-op; the shared channel is closed by ChanEmitter.Close.
func (s *chanSubscriber) Close() {}

var _ Emitter = (*ChanEmitter)(nil)
var _ Emitter = NopEmitter{}
var _ Subscriber = (*chanSubscriber)(nil)
