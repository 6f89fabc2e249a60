// Bounded fan-out of simulation events to stream subscribers
package broadcast

import (
	"sync"

	"github.com/google/uuid"
)

// DefaultBuffer is the channel capacity handed to new subscribers.
const DefaultBuffer = 64

// Broadcaster fans values out to subscriber channels. Publish never blocks:
// a subscriber whose buffer is full silently misses the value. All methods
// are safe for concurrent use, and removing a subscriber while a publish is
// in flight is tolerated.
type Broadcaster[T any] struct {
	mu     sync.Mutex
	subs   map[string]chan T
	buffer int
}

// New creates a broadcaster whose subscriber channels hold up to buffer
// values. A non-positive buffer falls back to DefaultBuffer.
func New[T any](buffer int) *Broadcaster[T] {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Broadcaster[T]{
		subs:   make(map[string]chan T),
		buffer: buffer,
	}
}

// Subscribe registers a new subscriber and returns its ID together with the
// receive channel. The caller must Unsubscribe with the same ID when done.
func (b *Broadcaster[T]) Subscribe() (string, <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := uuid.New().String()
	ch := make(chan T, b.buffer)
	b.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel. Unknown IDs are
// ignored so a disconnect can race a concurrent removal.
func (b *Broadcaster[T]) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.subs[id]
	if !ok {
		return
	}
	delete(b.subs, id)
	close(ch)
}

// Publish delivers v to every subscriber whose buffer has room.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- v:
		default:
			// Full buffer: drop rather than stall the tick.
		}
	}
}

// Len returns the number of active subscribers.
func (b *Broadcaster[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
