// Package stream fans newly ingested events out to live subscribers.
package stream

import (
	"sync"
	"sync/atomic"
)

// DefaultBufferSize fits the hazardous approaches of one full feed poll.
const DefaultBufferSize = 100

type Broadcaster[T any] struct {
	subscribers map[uint64]chan T
	nextID      atomic.Uint64
	bufferSize  int
	closed      bool
	mu          sync.RWMutex
}

func NewBroadcaster[T any](bufferSize int) *Broadcaster[T] {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Broadcaster[T]{
		subscribers: make(map[uint64]chan T),
		bufferSize:  bufferSize,
	}
}

// Subscribe registers a new subscriber. After Close the returned channel is
// already closed.
func (b *Broadcaster[T]) Subscribe() (uint64, <-chan T) {
	id := b.nextID.Add(1)
	ch := make(chan T, b.bufferSize)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return id, ch
	}
	b.subscribers[id] = ch

	return id, ch
}

func (b *Broadcaster[T]) Unsubscribe(id uint64) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

func (b *Broadcaster[T]) Broadcast(v T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- v:
		default:
			// Skip slow subscribers
		}
	}
}

func (b *Broadcaster[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes all subscriber channels, causing streams to exit gracefully
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}
