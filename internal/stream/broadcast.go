// Package stream fans one event stream out to independent consumers.
package stream

import "sync"

// Broadcaster delivers every published value to every subscriber. Each
// subscriber drains its own unbounded FIFO on a dedicated goroutine, so
// a slow consumer never blocks the producer or a sibling consumer.
//
// All subscriptions must be taken before Run or Publish is first called.
type Broadcaster[T any] struct {
	subs []*subscription[T]
}

type subscription[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []T
	closed bool
	out    chan T
}

func New[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{}
}

// Subscribe registers a new consumer and returns its receive channel.
// The channel closes once the producer is done and the queue is drained.
func (b *Broadcaster[T]) Subscribe() <-chan T {
	s := &subscription[T]{out: make(chan T)}
	s.cond = sync.NewCond(&s.mu)
	b.subs = append(b.subs, s)
	go s.pump()
	return s.out
}

// Publish enqueues v for every subscriber without blocking.
func (b *Broadcaster[T]) Publish(v T) {
	for _, s := range b.subs {
		s.mu.Lock()
		s.queue = append(s.queue, v)
		s.cond.Signal()
		s.mu.Unlock()
	}
}

// Close marks the stream finished. Subscribers still receive everything
// already queued.
func (b *Broadcaster[T]) Close() {
	for _, s := range b.subs {
		s.mu.Lock()
		s.closed = true
		s.cond.Signal()
		s.mu.Unlock()
	}
}

// Run drains in into all subscriptions and closes them when in closes.
func (b *Broadcaster[T]) Run(in <-chan T) {
	for v := range in {
		b.Publish(v)
	}
	b.Close()
}

func (s *subscription[T]) pump() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			close(s.out)
			return
		}
		v := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.out <- v
	}
}
