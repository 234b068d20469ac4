// Package notify is a small in-process observer bus shared by the client services.
package notify

import "sync"

// Bus dispatches values to subscribers inline, in subscription order.
// Callbacks run outside the bus lock, so a callback may unsubscribe itself.
type Bus[T any] struct {
	subscribers []subscriber[T]
	nextID      int
	mu          sync.Mutex
}

type subscriber[T any] struct {
	fn func(T)
	id int
}

// Subscribe registers fn and returns a func that removes it.
// The returned func is idempotent.
func (b *Bus[T]) Subscribe(fn func(T)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subscribers = append(b.subscribers, subscriber[T]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

// Publish invokes every current subscriber with v.
func (b *Bus[T]) Publish(v T) {
	b.mu.Lock()
	subs := make([]subscriber[T], len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.Unlock()

	for _, s := range subs {
		s.fn(v)
	}
}

// Len returns the number of subscribers.
func (b *Bus[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

func (b *Bus[T]) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subscribers {
		if s.id == id {
			b.subscribers = append(b.subscribers[:i:i], b.subscribers[i+1:]...)
			return
		}
	}
}
