package session

import "sync"

// subscribers is an ordered list of callbacks with removal by handle.
type subscribers[T any] struct {
	mu   sync.Mutex
	next int
	subs []subscriber[T]
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

func (l *subscribers[T]) add(fn func(T)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.next++
	id := l.next
	l.subs = append(l.subs, subscriber[T]{id: id, fn: fn})
	return func() { l.remove(id) }
}

func (l *subscribers[T]) remove(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, s := range l.subs {
		if s.id == id {
			l.subs = append(l.subs[:i], l.subs[i+1:]...)
			return
		}
	}
}

// notify calls every subscriber in registration order. The list is copied
// first so callbacks may unsubscribe.
func (l *subscribers[T]) notify(v T) {
	l.mu.Lock()
	subs := append([]subscriber[T](nil), l.subs...)
	l.mu.Unlock()
	for _, s := range subs {
		s.fn(v)
	}
}

func (l *subscribers[T]) clear() {
	l.mu.Lock()
	l.subs = nil
	l.mu.Unlock()
}

func (l *subscribers[T]) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs)
}
