package library

import (
	"sync"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// keyLocker hands out one mutex per key. Mutexes are reference counted and
// removed once the last holder or waiter has released them.
type keyLocker struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	mu   sync.Mutex
	refs int
}

func newKeyLocker() *keyLocker {
	return &keyLocker{locks: make(map[string]*refMutex)}
}

// lock blocks until key is free and returns the function that releases it.
func (l *keyLocker) lock(key string) (unlock func()) {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &refMutex{}
		l.locks[key] = m
	}
	m.refs++
	l.mu.Unlock()

	m.mu.Lock()

	return func() {
		m.mu.Unlock()

		l.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

// size returns the number of keys currently held or waited for.
func (l *keyLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.locks)
}

// Lock order is always book before member.
func bookKey(isbn lending.ISBNString) string {
	return "book:" + isbn
}

func memberKey(memberID lending.MemberIDString) string {
	return "member:" + memberID
}
