package services

import "sync"

// EventLocker hands out one mutex per event, serializing destructive
// regeneration (group formation, schedule rebuilds) against concurrent
// roster mutation for the same event. Locks are never evicted; the set
// of active events is small. The grouping and schedule services must
// share a single instance.
type EventLocker struct {
	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

func NewEventLocker() *EventLocker {
	return &EventLocker{locks: make(map[int]*sync.Mutex)}
}

// Lock acquires the event's mutex and returns the unlock function.
func (l *EventLocker) Lock(eventID int) func() {
	l.mu.Lock()
	m, ok := l.locks[eventID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[eventID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
