package cart

import "sync"

// scopeLocks hands out one mutex per storage scope and drops it once no
// goroutine holds or waits on it. Locks are per process: instances sharing a
// storage backend do not serialize against each other.
type scopeLocks struct {
	mu    sync.Mutex
	locks map[string]*scopeLock
}

type scopeLock struct {
	mu   sync.Mutex
	refs int
}

func newScopeLocks() *scopeLocks {
	return &scopeLocks{locks: make(map[string]*scopeLock)}
}

func (s *scopeLocks) lock(scope string) func() {
	s.mu.Lock()
	l, ok := s.locks[scope]
	if !ok {
		l = &scopeLock{}
		s.locks[scope] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, scope)
		}
		s.mu.Unlock()
	}
}

func (s *scopeLocks) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}
