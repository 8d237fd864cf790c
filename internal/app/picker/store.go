package picker

import (
	"sync"
	"time"

	"rentcal/internal/domain/calendar"
)

// Listener receives every emission of a Store, in order.
type Listener func(calendar.DatesSelected)

// Store holds one State for an in-process picker. Listeners run on the
// dispatching goroutine after the state has been replaced.
type Store struct {
	mu        sync.Mutex
	state     State
	now       func() time.Time
	listeners map[int]Listener
	nextID    int
}

func NewStore(initial State, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{state: initial, now: now, listeners: make(map[int]Listener)}
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// View renders the current snapshot.
func (s *Store) View() View {
	s.mu.Lock()
	state, now := s.state, s.now()
	s.mu.Unlock()
	return state.View(now)
}

// Dispatch reduces action into the held state and notifies listeners when it
// produced an emission. The emission is returned as well.
func (s *Store) Dispatch(action Action) *calendar.DatesSelected {
	s.mu.Lock()
	next, emitted := Reduce(s.state, action, s.now())
	s.state = next
	var listeners []Listener
	if emitted != nil {
		listeners = make([]Listener, 0, len(s.listeners))
		for id := 0; id < s.nextID; id++ {
			if fn, ok := s.listeners[id]; ok {
				listeners = append(listeners, fn)
			}
		}
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(*emitted)
	}
	return emitted
}

// Subscribe registers fn and returns a function removing it.
func (s *Store) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}
