package memory

import (
	"context"
	"sort"
	"sync"

	"rentcal/internal/app/picker"
)

// SessionRepository stores picker sessions in memory.
type SessionRepository struct {
	mu    sync.RWMutex
	items map[string]picker.Session
}

// NewSessionRepository builds an empty session store.
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{items: make(map[string]picker.Session)}
}

// Get returns a copy of the stored session.
func (r *SessionRepository) Get(ctx context.Context, id string) (*picker.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.items[id]
	if !ok {
		return nil, picker.ErrSessionNotFound
	}
	return cloneSession(session), nil
}

// Save stores the session if nobody else saved it since it was loaded.
func (r *SessionRepository) Save(ctx context.Context, session *picker.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.items[session.ID]
	switch {
	case !ok && session.Version != 0:
		return picker.ErrSessionNotFound
	case ok && existing.Version != session.Version:
		return picker.ErrConcurrentUpdate
	}
	session.Version++
	r.items[session.ID] = *cloneSession(*session)
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return picker.ErrSessionNotFound
	}
	delete(r.items, id)
	return nil
}

// ByListing lists the sessions of one listing ordered by creation.
func (r *SessionRepository) ByListing(ctx context.Context, listingID string) ([]*picker.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*picker.Session
	for _, s := range r.items {
		if s.ListingID == listingID {
			out = append(out, cloneSession(s))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Listings returns every listing with at least one open session.
func (r *SessionRepository) Listings(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, s := range r.items {
		seen[s.ListingID] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func cloneSession(s picker.Session) *picker.Session {
	out := s
	out.Blocked = append([]string(nil), s.Blocked...)
	return &out
}

var _ picker.SessionRepository = (*SessionRepository)(nil)
