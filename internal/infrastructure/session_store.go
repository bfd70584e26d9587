package infrastructure

import (
	"sort"
	"sync"

	"github.com/yourusername/ytmm-go/internal/domain"
)

// MemorySessionStore keeps one session per user in memory
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[int64]*domain.Session
}

// NewMemorySessionStore creates an empty session store
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[int64]*domain.Session),
	}
}

// Get returns a copy of the user's session
func (s *MemorySessionStore) Get(userID int64) (*domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[userID]
	if !ok {
		return nil, false
	}
	return cloneSession(session), true
}

// Set stores a copy of the session, replacing any previous one
func (s *MemorySessionStore) Set(session *domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.UserID] = cloneSession(session)
}

// Update applies fn to the stored session under the store lock
func (s *MemorySessionStore) Update(userID int64, fn func(*domain.Session)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	fn(session)
	return nil
}

// Delete removes the user's session
func (s *MemorySessionStore) Delete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, userID)
}

// Release removes the session only if it still belongs to requestID, so a
// finishing download never clears a newer link the user has sent since
func (s *MemorySessionStore) Release(userID int64, requestID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok || session.RequestID != requestID {
		return false
	}
	delete(s.sessions, userID)
	return true
}

// DeleteIf removes the session when match accepts it
func (s *MemorySessionStore) DeleteIf(userID int64, match func(*domain.Session) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok || !match(session) {
		return false
	}
	delete(s.sessions, userID)
	return true
}

// List returns copies of every session ordered by creation time
func (s *MemorySessionStore) List() []*domain.Session {
	s.mu.RLock()
	list := make([]*domain.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		list = append(list, cloneSession(session))
	}
	s.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}

// Count returns the number of live sessions
func (s *MemorySessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}

func cloneSession(session *domain.Session) *domain.Session {
	c := *session
	if session.Info != nil {
		info := *session.Info
		c.Info = &info
	}
	return &c
}
