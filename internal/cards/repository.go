package cards

import (
	"errors"
	"sync"
)

// Repository defines the concurrency-safe contract for accessing and
// mutating session state.
type Repository interface {
	// AddSession registers a new session. Adding a session whose ID already
	// exists returns ErrSessionExists.
	AddSession(s *Session) error

	// GetSession returns the session with the given ID.
	GetSession(id SessionID) (*Session, bool)

	// RemoveSession removes and returns the session with the given ID so the
	// caller can release its resources. Removing an absent session returns
	// ok false; that is not an error.
	RemoveSession(id SessionID) (removed *Session, ok bool)

	// ActiveSessionCount returns the number of live sessions. Used for metrics.
	ActiveSessionCount() int
}

// ErrSessionExists is returned when adding a session with a duplicate ID.
var ErrSessionExists = errors.New("session already exists")

// InMemoryRepository is a concurrency-safe in-memory implementation of
// Repository. It uses a Store for storage; by default an InMemoryStore.
type InMemoryRepository struct {
	mu    sync.RWMutex
	store Store
}

// NewInMemoryRepository constructs a repository with a default in-memory store.
func NewInMemoryRepository() *InMemoryRepository {
	return NewInMemoryRepositoryWithStore(NewInMemoryStore())
}

// NewInMemoryRepositoryWithStore constructs a repository that uses the given
// Store. Useful for testing or for plugging in a different backend.
func NewInMemoryRepositoryWithStore(store Store) *InMemoryRepository {
	return &InMemoryRepository{store: store}
}

// AddSession implements Repository.AddSession.
func (r *InMemoryRepository) AddSession(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.store.GetSession(s.ID); exists {
		return ErrSessionExists
	}
	r.store.SetSession(s)
	return nil
}

// GetSession implements Repository.GetSession.
func (r *InMemoryRepository) GetSession(id SessionID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store.GetSession(id)
}

// RemoveSession implements Repository.RemoveSession.
func (r *InMemoryRepository) RemoveSession(id SessionID) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.store.GetSession(id)
	if !ok {
		return nil, false
	}
	r.store.DeleteSession(id)
	return sess, true
}

// ActiveSessionCount implements Repository.ActiveSessionCount.
func (r *InMemoryRepository) ActiveSessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.store.ListSessionIDs())
}
