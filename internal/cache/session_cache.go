package cache

import (
	"errors"
	"sync"

	"github.com/tutorium/tutorium-backend/internal/model"
)

// ErrDuplicateSession is returned when a session id is inserted twice.
// A session id must never be reassigned while still cached.
var ErrDuplicateSession = errors.New("session id already cached")

// SessionCache is a concurrency-safe, process-local map of live test
// sessions. It is the single source of truth while the process is up;
// durability across restarts comes from the backup store, not from here.
type SessionCache struct {
	mu       sync.RWMutex
	sessions map[string]*model.SessionRecord
}

// NewSessionCache creates an empty SessionCache.
func NewSessionCache() *SessionCache {
	return &SessionCache{
		sessions: make(map[string]*model.SessionRecord),
	}
}

// Put inserts a new session record. Returns ErrDuplicateSession if the
// id is already present; callers must treat that as a logic error.
func (c *SessionCache) Put(id string, rec *model.SessionRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.sessions[id]; exists {
		return ErrDuplicateSession
	}
	c.sessions[id] = rec
	return nil
}

// Get returns the record for id, or (nil, false) if absent.
func (c *SessionCache) Get(id string) (*model.SessionRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.sessions[id]
	return rec, ok
}

// Delete removes the record for id. Deleting an absent id is a no-op.
func (c *SessionCache) Delete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.sessions, id)
}

// Keys returns a snapshot of all cached session ids. Used by the expiry
// sweeper and the diagnostics endpoint.
func (c *SessionCache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.sessions))
	for id := range c.sessions {
		keys = append(keys, id)
	}
	return keys
}

// Len returns the number of cached sessions.
func (c *SessionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.sessions)
}
