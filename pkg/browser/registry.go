package browser

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/driftlock/browsermux/pkg/logging"
)

// NewSessionID generates a provisional session identifier from a millisecond
// timestamp and a random suffix. BindClientIdentity finalizes it once the
// client's identity is known.
func NewSessionID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// Registry is the single source of truth for which sessions exist. It maps
// externally supplied session ids to Session objects, creating on first
// reference and removing on explicit disposal.
type Registry struct {
	maxSessions int

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry. maxSessions <= 0 means unlimited.
func NewRegistry(maxSessions int) *Registry {
	return &Registry{
		maxSessions: maxSessions,
		sessions:    make(map[string]*Session),
	}
}

// GetOrCreate returns the session registered under id, constructing and
// registering one when absent. Concurrent callers for the same id always
// observe the same Session object.
func (r *Registry) GetOrCreate(id string, deps SessionDeps) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, ok := r.sessions[id]; ok {
		return session, nil
	}
	if r.maxSessions > 0 && len(r.sessions) >= r.maxSessions {
		return nil, fmt.Errorf("%w (%d)", ErrTooManySessions, r.maxSessions)
	}

	session := newSession(id, r, deps)
	r.sessions[id] = session
	return session, nil
}

// Get returns the session registered under id, if any.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	return session, ok
}

// BindClientIdentity finalizes a provisional session id by appending the
// client identity, rekeying the registry entry. Binding happens at most
// once; later calls return the already-bound id.
func (r *Registry) BindClientIdentity(id string, client ClientInfo) (string, error) {
	r.mu.Lock()
	session, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		return "", fmt.Errorf("no session registered under %q", id)
	}

	session.mu.Lock()
	if session.clientBound {
		bound := session.id
		session.mu.Unlock()
		r.mu.Unlock()
		return bound, nil
	}
	session.mu.Unlock()

	newID := id + "-" + sanitizeIdentity(client.Name)
	delete(r.sessions, id)
	r.sessions[newID] = session
	r.mu.Unlock()

	session.rebind(newID)
	return newID, nil
}

// Remove disposes the session registered under id and deletes the entry.
// Unknown ids are a no-op.
func (r *Registry) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	session, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if !ok {
		return nil
	}
	return session.CloseBrowserContext(ctx)
}

// forget deletes a registry entry without disposing the session. Called by
// Session.Dispose, which has already closed the context.
func (r *Registry) forget(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// ListIDs returns all registered session ids, sorted.
func (r *Registry) ListIDs() []string {
	r.mu.Lock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	sort.Strings(ids)
	return ids
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// DisposeAll disposes every registered session concurrently and clears the
// registry. One session's close failure is logged and never blocks the
// others. The map is cleared up front, so sessions created while disposal
// is still draining start fresh and are unaffected.
func (r *Registry) DisposeAll(ctx context.Context) {
	r.mu.Lock()
	draining := make([]*Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		draining = append(draining, session)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	logger := logging.For("registry")
	var wg sync.WaitGroup
	for _, session := range draining {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			if err := s.CloseBrowserContext(ctx); err != nil {
				logger.Warn("session disposal failed", "session", s.ID(), "error", err)
			}
		}(session)
	}
	wg.Wait()
}

// CloseIdle disposes sessions whose last use is older than the given age.
// Returns the ids that were closed.
func (r *Registry) CloseIdle(ctx context.Context, olderThan time.Duration) []string {
	cutoff := time.Now().Add(-olderThan)

	r.mu.Lock()
	var idle []*Session
	for _, session := range r.sessions {
		if session.LastUsed().Before(cutoff) {
			idle = append(idle, session)
		}
	}
	for _, session := range idle {
		delete(r.sessions, session.ID())
	}
	r.mu.Unlock()

	logger := logging.For("registry")
	closed := make([]string, 0, len(idle))
	for _, session := range idle {
		if err := session.CloseBrowserContext(ctx); err != nil {
			logger.Warn("idle session close failed", "session", session.ID(), "error", err)
		}
		closed = append(closed, session.ID())
	}
	sort.Strings(closed)
	return closed
}

// sanitizeIdentity flattens a client name into an id-safe token.
func sanitizeIdentity(name string) string {
	if name == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}
