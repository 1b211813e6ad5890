package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/0xcro3dile/flowsupport/internal/domain/entities"
)

// SessionCookie names the cookie carrying the chat session id.
const SessionCookie = "flowsupport_session"

// Session store bounds used when none are given.
const (
	DefaultSessionTTL  = 24 * time.Hour
	DefaultMaxSessions = 10000
)

type sessionEntry struct {
	sess     *entities.Session
	lastSeen time.Time
}

// SessionStore keeps one entities.Session per browser, in process memory.
// Sessions idle longer than the TTL are dropped, and when the store is full
// the least recently seen session makes room for a new one.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	ttl      time.Duration
	max      int
	now      func() time.Time
}

// NewSessionStore creates an empty store. Non-positive limits take the defaults.
func NewSessionStore(ttl time.Duration, max int) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if max <= 0 {
		max = DefaultMaxSessions
	}
	return &SessionStore{
		sessions: make(map[string]*sessionEntry),
		ttl:      ttl,
		max:      max,
		now:      time.Now,
	}
}

// Get returns the session for id, creating it on first use.
func (s *SessionStore) Get(id string) *entities.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.live(id, now); ok {
		return e.sess
	}

	s.prune(now)
	if len(s.sessions) >= s.max {
		s.evictOldest()
	}
	e := &sessionEntry{sess: entities.NewSession(id), lastSeen: now}
	s.sessions[id] = e
	return e.sess
}

// Lookup returns an existing, unexpired session without creating one.
func (s *SessionStore) Lookup(id string) (*entities.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(id, s.now())
	if !ok {
		return nil, false
	}
	return e.sess, true
}

// Len returns the number of known sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// live returns the entry for id and marks it seen. Expired entries are removed.
func (s *SessionStore) live(id string, now time.Time) (*sessionEntry, bool) {
	e, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if now.Sub(e.lastSeen) > s.ttl {
		delete(s.sessions, id)
		return nil, false
	}
	e.lastSeen = now
	return e, true
}

func (s *SessionStore) prune(now time.Time) {
	for id, e := range s.sessions {
		if now.Sub(e.lastSeen) > s.ttl {
			delete(s.sessions, id)
		}
	}
}

func (s *SessionStore) evictOldest() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, e := range s.sessions {
		if oldestID == "" || e.lastSeen.Before(oldest) {
			oldestID, oldest = id, e.lastSeen
		}
	}
	delete(s.sessions, oldestID)
}

// cookieID returns the request's session id if it carries a well-formed one.
func cookieID(r *http.Request) (string, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return "", false
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return "", false
	}
	return c.Value, true
}

// FromRequest resolves the request's session, issuing a new cookie when the
// request has none or carries a malformed id.
func (s *SessionStore) FromRequest(w http.ResponseWriter, r *http.Request) *entities.Session {
	if id, ok := cookieID(r); ok {
		return s.Get(id)
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ttl / time.Second),
	})
	return s.Get(id)
}

// Existing returns the request's session only if the store already knows it.
func (s *SessionStore) Existing(r *http.Request) (*entities.Session, bool) {
	id, ok := cookieID(r)
	if !ok {
		return nil, false
	}
	return s.Lookup(id)
}
