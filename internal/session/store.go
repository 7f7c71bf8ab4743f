// Package session keeps short-lived per-user chat state: the last few
// conversation turns and the business the user is currently operating.
// Sessions start on the first message and end on "exit" or after being idle
// longer than the configured TTL.
package session

import (
	"context"
	"sync"
	"time"
)

type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Turn is one chat message.
type Turn struct {
	Role Role
	Text string
	At   time.Time
}

type session struct {
	turns      []Turn
	businessID uint
	lastSeen   time.Time
}

// Store is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
	maxTurns int
	now      func() time.Time

	// OnEvict runs after an idle session is swept, outside the lock.
	OnEvict func(userID string, businessID uint)
}

// New creates a store. ttl <= 0 disables idle eviction; maxTurns <= 0
// keeps 10 turns.
func New(ttl time.Duration, maxTurns int) *Store {
	if maxTurns <= 0 {
		maxTurns = 10
	}
	return &Store{
		sessions: make(map[string]*session),
		ttl:      ttl,
		maxTurns: maxTurns,
		now:      time.Now,
	}
}

// get returns the user's session, creating it. Callers hold mu.
func (s *Store) get(userID string) *session {
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &session{}
		s.sessions[userID] = sess
	}
	sess.lastSeen = s.now()
	return sess
}

// Touch marks the user active.
func (s *Store) Touch(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(userID)
}

// AddTurn appends a message, dropping the oldest beyond maxTurns.
func (s *Store) AddTurn(userID string, role Role, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.get(userID)
	sess.turns = append(sess.turns, Turn{Role: role, Text: text, At: sess.lastSeen})
	if n := len(sess.turns) - s.maxTurns; n > 0 {
		sess.turns = append([]Turn(nil), sess.turns[n:]...)
	}
}

// History returns up to limit of the most recent turns, oldest first.
func (s *Store) History(userID string, limit int) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return nil
	}
	turns := sess.turns
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

func (s *Store) SetBusiness(userID string, businessID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(userID).businessID = businessID
}

// Business returns the active business id, 0 when none.
func (s *Store) Business(userID string) uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok {
		return sess.businessID
	}
	return 0
}

// End drops the session without calling OnEvict.
func (s *Store) End(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep evicts sessions idle for longer than the TTL and returns how many
// were removed.
func (s *Store) Sweep(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}
	type evicted struct {
		user       string
		businessID uint
	}
	var gone []evicted

	s.mu.Lock()
	for user, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.ttl {
			gone = append(gone, evicted{user, sess.businessID})
			delete(s.sessions, user)
		}
	}
	s.mu.Unlock()

	if s.OnEvict != nil {
		for _, e := range gone {
			s.OnEvict(e.user, e.businessID)
		}
	}
	return len(gone)
}

// Run sweeps every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(s.now())
		}
	}
}
