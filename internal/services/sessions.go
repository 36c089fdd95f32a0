package services

import (
	"sync"
	"time"

	"efirbot/internal/domain"
)

// sessionStore keeps dialogue state in process memory, one entry per user
// with an open dialogue. An entry is dropped once its dialogue ends and no
// other step of the same user is waiting on it.
type sessionStore struct {
	mu      sync.Mutex
	entries map[int64]*session
	ttl     time.Duration
	now     func() time.Time
}

type session struct {
	mu      sync.Mutex // serializes the steps of one user
	refs    int        // holders and waiters, guarded by sessionStore.mu
	state   domain.DialogueState
	touched time.Time
	ttl     time.Duration
	now     func() time.Time
}

func newSessionStore(ttl time.Duration) *sessionStore {
	return &sessionStore{
		entries: make(map[int64]*session),
		ttl:     ttl,
		now:     time.Now,
	}
}

// lock returns the user's session held exclusively until unlock is called.
func (s *sessionStore) lock(userID int64) (*session, func()) {
	s.mu.Lock()
	sess, ok := s.entries[userID]
	if !ok {
		sess = &session{ttl: s.ttl, now: s.now}
		s.entries[userID] = sess
	}
	sess.refs++
	s.mu.Unlock()

	sess.mu.Lock()
	return sess, func() {
		s.mu.Lock()
		sess.refs--
		if sess.refs == 0 && sess.current() == nil {
			delete(s.entries, userID)
		}
		s.mu.Unlock()
		sess.mu.Unlock()
	}
}

// current returns the active state, dropping it first if it went stale.
func (s *session) current() domain.DialogueState {
	if s.state != nil && s.ttl > 0 && s.now().Sub(s.touched) > s.ttl {
		s.state = nil
	}
	return s.state
}

func (s *session) set(state domain.DialogueState) {
	s.state = state
	s.touched = s.now()
}

func (s *session) clear() {
	s.state = nil
}
