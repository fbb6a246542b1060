package cartsync

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/skincare-cart/internal/localcart"
)

// DefaultIdleTTL applies when NewTracker is given a non-positive TTL
const DefaultIdleTTL = 24 * time.Hour

type session struct {
	mu       sync.Mutex
	state    SessionState
	lastSeen time.Time
	removed  bool
}

// Tracker keeps the SessionState of every guest session in this process.
// Checks for the same session run one at a time. A session is kept only
// while its state is non-zero and it has been seen within the idle TTL.
type Tracker struct {
	orch    *Orchestrator
	idleTTL time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

func NewTracker(orch *Orchestrator, idleTTL time.Duration) *Tracker {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &Tracker{
		orch:     orch,
		idleTTL:  idleTTL,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// acquire returns the locked session for sessionID, creating it if needed
func (t *Tracker) acquire(sessionID string) *session {
	for {
		t.mu.Lock()
		s, ok := t.sessions[sessionID]
		if !ok {
			s = &session{}
			t.sessions[sessionID] = s
		}
		t.mu.Unlock()

		s.mu.Lock()
		if !s.removed {
			return s
		}
		// dropped while we waited; take the replacement
		s.mu.Unlock()
	}
}

// release unlocks s, dropping it when its state went back to zero
func (t *Tracker) release(sessionID string, s *session) {
	defer s.mu.Unlock()

	s.lastSeen = t.now()
	if s.state != (SessionState{}) {
		return
	}
	s.removed = true
	t.mu.Lock()
	if t.sessions[sessionID] == s {
		delete(t.sessions, sessionID)
	}
	t.mu.Unlock()
}

func (t *Tracker) Check(ctx context.Context, sessionID string, auth Auth, store *localcart.Store) (*Result, error) {
	s := t.acquire(sessionID)
	defer t.release(sessionID, s)
	return t.orch.Check(ctx, &s.state, auth, store)
}

func (t *Tracker) Resync(ctx context.Context, sessionID string, auth Auth, store *localcart.Store) (*Result, error) {
	s := t.acquire(sessionID)
	defer t.release(sessionID, s)
	return t.orch.Resync(ctx, &s.state, auth, store)
}

// State returns a copy of the session's current state. Unknown sessions
// report the zero state and are not created.
func (t *Tracker) State(sessionID string) SessionState {
	t.mu.Lock()
	s, ok := t.sessions[sessionID]
	t.mu.Unlock()
	if !ok {
		return SessionState{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removed {
		return SessionState{}
	}
	return s.state
}

func (t *Tracker) Forget(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.sessions[sessionID]; ok {
		delete(t.sessions, sessionID)
		// a check in flight finishes on the detached session
		if s.mu.TryLock() {
			s.removed = true
			s.mu.Unlock()
		}
	}
}

// Len reports how many sessions are held
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

// Sweep drops sessions idle for longer than the TTL and returns how many
// were dropped. Sessions with a check in flight are skipped.
func (t *Tracker) Sweep() int {
	cutoff := t.now().Add(-t.idleTTL)

	t.mu.Lock()
	defer t.mu.Unlock()
	dropped := 0
	for id, s := range t.sessions {
		if !s.mu.TryLock() {
			continue
		}
		if s.lastSeen.Before(cutoff) {
			s.removed = true
			delete(t.sessions, id)
			dropped++
		}
		s.mu.Unlock()
	}
	return dropped
}

// Run sweeps idle sessions every interval until ctx is done
func (t *Tracker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Sweep()
		}
	}
}
