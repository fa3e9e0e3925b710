// Package playback enforces the pause lockout for fan listening sessions.
//
// A fan who pauses a stream has a grace window to resume. Once the window
// elapses the session is locked out, terminally: stream redemption and
// further playback events are refused. The registry is process-local;
// a restart clears it.
package playback

import (
	"errors"
	"sync"
	"time"
)

// LockoutTicks is the number of one-second ticks a session may stay
// paused before it locks out.
const LockoutTicks = 30

// TickInterval is the countdown resolution.
const TickInterval = time.Second

// ErrSessionLocked is returned for any event on a locked-out session.
var ErrSessionLocked = errors.New("playback: session locked out")

const (
	// maxSessionAge matches the fan session token lifetime. An entry
	// older than this belongs to an expired token, so dropping it cannot
	// readmit anyone: redemption fails on the token before the guard.
	maxSessionAge = 12 * time.Hour

	sweepInterval = time.Hour
)

type pauseState struct {
	pausedAt time.Time
	locked   bool
}

// Guard tracks paused sessions and latches lockout once the grace
// window elapses. Sessions it has never seen are treated as playing.
type Guard struct {
	mu        sync.Mutex
	sessions  map[string]*pauseState
	window    time.Duration
	now       func() time.Time
	lastSweep time.Time
}

// NewGuard creates a guard with the standard 30-tick window.
func NewGuard() *Guard {
	return &Guard{
		sessions: make(map[string]*pauseState),
		window:   LockoutTicks * TickInterval,
		now:      time.Now,
	}
}

// Pause starts the countdown for a session. Pausing an already paused
// session is a no-op; the original countdown keeps running.
func (g *Guard) Pause(sessionID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.sessions[sessionID]
	if ok {
		if g.expired(s) {
			return ErrSessionLocked
		}
		return nil
	}

	g.sweep()

	g.sessions[sessionID] = &pauseState{pausedAt: g.now()}
	return nil
}

// sweep drops entries whose session tokens have long expired, so
// abandoned pauses and stale lockouts do not pile up between restarts.
// Runs at most once per sweepInterval. Caller holds the mutex.
func (g *Guard) sweep() {
	now := g.now()
	if now.Sub(g.lastSweep) < sweepInterval {
		return
	}
	g.lastSweep = now

	for id, s := range g.sessions {
		if now.Sub(s.pausedAt) > maxSessionAge {
			delete(g.sessions, id)
		}
	}
}

// Resume cancels the countdown with full forgiveness. Both the playing
// and ended events map here. Resuming an unknown session is a no-op.
func (g *Guard) Resume(sessionID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.sessions[sessionID]
	if !ok {
		return nil
	}
	if g.expired(s) {
		return ErrSessionLocked
	}

	delete(g.sessions, sessionID)
	return nil
}

// LockedOut reports whether a session has used up its pause window.
func (g *Guard) LockedOut(sessionID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.sessions[sessionID]
	if !ok {
		return false
	}
	return g.expired(s)
}

// expired latches the terminal locked state. Caller holds the mutex.
func (g *Guard) expired(s *pauseState) bool {
	if s.locked {
		return true
	}
	if g.now().Sub(s.pausedAt) >= g.window {
		s.locked = true
		return true
	}
	return false
}
