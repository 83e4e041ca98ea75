package session

import (
	"sync"
	"time"

	"github.com/trainsphere/consolekit/internal/clock"
	"github.com/trainsphere/consolekit/internal/log"
	"github.com/trainsphere/consolekit/internal/token"
)

// refreshLead is how long before token expiry the proactive refresh
// fires.
const refreshLead = time.Minute

// Scheduler arms a one-shot timer that fires shortly before token
// expiry. Arming again replaces the previous timer, so at most one
// timer is ever pending.
type Scheduler struct {
	clock  clock.Clock
	logger *log.Logger

	mu    sync.Mutex
	timer *clock.Timer
}

// NewScheduler creates a Scheduler on the given clock.
func NewScheduler(clk clock.Clock, logger *log.Logger) *Scheduler {
	return &Scheduler{clock: clk, logger: logger}
}

// Arm schedules onFire to run refreshLead before the token expires.
// A token already inside the lead window (or past expiry) schedules an
// immediate fire rather than skipping the refresh. An undecodable token
// is logged and arms nothing; it never panics or raises.
func (s *Scheduler) Arm(raw string, onFire func()) {
	decoded, err := token.Decode(raw)
	if err != nil {
		s.logger.WithError(err).Warn("refresh timer not armed: token undecodable")
		return
	}

	delay := decoded.ExpiresAt.Sub(s.clock.Now()) - refreshLead
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = s.clock.AfterFunc(delay, onFire)
}

// Stop cancels the pending timer, if any. Safe to call repeatedly.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
