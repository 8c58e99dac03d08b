package engine

import (
	"sync"
	"time"

	"github.com/mossy-p/dalmuti/internal/models"
)

// scheduler holds at most one pending phase transition per room.
type scheduler struct {
	mu      sync.Mutex
	pending map[string]*pendingTimer
	gen     uint64
}

type pendingTimer struct {
	timer *time.Timer
	phase models.Phase
	gen   uint64
}

func newScheduler() *scheduler {
	return &scheduler{pending: make(map[string]*pendingTimer)}
}

// schedule arms fire after d, replacing any timer already pending for roomID.
func (s *scheduler) schedule(roomID string, phase models.Phase, d time.Duration, fire func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.pending[roomID]; ok {
		old.timer.Stop()
	}
	s.gen++
	gen := s.gen
	pt := &pendingTimer{phase: phase, gen: gen}
	pt.timer = time.AfterFunc(d, func() {
		s.mu.Lock()
		cur, ok := s.pending[roomID]
		if !ok || cur.gen != gen {
			s.mu.Unlock()
			return
		}
		delete(s.pending, roomID)
		s.mu.Unlock()
		fire()
	})
	s.pending[roomID] = pt
}

// cancel stops the pending timer for roomID, if any.
func (s *scheduler) cancel(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pt, ok := s.pending[roomID]; ok {
		pt.timer.Stop()
		delete(s.pending, roomID)
	}
}

// pendingPhase returns the phase the pending timer for roomID expects.
func (s *scheduler) pendingPhase(roomID string) (models.Phase, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pt, ok := s.pending[roomID]
	if !ok {
		return "", false
	}
	return pt.phase, true
}

func (s *scheduler) stopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, pt := range s.pending {
		pt.timer.Stop()
		delete(s.pending, id)
	}
}
