package node

import (
	"fmt"
	"sync"
	"time"
)

// Stopwatch measures the wall-clock time of one builder invocation.
type Stopwatch struct {
	mu    sync.Mutex
	start time.Time
	end   time.Time
	now   func() time.Time
}

func (s *Stopwatch) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// SetClock replaces the time source, which defaults to time.Now.
func (s *Stopwatch) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Start records the start time and clears any previous end time.
func (s *Stopwatch) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.start = s.clock()
	s.end = time.Time{}
}

// Stop records the end time. Stopping an unstarted stopwatch is a no-op.
func (s *Stopwatch) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.start.IsZero() {
		return
	}
	s.end = s.clock()
}

// StartTime returns when the stopwatch was started.
func (s *Stopwatch) StartTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.start
}

// EndTime returns when the stopwatch was stopped.
func (s *Stopwatch) EndTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.end
}

// Duration returns the elapsed time. A running stopwatch reports the time
// since Start, an unstarted one reports zero.
func (s *Stopwatch) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.start.IsZero():
		return 0
	case s.end.IsZero():
		return s.clock().Sub(s.start)
	default:
		return s.end.Sub(s.start)
	}
}

func (s *Stopwatch) String() string {
	return fmt.Sprintf("%.2f seconds", s.Duration().Seconds())
}
