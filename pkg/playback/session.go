package playback

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"signal_router/pkg/graph"
	"signal_router/pkg/routing"
)

// ErrEmptyRoute is returned by Session.Play for a route with no waypoints.
var ErrEmptyRoute = errors.New("route has no waypoints")

// Run describes one playback started by a Session.
type Run struct {
	ID        string              `json:"id"`
	Route     []string            `json:"route"`
	Weight    float64             `json:"total_weight"`
	Vehicle   routing.VehicleType `json:"vehicle"`
	StepDelay time.Duration       `json:"step_delay_ns"`
	StartedAt time.Time           `json:"started_at"`
}

// Event is a single signal transition.
type Event struct {
	RunID    string      `json:"run_id"`
	Seq      uint64      `json:"seq"`
	Waypoint string      `json:"waypoint"`
	State    SignalState `json:"state"`
	At       time.Time   `json:"at"`
}

// Snapshot is a point-in-time view of a session.
type Snapshot struct {
	Run     *Run                   `json:"run,omitempty"`
	Running bool                   `json:"running"`
	Signals map[string]SignalState `json:"signals"`
}

// Session owns the signal board of one simulation and runs at most one
// playback at a time.
type Session struct {
	board *SignalBoard

	playMu sync.Mutex // serialises Play and Cancel

	mu      sync.Mutex
	task    *Task
	run     *Run
	seq     uint64
	subs    map[int]chan Event
	nextSub int
	closed  bool
}

// NewSession creates a session whose board covers every waypoint of g.
func NewSession(g *graph.Graph) *Session {
	return &Session{
		board: NewSignalBoard(g.IDs),
		subs:  make(map[int]chan Event),
	}
}

// Play cancels any playback in progress, waits for it to stop, and starts
// playing r. It returns without waiting for the new playback.
func (s *Session) Play(r routing.Route, vehicle routing.VehicleType, stepDelay time.Duration) (Run, error) {
	if r.Len() == 0 {
		return Run{}, ErrEmptyRoute
	}

	s.playMu.Lock()
	defer s.playMu.Unlock()

	s.stopCurrent()

	run := Run{
		ID:        uuid.NewString(),
		Route:     r.Waypoints,
		Weight:    r.TotalWeight,
		Vehicle:   vehicle,
		StepDelay: stepDelay,
		StartedAt: time.Now(),
	}
	s.board.Reset(r.Waypoints)

	logger := log.WithFields(log.Fields{"run_id": run.ID, "vehicle": vehicle.String()})
	task := NewTask(r.Waypoints, Callbacks{
		OnEnter: func(id string) {
			s.board.Set(id, Active)
			s.publish(run.ID, id, Active)
			logger.WithField("waypoint", id).Debug("Signal active")
		},
		OnExit: func(id string) {
			s.board.Set(id, Idle)
			s.publish(run.ID, id, Idle)
			logger.WithField("waypoint", id).Debug("Signal idle")
		},
	}, stepDelay)

	s.mu.Lock()
	s.task = task
	s.run = &run
	s.mu.Unlock()

	logger.WithField("route", r.Waypoints).Info("Playback started")
	task.Start()

	go func() {
		switch err := task.Wait(); {
		case err == nil:
			logger.Info("Playback finished")
		case errors.Is(err, ErrCancelled):
			logger.Info("Playback cancelled")
		default:
			logger.WithError(err).Error("Playback failed")
		}
	}()

	return run, nil
}

// Cancel stops the playback in progress, if any, and waits for it to exit.
// It reports whether a running playback was stopped.
func (s *Session) Cancel() bool {
	s.playMu.Lock()
	defer s.playMu.Unlock()
	return s.stopCurrent()
}

func (s *Session) stopCurrent() bool {
	s.mu.Lock()
	task := s.task
	s.mu.Unlock()
	if task == nil {
		return false
	}

	select {
	case <-task.Done():
		return false
	default:
	}
	task.Cancel()
	<-task.Done()
	return true
}

// Wait blocks until the current playback finishes and returns its result.
// It returns nil when nothing has been played.
func (s *Session) Wait() error {
	s.mu.Lock()
	task := s.task
	s.mu.Unlock()
	if task == nil {
		return nil
	}
	return task.Wait()
}

// Snapshot returns the current run and a copy of the board.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	var run *Run
	if s.run != nil {
		r := *s.run
		run = &r
	}
	running := false
	if s.task != nil {
		select {
		case <-s.task.Done():
		default:
			running = true
		}
	}
	s.mu.Unlock()

	return Snapshot{Run: run, Running: running, Signals: s.board.Snapshot()}
}

// Subscribe returns a channel receiving every subsequent transition and a
// function that ends the subscription. A subscriber that falls more than
// buf events behind misses events instead of stalling playback.
func (s *Session) Subscribe(buf int) (<-chan Event, func()) {
	ch := make(chan Event, buf)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			if _, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(ch)
			}
			s.mu.Unlock()
		})
	}
}

// Close stops any playback and closes every subscription.
func (s *Session) Close() {
	s.Cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

func (s *Session) publish(runID, waypoint string, state SignalState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	ev := Event{RunID: runID, Seq: s.seq, Waypoint: waypoint, State: state, At: time.Now()}
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
