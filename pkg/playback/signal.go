package playback

import (
	"fmt"
	"sync"
)

// SignalState is the visual state of a waypoint's signal.
type SignalState int

const (
	Idle SignalState = iota
	Active
)

func (s SignalState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	}
	return fmt.Sprintf("SignalState(%d)", int(s))
}

func (s SignalState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SignalState) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle":
		*s = Idle
	case "active":
		*s = Active
	default:
		return fmt.Errorf("unknown signal state %q", b)
	}
	return nil
}

// SignalBoard holds the SignalState of every waypoint in a session.
// Writers are the playback task; readers may observe a slightly stale view.
type SignalBoard struct {
	mu     sync.RWMutex
	states map[string]SignalState
}

// NewSignalBoard returns a board with every id Idle.
func NewSignalBoard(ids []string) *SignalBoard {
	b := &SignalBoard{states: make(map[string]SignalState, len(ids))}
	for _, id := range ids {
		b.states[id] = Idle
	}
	return b
}

// Set records the state of id.
func (b *SignalBoard) Set(id string, s SignalState) {
	b.mu.Lock()
	b.states[id] = s
	b.mu.Unlock()
}

// Get returns the state of id. Unknown ids are Idle.
func (b *SignalBoard) Get(id string) SignalState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.states[id]
}

// Reset sets ids back to Idle.
func (b *SignalBoard) Reset(ids []string) {
	b.mu.Lock()
	for _, id := range ids {
		b.states[id] = Idle
	}
	b.mu.Unlock()
}

// Snapshot returns a copy of every state on the board.
func (b *SignalBoard) Snapshot() map[string]SignalState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]SignalState, len(b.states))
	for id, s := range b.states {
		out[id] = s
	}
	return out
}
