package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultStepDelay is how long each signal stays Active.
const DefaultStepDelay = 1500 * time.Millisecond

var (
	// ErrCancelled is returned by Wait when playback stopped before the last
	// waypoint. It marks a normal termination, not a failure.
	ErrCancelled = errors.New("playback cancelled")
	// ErrCallbackPanic wraps a panic raised by a callback before cancellation.
	ErrCallbackPanic = errors.New("playback callback panicked")
)

// Callbacks receive the signal transitions of a playback. Either may be nil.
type Callbacks struct {
	OnEnter func(id string)
	OnExit  func(id string)
}

// Task plays a route back one waypoint at a time on its own goroutine:
// OnEnter, wait the step delay, OnExit, next waypoint.
type Task struct {
	waypoints []string
	cb        Callbacks
	delay     time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	startOnce sync.Once
	done      chan struct{}
	err       error
}

// NewTask prepares a playback of waypoints without starting it.
func NewTask(waypoints []string, cb Callbacks, stepDelay time.Duration) *Task {
	ctx, cancel := context.WithCancel(context.Background())
	return &Task{
		waypoints: waypoints,
		cb:        cb,
		delay:     stepDelay,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// Play starts a playback of waypoints and returns immediately.
func Play(waypoints []string, cb Callbacks, stepDelay time.Duration) *Task {
	t := NewTask(waypoints, cb, stepDelay)
	t.Start()
	return t
}

// Start launches the playback goroutine. Calls after the first are no-ops.
func (t *Task) Start() {
	t.startOnce.Do(func() {
		go t.run()
	})
}

// Cancel asks the playback to stop before its next waypoint. It is safe to
// call at any time, any number of times.
func (t *Task) Cancel() {
	t.cancel()
}

// Cancelled reports whether Cancel has been called.
func (t *Task) Cancelled() bool {
	return t.ctx.Err() != nil
}

// Done is closed when a started playback finishes.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until a started playback finishes. It returns nil when every
// waypoint was played and ErrCancelled when playback stopped early.
func (t *Task) Wait() error {
	<-t.done
	return t.err
}

func (t *Task) run() {
	defer close(t.done)
	defer func() {
		if rec := recover(); rec != nil {
			if t.Cancelled() {
				t.err = ErrCancelled
				return
			}
			t.err = fmt.Errorf("%w: %v", ErrCallbackPanic, rec)
		}
	}()

	for _, id := range t.waypoints {
		if t.Cancelled() {
			t.err = ErrCancelled
			return
		}

		call(t.cb.OnEnter, id)

		timer := time.NewTimer(t.delay)
		select {
		case <-t.ctx.Done():
			timer.Stop()
			// The entered signal still goes back to Idle.
			call(t.cb.OnExit, id)
			t.err = ErrCancelled
			return
		case <-timer.C:
		}

		call(t.cb.OnExit, id)
	}
}

func call(fn func(string), id string) {
	if fn != nil {
		fn(id)
	}
}
