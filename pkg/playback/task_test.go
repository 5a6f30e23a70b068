package playback

import (
	"errors"
	"slices"
	"sync"
	"testing"
	"time"
)

// recorder collects callback invocations in order.
type recorder struct {
	mu      sync.Mutex
	calls   []string
	active  int
	overlap bool
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnEnter: func(id string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.active++
			if r.active > 1 {
				r.overlap = true
			}
			r.calls = append(r.calls, "enter:"+id)
		},
		OnExit: func(id string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.active--
			r.calls = append(r.calls, "exit:"+id)
		},
	}
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

var scenario = []string{"ISBT", "Subhash", "Survey", "ClockTower", "Rajpur"}

func TestPlayVisitsEveryWaypointInOrder(t *testing.T) {
	var rec recorder
	task := Play(scenario, rec.callbacks(), time.Millisecond)

	if err := task.Wait(); err != nil {
		t.Fatalf("Wait = %v, want nil", err)
	}

	var want []string
	for _, id := range scenario {
		want = append(want, "enter:"+id, "exit:"+id)
	}
	if got := rec.snapshot(); !slices.Equal(got, want) {
		t.Errorf("calls = %v\nwant    %v", got, want)
	}
	if rec.overlap {
		t.Error("two OnEnter calls overlapped")
	}
}

func TestPlayWaitsStepDelay(t *testing.T) {
	const delay = 20 * time.Millisecond
	start := time.Now()

	task := Play([]string{"A", "B", "C"}, Callbacks{}, delay)
	if err := task.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	if elapsed := time.Since(start); elapsed < 3*delay {
		t.Errorf("playback took %s, want at least %s", elapsed, 3*delay)
	}
}

func TestPlayDoesNotBlockCaller(t *testing.T) {
	entered := make(chan string, 1)
	task := Play([]string{"A"}, Callbacks{OnEnter: func(id string) { entered <- id }}, time.Hour)
	defer task.Cancel()

	// Play has returned while the step delay is still an hour away.
	select {
	case id := <-entered:
		if id != "A" {
			t.Errorf("entered %q, want A", id)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("OnEnter never fired")
	}
	select {
	case <-task.Done():
		t.Fatal("task finished during an hour-long step")
	default:
	}
}

func TestCancelBeforeStart(t *testing.T) {
	var rec recorder
	task := NewTask(scenario, rec.callbacks(), time.Millisecond)
	task.Cancel()
	task.Start()

	if err := task.Wait(); !errors.Is(err, ErrCancelled) {
		t.Fatalf("Wait = %v, want ErrCancelled", err)
	}
	if calls := rec.snapshot(); len(calls) != 0 {
		t.Errorf("callbacks fired after early cancel: %v", calls)
	}
}

func TestCancelDuringStep(t *testing.T) {
	var rec recorder
	cb := rec.callbacks()
	entered := make(chan struct{})
	var once sync.Once
	enter := cb.OnEnter
	cb.OnEnter = func(id string) {
		enter(id)
		once.Do(func() { close(entered) })
	}

	task := Play(scenario, cb, time.Hour)
	<-entered
	task.Cancel()

	if err := task.Wait(); !errors.Is(err, ErrCancelled) {
		t.Fatalf("Wait = %v, want ErrCancelled", err)
	}
	// The entered signal is released; nothing further is entered.
	want := []string{"enter:ISBT", "exit:ISBT"}
	if got := rec.snapshot(); !slices.Equal(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	task := Play([]string{"A", "B"}, Callbacks{}, time.Millisecond)
	if err := task.Wait(); err != nil {
		t.Fatalf("Wait = %v, want nil", err)
	}

	task.Cancel()
	task.Cancel()

	// Completed playback keeps its result.
	if err := task.Wait(); err != nil {
		t.Errorf("Wait after late Cancel = %v, want nil", err)
	}
}

func TestStartTwice(t *testing.T) {
	var rec recorder
	task := NewTask([]string{"A"}, rec.callbacks(), time.Millisecond)
	task.Start()
	task.Start()
	if err := task.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if got := rec.snapshot(); len(got) != 2 {
		t.Errorf("calls = %v, want one enter and one exit", got)
	}
}

func TestPanicAfterCancelIsAbsorbed(t *testing.T) {
	var task *Task
	task = NewTask([]string{"A", "B"}, Callbacks{
		OnEnter: func(string) {
			task.Cancel()
			panic("renderer gone")
		},
	}, time.Millisecond)
	task.Start()

	if err := task.Wait(); !errors.Is(err, ErrCancelled) {
		t.Errorf("Wait = %v, want ErrCancelled", err)
	}
}

func TestPanicBeforeCancelIsReported(t *testing.T) {
	task := Play([]string{"A"}, Callbacks{
		OnExit: func(string) { panic("boom") },
	}, time.Millisecond)

	err := task.Wait()
	if !errors.Is(err, ErrCallbackPanic) {
		t.Errorf("Wait = %v, want ErrCallbackPanic", err)
	}
}

func TestPlayEmptyRoute(t *testing.T) {
	task := Play(nil, Callbacks{}, time.Hour)
	if err := task.Wait(); err != nil {
		t.Errorf("Wait = %v, want nil", err)
	}
}
