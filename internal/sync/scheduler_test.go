package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/service"
)

type fakeWork struct {
	mu    gosync.Mutex
	calls int
	err   error
}

func (f *fakeWork) Housekeep(context.Context) (service.HousekeepResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return service.HousekeepResult{Spawned: f.calls}, f.err
}

func (f *fakeWork) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestRunOnceUpdatesStatus(t *testing.T) {
	work := &fakeWork{}
	s := New(work, time.Hour)

	res, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Spawned != 1 {
		t.Errorf("Spawned = %d, want 1", res.Spawned)
	}
	st := s.Status()
	if st.State != RunIdle || st.LastRun.IsZero() {
		t.Errorf("status = %+v", st)
	}

	work.err = errors.New("disk full")
	if _, err := s.RunOnce(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if st := s.Status(); st.State != RunError || st.Error == nil {
		t.Errorf("status = %+v", st)
	}
}

func TestStartRunsImmediatelyAndOnTrigger(t *testing.T) {
	work := &fakeWork{}
	s := New(work, time.Hour)

	cmd := s.Start()
	if cmd == nil {
		t.Fatal("Start returned nil cmd")
	}
	if again := s.Start(); again != nil {
		t.Error("second Start should return nil")
	}

	msg, ok := cmd().(ResultMsg)
	if !ok {
		t.Fatalf("first message is %T", msg)
	}
	if msg.Error != nil || msg.Result.Spawned != 1 {
		t.Errorf("first result = %+v", msg)
	}

	s.Trigger()
	msg, ok = s.WaitForNextResult()().(ResultMsg)
	if !ok {
		t.Fatalf("second message is %T", msg)
	}
	if work.Calls() != 2 {
		t.Errorf("calls = %d, want 2", work.Calls())
	}

	s.Stop()
	s.Stop()
	if got := s.WaitForNextResult()(); got != nil {
		t.Errorf("after Stop got %v, want nil", got)
	}
}

func TestDefaultInterval(t *testing.T) {
	s := New(&fakeWork{}, 0)
	if s.interval != defaultInterval {
		t.Errorf("interval = %v", s.interval)
	}
}

func TestRunStateString(t *testing.T) {
	for state, want := range map[RunState]string{RunIdle: "idle", RunRunning: "running", RunError: "error"} {
		if got := state.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", state, got, want)
		}
	}
}
