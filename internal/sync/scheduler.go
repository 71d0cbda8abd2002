// Package sync runs the periodic housekeeping pass in the background and
// reports its results to the Bubble Tea runtime.
package sync

import (
	"context"
	"log"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/service"
)

// RunState represents the current state of the scheduler.
type RunState int

const (
	RunIdle RunState = iota
	RunRunning
	RunError
)

// String returns a short label for the status bar.
func (s RunState) String() string {
	switch s {
	case RunRunning:
		return "running"
	case RunError:
		return "error"
	}
	return "idle"
}

// Status holds the state of the last housekeeping pass.
type Status struct {
	State   RunState
	LastRun time.Time
	Error   error
}

// ResultMsg is a tea.Msg sent when a housekeeping pass completes.
type ResultMsg struct {
	Result service.HousekeepResult
	Error  error
}

// Housekeeper is the work the scheduler runs on every tick.
type Housekeeper interface {
	Housekeep(ctx context.Context) (service.HousekeepResult, error)
}

// runTimeout is the maximum time allowed for a single pass.
const runTimeout = 30 * time.Second

// defaultInterval applies when the configured interval is not positive.
const defaultInterval = 60 * time.Second

// Scheduler runs housekeeping on a ticker and on demand.
type Scheduler struct {
	work      Housekeeper
	interval  time.Duration
	status    Status
	resultCh  chan ResultMsg
	triggerCh chan struct{}
	stopCh    chan struct{}
	done      chan struct{}
	mu        gosync.Mutex
	running   bool
}

// New creates a Scheduler that calls work every interval.
func New(work Housekeeper, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Scheduler{
		work:      work,
		interval:  interval,
		resultCh:  make(chan ResultMsg, 16),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the background loop and returns a tea.Cmd that waits for
// the first result. It returns nil when already running.
func (s *Scheduler) Start() tea.Cmd {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	go s.loop()

	return s.waitForResult()
}

// Stop halts the background loop and waits for it to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	s.running = false
	s.mu.Unlock()

	<-s.done
}

// Trigger requests an immediate pass. Requests made while one is pending
// are coalesced.
func (s *Scheduler) Trigger() tea.Cmd {
	select {
	case s.triggerCh <- struct{}{}:
	default:
	}
	return nil
}

// Status returns the state of the last pass.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// RunOnce performs a single pass synchronously and records the outcome in
// Status. Every tick and Trigger go through it.
func (s *Scheduler) RunOnce(ctx context.Context) (service.HousekeepResult, error) {
	s.setStatus(RunRunning, nil)

	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	res, err := s.work.Housekeep(ctx)
	if err != nil {
		log.Printf("housekeeping: %v", err)
		s.setStatus(RunError, err)
		return res, err
	}
	s.setStatus(RunIdle, nil)
	return res, nil
}

func (s *Scheduler) loop() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run once immediately so the UI starts from a settled state.
	s.run()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.run()
		case <-s.triggerCh:
			s.run()
		}
	}
}

func (s *Scheduler) run() {
	res, err := s.RunOnce(context.Background())
	s.sendResult(ResultMsg{Result: res, Error: err})
}

func (s *Scheduler) setStatus(state RunState, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status.State = state
	s.status.Error = err
	if state == RunIdle && err == nil {
		s.status.LastRun = time.Now()
	}
}

// sendResult sends a ResultMsg without blocking.
func (s *Scheduler) sendResult(msg ResultMsg) {
	select {
	case s.resultCh <- msg:
	default:
		// Drop if the UI is not keeping up.
	}
}

func (s *Scheduler) waitForResult() tea.Cmd {
	return func() tea.Msg {
		select {
		case res := <-s.resultCh:
			return res
		case <-s.done:
			return nil
		}
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next result. Call
// it after handling a ResultMsg to keep listening.
func (s *Scheduler) WaitForNextResult() tea.Cmd {
	return s.waitForResult()
}
