package updater

import (
	"context"
	"sync"
)

// State is what a UI reads while a Session runs
type State struct {
	Checking    bool
	NeedsUpdate bool
	Result      Result
}

// Session runs a Gate in the background and publishes its outcome. After
// Stop returns the state no longer changes.
type Session struct {
	mu      sync.Mutex
	state   State
	stopped bool
	err     error

	cancel context.CancelFunc
	done   chan struct{}
}

// StartSession launches gate.Run. Cancelling ctx has the same effect as Stop
// on the running check, except that Stop also waits for it to return. A
// cancelled check never publishes a result: State keeps reporting Checking,
// and Err tells that case apart once Done is closed.
func StartSession(ctx context.Context, gate *Gate) *Session {
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		state:  State{Checking: true, Result: Result{Status: StatusChecking, Current: gate.current}},
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		res, err := gate.Run(ctx)

		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			s.err = err
			return
		}
		if s.stopped {
			return
		}
		s.state = State{Checking: false, NeedsUpdate: res.NeedsUpdate, Result: res}
	}()
	return s
}

// State returns a snapshot of the current state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the cancellation error of a check that ended without settling,
// or nil while it runs and after it settles
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done is closed once the background check has returned
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Stop cancels a pending check and waits for it to unwind
func (s *Session) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	s.cancel()
	<-s.done
}
