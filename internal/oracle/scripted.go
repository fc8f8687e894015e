package oracle

import (
	"context"
	"fmt"
	"sync"
)

// Scripted replays canned turn results in order. Used by tests and the
// scripted-player bot; a nil script always fails.
type Scripted struct {
	mu      sync.Mutex
	results []TurnResult
	next    int

	// Calls records every request for assertions.
	Calls []TurnRequest
	// Err, when set, is returned instead of the next result.
	Err error
}

func NewScripted(results ...TurnResult) *Scripted {
	return &Scripted{results: results}
}

func (s *Scripted) Resolve(_ context.Context, req TurnRequest) (TurnResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, req)
	if s.Err != nil {
		return TurnResult{}, fmt.Errorf("%w: %v", ErrOracleFailure, s.Err)
	}
	if s.next >= len(s.results) {
		return TurnResult{}, fmt.Errorf("%w: script exhausted after %d turns", ErrOracleFailure, len(s.results))
	}
	res := s.results[s.next]
	s.next++
	return res, nil
}

func (s *Scripted) Close() error { return nil }

// CallCount reports how many times Resolve ran.
func (s *Scripted) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Calls)
}
