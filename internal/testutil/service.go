package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/ontaudit/internal/ir"
	"github.com/roach88/ontaudit/internal/query"
)

// ScriptedService is an in-memory query.Service that answers each query by
// name with scripted rows.
//
// Every request is recorded, so tests can assert on the exact bound query
// text a stage produced.
//
// ScriptedService is safe for concurrent use.
type ScriptedService struct {
	mu       sync.Mutex
	handlers map[string]func(query.Request) ([]ir.Binding, error)
	requests []query.Request
}

// NewScriptedService creates a service with no scripts.
func NewScriptedService() *ScriptedService {
	return &ScriptedService{handlers: make(map[string]func(query.Request) ([]ir.Binding, error))}
}

// On answers every request for the named query with rows.
func (s *ScriptedService) On(name string, rows ...ir.Binding) *ScriptedService {
	return s.Handle(name, func(query.Request) ([]ir.Binding, error) {
		return rows, nil
	})
}

// Fail answers every request for the named query with err.
func (s *ScriptedService) Fail(name string, err error) *ScriptedService {
	return s.Handle(name, func(query.Request) ([]ir.Binding, error) {
		return nil, err
	})
}

// Handle answers requests for the named query with f.
func (s *ScriptedService) Handle(name string, f func(query.Request) ([]ir.Binding, error)) *ScriptedService {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[name] = f
	return s
}

// Select implements query.Service.
func (s *ScriptedService) Select(ctx context.Context, req query.Request) ([]ir.Binding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	f, ok := s.handlers[req.Name]
	s.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("no script for query %q", req.Name)
	}
	return f(req)
}

// Requests returns a copy of every request received, in arrival order.
func (s *ScriptedService) Requests() []query.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]query.Request, len(s.requests))
	copy(out, s.requests)
	return out
}
