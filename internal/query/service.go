package query

import (
	"context"
	"fmt"

	"github.com/roach88/ontaudit/internal/ir"
)

// Service runs bound queries and returns result rows in order. Each row is
// a binding of the query's projected variables; unbound columns are
// absent.
type Service interface {
	Select(ctx context.Context, req Request) ([]ir.Binding, error)
}

// ServiceFunc adapts a function to the Service interface.
type ServiceFunc func(ctx context.Context, req Request) ([]ir.Binding, error)

// Select implements Service.
func (f ServiceFunc) Select(ctx context.Context, req Request) ([]ir.Binding, error) {
	return f(ctx, req)
}

// Router dispatches requests to a Service by dialect.
type Router map[Dialect]Service

// Select implements Service.
func (r Router) Select(ctx context.Context, req Request) ([]ir.Binding, error) {
	svc, ok := r[req.Dialect]
	if !ok || svc == nil {
		return nil, fmt.Errorf("no query service configured for dialect %q", req.Dialect)
	}
	return svc.Select(ctx, req)
}

// Has reports whether a service is configured for d.
func (r Router) Has(d Dialect) bool {
	svc, ok := r[d]
	return ok && svc != nil
}
