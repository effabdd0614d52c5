package engine

import (
	"fmt"
)

// QuotaEnforcer counts the bindings entering one queue during one
// execution and enforces a maximum.
//
// Queues are unbounded, so a query that fans out far more than expected
// would otherwise buffer every row in memory. A limit of 0 disables the
// check.
//
// Each queue has exactly one writer, so QuotaEnforcer needs no locking.
type QuotaEnforcer struct {
	limit   int
	current int
}

// NewQuotaEnforcer creates a new quota enforcer with the given limit.
func NewQuotaEnforcer(limit int) *QuotaEnforcer {
	return &QuotaEnforcer{limit: limit}
}

// Check increments the counter and validates it against the limit.
func (q *QuotaEnforcer) Check() error {
	q.current++
	if q.limit > 0 && q.current > q.limit {
		return &BindingsExceededError{Count: q.current, Limit: q.limit}
	}
	return nil
}

// Current returns the number of bindings counted so far.
func (q *QuotaEnforcer) Current() int {
	return q.current
}

// Limit returns the configured limit.
func (q *QuotaEnforcer) Limit() int {
	return q.limit
}

// BindingsExceededError is returned when a queue exceeds its binding
// quota.
type BindingsExceededError struct {
	Count int
	Limit int
}

// Error implements the error interface.
func (e *BindingsExceededError) Error() string {
	return fmt.Sprintf("queue exceeded binding quota: %d bindings > %d limit", e.Count, e.Limit)
}
