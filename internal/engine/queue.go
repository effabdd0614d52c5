package engine

import (
	"context"
	"sync"
)

// tokenQueue is a goroutine-safe FIFO queue connecting two pipeline
// workers.
//
// The queue is unbounded: an upstream stage never blocks on a slow
// downstream stage, so a query fanning out to many rows is buffered in
// full. WithMaxBindings puts a ceiling on that growth.
//
// The queue uses a channel for signaling so a blocked Dequeue can also
// observe context cancellation.
type tokenQueue struct {
	mu     sync.Mutex
	tokens []Token
	signal chan struct{} // Signals token availability (buffered, size 1)
}

func newTokenQueue() *tokenQueue {
	return &tokenQueue{
		tokens: make([]Token, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds a token to the back of the queue.
func (q *tokenQueue) Enqueue(t Token) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.tokens = append(q.tokens, t)

	// Non-blocking: the buffer of 1 coalesces multiple signals
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// TryDequeue removes the front token without blocking.
func (q *tokenQueue) TryDequeue() (Token, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tokens) == 0 {
		return Token{}, false
	}

	t := q.tokens[0]

	// Clear the slot so the backing array does not pin the binding
	q.tokens[0] = Token{}

	if len(q.tokens) == 1 {
		q.tokens = q.tokens[:0]
	} else {
		q.tokens = q.tokens[1:]
	}
	return t, true
}

// Dequeue blocks until a token is available or ctx is done.
func (q *tokenQueue) Dequeue(ctx context.Context) (Token, error) {
	for {
		if t, ok := q.TryDequeue(); ok {
			return t, nil
		}
		select {
		case <-ctx.Done():
			return Token{}, ctx.Err()
		case <-q.signal:
		}
	}
}

// Len returns the current queue length.
func (q *tokenQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tokens)
}
