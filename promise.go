package pace

import (
	"context"
	"sync"
)

// PromiseState represents the lifecycle state of a [Promise].
// A promise starts [Pending] and transitions to exactly one of [Resolved] or
// [Rejected]. State transitions are irreversible.
type PromiseState int

const (
	// Pending indicates the promise has not yet settled.
	Pending PromiseState = iota

	// Resolved indicates the promise settled successfully with a value.
	Resolved

	// Rejected indicates the promise settled with an error.
	Rejected
)

// String returns the string representation of the promise state.
func (s PromiseState) String() string {
	switch s {
	case Pending:
		return `pending`
	case Resolved:
		return `resolved`
	case Rejected:
		return `rejected`
	default:
		return `unknown`
	}
}

// Promise is a single-assignment future. It settles exactly once, to either a
// value or an error, and supports any number of concurrent waiters, all of
// which observe that one settlement.
//
// All callers that land in the same throttle or debounce window receive the
// same (pointer-identical) Promise. The serial queue returns a distinct
// Promise per enqueued unit.
type Promise[T any] struct {
	value T
	err   error
	done  chan struct{}
	state PromiseState
	mu    sync.Mutex
}

func newPromise[T any]() *Promise[T] {
	return &Promise[T]{done: make(chan struct{})}
}

// resolve settles the promise with a value. No-op if already settled.
func (x *Promise[T]) resolve(value T) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.state != Pending {
		return
	}

	x.state = Resolved
	x.value = value
	close(x.done)
}

// reject settles the promise with an error. No-op if already settled.
func (x *Promise[T]) reject(err error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.state != Pending {
		return
	}

	x.state = Rejected
	x.err = err
	close(x.done)
}

// State returns the current [PromiseState].
func (x *Promise[T]) State() PromiseState {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.state
}

// Done returns a channel that is closed when the promise settles. After the
// channel is closed, [Promise.Result] will return the settled outcome.
func (x *Promise[T]) Done() <-chan struct{} {
	return x.done
}

// Result returns the settled value or error. While the promise is pending,
// both return values are zero. Use [Promise.State] or [Promise.Done] to
// distinguish a pending promise from one resolved to a zero value.
func (x *Promise[T]) Result() (T, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.value, x.err
}

// Wait blocks until the promise settles, or ctx cancels, whichever comes
// first. On settlement the thunk's value or error is returned verbatim; on
// cancellation the zero value and ctx's error are returned, and the
// underlying work is unaffected.
//
// Providing a nil ctx will cause a panic.
func (x *Promise[T]) Wait(ctx context.Context) (T, error) {
	if ctx == nil {
		panic(`pace: nil context`)
	}

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()

	case <-x.done:
		// settled state is immutable, the close above synchronizes access
		return x.value, x.err
	}
}
