package pace

import (
	"fmt"
	"time"
)

// Thunk is a zero-argument unit of real work, returning a value or an error.
// Argument capture, if any, is the caller's concern, see e.g. [Throttle].
//
// Thunks run on their own goroutine. A panic within a thunk is recovered, and
// normalized into a rejection, through the same path as a returned error.
type Thunk[T any] func() (T, error)

// runThunk invokes the thunk, capturing panics uniformly with errors.
func runThunk[T any](thunk Thunk[T]) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf(`pace: panic in thunk: %v`, r)
		}
	}()
	return thunk()
}

// Throttle wraps fn in a new [Throttler], returning a function with the same
// parameter, that captures its argument into a thunk, and joins or opens the
// throttle window. Only the window-opening call's argument is ever used (the
// thunk is invoked eagerly, exactly once per window); joiners receive the
// shared promise. The provided config may be nil.
//
// A panic will occur if fn is nil, the delay is negative, or the config is
// invalid.
func Throttle[A, T any](delay time.Duration, config *ThrottleConfig, fn func(A) (T, error)) func(A) *Promise[T] {
	if fn == nil {
		panic(`pace: nil function`)
	}
	throttler := NewThrottler[T](delay, config)
	return func(arg A) *Promise[T] {
		return throttler.Do(func() (T, error) { return fn(arg) })
	}
}

// Debounce wraps fn in a new [Debouncer], returning a function with the same
// parameter, that captures its argument into a thunk, and joins or opens the
// debounce window. With [EdgeTrailing] the last call's argument wins; with
// [EdgeLeading] only the first call's argument is ever used. The provided
// config may be nil.
//
// A panic will occur if fn is nil, the delay is negative, or the config is
// invalid.
func Debounce[A, T any](delay time.Duration, config *DebounceConfig, fn func(A) (T, error)) func(A) *Promise[T] {
	if fn == nil {
		panic(`pace: nil function`)
	}
	debouncer := NewDebouncer[T](delay, config)
	return func(arg A) *Promise[T] {
		return debouncer.Do(func() (T, error) { return fn(arg) })
	}
}

// Serialize wraps fn in a new [Queue], returning a function with the same
// parameter, that captures its argument into a thunk, and appends it to the
// queue. Every call is a distinct unit, with its own promise. The provided
// config may be nil.
//
// A panic will occur if fn is nil.
func Serialize[A, T any](config *QueueConfig, fn func(A) (T, error)) func(A) *Promise[T] {
	if fn == nil {
		panic(`pace: nil function`)
	}
	queue := NewQueue[T](config)
	return func(arg A) *Promise[T] {
		return queue.Do(func() (T, error) { return fn(arg) })
	}
}
