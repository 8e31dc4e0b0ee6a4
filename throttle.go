package pace

import (
	"fmt"
	"sync"
	"time"

	"github.com/joeycumines/logiface"
)

// ThrottleConfig models optional configuration, for [NewThrottler] and
// [NewThrottleGroup].
type ThrottleConfig struct {
	// Logger optionally receives debug-level window lifecycle events.
	// May be nil.
	Logger *logiface.Logger[logiface.Event]

	// Sequence selects the window-closing policy.
	// **Defaults to SequenceSerial.**
	Sequence Sequence
}

// Throttler rate-controls work against a single window at a time: the first
// call opens a window and invokes its thunk eagerly, every call arriving
// while that window is open joins it (receiving the same [Promise], without
// invoking anything), and a call arriving after the window has closed opens a
// brand-new window.
//
// When the window closes is governed by [Sequence].
// Instances must be initialized using the [NewThrottler] factory.
type Throttler[T any] struct {
	group *ThrottleGroup[struct{}, T]
}

// ThrottleGroup is a [Throttler] per routing key: each key throttles
// independently, against its own window. Map entries are created on first
// call for a key, and removed when that key's window closes.
//
// Pointer keys may be used to scope throttling per receiver instance.
// Instances must be initialized using the [NewThrottleGroup] factory.
type ThrottleGroup[K comparable, T any] struct {
	logger   *logiface.Logger[logiface.Event]
	windows  map[K]*window[T]
	delay    time.Duration
	sequence Sequence
	mu       sync.Mutex
}

// NewThrottler initializes a new Throttler, using the provided delay and
// ThrottleConfig. The provided config may be nil. A panic will occur if the
// delay is negative, or an invalid sequence is provided.
func NewThrottler[T any](delay time.Duration, config *ThrottleConfig) *Throttler[T] {
	return &Throttler[T]{group: NewThrottleGroup[struct{}, T](delay, config)}
}

// Do joins the open window, if any, or opens a new one, eagerly invoking
// thunk. The returned promise is shared by every caller that joined the same
// window. A panic will occur if thunk is nil.
func (x *Throttler[T]) Do(thunk Thunk[T]) *Promise[T] {
	return x.group.Do(struct{}{}, thunk)
}

// NewThrottleGroup initializes a new ThrottleGroup, using the provided delay
// and ThrottleConfig. The provided config may be nil. A panic will occur if
// the delay is negative, or an invalid sequence is provided.
func NewThrottleGroup[K comparable, T any](delay time.Duration, config *ThrottleConfig) *ThrottleGroup[K, T] {
	if delay < 0 {
		panic(fmt.Errorf(`pace: negative delay: %s`, delay))
	}

	x := &ThrottleGroup[K, T]{
		delay:   delay,
		windows: make(map[K]*window[T]),
	}

	if config != nil {
		x.sequence = config.Sequence
		x.logger = config.Logger
	}

	if !x.sequence.valid() {
		panic(fmt.Errorf(`pace: invalid sequence: %d`, x.sequence))
	}

	return x
}

// Do joins key's open window, if any, or opens a new one, eagerly invoking
// thunk. The returned promise is shared by every caller that joined the same
// window. Distinct keys never throttle against each other. A panic will occur
// if thunk is nil.
func (x *ThrottleGroup[K, T]) Do(key K, thunk Thunk[T]) *Promise[T] {
	if thunk == nil {
		panic(`pace: nil thunk`)
	}

	x.mu.Lock()

	if w := x.windows[key]; w != nil {
		x.mu.Unlock()
		return w.promise
	}

	w := newWindow[T](x.delay, x.sequence, x.logger)
	w.dispose = func() {
		x.mu.Lock()
		if x.windows[key] == w {
			delete(x.windows, key)
		}
		x.mu.Unlock()
	}
	if x.sequence == SequenceGap {
		// the delay applies after completion, see SequenceGap
		w.onSettled = w.armLocked
	}
	x.windows[key] = w

	x.mu.Unlock()

	x.logger.Debug().
		Stringer(`sequence`, x.sequence).
		Dur(`delay`, x.delay).
		Log(`throttle window opened`)

	if x.sequence != SequenceGap {
		w.arm()
	}
	w.execute(thunk)

	return w.promise
}

// Len returns the number of open windows.
func (x *ThrottleGroup[K, T]) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.windows)
}
