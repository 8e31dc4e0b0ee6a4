package pace

import (
	"sync"
	"time"

	"github.com/joeycumines/logiface"
)

// Sequence selects the window-closing policy of a throttle or debounce
// window, i.e. how the elapsed delay and the in-flight execution combine to
// determine when the window stops accepting joiners.
type Sequence int

const (
	// SequenceSerial closes the window only once the delay has elapsed AND
	// the execution has settled. A new window cannot overlap the previous
	// execution. This is the default, for both throttle and debounce.
	SequenceSerial Sequence = iota

	// SequenceConcurrent closes the window as soon as the delay has elapsed,
	// regardless of whether the execution has settled. A new window may open
	// while the previous execution is still in flight.
	SequenceConcurrent

	// SequenceGap defers the delay until after the execution has settled,
	// guaranteeing a minimum idle period between successive completions.
	// Valid for throttle only.
	SequenceGap
)

// String returns the string representation of the sequence mode.
func (s Sequence) String() string {
	switch s {
	case SequenceSerial:
		return `serial`
	case SequenceConcurrent:
		return `concurrent`
	case SequenceGap:
		return `gap`
	default:
		return `unknown`
	}
}

func (s Sequence) valid() bool {
	return s >= SequenceSerial && s <= SequenceGap
}

// for testing purposes
var timerAfterFunc = time.AfterFunc

// window is the timing-window state machine shared by throttle and debounce.
//
// It owns one shared promise, one timer, and the execution bookkeeping, and
// is specialized via two hooks: onTimeout runs when the (current) timer
// fires, onSettled runs when the executed thunk settles. Both hooks run with
// mu held. Close readiness is re-evaluated after either event, in whichever
// order they occur, and closing is idempotent: the timer is stopped and the
// dispose callback runs exactly once, outside mu.
type window[T any] struct {
	onTimeout func()
	onSettled func()
	dispose   func()
	logger    *logiface.Logger[logiface.Event]
	promise   *Promise[T]
	pending   Thunk[T]
	timer     *time.Timer
	delay     time.Duration
	sequence  Sequence
	timerGen  uint64
	timedOut  bool
	fired     bool
	settled   bool
	closed    bool
	mu        sync.Mutex
}

func newWindow[T any](delay time.Duration, sequence Sequence, logger *logiface.Logger[logiface.Event]) *window[T] {
	return &window[T]{
		delay:    delay,
		sequence: sequence,
		logger:   logger,
		promise:  newPromise[T](),
	}
}

// arm (re)starts the window's timer for the configured delay.
func (x *window[T]) arm() {
	x.mu.Lock()
	x.armLocked()
	x.mu.Unlock()
}

// armLocked stops any previous timer, clears the timed-out flag, and starts a
// fresh timer. The generation counter guards against a superseded timer that
// already fired but has not yet acquired mu.
func (x *window[T]) armLocked() {
	if x.closed {
		return
	}

	if x.timer != nil {
		x.timer.Stop()
	}

	x.timedOut = false
	x.timerGen++
	gen := x.timerGen
	x.timer = timerAfterFunc(x.delay, func() { x.fire(gen) })
}

// fire is the timer callback.
func (x *window[T]) fire(gen uint64) {
	x.mu.Lock()
	if x.closed || gen != x.timerGen {
		x.mu.Unlock()
		return
	}

	x.timedOut = true
	if x.onTimeout != nil {
		x.onTimeout()
	}
	disposed := x.closeIfReadyLocked()
	x.mu.Unlock()

	if disposed {
		x.disposed()
	}
}

// plan records the most recent thunk, for hooks that execute it later (i.e.
// trailing-edge debounce). Last writer wins.
func (x *window[T]) plan(thunk Thunk[T]) {
	x.mu.Lock()
	x.pending = thunk
	x.mu.Unlock()
}

// execute invokes the thunk, at most once per window. Subsequent calls are
// no-ops, regardless of how many callers joined.
func (x *window[T]) execute(thunk Thunk[T]) {
	x.mu.Lock()
	x.executeLocked(thunk)
	x.mu.Unlock()
}

func (x *window[T]) executeLocked(thunk Thunk[T]) {
	if x.fired || thunk == nil {
		return
	}
	x.fired = true
	go x.run(thunk)
}

// run performs the actual work, settles the shared promise, then re-evaluates
// close readiness. Runs on its own goroutine.
func (x *window[T]) run(thunk Thunk[T]) {
	value, err := runThunk(thunk)
	if err != nil {
		x.logger.Debug().
			Err(err).
			Log(`window execution rejected`)
		x.promise.reject(err)
	} else {
		x.promise.resolve(value)
	}

	x.mu.Lock()
	x.settled = true
	if x.onSettled != nil {
		x.onSettled()
	}
	disposed := x.closeIfReadyLocked()
	x.mu.Unlock()

	if disposed {
		x.disposed()
	}
}

// closeIfReadyLocked transitions the window to closed, if the closing
// condition for its sequence mode is satisfied. It reports whether this call
// performed the transition, in which case the caller must invoke disposed,
// after releasing mu.
func (x *window[T]) closeIfReadyLocked() bool {
	if x.closed || !x.timedOut {
		return false
	}
	if x.sequence != SequenceConcurrent && !x.settled {
		return false
	}

	x.closed = true
	if x.timer != nil {
		x.timer.Stop()
		x.timer = nil
	}
	x.pending = nil

	return true
}

// disposed notifies the routing layer that the window is no longer reachable.
// Guarded by the closed flag, it runs exactly once per window.
func (x *window[T]) disposed() {
	if x.dispose != nil {
		x.dispose()
	}
	x.logger.Debug().
		Stringer(`sequence`, x.sequence).
		Dur(`delay`, x.delay).
		Log(`window closed`)
}
