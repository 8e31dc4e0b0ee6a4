package pace

import (
	"fmt"
	"sync"
	"time"

	"github.com/joeycumines/logiface"
)

// Edge selects which call of a burst triggers a debounced invocation.
type Edge int

const (
	// EdgeTrailing invokes the most recently provided thunk, once the delay
	// finally elapses without a subsequent call. This is the default.
	EdgeTrailing Edge = iota

	// EdgeLeading invokes the first call's thunk, immediately on opening the
	// window. Thunks from subsequent calls joining the window are discarded.
	EdgeLeading
)

// String returns the string representation of the edge.
func (e Edge) String() string {
	switch e {
	case EdgeTrailing:
		return `trailing`
	case EdgeLeading:
		return `leading`
	default:
		return `unknown`
	}
}

func (e Edge) valid() bool {
	return e == EdgeTrailing || e == EdgeLeading
}

// DebounceConfig models optional configuration, for [NewDebouncer] and
// [NewDebounceGroup].
type DebounceConfig struct {
	// Logger optionally receives debug-level window lifecycle events.
	// May be nil.
	Logger *logiface.Logger[logiface.Event]

	// Edge selects which call of a burst triggers the invocation.
	// **Defaults to EdgeTrailing.**
	Edge Edge

	// Sequence selects the window-closing policy.
	// **Defaults to SequenceSerial.** SequenceGap is not valid for debounce.
	Sequence Sequence
}

// Debouncer coalesces a burst of calls into (at most) one invocation. Every
// call re-arms the window's timer for the full delay, and receives the
// window's shared [Promise]. With [EdgeTrailing] the invocation happens only
// once the timer finally fires, using the latest call's thunk; with
// [EdgeLeading] it happens immediately on the burst's first call.
//
// With [SequenceSerial] the window remains open, continuing to absorb calls
// into the same promise, until the invocation settles. With
// [SequenceConcurrent] it closes strictly when the delay elapses, leaving any
// in-flight invocation to settle in the background.
//
// Instances must be initialized using the [NewDebouncer] factory.
type Debouncer[T any] struct {
	group *DebounceGroup[struct{}, T]
}

// DebounceGroup is a [Debouncer] per routing key: each key debounces
// independently, against its own window. Map entries are created on first
// call for a key, and removed when that key's window closes.
//
// Pointer keys may be used to scope debouncing per receiver instance.
// Instances must be initialized using the [NewDebounceGroup] factory.
type DebounceGroup[K comparable, T any] struct {
	logger   *logiface.Logger[logiface.Event]
	windows  map[K]*window[T]
	delay    time.Duration
	edge     Edge
	sequence Sequence
	mu       sync.Mutex
}

// NewDebouncer initializes a new Debouncer, using the provided delay and
// DebounceConfig. The provided config may be nil. A panic will occur if the
// delay is negative, or an invalid edge or sequence is provided.
func NewDebouncer[T any](delay time.Duration, config *DebounceConfig) *Debouncer[T] {
	return &Debouncer[T]{group: NewDebounceGroup[struct{}, T](delay, config)}
}

// Do joins the open window, if any, or opens a new one, then plans thunk and
// re-arms the timer. The returned promise is shared by every caller that
// joined the same window. A panic will occur if thunk is nil.
func (x *Debouncer[T]) Do(thunk Thunk[T]) *Promise[T] {
	return x.group.Do(struct{}{}, thunk)
}

// NewDebounceGroup initializes a new DebounceGroup, using the provided delay
// and DebounceConfig. The provided config may be nil. A panic will occur if
// the delay is negative, or an invalid edge or sequence is provided.
func NewDebounceGroup[K comparable, T any](delay time.Duration, config *DebounceConfig) *DebounceGroup[K, T] {
	if delay < 0 {
		panic(fmt.Errorf(`pace: negative delay: %s`, delay))
	}

	x := &DebounceGroup[K, T]{
		delay:   delay,
		windows: make(map[K]*window[T]),
	}

	if config != nil {
		x.edge = config.Edge
		x.sequence = config.Sequence
		x.logger = config.Logger
	}

	if !x.edge.valid() {
		panic(fmt.Errorf(`pace: invalid edge: %d`, x.edge))
	}
	if !x.sequence.valid() || x.sequence == SequenceGap {
		panic(fmt.Errorf(`pace: invalid debounce sequence: %d`, x.sequence))
	}

	return x
}

// Do joins key's open window, if any, or opens a new one, then plans thunk
// (last writer wins) and re-arms the timer for the full delay. The returned
// promise is shared by every caller that joined the same window. Distinct
// keys never debounce against each other. A panic will occur if thunk is nil.
func (x *DebounceGroup[K, T]) Do(key K, thunk Thunk[T]) *Promise[T] {
	if thunk == nil {
		panic(`pace: nil thunk`)
	}

	x.mu.Lock()

	w := x.windows[key]
	first := w == nil
	if first {
		w = newWindow[T](x.delay, x.sequence, x.logger)
		w.dispose = func() {
			x.mu.Lock()
			if x.windows[key] == w {
				delete(x.windows, key)
			}
			x.mu.Unlock()
		}
		if x.edge == EdgeTrailing {
			w.onTimeout = func() { w.executeLocked(w.pending) }
		}
		x.windows[key] = w
	}

	x.mu.Unlock()

	if first {
		x.logger.Debug().
			Stringer(`edge`, x.edge).
			Stringer(`sequence`, x.sequence).
			Dur(`delay`, x.delay).
			Log(`debounce window opened`)
	}

	w.plan(thunk)
	w.arm()

	if first && x.edge == EdgeLeading {
		w.execute(thunk)
	}

	return w.promise
}

// Len returns the number of open windows.
func (x *DebounceGroup[K, T]) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.windows)
}
