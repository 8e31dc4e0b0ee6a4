package pace

import (
	"sync"

	"github.com/joeycumines/logiface"
)

// QueueConfig models optional configuration, for [NewQueue] and
// [NewQueueGroup].
type QueueConfig struct {
	// Logger optionally receives debug-level events. May be nil.
	Logger *logiface.Logger[logiface.Event]
}

// Queue executes units of work strictly one at a time, in FIFO order: each
// unit begins only once the prior unit has reached a final outcome, success
// or failure. A failing unit never stalls or poisons subsequent units, and
// each caller receives a distinct [Promise], reflecting only its own unit.
//
// The zero value is ready to use. Distinct queues never serialize against
// each other.
type Queue[T any] struct {
	logger *logiface.Logger[logiface.Event]
	tail   chan struct{}
	mu     sync.Mutex
}

// QueueGroup is a [Queue] per routing key: only calls sharing a key serialize
// against each other. Queues are created lazily, on first call for a key, and
// retained for the lifetime of the group (a drained queue holds no resources
// beyond the map entry).
//
// Pointer keys may be used to scope serialization per receiver instance.
// Instances must be initialized using the [NewQueueGroup] factory.
type QueueGroup[K comparable, T any] struct {
	logger *logiface.Logger[logiface.Event]
	queues map[K]*Queue[T]
	mu     sync.Mutex
}

// NewQueue initializes a new Queue, using the provided QueueConfig. The
// provided config may be nil.
func NewQueue[T any](config *QueueConfig) *Queue[T] {
	x := &Queue[T]{}
	if config != nil {
		x.logger = config.Logger
	}
	return x
}

// Do appends thunk to the queue, returning a promise for that unit's own
// outcome. The unit begins only once all previously queued units have
// settled. A panic will occur if thunk is nil.
func (x *Queue[T]) Do(thunk Thunk[T]) *Promise[T] {
	if thunk == nil {
		panic(`pace: nil thunk`)
	}

	p := newPromise[T]()
	done := make(chan struct{})

	x.mu.Lock()
	prev := x.tail
	x.tail = done
	x.mu.Unlock()

	go func() {
		if prev != nil {
			// the prior unit reached a final outcome (either way)
			<-prev
		}

		value, err := runThunk(thunk)
		if err != nil {
			x.logger.Debug().
				Err(err).
				Log(`queued unit rejected`)
			p.reject(err)
		} else {
			p.resolve(value)
		}

		x.mu.Lock()
		if x.tail == done {
			x.tail = nil // drained, release the chain
		}
		x.mu.Unlock()

		close(done)
	}()

	return p
}

// Idle reports whether the queue has no queued or running units.
func (x *Queue[T]) Idle() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.tail == nil
}

// NewQueueGroup initializes a new QueueGroup, using the provided QueueConfig.
// The provided config may be nil.
func NewQueueGroup[K comparable, T any](config *QueueConfig) *QueueGroup[K, T] {
	x := &QueueGroup[K, T]{queues: make(map[K]*Queue[T])}
	if config != nil {
		x.logger = config.Logger
	}
	return x
}

// Do appends thunk to key's queue, creating it if absent, returning a promise
// for that unit's own outcome. Units on distinct keys run concurrently,
// unconstrained by each other. A panic will occur if thunk is nil.
func (x *QueueGroup[K, T]) Do(key K, thunk Thunk[T]) *Promise[T] {
	x.mu.Lock()
	q := x.queues[key]
	if q == nil {
		q = &Queue[T]{logger: x.logger}
		x.queues[key] = q
	}
	x.mu.Unlock()

	return q.Do(thunk)
}

// Len returns the number of queues created so far.
func (x *QueueGroup[K, T]) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.queues)
}
