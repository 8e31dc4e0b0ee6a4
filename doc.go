// Package pace implements call-rate-control primitives, which wrap arbitrary
// units of work, and control their invocation timing: throttle (eager
// invocation, at most once per window), debounce (invocation on the leading or
// trailing edge of a burst), and serialize (strict FIFO execution, isolating
// failures). All three yield single-assignment futures, shared by every caller
// that lands in the same window, or distinct per unit, for the serial queue.
//
// It is intended for in-process coalescing and pacing of expensive calls,
// e.g. cache refreshes, API fan-in, or write batching, where callers need the
// eventual result, not just suppression of extra calls.
package pace
