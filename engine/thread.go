package engine

import (
	"context"
	"math/rand/v2"
	"sync/atomic"
	"unsafe"
)

// Thread bounds and can cancel a single top-level Call: a step counter
// and a cancellation pointer checked on every method activation, since
// unbounded backtracking over a buggy program is the direct-style
// engine's equivalent of a runaway loop.
type Thread struct {
	// Name is an optional label for diagnostics.
	Name string

	// Steps counts method activations since the Thread was created.
	Steps uint64

	// MaxSteps stops the search once Steps reaches it. Zero means
	// unlimited. OnMaxSteps, if set, is called instead of cancelling.
	MaxSteps  uint64
	OnMaxSteps func(*Thread)

	// Rand, if set, is the source the weighted-shuffle sampler and BranchStep's shuffle draw from instead of
	// math/rand/v2's unseedable global source. Set it via NewSeededThread
	// for reproducible runs (e.g. the CLI's --seed flag).
	Rand *rand.Rand

	cancelReason unsafe.Pointer // *string, set atomically
}

// NewThread returns a Thread with no step limit and the default,
// unseedable process-global random source.
func NewThread(name string) *Thread {
	return &Thread{Name: name}
}

// NewSeededThread returns a Thread whose weighted shuffles and branch
// shuffles are drawn from a PCG source seeded deterministically from
// seed, so two runs with the same seed try methods and branches in the
// same effective order.
func NewSeededThread(name string, seed uint64) *Thread {
	return &Thread{Name: name, Rand: rand.New(rand.NewPCG(seed, seed))}
}

// Step records one method activation and reports whether the search
// should continue (false means the step budget or cancellation kicked in).
func (t *Thread) Step() bool {
	t.Steps++
	if t.MaxSteps != 0 && t.Steps >= t.MaxSteps {
		if t.OnMaxSteps != nil {
			t.OnMaxSteps(t)
		} else {
			t.Cancel("too many steps")
		}
	}
	return !t.Cancelled()
}

// Cancel marks the thread cancelled with reason; in-flight evaluation
// observes this on the next Step call and unwinds.
func (t *Thread) Cancel(reason string) {
	atomic.StorePointer(&t.cancelReason, unsafe.Pointer(&reason))
}

// Resume clears a previous cancellation so the thread can drive another
// call; the step count and budget are preserved.
func (t *Thread) Resume() {
	atomic.StorePointer(&t.cancelReason, nil)
}

// Cancelled reports whether Cancel has been called.
func (t *Thread) Cancelled() bool {
	return atomic.LoadPointer(&t.cancelReason) != nil
}

// CancelReason returns the reason passed to Cancel, or "" if not cancelled.
func (t *Thread) CancelReason() string {
	p := (*string)(atomic.LoadPointer(&t.cancelReason))
	if p == nil {
		return ""
	}
	return *p
}

// WatchContext cancels the thread when ctx is done, using ctx.Err() as the
// reason. It is meant to be run in its own goroutine by callers that want
// external cancellation (e.g. a REPL SIGINT handler).
func (t *Thread) WatchContext(ctx context.Context) {
	<-ctx.Done()
	t.Cancel(ctx.Err().Error())
}
