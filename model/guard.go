package model

import "golang.org/x/sync/semaphore"

// Guard is a single-slot semaphore around a side effect that must not run
// twice at once, such as creating or deleting a thread. Acquire it before
// issuing the command and release it when the result message arrives.
//
// All calls come from the Bubble Tea Update goroutine.
type Guard struct {
	sem  *semaphore.Weighted
	held bool
}

func NewGuard() *Guard {
	return &Guard{sem: semaphore.NewWeighted(1)}
}

// TryAcquire takes the slot without blocking. It returns false while the
// guarded operation is still in flight.
func (g *Guard) TryAcquire() bool {
	if !g.sem.TryAcquire(1) {
		return false
	}
	g.held = true
	return true
}

// Release frees the slot. Releasing a free guard is a no-op; the semaphore
// itself panics on an unmatched release.
func (g *Guard) Release() {
	if !g.held {
		return
	}
	g.held = false
	g.sem.Release(1)
}

func (g *Guard) Busy() bool {
	return g.held
}
