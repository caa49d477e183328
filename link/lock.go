package link

import (
	"runtime"
	"sync/atomic"
)

// SpinLock is a busy-wait mutual exclusion lock. It never sleeps, so it may
// be taken from a receive completion handler. The zero value is unlocked.
//
// A SpinLock must only guard short sections; it yields the processor between
// attempts but does not park the goroutine.
type SpinLock struct {
	held atomic.Bool
}

// Lock acquires l, spinning until it is available.
func (l *SpinLock) Lock() {
	for !l.held.CompareAndSwap(false, true) {
		runtime.Gosched()
	}
}

// TryLock acquires l if it is free and reports whether it did.
func (l *SpinLock) TryLock() bool {
	return l.held.CompareAndSwap(false, true)
}

// Unlock releases l.
func (l *SpinLock) Unlock() {
	l.held.Store(false)
}
