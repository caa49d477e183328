package sim

import (
	"sync"

	"github.com/ardnew/softrmii/pkg"
)

// RxStats counts what happened to injected captures.
type RxStats struct {
	Captures uint64 // Delivered with a completion
	Missed   uint64 // Arrived while the engine was not armed
	Overruns uint64 // Filled the target and halted the engine
}

// RxEngine implements hal.ReceiveEngine over injected captures.
//
// It models a DMA channel writing 32-bit words: a capture shorter than the
// room left is followed by zero padding to a word boundary and raises the
// completion handler, and the engine stays armed until it is aborted. A
// capture larger than the room left fills the target and halts the engine
// without a completion.
type RxEngine struct {
	mutex    sync.Mutex
	target   []byte
	written  int
	busy     bool
	complete func()
	stats    RxStats
}

// NewRxEngine creates an idle receive engine.
func NewRxEngine() *RxEngine {
	return &RxEngine{}
}

// Start arms the engine on target.
func (e *RxEngine) Start(target []byte) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.target = target
	e.written = 0
	e.busy = true
}

// Abort disarms the engine.
func (e *RxEngine) Abort() {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.busy = false
}

// Busy returns true while the engine is armed.
func (e *RxEngine) Busy() bool {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.busy
}

// Written returns the bytes written since Start.
func (e *RxEngine) Written() int {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.written
}

// OnComplete registers the completion handler.
func (e *RxEngine) OnComplete(fn func()) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.complete = fn
}

// Stats returns a snapshot of the engine counters.
func (e *RxEngine) Stats() RxStats {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.stats
}

// Inject delivers one receive burst to the engine. The completion handler,
// if any, runs on the calling goroutine after the engine state is updated.
func (e *RxEngine) Inject(capture []byte) {
	e.mutex.Lock()

	if !e.busy {
		e.stats.Missed++
		e.mutex.Unlock()
		pkg.LogDebug(pkg.ComponentSim, "capture missed",
			"bytes", len(capture))
		return
	}

	room := len(e.target) - e.written
	if len(capture) > room {
		copy(e.target[e.written:], capture[:room])
		e.written = len(e.target)
		e.busy = false
		e.stats.Overruns++
		e.mutex.Unlock()
		pkg.LogDebug(pkg.ComponentSim, "capture overran target",
			"bytes", len(capture),
			"room", room)
		return
	}

	e.written += copy(e.target[e.written:], capture)
	for e.written%4 != 0 && e.written < len(e.target) {
		e.target[e.written] = 0
		e.written++
	}
	e.stats.Captures++
	fn := e.complete
	e.mutex.Unlock()

	if fn != nil {
		fn()
	}
}
