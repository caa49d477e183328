package link

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/ardnew/softrmii/frame"
	"github.com/ardnew/softrmii/hal"
	"github.com/ardnew/softrmii/pkg"
	"github.com/ardnew/softrmii/queue"
)

// RxState is the receive half's capture state.
type RxState uint8

// Receive states.
const (
	RxIdle      RxState = iota // No capture armed; retried on Poll
	RxCapturing                // A record is reserved and the engine is armed
)

// String returns a human-readable state name.
func (s RxState) String() string {
	switch s {
	case RxIdle:
		return "idle"
	case RxCapturing:
		return "capturing"
	default:
		return fmt.Sprintf("RxState(%d)", uint8(s))
	}
}

// Stats is a snapshot of driver counters.
type Stats struct {
	RxFrames        uint64 // Captures committed to the receive ring
	RxBytes         uint64
	RxOverruns      uint64 // Captures that filled their record
	RxStalls        uint64 // Failed attempts to reserve a capture record
	TxFrames        uint64 // Records handed to the transmit engine
	TxBytes         uint64
	TxAllocFailures uint64
}

type counters struct {
	rxFrames        atomic.Uint64
	rxBytes         atomic.Uint64
	rxOverruns      atomic.Uint64
	rxStalls        atomic.Uint64
	txFrames        atomic.Uint64
	txBytes         atomic.Uint64
	txAllocFailures atomic.Uint64
}

// txOverhead is the transmit record space around each frame.
const txOverhead = hal.TxHeaderSize + hal.TxPadMax

// Driver moves frames between the RMII engines and two packet rings.
//
// The receive half is driven by the engine's completion handler and by Poll.
// Every mutation of receive state happens under the receive lock, which is
// held only for ring bookkeeping. The transmit half is driven by Poll alone
// and guarded by its own lock so TxAlloc and TxCommit may be called from any
// goroutine.
type Driver struct {
	cfg Config
	rx  hal.ReceiveEngine
	tx  hal.TransmitEngine

	rxLock    sync.Locker
	rxQueue   *queue.Ring
	rxState   RxState
	rxCurrent queue.Record
	rxReserve int

	txLock    sync.Locker
	txQueue   *queue.Ring
	txCurrent queue.Record
	txPending queue.Record
	txPolling atomic.Bool

	stats counters
}

// New creates a driver over the given engines and registers its receive
// completion handler. Capture starts on the first Poll.
func New(cfg Config, rx hal.ReceiveEngine, tx hal.TransmitEngine) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Phase == 0 {
		cfg.Phase = frame.DefaultPhase
	}

	d := &Driver{
		cfg:       cfg,
		rx:        rx,
		tx:        tx,
		rxLock:    cfg.Lock,
		rxQueue:   queue.NewSize(cfg.RxQueueSize),
		rxReserve: cfg.RxReserve(),
		txLock:    &SpinLock{},
		txQueue:   queue.NewSize(cfg.TxQueueSize),
	}
	if d.rxLock == nil {
		d.rxLock = &SpinLock{}
	}

	rx.OnComplete(d.rxComplete)

	pkg.LogDebug(pkg.ComponentLink, "driver created",
		"mtu", cfg.MTU,
		"rxQueue", cfg.RxQueueSize,
		"txQueue", cfg.TxQueueSize,
		"rxReserve", d.rxReserve,
		"phase", cfg.Phase.String())

	return d, nil
}

// Config returns the driver configuration.
func (d *Driver) Config() Config {
	return d.cfg
}

// Stats returns a snapshot of the driver counters.
func (d *Driver) Stats() Stats {
	return Stats{
		RxFrames:        d.stats.rxFrames.Load(),
		RxBytes:         d.stats.rxBytes.Load(),
		RxOverruns:      d.stats.rxOverruns.Load(),
		RxStalls:        d.stats.rxStalls.Load(),
		TxFrames:        d.stats.txFrames.Load(),
		TxBytes:         d.stats.txBytes.Load(),
		TxAllocFailures: d.stats.txAllocFailures.Load(),
	}
}

// Poll services both halves: it recovers from a receive overrun, re-arms a
// stalled capture and starts the next queued transmit record. Call it
// regularly from the foreground loop. A Poll that overlaps another Poll's
// transmit start skips the transmit half.
func (d *Driver) Poll() {
	d.rxLock.Lock()
	if d.rxState == RxCapturing && !d.rx.Busy() {
		// The engine filled its target and halted without a completion.
		pkg.LogWarn(pkg.ComponentLink, "buffer overrun",
			"reserved", d.rxReserve)
		d.stats.rxOverruns.Add(1)
		d.completeRx()
	}
	d.tryStartRx()
	d.rxLock.Unlock()

	// The engine may block in Start, so it runs without the transmit lock.
	// The current record stays at the ring head until a later Poll retires it.
	if !d.txPolling.CompareAndSwap(false, true) {
		return
	}
	defer d.txPolling.Store(false)

	d.txLock.Lock()
	span, ok := d.pollTx()
	d.txLock.Unlock()
	if ok {
		d.tx.Start(span)
	}
}

// Dump writes the layout of both rings to w.
func (d *Driver) Dump(w io.Writer) {
	d.rxLock.Lock()
	fmt.Fprintf(w, "rx (%s):\n", d.rxState)
	d.rxQueue.Dump(w)
	d.rxLock.Unlock()

	d.txLock.Lock()
	fmt.Fprintln(w, "tx:")
	d.txQueue.Dump(w)
	d.txLock.Unlock()
}
