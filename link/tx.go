package link

import (
	"fmt"
	"log/slog"

	"github.com/ardnew/softrmii/hal"
	"github.com/ardnew/softrmii/pkg"
	"github.com/ardnew/softrmii/queue"
)

// TxAlloc reserves room for an n-byte wire frame and returns the window to
// fill. Only one allocation may be pending; a second call before TxCommit
// panics. Returns pkg.ErrAllocationExhausted if the transmit ring is full.
func (d *Driver) TxAlloc(n int) ([]byte, error) {
	d.txLock.Lock()
	defer d.txLock.Unlock()

	pkg.Assert(!d.txPending.Valid(), "transmit allocation already pending")

	rec, err := d.txQueue.Reserve(n + txOverhead)
	if err != nil {
		d.stats.txAllocFailures.Add(1)
		return nil, fmt.Errorf("tx alloc: %w", err)
	}
	d.txPending = rec

	end := hal.TxHeaderSize + n
	return rec.Bytes()[hal.TxHeaderSize:end:end], nil
}

// TxCommit queues the pending allocation, truncated to n frame bytes.
// It panics if nothing is pending or n exceeds the allocation.
func (d *Driver) TxCommit(n int) {
	d.txLock.Lock()
	defer d.txLock.Unlock()

	pkg.Assert(d.txPending.Valid(), "transmit commit without allocation")
	avail := d.txPending.Len() - txOverhead
	pkg.Assert(n >= 0 && n <= avail, "transmit commit of %d bytes to a %d byte allocation", n, avail)

	d.txQueue.Commit(d.txPending, n+txOverhead)
	d.txPending = queue.Record{}
}

// pollTx retires a finished record and prepares the next one, returning the
// span to hand to the engine. The transmit lock must be held; the caller
// starts the engine after releasing it.
func (d *Driver) pollTx() ([]byte, bool) {
	if d.tx.Busy() {
		return nil, false
	}

	if d.txCurrent.Valid() {
		d.txQueue.Consume()
		d.txCurrent = queue.Record{}
	}

	rec, ok := d.txQueue.Peek()
	if !ok || rec == d.txPending {
		return nil, false
	}

	buf := rec.Bytes()
	n := len(buf) - txOverhead
	clear(buf[hal.TxHeaderSize+n:])
	span := hal.PutTxHeader(buf, n)

	d.txCurrent = rec
	d.stats.txFrames.Add(1)
	d.stats.txBytes.Add(uint64(n))

	if pkg.LogEnabled(slog.LevelDebug) {
		pkg.LogDebug(pkg.ComponentLink, "transmit started",
			"bytes", n,
			"record", rec.String())
	}
	return span, true
}
