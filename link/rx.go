package link

import (
	"github.com/ardnew/softrmii/queue"
)

// rxComplete is the receive engine's end-of-burst handler.
func (d *Driver) rxComplete() {
	d.rxLock.Lock()
	defer d.rxLock.Unlock()

	if d.rxState != RxCapturing {
		return
	}
	d.completeRx()
	d.tryStartRx()
}

// completeRx stops the engine and commits what it wrote.
// The receive lock must be held.
func (d *Driver) completeRx() {
	d.rx.Abort()
	n := d.rx.Written()

	d.rxQueue.Commit(d.rxCurrent, n)
	d.rxCurrent = queue.Record{}
	d.rxState = RxIdle

	d.stats.rxFrames.Add(1)
	d.stats.rxBytes.Add(uint64(n))
}

// tryStartRx reserves a capture record and arms the engine. On an exhausted
// ring the driver stays idle until a later Poll.
// The receive lock must be held.
func (d *Driver) tryStartRx() {
	if d.rxState == RxCapturing {
		return
	}

	rec, err := d.rxQueue.Reserve(d.rxReserve)
	if err != nil {
		d.stats.rxStalls.Add(1)
		return
	}

	d.rxCurrent = rec
	d.rxState = RxCapturing
	d.rx.Start(rec.Bytes())
}

// RxState returns the current capture state.
func (d *Driver) RxState() RxState {
	d.rxLock.Lock()
	defer d.rxLock.Unlock()
	return d.rxState
}

// head returns the oldest completed capture.
// The receive lock must be held.
func (d *Driver) head() (queue.Record, bool) {
	rec, ok := d.rxQueue.Peek()
	if !ok || (d.rxState == RxCapturing && rec == d.rxCurrent) {
		return queue.Record{}, false
	}
	return rec, true
}

// RxAvailable returns true if a completed capture is waiting.
func (d *Driver) RxAvailable() bool {
	d.rxLock.Lock()
	defer d.rxLock.Unlock()
	_, ok := d.head()
	return ok
}

// RxPacket returns the oldest completed capture without copying. The slice
// is valid until RxConsume. A capture still in progress is never returned.
func (d *Driver) RxPacket() ([]byte, bool) {
	d.rxLock.Lock()
	defer d.rxLock.Unlock()
	rec, ok := d.head()
	if !ok {
		return nil, false
	}
	return rec.Bytes(), true
}

// RxConsume releases the capture returned by RxPacket.
func (d *Driver) RxConsume() {
	d.rxLock.Lock()
	defer d.rxLock.Unlock()
	if _, ok := d.head(); ok {
		d.rxQueue.Consume()
	}
}
