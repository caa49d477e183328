package sim

import (
	"sync"

	"github.com/ardnew/softrmii/hal"
	"github.com/ardnew/softrmii/pkg"
)

// TxEngine implements hal.TransmitEngine by decoding transmit records and
// sending their frames over a Wire.
//
// By default a record is sent and the engine goes idle before Start returns.
// In manual mode the engine stays busy with the record until Flush.
type TxEngine struct {
	mutex   sync.Mutex
	wire    *Wire
	manual  bool
	busy    bool
	pending []byte
	sent    uint64
}

// NewTxEngine creates a transmit engine sending to w.
func NewTxEngine(w *Wire) *TxEngine {
	return &TxEngine{wire: w}
}

// SetManual selects whether records wait for Flush.
func (e *TxEngine) SetManual(manual bool) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.manual = manual
}

// Start decodes rec and sends its frame.
func (e *TxEngine) Start(rec []byte) {
	var h hal.TxHeader
	if !hal.ParseTxHeader(rec, &h) || h.RecordBytes() > len(rec) {
		pkg.LogWarn(pkg.ComponentSim, "malformed transmit record",
			"bytes", len(rec))
		return
	}
	frame := append([]byte(nil), rec[hal.TxHeaderSize:hal.TxHeaderSize+h.FrameBytes()]...)

	e.mutex.Lock()
	e.busy = true
	if e.manual {
		e.pending = frame
		e.mutex.Unlock()
		return
	}
	e.mutex.Unlock()

	e.send(frame)
}

// Flush completes a record held in manual mode. It returns false if the
// engine was idle.
func (e *TxEngine) Flush() bool {
	e.mutex.Lock()
	frame := e.pending
	e.pending = nil
	busy := e.busy
	e.mutex.Unlock()

	if !busy {
		return false
	}
	e.send(frame)
	return true
}

func (e *TxEngine) send(frame []byte) {
	if e.wire != nil {
		e.wire.Send(frame)
	}
	e.mutex.Lock()
	e.busy = false
	e.sent++
	e.mutex.Unlock()
}

// Busy returns true while a record is in flight.
func (e *TxEngine) Busy() bool {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.busy
}

// Sent returns the number of frames sent.
func (e *TxEngine) Sent() uint64 {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.sent
}
