package sim

import (
	"sync"
)

// DefaultTrailer is the number of idle bytes a Wire appends after each frame,
// standing in for samples taken after the transmitter drops TX_EN.
const DefaultTrailer = 4

// Skew returns src delayed by bits in LSB-first stream order. The vacated
// positions are taken from fill: whole bytes first, then its low bits.
func Skew(src []byte, bits int, fill byte) []byte {
	if bits < 0 {
		bits = 0
	}
	whole, part := bits/8, bits%8

	out := make([]byte, whole, whole+len(src)+1)
	for i := range out {
		out[i] = fill
	}
	if part == 0 {
		return append(out, src...)
	}

	carry := fill & (1<<part - 1)
	for _, b := range src {
		out = append(out, b<<part|carry)
		carry = b >> (8 - part)
	}
	return append(out, carry)
}

// Wire carries frames from a TxEngine to a peer RxEngine.
type Wire struct {
	mutex   sync.Mutex
	peer    *RxEngine
	skew    int
	fill    byte
	trailer int
	frames  uint64
}

// NewWire creates a wire delivering to peer with no skew.
func NewWire(peer *RxEngine) *Wire {
	return &Wire{
		peer:    peer,
		trailer: DefaultTrailer,
	}
}

// SetSkew sets the bit delay applied to each frame and the garbage the
// delay shifts in.
func (w *Wire) SetSkew(bits int, fill byte) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.skew = bits
	w.fill = fill
}

// SetTrailer sets the number of zero bytes appended after each frame.
func (w *Wire) SetTrailer(n int) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.trailer = max(n, 0)
}

// Frames returns the number of frames sent.
func (w *Wire) Frames() uint64 {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.frames
}

// Send puts one frame on the wire.
func (w *Wire) Send(frame []byte) {
	w.mutex.Lock()
	capture := Skew(frame, w.skew, w.fill)
	capture = append(capture, make([]byte, w.trailer)...)
	w.frames++
	peer := w.peer
	w.mutex.Unlock()

	if peer != nil {
		peer.Inject(capture)
	}
}

// Port is one end of a simulated link.
type Port struct {
	Rx   *RxEngine
	Tx   *TxEngine
	Wire *Wire // Outbound wire, toward the other port's Rx
}

// NewCrossover returns two ports wired TX to RX in both directions.
func NewCrossover() (a, b Port) {
	a.Rx = NewRxEngine()
	b.Rx = NewRxEngine()
	a.Wire = NewWire(b.Rx)
	b.Wire = NewWire(a.Rx)
	a.Tx = NewTxEngine(a.Wire)
	b.Tx = NewTxEngine(b.Wire)
	return a, b
}
