package hal

// Speed represents the negotiated Ethernet link speed.
type Speed uint8

// Link speed constants.
const (
	SpeedUnknown Speed = iota // No link or not resolved
	Speed10                   // 10BASE-T (10 Mbit/s)
	Speed100                  // 100BASE-TX (100 Mbit/s)
)

// String returns a human-readable speed name.
func (s Speed) String() string {
	switch s {
	case Speed10:
		return "10 Mbit/s"
	case Speed100:
		return "100 Mbit/s"
	default:
		return "Unknown"
	}
}

// Transmit record layout.
const (
	// TxHeaderSize is the size of the loop counter header preceding the
	// frame in a transmit record.
	TxHeaderSize = 8

	// TxPadMax is the largest number of padding bytes the transmit engine
	// reads after the frame.
	TxPadMax = 4
)

// TxHeader holds the two loop counters a transmit engine consumes before
// shifting out a frame. Both are stored as count minus one, the form a
// decrement-and-branch-if-nonzero loop expects.
type TxHeader struct {
	BitPairs uint32 // Dibits of frame data, minus one
	Pad      uint32 // Padding bytes after the frame, minus one
}

// NewTxHeader returns the header for an n-byte frame.
func NewTxHeader(n int) TxHeader {
	return TxHeader{
		BitPairs: uint32(n*4 - 1),
		Pad:      uint32(TxPadMax - n%TxPadMax - 1),
	}
}

// FrameBytes returns the number of frame bytes the engine shifts out.
func (h TxHeader) FrameBytes() int {
	return int(h.BitPairs+1) / 4
}

// PadBytes returns the number of padding bytes following the frame.
func (h TxHeader) PadBytes() int {
	return int(h.Pad) + 1
}

// RecordBytes returns the length of header, frame and padding together,
// which is the span handed to TransmitEngine.Start.
func (h TxHeader) RecordBytes() int {
	return TxHeaderSize + h.FrameBytes() + h.PadBytes()
}

// ParseTxHeader parses raw bytes into a TxHeader.
// Returns false if data is too short.
func ParseTxHeader(data []byte, out *TxHeader) bool {
	if len(data) < TxHeaderSize {
		return false
	}
	out.BitPairs = uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24
	out.Pad = uint32(data[4]) | uint32(data[5])<<8 | uint32(data[6])<<16 | uint32(data[7])<<24
	return true
}

// MarshalTo writes the header to buf as two little-endian words.
// Returns the number of bytes written (8), or 0 if buf is too small.
func (h TxHeader) MarshalTo(buf []byte) int {
	if len(buf) < TxHeaderSize {
		return 0
	}
	buf[0] = byte(h.BitPairs)
	buf[1] = byte(h.BitPairs >> 8)
	buf[2] = byte(h.BitPairs >> 16)
	buf[3] = byte(h.BitPairs >> 24)
	buf[4] = byte(h.Pad)
	buf[5] = byte(h.Pad >> 8)
	buf[6] = byte(h.Pad >> 16)
	buf[7] = byte(h.Pad >> 24)
	return TxHeaderSize
}

// PutTxHeader writes the header for an n-byte frame to the start of rec and
// returns the record span to transmit.
func PutTxHeader(rec []byte, n int) []byte {
	h := NewTxHeader(n)
	h.MarshalTo(rec)
	return rec[:h.RecordBytes()]
}

// ReceiveEngine captures raw samples from the RMII receive pins into memory.
//
// Implementations are typically a PIO state machine feeding a DMA channel.
// The engine runs until its target is full or it is aborted. The completion
// handler fires at the end of each receive burst and may run in interrupt
// context; it must not call back into the engine except through Abort,
// Written and Busy.
type ReceiveEngine interface {
	// Start arms the engine to write at most len(target) bytes into target.
	Start(target []byte)

	// Abort stops the engine. Written remains valid until the next Start.
	Abort()

	// Busy returns true while the engine is armed.
	Busy() bool

	// Written returns the bytes written into the target since Start.
	Written() int

	// OnComplete registers the end-of-burst handler.
	OnComplete(fn func())
}

// TransmitEngine shifts transmit records out on the RMII transmit pins.
type TransmitEngine interface {
	// Start begins transmitting rec, which starts with a TxHeader.
	// rec must stay valid until Busy returns false.
	Start(rec []byte)

	// Busy returns true while a record is being transmitted.
	Busy() bool
}

// Pin is a single GPIO line.
type Pin interface {
	// Set drives the line level when configured as an output.
	Set(high bool)

	// Get samples the line level.
	Get() bool

	// Output configures the line direction.
	Output(enable bool)
}
