package frame

import (
	"fmt"

	"github.com/ardnew/softrmii/pkg"
)

// Frame layout constants.
const (
	// PreambleSize is the count of 0x55 bytes preceding the delimiter.
	PreambleSize = 7

	// SFD is the start-of-frame delimiter.
	SFD byte = 0xD5

	// HeaderSize is the preamble plus the delimiter.
	HeaderSize = PreambleSize + 1

	// FCSSize is the length of the trailing check sequence.
	FCSSize = 4

	// MinPayload is the shortest payload put on the wire; shorter frames
	// are zero padded.
	MinPayload = 60

	// SyncPattern is the accumulator value after the last preamble bits and
	// the delimiter have been shifted in.
	SyncPattern uint32 = 0xAAAAAAAB
)

// Codec validates raw captures.
//
// The zero value uses DefaultPhase.
type Codec struct {
	Phase Phase
}

// Validate realigns capture in place and returns the payload length,
// excluding the check sequence. The payload is capture[:n].
func (c Codec) Validate(capture []byte) (int, error) {
	n, err := LocateFrame(capture, c.Phase)
	if err != nil {
		return 0, err
	}
	if n < FCSSize {
		return 0, fmt.Errorf("validate %d bytes: %w", n, pkg.ErrRunt)
	}
	length, err := DetermineLength(capture[:n], n)
	if err != nil {
		return 0, err
	}
	pkg.LogDebug(pkg.ComponentFrame, "frame validated",
		"capture", len(capture),
		"length", length)
	return length, nil
}
