// Package frame recovers and builds Ethernet frames at the RMII sample level.
//
// A receive engine captures the wire without knowing where a frame starts, so
// a capture begins with an arbitrary bit rotation of the preamble. [Locate]
// finds the start-of-frame delimiter at any supported [Phase] and [Realign]
// shifts the remainder back onto byte boundaries. The capture also ends at an
// arbitrary point past the check sequence; [DetermineLength] finds the first
// offset whose running CRC-32 equals the four bytes that follow it.
//
// [Codec.Validate] combines both steps:
//
//	c := frame.Codec{Phase: frame.PhaseDibit}
//	n, err := c.Validate(capture)
//	if err != nil {
//	    // pkg.ErrFraming, pkg.ErrRunt or pkg.ErrFCSMismatch
//	}
//	payload := capture[:n]
//
// On transmit, [Encode] writes the preamble, the delimiter, the payload padded
// to [MinPayload] and the little-endian check sequence.
package frame
