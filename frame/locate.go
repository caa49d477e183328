package frame

import (
	"fmt"

	"github.com/ardnew/softrmii/pkg"
)

// Locate scans capture for the preamble and start-of-frame delimiter.
//
// Bits are shifted into a 32-bit accumulator least significant bit of each
// byte first. Before each bit at a multiple of phase, the accumulator is
// compared with SyncPattern; a match means the frame begins at bit shift of
// byte index. Returns pkg.ErrFraming if no delimiter is found.
func Locate(capture []byte, phase Phase) (index, shift int, err error) {
	step := int(phase.orDefault())

	var sync uint32
	for i, b := range capture {
		for j := 0; j < 8; j++ {
			if j%step == 0 && sync == SyncPattern {
				return i, j, nil
			}
			sync = sync<<1 | uint32(b>>j)&1
		}
	}
	return 0, 0, fmt.Errorf("locate in %d bytes: %w", len(capture), pkg.ErrFraming)
}

// Realign writes the bit stream of src, advanced by shift bits, into dst as
// whole bytes and returns the number written, which is len(src)-1.
//
// dst may share storage with src provided dst does not start after src.
func Realign(dst, src []byte, shift int) int {
	n := 0
	for k := 0; k < len(src)-1; k++ {
		dst[n] = src[k+1]<<(8-shift) | src[k]>>shift
		n++
	}
	return n
}

// LocateFrame finds the delimiter in buf and realigns the frame that follows
// it to the start of buf, in place. It returns the realigned length.
func LocateFrame(buf []byte, phase Phase) (int, error) {
	i, j, err := Locate(buf, phase)
	if err != nil {
		return 0, err
	}
	return Realign(buf, buf[i:], j), nil
}
