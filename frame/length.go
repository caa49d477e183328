package frame

import (
	"encoding/binary"
	"fmt"

	"github.com/ardnew/softrmii/pkg"
)

// DetermineLength finds where a frame ends inside trailing capture noise.
//
// For each i from 4 to maxLength the running check sequence of data[:i-4] is
// compared with the little-endian word data[i-4:i]. The first match yields
// the payload length i-4. maxLength is clamped to len(data).
func DetermineLength(data []byte, maxLength int) (int, error) {
	if maxLength > len(data) {
		maxLength = len(data)
	}

	var crc uint32
	for i := FCSSize; i <= maxLength; i++ {
		if crc == binary.LittleEndian.Uint32(data[i-FCSSize:]) {
			return i - FCSSize, nil
		}
		crc = updateByte(crc, data[i-FCSSize])
	}
	return 0, fmt.Errorf("determine length of %d bytes: %w", maxLength, pkg.ErrFCSMismatch)
}
