package frame

import (
	"encoding/binary"
	"fmt"
	"io"
)

// EncodedLen returns the wire size of an n-byte payload.
func EncodedLen(n int) int {
	return HeaderSize + max(n, MinPayload) + FCSSize
}

// Encode writes payload to dst as a complete wire frame: preamble, delimiter,
// payload zero padded to MinPayload, and the little-endian check sequence.
// It returns the number of bytes written.
func Encode(dst, payload []byte) (int, error) {
	size := EncodedLen(len(payload))
	if len(dst) < size {
		return 0, fmt.Errorf("encode %d byte payload into %d bytes: %w",
			len(payload), len(dst), io.ErrShortBuffer)
	}

	for i := 0; i < PreambleSize; i++ {
		dst[i] = 0x55
	}
	dst[PreambleSize] = SFD

	body := dst[HeaderSize : size-FCSSize]
	n := copy(body, payload)
	clear(body[n:])

	binary.LittleEndian.PutUint32(dst[size-FCSSize:], GenerateFCS(body))
	return size, nil
}
