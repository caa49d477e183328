package serial

// SLIP (RFC 1055) special characters.
const (
	slipEnd    = 0xC0
	slipEsc    = 0xDB
	slipEscEnd = 0xDC
	slipEscEsc = 0xDD
)

// AppendSLIP appends packet to dst as a SLIP frame delimited by END on both
// sides.
func AppendSLIP(dst, packet []byte) []byte {
	dst = append(dst, slipEnd)
	for _, b := range packet {
		switch b {
		case slipEnd:
			dst = append(dst, slipEsc, slipEscEnd)
		case slipEsc:
			dst = append(dst, slipEsc, slipEscEsc)
		default:
			dst = append(dst, b)
		}
	}
	return append(dst, slipEnd)
}

// SLIPDecoder splits a byte stream into SLIP packets.
type SLIPDecoder struct {
	buf      []byte
	max      int
	escaped  bool
	overflow bool

	// Dropped counts packets discarded for exceeding the size limit.
	Dropped uint64
	// Errors counts invalid escape sequences.
	Errors uint64
}

// NewSLIPDecoder creates a decoder that discards packets longer than max.
func NewSLIPDecoder(max int) *SLIPDecoder {
	return &SLIPDecoder{
		buf: make([]byte, 0, max),
		max: max,
	}
}

// Feed decodes data and calls emit for each complete, non-empty packet.
// The slice passed to emit is reused after emit returns.
func (d *SLIPDecoder) Feed(data []byte, emit func([]byte)) {
	for _, b := range data {
		if b == slipEnd {
			if d.overflow {
				d.Dropped++
			} else if len(d.buf) > 0 {
				emit(d.buf)
			}
			d.buf = d.buf[:0]
			d.escaped = false
			d.overflow = false
			continue
		}

		if d.escaped {
			d.escaped = false
			switch b {
			case slipEscEnd:
				b = slipEnd
			case slipEscEsc:
				b = slipEsc
			default:
				d.Errors++
			}
		} else if b == slipEsc {
			d.escaped = true
			continue
		}

		if len(d.buf) >= d.max {
			d.overflow = true
			continue
		}
		d.buf = append(d.buf, b)
	}
}
