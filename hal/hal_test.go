package hal

import (
	"bytes"
	"testing"
)

// =============================================================================
// Speed Tests
// =============================================================================

func TestSpeed_String(t *testing.T) {
	tests := []struct {
		speed    Speed
		expected string
	}{
		{SpeedUnknown, "Unknown"},
		{Speed10, "10 Mbit/s"},
		{Speed100, "100 Mbit/s"},
		{Speed(255), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.speed.String(); got != tt.expected {
				t.Errorf("Speed(%d).String() = %q, want %q", tt.speed, got, tt.expected)
			}
		})
	}
}

// =============================================================================
// TxHeader Tests
// =============================================================================

func TestNewTxHeader(t *testing.T) {
	tests := []struct {
		n        int
		bitPairs uint32
		pad      uint32
		record   int
	}{
		{72, 287, 3, 84},
		{73, 291, 2, 84},
		{74, 295, 1, 84},
		{75, 299, 0, 84},
		{1512, 6047, 3, 1524},
	}

	for _, tt := range tests {
		h := NewTxHeader(tt.n)
		if h.BitPairs != tt.bitPairs {
			t.Errorf("NewTxHeader(%d).BitPairs = %d, want %d", tt.n, h.BitPairs, tt.bitPairs)
		}
		if h.Pad != tt.pad {
			t.Errorf("NewTxHeader(%d).Pad = %d, want %d", tt.n, h.Pad, tt.pad)
		}
		if got := h.FrameBytes(); got != tt.n {
			t.Errorf("NewTxHeader(%d).FrameBytes() = %d", tt.n, got)
		}
		if got := h.RecordBytes(); got != tt.record {
			t.Errorf("NewTxHeader(%d).RecordBytes() = %d, want %d", tt.n, got, tt.record)
		}
		if h.PadBytes() < 1 || h.PadBytes() > TxPadMax {
			t.Errorf("NewTxHeader(%d).PadBytes() = %d out of range", tt.n, h.PadBytes())
		}
	}
}

func TestParseTxHeader(t *testing.T) {
	data := []byte{
		0x1F, 0x01, 0x00, 0x00, // BitPairs (287)
		0x03, 0x00, 0x00, 0x00, // Pad (3)
	}

	var h TxHeader
	if !ParseTxHeader(data, &h) {
		t.Fatal("ParseTxHeader returned false")
	}
	if h.BitPairs != 287 {
		t.Errorf("BitPairs = %d, want 287", h.BitPairs)
	}
	if h.Pad != 3 {
		t.Errorf("Pad = %d, want 3", h.Pad)
	}

	if ParseTxHeader(data[:7], &h) {
		t.Error("ParseTxHeader should fail on short data")
	}
}

func TestTxHeader_MarshalTo(t *testing.T) {
	h := TxHeader{BitPairs: 0x12345678, Pad: 2}
	buf := make([]byte, TxHeaderSize)
	if n := h.MarshalTo(buf); n != TxHeaderSize {
		t.Fatalf("MarshalTo returned %d", n)
	}
	want := []byte{0x78, 0x56, 0x34, 0x12, 0x02, 0x00, 0x00, 0x00}
	if !bytes.Equal(buf, want) {
		t.Errorf("MarshalTo wrote % X, want % X", buf, want)
	}

	if n := h.MarshalTo(buf[:4]); n != 0 {
		t.Errorf("MarshalTo on short buffer returned %d", n)
	}
}

func TestPutTxHeader(t *testing.T) {
	rec := make([]byte, TxHeaderSize+73+TxPadMax)
	span := PutTxHeader(rec, 73)
	if len(span) != TxHeaderSize+73+3 {
		t.Fatalf("span length = %d, want %d", len(span), TxHeaderSize+76)
	}

	var h TxHeader
	ParseTxHeader(span, &h)
	if h.FrameBytes() != 73 || h.PadBytes() != 3 {
		t.Errorf("header = %+v", h)
	}
}
