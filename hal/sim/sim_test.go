package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/softrmii/hal"
)

// =============================================================================
// Skew Tests
// =============================================================================

func TestSkew(t *testing.T) {
	tests := []struct {
		name string
		src  []byte
		bits int
		fill byte
		want []byte
	}{
		{"none", []byte{0x12, 0x34}, 0, 0xFF, []byte{0x12, 0x34}},
		{"three bits", []byte{0xFF}, 3, 0, []byte{0xF8, 0x07}},
		{"fill bits", []byte{0x00}, 2, 0xFF, []byte{0x03, 0x00}},
		{"whole and part", []byte{0xFF}, 10, 0xAA, []byte{0xAA, 0xFE, 0x03}},
		{"whole byte", []byte{0x01}, 8, 0x55, []byte{0x55, 0x01}},
		{"negative", []byte{0x01}, -1, 0, []byte{0x01}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Skew(tt.src, tt.bits, tt.fill))
		})
	}
}

// =============================================================================
// RxEngine Tests
// =============================================================================

func TestRxEngine_Inject(t *testing.T) {
	e := NewRxEngine()
	completions := 0
	e.OnComplete(func() { completions++ })

	e.Inject([]byte{1, 2, 3})
	assert.Equal(t, RxStats{Missed: 1}, e.Stats())
	assert.Zero(t, completions)

	target := make([]byte, 16)
	for i := range target {
		target[i] = 0xEE
	}
	e.Start(target)
	require.True(t, e.Busy())

	e.Inject([]byte{1, 2, 3, 4, 5})
	assert.Equal(t, 1, completions)
	assert.Equal(t, 8, e.Written(), "written rounds up to a word")
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 0, 0, 0}, target[:8])
	assert.True(t, e.Busy(), "engine stays armed until aborted")

	e.Abort()
	assert.False(t, e.Busy())
	assert.Equal(t, 8, e.Written())
}

func TestRxEngine_Overrun(t *testing.T) {
	e := NewRxEngine()
	completions := 0
	e.OnComplete(func() { completions++ })

	target := make([]byte, 8)
	e.Start(target)
	e.Inject([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})

	assert.Zero(t, completions)
	assert.False(t, e.Busy())
	assert.Equal(t, 8, e.Written())
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, target)
	assert.Equal(t, RxStats{Overruns: 1}, e.Stats())
}

func TestRxEngine_CompletionCanRearm(t *testing.T) {
	e := NewRxEngine()
	bufs := [][]byte{make([]byte, 8), make([]byte, 8)}
	next := 1
	e.OnComplete(func() {
		e.Abort()
		if next < len(bufs) {
			e.Start(bufs[next])
			next++
		}
	})

	e.Start(bufs[0])
	e.Inject([]byte{0xA})
	e.Inject([]byte{0xB})
	e.Inject([]byte{0xC})

	assert.Equal(t, byte(0xA), bufs[0][0])
	assert.Equal(t, byte(0xB), bufs[1][0])
	assert.Equal(t, RxStats{Captures: 2, Missed: 1}, e.Stats())
}

// =============================================================================
// TxEngine / Wire Tests
// =============================================================================

func record(frame []byte) []byte {
	rec := make([]byte, hal.TxHeaderSize+len(frame)+hal.TxPadMax)
	copy(rec[hal.TxHeaderSize:], frame)
	return hal.PutTxHeader(rec, len(frame))
}

func TestTxEngine_Crossover(t *testing.T) {
	a, b := NewCrossover()

	target := make([]byte, 32)
	b.Rx.Start(target)
	completions := 0
	b.Rx.OnComplete(func() { completions++ })

	a.Tx.Start(record([]byte{1, 2, 3, 4, 5, 6, 7}))

	assert.False(t, a.Tx.Busy())
	assert.Equal(t, uint64(1), a.Tx.Sent())
	assert.Equal(t, uint64(1), a.Wire.Frames())
	assert.Equal(t, 1, completions)
	assert.Equal(t, 12, b.Rx.Written(), "7 frame bytes and 4 trailer bytes, word aligned")
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 0, 0, 0, 0, 0}, target[:12])
}

func TestTxEngine_Skew(t *testing.T) {
	a, b := NewCrossover()
	a.Wire.SetSkew(4, 0)
	a.Wire.SetTrailer(0)

	target := make([]byte, 8)
	b.Rx.Start(target)
	a.Tx.Start(record([]byte{0x12, 0x34}))

	assert.Equal(t, 4, b.Rx.Written())
	assert.Equal(t, []byte{0x20, 0x41, 0x03, 0x00}, target[:4])
}

func TestTxEngine_Manual(t *testing.T) {
	a, b := NewCrossover()
	a.Tx.SetManual(true)
	b.Rx.Start(make([]byte, 32))

	assert.False(t, a.Tx.Flush(), "idle engine has nothing to flush")

	a.Tx.Start(record([]byte{9, 9, 9}))
	assert.True(t, a.Tx.Busy())
	assert.Zero(t, b.Rx.Written())

	assert.True(t, a.Tx.Flush())
	assert.False(t, a.Tx.Busy())
	assert.Equal(t, 8, b.Rx.Written())
}

func TestTxEngine_Malformed(t *testing.T) {
	a, _ := NewCrossover()
	a.Tx.Start([]byte{1, 2, 3})
	assert.False(t, a.Tx.Busy())

	rec := record([]byte{1, 2, 3, 4})
	a.Tx.Start(rec[:len(rec)-1])
	assert.False(t, a.Tx.Busy())
	assert.Zero(t, a.Tx.Sent())
}

// =============================================================================
// PHY Tests
// =============================================================================

// master drives a PHY's management lines the way a clause 22 station does.
type master struct {
	mdc, mdio hal.Pin
}

func (m master) writeBit(b bool) {
	m.mdc.Set(false)
	m.mdio.Set(b)
	m.mdc.Set(true)
}

func (m master) readBit() bool {
	m.mdc.Set(false)
	v := m.mdio.Get()
	m.mdc.Set(true)
	return v
}

func (m master) header(op, phy, reg uint8) {
	m.mdio.Output(true)
	for i := 0; i < 32; i++ {
		m.writeBit(true)
	}
	h := uint16(0x1)<<12 | uint16(op)<<10 | uint16(phy&0x1F)<<5 | uint16(reg&0x1F)
	for i := 13; i >= 0; i-- {
		m.writeBit(h>>i&1 == 1)
	}
}

func (m master) read(phy, reg uint8) uint16 {
	m.header(0x2, phy, reg)
	m.mdio.Output(false)
	m.readBit()
	m.readBit()
	var v uint16
	for i := 0; i < 16; i++ {
		v <<= 1
		if m.readBit() {
			v |= 1
		}
	}
	return v
}

func (m master) write(phy, reg uint8, v uint16) {
	m.header(0x1, phy, reg)
	m.writeBit(true)
	m.writeBit(false)
	for i := 15; i >= 0; i-- {
		m.writeBit(v>>i&1 == 1)
	}
}

func TestPHY_ReadWrite(t *testing.T) {
	p := NewPHY(1)
	m := master{p.MDC(), p.MDIO()}

	assert.Equal(t, uint16(0x7809), m.read(1, regBMSR))
	assert.Equal(t, uint16(0x0007), m.read(1, regID1))
	assert.Equal(t, uint16(0xC0F1), m.read(1, regID2))
	assert.Equal(t, uint64(3*64), p.Cycles())

	m.write(1, regANAR, 0x0181)
	assert.Equal(t, uint64(4*64), p.Cycles())
	assert.Equal(t, uint16(0x0181), p.Register(regANAR))
	assert.Equal(t, uint16(0x0181), m.read(1, regANAR))
}

func TestPHY_Unaddressed(t *testing.T) {
	p := NewPHY(1)
	m := master{p.MDC(), p.MDIO()}

	assert.Equal(t, uint16(0xFFFF), m.read(2, regBMSR))
	m.write(2, regANAR, 0x0000)
	assert.Equal(t, uint16(0x01E1), p.Register(regANAR))

	p.SetPresent(false)
	assert.Equal(t, uint16(0xFFFF), m.read(1, regBMSR))
	p.SetPresent(true)
	assert.Equal(t, uint16(0x7809), m.read(1, regBMSR))
}

func TestPHY_ResetSelfClears(t *testing.T) {
	p := NewPHY(3)
	m := master{p.MDC(), p.MDIO()}

	m.write(3, regANAR, 0x0021)
	m.write(3, regBMCR, bmcrReset)

	reads := 0
	for m.read(3, regBMCR)&bmcrReset != 0 {
		reads++
		require.Less(t, reads, 10, "reset bit never cleared")
	}
	assert.Equal(t, resetReads, reads)
	assert.Equal(t, uint16(0x01E1), p.Register(regANAR), "reset restores defaults")
}

func TestPHY_Autoneg(t *testing.T) {
	p := NewPHY(1)
	m := master{p.MDC(), p.MDIO()}

	m.write(1, regBMCR, 0x3300)
	bmsr := m.read(1, regBMSR)
	assert.NotZero(t, bmsr&bmsrLinkUp)
	assert.NotZero(t, bmsr&bmsrANComplete)
	assert.Equal(t, uint16(0x3100), m.read(1, regBMCR), "restart bit self-clears")
	assert.Equal(t, uint16(partnerAbility), m.read(1, regANLPAR))

	p.SetLink(false)
	assert.Zero(t, m.read(1, regBMSR)&bmsrLinkUp)
}

func TestPHY_ReadOnlyRegisters(t *testing.T) {
	p := NewPHY(1)
	m := master{p.MDC(), p.MDIO()}

	m.write(1, regID1, 0x1234)
	assert.Equal(t, uint16(0x0007), m.read(1, regID1))
}
