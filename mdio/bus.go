package mdio

import (
	"sync"
	"time"

	"github.com/ardnew/softrmii/hal"
)

// Management frame fields, positioned in a 32-bit word sent MSB first.
const (
	frameStart   = 0x1 << 30
	frameRead    = 0x2 << 28
	frameWrite   = 0x1 << 28
	framePHY     = 23
	frameReg     = 18
	frameTurn    = 0x2 << 16
	headerShift  = 18 // Bits below ST, OP, PHYAD and REGAD
	headerBits   = 14
	preambleBits = 32
)

// Bus is a bit-banged clause 22 management bus.
//
// Each transaction is a 32-bit preamble followed by a 32-bit frame, 64 MDC
// cycles in total. Data is set up while MDC is low and sampled by the PHY on
// the rising edge; read data is sampled while MDC is low.
type Bus struct {
	mdc   hal.Pin
	mdio  hal.Pin
	delay time.Duration
	mutex sync.Mutex

	// Sleep waits between clock transitions. It defaults to time.Sleep and
	// may be replaced for busy-wait delays or tests.
	Sleep func(time.Duration)
}

// NewBus creates a bus over the given pins with delay as the half period.
func NewBus(mdc, mdio hal.Pin, delay time.Duration) *Bus {
	return &Bus{
		mdc:   mdc,
		mdio:  mdio,
		delay: delay,
		Sleep: time.Sleep,
	}
}

// Init idles MDC high and releases MDIO.
func (b *Bus) Init() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.mdc.Set(true)
	b.mdc.Output(true)
	b.mdio.Output(false)
}

func (b *Bus) pause() {
	if b.delay > 0 && b.Sleep != nil {
		b.Sleep(b.delay)
	}
}

func (b *Bus) writeBit(bit bool) {
	b.mdc.Set(false)
	b.mdio.Set(bit)
	b.pause()
	b.mdc.Set(true)
	b.pause()
}

func (b *Bus) readBit() bool {
	b.mdc.Set(false)
	b.pause()
	bit := b.mdio.Get()
	b.mdc.Set(true)
	b.pause()
	return bit
}

func (b *Bus) writeBits(v uint32, n int) {
	for i := n - 1; i >= 0; i-- {
		b.writeBit(v>>i&1 != 0)
	}
}

func (b *Bus) readBits(n int) uint32 {
	var v uint32
	for i := 0; i < n; i++ {
		v <<= 1
		if b.readBit() {
			v |= 1
		}
	}
	return v
}

// Read returns register reg of the PHY at address phy. An absent PHY reads
// as 0xFFFF.
func (b *Bus) Read(phy, reg uint8) uint16 {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.mdio.Output(true)
	b.writeBits(0xFFFFFFFF, preambleBits)
	v := uint32(frameStart|frameRead) | uint32(phy&0x1F)<<framePHY | uint32(reg&0x1F)<<frameReg
	b.writeBits(v>>headerShift, headerBits)

	b.mdio.Output(false)
	b.readBits(2)
	return uint16(b.readBits(16))
}

// Write sets register reg of the PHY at address phy.
func (b *Bus) Write(phy, reg uint8, value uint16) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.mdio.Output(true)
	b.writeBits(0xFFFFFFFF, preambleBits)
	v := uint32(frameStart|frameWrite|frameTurn) |
		uint32(phy&0x1F)<<framePHY |
		uint32(reg&0x1F)<<frameReg |
		uint32(value)
	b.writeBits(v, 32)
	b.mdio.Output(false)
}
