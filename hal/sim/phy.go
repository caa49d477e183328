package sim

import (
	"sync"

	"github.com/ardnew/softrmii/hal"
	"github.com/ardnew/softrmii/pkg"
)

// Clause 22 register numbers and bits the simulated PHY gives meaning to.
const (
	regBMCR   = 0
	regBMSR   = 1
	regID1    = 2
	regID2    = 3
	regANAR   = 4
	regANLPAR = 5
	regPSCSR  = 31

	bmcrReset     = 1 << 15
	bmcrANEnable  = 1 << 12
	bmcrANRestart = 1 << 9

	bmsrLinkUp     = 1 << 2
	bmsrANComplete = 1 << 5

	pscsrAutodone = 1 << 12
	pscsrSpeed    = 0x7 << 2
	pscsr100Full  = 0x6 << 2
)

// phyDefaults are the power-on register values of a LAN8720A.
var phyDefaults = map[int]uint16{
	regBMCR:  0x3100,
	regBMSR:  0x7809,
	regID1:   0x0007,
	regID2:   0xC0F1,
	regANAR:  0x01E1,
	regPSCSR: 0x0040,
}

// partnerAbility is the link partner base page reported after negotiation.
const partnerAbility = 0x45E1

// resetReads is how many BMCR reads still show the reset bit after a reset.
const resetReads = 2

// Decoder states, advanced on each MDC rising edge.
const (
	mdioIdle      = iota // Counting preamble ones
	mdioHeader           // ST, OP, PHYAD, REGAD
	mdioTurn             // Driving the second turnaround bit
	mdioReadData         // Driving D15..D0
	mdioWriteData        // Sampling TA and D15..D0
	mdioSkip             // Ignoring a frame for another address
)

// PHY is a clause 22 Ethernet PHY simulated at the management bus bit level.
//
// It watches the MDC line for rising edges and decodes management frames from
// the MDIO line, driving MDIO itself during the data phase of a read
// addressed to it. An undriven MDIO line reads high.
type PHY struct {
	mutex   sync.Mutex
	addr    uint8
	present bool
	regs    [32]uint16
	resets  int

	// Line state
	mdc        bool
	masterOut  bool
	masterHigh bool
	driving    bool
	driveHigh  bool

	// Frame decoder
	state  int
	ones   int
	bits   int
	shift  uint32
	reg    uint8
	data   uint16
	cycles uint64
}

// NewPHY creates a PHY answering at addr with power-on register values.
func NewPHY(addr uint8) *PHY {
	p := &PHY{
		addr:    addr & 0x1F,
		present: true,
		mdc:     true,
	}
	p.loadDefaults()
	return p
}

func (p *PHY) loadDefaults() {
	p.regs = [32]uint16{}
	for reg, v := range phyDefaults {
		p.regs[reg] = v
	}
}

// Address returns the management bus address of the PHY.
func (p *PHY) Address() uint8 {
	return p.addr
}

// SetPresent attaches or detaches the PHY from the bus. A detached PHY
// never drives MDIO.
func (p *PHY) SetPresent(present bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.present = present
}

// SetLink forces the link state, as when a cable is plugged or pulled.
func (p *PHY) SetLink(up bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if up {
		p.regs[regBMSR] |= bmsrLinkUp
	} else {
		p.regs[regBMSR] &^= bmsrLinkUp
	}
}

// Register returns a register value without a bus transaction.
func (p *PHY) Register(reg uint8) uint16 {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.regs[reg&0x1F]
}

// Cycles returns the number of MDC rising edges observed.
func (p *PHY) Cycles() uint64 {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.cycles
}

// MDC returns the management clock line.
func (p *PHY) MDC() hal.Pin {
	return mdcPin{p}
}

// MDIO returns the management data line.
func (p *PHY) MDIO() hal.Pin {
	return mdioPin{p}
}

// level returns the MDIO line level. The mutex must be held.
func (p *PHY) level() bool {
	switch {
	case p.masterOut:
		return p.masterHigh
	case p.driving:
		return p.driveHigh
	default:
		return true
	}
}

// edge advances the decoder on an MDC rising edge. The mutex must be held.
func (p *PHY) edge() {
	p.cycles++
	bit := p.level()

	switch p.state {
	case mdioIdle:
		if bit {
			p.ones++
			return
		}
		if p.ones >= 32 {
			// First start bit.
			p.state = mdioHeader
			p.bits = 1
			p.shift = 0
			return
		}
		p.ones = 0

	case mdioHeader:
		p.shift = p.shift<<1 | b2u(bit)
		p.bits++
		if p.bits < 14 {
			return
		}
		p.header()

	case mdioTurn:
		p.driveHigh = false
		p.bits = 0
		p.state = mdioReadData

	case mdioReadData:
		if p.bits == 16 {
			p.release()
			return
		}
		p.driveHigh = p.data&(0x8000>>p.bits) != 0
		p.bits++

	case mdioWriteData:
		p.shift = p.shift<<1 | b2u(bit)
		p.bits++
		if p.bits == 18 {
			p.write(p.reg, uint16(p.shift))
			p.release()
		}

	case mdioSkip:
		p.bits++
		if p.bits == 18 {
			p.release()
		}
	}
}

// header dispatches a decoded ST/OP/PHYAD/REGAD. The mutex must be held.
func (p *PHY) header() {
	// shift holds 13 bits: the second start bit, OP, PHYAD and REGAD.
	start := p.shift >> 12 & 0x1
	op := p.shift >> 10 & 0x3
	phy := uint8(p.shift >> 5 & 0x1F)
	p.reg = uint8(p.shift & 0x1F)
	p.bits = 0
	p.shift = 0

	addressed := p.present && phy == p.addr
	switch {
	case start != 1:
		p.release()
	case op == 0x2 && addressed:
		p.data = p.read(p.reg)
		p.driving = true
		p.driveHigh = true
		p.state = mdioTurn
	case op == 0x1 && addressed:
		p.state = mdioWriteData
	case op == 0x1 || op == 0x2:
		p.state = mdioSkip
	default:
		p.release()
	}
}

func (p *PHY) release() {
	p.driving = false
	p.state = mdioIdle
	p.ones = 0
	p.bits = 0
}

func (p *PHY) read(reg uint8) uint16 {
	v := p.regs[reg]
	if reg == regBMCR && p.resets > 0 {
		p.resets--
		v |= bmcrReset
	}
	pkg.LogDebug(pkg.ComponentSim, "phy register read",
		"reg", reg,
		"value", v)
	return v
}

func (p *PHY) write(reg uint8, v uint16) {
	pkg.LogDebug(pkg.ComponentSim, "phy register write",
		"reg", reg,
		"value", v)

	switch reg {
	case regBMCR:
		if v&bmcrReset != 0 {
			p.loadDefaults()
			p.resets = resetReads
			return
		}
		if v&bmcrANEnable != 0 && v&bmcrANRestart != 0 {
			p.regs[regBMSR] |= bmsrLinkUp | bmsrANComplete
			p.regs[regANLPAR] = partnerAbility
			p.regs[regPSCSR] = p.regs[regPSCSR]&^pscsrSpeed | pscsr100Full | pscsrAutodone
		}
		p.regs[regBMCR] = v &^ (bmcrReset | bmcrANRestart)
	case regBMSR, regID1, regID2, regANLPAR:
		// Read-only
	default:
		p.regs[reg] = v
	}
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

type mdcPin struct{ p *PHY }

func (m mdcPin) Set(high bool) {
	m.p.mutex.Lock()
	defer m.p.mutex.Unlock()
	rising := high && !m.p.mdc
	m.p.mdc = high
	if rising {
		m.p.edge()
	}
}

func (m mdcPin) Get() bool {
	m.p.mutex.Lock()
	defer m.p.mutex.Unlock()
	return m.p.mdc
}

func (m mdcPin) Output(bool) {}

type mdioPin struct{ p *PHY }

func (m mdioPin) Set(high bool) {
	m.p.mutex.Lock()
	defer m.p.mutex.Unlock()
	m.p.masterHigh = high
}

func (m mdioPin) Get() bool {
	m.p.mutex.Lock()
	defer m.p.mutex.Unlock()
	return m.p.level()
}

func (m mdioPin) Output(enable bool) {
	m.p.mutex.Lock()
	defer m.p.mutex.Unlock()
	m.p.masterOut = enable
}
