package mdio

import (
	"context"
	"fmt"

	"github.com/ardnew/softrmii/hal"
	"github.com/ardnew/softrmii/pkg"
)

// Clause 22 and LAN8720 register numbers.
const (
	RegBMCR   = 0  // Basic control
	RegBMSR   = 1  // Basic status
	RegID1    = 2  // PHY identifier 1
	RegID2    = 3  // PHY identifier 2
	RegANAR   = 4  // Auto-negotiation advertisement
	RegANLPAR = 5  // Auto-negotiation link partner ability
	RegANER   = 6  // Auto-negotiation expansion
	RegMCSR   = 17 // Mode control/status
	RegSMR    = 18 // Special modes
	RegSECR   = 26 // Symbol error counter
	RegCSIR   = 27 // Control/status indication
	RegISR    = 29 // Interrupt source
	RegIMR    = 30 // Interrupt mask
	RegPSCSR  = 31 // PHY special control/status
)

// BMCR bits.
const (
	BMCRReset      = 1 << 15
	BMCRLoopback   = 1 << 14
	BMCRSpeed100   = 1 << 13
	BMCRANEnable   = 1 << 12
	BMCRPowerDown  = 1 << 11
	BMCRIsolate    = 1 << 10
	BMCRANRestart  = 1 << 9
	BMCRFullDuplex = 1 << 8
)

// BMSR bits.
const (
	BMSRLinkUp     = 1 << 2
	BMSRANAbility  = 1 << 3
	BMSRANComplete = 1 << 5
)

// ANAR and ANLPAR technology ability bits.
const (
	Ability10Half  = 1 << 5
	Ability10Full  = 1 << 6
	Ability100Half = 1 << 7
	Ability100Full = 1 << 8
	SelectorIEEE   = 0x0001
)

// Auto-negotiation settings applied by ConfigureAutoneg: advertise
// 100BASE-TX, then enable and restart negotiation at 100 Mbit/s full duplex.
const (
	AutonegAdvertise = Ability100Full | Ability100Half | SelectorIEEE               // 0x0181
	AutonegControl   = BMCRSpeed100 | BMCRANEnable | BMCRANRestart | BMCRFullDuplex // 0x3300
)

// resetPolls bounds the wait for BMCR reset to self-clear.
const resetPolls = 1000

// PHY is a transceiver at a fixed management bus address.
type PHY struct {
	bus  *Bus
	addr uint8
}

// Probe returns the PHY at addr, or scans addresses 0 through 31 when addr
// is negative. A PHY is present if its basic status register does not read
// as 0xFFFF. Returns pkg.ErrHardwareAbsent if none answers.
func Probe(bus *Bus, addr int) (*PHY, error) {
	if addr > 31 {
		return nil, fmt.Errorf("probe address %d: %w", addr, pkg.ErrInvalidConfig)
	}

	lo, hi := addr, addr
	if addr < 0 {
		lo, hi = 0, 31
	}
	for a := lo; a <= hi; a++ {
		v := bus.Read(uint8(a), RegBMSR)
		pkg.LogDebug(pkg.ComponentMDIO, "probe",
			"addr", a,
			"bmsr", fmt.Sprintf("%04x", v))
		if v != 0xFFFF {
			return &PHY{bus: bus, addr: uint8(a)}, nil
		}
	}
	if addr < 0 {
		return nil, fmt.Errorf("probe all addresses: %w", pkg.ErrHardwareAbsent)
	}
	return nil, fmt.Errorf("probe address %d: %w", addr, pkg.ErrHardwareAbsent)
}

// Address returns the management bus address.
func (p *PHY) Address() uint8 {
	return p.addr
}

// Read returns a register value.
func (p *PHY) Read(reg uint8) uint16 {
	return p.bus.Read(p.addr, reg)
}

// Write sets a register value.
func (p *PHY) Write(reg uint8, value uint16) {
	p.bus.Write(p.addr, reg, value)
}

// ID returns the 32-bit identifier formed from ID1 and ID2.
func (p *PHY) ID() uint32 {
	return uint32(p.Read(RegID1))<<16 | uint32(p.Read(RegID2))
}

// Reset issues a software reset and waits for it to complete.
func (p *PHY) Reset(ctx context.Context) error {
	p.Write(RegBMCR, p.Read(RegBMCR)|BMCRReset)

	for i := 0; i < resetPolls; i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("phy %d reset: %w", p.addr, err)
		}
		if p.Read(RegBMCR)&BMCRReset == 0 {
			pkg.LogDebug(pkg.ComponentMDIO, "phy reset",
				"addr", p.addr,
				"polls", i+1)
			return nil
		}
	}
	return fmt.Errorf("phy %d reset: %w", p.addr, pkg.ErrPHYTimeout)
}

// ConfigureAutoneg advertises 100BASE-TX and restarts auto-negotiation.
func (p *PHY) ConfigureAutoneg() {
	p.Write(RegANAR, AutonegAdvertise)
	p.Write(RegBMCR, AutonegControl)
	pkg.LogDebug(pkg.ComponentMDIO, "autoneg restarted",
		"addr", p.addr)
}

// LinkStatus describes the current link.
type LinkStatus struct {
	Up              bool
	AutonegComplete bool
	Speed           hal.Speed
	FullDuplex      bool
	ID              uint32
}

// String returns a human-readable link description.
func (s LinkStatus) String() string {
	if !s.Up {
		return fmt.Sprintf("link down (phy %08x)", s.ID)
	}
	duplex := "half"
	if s.FullDuplex {
		duplex = "full"
	}
	return fmt.Sprintf("link up %s %s duplex (phy %08x)", s.Speed, duplex, s.ID)
}

// LinkStatus reads the link state. The speed and duplex are resolved from
// the common negotiated abilities, or from BMCR when negotiation is off.
func (p *PHY) LinkStatus() LinkStatus {
	// Link status is latched low; the second read reflects the present state.
	p.Read(RegBMSR)
	bmsr := p.Read(RegBMSR)
	bmcr := p.Read(RegBMCR)

	s := LinkStatus{
		Up:              bmsr&BMSRLinkUp != 0,
		AutonegComplete: bmsr&BMSRANComplete != 0,
		ID:              p.ID(),
	}
	if !s.Up {
		return s
	}

	if bmcr&BMCRANEnable == 0 {
		s.Speed = hal.Speed10
		if bmcr&BMCRSpeed100 != 0 {
			s.Speed = hal.Speed100
		}
		s.FullDuplex = bmcr&BMCRFullDuplex != 0
		return s
	}
	if !s.AutonegComplete {
		return s
	}

	common := p.Read(RegANAR) & p.Read(RegANLPAR)
	switch {
	case common&Ability100Full != 0:
		s.Speed, s.FullDuplex = hal.Speed100, true
	case common&Ability100Half != 0:
		s.Speed = hal.Speed100
	case common&Ability10Full != 0:
		s.Speed, s.FullDuplex = hal.Speed10, true
	case common&Ability10Half != 0:
		s.Speed = hal.Speed10
	}
	return s
}
