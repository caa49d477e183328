// Package mdio drives an Ethernet PHY's clause 22 management interface by
// bit-banging two GPIO lines.
//
// A [Bus] performs raw register reads and writes. [Probe] locates a PHY on
// the bus and returns a [PHY] with helpers for the bring-up sequence:
//
//	bus := mdio.NewBus(mdc, mdio, time.Millisecond)
//	bus.Init()
//
//	phy, err := mdio.Probe(bus, -1)
//	if err != nil {
//	    return err // pkg.ErrHardwareAbsent
//	}
//	if err := phy.Reset(ctx); err != nil {
//	    return err
//	}
//	phy.ConfigureAutoneg()
//	fmt.Println(phy.LinkStatus())
//
// Bus transactions block for 128 half periods. They share no state with the
// link driver and may run from any goroutine.
package mdio
