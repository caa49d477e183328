// Package link implements the RMII link driver.
//
// A [Driver] owns a receive ring and a transmit ring (see package queue) and
// binds them to a [hal.ReceiveEngine] and a [hal.TransmitEngine]. Receive
// captures land in ring records reserved ahead of time, so a frame is never
// copied between the engine and the consumer.
//
// # Receive
//
// While idle the driver reserves a record large enough for an MTU frame plus
// framing overhead and arms the engine on it. At the end of each burst the
// engine's completion handler commits the bytes written, trimming the record,
// and immediately re-arms on a fresh record. If the ring is full the driver
// stays idle and Poll retries. If the engine fills its record without a
// completion, Poll treats it as an overrun and commits the full record.
//
// Captures are raw: they still carry the rotated preamble and trailing
// samples. Consumers recover the frame with [frame.Codec.Validate]:
//
//	for buf, ok := drv.RxPacket(); ok; buf, ok = drv.RxPacket() {
//	    if n, err := codec.Validate(buf); err == nil {
//	        deliver(buf[:n])
//	    }
//	    drv.RxConsume()
//	}
//
// # Transmit
//
// TxAlloc reserves a record with room for the engine header and padding
// around the frame. TxCommit truncates it to the bytes actually written.
// Poll hands the oldest committed record to the engine once the previous
// one is done:
//
//	buf, err := drv.TxAlloc(frame.EncodedLen(len(payload)))
//	if err != nil {
//	    return err // ring full, drop or retry
//	}
//	n, _ := frame.Encode(buf, payload)
//	drv.TxCommit(n)
//
// # Configuration
//
// [DefaultConfig] matches a common RP2040 LAN8720 wiring. [LoadConfig]
// overlays a TOML file on those defaults:
//
//	mtu = 1500
//	phy_address = "auto"
//	mdio_delay = "1ms"
//	phase = "dibit"
//
//	[pins]
//	mdc = 14
//	mdio = 15
package link
