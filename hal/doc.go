// Package hal defines the Hardware Abstraction Layer for the softrmii link
// driver.
//
// The HAL separates the link driver from the engines that move bits on the
// RMII pins. On a microcontroller these are programmable I/O state machines
// paired with DMA channels; on a host they are simulations or bridges to
// external capture hardware.
//
// # Interface Overview
//
//   - [ReceiveEngine]: arm a capture into a buffer, abort it, and report
//     the bytes written and a completion event
//   - [TransmitEngine]: shift out a transmit record and report busy
//   - [Pin]: a GPIO line for the bit-banged management bus
//
// # Transmit Records
//
// A transmit record starts with a [TxHeader] of two little-endian loop
// counters, followed by the frame and up to [TxPadMax] bytes of padding:
//
//	+----------+----------+-------------------+---------+
//	| bitPairs | pad      | frame (n bytes)   | padding |
//	| n*4 - 1  | 4-n%4-1  |                   | 1..4    |
//	+----------+----------+-------------------+---------+
//
// The link driver reserves room for the whole record so an engine never reads
// past the end of its slot in the ring.
//
// # Implementing a HAL
//
//  1. Wrap the receive path in a type implementing [ReceiveEngine]
//  2. Fire the registered completion handler at the end of each burst
//  3. Wrap the transmit path in a type implementing [TransmitEngine]
//  4. Provide two [Pin] values for MDC and MDIO
//
// An in-memory implementation for tests is available in
// [github.com/ardnew/softrmii/hal/sim].
package hal
