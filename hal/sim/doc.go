// Package sim provides in-memory implementations of the softrmii HAL.
//
// The engines stand in for the PIO state machines and DMA channels of a
// microcontroller so the link driver can run, unchanged, on a host:
//
//   - [RxEngine] accepts injected captures into the armed target
//   - [TxEngine] decodes transmit records and sends their frames on a [Wire]
//   - [Wire] delays each frame by a configurable number of bits and appends
//     idle samples, reproducing the unaligned captures of a real receiver
//   - [PHY] decodes management frames from two [hal.Pin] lines bit by bit
//
// # Usage
//
//	a, b := sim.NewCrossover()
//	b.Wire.SetSkew(4, 0)
//
//	left, _ := link.New(link.DefaultConfig(), a.Rx, a.Tx)
//	right, _ := link.New(link.DefaultConfig(), b.Rx, b.Tx)
//
//	left.Poll()  // arm capture
//	right.Poll() // arm capture, start any queued transmit
//
// All types are safe for concurrent use. Completion handlers run on the
// goroutine that injected the capture.
package sim
