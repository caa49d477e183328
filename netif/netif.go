package netif

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/ardnew/softrmii/frame"
	"github.com/ardnew/softrmii/link"
	"github.com/ardnew/softrmii/pkg"
)

// SnapLen is the capture length written to the pcap file header.
const SnapLen = 65535

// Counters mirrors the interface group of MIB-II.
type Counters struct {
	InOctets    uint64
	InUcast     uint64
	InNUcast    uint64
	InDiscards  uint64 // Valid frames the upstream rejected
	InErrors    uint64 // Captures that failed validation or header decode
	OutOctets   uint64
	OutUcast    uint64
	OutNUcast   uint64
	OutDiscards uint64 // Frames dropped on a full transmit ring

	// Drops breaks InErrors down by reason.
	Drops [pkg.DropOther + 1]uint64
}

type counters struct {
	inOctets    atomic.Uint64
	inUcast     atomic.Uint64
	inNUcast    atomic.Uint64
	inDiscards  atomic.Uint64
	inErrors    atomic.Uint64
	outOctets   atomic.Uint64
	outUcast    atomic.Uint64
	outNUcast   atomic.Uint64
	outDiscards atomic.Uint64
	drops       [pkg.DropOther + 1]atomic.Uint64
}

// Input receives one validated frame: Ethernet header and payload, without
// the check sequence. The slice is only valid for the duration of the call.
type Input func(frame []byte) error

// Interface attaches a link driver to a network stack.
type Interface struct {
	drv   *link.Driver
	codec frame.Codec
	input Input

	// Now timestamps tapped packets. Defaults to time.Now.
	Now func() time.Time

	tapMutex sync.Mutex
	tap      *pcapgo.Writer

	stats counters
}

// New creates an interface delivering received frames to input. A nil input
// discards every frame after counting it.
func New(drv *link.Driver, input Input) *Interface {
	return &Interface{
		drv:   drv,
		codec: frame.Codec{Phase: drv.Config().Phase},
		input: input,
		Now:   time.Now,
	}
}

// Driver returns the underlying link driver.
func (i *Interface) Driver() *link.Driver {
	return i.drv
}

// SetTap mirrors every received and transmitted frame to w as a pcap stream.
// A nil writer disables the tap.
func (i *Interface) SetTap(w io.Writer) error {
	i.tapMutex.Lock()
	defer i.tapMutex.Unlock()

	if w == nil {
		i.tap = nil
		return nil
	}

	tap := pcapgo.NewWriter(w)
	if err := tap.WriteFileHeader(SnapLen, layers.LinkTypeEthernet); err != nil {
		return fmt.Errorf("pcap header: %w", err)
	}
	i.tap = tap
	return nil
}

func (i *Interface) mirror(data []byte) {
	i.tapMutex.Lock()
	defer i.tapMutex.Unlock()

	if i.tap == nil {
		return
	}
	ci := gopacket.CaptureInfo{
		Timestamp:     i.Now(),
		CaptureLength: len(data),
		Length:        len(data),
	}
	if err := i.tap.WritePacket(ci, data); err != nil {
		pkg.LogWarn(pkg.ComponentNetif, "tap write failed, disabling",
			"error", err)
		i.tap = nil
	}
}

// Poll services the driver and delivers every completed capture upstream.
// It returns the number of frames delivered.
func (i *Interface) Poll() int {
	i.drv.Poll()

	delivered := 0
	for {
		capture, ok := i.drv.RxPacket()
		if !ok {
			return delivered
		}
		if i.receive(capture) {
			delivered++
		}
		i.drv.RxConsume()
	}
}

// receive validates one capture in place and hands it upstream.
func (i *Interface) receive(capture []byte) bool {
	n, err := i.codec.Validate(capture)
	if err != nil {
		i.drop(pkg.DropReasonOf(err), len(capture), err)
		return false
	}
	data := capture[:n]

	var eth layers.Ethernet
	if err := eth.DecodeFromBytes(data, gopacket.NilDecodeFeedback); err != nil {
		i.drop(pkg.DropOther, n, err)
		return false
	}

	i.stats.inOctets.Add(uint64(n))
	if isUnicast(eth.DstMAC) {
		i.stats.inUcast.Add(1)
	} else {
		i.stats.inNUcast.Add(1)
	}
	i.mirror(data)

	if i.input == nil {
		i.stats.inDiscards.Add(1)
		return false
	}
	if err := i.input(data); err != nil {
		i.stats.inDiscards.Add(1)
		pkg.LogDebug(pkg.ComponentNetif, "input rejected frame",
			"bytes", n,
			"error", err)
		return false
	}
	return true
}

func (i *Interface) drop(reason pkg.DropReason, n int, err error) {
	i.stats.inErrors.Add(1)
	i.stats.drops[reason].Add(1)
	pkg.LogDebug(pkg.ComponentNetif, "capture dropped",
		"reason", reason.String(),
		"bytes", n,
		"error", err)
}

// Output queues one frame for transmission. data holds the Ethernet header
// and payload; the preamble, padding and check sequence are added here.
// Returns pkg.ErrFrameTooLarge for frames over the MTU and
// pkg.ErrAllocationExhausted when the transmit ring is full.
func (i *Interface) Output(data []byte) error {
	if limit := i.drv.Config().MaxFrameBytes(); len(data) > limit {
		return fmt.Errorf("output %d bytes (max %d): %w", len(data), limit, pkg.ErrFrameTooLarge)
	}
	if len(data) < link.EthernetHeaderSize {
		return fmt.Errorf("output %d bytes: %w", len(data), pkg.ErrRunt)
	}

	buf, err := i.drv.TxAlloc(frame.EncodedLen(len(data)))
	if err != nil {
		if errors.Is(err, pkg.ErrAllocationExhausted) {
			i.stats.outDiscards.Add(1)
		}
		return err
	}

	n, err := frame.Encode(buf, data)
	pkg.Assert(err == nil, "encode into allocation: %v", err)
	i.drv.TxCommit(n)

	i.stats.outOctets.Add(uint64(len(data)))
	if isUnicast(data[:6]) {
		i.stats.outUcast.Add(1)
	} else {
		i.stats.outNUcast.Add(1)
	}
	i.mirror(data)
	return nil
}

// isUnicast reports whether the group bit of a destination address is clear.
func isUnicast(dst []byte) bool {
	return len(dst) > 0 && dst[0]&1 == 0
}

// Counters returns a snapshot of the interface counters.
func (i *Interface) Counters() Counters {
	c := Counters{
		InOctets:    i.stats.inOctets.Load(),
		InUcast:     i.stats.inUcast.Load(),
		InNUcast:    i.stats.inNUcast.Load(),
		InDiscards:  i.stats.inDiscards.Load(),
		InErrors:    i.stats.inErrors.Load(),
		OutOctets:   i.stats.outOctets.Load(),
		OutUcast:    i.stats.outUcast.Load(),
		OutNUcast:   i.stats.outNUcast.Load(),
		OutDiscards: i.stats.outDiscards.Load(),
	}
	for r := range c.Drops {
		c.Drops[r] = i.stats.drops[r].Load()
	}
	return c
}
