package netif

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/softrmii/frame"
	"github.com/ardnew/softrmii/hal/sim"
	"github.com/ardnew/softrmii/link"
	"github.com/ardnew/softrmii/pkg"
)

var (
	macA      = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x0A}
	macB      = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x0B}
	multicast = net.HardwareAddr{0x01, 0x00, 0x5E, 0x00, 0x00, 0xFB}
)

// udpFrame builds an Ethernet/IPv4/UDP frame carrying n payload bytes.
func udpFrame(t *testing.T, dst net.HardwareAddr, n int) []byte {
	t.Helper()

	payload := make([]byte, n)
	for i := range payload {
		payload[i] = byte(i*7 + n)
	}

	eth := &layers.Ethernet{
		SrcMAC:       macA,
		DstMAC:       dst,
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.IP{10, 0, 0, 1},
		DstIP:    net.IP{10, 0, 0, 2},
	}
	udp := &layers.UDP{SrcPort: 5000, DstPort: 5001}
	require.NoError(t, udp.SetNetworkLayerForChecksum(ip))

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(payload)))
	return append([]byte(nil), buf.Bytes()...)
}

type pair struct {
	a, b       *Interface
	portA      sim.Port
	portB      sim.Port
	received   [][]byte
	rejectNext bool
}

func newPair(t *testing.T, cfg link.Config) *pair {
	t.Helper()
	p := &pair{}
	p.portA, p.portB = sim.NewCrossover()

	drvA, err := link.New(cfg, p.portA.Rx, p.portA.Tx)
	require.NoError(t, err)
	drvB, err := link.New(cfg, p.portB.Rx, p.portB.Tx)
	require.NoError(t, err)

	p.a = New(drvA, nil)
	p.b = New(drvB, func(data []byte) error {
		if p.rejectNext {
			p.rejectNext = false
			return errors.New("no route")
		}
		p.received = append(p.received, append([]byte(nil), data...))
		return nil
	})

	// Arm both receivers.
	p.a.Poll()
	p.b.Poll()
	return p
}

// send queues data on a, transmits it and drains b.
func (p *pair) send(t *testing.T, data []byte) int {
	t.Helper()
	require.NoError(t, p.a.Output(data))
	p.a.Poll()
	return p.b.Poll()
}

// =============================================================================
// End-to-end Tests
// =============================================================================

func TestInterface_LoopEvenSkews(t *testing.T) {
	for skew := 0; skew <= 14; skew += 2 {
		t.Run(fmt.Sprintf("skew %d", skew), func(t *testing.T) {
			p := newPair(t, link.DefaultConfig())
			p.portA.Wire.SetSkew(skew, 0)

			var sent [][]byte
			for _, n := range []int{18, 64, 333, 1000, 1472} {
				data := udpFrame(t, macB, n)
				sent = append(sent, data)
				assert.Equal(t, 1, p.send(t, data), "payload %d", n)
			}

			if diff := cmp.Diff(sent, p.received); diff != "" {
				t.Fatalf("delivered frames differ (-sent +received):\n%s", diff)
			}

			var octets uint64
			for _, s := range sent {
				octets += uint64(len(s))
			}
			assert.Equal(t, Counters{OutOctets: octets, OutUcast: 5}, p.a.Counters())
			assert.Equal(t, Counters{InOctets: octets, InUcast: 5}, p.b.Counters())
		})
	}
}

func TestInterface_BitPhaseOddSkew(t *testing.T) {
	cfg := link.DefaultConfig()
	cfg.Phase = frame.PhaseBit
	p := newPair(t, cfg)
	p.portA.Wire.SetSkew(3, 0)

	data := udpFrame(t, macB, 100)
	assert.Equal(t, 1, p.send(t, data))
	require.Len(t, p.received, 1)
	assert.Equal(t, data, p.received[0])
}

func TestInterface_Multicast(t *testing.T) {
	p := newPair(t, link.DefaultConfig())

	p.send(t, udpFrame(t, multicast, 40))
	p.send(t, udpFrame(t, macB, 40))

	assert.Equal(t, uint64(1), p.a.Counters().OutNUcast)
	assert.Equal(t, uint64(1), p.a.Counters().OutUcast)
	assert.Equal(t, uint64(1), p.b.Counters().InNUcast)
	assert.Equal(t, uint64(1), p.b.Counters().InUcast)
}

// =============================================================================
// Receive Error Tests
// =============================================================================

func TestInterface_DropsInvalidCaptures(t *testing.T) {
	p := newPair(t, link.DefaultConfig())

	// No preamble at all.
	p.portB.Rx.Inject(make([]byte, 100))

	// A good frame with one payload byte flipped.
	data := udpFrame(t, macB, 40)
	wire := make([]byte, frame.EncodedLen(len(data)))
	_, err := frame.Encode(wire, data)
	require.NoError(t, err)
	wire[30] ^= 0x10
	p.portB.Rx.Inject(append(wire, 0, 0, 0, 0))

	// A delimiter followed by too little to hold a check sequence.
	p.portB.Rx.Inject([]byte{0x55, 0x55, 0x55, 0x55, 0xD5, 0x01})

	assert.Zero(t, p.b.Poll())
	assert.Empty(t, p.received)

	c := p.b.Counters()
	assert.Equal(t, uint64(3), c.InErrors)
	assert.Equal(t, uint64(1), c.Drops[pkg.DropFraming])
	assert.Equal(t, uint64(1), c.Drops[pkg.DropFCS])
	assert.Equal(t, uint64(1), c.Drops[pkg.DropRunt])
	assert.Zero(t, c.InUcast)
	assert.False(t, p.b.Driver().RxAvailable())
}

func TestInterface_InputRejected(t *testing.T) {
	p := newPair(t, link.DefaultConfig())
	p.rejectNext = true

	assert.Zero(t, p.send(t, udpFrame(t, macB, 40)))
	assert.Equal(t, 1, p.send(t, udpFrame(t, macB, 40)))

	c := p.b.Counters()
	assert.Equal(t, uint64(1), c.InDiscards)
	assert.Equal(t, uint64(2), c.InUcast)
	assert.Len(t, p.received, 1)
}

func TestInterface_NilInputDiscards(t *testing.T) {
	p := newPair(t, link.DefaultConfig())

	require.NoError(t, p.b.Output(udpFrame(t, macA, 40)))
	p.b.Poll()
	assert.Zero(t, p.a.Poll())
	assert.Equal(t, uint64(1), p.a.Counters().InDiscards)
}

// =============================================================================
// Transmit Tests
// =============================================================================

func TestInterface_OutputErrors(t *testing.T) {
	p := newPair(t, link.DefaultConfig())

	err := p.a.Output(make([]byte, 1515))
	assert.ErrorIs(t, err, pkg.ErrFrameTooLarge)

	err = p.a.Output(make([]byte, 13))
	assert.ErrorIs(t, err, pkg.ErrRunt)

	assert.Equal(t, Counters{}, p.a.Counters())
}

func TestInterface_OutputExhausted(t *testing.T) {
	p := newPair(t, link.DefaultConfig())
	data := udpFrame(t, macB, 1472)
	require.Len(t, data, 1514)

	// Each full-size record takes 1548 bytes of the 8192 byte ring.
	for i := 0; i < 5; i++ {
		require.NoError(t, p.a.Output(data), "frame %d", i)
	}
	err := p.a.Output(data)
	require.ErrorIs(t, err, pkg.ErrAllocationExhausted)

	c := p.a.Counters()
	assert.Equal(t, uint64(5), c.OutUcast)
	assert.Equal(t, uint64(1), c.OutDiscards)

	// Draining one record makes room again.
	p.a.Poll()
	p.a.Poll()
	assert.NoError(t, p.a.Output(data))
}

// =============================================================================
// Tap Tests
// =============================================================================

func TestInterface_Tap(t *testing.T) {
	p := newPair(t, link.DefaultConfig())

	stamp := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p.b.Now = func() time.Time { return stamp }

	var capture bytes.Buffer
	require.NoError(t, p.b.SetTap(&capture))

	sent := [][]byte{udpFrame(t, macB, 40), udpFrame(t, multicast, 200)}
	for _, s := range sent {
		p.send(t, s)
	}
	require.NoError(t, p.b.SetTap(nil))
	p.send(t, udpFrame(t, macB, 50))

	r, err := pcapgo.NewReader(&capture)
	require.NoError(t, err)
	assert.Equal(t, layers.LinkTypeEthernet, r.LinkType())

	for i, want := range sent {
		data, ci, err := r.ReadPacketData()
		require.NoError(t, err, "packet %d", i)
		assert.Equal(t, want, data)
		assert.Equal(t, len(want), ci.Length)
		assert.True(t, stamp.Equal(ci.Timestamp))

		pkt := gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.Default)
		assert.NotNil(t, pkt.Layer(layers.LayerTypeUDP), "packet %d", i)
	}
	_, _, err = r.ReadPacketData()
	assert.ErrorIs(t, err, io.EOF)
}

type failingWriter struct{ n int }

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.n == 0 {
		return 0, errors.New("disk full")
	}
	w.n--
	return len(p), nil
}

func TestInterface_TapWriteFailureDisablesTap(t *testing.T) {
	p := newPair(t, link.DefaultConfig())

	assert.Error(t, p.b.SetTap(&failingWriter{}))

	require.NoError(t, p.b.SetTap(&failingWriter{n: 1}))
	assert.Equal(t, 1, p.send(t, udpFrame(t, macB, 40)))
	assert.Equal(t, 1, p.send(t, udpFrame(t, macB, 40)))
	assert.Len(t, p.received, 2)
}
