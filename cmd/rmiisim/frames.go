package main

import (
	"math/rand"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// frameSource generates random UDP datagrams in Ethernet frames.
type frameSource struct {
	rng      *rand.Rand
	src, dst net.HardwareAddr
	maxData  int
}

// Smallest UDP payload that fills a minimum Ethernet frame.
const minDatagram = 18

var broadcast = net.HardwareAddr{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

func newFrameSource(seed int64, mtu int) *frameSource {
	return &frameSource{
		rng:     rand.New(rand.NewSource(seed)),
		src:     net.HardwareAddr{0x02, 0x52, 0x4D, 0x49, 0x49, 0x01},
		dst:     net.HardwareAddr{0x02, 0x52, 0x4D, 0x49, 0x49, 0x02},
		maxData: mtu - 20 - 8, // IPv4 and UDP headers
	}
}

// next returns a frame with a random payload size. One frame in eight is
// sent to the broadcast address.
func (s *frameSource) next() ([]byte, error) {
	n := minDatagram
	if s.maxData > minDatagram {
		n += s.rng.Intn(s.maxData - minDatagram + 1)
	}
	payload := make([]byte, n)
	s.rng.Read(payload)

	dst := s.dst
	if s.rng.Intn(8) == 0 {
		dst = broadcast
	}

	eth := &layers.Ethernet{
		SrcMAC:       s.src,
		DstMAC:       dst,
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.IP{192, 168, 50, 1},
		DstIP:    net.IP{192, 168, 50, 2},
	}
	udp := &layers.UDP{
		SrcPort: layers.UDPPort(49152 + s.rng.Intn(1024)),
		DstPort: 9,
	}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		return nil, err
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(payload)); err != nil {
		return nil, err
	}
	return append([]byte(nil), buf.Bytes()...), nil
}
