package serial

import (
	"errors"
	"fmt"
	"io"
	"sync"

	goserial "go.bug.st/serial"

	"github.com/ardnew/softrmii/hal"
	"github.com/ardnew/softrmii/hal/sim"
	"github.com/ardnew/softrmii/pkg"
)

// MaxPacket bounds a decoded capture; longer SLIP packets are dropped.
const MaxPacket = 4096

// readBufferSize is the chunk size of each port read.
const readBufferSize = 1024

// BridgeStats counts bridge traffic.
type BridgeStats struct {
	RxPackets uint64 // SLIP packets decoded from the port
	RxDropped uint64 // Oversized SLIP packets
	RxErrors  uint64 // Invalid SLIP escapes
	TxPackets uint64 // Frames written to the port
	TxErrors  uint64 // Failed port writes
	Rx        sim.RxStats
}

// Bridge exchanges raw RMII captures with an external capture dongle over a
// serial port. Each SLIP packet read from the port is one receive burst; each
// transmitted frame is written as one SLIP packet.
type Bridge struct {
	port io.ReadWriteCloser
	rx   *sim.RxEngine
	tx   *Transmitter

	decoder *SLIPDecoder
	mutex   sync.Mutex
	stats   BridgeStats

	closeOnce sync.Once
	closed    chan struct{}
	done      chan struct{}
}

// Open opens the serial port at path and starts a bridge over it.
func Open(path string, opts PortOptions) (*Bridge, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %w", path, pkg.ErrInvalidConfig, err)
	}

	port, err := goserial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	pkg.LogDebug(pkg.ComponentSerial, "port opened",
		"path", path,
		"baud", mode.BaudRate)

	return NewBridge(port), nil
}

// NewBridge starts a bridge over an already open port. The bridge owns port
// and closes it on Close.
func NewBridge(port io.ReadWriteCloser) *Bridge {
	b := &Bridge{
		port:    port,
		rx:      sim.NewRxEngine(),
		decoder: NewSLIPDecoder(MaxPacket),
		closed:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	b.tx = &Transmitter{bridge: b}
	go b.readLoop()
	return b
}

// Rx returns the receive engine fed from the port.
func (b *Bridge) Rx() *sim.RxEngine {
	return b.rx
}

// Tx returns the transmit engine writing to the port.
func (b *Bridge) Tx() *Transmitter {
	return b.tx
}

// Stats returns a snapshot of the bridge counters.
func (b *Bridge) Stats() BridgeStats {
	b.mutex.Lock()
	s := b.stats
	s.RxDropped = b.decoder.Dropped
	s.RxErrors = b.decoder.Errors
	b.mutex.Unlock()
	s.Rx = b.rx.Stats()
	return s
}

// Close closes the port and waits for the reader to exit.
func (b *Bridge) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.closed)
		err = b.port.Close()
	})
	<-b.done
	return err
}

func (b *Bridge) isClosed() bool {
	select {
	case <-b.closed:
		return true
	default:
		return false
	}
}

func (b *Bridge) readLoop() {
	defer close(b.done)

	buf := make([]byte, readBufferSize)
	var packets [][]byte
	for {
		n, err := b.port.Read(buf)
		if n > 0 {
			packets = packets[:0]
			b.mutex.Lock()
			b.decoder.Feed(buf[:n], func(p []byte) {
				packets = append(packets, append([]byte(nil), p...))
			})
			b.stats.RxPackets += uint64(len(packets))
			b.mutex.Unlock()

			// Inject outside the mutex; completions re-enter the driver.
			for _, p := range packets {
				b.rx.Inject(p)
			}
		}
		if err != nil {
			if !b.isClosed() && !errors.Is(err, io.EOF) {
				pkg.LogWarn(pkg.ComponentSerial, "port read failed",
					"error", err)
			}
			return
		}
	}
}

// Transmitter implements hal.TransmitEngine by writing each frame to the
// bridge port as a SLIP packet. Writes complete before Start returns.
type Transmitter struct {
	bridge *Bridge
	mutex  sync.Mutex
	buf    []byte
}

// Start decodes rec and writes its frame to the port.
func (t *Transmitter) Start(rec []byte) {
	var h hal.TxHeader
	if !hal.ParseTxHeader(rec, &h) || h.RecordBytes() > len(rec) {
		pkg.LogWarn(pkg.ComponentSerial, "malformed transmit record",
			"bytes", len(rec))
		return
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	b := t.bridge
	if b.isClosed() {
		b.countTx(pkg.ErrClosed)
		return
	}

	t.buf = AppendSLIP(t.buf[:0], rec[hal.TxHeaderSize:hal.TxHeaderSize+h.FrameBytes()])
	_, err := b.port.Write(t.buf)
	b.countTx(err)
}

// Busy returns true while a frame is being written.
func (t *Transmitter) Busy() bool {
	if !t.mutex.TryLock() {
		return true
	}
	t.mutex.Unlock()
	return false
}

func (b *Bridge) countTx(err error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if err != nil {
		b.stats.TxErrors++
		pkg.LogWarn(pkg.ComponentSerial, "port write failed",
			"error", err)
		return
	}
	b.stats.TxPackets++
}
