// Package serial bridges the softrmii link driver to RMII capture hardware
// attached over a serial port.
//
// The dongle on the far end samples the RMII receive pins and streams each
// burst as a SLIP (RFC 1055) packet of raw, unaligned bytes. In the other
// direction it shifts out each SLIP packet it receives as a frame. The
// [Bridge] presents both directions as HAL engines:
//
//	br, err := serial.Open("/dev/ttyACM0", serial.PortOptions{BaudRate: 921600})
//	if err != nil {
//	    return err
//	}
//	defer br.Close()
//
//	drv, err := link.New(cfg, br.Rx(), br.Tx())
//
// Ports are opened with go.bug.st/serial. [NewBridge] accepts any
// io.ReadWriteCloser, such as one end of a net.Pipe in tests.
package serial
