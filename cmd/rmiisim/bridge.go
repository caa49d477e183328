package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ardnew/softrmii/hal/serial"
	"github.com/ardnew/softrmii/link"
	"github.com/ardnew/softrmii/netif"
	"github.com/ardnew/softrmii/pkg"
)

// idlePoll is the wait between polls that delivered nothing.
const idlePoll = time.Millisecond

type bridgeOptions struct {
	port   string
	serial serial.PortOptions
	pcap   string
}

func newBridgeCmd(a *app) *cobra.Command {
	opts := &bridgeOptions{}

	cmd := &cobra.Command{
		Use:   "bridge",
		Short: "Capture frames from a serial RMII dongle into a pcap file",
		Long: `Run one driver over a capture dongle attached to a serial port.

Each SLIP packet from the dongle is one receive burst. Validated frames are
written to the pcap file until the command is interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runBridge(ctx, cmd.OutOrStdout(), a.cfg, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.port, "port", "p", "", "serial device of the capture dongle")
	cmd.Flags().IntVarP(&opts.serial.BaudRate, "baud", "b", serial.DefaultBaudRate, "baud rate")
	cmd.Flags().StringVar(&opts.serial.Parity, "parity", "N", "parity: N, E or O")
	cmd.Flags().StringVarP(&opts.pcap, "pcap", "w", "rmii.pcap", "pcap output file")
	_ = cmd.MarkFlagRequired("port")
	return cmd
}

func runBridge(ctx context.Context, out io.Writer, cfg link.Config, opts *bridgeOptions) error {
	br, err := serial.Open(opts.port, opts.serial)
	if err != nil {
		return err
	}
	defer br.Close()

	drv, err := link.New(cfg, br.Rx(), br.Tx())
	if err != nil {
		return err
	}

	f, err := os.Create(opts.pcap)
	if err != nil {
		return fmt.Errorf("create pcap: %w", err)
	}
	defer f.Close()

	ifc := netif.New(drv, func([]byte) error { return nil })
	if err := ifc.SetTap(f); err != nil {
		return err
	}

	pkg.LogInfo(pkg.ComponentCLI, "capturing",
		"port", opts.port,
		"pcap", opts.pcap)

	pollUntilDone(ctx, ifc)

	c := ifc.Counters()
	s := br.Stats()
	fmt.Fprintf(out, "captured %d frames (%d octets), %d errors\n", c.InUcast+c.InNUcast, c.InOctets, c.InErrors)
	fmt.Fprintf(out, "serial: %d packets, %d dropped, %d missed, %d overruns\n",
		s.RxPackets, s.RxDropped, s.Rx.Missed, s.Rx.Overruns)
	return nil
}

// pollUntilDone services ifc until ctx is cancelled.
func pollUntilDone(ctx context.Context, ifc *netif.Interface) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if ifc.Poll() == 0 {
			time.Sleep(idlePoll)
		}
	}
}
