package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ardnew/softrmii/hal/sim"
	"github.com/ardnew/softrmii/link"
	"github.com/ardnew/softrmii/mdio"
)

type probeOptions struct {
	simAddr  uint8
	linkDown bool
	delay    time.Duration
	timeout  time.Duration
}

func newProbeCmd(a *app) *cobra.Command {
	opts := &probeOptions{}

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Bring up a simulated PHY over the bit-banged management bus",
		Long: fmt.Sprintf(`Run the PHY bring-up sequence against a simulated LAN8720-style PHY.

The driver probes the configured phy_address (or scans all 32 addresses when
it is "auto") and resets the PHY. It then advertises 100BASE-TX full and half
duplex (ANAR 0x%04x) and reports the resolved link.`, mdio.AutonegAdvertise),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if cmd.Flags().Changed("delay") {
				cfg.MDIODelay = opts.delay
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()
			return runProbe(ctx, cmd.OutOrStdout(), cfg, opts)
		},
	}

	cmd.Flags().Uint8Var(&opts.simAddr, "sim-addr", 1, "address the simulated PHY answers on")
	cmd.Flags().BoolVar(&opts.linkDown, "link-down", false, "leave the simulated cable unplugged")
	cmd.Flags().DurationVar(&opts.delay, "delay", 0, "override the MDC half period")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "give up after this long")
	return cmd
}

func runProbe(ctx context.Context, out io.Writer, cfg link.Config, opts *probeOptions) error {
	phy := sim.NewPHY(opts.simAddr)

	bus := mdio.NewBus(phy.MDC(), phy.MDIO(), cfg.MDIODelay)
	bus.Init()

	p, err := mdio.Probe(bus, cfg.PHYAddr)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "phy %d: id %08x\n", p.Address(), p.ID())

	if err := p.Reset(ctx); err != nil {
		return err
	}
	p.ConfigureAutoneg()
	if opts.linkDown {
		phy.SetLink(false)
	}

	fmt.Fprintln(out, p.LinkStatus())
	fmt.Fprintf(out, "%d management clock cycles\n", phy.Cycles())
	return nil
}
