package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ardnew/softrmii/link"
	"github.com/ardnew/softrmii/pkg"
)

// app carries state shared by every subcommand.
type app struct {
	configPath string
	verbose    bool
	jsonLog    bool

	cfg link.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "rmiisim",
		Short: "Software RMII link driver workbench",
		Long: `rmiisim drives the softrmii link driver without a microcontroller.

The loop and probe commands run entirely in simulation. The bridge command
talks to a capture dongle that streams raw RMII samples over a serial port.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "link configuration file (TOML)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose (debug) logging")
	root.PersistentFlags().BoolVar(&a.jsonLog, "json", false, "use JSON log format")

	root.AddCommand(
		newLoopCmd(a),
		newProbeCmd(a),
		newBridgeCmd(a),
	)
	return root
}

// setup configures logging and loads the link configuration.
func (a *app) setup() error {
	if a.jsonLog {
		pkg.SetLogFormat(pkg.LogFormatJSON)
	}
	if a.verbose {
		pkg.SetLogLevel(slog.LevelDebug)
	}

	if a.configPath == "" {
		a.cfg = link.DefaultConfig()
		return nil
	}

	cfg, err := link.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	pkg.LogDebug(pkg.ComponentCLI, "configuration loaded",
		"path", a.configPath,
		"mtu", cfg.MTU,
		"phase", cfg.Phase.String())
	return nil
}
