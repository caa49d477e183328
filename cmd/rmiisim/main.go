// Command rmiisim exercises the softrmii link driver against simulated and
// serial-attached hardware.
//
// Usage:
//
//	rmiisim [--config link.toml] [-v] [--json] <command> [flags]
//
// Commands:
//
//	loop    Send random frames between two drivers over a simulated wire
//	probe   Bring up a simulated PHY over the bit-banged management bus
//	bridge  Capture frames from a serial RMII dongle into a pcap file
package main

import (
	"os"

	"github.com/ardnew/softrmii/pkg"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		pkg.LogError(pkg.ComponentCLI, "command failed", "error", err)
		os.Exit(1)
	}
}
