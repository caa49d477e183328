package link

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ardnew/softrmii/frame"
	"github.com/ardnew/softrmii/hal"
	"github.com/ardnew/softrmii/pkg"
	"github.com/ardnew/softrmii/queue"
)

// EthernetHeaderSize is the destination, source and EtherType prefix carried
// in every frame but not counted by the MTU.
const EthernetHeaderSize = 14

// rxSlack covers the Ethernet header, check sequence, preamble and trailing
// samples captured beyond the MTU.
const rxSlack = 52

// AutoPHY requests a scan of all management bus addresses.
const AutoPHY = -1

// Pins assigns GPIO numbers to the RMII and management signals. The receive
// and transmit data pins occupy Base and Base+1.
type Pins struct {
	MDC     int
	MDIO    int
	Clock   int
	RxBase  int
	RxValid int
	TxBase  int
	TxValid int
}

// Config configures a Driver. It is treated as immutable after New.
type Config struct {
	Pins      Pins
	MDIODelay time.Duration // Half period of the management clock
	PHYAddr   int           // Management bus address, or AutoPHY
	RxDMA     int
	TxDMA     int
	RxIRQ     int // CPU interrupt line, 0 or 1

	RxQueueSize int // Bytes of receive ring arena
	TxQueueSize int // Bytes of transmit ring arena
	MTU         int

	// Phase selects the rotations frame recovery can undo.
	Phase frame.Phase

	// Lock replaces the receive spin lock, for example with a critical
	// section that also masks the receive interrupt.
	Lock sync.Locker
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Pins: Pins{
			MDC:     14,
			MDIO:    15,
			Clock:   10,
			RxBase:  11,
			RxValid: 13,
			TxBase:  7,
			TxValid: 9,
		},
		MDIODelay:   time.Millisecond,
		PHYAddr:     1,
		RxDMA:       0,
		TxDMA:       1,
		RxIRQ:       0,
		RxQueueSize: 8192,
		TxQueueSize: 8192,
		MTU:         1500,
		Phase:       frame.DefaultPhase,
	}
}

// RxReserve returns the bytes reserved for each receive capture.
func (c Config) RxReserve() int {
	return (c.MTU + rxSlack) &^ 3
}

// MaxFrameBytes returns the largest frame accepted for transmit, Ethernet
// header included and check sequence excluded.
func (c Config) MaxFrameBytes() int {
	return c.MTU + EthernetHeaderSize
}

// txReserve returns the transmit ring bytes needed for an n-byte wire frame.
func txReserve(n int) int {
	return hal.TxHeaderSize + n + hal.TxPadMax
}

func footprint(n int) int {
	return (queue.HeaderSize + n + 3) &^ 3
}

// Validate checks the configuration for values the driver cannot run with.
func (c Config) Validate() error {
	if c.MTU < 1 {
		return fmt.Errorf("mtu %d: %w", c.MTU, pkg.ErrInvalidConfig)
	}
	if need := footprint(c.RxReserve()); c.RxQueueSize < need {
		return fmt.Errorf("rx queue size %d below %d: %w", c.RxQueueSize, need, pkg.ErrInvalidConfig)
	}
	if need := footprint(txReserve(frame.EncodedLen(c.MaxFrameBytes()))); c.TxQueueSize < need {
		return fmt.Errorf("tx queue size %d below %d: %w", c.TxQueueSize, need, pkg.ErrInvalidConfig)
	}
	if c.RxQueueSize%4 != 0 || c.TxQueueSize%4 != 0 {
		return fmt.Errorf("queue sizes %d/%d not word multiples: %w",
			c.RxQueueSize, c.TxQueueSize, pkg.ErrInvalidConfig)
	}
	if c.PHYAddr < AutoPHY || c.PHYAddr > 31 {
		return fmt.Errorf("phy address %d: %w", c.PHYAddr, pkg.ErrInvalidConfig)
	}
	if c.RxIRQ != 0 && c.RxIRQ != 1 {
		return fmt.Errorf("rx irq %d: %w", c.RxIRQ, pkg.ErrInvalidConfig)
	}
	if c.MDIODelay < 0 {
		return fmt.Errorf("mdio delay %v: %w", c.MDIODelay, pkg.ErrInvalidConfig)
	}
	if c.Phase != 0 && !c.Phase.Valid() {
		return fmt.Errorf("phase %v: %w", c.Phase, pkg.ErrInvalidConfig)
	}
	for name, pin := range map[string]int{
		"mdc": c.Pins.MDC, "mdio": c.Pins.MDIO, "clk": c.Pins.Clock,
		"rx_base": c.Pins.RxBase, "rx_valid": c.Pins.RxValid,
		"tx_base": c.Pins.TxBase, "tx_valid": c.Pins.TxValid,
	} {
		if pin < 0 || pin > 29 {
			return fmt.Errorf("pin %s %d: %w", name, pin, pkg.ErrInvalidConfig)
		}
	}
	return nil
}

type filePins struct {
	MDC     int `toml:"mdc"`
	MDIO    int `toml:"mdio"`
	Clock   int `toml:"clk"`
	RxBase  int `toml:"rx_base"`
	RxValid int `toml:"rx_valid"`
	TxBase  int `toml:"tx_base"`
	TxValid int `toml:"tx_valid"`
}

type fileConfig struct {
	MTU         int      `toml:"mtu"`
	RxQueueSize int      `toml:"rx_queue_size"`
	TxQueueSize int      `toml:"tx_queue_size"`
	PHYAddress  any      `toml:"phy_address"`
	MDIODelay   string   `toml:"mdio_delay"`
	RxIRQ       int      `toml:"rx_irq"`
	RxDMA       int      `toml:"rx_dma"`
	TxDMA       int      `toml:"tx_dma"`
	Phase       string   `toml:"phase"`
	Pins        filePins `toml:"pins"`
}

// LoadConfig reads a TOML configuration file. Keys absent from the file keep
// their DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load link config: %w", err)
	}
	return applyFile(meta, raw)
}

// ParseConfig is LoadConfig for TOML text already in memory.
func ParseConfig(data string) (Config, error) {
	var raw fileConfig
	meta, err := toml.Decode(data, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("parse link config: %w", err)
	}
	return applyFile(meta, raw)
}

func applyFile(meta toml.MetaData, raw fileConfig) (Config, error) {
	cfg := DefaultConfig()

	if meta.IsDefined("mtu") {
		cfg.MTU = raw.MTU
	}
	if meta.IsDefined("rx_queue_size") {
		cfg.RxQueueSize = raw.RxQueueSize
	}
	if meta.IsDefined("tx_queue_size") {
		cfg.TxQueueSize = raw.TxQueueSize
	}
	if meta.IsDefined("rx_irq") {
		cfg.RxIRQ = raw.RxIRQ
	}
	if meta.IsDefined("rx_dma") {
		cfg.RxDMA = raw.RxDMA
	}
	if meta.IsDefined("tx_dma") {
		cfg.TxDMA = raw.TxDMA
	}

	if meta.IsDefined("phy_address") {
		switch v := raw.PHYAddress.(type) {
		case int64:
			cfg.PHYAddr = int(v)
		case string:
			if !strings.EqualFold(strings.TrimSpace(v), "auto") {
				return Config{}, fmt.Errorf("parse phy_address %q: %w", v, pkg.ErrInvalidConfig)
			}
			cfg.PHYAddr = AutoPHY
		default:
			return Config{}, fmt.Errorf("parse phy_address %v: %w", v, pkg.ErrInvalidConfig)
		}
	}

	if meta.IsDefined("mdio_delay") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.MDIODelay))
		if err != nil {
			return Config{}, fmt.Errorf("parse mdio_delay: %w", err)
		}
		cfg.MDIODelay = d
	}

	if meta.IsDefined("phase") {
		p, err := frame.ParsePhase(raw.Phase)
		if err != nil {
			return Config{}, fmt.Errorf("parse phase: %w", err)
		}
		cfg.Phase = p
	}

	pins := []struct {
		key string
		dst *int
		src int
	}{
		{"mdc", &cfg.Pins.MDC, raw.Pins.MDC},
		{"mdio", &cfg.Pins.MDIO, raw.Pins.MDIO},
		{"clk", &cfg.Pins.Clock, raw.Pins.Clock},
		{"rx_base", &cfg.Pins.RxBase, raw.Pins.RxBase},
		{"rx_valid", &cfg.Pins.RxValid, raw.Pins.RxValid},
		{"tx_base", &cfg.Pins.TxBase, raw.Pins.TxBase},
		{"tx_valid", &cfg.Pins.TxValid, raw.Pins.TxValid},
	}
	for _, p := range pins {
		if meta.IsDefined("pins", p.key) {
			*p.dst = p.src
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
