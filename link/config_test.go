package link

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/softrmii/frame"
	"github.com/ardnew/softrmii/pkg"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, Pins{MDC: 14, MDIO: 15, Clock: 10, RxBase: 11, RxValid: 13, TxBase: 7, TxValid: 9}, cfg.Pins)
	assert.Equal(t, time.Millisecond, cfg.MDIODelay)
	assert.Equal(t, 1, cfg.PHYAddr)
	assert.Equal(t, 8192, cfg.RxQueueSize)
	assert.Equal(t, 8192, cfg.TxQueueSize)
	assert.Equal(t, 1500, cfg.MTU)
	assert.Equal(t, 1552, cfg.RxReserve())
	assert.Equal(t, 1514, cfg.MaxFrameBytes())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero mtu", func(c *Config) { c.MTU = 0 }},
		{"rx ring too small", func(c *Config) { c.RxQueueSize = 1556 }},
		{"tx ring too small", func(c *Config) { c.TxQueueSize = 1000 }},
		{"rx ring partial word", func(c *Config) { c.RxQueueSize = 8194 }},
		{"tx ring partial word", func(c *Config) { c.TxQueueSize = 4097 }},
		{"phy address", func(c *Config) { c.PHYAddr = 32 }},
		{"phy address negative", func(c *Config) { c.PHYAddr = -2 }},
		{"irq", func(c *Config) { c.RxIRQ = 2 }},
		{"mdio delay", func(c *Config) { c.MDIODelay = -time.Second }},
		{"phase", func(c *Config) { c.Phase = 3 }},
		{"pin", func(c *Config) { c.Pins.TxValid = 30 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			assert.ErrorIs(t, cfg.Validate(), pkg.ErrInvalidConfig)

			_, err := New(cfg, &mockRx{}, &mockTx{})
			assert.ErrorIs(t, err, pkg.ErrInvalidConfig)
		})
	}

	cfg := DefaultConfig()
	cfg.PHYAddr = AutoPHY
	cfg.Phase = 0
	assert.NoError(t, cfg.Validate())
}

func TestParseConfig_OverridesDefinedKeys(t *testing.T) {
	cfg, err := ParseConfig(`
mtu = 1000
phy_address = "auto"
mdio_delay = "250us"
phase = "bit"

[pins]
mdc = 2
tx_valid = 5
`)
	require.NoError(t, err)

	want := DefaultConfig()
	want.MTU = 1000
	want.PHYAddr = AutoPHY
	want.MDIODelay = 250 * time.Microsecond
	want.Phase = frame.PhaseBit
	want.Pins.MDC = 2
	want.Pins.TxValid = 5

	if diff := cmp.Diff(want, cfg, cmpopts.IgnoreFields(Config{}, "Lock")); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParseConfig_ExplicitZero(t *testing.T) {
	cfg, err := ParseConfig("phy_address = 0\n[pins]\nclk = 0\n")
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.PHYAddr)
	assert.Equal(t, 0, cfg.Pins.Clock)
	assert.Equal(t, 11, cfg.Pins.RxBase)
}

func TestParseConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"syntax", "mtu = "},
		{"phy name", `phy_address = "first"`},
		{"phy type", `phy_address = 1.5`},
		{"delay", `mdio_delay = "soon"`},
		{"phase", `phase = "nibble"`},
		{"invalid result", `rx_irq = 3`},
		{"partial word queue", `rx_queue_size = 8194`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig(tt.toml)
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "link.toml")
	require.NoError(t, os.WriteFile(path, []byte("tx_queue_size = 4096\nrx_irq = 1\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 4096, cfg.TxQueueSize)
	assert.Equal(t, 1, cfg.RxIRQ)
	assert.Equal(t, 8192, cfg.RxQueueSize)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
