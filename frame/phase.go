package frame

import (
	"fmt"
	"strings"

	"github.com/ardnew/softrmii/pkg"
)

// Phase is the bit granularity at which Locate tests for the delimiter.
//
// RMII samples two bits per reference clock, so a capture that starts on a
// clock edge is rotated by an even number of bits. Captures gated by other
// logic may start on any bit, or be byte aligned already.
type Phase int

// Supported phases.
const (
	PhaseBit   Phase = 1 // Any rotation 0..7
	PhaseDibit Phase = 2 // Even rotations 0, 2, 4, 6
	PhaseByte  Phase = 8 // Byte aligned captures only
)

// DefaultPhase matches a 2-bit RMII receive path.
const DefaultPhase = PhaseDibit

// Valid returns true if p is a supported phase.
func (p Phase) Valid() bool {
	switch p {
	case PhaseBit, PhaseDibit, PhaseByte:
		return true
	}
	return false
}

// orDefault returns p, or DefaultPhase if p is unset.
func (p Phase) orDefault() Phase {
	if p == 0 {
		return DefaultPhase
	}
	return p
}

// String returns the configuration name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseBit:
		return "bit"
	case PhaseDibit:
		return "dibit"
	case PhaseByte:
		return "byte"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// ParsePhase converts a configuration name to a Phase.
func ParsePhase(s string) (Phase, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bit", "1":
		return PhaseBit, nil
	case "dibit", "2", "":
		return PhaseDibit, nil
	case "byte", "8":
		return PhaseByte, nil
	}
	return 0, fmt.Errorf("phase %q: %w", s, pkg.ErrInvalidConfig)
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("phase %d: %w", int(p), pkg.ErrInvalidConfig)
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Phase) UnmarshalText(text []byte) error {
	v, err := ParsePhase(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
