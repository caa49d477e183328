package pkg

import (
	"errors"
	"fmt"
)

// Link driver errors.
var (
	// ErrAllocationExhausted indicates a ring has no contiguous room for a record.
	ErrAllocationExhausted = errors.New("allocation exhausted")

	// ErrFraming indicates no preamble/SFD pattern was found in a capture.
	ErrFraming = errors.New("preamble not found")

	// ErrFCSMismatch indicates no offset's CRC matched its trailing check sequence.
	ErrFCSMismatch = errors.New("FCS mismatch")

	// ErrRunt indicates a realigned capture too short to hold a check sequence.
	ErrRunt = errors.New("runt frame")

	// ErrProgramming indicates a driver defect such as an unpaired commit.
	// It is only ever delivered through panic.
	ErrProgramming = errors.New("programming error")

	// ErrHardwareAbsent indicates no PHY answered on the management bus.
	ErrHardwareAbsent = errors.New("PHY not present")

	// ErrPHYTimeout indicates a PHY self-clearing bit did not clear in time.
	ErrPHYTimeout = errors.New("PHY timeout")

	// ErrInvalidConfig indicates an invalid driver configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrFrameTooLarge indicates an outbound frame exceeds the MTU.
	ErrFrameTooLarge = errors.New("frame too large")

	// ErrClosed indicates an operation on a closed bridge or port.
	ErrClosed = errors.New("closed")
)

// Assert panics with a wrapped ErrProgramming when cond is false.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Errorf("%w: "+format, append([]any{ErrProgramming}, args...)...))
	}
}

// DropReason classifies why a received capture was discarded.
type DropReason int

// Drop reasons.
const (
	DropNone    DropReason = iota // Frame accepted
	DropFraming                   // No preamble/SFD
	DropRunt                      // Fewer than four bytes after the SFD
	DropFCS                       // No matching check sequence
	DropOther                     // Any other failure
)

// String returns a string representation of the drop reason.
func (r DropReason) String() string {
	switch r {
	case DropNone:
		return "none"
	case DropFraming:
		return "framing"
	case DropRunt:
		return "runt"
	case DropFCS:
		return "fcs"
	default:
		return "other"
	}
}

// DropReasonOf maps a validation error to its drop reason.
func DropReasonOf(err error) DropReason {
	switch {
	case err == nil:
		return DropNone
	case errors.Is(err, ErrFraming):
		return DropFraming
	case errors.Is(err, ErrRunt):
		return DropRunt
	case errors.Is(err, ErrFCSMismatch):
		return DropFCS
	default:
		return DropOther
	}
}
