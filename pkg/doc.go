// Package pkg provides shared utilities for the softrmii link driver.
//
// This package contains common functionality used by the ring, codec,
// driver and management bus packages, including:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel error types for allocation, framing and PHY failures
//   - Component identifiers for log filtering
//
// # Logging
//
// The logging subsystem wraps [log/slog] with component context:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentLink, "capture armed", "bytes", 1552)
//
// # Errors
//
// Recoverable conditions are sentinel values:
//
//	if errors.Is(err, pkg.ErrAllocationExhausted) {
//	    // Retry on the next poll
//	}
//
// Driver defects are not recoverable. They surface as a panic whose value
// wraps [ErrProgramming].
package pkg
