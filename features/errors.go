package features

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyOrderbook = errors.New("empty orderbook")
	ErrZeroVolume     = errors.New("zero volume")
	// ErrNoTrades and ErrNoLiquidations are part of the taxonomy but the flow
	// features return a neutral 0 for empty periods instead.
	ErrNoTrades       = errors.New("no trades in period")
	ErrNoLiquidations = errors.New("no liquidations in period")
)

// InsufficientDepthError is returned when more levels are requested than
// both sides of the book hold.
type InsufficientDepthError struct {
	Requested int
	Available int
}

func (e *InsufficientDepthError) Error() string {
	return fmt.Sprintf("insufficient depth: requested %d, available %d", e.Requested, e.Available)
}

type ComputationError struct {
	Message string
}

func (e *ComputationError) Error() string {
	return "computation error: " + e.Message
}

type InvalidConfigError struct {
	Message string
}

func (e *InvalidConfigError) Error() string {
	return "invalid configuration: " + e.Message
}

// FeatureNotFoundError reports a name that does not resolve to a feature.
type FeatureNotFoundError struct {
	Name string
}

func (e *FeatureNotFoundError) Error() string {
	return fmt.Sprintf("feature not found: %s", e.Name)
}
