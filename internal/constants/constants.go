// Package constants defines the constants used across the load-sync service.
package constants

import (
	"log/slog"
	"time"
)

var (
	// Version is the version of the application.
	Version = "Dev"
)

const (
	// CmdName is the name of the load-sync command.
	CmdName = "load-sync"

	// ServiceName identifies the service in health responses and logs.
	ServiceName = "tms-load-sync"

	// DefaultLogLevel is the default log level of the application.
	DefaultLogLevel = slog.LevelWarn
)

// Sweep defaults.
const (
	// DefaultPreShipmentLookahead is how far ahead the pre-shipment sweep searches for pickups.
	DefaultPreShipmentLookahead = 24 * time.Hour

	// DefaultPrePickupLookahead is how far ahead the pre-pickup sweep searches for pickups.
	DefaultPrePickupLookahead = 2 * time.Hour

	// DefaultInTransitLookback is how far back the in-transit sweep searches for active loads.
	DefaultInTransitLookback = 7 * 24 * time.Hour

	// DefaultDedupTTL is how long an order is remembered as already notified.
	DefaultDedupTTL = 7 * 24 * time.Hour
)
