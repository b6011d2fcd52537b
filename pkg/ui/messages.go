// Package ui provides the Bubble Tea TUI for the sizing bot.
package ui

import (
	"time"

	"github.com/fd1az/sizing-bot/business/arbitrage/domain"
)

// Message types for TUI updates

// OpportunityMsg is sent when a route is sized above the profit threshold.
type OpportunityMsg struct {
	Opportunity *domain.Opportunity
}

// ScanMsg summarizes one pass over the token list.
type ScanMsg struct {
	BlockNumber   uint64
	Tokens        int
	Routes        int
	Opportunities int
	Failures      int
	Evaluations   int
	Duration      time.Duration
}

// ConnectionStatusMsg is sent when the node connection changes.
type ConnectionStatusMsg struct {
	Name      string
	State     string
	Connected bool
	UsingHTTP bool
	LastBlock uint64
}

// BlockMsg is sent when a new block is received.
type BlockMsg struct {
	Number    uint64
	Timestamp time.Time
}

// GasPriceMsg is sent when the gas snapshot of a scan is known.
type GasPriceMsg struct {
	MaxFeeGwei float64
	TipGwei    float64
	Fallback   bool
}

// ErrorMsg is sent when an error occurs.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}

// StartModulesMsg signals that modules should start loading.
type StartModulesMsg struct{}

// LogMsg is sent to display a log message in the UI.
type LogMsg struct {
	Level   string // "info", "warn", "error"
	Message string
}

// StartupMsg is sent during application startup to show progress.
type StartupMsg struct {
	Step    string // Current step name
	Status  string // "connecting", "connected", "failed", "done"
	Message string // Optional message
}
