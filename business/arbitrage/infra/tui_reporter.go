package infra

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fd1az/sizing-bot/business/arbitrage/app"
	"github.com/fd1az/sizing-bot/business/arbitrage/domain"
	blockchainDomain "github.com/fd1az/sizing-bot/business/blockchain/domain"
	"github.com/fd1az/sizing-bot/pkg/ui"
)

// TUIReporter implements Reporter for the Bubble Tea TUI.
type TUIReporter struct {
	send func(tea.Msg)
}

// NewTUIReporter creates a TUIReporter. A nil send uses the running program.
func NewTUIReporter(send func(tea.Msg)) *TUIReporter {
	if send == nil {
		send = ui.Send
	}
	return &TUIReporter{send: send}
}

// Start marks the sizing step as starting.
func (r *TUIReporter) Start(ctx context.Context) error {
	r.send(ui.StartupMsg{Step: "sizing", Status: "connecting"})
	return nil
}

// Report sends an opportunity to the TUI.
func (r *TUIReporter) Report(opp *domain.Opportunity) {
	r.send(ui.OpportunityMsg{Opportunity: opp})
}

// ReportScan sends the scan summary and its gas snapshot.
func (r *TUIReporter) ReportScan(s app.ScanSummary) {
	if s.Gas != nil {
		r.send(ui.GasPriceMsg{MaxFeeGwei: s.Gas.Gwei(), TipGwei: s.Gas.TipGwei(), Fallback: s.Gas.Fallback})
	}
	r.send(ui.ScanMsg{
		BlockNumber:   s.BlockNumber,
		Tokens:        s.Tokens,
		Routes:        s.Routes,
		Opportunities: s.Opportunities,
		Failures:      s.Failures,
		Evaluations:   s.Evaluations,
		Duration:      s.Duration,
	})
}

// UpdateConnectionStatus sends the node status and the latest block.
func (r *TUIReporter) UpdateConnectionStatus(status blockchainDomain.ConnectionStatus) {
	r.send(ui.ConnectionStatusMsg{
		Name:      "Ethereum",
		State:     string(status.State),
		Connected: status.State == blockchainDomain.StateConnected,
		UsingHTTP: status.UsingHTTP,
		LastBlock: status.LastBlock,
	})
	if status.LastBlock > 0 {
		r.send(ui.BlockMsg{Number: status.LastBlock, Timestamp: time.Now()})
	}
}

// Stop is a no-op; the program exits on its own quit key.
func (r *TUIReporter) Stop() error {
	return nil
}
