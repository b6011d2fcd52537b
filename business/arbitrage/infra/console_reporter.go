// Package infra contains infrastructure adapters for the arbitrage context.
package infra

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"os"
	"sync"
	"time"

	"github.com/fd1az/sizing-bot/business/arbitrage/app"
	"github.com/fd1az/sizing-bot/business/arbitrage/domain"
	blockchainDomain "github.com/fd1az/sizing-bot/business/blockchain/domain"
	"github.com/fd1az/sizing-bot/internal/asset"
)

const rule = "================================================================================"
const thinRule = "--------------------------------------------------------------------------------"

// ConsoleReporter implements Reporter for CLI output.
type ConsoleReporter struct {
	mu        sync.Mutex
	out       io.Writer
	lastState blockchainDomain.ConnectionState
}

// NewConsoleReporter creates a ConsoleReporter writing to out, or to
// stdout when out is nil.
func NewConsoleReporter(out io.Writer) *ConsoleReporter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleReporter{out: out}
}

// Start prints the banner.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, "Flash-Loan Size Optimizer Started")
	fmt.Fprintln(r.out, "=================================")
	return nil
}

// Report prints a sized opportunity.
func (r *ConsoleReporter) Report(opp *domain.Opportunity) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, rule)
	fmt.Fprintln(r.out, "FLASH-LOAN OPPORTUNITY")
	fmt.Fprintln(r.out, rule)
	fmt.Fprintf(r.out, "ID:             %s\n", opp.ID)
	fmt.Fprintf(r.out, "Block:          #%d\n", opp.BlockNumber)
	fmt.Fprintf(r.out, "Timestamp:      %s\n", opp.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(r.out, "Token:          %s (%s)\n", opp.Token.Symbol(), opp.Token.Address().Hex())
	fmt.Fprintf(r.out, "Route:          %s\n", opp.Route.String())
	fmt.Fprintln(r.out, thinRule)
	fmt.Fprintln(r.out, "SIZING")
	fmt.Fprintf(r.out, "  Borrow:       %s WETH\n", opp.SizeInEther().StringFixed(6))
	fmt.Fprintf(r.out, "  Token out:    %s\n", opp.TokenOutAmount().StringFixed(6))
	fmt.Fprintf(r.out, "  WETH back:    %s WETH\n", opp.WethBackAmount().StringFixed(6))
	fmt.Fprintf(r.out, "  Search:       %d iterations, %d evaluations\n", opp.Iterations, opp.Evaluations)
	if opp.Grid != nil {
		fmt.Fprintf(r.out, "  Grid check:   %s ETH at %s WETH (gap %s ETH)\n",
			etherString(opp.Grid.Profit), etherString(opp.Grid.SizeIn), opp.GridProfitGap().StringFixed(8))
	}
	fmt.Fprintln(r.out, thinRule)
	fmt.Fprintln(r.out, "PROFIT")
	fmt.Fprintf(r.out, "  Gas cost:     %s ETH (max fee %s gwei%s)\n",
		opp.GasCostEther().StringFixed(6), gweiString(opp.Gas.MaxFeePerGas), fallbackNote(opp.Gas.Fallback))
	fmt.Fprintf(r.out, "  Net:          %s ETH (%s bps)\n", opp.ProfitEther().StringFixed(6), opp.ReturnBps().StringFixed(1))
	fmt.Fprintln(r.out, thinRule)
	fmt.Fprintln(r.out, "FLASH LOAN")
	if params, err := opp.FlashLoan.Encode(); err == nil {
		fmt.Fprintf(r.out, "  Params:       0x%s\n", hex.EncodeToString(params))
	}
	fmt.Fprintf(r.out, "  Calldata:     %d bytes\n", len(opp.Calldata))
	if opp.Tx != nil {
		fmt.Fprintf(r.out, "  Unsigned tx:  to %s, gas limit %d\n", opp.Tx.To().Hex(), opp.Tx.Gas())
	}
	fmt.Fprintln(r.out, rule)
}

// ReportScan prints a one-line scan summary.
func (r *ConsoleReporter) ReportScan(s app.ScanSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	gas := "n/a"
	if s.Gas != nil {
		gas = fmt.Sprintf("%.2f gwei%s", s.Gas.Gwei(), fallbackNote(s.Gas.Fallback))
	}
	fmt.Fprintf(r.out, "[%s] block #%d: %d tokens, %d routes, %d opportunities, %d failures, %d evaluations, gas %s, %s\n",
		time.Now().Format("15:04:05"), s.BlockNumber, s.Tokens, s.Routes, s.Opportunities,
		s.Failures, s.Evaluations, gas, s.Duration.Round(time.Millisecond))
}

// UpdateConnectionStatus prints connection state changes.
func (r *ConsoleReporter) UpdateConnectionStatus(status blockchainDomain.ConnectionStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if status.State == r.lastState {
		return
	}
	r.lastState = status.State
	fmt.Fprintf(r.out, "[%s] ethereum: %s (block #%d)\n", time.Now().Format("15:04:05"), status.State, status.LastBlock)
}

// Stop prints the closing line.
func (r *ConsoleReporter) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "Flash-Loan Size Optimizer Stopped")
	return nil
}

func fallbackNote(fallback bool) string {
	if fallback {
		return ", fallback"
	}
	return ""
}

func etherString(wei *big.Int) string {
	return asset.ToDecimal(wei, 18).StringFixed(6)
}

func gweiString(wei *big.Int) string {
	return asset.ToDecimal(wei, 9).StringFixed(2)
}
