package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// TradeBreakdown describes one sized round trip for display. All values
// come computed from the domain.
type TradeBreakdown struct {
	Token       string
	Route       string
	SizeEth     decimal.Decimal
	TokenOut    string
	WethBackEth decimal.Decimal
	GasEth      decimal.Decimal
	ProfitEth   decimal.Decimal
	Iterations  int
	Evaluations int
	FlashLoan   string // hex-encoded flash-loan params
	HasTx       bool
}

// BreakdownComponent renders the best trade of the session or the
// highlighted one.
type BreakdownComponent struct {
	trade   *TradeBreakdown
	gasGwei float64
	tipGwei float64
	gasFb   bool
}

// NewBreakdownComponent creates a new breakdown component.
func NewBreakdownComponent() *BreakdownComponent {
	return &BreakdownComponent{}
}

// SetTrade replaces the displayed trade.
func (b *BreakdownComponent) SetTrade(t TradeBreakdown) {
	b.trade = &t
}

// Trade returns the displayed trade, if any.
func (b *BreakdownComponent) Trade() (TradeBreakdown, bool) {
	if b.trade == nil {
		return TradeBreakdown{}, false
	}
	return *b.trade, true
}

// SetGas sets the fee snapshot of the last scan.
func (b *BreakdownComponent) SetGas(maxFeeGwei, tipGwei float64, fallback bool) {
	b.gasGwei = maxFeeGwei
	b.tipGwei = tipGwei
	b.gasFb = fallback
}

// View renders the breakdown component.
func (b *BreakdownComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	positiveStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	negativeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("GAS"))
	sb.WriteString("\n")
	if b.gasGwei > 0 {
		gas := fmt.Sprintf("  max fee %.2f gwei  tip %.2f gwei", b.gasGwei, b.tipGwei)
		if b.gasFb {
			sb.WriteString(warnStyle.Render(gas + "  (fallback)"))
		} else {
			sb.WriteString(gas)
		}
	} else {
		sb.WriteString(dimStyle.Render("  Waiting for first scan..."))
	}
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render("  " + strings.Repeat("─", 48)))
	sb.WriteString("\n")

	if b.trade == nil {
		sb.WriteString(headerStyle.Render("TRADE"))
		sb.WriteString("\n")
		sb.WriteString(dimStyle.Render("  No sized trade yet"))
		return sb.String()
	}

	t := b.trade
	sb.WriteString(headerStyle.Render(fmt.Sprintf("TRADE %s %s", t.Token, t.Route)))
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "  Borrow:     %s WETH\n", t.SizeEth.StringFixed(6))
	fmt.Fprintf(&sb, "  Buy leg:    %s\n", dimStyle.Render(t.TokenOut))
	fmt.Fprintf(&sb, "  Sell leg:   %s WETH\n", t.WethBackEth.StringFixed(6))
	fmt.Fprintf(&sb, "  Gas cost:   %s\n", negativeStyle.Render("-"+t.GasEth.StringFixed(6)+" ETH"))
	if t.ProfitEth.IsPositive() {
		fmt.Fprintf(&sb, "  Net profit: %s\n", positiveStyle.Render("+"+t.ProfitEth.StringFixed(6)+" ETH"))
	} else {
		fmt.Fprintf(&sb, "  Net profit: %s\n", negativeStyle.Render(t.ProfitEth.StringFixed(6)+" ETH"))
	}
	fmt.Fprintf(&sb, "  Search:     %s\n",
		dimStyle.Render(fmt.Sprintf("%d iterations, %d evaluations", t.Iterations, t.Evaluations)))

	if t.FlashLoan != "" {
		params := t.FlashLoan
		if len(params) > 26 {
			params = params[:14] + "…" + params[len(params)-10:]
		}
		fmt.Fprintf(&sb, "  Params:     %s\n", dimStyle.Render(params))
	}
	if t.HasTx {
		sb.WriteString(dimStyle.Render("  Unsigned tx prepared"))
		sb.WriteString("\n")
	}

	return sb.String()
}
