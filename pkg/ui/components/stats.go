package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// Stats holds session statistics for display.
type Stats struct {
	Scans         int64
	Blocks        int64
	Opportunities int64
	Failures      int64
	Evaluations   int64
	TotalScanTime time.Duration
	BestProfitEth decimal.Decimal
}

// AvgScan returns the mean scan duration.
func (s Stats) AvgScan() time.Duration {
	if s.Scans == 0 {
		return 0
	}
	return s.TotalScanTime / time.Duration(s.Scans)
}

// StatsComponent renders statistics.
type StatsComponent struct {
	stats Stats
}

// NewStatsComponent creates a new stats component.
func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

// Update replaces the statistics.
func (s *StatsComponent) Update(stats Stats) {
	s.stats = stats
}

// Stats returns the current statistics.
func (s *StatsComponent) Stats() Stats {
	return s.stats
}

// View renders the stats component.
func (s *StatsComponent) View() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	failures := valueStyle.Render(fmt.Sprintf("%d", s.stats.Failures))
	if s.stats.Failures > 0 {
		failures = errorStyle.Render(fmt.Sprintf("%d", s.stats.Failures))
	}

	return style.Render("STATS") + "\n" +
		fmt.Sprintf("Scans: %s  │  Blocks: %s  │  Opportunities: %s  │  Best: %s ETH\n",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Scans)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Blocks)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Opportunities)),
			valueStyle.Render(s.stats.BestProfitEth.StringFixed(6)),
		) +
		fmt.Sprintf("Avg scan: %s  │  Evaluations: %s  │  Token failures: %s",
			valueStyle.Render(s.stats.AvgScan().Round(time.Millisecond).String()),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Evaluations)),
			failures,
		)
}
