// Package components provides reusable TUI components.
package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// OpportunityRow represents a sized opportunity in the list.
type OpportunityRow struct {
	Time        string
	BlockNumber uint64
	Token       string
	Route       string
	SizeEth     decimal.Decimal
	ProfitEth   decimal.Decimal
	GasEth      decimal.Decimal
	ReturnBps   decimal.Decimal
	Evaluations int
	// GridGap is ternary minus grid profit; nil without a cross-check.
	GridGap *decimal.Decimal
}

// OpportunitiesComponent renders the opportunities table.
type OpportunitiesComponent struct {
	rows    []OpportunityRow
	maxRows int
	table   table.Model
}

// NewOpportunitiesComponent creates a new opportunities component that
// keeps at most maxRows entries, newest first.
func NewOpportunitiesComponent(maxRows int) *OpportunitiesComponent {
	t := table.New(
		table.WithColumns(opportunityColumns()),
		table.WithHeight(10),
		table.WithFocused(true),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#374151")).
		BorderBottom(true).
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED"))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#4C1D95")).
		Bold(false)
	t.SetStyles(s)

	return &OpportunitiesComponent{
		rows:    make([]OpportunityRow, 0, maxRows),
		maxRows: maxRows,
		table:   t,
	}
}

func opportunityColumns() []table.Column {
	return []table.Column{
		{Title: "Time", Width: 8},
		{Title: "Block", Width: 9},
		{Title: "Token", Width: 6},
		{Title: "Route", Width: 10},
		{Title: "Size ETH", Width: 9},
		{Title: "Profit ETH", Width: 11},
		{Title: "Gas ETH", Width: 9},
		{Title: "bps", Width: 6},
		{Title: "Evals", Width: 5},
		{Title: "Grid Δ", Width: 9},
	}
}

// Add inserts an opportunity at the top of the list.
func (o *OpportunitiesComponent) Add(row OpportunityRow) {
	o.rows = append([]OpportunityRow{row}, o.rows...)
	if len(o.rows) > o.maxRows {
		o.rows = o.rows[:o.maxRows]
	}
	o.sync()
}

// Len returns the number of stored opportunities.
func (o *OpportunitiesComponent) Len() int {
	return len(o.rows)
}

// Rows returns the stored opportunities, newest first.
func (o *OpportunitiesComponent) Rows() []OpportunityRow {
	return o.rows
}

// Clear clears all opportunities.
func (o *OpportunitiesComponent) Clear() {
	o.rows = o.rows[:0]
	o.sync()
}

// ScrollUp moves the selection up one row.
func (o *OpportunitiesComponent) ScrollUp() {
	o.table.MoveUp(1)
}

// ScrollDown moves the selection down one row.
func (o *OpportunitiesComponent) ScrollDown() {
	o.table.MoveDown(1)
}

// SetHeight sets the number of visible rows.
func (o *OpportunitiesComponent) SetHeight(h int) {
	if h < 3 {
		h = 3
	}
	o.table.SetHeight(h)
}

// Selected returns the highlighted opportunity.
func (o *OpportunitiesComponent) Selected() (OpportunityRow, bool) {
	i := o.table.Cursor()
	if i < 0 || i >= len(o.rows) {
		return OpportunityRow{}, false
	}
	return o.rows[i], true
}

func (o *OpportunitiesComponent) sync() {
	rows := make([]table.Row, 0, len(o.rows))
	for _, r := range o.rows {
		gap := "-"
		if r.GridGap != nil {
			gap = r.GridGap.StringFixed(5)
		}
		rows = append(rows, table.Row{
			r.Time,
			fmt.Sprintf("%d", r.BlockNumber),
			r.Token,
			r.Route,
			r.SizeEth.StringFixed(4),
			r.ProfitEth.StringFixed(6),
			r.GasEth.StringFixed(5),
			r.ReturnBps.StringFixed(1),
			fmt.Sprintf("%d", r.Evaluations),
			gap,
		})
	}
	o.table.SetRows(rows)
}

// View renders the opportunities component.
func (o *OpportunitiesComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	title := headerStyle.Render(fmt.Sprintf("OPPORTUNITIES (last %d)", o.maxRows))
	if len(o.rows) == 0 {
		return title + "\n\n" + mutedStyle.Render("No opportunities above the profit threshold yet...")
	}
	return title + "\n" + o.table.View()
}
