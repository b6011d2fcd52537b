package ui

import (
	"errors"
	"math/big"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/sizing-bot/business/arbitrage/domain"
	pricingDomain "github.com/fd1az/sizing-bot/business/pricing/domain"
	"github.com/fd1az/sizing-bot/internal/asset"
)

func testOpportunity(t *testing.T, profit string) *domain.Opportunity {
	t.Helper()
	size, err := asset.ParseEther("1.5")
	require.NoError(t, err)
	p, err := asset.ParseEther(profit)
	require.NoError(t, err)
	gas, err := asset.ParseEther("0.009")
	require.NoError(t, err)
	back := new(big.Int).Add(size, p)
	back.Add(back, gas)

	route := domain.Route{Buy: pricingDomain.VenueUniswap, Sell: pricingDomain.VenueSushiswap}
	params, err := domain.NewFlashLoanParams(route, asset.AddrWETH, asset.LINK.Address(), 3000, p)
	require.NoError(t, err)

	return &domain.Opportunity{
		ID:          domain.NewOpportunityID(),
		BlockNumber: 42,
		Timestamp:   time.Now(),
		Token:       asset.LINK,
		Route:       route,
		SizeIn:      size,
		TokenOut:    big.NewInt(1),
		WethBack:    back,
		Profit:      p,
		Gas:         domain.GasSnapshot{Cost: gas},
		Evaluations: 30,
		FlashLoan:   params,
	}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func TestModel_OpportunityUpdatesTableAndBest(t *testing.T) {
	m := New()
	m = update(t, m, OpportunityMsg{Opportunity: testOpportunity(t, "0.02")})
	m = update(t, m, OpportunityMsg{Opportunity: testOpportunity(t, "0.01")})

	assert.Equal(t, 2, m.opportunities.Len())
	assert.Equal(t, "0.01", m.opportunities.Rows()[0].ProfitEth.String(), "newest first")

	best, ok := m.breakdown.Trade()
	require.True(t, ok)
	assert.Equal(t, "0.02", best.ProfitEth.String())
	assert.Equal(t, "1.529", best.WethBackEth.String())
	assert.Contains(t, best.FlashLoan, "0x")

	assert.Equal(t, int64(2), m.stats.Stats().Opportunities)
	assert.Equal(t, "0.02", m.stats.Stats().BestProfitEth.String())
}

func TestModel_PauseDropsOpportunities(t *testing.T) {
	m := New()
	m.phase = PhaseDashboard
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	require.True(t, m.paused)

	m = update(t, m, OpportunityMsg{Opportunity: testOpportunity(t, "0.02")})
	assert.Equal(t, 0, m.opportunities.Len())
}

func TestModel_ScanAndBlockStats(t *testing.T) {
	m := New()
	m = update(t, m, BlockMsg{Number: 100})
	m = update(t, m, BlockMsg{Number: 100})
	m = update(t, m, ScanMsg{BlockNumber: 100, Tokens: 16, Failures: 2, Evaluations: 500, Duration: time.Second})
	m = update(t, m, ScanMsg{BlockNumber: 101, Tokens: 16, Evaluations: 300, Duration: 3 * time.Second})

	st := m.stats.Stats()
	assert.Equal(t, int64(1), st.Blocks)
	assert.Equal(t, int64(2), st.Scans)
	assert.Equal(t, int64(2), st.Failures)
	assert.Equal(t, int64(800), st.Evaluations)
	assert.Equal(t, 2*time.Second, st.AvgScan())
	assert.Equal(t, uint64(100), m.currentBlock)
}

func TestModel_StartupCompletes(t *testing.T) {
	m := New()
	for _, step := range []string{"config", "venues"} {
		m = update(t, m, StartupMsg{Step: step, Status: "done"})
	}
	assert.False(t, m.startupComplete)

	m = update(t, m, ConnectionStatusMsg{Name: "Ethereum", State: "connected", Connected: true})
	m = update(t, m, ScanMsg{})
	assert.True(t, m.startupComplete)

	conn, ok := m.status.Get("Ethereum")
	require.True(t, ok)
	assert.Equal(t, "connected", conn.State)
}

func TestModel_ErrorsKeepLastThree(t *testing.T) {
	m := New()
	for i := 0; i < 5; i++ {
		m = update(t, m, ErrorMsg{Error: errors.New("boom")})
	}
	assert.Len(t, m.errors, 3)

	m.phase = PhaseDashboard
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e")})
	assert.Empty(t, m.errors)
}

func TestRowFromOpportunity(t *testing.T) {
	opp := testOpportunity(t, "0.015")
	opp.Grid = &domain.GridCheck{Profit: big.NewInt(0)}

	row := RowFromOpportunity(opp)
	assert.Equal(t, "LINK", row.Token)
	assert.Equal(t, "UNI>SUSHI", row.Route)
	assert.Equal(t, "100", row.ReturnBps.String())
	require.NotNil(t, row.GridGap)
	assert.Equal(t, "0.015", row.GridGap.String())
}
