package ui

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/sizing-bot/business/arbitrage/domain"
	"github.com/fd1az/sizing-bot/internal/asset"
	"github.com/fd1az/sizing-bot/pkg/ui/components"
)

// StartupStep represents a step in the startup process.
type StartupStep struct {
	Name   string
	Status string // "pending", "connecting", "connected", "failed", "done"
}

// Phase represents the current UI phase.
type Phase string

const (
	PhaseWelcome   Phase = "welcome"   // Initial welcome screen
	PhaseStartup   Phase = "startup"   // Loading/connecting
	PhaseDashboard Phase = "dashboard" // Main dashboard
)

// WelcomeDuration is how long the welcome screen shows before auto-advancing.
const WelcomeDuration = 2 * time.Second

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

var startupOrder = []string{"config", "ethereum", "venues", "sizing"}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	// Components
	opportunities *components.OpportunitiesComponent
	breakdown     *components.BreakdownComponent
	stats         *components.StatsComponent
	status        *components.StatusComponent
	keys          KeyMap
	help          help.Model

	// Phase state
	phase        Phase
	welcomeStart time.Time

	// State
	ready        bool
	quitting     bool
	paused       bool // drop new opportunities while set
	width        int
	height       int
	currentBlock uint64
	lastUpdate   time.Time
	lastScanTime time.Time
	errors       []ErrorEntry // last 3
	activityFeed []string

	// Startup state
	startupComplete bool
	startupSteps    map[string]*StartupStep
	startupTime     time.Time
}

// New creates a new TUI model.
func New() Model {
	now := time.Now()
	return Model{
		opportunities: components.NewOpportunitiesComponent(50),
		breakdown:     components.NewBreakdownComponent(),
		stats:         components.NewStatsComponent(),
		status:        components.NewStatusComponent(),
		keys:          DefaultKeyMap(),
		help:          help.New(),
		phase:         PhaseWelcome,
		welcomeStart:  now,
		errors:        make([]ErrorEntry, 0, 3),
		activityFeed:  make([]string, 0, 8),
		startupSteps: map[string]*StartupStep{
			"config":   {Name: "Loading configuration", Status: "pending"},
			"ethereum": {Name: "Connecting to Ethereum", Status: "pending"},
			"venues":   {Name: "Preparing Uniswap and Sushiswap quoters", Status: "pending"},
			"sizing":   {Name: "Starting size optimizer", Status: "pending"},
		},
		startupTime: now,
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// tickCmd returns a command that sends a tick every 100ms for smooth animations.
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

func (m *Model) leaveWelcome() {
	m.phase = PhaseStartup
	m.startupTime = time.Now()
	// Called from Update, so no Send here.
	if OnStartModules != nil {
		go OnStartModules()
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		// Any other key skips the welcome screen.
		if m.phase == PhaseWelcome {
			m.leaveWelcome()
			return m, tickCmd()
		}
		switch {
		case key.Matches(msg, m.keys.Clear):
			m.opportunities.Clear()
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
		case key.Matches(msg, m.keys.Up):
			m.opportunities.ScrollUp()
		case key.Matches(msg, m.keys.Down):
			m.opportunities.ScrollDown()
		case key.Matches(msg, m.keys.Errors):
			m.errors = m.errors[:0]
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.opportunities.SetHeight(msg.Height - 24)
		m.ready = true

	case TickMsg:
		if m.phase == PhaseWelcome && time.Since(m.welcomeStart) >= WelcomeDuration {
			m.leaveWelcome()
		}
		return m, tickCmd()

	case OpportunityMsg:
		if msg.Opportunity == nil || m.paused {
			return m, nil
		}
		opp := msg.Opportunity
		m.opportunities.Add(RowFromOpportunity(opp))
		if best, ok := m.breakdown.Trade(); !ok || opp.ProfitEther().GreaterThan(best.ProfitEth) {
			m.breakdown.SetTrade(BreakdownFromOpportunity(opp))
		}
		st := m.stats.Stats()
		st.Opportunities++
		if opp.ProfitEther().GreaterThan(st.BestProfitEth) {
			st.BestProfitEth = opp.ProfitEther()
		}
		m.stats.Update(st)
		m.activityFeed = addActivity(m.activityFeed, fmt.Sprintf("%s %s +%s ETH at %s ETH",
			opp.Token.Symbol(), opp.Route.ShortString(),
			opp.ProfitEther().StringFixed(5), opp.SizeInEther().StringFixed(3)))
		m.lastUpdate = time.Now()

	case ScanMsg:
		st := m.stats.Stats()
		st.Scans++
		st.Failures += int64(msg.Failures)
		st.Evaluations += int64(msg.Evaluations)
		st.TotalScanTime += msg.Duration
		m.stats.Update(st)
		m.activityFeed = addActivity(m.activityFeed, fmt.Sprintf("Scan #%d: %d tokens, %d found, %d failed in %s",
			msg.BlockNumber, msg.Tokens, msg.Opportunities, msg.Failures, msg.Duration.Round(time.Millisecond)))
		m.lastScanTime = time.Now()
		m.lastUpdate = time.Now()
		m.markStep("sizing", "done")

	case ConnectionStatusMsg:
		m.status.Update(components.ConnectionStatus{
			Name:      msg.Name,
			State:     msg.State,
			Connected: msg.Connected,
			UsingHTTP: msg.UsingHTTP,
			LastBlock: msg.LastBlock,
		})
		if msg.Connected {
			m.markStep("ethereum", "connected")
		} else {
			m.markStep("ethereum", "connecting")
		}
		m.lastUpdate = time.Now()

	case BlockMsg:
		if msg.Number > m.currentBlock {
			m.currentBlock = msg.Number
			st := m.stats.Stats()
			st.Blocks++
			m.stats.Update(st)
			m.activityFeed = addActivity(m.activityFeed, fmt.Sprintf("Block #%d received", msg.Number))
		}
		m.lastUpdate = time.Now()

	case GasPriceMsg:
		m.breakdown.SetGas(msg.MaxFeeGwei, msg.TipGwei, msg.Fallback)
		m.lastUpdate = time.Now()

	case ErrorMsg:
		if msg.Error == nil {
			return m, nil
		}
		m.errors = append(m.errors, ErrorEntry{Message: msg.Error.Error(), Timestamp: time.Now()})
		if len(m.errors) > 3 {
			m.errors = m.errors[len(m.errors)-3:]
		}

	case LogMsg:
		m.activityFeed = addActivity(m.activityFeed, msg.Level+": "+msg.Message)

	case StartupMsg:
		m.markStep(msg.Step, msg.Status)
	}

	return m, nil
}

func (m *Model) markStep(name, status string) {
	if step, ok := m.startupSteps[name]; ok {
		step.Status = status
	}
	for _, step := range m.startupSteps {
		if step.Status != "connected" && step.Status != "done" {
			return
		}
	}
	m.startupComplete = true
}

// RowFromOpportunity converts an opportunity into a table row.
func RowFromOpportunity(opp *domain.Opportunity) components.OpportunityRow {
	row := components.OpportunityRow{
		Time:        opp.Timestamp.Format("15:04:05"),
		BlockNumber: opp.BlockNumber,
		Token:       opp.Token.Symbol(),
		Route:       opp.Route.ShortString(),
		SizeEth:     opp.SizeInEther(),
		ProfitEth:   opp.ProfitEther(),
		GasEth:      opp.GasCostEther(),
		ReturnBps:   opp.ReturnBps(),
		Evaluations: opp.Evaluations,
	}
	if opp.Grid != nil {
		gap := opp.GridProfitGap()
		row.GridGap = &gap
	}
	return row
}

// BreakdownFromOpportunity converts an opportunity into its trade breakdown.
func BreakdownFromOpportunity(opp *domain.Opportunity) components.TradeBreakdown {
	b := components.TradeBreakdown{
		Token:       opp.Token.Symbol(),
		Route:       opp.Route.String(),
		SizeEth:     opp.SizeInEther(),
		TokenOut:    opp.TokenOutAmount().StringFixed(4),
		WethBackEth: asset.ToDecimal(opp.WethBack, 18),
		GasEth:      opp.GasCostEther(),
		ProfitEth:   opp.ProfitEther(),
		Iterations:  opp.Iterations,
		Evaluations: opp.Evaluations,
		HasTx:       opp.Tx != nil,
	}
	if params, err := opp.FlashLoan.Encode(); err == nil {
		b.FlashLoan = "0x" + hex.EncodeToString(params)
	}
	return b
}

// addActivity adds an activity message and returns the updated slice (keeps last 6).
func addActivity(feed []string, message string) []string {
	line := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), message)
	feed = append(feed, line)
	if len(feed) > 6 {
		feed = feed[len(feed)-6:]
	}
	return feed
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	switch m.phase {
	case PhaseWelcome:
		return m.renderWelcomeScreen()
	case PhaseStartup:
		if m.currentBlock == 0 && !m.startupComplete {
			return m.renderStartupScreen()
		}
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(" Flash-Loan Size Optimizer "))
	b.WriteString("\n\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	leftCol := m.breakdown.View() + "\n\n" + m.renderActivityFeed()
	rightCol := m.opportunities.View()

	if m.width > 120 {
		left := BoxStyle.Width(m.width/3 - 2).Render(leftCol)
		right := BoxStyle.Width(2*m.width/3 - 2).Render(rightCol)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	} else {
		width := m.width - 4
		if width < 40 {
			width = 40
		}
		b.WriteString(BoxStyle.Width(width).Render(leftCol))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Width(width).Render(rightCol))
	}
	b.WriteString("\n")
	b.WriteString(m.stats.View())
	b.WriteString("\n\n")

	if len(m.errors) > 0 {
		b.WriteString(ErrorHeaderStyle.Render("ERRORS"))
		b.WriteString(MutedValue.Render(" (e: clear)"))
		b.WriteString("\n")
		for _, err := range m.errors {
			ago := time.Since(err.Timestamp).Round(time.Second)
			b.WriteString(NegativeValue.Render(fmt.Sprintf("  • %s ", err.Message)))
			b.WriteString(MutedValue.Render(fmt.Sprintf("(%s ago)", ago)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.paused {
		b.WriteString(PausedStyle.Render("⏸ PAUSED"))
		b.WriteString(" • ")
	}
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

// renderActivityFeed renders the recent activity feed.
func (m Model) renderActivityFeed() string {
	var sb strings.Builder
	sb.WriteString(HeaderStyle.Render("LIVE ACTIVITY"))
	sb.WriteString("\n")

	if len(m.activityFeed) == 0 {
		sb.WriteString(MutedValue.Render("  Waiting for blocks..."))
		return sb.String()
	}
	for _, activity := range m.activityFeed {
		if strings.Contains(activity, "Block #") {
			sb.WriteString(BlockStyle.Render("  " + activity))
		} else {
			sb.WriteString(MutedValue.Render("  " + activity))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// renderWelcomeScreen renders the animated welcome screen.
func (m Model) renderWelcomeScreen() string {
	dots := strings.Repeat(".", int(time.Since(m.welcomeStart).Milliseconds()/300)%4)

	var sb strings.Builder
	sb.WriteString("\n\n\n\n")
	logo := `
   ███████╗██╗███████╗███████╗██████╗
   ██╔════╝██║╚══███╔╝██╔════╝██╔══██╗
   ███████╗██║  ███╔╝ █████╗  ██████╔╝
   ╚════██║██║ ███╔╝  ██╔══╝  ██╔══██╗
   ███████║██║███████╗███████╗██║  ██║
   ╚══════╝╚═╝╚══════╝╚══════╝╚═╝  ╚═╝
`
	sb.WriteString(HeaderStyle.Render(logo))
	sb.WriteString("\n")
	sb.WriteString(MutedValue.Render("      F L A S H - L O A N   S I Z I N G"))
	sb.WriteString("\n\n\n")
	sb.WriteString(GoldStyle.Render("        uniswap ⇄ sushiswap, WETH in, WETH out"))
	sb.WriteString("\n\n\n")
	sb.WriteString(PositiveValue.Render(fmt.Sprintf("              Initializing%s", dots)))
	sb.WriteString("\n\n")
	sb.WriteString(MutedValue.Render("        Press any key to skip, or wait..."))
	sb.WriteString("\n")
	return sb.String()
}

// renderStartupScreen renders the loading/startup screen.
func (m Model) renderStartupScreen() string {
	var sb strings.Builder

	sb.WriteString("\n\n")
	sb.WriteString(HeaderStyle.Render("  Flash-Loan Size Optimizer"))
	sb.WriteString("\n\n")
	sb.WriteString(lipgloss.NewStyle().Bold(true).Render("  Starting up..."))
	sb.WriteString("\n\n")

	for _, name := range startupOrder {
		step, ok := m.startupSteps[name]
		if !ok {
			continue
		}

		var icon, statusText string
		var style lipgloss.Style
		switch step.Status {
		case "connected", "done":
			icon, statusText, style = "✓", "Ready", PositiveValue
		case "connecting":
			spinners := []string{"◐", "◓", "◑", "◒"}
			icon = spinners[int(time.Since(m.startupTime).Milliseconds()/200)%len(spinners)]
			statusText, style = "Connecting...", WarningValue
		case "failed":
			icon, statusText, style = "✗", "Failed", NegativeValue
		default:
			icon, statusText, style = "○", "Pending", MutedValue
		}

		fmt.Fprintf(&sb, "  %s %s %s\n", style.Render(icon), MutedValue.Render(step.Name), style.Render(statusText))
	}

	sb.WriteString("\n")
	sb.WriteString(MutedValue.Render(fmt.Sprintf("  Elapsed: %s", time.Since(m.startupTime).Round(time.Second))))
	sb.WriteString("\n\n")
	sb.WriteString(MutedValue.Render("  Waiting for first Ethereum block..."))
	sb.WriteString("\n")
	return sb.String()
}

func (m Model) renderStatusBar() string {
	var parts []string

	if time.Since(m.lastScanTime) < 500*time.Millisecond {
		spinners := []string{"⟳", "◐", "◓", "◑", "◒"}
		idx := int(time.Now().UnixMilli()/100) % len(spinners)
		parts = append(parts, StatusConnected.Render(spinners[idx]+" Scanning"))
	}

	parts = append(parts, fmt.Sprintf("Block: #%d", m.currentBlock))
	parts = append(parts, m.status.View())

	if !m.lastUpdate.IsZero() {
		ago := time.Since(m.lastUpdate).Round(time.Second)
		parts = append(parts, MutedValue.Render(fmt.Sprintf("Updated: %s ago", ago)))
	}

	return strings.Join(parts, "  │  ")
}

// Program holds the Bubble Tea program instance for external access.
var Program *tea.Program

// OnStartModules is called when the welcome screen completes and modules
// should start. Set by main before Run.
var OnStartModules func()

// Run starts the Bubble Tea program.
func Run() error {
	Program = tea.NewProgram(New(), tea.WithAltScreen())
	_, err := Program.Run()
	return err
}

// Send sends a message to the running program.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
	if _, ok := msg.(StartModulesMsg); ok && OnStartModules != nil {
		OnStartModules()
	}
}
