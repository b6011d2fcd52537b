// Package main is the entry point for the flash-loan size optimizer.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/fd1az/sizing-bot/business/arbitrage"
	arbitrageDI "github.com/fd1az/sizing-bot/business/arbitrage/di"
	"github.com/fd1az/sizing-bot/business/blockchain"
	blockchainDI "github.com/fd1az/sizing-bot/business/blockchain/di"
	"github.com/fd1az/sizing-bot/business/pricing"
	"github.com/fd1az/sizing-bot/business/sizing"
	"github.com/fd1az/sizing-bot/internal/apm"
	"github.com/fd1az/sizing-bot/internal/config"
	"github.com/fd1az/sizing-bot/internal/health"
	"github.com/fd1az/sizing-bot/internal/logger"
	"github.com/fd1az/sizing-bot/internal/metrics"
	"github.com/fd1az/sizing-bot/internal/monolith"
	"github.com/fd1az/sizing-bot/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run in CLI mode with logs (no TUI)")
	once := flag.Bool("once", false, "Scan every token once and exit")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("sizer %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// TUI is the default; a single scan always prints to the console.
	tuiMode := !*cliMode && !*once

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	if err := run(ctx, *configPath, tuiMode, *once); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, tuiMode, once bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Modules read the run mode from config.
	cfg.Arbitrage.TUIMode = tuiMode
	cfg.Arbitrage.RunOnce = once

	var logOut io.Writer = os.Stderr
	if tuiMode {
		// The TUI owns the terminal.
		logOut = io.Discard
	}
	log := logger.New(logOut, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, nil)
	defer log.Sync()

	log.Info(ctx, "starting flash-loan size optimizer",
		"version", version,
		"environment", cfg.App.Environment,
	)

	if cfg.Telemetry.Enabled {
		stop, err := startTelemetry(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer stop()
	}

	var opts []monolith.Option
	if cfg.Health.Enabled && !once {
		healthServer := health.NewServer(cfg.Health.Port, version, log)
		healthServer.Start(ctx)
		log.Info(ctx, "health server started", "port", cfg.Health.Port)
		defer shutdown(healthServer.Stop)
		opts = append(opts, monolith.WithHealth(healthServer))
	}

	mono, err := monolith.New(ctx, cfg, log, opts...)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	// Dependency order: arbitrage needs all three others.
	modules := []monolith.Module{
		&blockchain.Module{},
		&pricing.Module{},
		&sizing.Module{},
		&arbitrage.Module{},
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	if tuiMode {
		startFunc := func() error {
			ui.Send(ui.StartupMsg{Step: "config", Status: "done"})
			if err := mono.StartModules(ctx, modules...); err != nil {
				return fmt.Errorf("failed to start modules: %w", err)
			}
			ui.Send(ui.StartupMsg{Step: "venues", Status: "done"})
			return nil
		}
		stopFunc := func() {
			_ = arbitrageDI.GetRunner(mono.Services()).Stop()
		}
		return runTUI(ctx, startFunc, stopFunc)
	}

	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	if once {
		return runOnce(ctx, mono, log)
	}
	return runCLI(ctx, mono, log)
}

func startTelemetry(ctx context.Context, cfg *config.Config, log *logger.Logger) (func(), error) {
	tp, err := apm.NewTraceProvider(ctx, apm.Settings{
		Provider:    apm.Provider(cfg.Telemetry.TraceProvider),
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Headers:     cfg.Telemetry.OTLPHeaders,
		Console:     os.Stderr,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to init tracing: %w", err)
	}

	mp, err := metrics.NewMetricProvider(ctx, metrics.Settings{ServiceName: cfg.Telemetry.ServiceName})
	if err != nil {
		_ = tp.Stop()
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	metricsServer := metrics.NewServer(cfg.Telemetry.PrometheusPort, mp.Registry, log)
	metricsServer.Start(ctx)

	return func() {
		shutdown(metricsServer.Stop)
		shutdown(mp.Shutdown)
		if err := tp.Stop(); err != nil {
			log.Warn(context.Background(), "tracer shutdown failed", "error", err)
		}
	}, nil
}

func shutdown(stop func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = stop(ctx)
}

func runOnce(ctx context.Context, mono monolith.Monolith, log *logger.Logger) error {
	block, err := blockchainDI.GetBlockchainService(mono.Services()).LatestBlock(ctx)
	if err != nil {
		log.Warn(ctx, "latest block unavailable, scanning without a block number", "error", err)
		block = nil
	}

	reporter := arbitrageDI.GetReporter(mono.Services())
	if err := reporter.Start(ctx); err != nil {
		return err
	}

	summary := arbitrageDI.GetRunner(mono.Services()).RunOnce(ctx, block)
	log.Info(ctx, "single scan finished",
		"opportunities", summary.Opportunities,
		"failures", summary.Failures,
	)

	if err := arbitrageDI.GetRunner(mono.Services()).Stop(); err != nil {
		return err
	}
	if summary.Tokens > 0 && summary.Failures == summary.Tokens {
		return fmt.Errorf("every token scan failed")
	}
	return nil
}

func runCLI(ctx context.Context, mono monolith.Monolith, log *logger.Logger) error {
	log.Info(ctx, "all modules started, scanning on every block")

	<-ctx.Done()
	log.Info(ctx, "shutting down")

	if err := arbitrageDI.GetRunner(mono.Services()).Stop(); err != nil {
		log.Error(ctx, "error stopping runner", "error", err)
	}
	return nil
}

func runTUI(ctx context.Context, startFunc func() error, stopFunc func()) error {
	startSignal := make(chan struct{}, 1)
	ui.OnStartModules = func() {
		select {
		case startSignal <- struct{}{}:
		default:
		}
	}

	// Show the welcome screen right away.
	p := tea.NewProgram(ui.New(), tea.WithAltScreen())
	ui.Program = p

	errCh := make(chan error, 1)
	go func() {
		select {
		case <-startSignal:
		case <-ctx.Done():
			errCh <- nil
			return
		}

		if err := startFunc(); err != nil {
			ui.Send(ui.ErrorMsg{Error: err})
			errCh <- err
			return
		}

		<-ctx.Done()
		stopFunc()
		errCh <- nil
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}
