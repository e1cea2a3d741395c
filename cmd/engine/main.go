package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/joho/godotenv"

	alpacabroker "github.com/omnitrade-ai/omnitrade/internal/broker/alpaca"
	bybitbroker "github.com/omnitrade-ai/omnitrade/internal/broker/bybit"
	"github.com/omnitrade-ai/omnitrade/internal/config"
	"github.com/omnitrade-ai/omnitrade/internal/engine"
	"github.com/omnitrade-ai/omnitrade/internal/journal"
	"github.com/omnitrade-ai/omnitrade/internal/monitoring"
	"github.com/omnitrade-ai/omnitrade/internal/notify"
	"github.com/omnitrade-ai/omnitrade/internal/risk"
	"github.com/omnitrade-ai/omnitrade/internal/strategy"
	"github.com/omnitrade-ai/omnitrade/pkg/reporting"
)

const strategyName = "technical"

func main() {
	envFile := flag.String("env", ".env", "Environment file path (default: .env)")
	flag.Parse()

	if err := loadEnvFile(*envFile); err != nil {
		log.Printf("Warning: Could not load .env file (%v), checking environment variables...", err)
	}

	fmt.Println("🚀 OmniTrade Engine Starting...")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration invalid: %v", err)
	}

	jrnl, err := journal.New(cfg.LogDir)
	if err != nil {
		log.Fatalf("Failed to open journal: %v", err)
	}

	ledger := risk.NewLedger()
	policy := risk.NewManager(cfg.Risk, cfg.Trading.EnableTrading, ledger)

	dispatcher := notify.NewDispatcher()
	if cfg.Notifications.TelegramToken != "" && cfg.Notifications.TelegramChatID != "" {
		dispatcher.AddSink(notify.NewTelegramSink(cfg.Notifications.TelegramToken, cfg.Notifications.TelegramChatID))
		log.Println("Telegram notifications enabled")
	}

	eng := engine.New(cfg, policy, jrnl, dispatcher)

	if cfg.Bybit.APIKey != "" {
		eng.RegisterBroker(bybitbroker.New(cfg.Bybit))
	}
	if cfg.Alpaca.APIKey != "" {
		eng.RegisterBroker(alpacabroker.New(cfg.Alpaca))
	}
	eng.RegisterStrategy(strategy.NewTechnical())

	printStartupInfo(cfg)

	if err := eng.Start(); err != nil {
		log.Fatalf("Failed to start engine: %v", err)
	}

	health := monitoring.NewHealthChecker()
	health.SetRunning(eng.Running())
	go serveMonitoring(cfg.Monitoring.MetricsPort, health)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if eng.Running() {
		go tradeLoop(ctx, eng, cfg, health)
		go monitorLoop(ctx, eng, cfg)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	fmt.Println("\n🛑 Shutdown signal received...")

	cancel()
	eng.Stop()
	health.SetRunning(false)

	exportReport(jrnl, cfg.LogDir)
	if err := jrnl.Close(); err != nil {
		log.Printf("Failed to close journal: %v", err)
	}
	fmt.Println("✅ Engine stopped")
}

func loadEnvFile(envFile string) error {
	if _, err := os.Stat(envFile); err == nil {
		return godotenv.Load(envFile)
	}
	return fmt.Errorf("env file %s not found", envFile)
}

// venueForSymbol routes slash-separated crypto pairs to Bybit and plain
// equity tickers to Alpaca.
func venueForSymbol(symbol string) string {
	if strings.Contains(symbol, "/") {
		return "bybit"
	}
	return "alpaca"
}

func tradeLoop(ctx context.Context, eng *engine.Engine, cfg *config.Config, health *monitoring.HealthChecker) {
	ticker := time.NewTicker(cfg.Trading.TradeInterval)
	defer ticker.Stop()

	runCycle(ctx, eng, cfg, health)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runCycle(ctx, eng, cfg, health)
		}
	}
}

func runCycle(ctx context.Context, eng *engine.Engine, cfg *config.Config, health *monitoring.HealthChecker) {
	for _, symbol := range cfg.Trading.Symbols {
		venue := venueForSymbol(symbol)
		result := eng.ExecuteStrategy(ctx, venue, symbol, strategyName, cfg.Trading.Indicators)

		switch result.Outcome {
		case engine.OutcomeExecuted:
			log.Printf("cycle: %s: executed %s %.6f @ $%.2f (order %s)",
				symbol, result.Side, result.Qty, result.Price, result.OrderID)
		case engine.OutcomeRejected:
			log.Printf("cycle: %s: rejected: %s", symbol, result.Reason)
		case engine.OutcomeBlocked:
			log.Printf("cycle: %s: blocked: %s", symbol, result.Reason)
		case engine.OutcomeHold:
			log.Printf("cycle: %s: hold (%s, confidence %.2f)", symbol, result.Signal, result.Confidence)
		case engine.OutcomeError:
			log.Printf("cycle: %s: error: %v", symbol, result.Err)
			health.MarkError(result.Err)
			continue
		}
		health.MarkCycle(result.Price)
	}

	printStatus(eng)
}

func monitorLoop(ctx context.Context, eng *engine.Engine, cfg *config.Config) {
	ticker := time.NewTicker(cfg.Trading.MonitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			eng.MonitorPositions(ctx)
		}
	}
}

func serveMonitoring(port int, health *monitoring.HealthChecker) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", monitoring.NewMetricsHandler())
	mux.Handle("/health", health)

	addr := fmt.Sprintf(":%d", port)
	log.Printf("Monitoring endpoints on %s (/metrics, /health)", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("Monitoring server stopped: %v", err)
	}
}

func printStartupInfo(cfg *config.Config) {
	venues := make([]string, 0, 2)
	if cfg.Bybit.APIKey != "" {
		venues = append(venues, "bybit")
	}
	if cfg.Alpaca.APIKey != "" {
		venues = append(venues, "alpaca")
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("ENGINE INITIALIZATION")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"📊 Symbols", strings.Join(cfg.Trading.Symbols, ", ")},
		{"⏰ Timeframe", cfg.Trading.BarTimeframe},
		{"🏪 Venues", strings.Join(venues, ", ")},
		{"🔧 Environment", cfg.Environment},
		{"💰 Trading", fmt.Sprintf("%v", cfg.Trading.EnableTrading)},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 15, WidthMax: 15, Align: text.AlignLeft},
		{Number: 2, WidthMin: 30, WidthMax: 45, Align: text.AlignLeft},
	})

	t.Render()
	fmt.Println()
}

func printStatus(eng *engine.Engine) {
	status := eng.Status()

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("ENGINE STATUS")
	t.SetStyle(table.StyleRounded)

	halted := "no"
	if status.Halted {
		halted = fmt.Sprintf("yes (%s)", status.HaltReason)
	}

	t.AppendRows([]table.Row{
		{"🔄 State", string(status.State)},
		{"🏪 Venues", strings.Join(status.Venues, ", ")},
		{"💼 Portfolio", fmt.Sprintf("$%.2f", status.PortfolioValue)},
		{"📈 Positions", fmt.Sprintf("%d ($%.2f exposure)", status.OpenPositions, status.TotalExposure)},
		{"💹 Daily P&L", fmt.Sprintf("$%.2f", status.DailyPnl)},
		{"🚨 Halted", halted},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 15, WidthMax: 15, Align: text.AlignLeft},
		{Number: 2, WidthMin: 30, WidthMax: 45, Align: text.AlignLeft},
	})

	t.Render()
	fmt.Println()
}

func exportReport(jrnl *journal.Journal, logDir string) {
	trades := jrnl.ClosedTrades()
	if len(trades) == 0 {
		return
	}

	path := filepath.Join(logDir, fmt.Sprintf("trades_%s.xlsx", time.Now().Format("2006-01-02")))
	if err := reporting.NewExcelReporter().WriteTradesXLSX(trades, path); err != nil {
		log.Printf("Failed to write trade report: %v", err)
		return
	}
	log.Printf("Trade report written to %s", path)
}
