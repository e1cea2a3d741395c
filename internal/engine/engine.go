// Package engine orchestrates the trading pipeline: strategy analysis,
// risk gating, order submission and position monitoring across the
// registered venues.
package engine

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/omnitrade-ai/omnitrade/internal/broker"
	"github.com/omnitrade-ai/omnitrade/internal/config"
	"github.com/omnitrade-ai/omnitrade/internal/journal"
	"github.com/omnitrade-ai/omnitrade/internal/monitoring"
	"github.com/omnitrade-ai/omnitrade/internal/notify"
	"github.com/omnitrade-ai/omnitrade/internal/risk"
	"github.com/omnitrade-ai/omnitrade/internal/strategy"
	"github.com/omnitrade-ai/omnitrade/pkg/types"
)

// minConfidence gates signal execution: anything below holds.
const minConfidence = 0.6

// barLookback is how many bars feed a strategy analysis pass.
const barLookback = 200

// Engine wires brokers, strategies, the risk policy and the journal
// into a single trading pipeline.
//
// tradeMu serializes the validate-submit-register sequence so that two
// concurrent passes cannot both validate against the same free exposure
// and then both register. Reads of the run state use mu.
type Engine struct {
	mu      sync.RWMutex
	tradeMu sync.Mutex

	cfg      *config.Config
	policy   *risk.Manager
	ledger   *risk.Ledger
	journal  *journal.Journal
	notifier notify.Publisher

	brokers    map[string]broker.Broker
	strategies map[string]strategy.SignalSource

	state State
	since time.Time

	lastPortfolioValue float64
}

// New creates a stopped engine. Brokers and strategies are registered
// separately before Start.
func New(cfg *config.Config, policy *risk.Manager, jrnl *journal.Journal, notifier notify.Publisher) *Engine {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &Engine{
		cfg:        cfg,
		policy:     policy,
		ledger:     policy.Ledger(),
		journal:    jrnl,
		notifier:   notifier,
		brokers:    make(map[string]broker.Broker),
		strategies: make(map[string]strategy.SignalSource),
		state:      StateStopped,
	}
}

// RegisterBroker adds an execution venue under its own name.
func (e *Engine) RegisterBroker(b broker.Broker) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.brokers[b.Name()] = b
	log.Printf("engine: broker registered: %s", b.Name())
}

// RegisterStrategy adds a signal source under its own name.
func (e *Engine) RegisterStrategy(s strategy.SignalSource) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.strategies[s.Name()] = s
	log.Printf("engine: strategy registered: %s", s.Name())
}

// Start transitions the engine to running and resets the daily risk
// statistics. With trading disabled in configuration the engine stays
// stopped and only reports the fact; starting twice is a warning, not
// an error.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateRunning {
		log.Println("engine: already running")
		return nil
	}

	if !e.cfg.Trading.EnableTrading {
		log.Println("engine: trading is disabled in configuration, not starting")
		e.notifier.Publish(notify.SystemStatus{
			Status: "warning",
			Detail: "trading is disabled in configuration; engine not started",
		})
		return nil
	}

	e.ledger.ResetDaily()
	e.state = StateRunning
	e.since = time.Now().UTC()

	log.Println("engine: started")
	e.notifier.Publish(notify.SystemStatus{Status: "started", Detail: "trading engine started"})
	return nil
}

// Stop transitions the engine to stopped. Open positions stay open;
// only the trading loop stops acting on them.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateStopped {
		log.Println("engine: already stopped")
		return
	}
	e.state = StateStopped
	log.Println("engine: stopped")
	e.notifier.Publish(notify.SystemStatus{Status: "stopped", Detail: "trading engine stopped"})
}

// Running reports whether the engine accepts trading cycles.
func (e *Engine) Running() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state == StateRunning
}

// ExecuteStrategy runs one full pipeline pass for a symbol on a venue:
// circuit breakers, market data, strategy analysis, sizing, validation
// and submission. The returned Result always states the outcome; only
// OutcomeExecuted mutates the ledger.
func (e *Engine) ExecuteStrategy(ctx context.Context, venue, symbol, strategyName string, indicatorSubset []string) *Result {
	result := &Result{Symbol: symbol, Venue: venue, Signal: strategy.SignalHold}

	if !e.Running() {
		result.Outcome = OutcomeError
		result.Err = fmt.Errorf("engine is not running")
		return result
	}

	b, s, err := e.lookup(venue, strategyName)
	if err != nil {
		result.Outcome = OutcomeError
		result.Err = err
		return result
	}

	account, err := b.GetAccount(ctx)
	if err != nil {
		monitoring.RecordVenueError(venue, "get_account")
		result.Outcome = OutcomeError
		result.Err = fmt.Errorf("failed to get account: %w", err)
		return result
	}
	e.setPortfolioValue(account.PortfolioValue)

	if ok, reason := e.policy.CheckCircuitBreakers(account.PortfolioValue); !ok {
		monitoring.UpdateHalted(true)
		result.Outcome = OutcomeBlocked
		result.Reason = reason
		e.notifier.Publish(notify.RiskAlert{
			Source:   "circuit_breaker",
			Severity: "critical",
			Reason:   reason,
		})
		return result
	}
	monitoring.UpdateHalted(false)

	bars, err := b.GetHistoricalBars(ctx, symbol, e.cfg.Trading.BarTimeframe, barLookback)
	if err != nil {
		monitoring.RecordVenueError(venue, "get_bars")
		result.Outcome = OutcomeError
		result.Err = fmt.Errorf("failed to get market data for %s: %w", symbol, err)
		return result
	}
	if len(bars) == 0 {
		result.Outcome = OutcomeError
		result.Err = fmt.Errorf("no market data for %s", symbol)
		return result
	}

	closes := types.Closes(bars)
	lastClose := closes[len(closes)-1]
	monitoring.UpdatePrice(symbol, lastClose)

	signal, confidence, analysis := s.Analyze(closes, indicatorSubset)
	result.Signal = signal
	result.Confidence = confidence
	result.Analysis = analysis
	monitoring.UpdateStrategyConfidence(s.Name(), symbol, confidence)

	if signal == strategy.SignalHold || confidence < minConfidence {
		result.Outcome = OutcomeHold
		result.Reason = fmt.Sprintf("signal %s with confidence %.2f below threshold %.2f", signal, confidence, minConfidence)
		return result
	}

	e.executeTrade(ctx, b, result, account.PortfolioValue, lastClose)
	return result
}

// executeTrade sizes, validates, submits and registers the trade implied
// by the result's signal. Runs under tradeMu so validation and
// registration see a consistent ledger.
func (e *Engine) executeTrade(ctx context.Context, b broker.Broker, result *Result, portfolioValue, lastClose float64) {
	e.tradeMu.Lock()
	defer e.tradeMu.Unlock()

	side := broker.SideBuy
	stopLoss := lastClose * (1 - e.cfg.Risk.DefaultStopLossPct/100)
	if result.Signal == strategy.SignalSell {
		side = broker.SideSell
		stopLoss = lastClose * (1 + e.cfg.Risk.DefaultStopLossPct/100)
	}

	qty := e.policy.CalculatePositionSize(lastClose, stopLoss, portfolioValue, e.cfg.Risk.RiskPerTradePct)

	intent := risk.TradeIntent{
		Symbol:   result.Symbol,
		Side:     side,
		Qty:      qty,
		Price:    lastClose,
		StopLoss: stopLoss,
	}
	if ok, reason := e.policy.ValidateTrade(intent, portfolioValue); !ok {
		monitoring.RecordRejection(result.Symbol)
		e.journal.LogRiskEvent("trade_rejected", "medium",
			fmt.Sprintf("%s %s qty=%.6f: %s", side, result.Symbol, qty, reason))
		result.Outcome = OutcomeRejected
		result.Reason = reason
		return
	}

	report, err := b.PlaceMarketOrder(ctx, result.Symbol, qty, side, stopLoss)
	if err != nil {
		monitoring.RecordVenueError(result.Venue, "place_order")
		e.journal.LogRiskEvent("trade_error", "high",
			fmt.Sprintf("%s %s qty=%.6f: %v", side, result.Symbol, qty, err))
		result.Outcome = OutcomeError
		result.Err = fmt.Errorf("order submission failed for %s: %w", result.Symbol, err)
		return
	}

	signedQty := qty
	if side == broker.SideSell {
		signedQty = -qty
	}
	e.journal.LogOpen(result.Symbol, string(side), qty, lastClose, stopLoss, report.OrderID)
	e.ledger.AddPosition(risk.Position{
		Symbol:     result.Symbol,
		Venue:      result.Venue,
		Qty:        signedQty,
		EntryPrice: lastClose,
		StopLoss:   stopLoss,
	})
	monitoring.RecordTrade(result.Symbol, string(side))
	monitoring.UpdateOpenPositions(e.ledger.OpenPositionCount())

	e.notifier.Publish(notify.TradeExecuted{
		Symbol:   result.Symbol,
		Side:     string(side),
		Qty:      qty,
		Price:    lastClose,
		StopLoss: stopLoss,
		OrderID:  report.OrderID,
	})

	result.Outcome = OutcomeExecuted
	result.OrderID = report.OrderID
	result.Side = side
	result.Qty = qty
	result.Price = lastClose
	result.StopLoss = stopLoss
}

// ClosePosition unwinds the tracked position for a symbol, realizes its
// P&L into the ledger and journals the trade. The realized result is
// recorded before the position is dropped so the circuit breakers see
// the loss streak immediately.
func (e *Engine) ClosePosition(ctx context.Context, venue, symbol, reason string) (*CloseResult, error) {
	position, ok := e.ledger.Position(symbol)
	if !ok {
		return nil, fmt.Errorf("no tracked position for %s", symbol)
	}
	if venue == "" {
		venue = e.venueFor(position)
	}

	b, ok := e.broker(venue)
	if !ok {
		return nil, fmt.Errorf("unknown venue: %s", venue)
	}

	currentPrice, err := b.GetCurrentPrice(ctx, symbol)
	if err != nil {
		monitoring.RecordVenueError(venue, "get_price")
		return nil, fmt.Errorf("failed to get price for %s: %w", symbol, err)
	}

	if _, err := b.ClosePosition(ctx, symbol, position.Qty); err != nil {
		monitoring.RecordVenueError(venue, "close_position")
		return nil, fmt.Errorf("failed to close %s: %w", symbol, err)
	}

	pnl := (currentPrice - position.EntryPrice) * position.Qty
	pnlPct := 0.0
	if notional := position.Notional(); notional > 0 {
		pnlPct = pnl / notional * 100
	}

	e.journal.LogClose(journal.ClosedTrade{
		Symbol:     symbol,
		Side:       string(position.Side()),
		Qty:        math.Abs(position.Qty),
		EntryPrice: position.EntryPrice,
		ExitPrice:  currentPrice,
		Pnl:        pnl,
		PnlPct:     pnlPct,
		Reason:     reason,
		OpenedAt:   position.OpenedAt,
		ClosedAt:   time.Now().UTC(),
	})

	e.ledger.RecordResult(symbol, pnl)
	e.ledger.RemovePosition(symbol)
	monitoring.UpdateOpenPositions(e.ledger.OpenPositionCount())
	monitoring.UpdateDailyPnl(e.ledger.DailyPnl())

	e.notifier.Publish(notify.PositionClosed{
		Symbol:     symbol,
		Qty:        math.Abs(position.Qty),
		EntryPrice: position.EntryPrice,
		ExitPrice:  currentPrice,
		Pnl:        pnl,
		PnlPct:     pnlPct,
		Reason:     reason,
	})

	return &CloseResult{
		Symbol:     symbol,
		Venue:      venue,
		Qty:        position.Qty,
		EntryPrice: position.EntryPrice,
		ExitPrice:  currentPrice,
		Pnl:        pnl,
		PnlPct:     pnlPct,
		Reason:     reason,
	}, nil
}

// MonitorPositions walks a snapshot of the open positions, checking
// stops and ratcheting trailing stops. A failure on one symbol is
// logged and skipped; it never aborts the pass.
func (e *Engine) MonitorPositions(ctx context.Context) {
	for _, position := range e.ledger.Positions() {
		venue := e.venueFor(position)
		b, ok := e.broker(venue)
		if !ok {
			log.Printf("engine: monitor: no broker for %s (venue %q)", position.Symbol, venue)
			continue
		}

		currentPrice, err := b.GetCurrentPrice(ctx, position.Symbol)
		if err != nil {
			monitoring.RecordVenueError(venue, "get_price")
			log.Printf("engine: monitor: price fetch failed for %s: %v", position.Symbol, err)
			continue
		}
		monitoring.UpdatePrice(position.Symbol, currentPrice)

		if e.ledger.CheckStopLoss(position.Symbol, currentPrice) {
			e.notifier.Publish(notify.StopLossTriggered{
				Symbol:       position.Symbol,
				Qty:          math.Abs(position.Qty),
				StopPrice:    position.StopLoss,
				CurrentPrice: currentPrice,
			})
			if _, err := e.ClosePosition(ctx, venue, position.Symbol, "stop_loss"); err != nil {
				log.Printf("engine: monitor: stop-loss close failed for %s: %v", position.Symbol, err)
			}
			continue
		}

		e.ledger.UpdateTrailingStop(position.Symbol, currentPrice, e.cfg.Risk.TrailingStopPct)
	}
}

// Status returns a display snapshot. Portfolio value is the last one
// observed by a trading pass; no venue calls are made.
func (e *Engine) Status() Status {
	e.mu.RLock()
	state, since, pv := e.state, e.since, e.lastPortfolioValue
	venues := make([]string, 0, len(e.brokers))
	for name := range e.brokers {
		venues = append(venues, name)
	}
	strategies := make([]string, 0, len(e.strategies))
	for name := range e.strategies {
		strategies = append(strategies, name)
	}
	e.mu.RUnlock()
	sort.Strings(venues)
	sort.Strings(strategies)

	halted, reason := e.ledger.Halted()
	return Status{
		State:          state,
		Since:          since,
		TradingEnabled: e.cfg.Trading.EnableTrading,
		Venues:         venues,
		Strategies:     strategies,
		PortfolioValue: pv,
		OpenPositions:  e.ledger.OpenPositionCount(),
		TotalExposure:  e.ledger.TotalExposure(),
		DailyPnl:       e.ledger.DailyPnl(),
		Halted:         halted,
		HaltReason:     reason,
	}
}

// RiskMetrics reports the risk snapshot against the last observed
// portfolio value.
func (e *Engine) RiskMetrics() risk.Metrics {
	e.mu.RLock()
	pv := e.lastPortfolioValue
	e.mu.RUnlock()
	return e.policy.Metrics(pv)
}

func (e *Engine) lookup(venue, strategyName string) (broker.Broker, strategy.SignalSource, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	b, ok := e.brokers[venue]
	if !ok {
		return nil, nil, fmt.Errorf("unknown venue: %s", venue)
	}
	s, ok := e.strategies[strategyName]
	if !ok {
		return nil, nil, fmt.Errorf("unknown strategy: %s", strategyName)
	}
	return b, s, nil
}

func (e *Engine) broker(venue string) (broker.Broker, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	b, ok := e.brokers[venue]
	return b, ok
}

// venueFor resolves the venue for a tracked position. Positions opened
// by this engine carry their venue; the symbol-shape rule covers
// positions restored without one.
func (e *Engine) venueFor(p risk.Position) string {
	if p.Venue != "" {
		return p.Venue
	}
	if strings.Contains(p.Symbol, "/") {
		return "bybit"
	}
	return "alpaca"
}

func (e *Engine) setPortfolioValue(v float64) {
	e.mu.Lock()
	e.lastPortfolioValue = v
	e.mu.Unlock()
}
