// Package monitoring exposes Prometheus metrics and an HTTP health
// endpoint for the trading engine.
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Trading metrics
	tradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omnitrade_trades_total",
			Help: "Total number of trades executed",
		},
		[]string{"symbol", "side"},
	)

	rejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omnitrade_trade_rejections_total",
			Help: "Total number of trades rejected by risk checks",
		},
		[]string{"symbol"},
	)

	openPositions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "omnitrade_open_positions",
			Help: "Number of currently open positions",
		},
	)

	dailyPnl = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "omnitrade_daily_pnl",
			Help: "Realized profit and loss since the last daily reset",
		},
	)

	tradingHalted = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "omnitrade_trading_halted",
			Help: "1 when a circuit breaker has halted trading, 0 otherwise",
		},
	)

	// Market data metrics
	currentPrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "omnitrade_current_price",
			Help: "Last observed price per symbol",
		},
		[]string{"symbol"},
	)

	// Strategy metrics
	strategyConfidence = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "omnitrade_strategy_confidence",
			Help: "Confidence of the latest strategy signal",
		},
		[]string{"strategy", "symbol"},
	)

	// Error metrics
	venueErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omnitrade_venue_errors_total",
			Help: "Total number of venue API errors",
		},
		[]string{"venue", "op"},
	)
)

func init() {
	prometheus.MustRegister(tradesTotal)
	prometheus.MustRegister(rejectionsTotal)
	prometheus.MustRegister(openPositions)
	prometheus.MustRegister(dailyPnl)
	prometheus.MustRegister(tradingHalted)
	prometheus.MustRegister(currentPrice)
	prometheus.MustRegister(strategyConfidence)
	prometheus.MustRegister(venueErrorsTotal)
}

// MetricsHandler serves the Prometheus scrape endpoint.
type MetricsHandler struct{}

func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordTrade records an executed trade.
func RecordTrade(symbol, side string) {
	tradesTotal.WithLabelValues(symbol, side).Inc()
}

// RecordRejection records a risk-rejected trade.
func RecordRejection(symbol string) {
	rejectionsTotal.WithLabelValues(symbol).Inc()
}

// UpdateOpenPositions updates the open-position gauge.
func UpdateOpenPositions(count int) {
	openPositions.Set(float64(count))
}

// UpdateDailyPnl updates the realized daily P&L gauge.
func UpdateDailyPnl(pnl float64) {
	dailyPnl.Set(pnl)
}

// UpdateHalted flips the circuit-breaker gauge.
func UpdateHalted(halted bool) {
	if halted {
		tradingHalted.Set(1)
	} else {
		tradingHalted.Set(0)
	}
}

// UpdatePrice updates the last observed price for a symbol.
func UpdatePrice(symbol string, price float64) {
	currentPrice.WithLabelValues(symbol).Set(price)
}

// UpdateStrategyConfidence updates the latest signal confidence.
func UpdateStrategyConfidence(strategy, symbol string, confidence float64) {
	strategyConfidence.WithLabelValues(strategy, symbol).Set(confidence)
}

// RecordVenueError records a failed venue API call.
func RecordVenueError(venue, op string) {
	venueErrorsTotal.WithLabelValues(venue, op).Inc()
}
