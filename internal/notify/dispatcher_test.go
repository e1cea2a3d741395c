package notify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingSink struct {
	name   string
	events []Event
	err    error
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Send(event Event) error {
	s.events = append(s.events, event)
	return s.err
}

func TestDispatcher_FanOut(t *testing.T) {
	first := &recordingSink{name: "first"}
	second := &recordingSink{name: "second"}
	d := NewDispatcher(first, second)

	d.Publish(SystemStatus{Status: "started", Detail: "engine up"})

	assert.Len(t, first.events, 1)
	assert.Len(t, second.events, 1)
	assert.Equal(t, "system_status", first.events[0].Kind())
}

func TestDispatcher_FailureDoesNotStopDelivery(t *testing.T) {
	failing := &recordingSink{name: "failing", err: errors.New("boom")}
	healthy := &recordingSink{name: "healthy"}
	d := NewDispatcher(failing, healthy)

	d.Publish(RiskAlert{Source: "circuit_breaker", Severity: "critical", Reason: "halted"})

	assert.Len(t, healthy.events, 1)
}

func TestEventMessages(t *testing.T) {
	closed := PositionClosed{
		Symbol: "BTC/USDT", Qty: 0.5,
		EntryPrice: 100, ExitPrice: 90,
		Pnl: -5, PnlPct: -10, Reason: "stop_loss",
	}
	assert.Contains(t, closed.Message(), "🔻")
	assert.Contains(t, closed.Message(), "stop_loss")

	executed := TradeExecuted{Symbol: "AAPL", Side: "sell", Qty: 3.33, Price: 150, StopLoss: 147}
	assert.Contains(t, executed.Message(), "SELL")
	assert.Contains(t, executed.Message(), "AAPL")
}
