package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombine_MajorityBuy(t *testing.T) {
	var combined CombinedResult
	signal, confidence := combine(
		[]Signal{SignalBuy, SignalBuy, SignalBuy, SignalSell},
		[]float64{0.8, 0.6, 0.4, 0.9},
		&combined,
	)

	assert.Equal(t, SignalBuy, signal)
	// Mean of the agreeing buy votes only; the 0.9 sell vote is ignored.
	assert.InDelta(t, 0.6, confidence, 1e-9)
	assert.Equal(t, 3, combined.BuySignals)
	assert.Equal(t, 1, combined.SellSignals)
	assert.Equal(t, 4, combined.TotalVotes)
}

func TestCombine_TieHolds(t *testing.T) {
	var combined CombinedResult
	signal, confidence := combine(
		[]Signal{SignalBuy, SignalSell},
		[]float64{0.9, 0.9},
		&combined,
	)

	assert.Equal(t, SignalHold, signal)
	assert.Equal(t, 0.0, confidence)
}

func TestCombine_NoVotesHolds(t *testing.T) {
	var combined CombinedResult
	signal, confidence := combine(nil, nil, &combined)

	assert.Equal(t, SignalHold, signal)
	assert.Equal(t, 0.0, confidence)
	assert.Equal(t, 0, combined.TotalVotes)
}

func TestTechnical_Analyze_InsufficientData(t *testing.T) {
	tech := NewTechnical()

	signal, confidence, analysis := tech.Analyze([]float64{100, 101, 102}, nil)

	// Short data degrades to hold/0 instead of failing.
	assert.Equal(t, SignalHold, signal)
	assert.Equal(t, 0.0, confidence)
	require.NotNil(t, analysis)
	for name, result := range analysis.Indicators {
		assert.Equal(t, SignalHold, result.Signal, "indicator %s", name)
		assert.NotEmpty(t, result.Note, "indicator %s", name)
	}
}

func TestTechnical_Analyze_SubsetSelection(t *testing.T) {
	tech := NewTechnical()

	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = 100.0 + float64(i)
	}

	_, _, analysis := tech.Analyze(prices, []string{"rsi", "momentum"})

	assert.Len(t, analysis.Indicators, 2)
	assert.Contains(t, analysis.Indicators, "rsi")
	assert.Contains(t, analysis.Indicators, "momentum")
	assert.NotContains(t, analysis.Indicators, "macd")
}

func TestTechnical_AnalyzeRSI_Oversold(t *testing.T) {
	tech := NewTechnical()

	falling := make([]float64, 30)
	for i := range falling {
		falling[i] = 100.0 - float64(i)*2
	}

	result := tech.analyzeRSI(falling)
	assert.Equal(t, SignalBuy, result.Signal)
	assert.Greater(t, result.Confidence, 0.0)
	assert.LessOrEqual(t, result.Confidence, 1.0)
}

func TestTechnical_AnalyzeMomentum(t *testing.T) {
	tech := NewTechnical()

	rising := make([]float64, 20)
	for i := range rising {
		rising[i] = 100.0 + float64(i)
	}

	result := tech.analyzeMomentum(rising)
	assert.Equal(t, SignalBuy, result.Signal)

	flat := make([]float64, 20)
	for i := range flat {
		flat[i] = 100.0
	}
	result = tech.analyzeMomentum(flat)
	assert.Equal(t, SignalHold, result.Signal)
	assert.Equal(t, 0.0, result.Confidence)
}
