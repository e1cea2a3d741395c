package strategy

import (
	"errors"
	"log"
	"math"

	"github.com/omnitrade-ai/omnitrade/internal/indicators"
)

// Default analysis parameters.
const (
	rsiPeriod     = 14
	rsiOversold   = 30.0
	rsiOverbought = 70.0

	macdFastPeriod   = 12
	macdSlowPeriod   = 26
	macdSignalPeriod = 9

	bollingerPeriod = 20
	bollingerStdDev = 2.0

	maShortPeriod = 50
	maLongPeriod  = 200

	momentumPeriod       = 14
	momentumThresholdPct = 5.0
)

// allIndicators is the default evaluation set, in evaluation order.
var allIndicators = []string{"rsi", "macd", "bollinger", "ma", "momentum"}

// Technical is a multi-indicator technical-analysis signal source. Each
// indicator votes buy/sell/hold with a confidence; the majority
// direction among non-hold votes wins with the mean confidence of the
// agreeing votes, and an exact tie holds.
type Technical struct {
	name string

	rsi       *indicators.RSI
	macd      *indicators.MACD
	bollinger *indicators.BollingerBands
	maShort   *indicators.SMA
	maLong    *indicators.SMA
}

// NewTechnical creates the technical signal source with default
// indicator parameters.
func NewTechnical() *Technical {
	return &Technical{
		name:      "technical",
		rsi:       indicators.NewRSI(rsiPeriod),
		macd:      indicators.NewMACD(macdFastPeriod, macdSlowPeriod, macdSignalPeriod),
		bollinger: indicators.NewBollingerBands(bollingerPeriod, bollingerStdDev),
		maShort:   indicators.NewSMA(maShortPeriod),
		maLong:    indicators.NewSMA(maLongPeriod),
	}
}

// Name returns the strategy identifier.
func (t *Technical) Name() string {
	return t.name
}

// Analyze runs the selected indicators and aggregates their votes.
func (t *Technical) Analyze(prices []float64, subset []string) (Signal, float64, *Analysis) {
	if len(subset) == 0 {
		subset = allIndicators
	}

	analysis := &Analysis{Indicators: make(map[string]IndicatorResult, len(subset))}

	var votes []Signal
	var confidences []float64
	for _, name := range subset {
		var result IndicatorResult
		switch name {
		case "rsi":
			result = t.analyzeRSI(prices)
		case "macd":
			result = t.analyzeMACD(prices)
		case "bollinger":
			result = t.analyzeBollinger(prices)
		case "ma":
			result = t.analyzeMovingAverages(prices)
		case "momentum":
			result = t.analyzeMomentum(prices)
		default:
			continue
		}
		analysis.Indicators[name] = result
		if result.Signal != SignalHold {
			votes = append(votes, result.Signal)
			confidences = append(confidences, result.Confidence)
		}
	}

	signal, confidence := combine(votes, confidences, &analysis.Combined)
	log.Printf("strategy: combined analysis: %s (buy: %d, sell: %d, confidence: %.2f)",
		signal, analysis.Combined.BuySignals, analysis.Combined.SellSignals, confidence)
	return signal, confidence, analysis
}

// combine applies the majority vote over non-hold signals. The winning
// direction's confidence is the mean of the agreeing votes; a tie (or no
// votes) holds with confidence 0.
func combine(votes []Signal, confidences []float64, out *CombinedResult) (Signal, float64) {
	buys, sells := 0, 0
	buyConf, sellConf := 0.0, 0.0
	for i, v := range votes {
		if v == SignalBuy {
			buys++
			buyConf += confidences[i]
		} else {
			sells++
			sellConf += confidences[i]
		}
	}

	out.BuySignals = buys
	out.SellSignals = sells
	out.TotalVotes = len(votes)

	switch {
	case buys > sells:
		out.Signal = SignalBuy
		out.Confidence = buyConf / float64(buys)
	case sells > buys:
		out.Signal = SignalSell
		out.Confidence = sellConf / float64(sells)
	default:
		out.Signal = SignalHold
		out.Confidence = 0
	}
	return out.Signal, out.Confidence
}

func (t *Technical) analyzeRSI(prices []float64) IndicatorResult {
	value, err := t.rsi.Calculate(prices)
	if err != nil {
		return holdResult(err)
	}

	result := IndicatorResult{
		Signal: SignalHold,
		Details: map[string]float64{
			"rsi":        value,
			"oversold":   rsiOversold,
			"overbought": rsiOverbought,
		},
	}
	switch {
	case value < rsiOversold:
		result.Signal = SignalBuy
		result.Confidence = math.Min((rsiOversold-value)/rsiOversold, 1.0)
	case value > rsiOverbought:
		result.Signal = SignalSell
		result.Confidence = math.Min((value-rsiOverbought)/(100-rsiOverbought), 1.0)
	}
	return result
}

func (t *Technical) analyzeMACD(prices []float64) IndicatorResult {
	macd, err := t.macd.Calculate(prices)
	if err != nil {
		return holdResult(err)
	}

	result := IndicatorResult{
		Signal: SignalHold,
		Details: map[string]float64{
			"macd":      macd.MACD,
			"signal":    macd.Signal,
			"histogram": macd.Histogram,
		},
	}

	crossConfidence := func() float64 {
		if macd.Signal == 0 {
			return 0.5
		}
		return math.Min(math.Abs(macd.Histogram)/math.Abs(macd.Signal), 1.0)
	}

	switch {
	case macd.Histogram > 0 && macd.PrevHistogram <= 0:
		result.Signal = SignalBuy
		result.Confidence = crossConfidence()
	case macd.Histogram < 0 && macd.PrevHistogram >= 0:
		result.Signal = SignalSell
		result.Confidence = crossConfidence()
	}
	return result
}

func (t *Technical) analyzeBollinger(prices []float64) IndicatorResult {
	bands, err := t.bollinger.Calculate(prices)
	if err != nil {
		return holdResult(err)
	}

	price := prices[len(prices)-1]
	width := bands.Upper - bands.Lower

	result := IndicatorResult{
		Signal: SignalHold,
		Details: map[string]float64{
			"price":  price,
			"upper":  bands.Upper,
			"middle": bands.Middle,
			"lower":  bands.Lower,
			"width":  width,
		},
	}
	if width <= 0 {
		return result
	}

	switch {
	case price <= bands.Lower:
		result.Signal = SignalBuy
		result.Confidence = math.Min((bands.Lower-price)/width, 1.0)
	case price >= bands.Upper:
		result.Signal = SignalSell
		result.Confidence = math.Min((price-bands.Upper)/width, 1.0)
	}
	return result
}

func (t *Technical) analyzeMovingAverages(prices []float64) IndicatorResult {
	if len(prices) < maLongPeriod+1 {
		return holdResult(indicators.ErrInsufficientData)
	}

	short, err := t.maShort.Calculate(prices)
	if err != nil {
		return holdResult(err)
	}
	long, err := t.maLong.Calculate(prices)
	if err != nil {
		return holdResult(err)
	}
	prevShort, err := t.maShort.Calculate(prices[:len(prices)-1])
	if err != nil {
		return holdResult(err)
	}
	prevLong, err := t.maLong.Calculate(prices[:len(prices)-1])
	if err != nil {
		return holdResult(err)
	}

	result := IndicatorResult{
		Signal: SignalHold,
		Details: map[string]float64{
			"short_ma": short,
			"long_ma":  long,
		},
	}

	switch {
	case short > long && prevShort <= prevLong: // golden cross
		result.Signal = SignalBuy
		result.Confidence = math.Min(math.Abs(short-long)/long, 1.0)
	case short < long && prevShort >= prevLong: // death cross
		result.Signal = SignalSell
		result.Confidence = math.Min(math.Abs(long-short)/long, 1.0)
	}
	return result
}

func (t *Technical) analyzeMomentum(prices []float64) IndicatorResult {
	if len(prices) < momentumPeriod+1 {
		return holdResult(indicators.ErrInsufficientData)
	}

	current := prices[len(prices)-1]
	past := prices[len(prices)-1-momentumPeriod]
	if past == 0 {
		return holdResult(errors.New("zero reference price"))
	}
	momentum := (current - past) / past * 100

	result := IndicatorResult{
		Signal: SignalHold,
		Details: map[string]float64{
			"momentum": momentum,
			"current":  current,
			"past":     past,
		},
	}
	switch {
	case momentum > momentumThresholdPct:
		result.Signal = SignalBuy
		result.Confidence = math.Min(momentum/20, 1.0)
	case momentum < -momentumThresholdPct:
		result.Signal = SignalSell
		result.Confidence = math.Min(math.Abs(momentum)/20, 1.0)
	}
	return result
}

func holdResult(err error) IndicatorResult {
	return IndicatorResult{Signal: SignalHold, Note: err.Error()}
}
