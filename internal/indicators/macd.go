package indicators

// MACD calculates the Moving Average Convergence Divergence.
type MACD struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
}

// MACDResult holds the latest MACD values plus the previous histogram
// value, which crossover detection needs.
type MACDResult struct {
	MACD          float64
	Signal        float64
	Histogram     float64
	PrevHistogram float64
}

// NewMACD creates a new MACD instance with the given periods.
func NewMACD(fastPeriod, slowPeriod, signalPeriod int) *MACD {
	return &MACD{
		fastPeriod:   fastPeriod,
		slowPeriod:   slowPeriod,
		signalPeriod: signalPeriod,
	}
}

// Calculate computes the MACD line, signal line and histogram for the
// given price series.
func (m *MACD) Calculate(prices []float64) (*MACDResult, error) {
	if len(prices) < m.slowPeriod+m.signalPeriod {
		return nil, ErrInsufficientData
	}

	fast := emaSeries(prices, m.fastPeriod)
	slow := emaSeries(prices, m.slowPeriod)

	// MACD line is defined from the first index where the slow EMA is
	// seeded.
	macdLine := make([]float64, 0, len(prices)-m.slowPeriod+1)
	for i := m.slowPeriod - 1; i < len(prices); i++ {
		macdLine = append(macdLine, fast[i]-slow[i])
	}

	signalLine := emaSeries(macdLine, m.signalPeriod)

	last := len(macdLine) - 1
	result := &MACDResult{
		MACD:      macdLine[last],
		Signal:    signalLine[last],
		Histogram: macdLine[last] - signalLine[last],
	}
	if last >= 1 {
		result.PrevHistogram = macdLine[last-1] - signalLine[last-1]
	}
	return result, nil
}

// RequiredPeriods returns the minimum series length Calculate accepts.
func (m *MACD) RequiredPeriods() int {
	return m.slowPeriod + m.signalPeriod
}

// emaSeries returns the EMA of values, seeded with the SMA of the first
// period entries. Indexes before period-1 hold zero.
func emaSeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) < period {
		return out
	}

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	out[period-1] = sum / float64(period)

	k := 2.0 / (float64(period) + 1)
	for i := period; i < len(values); i++ {
		out[i] = values[i]*k + out[i-1]*(1-k)
	}
	return out
}
