package numerickit

import (
	"errors"

	talib "github.com/markcheno/go-talib"
)

// ErrInsufficientData flags an indicator call that did not receive enough
// history for its warm-up period.
var ErrInsufficientData = errors.New("degenerate: insufficient data for indicator warm-up")

// RSI computes Wilder-smoothed RSI(period) over series, trimming the
// talib warm-up NaNs so the returned slice holds only defined values, aligned
// to series[period:]. Returns ErrInsufficientData for series shorter than
// period+1.
func RSI(series []float64, period int) ([]float64, error) {
	if period <= 0 || len(series) < period+1 {
		return nil, ErrInsufficientData
	}
	raw := talib.Rsi(series, period)
	return raw[period:], nil
}

// MACDResult holds the three MACD output lines, aligned to the same index
// range (the slow EMA's warm-up trimmed from the front).
type MACDResult struct {
	MACD []float64
	Signal []float64
	Histogram []float64
}

// MACD computes the standard MACD(fast, slow, signal) triple via go-talib.
func MACD(series []float64, fast, slow, signal int) (*MACDResult, error) {
	warmup := slow + signal
	if len(series) < warmup {
		return nil, ErrInsufficientData
	}
	macd, sig, hist := talib.Macd(series, fast, slow, signal)
	return &MACDResult{MACD: macd[warmup:], Signal: sig[warmup:], Histogram: hist[warmup:]}, nil
}

// BollingerResult holds the three Bollinger Band output lines.
type BollingerResult struct {
	Upper []float64
	Middle []float64
	Lower []float64
}

// Bollinger computes Bollinger Bands(period, k) via go-talib.
func Bollinger(series []float64, period int, k float64) (*BollingerResult, error) {
	if len(series) < period {
		return nil, ErrInsufficientData
	}
	upper, mid, lower := talib.BBands(series, period, k, k, talib.SMA)
	return &BollingerResult{Upper: upper[period-1:], Middle: mid[period-1:], Lower: lower[period-1:]}, nil
}

// ATR computes the Average True Range(period) over OHLC series via go-talib.
func ATR(high, low, close []float64, period int) ([]float64, error) {
	if len(close) < period+1 {
		return nil, ErrInsufficientData
	}
	raw := talib.Atr(high, low, close, period)
	return raw[period:], nil
}
