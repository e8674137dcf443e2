package indicator

import (
	"math"

	"github.com/markcheno/go-talib"
)

// 技术指标计算，全部为纯函数，序列不足时返回中性值而不是报错
// 保证同样的输入永远得到同样的输出，便于用字面价格序列做单元测试

const (
	// NeutralRSI 序列不足时RSI的中性回退值
	NeutralRSI = 50.0
)

// RSI 计算最新的相对强弱指数，period通常为14
func RSI(closes []float64, period int) float64 {
	if len(closes) <= period {
		return NeutralRSI
	}
	vals := talib.Rsi(closes, period)
	return vals[len(vals)-1]
}

// MACDResult MACD最新值快照
type MACDResult struct {
	MACD   float64 // MACD线 (快慢EMA之差)
	Signal float64 // 信号线 (MACD的EMA，真实历史EMA而非近似)
	Hist   float64 // 柱状图 (MACD - Signal)
}

// MACD 计算最新的MACD，标准参数 (12, 26, 9)
func MACD(closes []float64, fast, slow, signal int) MACDResult {
	if len(closes) < slow+signal {
		return MACDResult{}
	}
	macdLine, signalLine, hist := talib.Macd(closes, fast, slow, signal)
	n := len(macdLine)
	return MACDResult{
		MACD:   macdLine[n-1],
		Signal: signalLine[n-1],
		Hist:   hist[n-1],
	}
}

// EMA 计算指数移动平均线的完整切片，序列不足时返回nil
func EMA(closes []float64, period int) []float64 {
	if len(closes) < period {
		return nil
	}
	return talib.Ema(closes, period)
}

// EMALast 最新EMA值，序列不足时回退为最新收盘价
func EMALast(closes []float64, period int) float64 {
	vals := EMA(closes, period)
	if len(vals) == 0 {
		if len(closes) == 0 {
			return 0
		}
		return closes[len(closes)-1]
	}
	return vals[len(vals)-1]
}

// SMA 计算简单移动平均线的最新值，序列不足时回退为最新收盘价
func SMA(closes []float64, period int) float64 {
	if len(closes) < period {
		if len(closes) == 0 {
			return 0
		}
		return closes[len(closes)-1]
	}
	vals := talib.Sma(closes, period)
	return vals[len(vals)-1]
}

// Bands 布林带最新值
type Bands struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// Bollinger 计算布林带 (n=20, k=2)，序列不足时三条轨道都回退为最新收盘价
func Bollinger(closes []float64, period int, k float64) Bands {
	if len(closes) < period {
		last := 0.0
		if len(closes) > 0 {
			last = closes[len(closes)-1]
		}
		return Bands{Upper: last, Middle: last, Lower: last}
	}
	upper, middle, lower := talib.BBands(closes, period, k, k, talib.SMA)
	n := len(upper)
	return Bands{Upper: upper[n-1], Middle: middle[n-1], Lower: lower[n-1]}
}

// ATR 计算最新的真实波动幅度均值，序列不足时回退为价格的1%
// 回退值保证价格阶梯永远可以构造出来
func ATR(highs, lows, closes []float64, period int) float64 {
	if len(closes) <= period || len(highs) != len(closes) || len(lows) != len(closes) {
		if len(closes) == 0 {
			return 0
		}
		return closes[len(closes)-1] * 0.01
	}
	vals := talib.Atr(highs, lows, closes, period)
	return vals[len(vals)-1]
}

// VolumeAvg 最近period根K线的平均成交量（不含最新一根）
func VolumeAvg(volumes []float64, period int) float64 {
	n := len(volumes)
	if n < period+1 {
		return 0
	}
	sum := 0.0
	for i := n - 1 - period; i < n-1; i++ {
		sum += volumes[i]
	}
	return sum / float64(period)
}

// Momentum 最近lookback根K线的价格变化百分比
func Momentum(closes []float64, lookback int) float64 {
	n := len(closes)
	if n <= lookback || closes[n-1-lookback] == 0 {
		return 0
	}
	return (closes[n-1] - closes[n-1-lookback]) / closes[n-1-lookback] * 100
}

// ROC 变化速率，与Momentum相同的口径但取更短的窗口
func ROC(closes []float64, lookback int) float64 {
	return Momentum(closes, lookback)
}

// Volatility 收盘价对数收益的标准差百分比，衡量波动水平
func Volatility(closes []float64, period int) float64 {
	n := len(closes)
	if n <= period {
		return 0
	}
	window := closes[n-period:]
	rets := make([]float64, 0, len(window)-1)
	for i := 1; i < len(window); i++ {
		if window[i-1] == 0 {
			continue
		}
		rets = append(rets, math.Log(window[i]/window[i-1]))
	}
	if len(rets) == 0 {
		return 0
	}
	mean := 0.0
	for _, r := range rets {
		mean += r
	}
	mean /= float64(len(rets))
	variance := 0.0
	for _, r := range rets {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(rets))
	return math.Sqrt(variance) * 100
}

// LocalHigh 最近lookback根K线的最高收盘价
func LocalHigh(closes []float64, lookback int) float64 {
	n := len(closes)
	if n == 0 {
		return 0
	}
	start := n - lookback
	if start < 0 {
		start = 0
	}
	high := closes[start]
	for _, c := range closes[start:] {
		if c > high {
			high = c
		}
	}
	return high
}
