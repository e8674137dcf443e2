package model

import "time"

// Kline K线数据
type Kline struct {
	Timestamp time.Time `json:"time"`
	Open      float64   `json:"open"`
	Close     float64   `json:"close"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Vol       float64   `json:"vol"` // 成交量 以币为单位
}

// Series 打分引擎消费的有序价格序列，老在前新在后
type Series struct {
	Symbol string
	Klines []Kline
}

// Closes 提取收盘价切片，供talib使用
func (s *Series) Closes() []float64 {
	out := make([]float64, len(s.Klines))
	for i, k := range s.Klines {
		out[i] = k.Close
	}
	return out
}

// Highs 提取最高价切片
func (s *Series) Highs() []float64 {
	out := make([]float64, len(s.Klines))
	for i, k := range s.Klines {
		out[i] = k.High
	}
	return out
}

// Lows 提取最低价切片
func (s *Series) Lows() []float64 {
	out := make([]float64, len(s.Klines))
	for i, k := range s.Klines {
		out[i] = k.Low
	}
	return out
}

// Volumes 提取成交量切片
func (s *Series) Volumes() []float64 {
	out := make([]float64, len(s.Klines))
	for i, k := range s.Klines {
		out[i] = k.Vol
	}
	return out
}

// LastClose 最新收盘价，序列为空时返回0
func (s *Series) LastClose() float64 {
	if len(s.Klines) == 0 {
		return 0
	}
	return s.Klines[len(s.Klines)-1].Close
}
