package feed

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"signalflow/internal/model"
	"sync"
	"time"
)

// SimulatedFeed 随机游走的模拟行情
// 两个用途：simulate_only模式下完全替代交易所行情；
// 真实行情超时的时候作为兜底，让监控循环不至于停摆
type SimulatedFeed struct {
	mu   sync.Mutex
	rng  *rand.Rand
	last map[string]float64
}

func NewSimulatedFeed() *SimulatedFeed {
	return &SimulatedFeed{
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
		last: make(map[string]float64),
	}
}

// Seed 设置某个交易对的起始价，通常是信号记录的最新价
func (f *SimulatedFeed) Seed(symbol string, price float64) {
	if price <= 0 {
		return
	}
	f.mu.Lock()
	f.last[symbol] = price
	f.mu.Unlock()
}

// step 单步随机游走，波动控制在±0.3%以内
func (f *SimulatedFeed) step(price float64) float64 {
	drift := (f.rng.Float64()*2 - 1) * 0.003
	next := price * (1 + drift)
	if next <= 0 {
		next = price
	}
	return next
}

func (f *SimulatedFeed) CurrentPrice(_ context.Context, symbol string, _ model.MarketKind) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	price, ok := f.last[symbol]
	if !ok || price <= 0 {
		return 0, fmt.Errorf("simulated feed: no seed price for %s", symbol)
	}
	price = f.step(price)
	f.last[symbol] = price
	return price, nil
}

// History 从当前种子价倒推生成一段带轻微趋势的K线
func (f *SimulatedFeed) History(_ context.Context, symbol string, _ model.MarketKind, timeFrame string, points int) (*model.Series, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	base, ok := f.last[symbol]
	if !ok || base <= 0 {
		return nil, fmt.Errorf("simulated feed: no seed price for %s", symbol)
	}
	if points <= 0 {
		points = 100
	}

	step := periodDuration(timeFrame)
	series := &model.Series{Symbol: symbol, Klines: make([]model.Kline, 0, points)}

	// 从一段距离之外游走回到当前价附近
	price := base * (1 + (f.rng.Float64()*2-1)*0.02)
	start := time.Now().Add(-time.Duration(points) * step)
	for i := 0; i < points; i++ {
		open := price
		price = f.step(price)
		high := math.Max(open, price) * (1 + f.rng.Float64()*0.001)
		low := math.Min(open, price) * (1 - f.rng.Float64()*0.001)
		series.Klines = append(series.Klines, model.Kline{
			Timestamp: start.Add(time.Duration(i) * step),
			Open:      open,
			Close:     price,
			High:      high,
			Low:       low,
			Vol:       1000 + f.rng.Float64()*500,
		})
	}
	// 最后一根对齐种子价，保证模拟信号的当前价连续
	// 对齐后同步扩展高低点，维持 Low <= Close <= High
	last := &series.Klines[points-1]
	last.Close = base
	last.High = math.Max(last.High, base)
	last.Low = math.Min(last.Low, base)
	return series, nil
}

func periodDuration(timeFrame string) time.Duration {
	switch timeFrame {
	case "1m":
		return time.Minute
	case "5m":
		return 5 * time.Minute
	case "30m":
		return 30 * time.Minute
	case "1h":
		return time.Hour
	case "4h":
		return 4 * time.Hour
	case "1d":
		return 24 * time.Hour
	default:
		return 15 * time.Minute
	}
}
