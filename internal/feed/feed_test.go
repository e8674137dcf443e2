package feed

import (
	"context"
	"signalflow/internal/model"
	"testing"
)

func TestSimulatedFeedNeedsSeed(t *testing.T) {
	f := NewSimulatedFeed()
	if _, err := f.CurrentPrice(context.Background(), "BTC/USDT", model.MarketSpot); err == nil {
		t.Fatal("expected error without seed price")
	}
}

func TestSimulatedFeedWalksNearSeed(t *testing.T) {
	f := NewSimulatedFeed()
	f.Seed("BTC/USDT", 50000)

	price := 50000.0
	for i := 0; i < 100; i++ {
		p, err := f.CurrentPrice(context.Background(), "BTC/USDT", model.MarketSpot)
		if err != nil {
			t.Fatal(err)
		}
		if p <= 0 {
			t.Fatalf("price must stay positive, got %v", p)
		}
		// 单步波动不超过0.3%
		if diff := (p - price) / price; diff > 0.0031 || diff < -0.0031 {
			t.Fatalf("step %d moved %.4f%%, beyond walk bound", i, diff*100)
		}
		price = p
	}
}

func TestSimulatedHistoryShape(t *testing.T) {
	f := NewSimulatedFeed()
	f.Seed("ETH/USDT", 3000)

	series, err := f.History(context.Background(), "ETH/USDT", model.MarketSpot, "15m", 120)
	if err != nil {
		t.Fatal(err)
	}
	if len(series.Klines) != 120 {
		t.Fatalf("klines = %d, want 120", len(series.Klines))
	}
	if got := series.LastClose(); got != 3000 {
		t.Fatalf("last close = %v, want seed price 3000", got)
	}
	for i := 1; i < len(series.Klines); i++ {
		if !series.Klines[i].Timestamp.After(series.Klines[i-1].Timestamp) {
			t.Fatalf("klines not in ascending time order at %d", i)
		}
		k := series.Klines[i]
		if k.High < k.Low || k.High < k.Close || k.Low > k.Close {
			t.Fatalf("inconsistent candle at %d: %+v", i, k)
		}
	}
}

// 最后一根K线的收盘价会被强制对齐种子价，高低点必须一起扩展
func TestSimulatedHistoryLastCandleBounds(t *testing.T) {
	f := NewSimulatedFeed()
	f.Seed("ETH/USDT", 3000)

	for run := 0; run < 200; run++ {
		series, err := f.History(context.Background(), "ETH/USDT", model.MarketSpot, "15m", 120)
		if err != nil {
			t.Fatal(err)
		}
		k := series.Klines[len(series.Klines)-1]
		if k.Close != 3000 {
			t.Fatalf("run %d: last close = %v, want seed price 3000", run, k.Close)
		}
		if k.Low > k.Close || k.High < k.Close || k.Low > k.Open || k.High < k.Open {
			t.Fatalf("run %d: last candle out of bounds: %+v", run, k)
		}
	}
}
