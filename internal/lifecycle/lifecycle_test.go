package lifecycle

import (
	"math"
	"reflect"
	"signalflow/internal/model"
	"testing"
	"time"
)

func newLongSignal() model.Signal {
	return model.Signal{
		ID:           "test-long",
		Symbol:       "BTC/USDT",
		Category:     "standard",
		MarketKind:   model.MarketSpot,
		Direction:    model.DirectionLong,
		EntryPrice:   100,
		StopLoss:     97,
		TakeProfit1:  102.5,
		TakeProfit2:  106.5,
		TakeProfit3:  108.5,
		CurrentPrice: 100,
		HighestPrice: 100,
		LowestPrice:  100,
		Status:       model.StatusActive,
		ExpiryAt:     time.Now().Add(24 * time.Hour),
	}
}

func newShortSignal() model.Signal {
	return model.Signal{
		ID:           "test-short",
		Symbol:       "ETH/USDT",
		Category:     "standard",
		MarketKind:   model.MarketSwap,
		Direction:    model.DirectionShort,
		EntryPrice:   100,
		StopLoss:     103,
		TakeProfit1:  97.5,
		TakeProfit2:  93.5,
		TakeProfit3:  91.5,
		CurrentPrice: 100,
		HighestPrice: 100,
		LowestPrice:  100,
		Status:       model.StatusActive,
		ExpiryAt:     time.Now().Add(24 * time.Hour),
	}
}

func advancePath(s model.Signal, prices ...float64) model.Signal {
	now := time.Now()
	for _, p := range prices {
		s = Advance(s, p, now)
	}
	return s
}

// 价格路径 [101, 103, 99]：tick2后TP1命中，tick3回落不影响已命中标记，状态仍ACTIVE
func TestLongPartialProgressStaysActive(t *testing.T) {
	s := newLongSignal()
	now := time.Now()

	s = Advance(s, 101, now)
	if s.TP1Hit || s.TP2Hit || s.TP3Hit {
		t.Fatalf("no TP should be hit at 101: %+v", s)
	}

	s = Advance(s, 103, now)
	if !s.TP1Hit {
		t.Fatal("TP1 should be hit at 103")
	}
	if s.TP2Hit {
		t.Fatal("TP2 must not be hit at 103")
	}
	if s.TP1HitAt == nil {
		t.Fatal("TP1 hit timestamp missing")
	}

	s = Advance(s, 99, now)
	if s.Status != model.StatusActive {
		t.Fatalf("status = %s, want ACTIVE (99 above SL 97)", s.Status)
	}
	if !s.TP1Hit {
		t.Fatal("TP1 flag must stay true after pullback")
	}
	if s.LowestPrice != 99 {
		t.Fatalf("lowest price = %v, want 99", s.LowestPrice)
	}
}

// 价格直接到107：TP1和TP2同时命中，信号完成，盈亏按TP2价结算 = 6.5%
func TestLongCompletionAtTP2(t *testing.T) {
	s := advancePath(newLongSignal(), 107)
	if !s.TP1Hit || !s.TP2Hit {
		t.Fatalf("TP1/TP2 should both be hit: %+v", s)
	}
	if s.TP3Hit {
		t.Fatal("TP3 must not be hit at 107")
	}
	if s.Status != model.StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", s.Status)
	}
	if math.Abs(s.PnlPct-6.5) > 1e-9 {
		t.Fatalf("realized pnl = %v, want 6.5", s.PnlPct)
	}
	if s.CompletedAt == nil {
		t.Fatal("completed timestamp missing")
	}
}

// 空头信号价格上穿止损：STOPPED，无任何TP标记
func TestShortStopLoss(t *testing.T) {
	s := advancePath(newShortSignal(), 104)
	if s.Status != model.StatusStopped {
		t.Fatalf("status = %s, want STOPPED", s.Status)
	}
	if s.TP1Hit || s.TP2Hit || s.TP3Hit {
		t.Fatalf("no TP flag should be set: %+v", s)
	}
	if s.PnlPct >= 0 {
		t.Fatalf("stopped short pnl = %v, want negative", s.PnlPct)
	}
}

// 同一个价格同时满足止损和TP2时，止损优先（保留既有语义，见DESIGN.md）
func TestStopPrecedenceOverSameTickCompletion(t *testing.T) {
	s := newLongSignal()
	// 先把最高价推到TP2之上但尚未完成判定前模拟极端行情：
	// 构造一个已经命中TP2标记、但同一tick价格击穿止损的场景
	now := time.Now()
	s.HighestPrice = 107 // 历史极值已越过TP2
	s = Advance(s, 96, now)
	if s.Status != model.StatusStopped {
		t.Fatalf("status = %s, want STOPPED (stop wins the tie)", s.Status)
	}
	// TP标记照常记录，只是状态归于止损
	if !s.TP2Hit {
		t.Fatal("TP2 flag should still be recorded")
	}
}

// 不穿越任何阈值的tick只改变CurrentPrice和盈亏
func TestAdvanceIdempotence(t *testing.T) {
	s := advancePath(newLongSignal(), 101)
	before := s
	after := Advance(s, 101, time.Now())

	before.CurrentPrice, after.CurrentPrice = 0, 0
	before.PnlPct, after.PnlPct = 0, 0
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("advance with non-crossing price changed state:\nbefore: %+v\nafter:  %+v", before, after)
	}
}

// 命中标记单调：任何后续价格序列都不能把true翻回false
func TestTPFlagsMonotonic(t *testing.T) {
	s := advancePath(newLongSignal(), 103)
	if !s.TP1Hit {
		t.Fatal("setup: TP1 should be hit")
	}
	for _, p := range []float64{98, 100, 99.5, 101, 97.5} {
		s = Advance(s, p, time.Now())
		if !s.TP1Hit {
			t.Fatalf("TP1 flag reset by price %v", p)
		}
	}
}

// 过期的信号按完成处理，盈亏按当前价结算
func TestExpiryCompletes(t *testing.T) {
	s := newLongSignal()
	s.ExpiryAt = time.Now().Add(-time.Minute)
	s = Advance(s, 101, time.Now())
	if s.Status != model.StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED on expiry", s.Status)
	}
	if math.Abs(s.PnlPct-1.0) > 1e-9 {
		t.Fatalf("expired pnl = %v, want 1.0 (current price based)", s.PnlPct)
	}
}

// 终态不再变化
func TestTerminalIsImmutable(t *testing.T) {
	s := advancePath(newLongSignal(), 96) // 止损
	if s.Status != model.StatusStopped {
		t.Fatal("setup: signal should be stopped")
	}
	after := Advance(s, 120, time.Now())
	if !reflect.DeepEqual(after, s) {
		t.Fatal("terminal signal must not change on further ticks")
	}
}

// 对账：当前价越过TP3时三个标记一次性全部置true
func TestCatchUpCollapsesLadder(t *testing.T) {
	s := CatchUp(newLongSignal(), 110, time.Now())
	if !s.TP1Hit || !s.TP2Hit || !s.TP3Hit {
		t.Fatalf("TP3 crossing must collapse all flags: %+v", s)
	}
	if s.Status != model.StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", s.Status)
	}
	if math.Abs(s.PnlPct-8.5) > 1e-9 {
		t.Fatalf("realized pnl = %v, want 8.5 (TP3 based)", s.PnlPct)
	}
}

// 对账：止损优先于同价位的止盈判断
func TestCatchUpStopPrecedence(t *testing.T) {
	s := CatchUp(newLongSignal(), 95, time.Now())
	if s.Status != model.StatusStopped {
		t.Fatalf("status = %s, want STOPPED", s.Status)
	}
	if s.TP1Hit || s.TP2Hit || s.TP3Hit {
		t.Fatalf("no TP flag should be set on stop: %+v", s)
	}
}

// 对账：仅越过TP1不完成
func TestCatchUpTP1Only(t *testing.T) {
	s := CatchUp(newLongSignal(), 103, time.Now())
	if !s.TP1Hit || s.TP2Hit || s.TP3Hit {
		t.Fatalf("only TP1 should be hit: %+v", s)
	}
	if s.Status != model.StatusActive {
		t.Fatalf("status = %s, want ACTIVE", s.Status)
	}
}

// 空头对账：价格跌破TP2，TP1/TP2一并命中并完成
func TestCatchUpShort(t *testing.T) {
	s := CatchUp(newShortSignal(), 93, time.Now())
	if !s.TP1Hit || !s.TP2Hit || s.TP3Hit {
		t.Fatalf("TP1/TP2 should be hit: %+v", s)
	}
	if s.Status != model.StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", s.Status)
	}
	if math.Abs(s.PnlPct-6.5) > 1e-9 {
		t.Fatalf("realized pnl = %v, want 6.5", s.PnlPct)
	}
}
