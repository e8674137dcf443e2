package monitor

import (
	"context"
	"errors"
	"signalflow/conf"
	"signalflow/internal/consts"
	"signalflow/internal/model"
	"signalflow/internal/notify"
	"signalflow/internal/store"
	"sync"
	"testing"
	"time"
)

// 固定价格的行情桩，指定的symbol返回错误
type stubFeed struct {
	mu     sync.Mutex
	prices map[string]float64
	fail   map[string]bool
}

func (f *stubFeed) CurrentPrice(_ context.Context, symbol string, _ model.MarketKind) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[symbol] {
		return 0, errors.New("feed unavailable")
	}
	return f.prices[symbol], nil
}

func (f *stubFeed) History(context.Context, string, model.MarketKind, string, int) (*model.Series, error) {
	return nil, errors.New("not implemented")
}

// 记录事件的通知桩
type stubNotifier struct {
	mu     sync.Mutex
	events []model.SignalEvent
}

func (n *stubNotifier) Publish(_ context.Context, e model.SignalEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	return nil
}

func (n *stubNotifier) Close() {}

func (n *stubNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

func testSignal(id, symbol string) model.Signal {
	return model.Signal{
		ID:           id,
		Symbol:       symbol,
		Category:     consts.CategoryStandard,
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
		CreatedAt:    time.Now(),
	}
}

func testMonitorConfig() conf.MonitorConfig {
	return conf.MonitorConfig{
		Interval:    10 * time.Millisecond,
		FeedTimeout: 100 * time.Millisecond,
	}
}

// 价格越过TP2：信号完结，移入归档并发出通知
func TestTickArchivesCompleted(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	_ = st.ReplaceActive(ctx, consts.CategoryStandard, []model.Signal{testSignal("s1", "BTC/USDT")})

	f := &stubFeed{prices: map[string]float64{"BTC/USDT": 107}}
	n := &stubNotifier{}
	m := New(st, f, n, nil, testMonitorConfig())

	m.tick(ctx)

	actives, _ := st.GetActive(ctx, consts.CategoryStandard)
	if len(actives) != 0 {
		t.Fatalf("active partition should be empty, got %d", len(actives))
	}
	completed, _ := st.Completed(ctx)
	if len(completed) != 1 {
		t.Fatalf("completed = %d, want 1", len(completed))
	}
	got := completed[0]
	if got.Status != model.StatusCompleted || !got.TP2Hit {
		t.Fatalf("archived signal = %+v, want COMPLETED with TP2 hit", got)
	}
	if got.PnlPct != 6.5 {
		t.Fatalf("realized pnl = %v, want 6.5", got.PnlPct)
	}
	if n.count() != 1 || n.events[0].Type != notify.EventCompleted {
		t.Fatalf("expected one completed event, got %+v", n.events)
	}
}

// 一个信号的行情失败不影响同批其他信号
func TestPerSignalIsolation(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	_ = st.ReplaceActive(ctx, consts.CategoryStandard, []model.Signal{
		testSignal("ok", "BTC/USDT"),
		testSignal("bad", "DOGE/USDT"),
	})

	f := &stubFeed{
		prices: map[string]float64{"BTC/USDT": 103},
		fail:   map[string]bool{"DOGE/USDT": true},
	}
	m := New(st, f, &stubNotifier{}, nil, testMonitorConfig())
	// 行情失败时会落到模拟游走，这里用simulate_only=false验证兜底也能推进
	m.tick(ctx)

	actives, _ := st.GetActive(ctx, consts.CategoryStandard)
	if len(actives) != 2 {
		t.Fatalf("both signals should survive the tick, got %d", len(actives))
	}
	for _, s := range actives {
		switch s.ID {
		case "ok":
			if !s.TP1Hit {
				t.Fatal("healthy signal should have advanced past TP1")
			}
		case "bad":
			// 兜底游走只做微小移动，信号仍然活跃且价格被更新过
			if s.Status != model.StatusActive {
				t.Fatalf("fallback-driven signal status = %s, want ACTIVE", s.Status)
			}
			if s.CurrentPrice == 0 {
				t.Fatal("fallback walk should still update current price")
			}
		}
	}
}

// 止损信号发STOPPED事件
func TestTickStopLossEvent(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	_ = st.ReplaceActive(ctx, consts.CategoryStandard, []model.Signal{testSignal("s1", "BTC/USDT")})

	f := &stubFeed{prices: map[string]float64{"BTC/USDT": 96}}
	n := &stubNotifier{}
	m := New(st, f, n, nil, testMonitorConfig())
	m.tick(ctx)

	if n.count() != 1 || n.events[0].Type != notify.EventStopped {
		t.Fatalf("expected one stopped event, got %+v", n.events)
	}
	completed, _ := st.Completed(ctx)
	if len(completed) != 1 || completed[0].PnlPct != -3.0 {
		t.Fatalf("stopped pnl = %+v, want -3.0", completed)
	}
}

// 对账：越过TP3时三档标记一次收敛并完结
func TestCatchUpSweep(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	_ = st.ReplaceActive(ctx, consts.CategoryStandard, []model.Signal{testSignal("s1", "BTC/USDT")})

	f := &stubFeed{prices: map[string]float64{"BTC/USDT": 110}}
	m := New(st, f, &stubNotifier{}, nil, testMonitorConfig())
	m.RunCatchUp(ctx)

	completed, _ := st.Completed(ctx)
	if len(completed) != 1 {
		t.Fatalf("completed = %d, want 1", len(completed))
	}
	got := completed[0]
	if !got.TP1Hit || !got.TP2Hit || !got.TP3Hit {
		t.Fatalf("catch-up must collapse all TP flags: %+v", got)
	}
	if got.PnlPct != 8.5 {
		t.Fatalf("realized pnl = %v, want 8.5 (TP3)", got.PnlPct)
	}
}

// 启动停止可以反复调用，停止后不再有写入
func TestStartStopIdempotent(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	_ = st.ReplaceActive(ctx, consts.CategoryStandard, []model.Signal{testSignal("s1", "BTC/USDT")})

	f := &stubFeed{prices: map[string]float64{"BTC/USDT": 101}}
	m := New(st, f, &stubNotifier{}, nil, testMonitorConfig())

	m.Start()
	m.Start() // 重复启动是no-op
	time.Sleep(50 * time.Millisecond)
	m.Stop()
	m.Stop() // 重复停止也是no-op

	after, _ := st.GetActive(ctx, consts.CategoryStandard)
	time.Sleep(30 * time.Millisecond)
	later, _ := st.GetActive(ctx, consts.CategoryStandard)
	if len(after) != len(later) || (len(after) == 1 && after[0].CurrentPrice != later[0].CurrentPrice) {
		t.Fatal("store mutated after Stop returned")
	}
}
