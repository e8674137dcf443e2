package autogen

import (
	"context"
	"errors"
	"signalflow/conf"
	"signalflow/internal/consts"
	"signalflow/internal/model"
	"signalflow/internal/store"
	"sync/atomic"
	"testing"
	"time"
)

type stubEvaluator struct {
	calls int64
}

func (e *stubEvaluator) Evaluate(_ context.Context, series *model.Series, category string, kind model.MarketKind) *model.Signal {
	atomic.AddInt64(&e.calls, 1)
	return &model.Signal{
		ID:           model.NewSignalID(),
		Symbol:       series.Symbol,
		Category:     category,
		MarketKind:   kind,
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

type stubHistoryFeed struct {
	fail  bool
	batch int64
}

func (f *stubHistoryFeed) CurrentPrice(context.Context, string, model.MarketKind) (float64, error) {
	return 0, errors.New("not implemented")
}

func (f *stubHistoryFeed) History(_ context.Context, symbol string, _ model.MarketKind, _ string, _ int) (*model.Series, error) {
	if f.fail {
		return nil, errors.New("history unavailable")
	}
	atomic.AddInt64(&f.batch, 1)
	return &model.Series{Symbol: symbol, Klines: []model.Kline{{Close: 100}}}, nil
}

func testCategories(interval time.Duration) map[string]conf.CategoryConfig {
	return map[string]conf.CategoryConfig{
		consts.CategoryStandard: {
			Interval:   interval,
			Universe:   []string{"BTC/USDT", "ETH/USDT"},
			MarketKind: "spot",
		},
	}
}

// 一次生成：整体替换分区，每个universe成员各评估一次
func TestGenerateOnceReplacesPartition(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	// 放一个旧信号，生成后必须被替换掉
	_ = st.ReplaceActive(ctx, consts.CategoryStandard, []model.Signal{{
		ID: "stale", Symbol: "OLD/USDT", Category: consts.CategoryStandard,
		Direction: model.DirectionLong, MarketKind: model.MarketSpot,
		EntryPrice: 1, StopLoss: 0.9, Status: model.StatusActive,
	}})

	ev := &stubEvaluator{}
	g := New(st, &stubHistoryFeed{}, ev, nil, testCategories(time.Hour))

	n, err := g.GenerateOnce(ctx, consts.CategoryStandard)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("generated = %d, want 2", n)
	}

	actives, _ := st.GetActive(ctx, consts.CategoryStandard)
	if len(actives) != 2 {
		t.Fatalf("partition = %d signals, want 2", len(actives))
	}
	for _, s := range actives {
		if s.ID == "stale" {
			t.Fatal("stale signal must be discarded by wholesale replacement")
		}
	}
}

// 运行时间戳在生成开始前就写入，即使整批拉历史全失败也要有
func TestLastRunStampedBeforeGeneration(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	g := New(st, &stubHistoryFeed{fail: true}, &stubEvaluator{}, nil, testCategories(time.Hour))

	before := time.Now()
	if _, err := g.GenerateOnce(ctx, consts.CategoryStandard); err != nil {
		t.Fatal(err)
	}

	prefs, _ := st.GetAutoGenPrefs(ctx, consts.CategoryStandard)
	if prefs.LastRunAt.Before(before) {
		t.Fatalf("last run stamp = %v, want >= %v", prefs.LastRunAt, before)
	}
	// 全部失败时分区被替换为空批次
	actives, _ := st.GetActive(ctx, consts.CategoryStandard)
	if len(actives) != 0 {
		t.Fatalf("partition should be empty batch, got %d", len(actives))
	}
}

// 同一分类start两次只留一个定时器：周期内的生成次数不会翻倍
func TestStartTwiceKeepsSingleTimer(t *testing.T) {
	st := store.NewMemoryStore()
	ev := &stubEvaluator{}
	g := New(st, &stubHistoryFeed{}, ev, nil, testCategories(25*time.Millisecond))

	g.StartCategory(consts.CategoryStandard)
	g.StartCategory(consts.CategoryStandard)
	time.Sleep(110 * time.Millisecond)
	g.StopAll()

	// 约4个周期，每周期评估2个交易对；双定时器会接近16次
	calls := atomic.LoadInt64(&ev.calls)
	if calls < 4 || calls > 12 {
		t.Fatalf("evaluate calls = %d, want one timer's worth (4-12)", calls)
	}

	// 停止后不再生成
	g.StopCategory(consts.CategoryStandard) // 重复停止是no-op
	after := atomic.LoadInt64(&ev.calls)
	time.Sleep(60 * time.Millisecond)
	if atomic.LoadInt64(&ev.calls) != after {
		t.Fatal("generation continued after stop")
	}
}
