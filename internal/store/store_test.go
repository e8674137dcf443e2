package store

import (
	"context"
	"signalflow/internal/consts"
	"signalflow/internal/model"
	"testing"
	"time"
)

func sampleSignal(id, category string) model.Signal {
	now := time.Now()
	return model.Signal{
		ID:           id,
		Symbol:       "BTC/USDT",
		Category:     category,
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
		Confidence:   70,
		ExpiryAt:     now.Add(24 * time.Hour),
		CreatedAt:    now,
	}
}

// 整体替换只影响自己的分类
func TestReplaceActiveIsolation(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	if err := st.ReplaceActive(ctx, consts.CategoryStandard, []model.Signal{sampleSignal("a", consts.CategoryStandard)}); err != nil {
		t.Fatal(err)
	}
	if err := st.ReplaceActive(ctx, consts.CategoryFast, []model.Signal{sampleSignal("b", consts.CategoryFast)}); err != nil {
		t.Fatal(err)
	}

	// 替换standard分区不能动fast分区
	if err := st.ReplaceActive(ctx, consts.CategoryStandard, []model.Signal{sampleSignal("c", consts.CategoryStandard)}); err != nil {
		t.Fatal(err)
	}

	std, _ := st.GetActive(ctx, consts.CategoryStandard)
	if len(std) != 1 || std[0].ID != "c" {
		t.Fatalf("standard partition = %+v, want single signal c", std)
	}
	fast, _ := st.GetActive(ctx, consts.CategoryFast)
	if len(fast) != 1 || fast[0].ID != "b" {
		t.Fatalf("fast partition = %+v, want untouched signal b", fast)
	}
}

// 带重复id的批次写入后读回只剩一条，保留先出现的
func TestReplaceActiveDedups(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	first := sampleSignal("dup", consts.CategoryStandard)
	first.Confidence = 80
	second := sampleSignal("dup", consts.CategoryStandard)
	second.Confidence = 20

	if err := st.ReplaceActive(ctx, consts.CategoryStandard, []model.Signal{first, second}); err != nil {
		t.Fatal(err)
	}
	got, _ := st.GetActive(ctx, consts.CategoryStandard)
	if len(got) != 1 {
		t.Fatalf("after dedup = %d signals, want 1", len(got))
	}
	if got[0].Confidence != 80 {
		t.Fatalf("first occurrence must win, confidence = %v", got[0].Confidence)
	}
}

func TestUpsertReplacesById(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	s := sampleSignal("x", consts.CategoryStandard)
	if err := st.Upsert(ctx, s); err != nil {
		t.Fatal(err)
	}
	s.CurrentPrice = 105
	if err := st.Upsert(ctx, s); err != nil {
		t.Fatal(err)
	}

	got, _ := st.GetActive(ctx, consts.CategoryStandard)
	if len(got) != 1 {
		t.Fatalf("expected one signal after upsert, got %d", len(got))
	}
	if got[0].CurrentPrice != 105 {
		t.Fatalf("current price = %v, want 105", got[0].CurrentPrice)
	}
}

// 归档：从活跃分区移除并进入归档列表，按id去重且先写入者优先
func TestArchiveDedupFirstWins(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	s := sampleSignal("dup", consts.CategoryStandard)
	s.Status = model.StatusCompleted
	s.PnlPct = 6.5
	_ = st.ReplaceActive(ctx, consts.CategoryStandard, []model.Signal{s})

	if err := st.Archive(ctx, s); err != nil {
		t.Fatal(err)
	}

	// 第二次归档同一个id但盈亏不同，必须被忽略
	dup := s
	dup.PnlPct = -3.0
	if err := st.Archive(ctx, dup); err != nil {
		t.Fatal(err)
	}

	actives, _ := st.GetActive(ctx, consts.CategoryStandard)
	if len(actives) != 0 {
		t.Fatalf("active partition should be empty after archive, got %d", len(actives))
	}
	completed, _ := st.Completed(ctx)
	if len(completed) != 1 {
		t.Fatalf("completed list = %d entries, want 1", len(completed))
	}
	if completed[0].PnlPct != 6.5 {
		t.Fatalf("first archived record must win, pnl = %v", completed[0].PnlPct)
	}
}

func TestClearExpired(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	old := sampleSignal("old", consts.CategoryStandard)
	old.Status = model.StatusCompleted
	oldAt := time.Now().Add(-48 * time.Hour)
	old.CompletedAt = &oldAt

	fresh := sampleSignal("fresh", consts.CategoryStandard)
	fresh.Status = model.StatusCompleted
	freshAt := time.Now().Add(-time.Hour)
	fresh.CompletedAt = &freshAt

	_ = st.Archive(ctx, old)
	_ = st.Archive(ctx, fresh)

	removed, err := st.ClearExpired(ctx, 24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	completed, _ := st.Completed(ctx)
	if len(completed) != 1 || completed[0].ID != "fresh" {
		t.Fatalf("completed after cleanup = %+v, want only fresh", completed)
	}
}

func TestAutoGenPrefsRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	got, err := st.GetAutoGenPrefs(ctx, consts.CategoryFast)
	if err != nil {
		t.Fatal(err)
	}
	if got.Enabled {
		t.Fatal("prefs should default to disabled")
	}

	at := time.Now().Truncate(time.Second)
	if err := st.SetAutoGenPrefs(ctx, consts.CategoryFast, model.AutoGenPrefs{Enabled: true, LastRunAt: at}); err != nil {
		t.Fatal(err)
	}
	got, _ = st.GetAutoGenPrefs(ctx, consts.CategoryFast)
	if !got.Enabled || !got.LastRunAt.Equal(at) {
		t.Fatalf("prefs round trip = %+v", got)
	}

	// 分类之间互不影响
	other, _ := st.GetAutoGenPrefs(ctx, consts.CategoryStandard)
	if other.Enabled {
		t.Fatal("prefs must be per category")
	}
}
