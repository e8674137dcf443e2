package autogen

import (
	"context"
	"signalflow/conf"
	"signalflow/internal/consts"
	"signalflow/internal/engine"
	"signalflow/internal/feed"
	"signalflow/internal/model"
	"signalflow/internal/notify"
	"signalflow/internal/store"
	"signalflow/pkg/logger"
	"sync"
	"time"

	"go.uber.org/multierr"
)

// Evaluator 打分引擎的口子，生成器只关心这一个方法
type Evaluator interface {
	Evaluate(ctx context.Context, series *model.Series, category string, kind model.MarketKind) *model.Signal
}

// Generator 按分类调度自动生成
// 每个分类一个独立定时器，互不干扰；对同一分类重复Start会先停掉旧的
type Generator struct {
	store      store.SignalStore
	feed       feed.PriceFeed
	evaluator  Evaluator
	notifier   notify.Notifier
	categories map[string]conf.CategoryConfig

	mu        sync.Mutex
	schedules map[string]*schedule
}

type schedule struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func New(st store.SignalStore, pf feed.PriceFeed, ev Evaluator, notifier notify.Notifier, categories map[string]conf.CategoryConfig) *Generator {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &Generator{
		store:      st,
		feed:       pf,
		evaluator:  ev,
		notifier:   notifier,
		categories: categories,
		schedules:  make(map[string]*schedule),
	}
}

// StartCategory 启动一个分类的自动生成
// 已有定时器在跑时先停掉再起新的，保证同一分类只有一个定时器
func (g *Generator) StartCategory(category string) {
	if !consts.IsValidCategory(category) {
		logger.Errorf("Generator 未知分类: %s", category)
		return
	}

	g.mu.Lock()
	if old, ok := g.schedules[category]; ok {
		old.cancel()
		<-old.done
		delete(g.schedules, category)
	}

	cfg := g.categories[category]
	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())
	sch := &schedule{cancel: cancel, done: make(chan struct{})}
	g.schedules[category] = sch
	g.mu.Unlock()

	go func() {
		defer close(sch.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := g.GenerateOnce(ctx, category); err != nil {
					logger.Errorf("Generator 生成失败 category=%s: %v", category, err)
				}
			}
		}
	}()
	logger.Infof("Generator 启动分类 %s，间隔 %s", category, interval)
}

// StopCategory 停掉一个分类的定时器，未启动时是no-op
func (g *Generator) StopCategory(category string) {
	g.mu.Lock()
	sch, ok := g.schedules[category]
	if ok {
		delete(g.schedules, category)
	}
	g.mu.Unlock()
	if !ok {
		return
	}
	sch.cancel()
	<-sch.done
	logger.Infof("Generator 停止分类 %s", category)
}

// StopAll 停掉所有分类
func (g *Generator) StopAll() {
	for _, c := range consts.Categories {
		g.StopCategory(c)
	}
}

// GenerateOnce 对一个分类做一次完整生成并整体替换活跃分区
// 先打"上次运行"时间戳再开始生成，前端的倒计时永远不会显示过期值
func (g *Generator) GenerateOnce(ctx context.Context, category string) (int, error) {
	prefs, err := g.store.GetAutoGenPrefs(ctx, category)
	if err != nil {
		logger.Errorf("Generator 读取偏好失败 category=%s: %v", category, err)
	}
	prefs.LastRunAt = time.Now()
	if err := g.store.SetAutoGenPrefs(ctx, category, prefs); err != nil {
		logger.Errorf("Generator 写入运行时间戳失败 category=%s: %v", category, err)
	}

	cfg := g.categories[category]
	kind := model.MarketKind(cfg.MarketKind)
	if kind != model.MarketSwap {
		kind = model.MarketSpot
	}
	timeFrame := engine.TimeFrameFor(category)

	var batch []model.Signal
	var fetchErrs error
	for _, symbol := range cfg.Universe {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		series, err := g.feed.History(ctx, symbol, kind, timeFrame, 200)
		if err != nil {
			// 单个交易对拉不到历史只跳过，不影响其他的
			fetchErrs = multierr.Append(fetchErrs, err)
			continue
		}
		if s := g.evaluator.Evaluate(ctx, series, category, kind); s != nil {
			batch = append(batch, *s)
		}
	}
	if fetchErrs != nil {
		logger.Errorf("Generator 拉取历史部分失败 category=%s: %v", category, fetchErrs)
	}

	// 整体替换：旧的活跃信号直接丢弃，不进归档
	if err := g.store.ReplaceActive(ctx, category, batch); err != nil {
		return 0, err
	}

	_ = g.notifier.Publish(ctx, model.SignalEvent{
		Type:      notify.EventGenerated,
		Category:  category,
		Count:     len(batch),
		Timestamp: time.Now(),
	})
	logger.Infof("Generator 分类 %s 生成 %d 个信号（扫描%d个交易对）", category, len(batch), len(cfg.Universe))
	return len(batch), nil
}
