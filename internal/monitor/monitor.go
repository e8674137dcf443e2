package monitor

import (
	"context"
	"signalflow/conf"
	"signalflow/internal/consts"
	"signalflow/internal/dao"
	"signalflow/internal/feed"
	"signalflow/internal/lifecycle"
	"signalflow/internal/model"
	"signalflow/internal/notify"
	"signalflow/internal/store"
	"signalflow/pkg/logger"
	"sync"
	"time"
)

// Monitor 周期性推进所有活跃信号的生命周期
// 每轮按分类处理：并行取价和推进，单个信号失败只跳过自己
// 写回时整个分区一次性替换，避免并发写者互相覆盖
type Monitor struct {
	store    store.SignalStore
	feed     feed.PriceFeed
	sim      *feed.SimulatedFeed
	notifier notify.Notifier
	archive  dao.ArchiveDao // 可以为nil，数据库归档是可选的
	cfg      conf.MonitorConfig

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func New(st store.SignalStore, pf feed.PriceFeed, notifier notify.Notifier, archive dao.ArchiveDao, cfg conf.MonitorConfig) *Monitor {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.FeedTimeout <= 0 {
		cfg.FeedTimeout = 5 * time.Second
	}
	return &Monitor{
		store:    st,
		feed:     pf,
		sim:      feed.NewSimulatedFeed(),
		notifier: notifier,
		archive:  archive,
		cfg:      cfg,
	}
}

// Start 启动监控循环，重复调用是no-op
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	m.running = true
	go m.loop(ctx)
	logger.Infof("Monitor 启动，间隔 %s", m.cfg.Interval)
}

// Stop 停止监控，返回后保证不再有任何写入
// 对未启动的监控调用是no-op
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	cancel, done := m.cancel, m.done
	m.mu.Unlock()

	cancel()
	<-done
	logger.Info("Monitor 已停止")
}

func (m *Monitor) loop(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	cleanInterval := m.cfg.CleanInterval
	if cleanInterval <= 0 {
		cleanInterval = time.Hour
	}
	cleaner := time.NewTicker(cleanInterval)
	defer cleaner.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick(ctx)
		case <-cleaner.C:
			if m.cfg.ExpireMaxAge > 0 {
				if n, err := m.store.ClearExpired(ctx, m.cfg.ExpireMaxAge); err != nil {
					logger.Errorf("Monitor 清理过期归档失败: %v", err)
				} else if n > 0 {
					logger.Infof("Monitor 清理过期归档 %d 条", n)
				}
			}
		}
	}
}

// tick 跑一轮：逐分类加载、并行推进、整体写回
func (m *Monitor) tick(ctx context.Context) {
	for _, category := range consts.Categories {
		if ctx.Err() != nil {
			return
		}
		signals, err := m.store.GetActive(ctx, category)
		if err != nil {
			logger.Errorf("Monitor 加载活跃信号失败 category=%s: %v", category, err)
			continue
		}
		if len(signals) == 0 {
			continue
		}

		updated := m.advanceBatch(ctx, signals)
		m.writeBack(ctx, category, updated)
	}
}

// advanceBatch 并行推进一批信号，单个失败保留原状
func (m *Monitor) advanceBatch(ctx context.Context, signals []model.Signal) []model.Signal {
	out := make([]model.Signal, len(signals))
	var wg sync.WaitGroup
	for i := range signals {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out[i] = m.advanceOne(ctx, signals[i])
		}(i)
	}
	wg.Wait()
	return out
}

func (m *Monitor) advanceOne(ctx context.Context, s model.Signal) model.Signal {
	price, err := m.fetchPrice(ctx, &s)
	if err != nil {
		logger.Errorf("Monitor 获取价格失败 symbol=%s id=%s: %v", s.Symbol, s.ID, err)
		return s
	}
	return lifecycle.Advance(s, price, time.Now())
}

// fetchPrice 带超时取价，失败时回退到带方向偏置的随机游走
// 偏置朝着下一档未命中的止盈，让演示信号能往前走
func (m *Monitor) fetchPrice(ctx context.Context, s *model.Signal) (float64, error) {
	if !m.cfg.SimulateOnly && m.feed != nil {
		fctx, cancel := context.WithTimeout(ctx, m.cfg.FeedTimeout)
		price, err := m.feed.CurrentPrice(fctx, s.Symbol, s.MarketKind)
		cancel()
		if err == nil && price > 0 {
			return price, nil
		}
		if err != nil {
			logger.Warnf("Monitor 实时行情不可用 symbol=%s: %v，回退模拟游走", s.Symbol, err)
		}
	}

	m.sim.Seed(s.Symbol, s.CurrentPrice)
	price, err := m.sim.CurrentPrice(ctx, s.Symbol, s.MarketKind)
	if err != nil {
		return 0, err
	}
	return price * (1 + towardNextTP(s)), nil
}

// towardNextTP 朝最近一档未命中止盈的微小偏置
func towardNextTP(s *model.Signal) float64 {
	const bias = 0.0008
	if s.IsLong() {
		return bias
	}
	return -bias
}

// writeBack 整个分区一次替换，终态的移入归档并发通知
func (m *Monitor) writeBack(ctx context.Context, category string, signals []model.Signal) {
	stillActive := make([]model.Signal, 0, len(signals))
	var finished []model.Signal
	for _, s := range signals {
		if s.Terminal() {
			finished = append(finished, s)
		} else {
			stillActive = append(stillActive, s)
		}
	}

	if err := m.store.ReplaceActive(ctx, category, stillActive); err != nil {
		logger.Errorf("Monitor 写回活跃分区失败 category=%s: %v", category, err)
		return
	}

	for _, s := range finished {
		if err := m.store.Archive(ctx, s); err != nil {
			logger.Errorf("Monitor 归档失败 id=%s: %v", s.ID, err)
			continue
		}
		if m.archive != nil {
			if err := m.archive.SaveCompletedSignal(ctx, &s); err != nil {
				logger.Errorf("Monitor 数据库归档失败 id=%s: %v", s.ID, err)
			}
		}
		eventType := notify.EventCompleted
		if s.Status == model.StatusStopped {
			eventType = notify.EventStopped
		}
		// 通知是尽力而为，失败由实现方记日志
		_ = m.notifier.Publish(ctx, model.SignalEvent{
			Type:      eventType,
			Category:  s.Category,
			Symbol:    s.Symbol,
			SignalID:  s.ID,
			PnlPct:    s.PnlPct,
			Timestamp: time.Now(),
		})
		logger.Infof("Monitor 信号完结 symbol=%s id=%s status=%s pnl=%.2f%%", s.Symbol, s.ID, s.Status, s.PnlPct)
	}
}
