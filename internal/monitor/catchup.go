package monitor

import (
	"context"
	"signalflow/internal/consts"
	"signalflow/internal/lifecycle"
	"signalflow/pkg/logger"
	"time"
)

// RunCatchUp 监控中断后的一次性对账
// 对每个活跃信号用当前价做TP/SL穿越判断（中断期间没有极值历史），
// 然后和常规tick一样整体写回、归档、通知
func (m *Monitor) RunCatchUp(ctx context.Context) {
	start := time.Now()
	total, closed := 0, 0

	for _, category := range consts.Categories {
		if ctx.Err() != nil {
			return
		}
		signals, err := m.store.GetActive(ctx, category)
		if err != nil {
			logger.Errorf("CatchUp 加载活跃信号失败 category=%s: %v", category, err)
			continue
		}
		if len(signals) == 0 {
			continue
		}
		total += len(signals)

		now := time.Now()
		for i := range signals {
			price, err := m.fetchPrice(ctx, &signals[i])
			if err != nil {
				logger.Errorf("CatchUp 获取价格失败 symbol=%s id=%s: %v", signals[i].Symbol, signals[i].ID, err)
				continue
			}
			signals[i] = lifecycle.CatchUp(signals[i], price, now)
			if signals[i].Terminal() {
				closed++
			}
		}
		m.writeBack(ctx, category, signals)
	}

	logger.Infof("CatchUp 对账完成：检查%d个信号，完结%d个，耗时%s", total, closed, time.Since(start))
}
