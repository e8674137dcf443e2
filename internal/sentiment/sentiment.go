package sentiment

import (
	"context"
	"signalflow/pkg/logger"
	"time"
)

// SentimentSource 情绪分来源，返回[-1, 1]的有界带符号分数
// 正数看多，负数看空，0为中性
// 只做确认用：同向加分，强烈反向小幅折减，永远不会反转技术面方向
type SentimentSource interface {
	Score(ctx context.Context, symbol string) (float64, error)
}

// Neutral 永远返回中性分，情绪源未接入时使用
type Neutral struct{}

func (Neutral) Score(context.Context, string) (float64, error) { return 0, nil }

// BoundedScore 带超时地取情绪分，失败或超时一律回退中性
// 结果强制截断到[-1, 1]
func BoundedScore(ctx context.Context, src SentimentSource, symbol string, timeout time.Duration) float64 {
	if src == nil {
		return 0
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		score float64
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		s, err := src.Score(ctx, symbol)
		ch <- result{s, err}
	}()

	select {
	case <-ctx.Done():
		logger.Warnf("sentiment 获取超时 symbol=%s，回退中性", symbol)
		return 0
	case r := <-ch:
		if r.err != nil {
			logger.Warnf("sentiment 获取失败 symbol=%s: %v，回退中性", symbol, r.err)
			return 0
		}
		if r.score > 1 {
			return 1
		}
		if r.score < -1 {
			return -1
		}
		return r.score
	}
}
