package predictor

import (
	"context"
	"signalflow/internal/model"
	"signalflow/pkg/logger"
	"time"
)

// Prediction 方向预测结果
type Prediction struct {
	Direction  model.Direction
	Confidence float64 // 0-1 的概率置信度
}

// DirectionPredictor 可选的模型预测口子
// 不可用时打分引擎退化为纯技术面，不影响信号生成
type DirectionPredictor interface {
	Predict(ctx context.Context, series *model.Series) (Prediction, error)
}

// BoundedPredict 带超时地做一次预测
// predictor为nil、超时或出错时返回ok=false，调用方按无预测处理
func BoundedPredict(ctx context.Context, p DirectionPredictor, series *model.Series, timeout time.Duration) (Prediction, bool) {
	if p == nil {
		return Prediction{}, false
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		pred Prediction
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		pred, err := p.Predict(ctx, series)
		ch <- result{pred, err}
	}()

	select {
	case <-ctx.Done():
		logger.Warnf("predictor 推理超时 symbol=%s，退化为纯技术面", series.Symbol)
		return Prediction{}, false
	case r := <-ch:
		if r.err != nil {
			logger.Warnf("predictor 推理失败 symbol=%s: %v", series.Symbol, r.err)
			return Prediction{}, false
		}
		if r.pred.Confidence < 0 || r.pred.Confidence > 1 {
			return Prediction{}, false
		}
		return r.pred, true
	}
}
