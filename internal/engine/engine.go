package engine

import (
	"context"
	"fmt"
	"math"
	"signalflow/conf"
	"signalflow/internal/consts"
	"signalflow/internal/indicator"
	"signalflow/internal/model"
	"signalflow/internal/predictor"
	"signalflow/internal/sentiment"
	"signalflow/pkg/logger"
	"time"
)

// 打分引擎：把一段K线变成一个方向信号（或者什么都不给）
// 多空两边独立累加分数，高分且过线的一边胜出
// 拒绝不是错误，是正常控制流，直接返回nil

const (
	// 最低可交易价格，低于这个的山寨币点差和滑点没法看
	minTradablePrice = 1e-6

	// 打分过线门槛
	scoreThreshold     = 50.0
	fastScoreThreshold = 40.0

	// 单边强趋势判定：动量和变化率同时超过这两个值时
	// 禁用反向的均值回归规则，不接下落的刀子
	strongMomentum = 8.0
	strongROC      = 4.0

	// 多头回调门槛：距离近期高点的回撤比例
	minPullback = 0.002
	maxPullback = 0.08

	// 逆势信号要求的额外置信度
	counterTrendExtra = 15.0

	// 情绪和模型推理的超时
	externalTimeout = 2 * time.Second

	// TP1距离下限，防止低价币出现贴着入场价的止盈
	minTPFraction = 0.003
)

type Engine struct {
	sentiment  sentiment.SentimentSource
	predictor  predictor.DirectionPredictor // 可以为nil，退化为纯技术面
	categories map[string]conf.CategoryConfig
}

func New(src sentiment.SentimentSource, pred predictor.DirectionPredictor, categories map[string]conf.CategoryConfig) *Engine {
	if src == nil {
		src = sentiment.Neutral{}
	}
	return &Engine{
		sentiment:  src,
		predictor:  pred,
		categories: categories,
	}
}

// TimeFrameFor 每个分类使用的K线周期
func TimeFrameFor(category string) string {
	switch category {
	case consts.CategoryFast:
		return "5m"
	case consts.CategoryFlow:
		return "1h"
	default:
		return "15m"
	}
}

// validityFor 每个分类的信号有效期
func validityFor(category string) time.Duration {
	switch category {
	case consts.CategoryFast:
		return 4 * time.Hour
	case consts.CategoryFlow:
		return 12 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// scores 多空两边的累计分和触发理由
type scores struct {
	buy, sell           float64
	buyRules, sellRules []string
}

func (sc *scores) addBuy(v float64, rule string) {
	sc.buy += v
	sc.buyRules = append(sc.buyRules, rule)
}

func (sc *scores) addSell(v float64, rule string) {
	sc.sell += v
	sc.sellRules = append(sc.sellRules, rule)
}

// Evaluate 对一段K线做一次完整评估，不合格返回nil
func (e *Engine) Evaluate(ctx context.Context, series *model.Series, category string, kind model.MarketKind) *model.Signal {
	if series == nil || len(series.Klines) == 0 {
		return nil
	}

	closes := series.Closes()
	highs := series.Highs()
	lows := series.Lows()
	volumes := series.Volumes()
	price := series.LastClose()

	if price < minTradablePrice {
		return nil
	}

	rsi := indicator.RSI(closes, 14)
	mom := indicator.Momentum(closes, 10)
	roc := indicator.ROC(closes, 5)
	macd := indicator.MACD(closes, 12, 26, 9)
	bb := indicator.Bollinger(closes, 20, 2)
	ema20 := indicator.EMALast(closes, 20)
	ema50 := indicator.EMALast(closes, 50)
	ema100 := indicator.EMALast(closes, 100)
	volAvg := indicator.VolumeAvg(volumes, 20)
	curVol := 0.0
	if len(volumes) > 0 {
		curVol = volumes[len(volumes)-1]
	}

	// 单边强趋势时封掉反向的均值回归规则
	fallingKnife := mom <= -strongMomentum && roc <= -strongROC
	risingRocket := mom >= strongMomentum && roc >= strongROC

	var sc scores

	// RSI反转：超卖做多、超买做空，必须配合短期动量确认不是在接刀
	if !fallingKnife {
		if rsi < 25 && mom > -1.5 {
			sc.addBuy(25, fmt.Sprintf("RSI严重超卖(%.1f)且动量企稳", rsi))
		} else if rsi < 32 && mom > -1.5 {
			sc.addBuy(18, fmt.Sprintf("RSI超卖(%.1f)", rsi))
		}
	}
	if !risingRocket {
		if rsi > 75 && mom < 1.5 {
			sc.addSell(25, fmt.Sprintf("RSI严重超买(%.1f)且动量衰竭", rsi))
		} else if rsi > 68 && mom < 1.5 {
			sc.addSell(18, fmt.Sprintf("RSI超买(%.1f)", rsi))
		}
	}

	// 动量趋势跟随
	switch {
	case mom >= 5:
		sc.addBuy(20, fmt.Sprintf("强势上涨动量(%.1f%%)", mom))
	case mom >= 2.5:
		sc.addBuy(12, fmt.Sprintf("上涨动量(%.1f%%)", mom))
	case mom <= -5:
		sc.addSell(20, fmt.Sprintf("强势下跌动量(%.1f%%)", mom))
	case mom <= -2.5:
		sc.addSell(12, fmt.Sprintf("下跌动量(%.1f%%)", mom))
	}

	// 短周期变化率
	if roc >= 3 {
		sc.addBuy(10, fmt.Sprintf("短期加速上行(%.1f%%)", roc))
	} else if roc <= -3 {
		sc.addSell(10, fmt.Sprintf("短期加速下行(%.1f%%)", roc))
	}

	// MACD柱状图方向
	if macd.Hist > 0 {
		sc.addBuy(10, "MACD柱转正")
	} else if macd.Hist < 0 {
		sc.addSell(10, "MACD柱转负")
	}

	// 布林带触碰，同样是均值回归类规则
	if !fallingKnife && price <= bb.Lower && bb.Lower > 0 {
		sc.addBuy(12, "触及布林带下轨")
	}
	if !risingRocket && price >= bb.Upper && bb.Upper > 0 {
		sc.addSell(12, "触及布林带上轨")
	}

	// EMA多空排列
	if ema20 > ema50 && ema50 > ema100 {
		sc.addBuy(15, "EMA多头排列")
	} else if ema20 < ema50 && ema50 < ema100 {
		sc.addSell(15, "EMA空头排列")
	}

	// 放量确认：只给已经领先的一边加分
	if volAvg > 0 && curVol >= 1.5*volAvg {
		if sc.buy > sc.sell {
			sc.addBuy(10, fmt.Sprintf("放量确认(%.1f倍)", curVol/volAvg))
		} else if sc.sell > sc.buy {
			sc.addSell(10, fmt.Sprintf("放量确认(%.1f倍)", curVol/volAvg))
		}
	}

	// fast分类的量能门槛：没有活跃度的票不做短线
	threshold := scoreThreshold
	if category == consts.CategoryFast {
		threshold = fastScoreThreshold
		if volAvg <= 0 || curVol < 1.2*volAvg {
			return nil
		}
	}

	// 方向裁决：过线且领先的一边胜出，平分不出信号
	var dir model.Direction
	var score float64
	var rules []string
	switch {
	case sc.buy >= threshold && sc.buy > sc.sell:
		dir, score, rules = model.DirectionLong, sc.buy, sc.buyRules
	case sc.sell >= threshold && sc.sell > sc.buy:
		dir, score, rules = model.DirectionShort, sc.sell, sc.sellRules
	default:
		return nil
	}

	// 现货永远不出空头信号
	if kind == model.MarketSpot && dir == model.DirectionShort {
		return nil
	}

	// 多头回调门槛：贴着新高的不追，回撤太深的不接
	if dir == model.DirectionLong {
		localHigh := indicator.LocalHigh(closes, 20)
		if localHigh <= 0 {
			return nil
		}
		pullback := (localHigh - price) / localHigh
		if pullback < minPullback || pullback > maxPullback {
			return nil
		}
		rules = append(rules, fmt.Sprintf("距近期高点回调%.1f%%", pullback*100))
	}

	// 置信度混合：技术分为基底，情绪只做确认，模型可选
	confidence := math.Min(score, 100)

	senti := sentiment.BoundedScore(ctx, e.sentiment, series.Symbol, externalTimeout)
	aligned := senti
	if dir == model.DirectionShort {
		aligned = -senti
	}
	if aligned > 0.2 {
		confidence += aligned * 10
		rules = append(rules, "市场情绪同向")
	} else if aligned < -0.5 {
		confidence *= 0.9
		rules = append(rules, "市场情绪背离，折减置信度")
	}

	if pred, ok := predictor.BoundedPredict(ctx, e.predictor, series, externalTimeout); ok {
		if pred.Direction == dir {
			confidence = confidence*0.8 + pred.Confidence*100*0.2
			rules = append(rules, fmt.Sprintf("模型同向(%.0f%%)", pred.Confidence*100))
		} else if pred.Confidence > 0.7 {
			confidence *= 0.85
			rules = append(rules, "模型强烈反向，折减置信度")
		}
	}
	confidence = math.Min(math.Max(confidence, 0), 100)

	// 置信度门槛：分类配置的下限，逆势再加一截
	floor := e.categories[category].MinConfidence
	if floor <= 0 {
		floor = 55
	}
	bullMarket := ema50 > ema100
	counterTrend := (dir == model.DirectionLong && !bullMarket) || (dir == model.DirectionShort && bullMarket)
	if counterTrend {
		floor += counterTrendExtra
		rules = append(rules, "逆势信号，提高门槛")
	}
	if confidence < floor {
		return nil
	}

	atr := indicator.ATR(highs, lows, closes, 14)
	realizedVol := indicator.Volatility(closes, 20)
	sl, tp1, tp2, tp3 := buildLadder(price, dir, category, confidence, aligned, atr)

	now := time.Now()
	s := &model.Signal{
		ID:           model.NewSignalID(),
		Symbol:       series.Symbol,
		Category:     category,
		MarketKind:   kind,
		Venue:        "OKX",
		Direction:    dir,
		EntryPrice:   price,
		StopLoss:     sl,
		TakeProfit1:  tp1,
		TakeProfit2:  tp2,
		TakeProfit3:  tp3,
		CurrentPrice: price,
		HighestPrice: price,
		LowestPrice:  price,
		Status:       model.StatusActive,
		Confidence:   math.Round(confidence*10) / 10,
		RiskScore:    riskScore(atr, realizedVol, price),
		Rationale:    rules,
		TimeFrame:    TimeFrameFor(category),
		ExpiryAt:     now.Add(validityFor(category)),
		CreatedAt:    now,
	}

	// 阶梯顺序错了属于程序缺陷，这里宁可不出信号也要把错误暴露出来
	if err := s.Validate(); err != nil {
		logger.Errorf("Engine 生成了非法信号 symbol=%s: %v", series.Symbol, err)
		return nil
	}
	return s
}

// buildLadder 构造止损和三档止盈
// 常规分类基于ATR：置信度越高止损越紧，情绪同向放大止盈距离
// fast分类用固定的紧凑百分比，不依赖ATR
func buildLadder(entry float64, dir model.Direction, category string, confidence, aligned, atr float64) (sl, tp1, tp2, tp3 float64) {
	var slDist, tpFull float64

	if category == consts.CategoryFast {
		slDist = entry * 0.01
		tpFull = entry * 0.018
	} else {
		slMult := 2.0 - (confidence/100)*0.8 // 1.2 ~ 2.0
		tpMult := 2.5
		if aligned > 0.2 {
			tpMult += aligned * 0.5
		}
		slDist = atr * slMult
		tpFull = atr * tpMult
	}

	// 止盈距离下限，防止出现贴着入场价的目标
	if minDist := entry * minTPFraction; tpFull*0.25 < minDist {
		tpFull = minDist / 0.25
	}
	if minSL := entry * 0.002; slDist < minSL {
		slDist = minSL
	}

	sign := 1.0
	if dir == model.DirectionShort {
		sign = -1.0
	}
	sl = entry - sign*slDist
	tp1 = entry + sign*tpFull*0.25
	tp2 = entry + sign*tpFull*0.65
	tp3 = entry + sign*tpFull*0.85
	return
}

// riskScore ATR占价格的比例映射到0-100
// 已实现波动率口径更高时取更高者，不低估单根K线跳动剧烈的票
func riskScore(atr, realizedVol, price float64) float64 {
	if price <= 0 {
		return 0
	}
	atrPct := atr / price * 100
	score := atrPct * 15
	if volScore := realizedVol * 10; volScore > score {
		score = volScore
	}
	if score > 100 {
		score = 100
	}
	return math.Round(score*10) / 10
}
