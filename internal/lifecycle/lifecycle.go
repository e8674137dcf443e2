package lifecycle

import (
	"signalflow/internal/model"
	"time"
)

// 信号生命周期状态机
// ACTIVE -> COMPLETED / STOPPED，两者都是终态
// 纯函数实现，不做任何I/O，所有行情获取在调用前完成

// Advance 用一个新价格推进信号状态，返回更新后的副本
// 检查顺序是语义的一部分，不能调整：
//  1. 更新最高/最低极值
//  2. 依次检查TP1/TP2/TP3是否首次触达（标记单调，只置true）
//  3. 止损检查 —— 同一根行情同时满足止损和止盈时，止损优先
//  4. 完成检查：TP2或TP3触达即完成（仅TP1不算）
//  5. 过期检查：超过有效期按完成处理
//  6. 重算带符号盈亏
func Advance(s model.Signal, price float64, now time.Time) model.Signal {
	if s.Status != model.StatusActive {
		return s
	}

	s.CurrentPrice = price
	if price > s.HighestPrice {
		s.HighestPrice = price
	}
	if price < s.LowestPrice {
		s.LowestPrice = price
	}

	markTPHits(&s, now)

	if stopCrossed(&s) {
		s.Status = model.StatusStopped
	} else if s.TP2Hit || s.TP3Hit {
		s.Status = model.StatusCompleted
	} else if !s.ExpiryAt.IsZero() && now.After(s.ExpiryAt) {
		s.Status = model.StatusCompleted
	}

	if s.Terminal() {
		s.PnlPct = s.PnlPctAt(s.RealizedPrice())
		t := now
		s.CompletedAt = &t
	} else {
		s.PnlPct = s.PnlPctAt(price)
	}
	return s
}

// CatchUp 监控中断后的一次性对账推进
// 中断期间没有极值历史，只能用当前价做TP/SL穿越判断
// 从最远的档位开始收敛：当前价越过TP3时，TP1/TP2一并置true
func CatchUp(s model.Signal, price float64, now time.Time) model.Signal {
	if s.Status != model.StatusActive {
		return s
	}

	s.CurrentPrice = price
	if price > s.HighestPrice {
		s.HighestPrice = price
	}
	if price < s.LowestPrice {
		s.LowestPrice = price
	}

	// 与Advance保持同样的优先级：止损先于止盈完成
	if priceCrossed(&s, price, s.StopLoss, false) {
		s.Status = model.StatusStopped
	} else {
		switch {
		case priceCrossed(&s, price, s.TakeProfit3, true):
			markHit(&s.TP1Hit, &s.TP1HitAt, now)
			markHit(&s.TP2Hit, &s.TP2HitAt, now)
			markHit(&s.TP3Hit, &s.TP3HitAt, now)
		case priceCrossed(&s, price, s.TakeProfit2, true):
			markHit(&s.TP1Hit, &s.TP1HitAt, now)
			markHit(&s.TP2Hit, &s.TP2HitAt, now)
		case priceCrossed(&s, price, s.TakeProfit1, true):
			markHit(&s.TP1Hit, &s.TP1HitAt, now)
		}
		if s.TP2Hit || s.TP3Hit {
			s.Status = model.StatusCompleted
		} else if !s.ExpiryAt.IsZero() && now.After(s.ExpiryAt) {
			s.Status = model.StatusCompleted
		}
	}

	if s.Terminal() {
		s.PnlPct = s.PnlPctAt(s.RealizedPrice())
		t := now
		s.CompletedAt = &t
	} else {
		s.PnlPct = s.PnlPctAt(price)
	}
	return s
}

// markTPHits 依次检查三档止盈，极值首次穿越即记录命中时间
func markTPHits(s *model.Signal, now time.Time) {
	extremum := s.HighestPrice
	if !s.IsLong() {
		extremum = s.LowestPrice
	}
	if !s.TP1Hit && crossed(s.IsLong(), extremum, s.TakeProfit1) {
		markHit(&s.TP1Hit, &s.TP1HitAt, now)
	}
	if !s.TP2Hit && crossed(s.IsLong(), extremum, s.TakeProfit2) {
		markHit(&s.TP2Hit, &s.TP2HitAt, now)
	}
	if !s.TP3Hit && crossed(s.IsLong(), extremum, s.TakeProfit3) {
		markHit(&s.TP3Hit, &s.TP3HitAt, now)
	}
}

func markHit(flag *bool, at **time.Time, now time.Time) {
	if *flag {
		return
	}
	*flag = true
	t := now
	*at = &t
}

// crossed 多头看是否>=目标，空头看是否<=目标
func crossed(isLong bool, extremum, level float64) bool {
	if isLong {
		return extremum >= level
	}
	return extremum <= level
}

// stopCrossed 止损方向与止盈相反：多头看最低价，空头看最高价
func stopCrossed(s *model.Signal) bool {
	if s.IsLong() {
		return s.LowestPrice <= s.StopLoss
	}
	return s.HighestPrice >= s.StopLoss
}

// priceCrossed 用单一价格判断穿越，toward=true表示盈利方向
func priceCrossed(s *model.Signal, price, level float64, toward bool) bool {
	if s.IsLong() == toward {
		return price >= level
	}
	return price <= level
}
