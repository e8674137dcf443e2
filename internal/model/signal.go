package model

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
)

// Direction 信号方向
type Direction string

const (
	DirectionLong  Direction = "LONG"  // 做多（现货为买入）
	DirectionShort Direction = "SHORT" // 做空（仅合约）
)

// MarketKind 市场类型
type MarketKind string

const (
	MarketSpot MarketKind = "spot"
	MarketSwap MarketKind = "swap"
)

// Status 信号生命周期状态
// ACTIVE是唯一可变状态，COMPLETED/STOPPED均为终态
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusStopped   Status = "STOPPED"
)

// Signal 最终推送到前端的交易信号
// 由打分引擎生成，监控循环负责推进其生命周期
type Signal struct {
	ID         string     `json:"signal_id" validate:"required"`
	Symbol     string     `json:"symbol" validate:"required"`
	Category   string     `json:"category" validate:"required"`
	MarketKind MarketKind `json:"market_kind" validate:"required,oneof=spot swap"`
	Venue      string     `json:"venue"`
	Direction  Direction  `json:"direction" validate:"required,oneof=LONG SHORT"`

	// 价格阶梯：入场、止损、三档止盈
	// 新生成的信号必须完整；老数据缺失的字段由Normalize补齐
	EntryPrice  float64 `json:"entry_price" validate:"required,gt=0"`
	StopLoss    float64 `json:"stop_loss" validate:"required,gt=0"`
	TakeProfit1 float64 `json:"take_profit_1"`
	TakeProfit2 float64 `json:"take_profit_2"`
	TakeProfit3 float64 `json:"take_profit_3"`

	CurrentPrice float64 `json:"current_price"`
	HighestPrice float64 `json:"highest_price"` // 入场以来的最高价
	LowestPrice  float64 `json:"lowest_price"`  // 入场以来的最低价

	// 止盈命中标记：单调，置true后不再复位
	TP1Hit   bool       `json:"tp1_hit"`
	TP2Hit   bool       `json:"tp2_hit"`
	TP3Hit   bool       `json:"tp3_hit"`
	TP1HitAt *time.Time `json:"tp1_hit_at,omitempty"`
	TP2HitAt *time.Time `json:"tp2_hit_at,omitempty"`
	TP3HitAt *time.Time `json:"tp3_hit_at,omitempty"`

	Status Status `json:"status" validate:"required,oneof=ACTIVE COMPLETED STOPPED"`

	Confidence float64  `json:"confidence" validate:"gte=0,lte=100"` // 综合置信度 0-100
	RiskScore  float64  `json:"risk_score"`
	Rationale  []string `json:"rationale"` // 触发的打分规则，用于前端展示依据
	TimeFrame  string   `json:"time_frame"`

	ExpiryAt    time.Time  `json:"expiry_at"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// 带符号的盈亏百分比，ACTIVE时按当前价计算，归档时按实际触达的止盈档计算
	PnlPct float64 `json:"pnl_pct"`
}

// IsLong 是否多头方向
func (s *Signal) IsLong() bool {
	return s.Direction == DirectionLong
}

// Terminal 是否已进入终态
func (s *Signal) Terminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusStopped
}

// PnlPctAt 计算给定价格下的带符号盈亏百分比
// 多头为 (price-entry)/entry*100，空头取反
func (s *Signal) PnlPctAt(price float64) float64 {
	if s.EntryPrice == 0 {
		return 0
	}
	pct := (price - s.EntryPrice) / s.EntryPrice * 100
	if !s.IsLong() {
		pct = -pct
	}
	return pct
}

// RealizedPrice 归档时用于结算盈亏的价格
// TP3命中用TP3价，否则TP2命中用TP2价，止损用止损价，过期用当前价
func (s *Signal) RealizedPrice() float64 {
	switch {
	case s.Status == StatusStopped:
		return s.StopLoss
	case s.TP3Hit:
		return s.TakeProfit3
	case s.TP2Hit:
		return s.TakeProfit2
	default:
		return s.CurrentPrice
	}
}

var (
	validate = validator.New()

	nodeOnce sync.Once
	idNode   *snowflake.Node
)

// NewSignalID 生成唯一信号ID
func NewSignalID() string {
	nodeOnce.Do(func() {
		var err error
		idNode, err = snowflake.NewNode(1)
		if err != nil {
			panic(err)
		}
	})
	return idNode.Generate().String()
}

// Validate 校验信号的完整性和价格阶梯不变量
// 阶梯顺序错误属于程序缺陷，必须在测试阶段暴露
func (s *Signal) Validate() error {
	if err := validate.Struct(s); err != nil {
		return err
	}
	if s.IsLong() {
		if !(s.StopLoss < s.EntryPrice) {
			return fmt.Errorf("signal %s: long stop loss %.8f must be below entry %.8f", s.ID, s.StopLoss, s.EntryPrice)
		}
		if !(s.EntryPrice < s.TakeProfit1 && s.TakeProfit1 < s.TakeProfit2 && s.TakeProfit2 < s.TakeProfit3) {
			return fmt.Errorf("signal %s: long TP ladder out of order: %.8f/%.8f/%.8f", s.ID, s.TakeProfit1, s.TakeProfit2, s.TakeProfit3)
		}
	} else {
		if !(s.StopLoss > s.EntryPrice) {
			return fmt.Errorf("signal %s: short stop loss %.8f must be above entry %.8f", s.ID, s.StopLoss, s.EntryPrice)
		}
		if !(s.EntryPrice > s.TakeProfit1 && s.TakeProfit1 > s.TakeProfit2 && s.TakeProfit2 > s.TakeProfit3) {
			return fmt.Errorf("signal %s: short TP ladder out of order: %.8f/%.8f/%.8f", s.ID, s.TakeProfit1, s.TakeProfit2, s.TakeProfit3)
		}
	}
	return nil
}

// Normalize 在存储边界上修复老格式的信号记录
// 老数据中三档止盈可能缺失，这里统一补齐，无法修复的返回错误由调用方跳过
func (s *Signal) Normalize() error {
	if s.ID == "" {
		// 极老的记录没有id，用时间戳兜底生成，保证归档去重有依据
		s.ID = strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	if s.EntryPrice <= 0 {
		return fmt.Errorf("signal %s: entry price missing", s.ID)
	}
	if s.Direction == "" {
		s.Direction = DirectionLong
	}
	if s.MarketKind == "" {
		s.MarketKind = MarketSpot
	}
	if s.Status == "" {
		s.Status = StatusActive
	}
	if s.CurrentPrice == 0 {
		s.CurrentPrice = s.EntryPrice
	}
	// 极值初始为入场价
	if s.HighestPrice == 0 {
		s.HighestPrice = s.EntryPrice
	}
	if s.LowestPrice == 0 {
		s.LowestPrice = s.EntryPrice
	}
	// 老数据缺失止盈阶梯时，按止损距离对称补齐
	if s.TakeProfit1 == 0 || s.TakeProfit2 == 0 || s.TakeProfit3 == 0 {
		if s.StopLoss <= 0 {
			return fmt.Errorf("signal %s: cannot backfill TP ladder without stop loss", s.ID)
		}
		risk := s.EntryPrice - s.StopLoss
		if !s.IsLong() {
			risk = s.StopLoss - s.EntryPrice
		}
		if risk <= 0 {
			return fmt.Errorf("signal %s: stop loss on wrong side of entry", s.ID)
		}
		full := risk * 2 // 兜底按1:2盈亏比构造主目标
		sign := 1.0
		if !s.IsLong() {
			sign = -1.0
		}
		if s.TakeProfit1 == 0 {
			s.TakeProfit1 = s.EntryPrice + sign*full*0.25
		}
		if s.TakeProfit2 == 0 {
			s.TakeProfit2 = s.EntryPrice + sign*full*0.65
		}
		if s.TakeProfit3 == 0 {
			s.TakeProfit3 = s.EntryPrice + sign*full*0.85
		}
	}
	return s.Validate()
}

// AutoGenPrefs 自动生成偏好，按分类保存
type AutoGenPrefs struct {
	Enabled   bool      `json:"enabled"`
	LastRunAt time.Time `json:"last_run_at"`
}

// SignalEvent 推送给通知渠道的事件
type SignalEvent struct {
	Type      string    `json:"type"` // completed / stopped / generated
	Category  string    `json:"category"`
	Symbol    string    `json:"symbol"`
	SignalID  string    `json:"signal_id"`
	PnlPct    float64   `json:"pnl_pct"`
	Count     int       `json:"count,omitempty"` // generated批次的信号数量
	Timestamp time.Time `json:"timestamp"`
}
