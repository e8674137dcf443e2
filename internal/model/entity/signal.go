package entity

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/plugin/soft_delete"
)

// CompletedSignal 已完结信号的归档记录，用于复盘和胜率统计
// 归档后只读，除软删除标记外不再修改
type CompletedSignal struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"`

	SignalID string `gorm:"column:signal_id;type:varchar(32);not null;uniqueIndex:uk_signal_id"`
	Symbol   string `gorm:"type:varchar(30);not null;index:idx_symbol_status"`
	Category string `gorm:"type:varchar(20);not null;index:idx_category"`

	Direction  string `gorm:"type:varchar(10);not null"` // LONG/SHORT
	MarketKind string `gorm:"column:market_kind;type:varchar(10);not null"`
	Status     string `gorm:"type:varchar(10);not null;index:idx_symbol_status"` // COMPLETED/STOPPED

	EntryPrice  float64 `gorm:"column:entry_price;type:decimal(15,8)"`
	StopLoss    float64 `gorm:"column:stop_loss;type:decimal(15,8)"`
	TakeProfit1 float64 `gorm:"column:take_profit_1;type:decimal(15,8)"`
	TakeProfit2 float64 `gorm:"column:take_profit_2;type:decimal(15,8)"`
	TakeProfit3 float64 `gorm:"column:take_profit_3;type:decimal(15,8)"`

	TP1Hit bool `gorm:"column:tp1_hit"`
	TP2Hit bool `gorm:"column:tp2_hit"`
	TP3Hit bool `gorm:"column:tp3_hit"`

	Confidence float64 `gorm:"type:decimal(5,2)"`

	// 最终盈亏百分比 (例如 6.5 或 -3.0)
	FinalPnlPct float64 `gorm:"column:final_pnl_pct;type:decimal(10,4);not null"`

	// 触发的打分规则快照
	Rationale datatypes.JSON `gorm:"column:rationale_json;type:json"`

	CreatedAt   time.Time `gorm:"column:created_at"`
	CompletedAt time.Time `gorm:"column:completed_at;type:timestamp;not null;index:idx_completed_at"`

	IsDeleted soft_delete.DeletedAt `gorm:"column:is_deleted;softDelete:flag"`
}

// TableName 指定 GORM 使用的表名
func (CompletedSignal) TableName() string {
	return "completed_signals"
}

// PerformanceSummary 聚合了给定交易对的关键绩效指标
type PerformanceSummary struct {
	WinRate            float64 `gorm:"column:win_rate" json:"win_rate"`                         // 胜率 (0-100%)
	TotalPnL           float64 `gorm:"column:total_pnl" json:"total_pnl"`                       // 总收益率 (累加的 FinalPnlPct)
	TotalClosedSignals int64   `gorm:"column:total_closed_signals" json:"total_closed_signals"` // 已完结信号总数
}
