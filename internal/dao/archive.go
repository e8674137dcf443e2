package dao

import (
	"context"
	"errors"
	"signalflow/internal/model"
	"signalflow/internal/model/entity"
	"time"

	"github.com/goccy/go-json"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ArchiveDao 完结信号的数据库归档，redis归档列表之外的长期存档
type ArchiveDao interface {
	// 保存一条完结信号，signal_id冲突时忽略（先写入者优先）
	SaveCompletedSignal(ctx context.Context, signal *model.Signal) error
	// 查询某个交易对的完结信号，按完结时间倒序
	GetCompletedBySymbol(ctx context.Context, symbol string, limit int) ([]entity.CompletedSignal, error)
	// 查询某个分类的完结信号
	GetCompletedByCategory(ctx context.Context, category string, limit int) ([]entity.CompletedSignal, error)
	// 一次查询聚合某个交易对的胜率、总收益率和完结次数
	GetSymbolPerformanceSummary(ctx context.Context, symbol string) (*entity.PerformanceSummary, error)
}

type archiveDao struct {
	db *gorm.DB
}

func NewArchiveDao(db *gorm.DB) ArchiveDao {
	return &archiveDao{db: db}
}

func (d *archiveDao) SaveCompletedSignal(ctx context.Context, signal *model.Signal) error {
	rationale, err := json.Marshal(signal.Rationale)
	if err != nil {
		return err
	}
	completedAt := time.Now()
	if signal.CompletedAt != nil {
		completedAt = *signal.CompletedAt
	}
	rec := entity.CompletedSignal{
		SignalID:    signal.ID,
		Symbol:      signal.Symbol,
		Category:    signal.Category,
		Direction:   string(signal.Direction),
		MarketKind:  string(signal.MarketKind),
		Status:      string(signal.Status),
		EntryPrice:  signal.EntryPrice,
		StopLoss:    signal.StopLoss,
		TakeProfit1: signal.TakeProfit1,
		TakeProfit2: signal.TakeProfit2,
		TakeProfit3: signal.TakeProfit3,
		TP1Hit:      signal.TP1Hit,
		TP2Hit:      signal.TP2Hit,
		TP3Hit:      signal.TP3Hit,
		Confidence:  signal.Confidence,
		FinalPnlPct: signal.PnlPct,
		Rationale:   datatypes.JSON(rationale),
		CreatedAt:   signal.CreatedAt,
		CompletedAt: completedAt,
	}
	// signal_id 唯一索引冲突时直接忽略，保证重复归档不覆盖首次结果
	return d.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rec).Error
}

func (d *archiveDao) GetCompletedBySymbol(ctx context.Context, symbol string, limit int) ([]entity.CompletedSignal, error) {
	var list []entity.CompletedSignal
	err := d.db.WithContext(ctx).Model(&entity.CompletedSignal{}).
		Where("symbol = ?", symbol).
		Order("completed_at DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (d *archiveDao) GetCompletedByCategory(ctx context.Context, category string, limit int) ([]entity.CompletedSignal, error) {
	var list []entity.CompletedSignal
	err := d.db.WithContext(ctx).Model(&entity.CompletedSignal{}).
		Where("category = ?", category).
		Order("completed_at DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (d *archiveDao) GetSymbolPerformanceSummary(ctx context.Context, symbol string) (*entity.PerformanceSummary, error) {
	var summary entity.PerformanceSummary
	err := d.db.WithContext(ctx).Model(&entity.CompletedSignal{}).
		Select(`
			COALESCE(SUM(CASE WHEN final_pnl_pct > 0 THEN 1 ELSE 0 END) * 100.0 / COUNT(*), 0) AS win_rate,
			COALESCE(SUM(final_pnl_pct), 0) AS total_pnl,
			COUNT(*) AS total_closed_signals`).
		Where("symbol = ?", symbol).
		Scan(&summary).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &entity.PerformanceSummary{}, nil
		}
		return nil, err
	}
	return &summary, nil
}
