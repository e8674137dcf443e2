package store

import (
	"context"
	"signalflow/internal/model"
	"time"
)

// SignalStore 信号存储的统一入口
// 活跃信号按分类分区，每个分区整体替换；完结信号进入归档列表，按id去重
type SignalStore interface {
	// GetActive 读取单个分类下的活跃信号
	GetActive(ctx context.Context, category string) ([]model.Signal, error)
	// GetAllActive 读取全部分类的活跃信号，key为分类名
	GetAllActive(ctx context.Context) (map[string][]model.Signal, error)
	// ReplaceActive 整体替换一个分类的活跃信号，不影响其他分类
	ReplaceActive(ctx context.Context, category string, signals []model.Signal) error
	// Upsert 按id更新（或追加）单个活跃信号
	Upsert(ctx context.Context, signal model.Signal) error

	// Archive 把终态信号从活跃分区移入归档列表
	// 归档按id去重：已存在的记录保持不变（先写入者优先）
	Archive(ctx context.Context, signal model.Signal) error
	// Completed 读取全部归档信号，新的在前
	Completed(ctx context.Context) ([]model.Signal, error)
	// ClearExpired 清理归档中完结时间早于maxAge的记录，返回清理数量
	ClearExpired(ctx context.Context, maxAge time.Duration) (int, error)

	// 自动生成偏好，按分类保存
	GetAutoGenPrefs(ctx context.Context, category string) (model.AutoGenPrefs, error)
	SetAutoGenPrefs(ctx context.Context, category string, prefs model.AutoGenPrefs) error
}
