package service

import (
	"context"
	"signalflow/internal/autogen"
	"signalflow/internal/consts"
	"signalflow/internal/dao"
	"signalflow/internal/model"
	"signalflow/internal/model/entity"
	"signalflow/internal/store"
	"signalflow/pkg/errors"
	"signalflow/pkg/errors/ecode"
)

// SignalService 信号相关的业务编排，给handler层调用
type SignalService struct {
	store     store.SignalStore
	generator *autogen.Generator
	archive   dao.ArchiveDao // 数据库未配置时为nil
}

func NewSignalService(st store.SignalStore, gen *autogen.Generator, archive dao.ArchiveDao) *SignalService {
	return &SignalService{store: st, generator: gen, archive: archive}
}

// ActiveList 查询活跃信号，category为空时返回全部分类
func (s *SignalService) ActiveList(ctx context.Context, category string) (map[string][]model.Signal, error) {
	if category == "" {
		out, err := s.store.GetAllActive(ctx)
		if err != nil {
			return nil, errors.Wrap(ecode.StoreUnavailable, err)
		}
		return out, nil
	}
	if !consts.IsValidCategory(category) {
		return nil, errors.Newf(ecode.CategoryInvalid, "未知的信号分类: %s", category)
	}
	signals, err := s.store.GetActive(ctx, category)
	if err != nil {
		return nil, errors.Wrap(ecode.StoreUnavailable, err)
	}
	return map[string][]model.Signal{category: signals}, nil
}

// CompletedList 已完结信号，新的在前
func (s *SignalService) CompletedList(ctx context.Context, limit int) ([]model.Signal, error) {
	signals, err := s.store.Completed(ctx)
	if err != nil {
		return nil, errors.Wrap(ecode.StoreUnavailable, err)
	}
	if limit > 0 && len(signals) > limit {
		signals = signals[:limit]
	}
	return signals, nil
}

// Generate 手动触发一次生成
func (s *SignalService) Generate(ctx context.Context, category string) (int, error) {
	if !consts.IsValidCategory(category) {
		return 0, errors.Newf(ecode.CategoryInvalid, "未知的信号分类: %s", category)
	}
	n, err := s.generator.GenerateOnce(ctx, category)
	if err != nil {
		return 0, errors.Wrap(ecode.GenerationFailed, err)
	}
	return n, nil
}

// GetAutoGen 查询某个分类的自动生成偏好
func (s *SignalService) GetAutoGen(ctx context.Context, category string) (model.AutoGenPrefs, error) {
	if !consts.IsValidCategory(category) {
		return model.AutoGenPrefs{}, errors.Newf(ecode.CategoryInvalid, "未知的信号分类: %s", category)
	}
	prefs, err := s.store.GetAutoGenPrefs(ctx, category)
	if err != nil {
		return model.AutoGenPrefs{}, errors.Wrap(ecode.StoreUnavailable, err)
	}
	return prefs, nil
}

// SetAutoGen 开关某个分类的自动生成，开关的同时启停对应的定时器
func (s *SignalService) SetAutoGen(ctx context.Context, category string, enabled bool) error {
	if !consts.IsValidCategory(category) {
		return errors.Newf(ecode.CategoryInvalid, "未知的信号分类: %s", category)
	}
	prefs, err := s.store.GetAutoGenPrefs(ctx, category)
	if err != nil {
		return errors.Wrap(ecode.StoreUnavailable, err)
	}
	prefs.Enabled = enabled
	if err := s.store.SetAutoGenPrefs(ctx, category, prefs); err != nil {
		return errors.Wrap(ecode.StoreUnavailable, err)
	}
	if enabled {
		s.generator.StartCategory(category)
	} else {
		s.generator.StopCategory(category)
	}
	return nil
}

// Performance 某个交易对的历史绩效汇总
func (s *SignalService) Performance(ctx context.Context, symbol string) (*entity.PerformanceSummary, error) {
	if s.archive == nil {
		return nil, errors.Newf(ecode.StoreUnavailable, "数据库归档未启用")
	}
	summary, err := s.archive.GetSymbolPerformanceSummary(ctx, symbol)
	if err != nil {
		return nil, errors.Wrap(ecode.StoreUnavailable, err)
	}
	return summary, nil
}

// History 数据库归档记录，按交易对或分类查询
func (s *SignalService) History(ctx context.Context, symbol, category string, limit int) ([]entity.CompletedSignal, error) {
	if s.archive == nil {
		return nil, errors.Newf(ecode.StoreUnavailable, "数据库归档未启用")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if symbol != "" {
		list, err := s.archive.GetCompletedBySymbol(ctx, symbol, limit)
		if err != nil {
			return nil, errors.Wrap(ecode.StoreUnavailable, err)
		}
		return list, nil
	}
	if !consts.IsValidCategory(category) {
		return nil, errors.Newf(ecode.CategoryInvalid, "未知的信号分类: %s", category)
	}
	list, err := s.archive.GetCompletedByCategory(ctx, category, limit)
	if err != nil {
		return nil, errors.Wrap(ecode.StoreUnavailable, err)
	}
	return list, nil
}

// Snapshot 全部活跃信号的快照，供websocket广播
func (s *SignalService) Snapshot(ctx context.Context) ([]model.Signal, error) {
	all, err := s.store.GetAllActive(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.Signal
	for _, c := range consts.Categories {
		out = append(out, all[c]...)
	}
	return out, nil
}
