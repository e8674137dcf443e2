package store

import (
	"context"
	"signalflow/internal/consts"
	"signalflow/internal/model"
	"signalflow/pkg/logger"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
)

// RedisStore 基于redis的信号存储
// 每个活跃分类一个key，值是整份JSON数组，替换时一次性写入
// 归档列表单独一个key，只追加不修改
type RedisStore struct {
	rc *redis.Client
}

func NewRedisStore(rc *redis.Client) *RedisStore {
	return &RedisStore{rc: rc}
}

func activeKey(category string) string {
	return consts.ActiveSignalPrefix + category
}

// loadList 读取并反序列化一个信号列表key
// 单条解析或修复失败只跳过该条并记日志，不让整个分区不可用
func (r *RedisStore) loadList(ctx context.Context, key string) ([]model.Signal, error) {
	val, err := r.rc.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(val), &raw); err != nil {
		logger.Errorf("RedisStore 信号列表损坏 key=%s: %v", key, err)
		return nil, nil
	}

	signals := make([]model.Signal, 0, len(raw))
	for _, item := range raw {
		var s model.Signal
		if err := json.Unmarshal(item, &s); err != nil {
			logger.Errorf("RedisStore 跳过无法解析的信号 key=%s: %v", key, err)
			continue
		}
		// 存储边界上统一修复老格式
		if err := s.Normalize(); err != nil {
			logger.Errorf("RedisStore 跳过无法修复的信号 key=%s id=%s: %v", key, s.ID, err)
			continue
		}
		signals = append(signals, s)
	}
	return dedupById(signals), nil
}

func (r *RedisStore) saveList(ctx context.Context, key string, signals []model.Signal, ttl time.Duration) error {
	if signals == nil {
		signals = []model.Signal{}
	}
	data, err := json.Marshal(signals)
	if err != nil {
		return err
	}
	return r.rc.Set(ctx, key, data, ttl).Err()
}

func (r *RedisStore) GetActive(ctx context.Context, category string) ([]model.Signal, error) {
	return r.loadList(ctx, activeKey(category))
}

func (r *RedisStore) GetAllActive(ctx context.Context) (map[string][]model.Signal, error) {
	out := make(map[string][]model.Signal, len(consts.Categories))
	for _, c := range consts.Categories {
		signals, err := r.loadList(ctx, activeKey(c))
		if err != nil {
			return nil, err
		}
		out[c] = signals
	}
	return out, nil
}

func (r *RedisStore) ReplaceActive(ctx context.Context, category string, signals []model.Signal) error {
	return r.saveList(ctx, activeKey(category), dedupById(signals), 0)
}

func (r *RedisStore) Upsert(ctx context.Context, signal model.Signal) error {
	key := activeKey(signal.Category)
	signals, err := r.loadList(ctx, key)
	if err != nil {
		return err
	}
	found := false
	for i := range signals {
		if signals[i].ID == signal.ID {
			signals[i] = signal
			found = true
			break
		}
	}
	if !found {
		signals = append(signals, signal)
	}
	return r.saveList(ctx, key, signals, 0)
}

func (r *RedisStore) Archive(ctx context.Context, signal model.Signal) error {
	// 先从活跃分区移除
	key := activeKey(signal.Category)
	actives, err := r.loadList(ctx, key)
	if err != nil {
		return err
	}
	kept := actives[:0]
	for _, s := range actives {
		if s.ID != signal.ID {
			kept = append(kept, s)
		}
	}
	if err := r.saveList(ctx, key, kept, 0); err != nil {
		return err
	}

	// 再写入归档，id已存在时保持原记录不变
	// 归档key带默认过期时间兜底，长期留存靠数据库归档
	completed, err := r.loadList(ctx, consts.CompletedSignalKey)
	if err != nil {
		return err
	}
	for _, s := range completed {
		if s.ID == signal.ID {
			return nil
		}
	}
	completed = append([]model.Signal{signal}, completed...)
	return r.saveList(ctx, consts.CompletedSignalKey, completed, consts.RedisExrDefault)
}

func (r *RedisStore) Completed(ctx context.Context) ([]model.Signal, error) {
	return r.loadList(ctx, consts.CompletedSignalKey)
}

func (r *RedisStore) ClearExpired(ctx context.Context, maxAge time.Duration) (int, error) {
	completed, err := r.loadList(ctx, consts.CompletedSignalKey)
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-maxAge)
	kept := make([]model.Signal, 0, len(completed))
	for _, s := range completed {
		ts := s.CreatedAt
		if s.CompletedAt != nil {
			ts = *s.CompletedAt
		}
		if ts.After(cutoff) {
			kept = append(kept, s)
		}
	}
	removed := len(completed) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := r.saveList(ctx, consts.CompletedSignalKey, kept, consts.RedisExrDefault); err != nil {
		return 0, err
	}
	return removed, nil
}

func (r *RedisStore) GetAutoGenPrefs(ctx context.Context, category string) (model.AutoGenPrefs, error) {
	val, err := r.rc.HGet(ctx, consts.AutoGenPrefsKey, category).Result()
	if err == redis.Nil {
		return model.AutoGenPrefs{}, nil
	}
	if err != nil {
		return model.AutoGenPrefs{}, err
	}
	var prefs model.AutoGenPrefs
	if err := json.Unmarshal([]byte(val), &prefs); err != nil {
		logger.Errorf("RedisStore 自动生成偏好损坏 category=%s: %v", category, err)
		return model.AutoGenPrefs{}, nil
	}
	return prefs, nil
}

func (r *RedisStore) SetAutoGenPrefs(ctx context.Context, category string, prefs model.AutoGenPrefs) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return err
	}
	return r.rc.HSet(ctx, consts.AutoGenPrefsKey, category, data).Err()
}
