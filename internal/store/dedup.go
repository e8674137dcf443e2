package store

import "signalflow/internal/model"

// dedupById 按id去重，保留首次出现的记录
// 活跃分区和归档列表在读写边界上都要过一遍，容忍并发写入产生的重复
func dedupById(signals []model.Signal) []model.Signal {
	if len(signals) < 2 {
		return signals
	}
	seen := make(map[string]struct{}, len(signals))
	out := signals[:0]
	for _, s := range signals {
		if _, ok := seen[s.ID]; ok {
			continue
		}
		seen[s.ID] = struct{}{}
		out = append(out, s)
	}
	return out
}
