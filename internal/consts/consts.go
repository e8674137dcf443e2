package consts

import "time"

const (
	// RequestId 请求id名称
	RequestId = "request_id"

	// redis 中各个分区的 key
	// 活跃信号按分类分key存储，整体替换，互不影响
	ActiveSignalPrefix = "Signal_Active_list:"
	CompletedSignalKey = "Signal_Completed_list"
	AutoGenPrefsKey    = "Signal_AutoGen_prefs"

	// 默认redis过期时间
	RedisExrDefault = time.Hour * 24 * 5
)

const (
	DateLayout   = "2006-01-02"
	TimeLayout   = "2006-01-02 15:04:05"
	TimeLayoutMs = "2006-01-02 15:04:05.000"
)

// 信号分类：不同的生成画像，存储和调度相互独立
const (
	CategoryStandard = "standard" // 标准周期
	CategoryFast     = "fast"     // 快速短线
	CategoryFlow     = "flow"     // 资金流驱动
)

// Categories 所有合法分类，按固定顺序遍历
var Categories = []string{CategoryStandard, CategoryFast, CategoryFlow}

// IsValidCategory 校验分类名
func IsValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// kafka 通知主题
const (
	KafkaTopicSignalEvents = "signal_events"
)
