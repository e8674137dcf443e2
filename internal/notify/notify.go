package notify

import (
	"context"
	"signalflow/internal/model"
)

// Notifier 信号事件的出口，监控和自动生成在状态变更时调用
// 通知失败不影响主流程，实现方自己记日志
type Notifier interface {
	Publish(ctx context.Context, event model.SignalEvent) error
	Close()
}

// 事件类型
const (
	EventGenerated = "generated"
	EventCompleted = "completed"
	EventStopped   = "stopped"
)

// NopNotifier 空实现，kafka未配置时使用
type NopNotifier struct{}

func (NopNotifier) Publish(context.Context, model.SignalEvent) error { return nil }
func (NopNotifier) Close()                                           {}
