package notify

import (
	"context"
	"signalflow/internal/consts"
	"signalflow/internal/model"
	"signalflow/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
)

// KafkaNotifier 把信号事件写入kafka，下游推送服务消费
// 按symbol做key，同一币种的事件进同一个partition保证有序
type KafkaNotifier struct {
	writer *kafka.Writer
}

func NewKafkaNotifier(brokerURL string) *KafkaNotifier {
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokerURL),
			Topic:    consts.KafkaTopicSignalEvents,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (n *KafkaNotifier) Publish(ctx context.Context, event model.SignalEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	err = n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Symbol),
		Value: data,
	})
	if err != nil {
		logger.Errorf("KafkaNotifier 事件写入失败 type=%s symbol=%s: %v", event.Type, event.Symbol, err)
	}
	return err
}

func (n *KafkaNotifier) Close() {
	if err := n.writer.Close(); err != nil {
		logger.Errorf("KafkaNotifier 关闭失败: %v", err)
	}
}
