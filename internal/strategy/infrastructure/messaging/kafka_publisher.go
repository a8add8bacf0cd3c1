// Package messaging 策略事件发布
package messaging

import (
	"context"

	"github.com/wyfcoding/optionstrategy/internal/strategy/domain"
)

// Producer 消息生产者，由 mq.KafkaProducer 实现
type Producer interface {
	SendMessage(ctx context.Context, topic, key string, value any) error
}

// KafkaEventPublisher 将策略计算事件写入 Kafka，以标的代码为分区键
type KafkaEventPublisher struct {
	producer Producer
	topic    string
}

// NewKafkaEventPublisher 创建事件发布者
func NewKafkaEventPublisher(producer Producer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

// PublishStrategyCalculated 发布策略计算完成事件
func (p *KafkaEventPublisher) PublishStrategyCalculated(ctx context.Context, event domain.StrategyCalculatedEvent) error {
	return p.producer.SendMessage(ctx, p.topic, event.Symbol, event)
}
