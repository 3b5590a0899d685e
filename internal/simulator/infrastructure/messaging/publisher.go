// Package messaging 领域事件发布
package messaging

import (
	"context"
	"fmt"

	"github.com/wyfcoding/simulatorcalc/internal/simulator/domain"
	"github.com/wyfcoding/simulatorcalc/pkg/mq"
)

// KafkaEventPublisher 事件类型即主题名，key 为指数，保证同一指数的事件有序
type KafkaEventPublisher struct {
	sender mq.Sender
	prefix string
}

var _ domain.EventPublisher = (*KafkaEventPublisher)(nil)

// NewKafkaEventPublisher prefix 可为空，非空时拼在主题前面，如 "prod."
func NewKafkaEventPublisher(sender mq.Sender, prefix string) *KafkaEventPublisher {
	return &KafkaEventPublisher{sender: sender, prefix: prefix}
}

// Publish 发布事件
func (p *KafkaEventPublisher) Publish(ctx context.Context, eventType string, key string, event any) error {
	topic := p.prefix + eventType
	if err := p.sender.SendMessage(ctx, topic, key, event); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// NoopEventPublisher 未配置 Kafka 时使用
type NoopEventPublisher struct{}

var _ domain.EventPublisher = NoopEventPublisher{}

func (NoopEventPublisher) Publish(context.Context, string, string, any) error { return nil }
