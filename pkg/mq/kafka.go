// Package mq Kafka 生产者、消费者与死信队列，消息头携带 trace_id
package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/wyfcoding/simulatorcalc/pkg/logger"
)

// TraceIDHeader 消息头中的 trace ID
const TraceIDHeader = "trace_id"

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	Brokers        []string
	GroupID        string
	SessionTimeout int // 秒
	MaxRetries     int
	RetryBackoff   int // 毫秒
}

// Sender 发送端，*KafkaProducer 实现了它
type Sender interface {
	SendMessage(ctx context.Context, topic string, key string, value any) error
}

// KafkaProducer Kafka 生产者
type KafkaProducer struct {
	writer *kafka.Writer
}

// NewProducer 创建生产者，按 key 哈希分区保证同一指数有序
func NewProducer(cfg KafkaConfig) (*KafkaProducer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}

	backoff := time.Duration(cfg.RetryBackoff) * time.Millisecond
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		Compression:            kafka.Snappy,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            cfg.MaxRetries,
		WriteBackoffMin:        backoff,
		WriteBackoffMax:        10 * backoff,
	}

	logger.Info(context.Background(), "kafka producer ready", "brokers", cfg.Brokers)
	return &KafkaProducer{writer: writer}, nil
}

// SendMessage JSON 编码后同步写入
func (kp *KafkaProducer) SendMessage(ctx context.Context, topic string, key string, value any) error {
	msg, err := encode(ctx, topic, key, value)
	if err != nil {
		return err
	}

	if err := kp.writer.WriteMessages(ctx, msg); err != nil {
		logger.Error(ctx, "kafka write failed", "topic", topic, "key", key, "error", err)
		return fmt.Errorf("write %s: %w", topic, err)
	}
	logger.Debug(ctx, "kafka message sent", "topic", topic, "key", key)
	return nil
}

func encode(ctx context.Context, topic, key string, value any) (kafka.Message, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal message for %s: %w", topic, err)
	}
	msg := kafka.Message{Topic: topic, Key: []byte(key), Value: data}
	if id := logger.TraceID(ctx); id != "" {
		msg.Headers = append(msg.Headers, kafka.Header{Key: TraceIDHeader, Value: []byte(id)})
	}
	return msg, nil
}

// Close 刷新缓冲并关闭
func (kp *KafkaProducer) Close() error {
	return kp.writer.Close()
}

// KafkaConsumer 消费组模式的消费者
type KafkaConsumer struct {
	reader *kafka.Reader
}

// NewConsumer 创建消费者，新消费组从最早偏移开始
func NewConsumer(cfg KafkaConfig, topic string) (*KafkaConsumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          topic,
		GroupID:        cfg.GroupID,
		SessionTimeout: time.Duration(cfg.SessionTimeout) * time.Second,
		CommitInterval: time.Second,
		StartOffset:    kafka.FirstOffset,
		MaxBytes:       1 << 20,
	})

	logger.Info(context.Background(), "kafka consumer ready", "topic", topic, "group_id", cfg.GroupID)
	return &KafkaConsumer{reader: reader}, nil
}

// ReadMessage 阻塞读取一条消息，偏移量由消费组定时提交
func (kc *KafkaConsumer) ReadMessage(ctx context.Context) (*Message, error) {
	msg, err := kc.reader.ReadMessage(ctx)
	if err != nil {
		return nil, err
	}
	return fromKafka(msg), nil
}

func fromKafka(msg kafka.Message) *Message {
	m := &Message{
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Key:       string(msg.Key),
		Value:     msg.Value,
		Time:      msg.Time,
	}
	for _, h := range msg.Headers {
		if h.Key == TraceIDHeader {
			m.TraceID = string(h.Value)
		}
	}
	return m
}

// Close 离开消费组
func (kc *KafkaConsumer) Close() error {
	return kc.reader.Close()
}

// Message 消费到的消息
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       string
	Value     []byte
	Time      time.Time
	TraceID   string
}

// UnmarshalPayload 解析 JSON 消息体
func (m *Message) UnmarshalPayload(dest any) error {
	return json.Unmarshal(m.Value, dest)
}

// Context 把上游 trace_id 带入 ctx
func (m *Message) Context(ctx context.Context) context.Context {
	if m.TraceID == "" {
		return ctx
	}
	return logger.ContextWithTraceID(ctx, m.TraceID)
}

// DeadLetter 死信消息体
type DeadLetter struct {
	OriginalTopic  string    `json:"original_topic"`
	OriginalKey    string    `json:"original_key"`
	OriginalValue  string    `json:"original_value"`
	OriginalOffset int64     `json:"original_offset"`
	OriginalTime   time.Time `json:"original_time"`
	Reason         string    `json:"failure_reason"`
	Error          string    `json:"failure_error,omitempty"`
	FailedAt       time.Time `json:"failure_timestamp"`
}

// DeadLetterQueue 死信队列
type DeadLetterQueue struct {
	producer Sender
	topic    string
}

// NewDeadLetterQueue 创建死信队列
func NewDeadLetterQueue(producer Sender, topic string) *DeadLetterQueue {
	return &DeadLetterQueue{producer: producer, topic: topic}
}

// Send 原消息连同失败原因写入死信主题，key 不变
func (dlq *DeadLetterQueue) Send(ctx context.Context, original *Message, reason string, err error) error {
	letter := DeadLetter{
		OriginalTopic:  original.Topic,
		OriginalKey:    original.Key,
		OriginalValue:  string(original.Value),
		OriginalOffset: original.Offset,
		OriginalTime:   original.Time,
		Reason:         reason,
		FailedAt:       time.Now().UTC(),
	}
	if err != nil {
		letter.Error = err.Error()
	}
	return dlq.producer.SendMessage(ctx, dlq.topic, original.Key, letter)
}
