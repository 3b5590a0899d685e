// Package consumer 消费外部曲线发布（主题 ettj.curves）并导入
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wyfcoding/simulatorcalc/internal/simulator/application"
	"github.com/wyfcoding/simulatorcalc/internal/simulator/domain"
	"github.com/wyfcoding/simulatorcalc/pkg/mq"
	"github.com/wyfcoding/simulatorcalc/pkg/utils"
)

// CurvePublishedTopic 默认的上游曲线发布主题
const CurvePublishedTopic = "ettj.curves"

// CurveImporter 曲线导入
type CurveImporter interface {
	ImportCurve(ctx context.Context, cmd application.ImportCurveCommand) (*application.CurveDTO, error)
}

// MessageReader *mq.KafkaConsumer 实现了它
type MessageReader interface {
	ReadMessage(ctx context.Context) (*mq.Message, error)
}

// DeadLetterSender *mq.DeadLetterQueue 实现了它
type DeadLetterSender interface {
	Send(ctx context.Context, msg *mq.Message, reason string, err error) error
}

type curvePayload struct {
	Index         string              `json:"index"`
	ReferenceDate string              `json:"reference_date"`
	Points        []domain.CurvePoint `json:"points"`
}

// CurveHandler 曲线消息处理器。非法数据直接进死信，存储故障退避重试后进死信
type CurveHandler struct {
	importer     CurveImporter
	dlq          DeadLetterSender
	topic        string
	logger       *slog.Logger
	maxAttempts  int
	initialDelay time.Duration
	maxDelay     time.Duration
}

// NewCurveHandler 创建处理器，dlq 可为空
func NewCurveHandler(importer CurveImporter, dlq DeadLetterSender, logger *slog.Logger) *CurveHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CurveHandler{
		importer:     importer,
		dlq:          dlq,
		topic:        CurvePublishedTopic,
		logger:       logger,
		maxAttempts:  3,
		initialDelay: 200 * time.Millisecond,
		maxDelay:     2 * time.Second,
	}
}

// WithRetry 调整重试策略
func (h *CurveHandler) WithRetry(maxAttempts int, initialDelay, maxDelay time.Duration) *CurveHandler {
	h.maxAttempts = maxAttempts
	h.initialDelay = initialDelay
	h.maxDelay = maxDelay
	return h
}

// WithTopic 设置实际订阅的主题，仅用于日志
func (h *CurveHandler) WithTopic(topic string) *CurveHandler {
	if topic != "" {
		h.topic = topic
	}
	return h
}

// Handle 处理单条消息。返回错误仅表示死信也发送失败
func (h *CurveHandler) Handle(ctx context.Context, msg *mq.Message) error {
	ctx = msg.Context(ctx)
	cmd, err := decode(msg)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to decode curve message", "key", msg.Key, "offset", msg.Offset, "error", err)
		return h.deadLetter(ctx, msg, "decode", err)
	}

	err = utils.RetryWithBackoff(ctx, h.maxAttempts, h.initialDelay, h.maxDelay, isTransient, func() error {
		_, err := h.importer.ImportCurve(ctx, cmd)
		return err
	})
	if err != nil {
		reason := "import"
		if isTransient(err) {
			reason = "retries exhausted"
		}
		h.logger.ErrorContext(ctx, "failed to import curve", "index", cmd.Index, "reason", reason, "error", err)
		return h.deadLetter(ctx, msg, reason, err)
	}
	return nil
}

// Run 循环消费直到 ctx 取消
func (h *CurveHandler) Run(ctx context.Context, reader MessageReader) error {
	h.logger.InfoContext(ctx, "curve consumer started", "topic", h.topic)
	for {
		msg, err := reader.ReadMessage(ctx)
		if ctx.Err() != nil {
			h.logger.InfoContext(ctx, "curve consumer stopped", "topic", h.topic)
			return nil
		}
		if err != nil {
			h.logger.WarnContext(ctx, "curve consumer read failed", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		if err := h.Handle(ctx, msg); err != nil {
			h.logger.ErrorContext(ctx, "curve message dropped", "key", msg.Key, "offset", msg.Offset, "error", err)
		}
	}
}

func (h *CurveHandler) deadLetter(ctx context.Context, msg *mq.Message, reason string, cause error) error {
	if h.dlq == nil {
		return nil
	}
	if err := h.dlq.Send(ctx, msg, reason, cause); err != nil {
		return fmt.Errorf("send to dead letter queue: %w", err)
	}
	return nil
}

func decode(msg *mq.Message) (application.ImportCurveCommand, error) {
	var payload curvePayload
	if err := msg.UnmarshalPayload(&payload); err != nil {
		return application.ImportCurveCommand{}, err
	}
	if payload.Index == "" {
		payload.Index = msg.Key
	}

	refDate, err := time.Parse(time.DateOnly, payload.ReferenceDate)
	if err != nil {
		return application.ImportCurveCommand{}, fmt.Errorf("%w: reference_date %q", domain.ErrCurveData, payload.ReferenceDate)
	}

	return application.ImportCurveCommand{
		Index:         payload.Index,
		ReferenceDate: refDate,
		Points:        payload.Points,
		Source:        "kafka",
	}, nil
}

func isTransient(err error) bool {
	return !errors.Is(err, domain.ErrCurveData) &&
		!errors.Is(err, domain.ErrInvalidInput) &&
		!errors.Is(err, context.Canceled)
}
