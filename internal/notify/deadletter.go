// server/internal/notify/deadletter.go
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"blood-donation-api-server/config"
	"blood-donation-api-server/internal/fulfillment"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// DeadLetterPublisher đẩy các sự kiện fanout thất bại lên một topic Kafka
// để vận hành viên phát hiện và replay. Đây là kênh lỗi có cấu trúc thay
// cho việc chỉ log ra console.
type DeadLetterPublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewDeadLetterPublisher trả về nil nếu không cấu hình broker nào;
// caller coi publisher nil là "tắt", chỉ còn log.
func NewDeadLetterPublisher(cfg config.NotifyConfig, logger *zap.Logger) *DeadLetterPublisher {
	if len(cfg.Brokers) == 0 || cfg.DeadLetterTopic == "" {
		return nil
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.DeadLetterTopic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &DeadLetterPublisher{writer: writer, logger: logger}
}

// Publish gửi một FanoutFailure dưới dạng JSON, key theo requestId để các
// lần retry của cùng một request nằm trên cùng partition.
func (p *DeadLetterPublisher) Publish(ctx context.Context, failure fulfillment.FanoutFailure) error {
	payload, err := json.Marshal(failure)
	if err != nil {
		return fmt.Errorf("failed to marshal fanout failure: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(failure.RequestID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("failed to write to dead-letter topic: %w", err)
	}

	p.logger.Warn("fanout failure published to dead-letter topic",
		zap.String("requestId", failure.RequestID),
		zap.String("reason", failure.Reason))
	return nil
}

func (p *DeadLetterPublisher) Close() error {
	return p.writer.Close()
}
