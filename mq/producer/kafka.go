package producer

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Xushengqwer/gallery_service/config"
	"github.com/Xushengqwer/gallery_service/mq/events"
)

// messageWriter kafka.Writer 中被使用到的部分
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer Kafka 消息生产者
type KafkaProducer struct {
	writer messageWriter
	logger *zap.Logger
	topics config.Topics
}

// NewKafkaProducer 创建一个新的 Kafka 生产者实例
func NewKafkaProducer(cfg config.KafkaConfig, logger *zap.Logger) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaProducer{
		writer: writer,
		logger: logger,
		topics: cfg.Topics,
	}
}

// SendEvent 序列化事件为 JSON 并发送到指定主题；key 用于分区，同一作品的事件落在同一分区
func (p *KafkaProducer) SendEvent(ctx context.Context, topic string, key string, event interface{}) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("序列化 Kafka 事件失败", zap.Error(err), zap.String("topic", topic))
		return err
	}

	p.logger.Debug("发送 Kafka 消息",
		zap.String("topic", topic),
		zap.ByteString("payload", eventBytes))

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: eventBytes,
	})
	if err != nil {
		p.logger.Error("写入 Kafka 消息失败", zap.Error(err), zap.String("topic", topic))
	} else {
		p.logger.Info("成功发送 Kafka 消息", zap.String("topic", topic))
	}
	return err
}

// PublishSubmissionPendingReview 新作品创建后通知审核服务
func (p *KafkaProducer) PublishSubmissionPendingReview(ctx context.Context, data events.SubmissionData) error {
	event := events.SubmissionPendingReviewEvent{
		EventID:    uuid.NewString(),
		Timestamp:  time.Now(),
		Submission: data,
	}
	return p.SendEvent(ctx, p.topics.SubmissionPendingReview, imageKey(data.ID), event)
}

// PublishSubmissionDeleted 作品删除后通知下游
func (p *KafkaProducer) PublishSubmissionDeleted(ctx context.Context, imageID uint64) error {
	event := events.SubmissionDeletedEvent{
		EventID:   uuid.NewString(),
		Timestamp: time.Now(),
		ImageID:   imageID,
	}
	return p.SendEvent(ctx, p.topics.SubmissionDeleted, imageKey(imageID), event)
}

// Close 刷出缓冲中的消息并关闭 writer
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

func imageKey(id uint64) string {
	return strconv.FormatUint(id, 10)
}
