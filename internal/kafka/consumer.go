package kafka

import (
	"context"
	"fmt"
	"strings"
	"time"

	"voucher-go/internal/config"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

// Message 是交给 MessageHandler 的消息，屏蔽 confluent-kafka-go 的类型。
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
}

// MessageHandler processes a consumed message. A nil return commits the offset.
type MessageHandler func(ctx context.Context, msg *Message) error

// MessageConsumer defines the interface for a Kafka message consumer.
type MessageConsumer interface {
	Consume(ctx context.Context, topics []string, handler MessageHandler) error
	Close()
}

const defaultRetryBackoff = 2 * time.Second

// offsetTracker 是 processMessage 用到的 *kafka.Consumer 方法。
type offsetTracker interface {
	CommitMessage(m *kafka.Message) ([]kafka.TopicPartition, error)
	Seek(partition kafka.TopicPartition, ignoredTimeoutMs int) error
}

// confluentKafkaConsumer is an implementation of MessageConsumer using confluent-kafka-go.
type confluentKafkaConsumer struct {
	consumer     *kafka.Consumer
	offsets      offsetTracker
	groupID      string
	retryBackoff time.Duration
	log          *zap.Logger
}

// NewConfluentKafkaConsumer creates a consumer that joins cfg.ConsumerGroup.
func NewConfluentKafkaConsumer(cfg config.KafkaConfig, log *zap.Logger) (MessageConsumer, error) {
	configMap := &kafka.ConfigMap{
		"bootstrap.servers":  strings.Join(cfg.Brokers, ","),
		"group.id":           cfg.ConsumerGroup,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": "false", // 处理成功后手动提交
		"security.protocol":  cfg.Protocol,
	}
	if cfg.ClientID != "" {
		_ = configMap.SetKey("client.id", cfg.ClientID)
	}

	consumer, err := kafka.NewConsumer(configMap)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer for group %s: %w", cfg.ConsumerGroup, err)
	}
	return &confluentKafkaConsumer{
		consumer:     consumer,
		offsets:      consumer,
		groupID:      cfg.ConsumerGroup,
		retryBackoff: defaultRetryBackoff,
		log:          log.With(zap.String("group", cfg.ConsumerGroup)),
	}, nil
}

// Consume blocks until the context is canceled or a fatal error occurs.
func (c *confluentKafkaConsumer) Consume(ctx context.Context, topics []string, handler MessageHandler) error {
	if len(topics) == 0 {
		return fmt.Errorf("kafka consumer: no topics specified")
	}

	if err := c.consumer.SubscribeTopics(topics, nil); err != nil {
		return fmt.Errorf("failed to subscribe to topics %v for group %s: %w", topics, c.groupID, err)
	}
	c.log.Info("Kafka consumer started", zap.Strings("topics", topics))

	for {
		select {
		case <-ctx.Done():
			c.log.Info("Context canceled, stopping consumer loop")
			return nil
		default:
		}

		ev := c.consumer.Poll(1000)
		if ev == nil {
			continue
		}

		switch e := ev.(type) {
		case *kafka.Message:
			if !c.processMessage(ctx, e, handler) {
				// 等待一会儿再重新投递，避免对同一条消息空转
				select {
				case <-ctx.Done():
				case <-time.After(c.retryBackoff):
				}
			}
		case kafka.Error:
			c.log.Error("Kafka consumer error",
				zap.Error(e),
				zap.Bool("fatal", e.IsFatal()),
				zap.Bool("retriable", e.IsRetriable()))
			if e.IsFatal() {
				return e
			}
		case kafka.AssignedPartitions:
			c.log.Info("Partitions assigned", zap.Int("count", len(e.Partitions)))
			_ = c.consumer.Assign(e.Partitions)
		case kafka.RevokedPartitions:
			c.log.Info("Partitions revoked", zap.Int("count", len(e.Partitions)))
			_ = c.consumer.Unassign()
		}
	}
}

// processMessage 调用 handler。成功时提交 offset；失败时 seek 回这条消息，
// 使它被重新投递，后面的提交也不会越过它。返回值表示是否处理成功。
func (c *confluentKafkaConsumer) processMessage(ctx context.Context, e *kafka.Message, handler MessageHandler) bool {
	msg := &Message{
		Partition: e.TopicPartition.Partition,
		Offset:    int64(e.TopicPartition.Offset),
		Key:       e.Key,
		Value:     e.Value,
	}
	if e.TopicPartition.Topic != nil {
		msg.Topic = *e.TopicPartition.Topic
	}

	if err := handler(ctx, msg); err != nil {
		c.log.Error("Error processing Kafka message, will redeliver",
			zap.String("topic", msg.Topic),
			zap.Int64("offset", msg.Offset),
			zap.Error(err))
		if err := c.offsets.Seek(e.TopicPartition, 0); err != nil {
			c.log.Error("Failed to seek back to failed offset",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
		}
		return false
	}

	if _, err := c.offsets.CommitMessage(e); err != nil {
		c.log.Error("Failed to commit offset",
			zap.String("topic", msg.Topic),
			zap.Int64("offset", msg.Offset),
			zap.Error(err))
	}
	return true
}

// Close closes the Kafka consumer.
func (c *confluentKafkaConsumer) Close() {
	if c.consumer == nil {
		return
	}
	if err := c.consumer.Close(); err != nil {
		c.log.Error("Error closing Kafka consumer", zap.Error(err))
	}
	c.consumer = nil
}
