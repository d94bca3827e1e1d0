package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"voucher-go/internal/config"
	appKafka "voucher-go/internal/kafka"
	"voucher-go/internal/logger"
	"voucher-go/internal/mail"

	"go.uber.org/zap"
)

// mailworker 消费联系表单邮件队列，并通过邮件服务商投递。
func main() {
	cfg, err := config.LoadConfig(os.Getenv("VOUCHER_CONFIG"))
	if err != nil {
		log.Fatalf("无法加载配置: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("无法初始化日志: %v", err)
	}
	defer zlog.Sync()

	consumer, err := appKafka.NewConfluentKafkaConsumer(cfg.Kafka, zlog)
	if err != nil {
		zlog.Fatal("无法创建 Kafka 消费者", zap.Error(err))
	}
	defer consumer.Close()

	deliverer := mail.NewDeliverer(mail.NewClient(cfg.Mail), zlog)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zlog.Info("mailworker 启动",
		zap.String("topic", cfg.Kafka.ContactEmailTopic),
		zap.String("group", cfg.Kafka.ConsumerGroup))

	err = consumer.Consume(ctx, []string{cfg.Kafka.ContactEmailTopic}, func(ctx context.Context, msg *appKafka.Message) error {
		return deliverer.Handle(ctx, msg.Value)
	})
	if err != nil {
		zlog.Error("Kafka 消费者异常退出", zap.Error(err))
	}
	zlog.Info("mailworker 已停止")
}
