package mail

import (
	"context"
	"encoding/json"

	"voucher-go/internal/imtypes"

	"go.uber.org/zap"
)

// Deliverer 处理 Kafka 中的 ContactEmail 消息。
type Deliverer struct {
	sender Sender
	log    *zap.Logger
}

// NewDeliverer creates a Deliverer backed by sender.
func NewDeliverer(sender Sender, log *zap.Logger) *Deliverer {
	return &Deliverer{sender: sender, log: log}
}

// Handle 解码并投递一条消息。无法解码的消息被跳过 (返回 nil)，
// 投递失败返回错误，由消费者决定不提交 offset。
func (d *Deliverer) Handle(ctx context.Context, payload []byte) error {
	var email imtypes.ContactEmail
	if err := json.Unmarshal(payload, &email); err != nil {
		d.log.Warn("Skipping undecodable contact email", zap.Error(err), zap.ByteString("payload", payload))
		return nil
	}

	if err := d.sender.Send(ctx, &email); err != nil {
		d.log.Error("Failed to deliver contact email",
			zap.String("id", email.ID),
			zap.String("template", email.TemplateID),
			zap.Error(err))
		return err
	}

	d.log.Info("Contact email delivered", zap.String("id", email.ID))
	return nil
}
