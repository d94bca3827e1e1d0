package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"voucher-go/internal/config"
	"voucher-go/internal/imtypes"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxContactFieldLen   = 200
	maxContactMessageLen = 5000
	contactPublishWait   = 15 * time.Second
)

var ErrInvalidContactForm = errors.New("invalid contact form")

// ContactForm 是前端联系表单提交的字段。
type ContactForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// EmailQueue 是 Kafka 生产者中 ContactService 用到的部分。
type EmailQueue interface {
	SendMessage(ctx context.Context, topic string, key []byte, payload []byte) error
}

// ContactService 定义了联系表单服务的接口。
type ContactService interface {
	// Submit 同步校验表单，然后异步投递到邮件队列。投递失败只记录日志。
	Submit(ctx context.Context, form ContactForm) (string, error)
	// Wait 等待所有进行中的投递结束。
	Wait()
}

type contactService struct {
	queue    EmailQueue
	topic    string
	mailCfg  config.MailConfig
	log      *zap.Logger
	inflight sync.WaitGroup
}

// NewContactService 创建一个新的 ContactService 实例。
func NewContactService(queue EmailQueue, topic string, mailCfg config.MailConfig, log *zap.Logger) ContactService {
	return &contactService{
		queue:   queue,
		topic:   topic,
		mailCfg: mailCfg,
		log:     log,
	}
}

func (s *contactService) Submit(ctx context.Context, form ContactForm) (string, error) {
	form.Name = strings.TrimSpace(form.Name)
	form.Email = strings.TrimSpace(form.Email)
	form.Message = strings.TrimSpace(form.Message)
	if err := validateContactForm(form); err != nil {
		return "", err
	}

	email := imtypes.ContactEmail{
		ID:         uuid.New().String(),
		ServiceID:  s.mailCfg.ServiceID,
		TemplateID: s.mailCfg.TemplateID,
		Params: map[string]string{
			"name":    form.Name,
			"email":   form.Email,
			"message": form.Message,
		},
		SubmittedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(email)
	if err != nil {
		return "", fmt.Errorf("编码联系邮件失败: %w", err)
	}

	// 请求结束后投递仍然继续
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), contactPublishWait)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer cancel()
		if err := s.queue.SendMessage(pubCtx, s.topic, []byte(email.ID), payload); err != nil {
			s.log.Error("Failed to queue contact email",
				zap.String("id", email.ID),
				zap.String("topic", s.topic),
				zap.Error(err))
			return
		}
		s.log.Info("Contact email queued", zap.String("id", email.ID))
	}()

	return email.ID, nil
}

func (s *contactService) Wait() {
	s.inflight.Wait()
}

func validateContactForm(form ContactForm) error {
	switch {
	case form.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidContactForm)
	case form.Email == "":
		return fmt.Errorf("%w: email is required", ErrInvalidContactForm)
	case form.Message == "":
		return fmt.Errorf("%w: message is required", ErrInvalidContactForm)
	case !strings.Contains(form.Email, "@"):
		return fmt.Errorf("%w: email is malformed", ErrInvalidContactForm)
	case len(form.Name) > maxContactFieldLen || len(form.Email) > maxContactFieldLen:
		return fmt.Errorf("%w: field too long", ErrInvalidContactForm)
	case len(form.Message) > maxContactMessageLen:
		return fmt.Errorf("%w: message too long", ErrInvalidContactForm)
	}
	return nil
}
