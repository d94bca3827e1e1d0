package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"voucher-go/internal/config"
	"voucher-go/internal/imtypes"
)

// ErrProviderRejected 表示邮件服务商返回了非 2xx 状态。
var ErrProviderRejected = errors.New("mail provider rejected request")

// Sender 把一封联系表单邮件交给邮件服务商。
type Sender interface {
	Send(ctx context.Context, email *imtypes.ContactEmail) error
}

// sendRequest 是 EmailJS 兼容的 /email/send 请求体。
type sendRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	TemplateParams map[string]string `json:"template_params"`
}

// Client 通过 HTTP 调用 EmailJS 兼容的发送接口。
type Client struct {
	endpoint   string
	publicKey  string
	httpClient *http.Client
}

// NewClient 创建邮件客户端，超时取自 cfg.Timeout。
func NewClient(cfg config.MailConfig) *Client {
	return &Client{
		endpoint:   cfg.Endpoint,
		publicKey:  cfg.PublicKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Send 实现 Sender。
func (c *Client) Send(ctx context.Context, email *imtypes.ContactEmail) error {
	body, err := json.Marshal(sendRequest{
		ServiceID:      email.ServiceID,
		TemplateID:     email.TemplateID,
		UserID:         c.publicKey,
		TemplateParams: email.Params,
	})
	if err != nil {
		return fmt.Errorf("编码邮件请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("创建邮件请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("调用邮件服务失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: status %d: %s", ErrProviderRejected, resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}
