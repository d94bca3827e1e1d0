package services

import (
	"context"
	"crypto/subtle"
	"strings"

	"voucher-go/internal/config"
	"voucher-go/internal/models"
)

// 认证失败时返回给前端的固定文案。
const (
	AuthErrMissingCredentials = "Email and password are required"
	AuthErrInvalidCredentials = "Invalid email or password"
)

// AuthResult 是带标签的认证结果：Success 为 true 时 User 有值，否则 Error 有值。
type AuthResult struct {
	Success bool             `json:"success"`
	User    *models.MockUser `json:"user,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// AuthService 定义了认证服务的接口。
type AuthService interface {
	Authenticate(ctx context.Context, email, password string) AuthResult
}

// mockAuthService 使用固定账户表，不持久化、不做哈希、不签发会话。
type mockAuthService struct {
	accounts map[string]config.MockAccount // key: 小写 email
}

// NewMockAuthService 创建一个新的 mockAuthService 实例。
func NewMockAuthService(cfg config.AuthConfig) AuthService {
	accounts := make(map[string]config.MockAccount, len(cfg.Accounts))
	for _, acc := range cfg.Accounts {
		accounts[normalizeEmail(acc.Email)] = acc
	}
	return &mockAuthService{accounts: accounts}
}

// Authenticate 校验邮箱和密码。
func (s *mockAuthService) Authenticate(ctx context.Context, email, password string) AuthResult {
	if strings.TrimSpace(email) == "" || password == "" {
		return AuthResult{Error: AuthErrMissingCredentials}
	}

	acc, ok := s.accounts[normalizeEmail(email)]
	if !ok || subtle.ConstantTimeCompare([]byte(acc.Password), []byte(password)) != 1 {
		return AuthResult{Error: AuthErrInvalidCredentials}
	}

	return AuthResult{
		Success: true,
		User: &models.MockUser{
			ID:          acc.ID,
			Email:       acc.Email,
			Name:        acc.Name,
			IsPublisher: acc.IsPublisher,
		},
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
