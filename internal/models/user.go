package models

// MockUser 是模拟认证服务返回的用户信息，不持久化。
type MockUser struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	IsPublisher bool   `json:"isPublisher"`
}
