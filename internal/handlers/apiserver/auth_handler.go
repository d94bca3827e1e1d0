package apiserver

import (
	"encoding/json"
	"net/http"

	"voucher-go/internal/services"
)

// AuthHandler 封装了模拟登录的 HTTP 处理器方法。
type AuthHandler struct {
	AuthService services.AuthService
}

// NewAuthHandler 创建一个新的 AuthHandler 实例。
func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{AuthService: authService}
}

// LoginRequest 是登录请求的结构体。
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login 处理 POST /api/auth/login。成功返回 200，失败返回 401，响应体都是 AuthResult。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	result := h.AuthService.Authenticate(r.Context(), req.Email, req.Password)
	if !result.Success {
		writeJSONResponse(w, http.StatusUnauthorized, result)
		return
	}
	writeJSONResponse(w, http.StatusOK, result)
}
