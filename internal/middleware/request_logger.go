package middleware

import (
	"context"
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// contextKey 是用于在 context.Context 中存储值的自定义类型，以避免键冲突。
type contextKey string

// RequestIDKey 是用于在上下文中存储请求 ID 的键。
const RequestIDKey contextKey = "requestID"

// RequestIDHeader 是请求 ID 使用的 HTTP 头。
const RequestIDHeader = "X-Request-ID"

// RequestLogger 为每个请求分配请求 ID (客户端未提供时)，并在请求结束后记录一条日志。
func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
			}
			w.Header().Set(RequestIDHeader, requestID)
			ctx := context.WithValue(r.Context(), RequestIDKey, requestID)

			m := httpsnoop.CaptureMetrics(next, w, r.WithContext(ctx))

			log.Info("http request",
				zap.String("requestId", requestID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", m.Code),
				zap.Int64("bytes", m.Written),
				zap.Duration("duration", m.Duration))
		})
	}
}

// GetRequestIDFromContext 从上下文中获取请求 ID。
func GetRequestIDFromContext(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(RequestIDKey).(string)
	return requestID, ok
}
