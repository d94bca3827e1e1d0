package apiserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"voucher-go/internal/models"
	"voucher-go/internal/services"

	"go.uber.org/zap"
)

// CompletionHandler 接收钱包页面 (铸造代金券、创建 Merkle tree) 的完成回调。
type CompletionHandler struct {
	completionService services.CompletionService
	log               *zap.Logger
}

// NewCompletionHandler 创建一个新的 CompletionHandler 实例。
func NewCompletionHandler(completionService services.CompletionService, log *zap.Logger) *CompletionHandler {
	return &CompletionHandler{completionService: completionService, log: log}
}

// RecordHandler 返回记录指定 kind 完成结果的处理器。
func (h *CompletionHandler) RecordHandler(kind models.CompletionKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input services.CompletionInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			writeJSONError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		record, err := h.completionService.Record(r.Context(), kind, input)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrInvalidAddress),
				errors.Is(err, services.ErrInvalidMetadataURL),
				errors.Is(err, services.ErrUnknownCompletion):
				writeJSONError(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, services.ErrDuplicateCompletion):
				writeJSONError(w, err.Error(), http.StatusConflict)
			default:
				h.log.Error("Record completion failed", zap.String("kind", string(kind)), zap.Error(err))
				writeJSONError(w, "Record failed", http.StatusInternalServerError)
			}
			return
		}

		writeJSONResponse(w, http.StatusCreated, record)
	}
}

// ListHandler 返回列出指定 kind 完成结果的处理器，支持 ?limit=。
func (h *CompletionHandler) ListHandler(kind models.CompletionKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				writeJSONError(w, "limit must be a non-negative integer", http.StatusBadRequest)
				return
			}
			limit = n
		}

		records, err := h.completionService.List(r.Context(), kind, limit)
		if err != nil {
			h.log.Error("List completions failed", zap.String("kind", string(kind)), zap.Error(err))
			writeJSONError(w, "List failed", http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []models.CompletionRecord{}
		}
		writeJSONResponse(w, http.StatusOK, records)
	}
}
