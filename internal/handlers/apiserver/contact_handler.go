package apiserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"voucher-go/internal/services"

	"go.uber.org/zap"
)

const maxContactBody = 64 << 10

// ContactHandler 处理联系表单。
type ContactHandler struct {
	contactService services.ContactService
	log            *zap.Logger
}

// NewContactHandler 创建一个新的 ContactHandler 实例。
func NewContactHandler(contactService services.ContactService, log *zap.Logger) *ContactHandler {
	return &ContactHandler{contactService: contactService, log: log}
}

// ContactResponse 是联系表单提交成功后的响应。
type ContactResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

// SubmitContactHandler 处理 POST /api/contact。邮件异步发送，接口立即返回 202。
func (h *ContactHandler) SubmitContactHandler(w http.ResponseWriter, r *http.Request) {
	var form services.ContactForm
	r.Body = http.MaxBytesReader(w, r.Body, maxContactBody)
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	id, err := h.contactService.Submit(r.Context(), form)
	if err != nil {
		if errors.Is(err, services.ErrInvalidContactForm) {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.log.Error("Contact form submit failed", zap.Error(err))
		writeJSONError(w, "Submit failed", http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, http.StatusAccepted, ContactResponse{Status: "queued", ID: id})
}
