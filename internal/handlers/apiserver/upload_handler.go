// internal/handlers/apiserver/upload_handler.go
package apiserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"voucher-go/internal/config"
	"voucher-go/internal/imtypes"
	"voucher-go/internal/storage"

	"go.uber.org/zap"
)

const (
	defaultMaxUploadSize = 20 << 20 // 20 MB
	maxFileNameFieldLen  = 255

	fileFieldName     = "file"
	fileNameFieldName = "fileName"

	msgUploadFailed = "Upload failed"
	msgSaveFailed   = "Save failed"
)

var (
	errMissingFile   = errors.New("multipart body has no file part")
	errDuplicateFile = errors.New("multipart body has more than one file part")
	errBadFileField  = errors.New("file part has no filename")
	errBadNameField  = errors.New("fileName must be a single text field")
)

// UploadResponse 是上传成功后的响应体。
type UploadResponse struct {
	URL string `json:"url"`
}

// UploadHandler 封装了代金券图片上传的 HTTP 处理器。
type UploadHandler struct {
	store         imtypes.VoucherImageStore
	maxUploadSize int64
	log           *zap.Logger
}

// NewUploadHandler 创建一个新的 UploadHandler 实例。
func NewUploadHandler(store imtypes.VoucherImageStore, cfg config.StorageConfig, log *zap.Logger) *UploadHandler {
	maxUploadSize := cfg.MaxFileSizeMB << 20
	if maxUploadSize <= 0 {
		maxUploadSize = defaultMaxUploadSize
	}
	return &UploadHandler{
		store:         store,
		maxUploadSize: maxUploadSize,
		log:           log,
	}
}

// uploadForm 是按 schema 校验过的 multipart 内容。
type uploadForm struct {
	staged   *imtypes.StagedFile
	fileName string // 调用方指定的文件名，可为空
}

// UploadVoucherImageHandler 处理 POST /api/upload-voucher-image。
func (h *UploadHandler) UploadVoucherImageHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	// 1. 确保目标目录存在
	if err := h.store.EnsureDir(ctx); err != nil {
		h.log.Error("Voucher image directory unavailable", zap.Error(err))
		writeJSONError(w, msgSaveFailed, http.StatusInternalServerError)
		return
	}

	// 2. 解析 multipart，文件先写入临时文件
	form, err := h.parseUploadForm(ctx, r)
	if errors.Is(err, storage.ErrStoreUnavailable) {
		h.log.Error("Voucher image staging failed", zap.Error(err))
		writeJSONError(w, msgSaveFailed, http.StatusInternalServerError)
		return
	}
	if err != nil {
		h.log.Warn("Voucher image upload parse failed", zap.Error(err))
		writeJSONError(w, msgUploadFailed, http.StatusInternalServerError)
		return
	}

	// 3. 调用方指定的文件名优先
	fileName := form.fileName
	if fileName == "" {
		fileName = form.staged.OriginalFileName
	}
	if err := storage.ValidateFileName(fileName); err != nil {
		h.store.Discard(form.staged)
		h.log.Warn("Rejected voucher image file name", zap.String("fileName", fileName), zap.Error(err))
		writeJSONError(w, msgUploadFailed, http.StatusInternalServerError)
		return
	}

	// 4. 移动到最终位置
	stored, err := h.store.Commit(ctx, form.staged, fileName)
	if err != nil {
		h.log.Error("Voucher image save failed", zap.String("fileName", fileName), zap.Error(err))
		writeJSONError(w, msgSaveFailed, http.StatusInternalServerError)
		return
	}

	h.log.Info("Voucher image stored",
		zap.String("fileName", stored.FileName),
		zap.String("url", stored.URL),
		zap.Int64("size", stored.Size))

	// 5. 返回公开 URL
	writeJSONResponse(w, http.StatusOK, UploadResponse{URL: stored.URL})
}

// parseUploadForm 流式读取 multipart：恰好一个 file 部分，最多一个 fileName 文本部分，
// 其他字段被忽略。出错时已暂存的临时文件会被删除。
func (h *UploadHandler) parseUploadForm(ctx context.Context, r *http.Request) (form *uploadForm, err error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("读取 multipart 失败: %w", err)
	}

	form = &uploadForm{}
	seenName := false
	defer func() {
		if err != nil {
			h.store.Discard(form.staged)
			form = nil
		}
	}()

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return form, fmt.Errorf("解析 multipart 失败: %w", err)
		}

		switch part.FormName() {
		case fileFieldName:
			if form.staged != nil {
				part.Close()
				return form, errDuplicateFile
			}
			originalName := part.FileName()
			if originalName == "" {
				part.Close()
				return form, errBadFileField
			}
			staged, err := h.store.Stage(ctx, part, originalName, part.Header.Get("Content-Type"))
			part.Close()
			if err != nil {
				return form, fmt.Errorf("暂存上传文件失败: %w", err)
			}
			form.staged = staged
		case fileNameFieldName:
			if seenName || part.FileName() != "" {
				part.Close()
				return form, errBadNameField
			}
			seenName = true
			value, err := io.ReadAll(io.LimitReader(part, maxFileNameFieldLen+1))
			part.Close()
			if err != nil {
				return form, fmt.Errorf("读取 fileName 字段失败: %w", err)
			}
			if len(value) > maxFileNameFieldLen {
				return form, fmt.Errorf("%w: longer than %d bytes", errBadNameField, maxFileNameFieldLen)
			}
			form.fileName = string(value)
		default:
			_, err := io.Copy(io.Discard, part)
			part.Close()
			if err != nil {
				return form, fmt.Errorf("读取字段 %q 失败: %w", part.FormName(), err)
			}
		}
	}

	if form.staged == nil {
		return form, errMissingFile
	}
	return form, nil
}
