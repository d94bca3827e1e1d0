package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"voucher-go/internal/config"
	"voucher-go/internal/imtypes"

	"github.com/google/uuid"
)

const stagingPrefix = ".upload-"

var (
	// ErrInvalidFileName 表示文件名为空、包含路径分隔符或是 "." / ".."。
	ErrInvalidFileName = errors.New("invalid file name")
	// ErrStoreUnavailable 表示存储端 (而不是上传内容) 出错，例如目录不可写或磁盘已满。
	ErrStoreUnavailable = errors.New("voucher image store unavailable")
)

// destWriter 记录写入目标文件时的错误，用来区分读上传内容失败和写磁盘失败。
type destWriter struct {
	w   io.Writer
	err error
}

func (d *destWriter) Write(p []byte) (int, error) {
	n, err := d.w.Write(p)
	if err != nil {
		d.err = err
	}
	return n, err
}

// copyToStaging 把 reader 写入 dst。写端失败时错误包装为 ErrStoreUnavailable。
func copyToStaging(dst io.Writer, reader io.Reader) (int64, error) {
	dw := &destWriter{w: dst}
	written, err := io.Copy(dw, reader)
	if err != nil && dw.err != nil {
		return written, fmt.Errorf("%w: 写入临时文件失败: %v", ErrStoreUnavailable, err)
	}
	if err != nil {
		return written, fmt.Errorf("读取上传内容失败: %w", err)
	}
	return written, nil
}

// LocalVoucherImageStore 实现了 imtypes.VoucherImageStore 接口，文件保存在本地目录。
type LocalVoucherImageStore struct {
	basePath string // 例如 ./public/images/vouchers
	baseURL  string // 例如 /images/vouchers
}

// NewLocalVoucherImageStore 创建一个新的 LocalVoucherImageStore。
// 目录不会在这里创建，每次上传前由 EnsureDir 保证。
func NewLocalVoucherImageStore(cfg config.StorageConfig) *LocalVoucherImageStore {
	return &LocalVoucherImageStore{
		basePath: cfg.LocalPath,
		baseURL:  cfg.PublicURLPrefix,
	}
}

// BasePath 返回存储根目录。
func (s *LocalVoucherImageStore) BasePath() string {
	return s.basePath
}

// EnsureDir 递归创建存储目录，目录已存在时什么也不做。
func (s *LocalVoucherImageStore) EnsureDir(ctx context.Context) error {
	if err := os.MkdirAll(s.basePath, 0755); err != nil {
		return fmt.Errorf("创建本地存储目录失败 '%s': %w", s.basePath, err)
	}
	return nil
}

// Stage 把上传内容写入存储目录下的隐藏临时文件。
// 临时文件和最终文件位于同一目录，所以 Commit 的 rename 不会跨设备。
func (s *LocalVoucherImageStore) Stage(ctx context.Context, reader io.Reader, originalFileName, contentType string) (*imtypes.StagedFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tempPath := filepath.Join(s.basePath, stagingPrefix+uuid.New().String()+".tmp")
	dst, err := os.OpenFile(tempPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: 创建临时文件失败 '%s': %v", ErrStoreUnavailable, tempPath, err)
	}

	written, err := copyToStaging(dst, reader)
	if err != nil {
		dst.Close()
		os.Remove(tempPath)
		return nil, err
	}
	if err := dst.Close(); err != nil {
		os.Remove(tempPath)
		return nil, fmt.Errorf("%w: 关闭临时文件失败: %v", ErrStoreUnavailable, err)
	}

	return &imtypes.StagedFile{
		TempPath:         tempPath,
		OriginalFileName: originalFileName,
		ContentType:      contentType,
		Size:             written,
	}, nil
}

// Commit 将临时文件 rename 到最终位置。同名文件会被覆盖 (last write wins)。
func (s *LocalVoucherImageStore) Commit(ctx context.Context, staged *imtypes.StagedFile, fileName string) (*imtypes.StoredVoucherImage, error) {
	if err := ValidateFileName(fileName); err != nil {
		s.Discard(staged)
		return nil, err
	}

	dstPath := filepath.Join(s.basePath, fileName)
	if err := os.Rename(staged.TempPath, dstPath); err != nil {
		s.Discard(staged)
		return nil, fmt.Errorf("移动文件失败 '%s' -> '%s': %w", staged.TempPath, dstPath, err)
	}

	return &imtypes.StoredVoucherImage{
		URL:         PublicURL(s.baseURL, fileName),
		Path:        dstPath,
		Size:        staged.Size,
		ContentType: staged.ContentType,
		FileName:    fileName,
	}, nil
}

// Discard 删除临时文件，文件不存在时忽略。
func (s *LocalVoucherImageStore) Discard(staged *imtypes.StagedFile) {
	if staged == nil || staged.TempPath == "" {
		return
	}
	_ = os.Remove(staged.TempPath)
}

// ValidateFileName 拒绝可能逃出存储目录的文件名。
func ValidateFileName(name string) error {
	switch name {
	case "", ".", "..":
		return fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	}
	return nil
}

// PublicURL 拼接文件的公开访问路径。
func PublicURL(baseURL, fileName string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + url.PathEscape(fileName)
}
