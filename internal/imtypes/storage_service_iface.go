// internal/imtypes/storage_service_iface.go
package imtypes

import (
	"context"
	"io"
)

// VoucherImageStore 定义了代金券图片的存储操作。
// 接口放在 imtypes 中以打破 storage 和 handlers 之间的循环依赖。
type VoucherImageStore interface {
	// EnsureDir 确保目标目录 (或 bucket) 存在，重复调用是安全的。
	EnsureDir(ctx context.Context) error

	// Stage 把 reader 的内容写入一个临时文件。
	Stage(ctx context.Context, reader io.Reader, originalFileName, contentType string) (*StagedFile, error)

	// Commit 把临时文件移动到 fileName 对应的最终位置。同名文件直接覆盖。
	Commit(ctx context.Context, staged *StagedFile, fileName string) (*StoredVoucherImage, error)

	// Discard 删除尚未 Commit 的临时文件。
	Discard(staged *StagedFile)
}
