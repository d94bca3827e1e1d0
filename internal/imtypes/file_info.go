// internal/imtypes/file_info.go
package imtypes

// StoredVoucherImage 描述一个已经落盘 (或已上传到对象存储) 的代金券图片。
type StoredVoucherImage struct {
	URL         string `json:"url"`         // 公开访问路径，例如 /images/vouchers/a.png
	Path        string `json:"path"`        // 存储系统中的路径或 key
	Size        int64  `json:"size"`        // 文件大小 (字节)
	ContentType string `json:"contentType"` // 客户端声明的 MIME 类型
	FileName    string `json:"fileName"`    // 最终文件名
}

// StagedFile 是上传过程中的临时文件，Commit 之前对调用方不可见。
type StagedFile struct {
	TempPath         string // 临时文件的完整路径
	OriginalFileName string // 客户端上传时的原始文件名
	ContentType      string
	Size             int64
}
