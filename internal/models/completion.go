package models

// CompletionKind 区分钱包页面回调的来源。
type CompletionKind string

const (
	CompletionKindVoucherMint CompletionKind = "voucher_mint" // 铸造代金券
	CompletionKindMerkleTree  CompletionKind = "merkle_tree"  // 创建 Merkle tree
)

// Valid 判断 kind 是否为已知类型。
func (k CompletionKind) Valid() bool {
	return k == CompletionKindVoucherMint || k == CompletionKindMerkleTree
}

// CompletionRecord 记录钱包页面完成操作后回调的链上地址。
// 地址对服务端是不透明的字符串，不做链上校验。
type CompletionRecord struct {
	BaseModel
	Kind        CompletionKind `gorm:"type:varchar(32);not null;uniqueIndex:idx_kind_address" json:"kind"`
	Address     string         `gorm:"type:varchar(128);not null;uniqueIndex:idx_kind_address" json:"address"`
	MerkleTree  string         `gorm:"type:varchar(128)" json:"merkleTree,omitempty"`  // 铸造时使用的 Merkle tree 地址
	MetadataURL string         `gorm:"type:varchar(512)" json:"metadataUrl,omitempty"` // 通常是上传接口返回的图片 URL
}

// TableName 指定 CompletionRecord 模型的表名。
func (CompletionRecord) TableName() string {
	return "completion_records"
}
