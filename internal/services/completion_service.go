package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"voucher-go/internal/models"
	"voucher-go/internal/storage"

	"gorm.io/gorm"
)

const (
	maxAddressLen        = 128
	maxMetadataURLLen    = 512 // 与 completion_records.metadata_url 列宽一致
	defaultCompletionMax = 50
)

var (
	ErrInvalidAddress      = errors.New("address must be a non-empty string of at most 128 characters")
	ErrInvalidMetadataURL  = errors.New("metadataUrl must be at most 512 characters")
	ErrUnknownCompletion   = errors.New("unknown completion kind")
	ErrDuplicateCompletion = errors.New("completion already recorded for this address")
)

// CompletionInput 是钱包页面完成回调上报的数据。
type CompletionInput struct {
	Address     string `json:"address"`
	MerkleTree  string `json:"merkleTree,omitempty"`
	MetadataURL string `json:"metadataUrl,omitempty"`
}

// CompletionService 记录钱包页面 (铸造代金券、创建 Merkle tree) 的完成结果。
type CompletionService interface {
	Record(ctx context.Context, kind models.CompletionKind, input CompletionInput) (*models.CompletionRecord, error)
	List(ctx context.Context, kind models.CompletionKind, limit int) ([]models.CompletionRecord, error)
}

type completionService struct {
	repo storage.CompletionRepository
}

// NewCompletionService 创建一个新的 CompletionService 实例。
func NewCompletionService(repo storage.CompletionRepository) CompletionService {
	return &completionService{repo: repo}
}

func (s *completionService) Record(ctx context.Context, kind models.CompletionKind, input CompletionInput) (*models.CompletionRecord, error) {
	if !kind.Valid() {
		return nil, ErrUnknownCompletion
	}
	address := strings.TrimSpace(input.Address)
	if address == "" || len(address) > maxAddressLen {
		return nil, ErrInvalidAddress
	}
	merkleTree := strings.TrimSpace(input.MerkleTree)
	if len(merkleTree) > maxAddressLen {
		return nil, ErrInvalidAddress
	}

	metadataURL := strings.TrimSpace(input.MetadataURL)
	if utf8.RuneCountInString(metadataURL) > maxMetadataURLLen {
		return nil, ErrInvalidMetadataURL
	}

	existing, err := s.repo.GetByAddress(ctx, kind, address)
	if err != nil {
		return nil, fmt.Errorf("查询完成记录失败: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateCompletion
	}

	record := &models.CompletionRecord{
		Kind:        kind,
		Address:     address,
		MerkleTree:  merkleTree,
		MetadataURL: metadataURL,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		// 并发写入同一地址时由唯一索引兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateCompletion
		}
		return nil, fmt.Errorf("保存完成记录失败: %w", err)
	}
	return record, nil
}

func (s *completionService) List(ctx context.Context, kind models.CompletionKind, limit int) ([]models.CompletionRecord, error) {
	if !kind.Valid() {
		return nil, ErrUnknownCompletion
	}
	if limit <= 0 || limit > defaultCompletionMax {
		limit = defaultCompletionMax
	}
	return s.repo.ListByKind(ctx, kind, limit)
}
