package storage

import (
	"context"
	"errors"

	"voucher-go/internal/models"

	"gorm.io/gorm"
)

// CompletionRepository defines the data operations for wallet completion records.
type CompletionRepository interface {
	Create(ctx context.Context, record *models.CompletionRecord) error
	GetByAddress(ctx context.Context, kind models.CompletionKind, address string) (*models.CompletionRecord, error)
	ListByKind(ctx context.Context, kind models.CompletionKind, limit int) ([]models.CompletionRecord, error)
}

type gormCompletionRepository struct {
	db *gorm.DB
}

func NewGormCompletionRepository(db *gorm.DB) CompletionRepository {
	return &gormCompletionRepository{db: db}
}

func (r *gormCompletionRepository) Create(ctx context.Context, record *models.CompletionRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// GetByAddress returns nil, nil when no record exists for the address.
func (r *gormCompletionRepository) GetByAddress(ctx context.Context, kind models.CompletionKind, address string) (*models.CompletionRecord, error) {
	var record models.CompletionRecord
	err := r.db.WithContext(ctx).
		Where("kind = ? AND address = ?", kind, address).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// ListByKind 按创建时间倒序返回记录。
func (r *gormCompletionRepository) ListByKind(ctx context.Context, kind models.CompletionKind, limit int) ([]models.CompletionRecord, error) {
	var records []models.CompletionRecord
	err := r.db.WithContext(ctx).
		Where("kind = ?", kind).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}
