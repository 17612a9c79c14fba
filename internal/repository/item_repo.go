package repository

import (
	"context"

	"tolio/internal/domain"

	"gorm.io/gorm"
)

type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

func (r *ItemRepository) Create(ctx context.Context, it *domain.Item) error {
	return r.db.WithContext(ctx).Create(it).Error
}

func (r *ItemRepository) GetByID(ctx context.Context, id int64) (*domain.Item, error) {
	var it domain.Item
	if err := r.db.WithContext(ctx).First(&it, id).Error; err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *ItemRepository) ListAvailable(ctx context.Context, limit, offset int) ([]domain.Item, error) {
	var out []domain.Item
	tx := r.db.WithContext(ctx).
		Where("is_available = ?", true).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&out)
	return out, tx.Error
}

func (r *ItemRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Item, error) {
	var out []domain.Item
	tx := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&out)
	return out, tx.Error
}

func (r *ItemRepository) SetAvailability(ctx context.Context, id, ownerID int64, available bool) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Item{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Update("is_available", available)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
