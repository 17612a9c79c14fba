package repository

import (
	"context"

	"tolio/internal/domain"

	"gorm.io/gorm"
)

type ServiceRepository struct {
	db *gorm.DB
}

func NewServiceRepository(db *gorm.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

func (r *ServiceRepository) Create(ctx context.Context, s *domain.Service) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *ServiceRepository) GetByID(ctx context.Context, id int64) (*domain.Service, error) {
	var s domain.Service
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ServiceRepository) ListAvailable(ctx context.Context, limit, offset int) ([]domain.Service, error) {
	var out []domain.Service
	tx := r.db.WithContext(ctx).
		Where("is_available = ?", true).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&out)
	return out, tx.Error
}

func (r *ServiceRepository) ListByProvider(ctx context.Context, providerID int64) ([]domain.Service, error) {
	var out []domain.Service
	tx := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Order("created_at DESC").
		Find(&out)
	return out, tx.Error
}

func (r *ServiceRepository) SetAvailability(ctx context.Context, id, providerID int64, available bool) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Service{}).
		Where("id = ? AND provider_id = ?", id, providerID).
		Update("is_available", available)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
