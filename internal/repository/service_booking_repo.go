package repository

import (
	"context"
	"time"

	"tolio/internal/domain"

	"gorm.io/gorm"
)

type ServiceBookingRepository struct {
	db *gorm.DB
}

func NewServiceBookingRepository(db *gorm.DB) *ServiceBookingRepository {
	return &ServiceBookingRepository{db: db}
}

func (r *ServiceBookingRepository) Create(ctx context.Context, sb *domain.ServiceBooking) error {
	return r.db.WithContext(ctx).Create(sb).Error
}

func (r *ServiceBookingRepository) GetByID(ctx context.Context, id int64) (*domain.ServiceBooking, error) {
	var sb domain.ServiceBooking
	if err := r.db.WithContext(ctx).First(&sb, id).Error; err != nil {
		return nil, err
	}
	return &sb, nil
}

func (r *ServiceBookingRepository) GetByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.ServiceBooking, error) {
	var out []domain.ServiceBooking
	tx := r.db.WithContext(ctx).
		Where("client_id = ? OR provider_id = ?", userID, userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&out)
	return out, tx.Error
}

// UpdateStatusIf is the conditional transition write; see
// BookingRepository.UpdateStatusIf.
func (r *ServiceBookingRepository) UpdateStatusIf(ctx context.Context, id int64, from []domain.BookingStatus, to domain.BookingStatus) (bool, error) {
	updates := map[string]interface{}{"status": to}
	if to == domain.BookingCancelled {
		updates["cancelled_at"] = time.Now().UTC()
	}
	res := r.db.WithContext(ctx).
		Model(&domain.ServiceBooking{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *ServiceBookingRepository) SetServicePaid(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Model(&domain.ServiceBooking{}).
		Where("id = ? AND service_paid = ?", id, false).
		Update("service_paid", true).Error
}

func (r *ServiceBookingRepository) SetMaterialsPaid(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Model(&domain.ServiceBooking{}).
		Where("id = ? AND materials_paid = ?", id, false).
		Update("materials_paid", true).Error
}
