package repository

import (
	"context"
	"errors"
	"time"

	"tolio/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MaterialPaymentRepository struct {
	db *gorm.DB
}

func NewMaterialPaymentRepository(db *gorm.DB) *MaterialPaymentRepository {
	return &MaterialPaymentRepository{db: db}
}

func (r *MaterialPaymentRepository) Create(ctx context.Context, mp *domain.MaterialPayment) error {
	return r.db.WithContext(ctx).Create(mp).Error
}

func (r *MaterialPaymentRepository) GetByServiceBooking(ctx context.Context, serviceBookingID int64) (*domain.MaterialPayment, error) {
	var mp domain.MaterialPayment
	if err := r.db.WithContext(ctx).Where("service_booking_id = ?", serviceBookingID).First(&mp).Error; err != nil {
		return nil, err
	}
	return &mp, nil
}

// MarkCompletedIdempotent mirrors PaymentRepository's completion
// semantics for the materials sub-ledger.
func (r *MaterialPaymentRepository) MarkCompletedIdempotent(ctx context.Context, serviceBookingID int64, paidAt time.Time) (bool, error) {
	var changed bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var mp domain.MaterialPayment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("service_booking_id = ?", serviceBookingID).
			First(&mp).Error; err != nil {
			return err
		}
		if mp.Status == domain.PaymentCompleted {
			changed = false
			return nil
		}
		res := tx.Model(&domain.MaterialPayment{}).
			Where("service_booking_id = ? AND status <> ?", serviceBookingID, domain.PaymentCompleted).
			Updates(map[string]interface{}{
				"status":  domain.PaymentCompleted,
				"paid_at": paidAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errors.New("material payment row not updated")
		}
		changed = true
		return nil
	})
	return changed, err
}
