package repository

import (
	"context"
	"errors"
	"time"

	"tolio/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PaymentRepository) GetByReference(ctx context.Context, reference string) (*domain.Payment, error) {
	var p domain.Payment
	if err := r.db.WithContext(ctx).Where("external_reference = ?", reference).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// MarkCompletedIdempotent flips a payment to COMPLETED exactly once.
// The row is locked for the duration of the check-then-write so a
// webhook delivery and a manual capture racing on the same payment
// cannot both observe PENDING. Returns false when the payment was
// already COMPLETED.
func (r *PaymentRepository) MarkCompletedIdempotent(ctx context.Context, reference, providerPaymentID, providerStatus string, paidAt time.Time) (bool, error) {
	var changed bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p domain.Payment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("external_reference = ?", reference).
			First(&p).Error; err != nil {
			return err
		}
		if p.Status == domain.PaymentCompleted {
			changed = false
			return nil
		}
		res := tx.Model(&domain.Payment{}).
			Where("external_reference = ? AND status <> ?", reference, domain.PaymentCompleted).
			Updates(map[string]interface{}{
				"status":              domain.PaymentCompleted,
				"provider_payment_id": providerPaymentID,
				"provider_status":     providerStatus,
				"paid_at":             paidAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errors.New("payment row not updated")
		}
		changed = true
		return nil
	})
	return changed, err
}

// MarkFailedIfNotCompleted records a terminal provider failure. A
// payment that already settled never regresses.
func (r *PaymentRepository) MarkFailedIfNotCompleted(ctx context.Context, reference, providerPaymentID, providerStatus string) error {
	return r.db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("external_reference = ? AND status <> ?", reference, domain.PaymentCompleted).
		Updates(map[string]interface{}{
			"status":              domain.PaymentFailed,
			"provider_payment_id": providerPaymentID,
			"provider_status":     providerStatus,
		}).Error
}

func (r *PaymentRepository) UpdateProviderStatus(ctx context.Context, reference, providerPaymentID, providerStatus string) error {
	return r.db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("external_reference = ? AND status = ?", reference, domain.PaymentPending).
		Updates(map[string]interface{}{
			"provider_payment_id": providerPaymentID,
			"provider_status":     providerStatus,
		}).Error
}

func (r *PaymentRepository) SetCapturedAt(ctx context.Context, reference string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("external_reference = ?", reference).
		Update("captured_at", at).Error
}
