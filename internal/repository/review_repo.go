package repository

import (
	"context"
	"time"

	"tolio/internal/domain"

	"gorm.io/gorm"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	return r.db.WithContext(ctx).Create(rv).Error
}

func (r *ReviewRepository) GetByID(ctx context.Context, id int64) (*domain.Review, error) {
	var rv domain.Review
	if err := r.db.WithContext(ctx).First(&rv, id).Error; err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *ReviewRepository) ExistsForBooking(ctx context.Context, kind domain.ReservationKind, bookingID int64) (bool, error) {
	var cnt int64
	q := r.db.WithContext(ctx).Model(&domain.Review{})
	if kind == domain.ReservationService {
		q = q.Where("service_booking_id = ?", bookingID)
	} else {
		q = q.Where("booking_id = ?", bookingID)
	}
	if err := q.Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *ReviewRepository) GetForUser(ctx context.Context, revieweeID int64, limit, offset int) ([]domain.Review, error) {
	var out []domain.Review
	tx := r.db.WithContext(ctx).
		Where("reviewee_id = ?", revieweeID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&out)
	return out, tx.Error
}

// SetResponse attaches the reviewee's response exactly once; a second
// call finds response already set and affects zero rows.
func (r *ReviewRepository) SetResponse(ctx context.Context, reviewID int64, response string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Review{}).
		Where("id = ? AND response IS NULL", reviewID).
		Updates(map[string]interface{}{
			"response":      response,
			"response_date": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
