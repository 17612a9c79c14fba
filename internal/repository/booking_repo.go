package repository

import (
	"context"
	"time"

	"tolio/internal/domain"

	"gorm.io/gorm"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type bookingModel struct {
	ID          int64      `gorm:"column:id;primaryKey"`
	ItemID      int64      `gorm:"column:item_id"`
	BorrowerID  int64      `gorm:"column:borrower_id"`
	OwnerID     int64      `gorm:"column:owner_id"`
	StartDate   time.Time  `gorm:"column:start_date"`
	EndDate     time.Time  `gorm:"column:end_date"`
	TotalPrice  float64    `gorm:"column:total_price"`
	Status      string     `gorm:"column:status"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
	CancelledAt *time.Time `gorm:"column:cancelled_at"`
}

func (bookingModel) TableName() string { return "bookings" }

func toDomainBooking(m bookingModel) *domain.Booking {
	return &domain.Booking{
		ID:          m.ID,
		ItemID:      m.ItemID,
		BorrowerID:  m.BorrowerID,
		OwnerID:     m.OwnerID,
		StartDate:   m.StartDate,
		EndDate:     m.EndDate,
		TotalPrice:  m.TotalPrice,
		Status:      domain.BookingStatus(m.Status),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		CancelledAt: m.CancelledAt,
	}
}

func toBookingModel(b *domain.Booking) bookingModel {
	return bookingModel{
		ID:          b.ID,
		ItemID:      b.ItemID,
		BorrowerID:  b.BorrowerID,
		OwnerID:     b.OwnerID,
		StartDate:   b.StartDate,
		EndDate:     b.EndDate,
		TotalPrice:  b.TotalPrice,
		Status:      string(b.Status),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
		CancelledAt: b.CancelledAt,
	}
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	m := toBookingModel(b)
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*b = *toDomainBooking(m)
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var m bookingModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainBooking(m), nil
}

func (r *BookingRepository) GetByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Booking, error) {
	var models []bookingModel
	tx := r.db.WithContext(ctx).
		Where("borrower_id = ? OR owner_id = ?", userID, userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&models)
	if tx.Error != nil {
		return nil, tx.Error
	}
	out := make([]domain.Booking, 0, len(models))
	for _, m := range models {
		out = append(out, *toDomainBooking(m))
	}
	return out, nil
}

// UpdateStatusIf applies a status transition only when the current
// status is one of the expected prior states. Returning false means
// the row was concurrently moved (or never was in the expected state);
// callers treat that as an invalid transition.
func (r *BookingRepository) UpdateStatusIf(ctx context.Context, id int64, from []domain.BookingStatus, to domain.BookingStatus) (bool, error) {
	updates := map[string]interface{}{"status": to}
	if to == domain.BookingCancelled {
		updates["cancelled_at"] = time.Now().UTC()
	}
	res := r.db.WithContext(ctx).
		Model(&bookingModel{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
