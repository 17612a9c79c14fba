package review

import "tolio/internal/domain"

type CreateReviewRequest struct {
	Kind      domain.ReservationKind `json:"kind" binding:"required"`
	BookingID int64                  `json:"booking_id" binding:"required"`
	Rating    int                    `json:"rating" binding:"required,gte=1,lte=5"`
	Comment   string                 `json:"comment"`
}

type AddResponseRequest struct {
	Response string `json:"response" binding:"required"`
}
