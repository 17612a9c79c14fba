package review

import (
	"context"
	"testing"

	"tolio/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

type MockReviewRepo struct {
	mock.Mock
}

func (m *MockReviewRepo) Create(ctx context.Context, rv *domain.Review) error {
	args := m.Called(ctx, rv)
	if rv != nil {
		rv.ID = 55
	}
	return args.Error(0)
}

func (m *MockReviewRepo) GetByID(ctx context.Context, id int64) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *MockReviewRepo) ExistsForBooking(ctx context.Context, kind domain.ReservationKind, bookingID int64) (bool, error) {
	args := m.Called(ctx, kind, bookingID)
	return args.Bool(0), args.Error(1)
}

func (m *MockReviewRepo) GetForUser(ctx context.Context, revieweeID int64, limit, offset int) ([]domain.Review, error) {
	args := m.Called(ctx, revieweeID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *MockReviewRepo) SetResponse(ctx context.Context, reviewID int64, response string) (bool, error) {
	args := m.Called(ctx, reviewID, response)
	return args.Bool(0), args.Error(1)
}

type MockBookingReader struct {
	mock.Mock
}

func (m *MockBookingReader) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

type MockServiceBookingReader struct {
	mock.Mock
}

func (m *MockServiceBookingReader) GetByID(ctx context.Context, id int64) (*domain.ServiceBooking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ServiceBooking), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyNewReview(ctx context.Context, revieweeID, reviewID int64, rating int) error {
	args := m.Called(ctx, revieweeID, reviewID, rating)
	return args.Error(0)
}

func newReviewService() (*Service, *MockReviewRepo, *MockBookingReader, *MockServiceBookingReader, *MockNotifier) {
	reviews := new(MockReviewRepo)
	bookings := new(MockBookingReader)
	serviceBookings := new(MockServiceBookingReader)
	notifs := new(MockNotifier)
	return NewService(reviews, bookings, serviceBookings, notifs), reviews, bookings, serviceBookings, notifs
}

func completedBooking() *domain.Booking {
	return &domain.Booking{ID: 1, OwnerID: 10, BorrowerID: 20, Status: domain.BookingCompleted}
}

func TestCreate_BorrowerReviewsOwner(t *testing.T) {
	s, reviews, bookings, _, notifs := newReviewService()

	bookings.On("GetByID", mock.Anything, int64(1)).Return(completedBooking(), nil)
	reviews.On("ExistsForBooking", mock.Anything, domain.ReservationItem, int64(1)).Return(false, nil)
	reviews.On("Create", mock.Anything, mock.Anything).Return(nil)
	notifs.On("NotifyNewReview", mock.Anything, int64(10), int64(55), 5).Return(nil)

	rv, err := s.Create(context.Background(), 20, CreateReviewRequest{
		Kind: domain.ReservationItem, BookingID: 1, Rating: 5, Comment: "Great owner",
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(20), rv.ReviewerID)
	assert.Equal(t, int64(10), rv.RevieweeID)
	notifs.AssertExpectations(t)
}

func TestCreate_OwnerReviewsBorrower(t *testing.T) {
	s, reviews, bookings, _, notifs := newReviewService()

	bookings.On("GetByID", mock.Anything, int64(1)).Return(completedBooking(), nil)
	reviews.On("ExistsForBooking", mock.Anything, domain.ReservationItem, int64(1)).Return(false, nil)
	reviews.On("Create", mock.Anything, mock.Anything).Return(nil)
	notifs.On("NotifyNewReview", mock.Anything, int64(20), int64(55), 4).Return(nil)

	rv, err := s.Create(context.Background(), 10, CreateReviewRequest{
		Kind: domain.ReservationItem, BookingID: 1, Rating: 4,
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(20), rv.RevieweeID)
}

func TestCreate_RequiresCompletedBooking(t *testing.T) {
	s, _, bookings, _, _ := newReviewService()

	bookings.On("GetByID", mock.Anything, int64(1)).Return(&domain.Booking{
		ID: 1, OwnerID: 10, BorrowerID: 20, Status: domain.BookingConfirmed,
	}, nil)

	_, err := s.Create(context.Background(), 20, CreateReviewRequest{
		Kind: domain.ReservationItem, BookingID: 1, Rating: 5,
	})
	assert.ErrorIs(t, err, ErrNotCompleted)
}

func TestCreate_StrangerForbidden(t *testing.T) {
	s, _, bookings, _, _ := newReviewService()

	bookings.On("GetByID", mock.Anything, int64(1)).Return(completedBooking(), nil)

	_, err := s.Create(context.Background(), 99, CreateReviewRequest{
		Kind: domain.ReservationItem, BookingID: 1, Rating: 5,
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCreate_DuplicatePreCheck(t *testing.T) {
	s, reviews, bookings, _, _ := newReviewService()

	bookings.On("GetByID", mock.Anything, int64(1)).Return(completedBooking(), nil)
	reviews.On("ExistsForBooking", mock.Anything, domain.ReservationItem, int64(1)).Return(true, nil)

	_, err := s.Create(context.Background(), 20, CreateReviewRequest{
		Kind: domain.ReservationItem, BookingID: 1, Rating: 5,
	})
	assert.ErrorIs(t, err, ErrConflict)
	reviews.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// Two racing submissions both pass the pre-check; the unique index
// rejects the loser and the violation maps to a conflict.
func TestCreate_UniqueViolationMapsToConflict(t *testing.T) {
	s, reviews, bookings, _, _ := newReviewService()

	bookings.On("GetByID", mock.Anything, int64(1)).Return(completedBooking(), nil)
	reviews.On("ExistsForBooking", mock.Anything, domain.ReservationItem, int64(1)).Return(false, nil)
	reviews.On("Create", mock.Anything, mock.Anything).Return(&pgconn.PgError{Code: "23505"})

	_, err := s.Create(context.Background(), 20, CreateReviewRequest{
		Kind: domain.ReservationItem, BookingID: 1, Rating: 5,
	})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCreate_ServiceBookingKind(t *testing.T) {
	s, reviews, _, serviceBookings, notifs := newReviewService()

	serviceBookings.On("GetByID", mock.Anything, int64(2)).Return(&domain.ServiceBooking{
		ID: 2, ClientID: 20, ProviderID: 10, Status: domain.BookingCompleted,
	}, nil)
	reviews.On("ExistsForBooking", mock.Anything, domain.ReservationService, int64(2)).Return(false, nil)
	reviews.On("Create", mock.Anything, mock.Anything).Return(nil)
	notifs.On("NotifyNewReview", mock.Anything, int64(10), int64(55), 3).Return(nil)

	rv, err := s.Create(context.Background(), 20, CreateReviewRequest{
		Kind: domain.ReservationService, BookingID: 2, Rating: 3,
	})

	assert.NoError(t, err)
	assert.NotNil(t, rv.ServiceBookingID)
	assert.Nil(t, rv.BookingID)
}

func TestCreate_InvalidRating(t *testing.T) {
	s, _, _, _, _ := newReviewService()

	for _, rating := range []int{0, 6, -1} {
		_, err := s.Create(context.Background(), 20, CreateReviewRequest{
			Kind: domain.ReservationItem, BookingID: 1, Rating: rating,
		})
		assert.ErrorIs(t, err, ErrValidation)
	}
}

func TestAddResponse_RevieweeOnly(t *testing.T) {
	s, reviews, _, _, _ := newReviewService()

	reviews.On("GetByID", mock.Anything, int64(55)).Return(&domain.Review{
		ID: 55, ReviewerID: 20, RevieweeID: 10,
	}, nil)

	_, err := s.AddResponse(context.Background(), 20, 55, AddResponseRequest{Response: "thanks"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAddResponse_OnlyOnce(t *testing.T) {
	s, reviews, _, _, _ := newReviewService()

	reviews.On("GetByID", mock.Anything, int64(55)).Return(&domain.Review{
		ID: 55, ReviewerID: 20, RevieweeID: 10,
	}, nil)
	reviews.On("SetResponse", mock.Anything, int64(55), "thanks").Return(false, nil)

	_, err := s.AddResponse(context.Background(), 10, 55, AddResponseRequest{Response: "thanks"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestAddResponse_TooLong(t *testing.T) {
	s, _, _, _, _ := newReviewService()

	long := make([]byte, maxResponseLength+1)
	for i := range long {
		long[i] = 'a'
	}

	_, err := s.AddResponse(context.Background(), 10, 55, AddResponseRequest{Response: string(long)})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAddResponse_NotFound(t *testing.T) {
	s, reviews, _, _, _ := newReviewService()

	reviews.On("GetByID", mock.Anything, int64(404)).Return(nil, gorm.ErrRecordNotFound)

	_, err := s.AddResponse(context.Background(), 10, 404, AddResponseRequest{Response: "hi"})
	assert.ErrorIs(t, err, ErrNotFound)
}
