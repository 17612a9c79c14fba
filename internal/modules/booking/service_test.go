package booking

import (
	"context"
	"testing"
	"time"

	"tolio/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// Mock repositories
type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	args := m.Called(ctx, b)
	if b != nil {
		b.ID = 101 // simulate DB insert
	}
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) GetByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Booking, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) UpdateStatusIf(ctx context.Context, id int64, from []domain.BookingStatus, to domain.BookingStatus) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

type MockServiceBookingRepository struct {
	mock.Mock
}

func (m *MockServiceBookingRepository) Create(ctx context.Context, sb *domain.ServiceBooking) error {
	args := m.Called(ctx, sb)
	if sb != nil {
		sb.ID = 202
	}
	return args.Error(0)
}

func (m *MockServiceBookingRepository) GetByID(ctx context.Context, id int64) (*domain.ServiceBooking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ServiceBooking), args.Error(1)
}

func (m *MockServiceBookingRepository) GetByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.ServiceBooking, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ServiceBooking), args.Error(1)
}

func (m *MockServiceBookingRepository) UpdateStatusIf(ctx context.Context, id int64, from []domain.BookingStatus, to domain.BookingStatus) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) GetByID(ctx context.Context, id int64) (*domain.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Item), args.Error(1)
}

type MockServiceRepository struct {
	mock.Mock
}

func (m *MockServiceRepository) GetByID(ctx context.Context, id int64) (*domain.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Service), args.Error(1)
}

type MockNotificationSender struct {
	mock.Mock
}

func (m *MockNotificationSender) NotifyBookingRequested(ctx context.Context, ownerUserID, bookingID int64, kind domain.ReservationKind, title string) error {
	args := m.Called(ctx, ownerUserID, bookingID, kind, title)
	return args.Error(0)
}

func (m *MockNotificationSender) NotifyBookingConfirmed(ctx context.Context, clientUserID, bookingID int64, kind domain.ReservationKind) error {
	args := m.Called(ctx, clientUserID, bookingID, kind)
	return args.Error(0)
}

func (m *MockNotificationSender) NotifyBookingCancelled(ctx context.Context, userID, bookingID int64, kind domain.ReservationKind) error {
	args := m.Called(ctx, userID, bookingID, kind)
	return args.Error(0)
}

func (m *MockNotificationSender) NotifyBookingCompleted(ctx context.Context, userID, bookingID int64, kind domain.ReservationKind) error {
	args := m.Called(ctx, userID, bookingID, kind)
	return args.Error(0)
}

type MockPaymentRequestMessenger struct {
	mock.Mock
}

func (m *MockPaymentRequestMessenger) SendPaymentRequest(ctx context.Context, senderID, receiverID, bookingID int64, amount float64) error {
	args := m.Called(ctx, senderID, receiverID, bookingID, amount)
	return args.Error(0)
}

type serviceMocks struct {
	bookings        *MockBookingRepository
	serviceBookings *MockServiceBookingRepository
	items           *MockItemRepository
	services        *MockServiceRepository
	notifs          *MockNotificationSender
	payments        *MockPaymentRequestMessenger
}

func newTestService() (*Service, serviceMocks) {
	m := serviceMocks{
		bookings:        new(MockBookingRepository),
		serviceBookings: new(MockServiceBookingRepository),
		items:           new(MockItemRepository),
		services:        new(MockServiceRepository),
		notifs:          new(MockNotificationSender),
		payments:        new(MockPaymentRequestMessenger),
	}
	s := NewService(m.bookings, m.serviceBookings, m.items, m.services, m.notifs, m.payments)
	return s, m
}

func TestService_CreateItemBooking_Success(t *testing.T) {
	s, m := newTestService()

	m.items.On("GetByID", mock.Anything, int64(10)).Return(&domain.Item{
		ID:          10,
		OwnerID:     1,
		Title:       "Cordless drill",
		PricePerDay: 25.0,
		IsAvailable: true,
	}, nil)
	m.bookings.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.notifs.On("NotifyBookingRequested", mock.Anything, int64(1), int64(101), domain.ReservationItem, "Cordless drill").Return(nil)

	start := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	req := CreateItemBookingRequest{
		ItemID:    10,
		StartDate: start,
		EndDate:   start.Add(72 * time.Hour),
	}

	b, err := s.CreateItemBooking(context.Background(), 2, req)

	assert.NoError(t, err)
	assert.NotNil(t, b)
	assert.Equal(t, 75.0, b.TotalPrice)
	assert.Equal(t, domain.BookingPending, b.Status)
	assert.Equal(t, int64(1), b.OwnerID)
	m.notifs.AssertExpectations(t)
}

// Partial days round up to the next whole day.
func TestService_CreateItemBooking_PartialDayRoundsUp(t *testing.T) {
	s, m := newTestService()

	m.items.On("GetByID", mock.Anything, int64(10)).Return(&domain.Item{
		ID:          10,
		OwnerID:     1,
		Title:       "Ladder",
		PricePerDay: 10.0,
		IsAvailable: true,
	}, nil)
	m.bookings.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.notifs.On("NotifyBookingRequested", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	start := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	req := CreateItemBookingRequest{
		ItemID:    10,
		StartDate: start,
		EndDate:   start.Add(25 * time.Hour), // 1 day + 1 hour => 2 days
	}

	b, err := s.CreateItemBooking(context.Background(), 2, req)

	assert.NoError(t, err)
	assert.Equal(t, 20.0, b.TotalPrice)
}

func TestService_CreateItemBooking_MinimumOneDay(t *testing.T) {
	s, m := newTestService()

	m.items.On("GetByID", mock.Anything, int64(10)).Return(&domain.Item{
		ID:          10,
		OwnerID:     1,
		Title:       "Ladder",
		PricePerDay: 10.0,
		IsAvailable: true,
	}, nil)
	m.bookings.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.notifs.On("NotifyBookingRequested", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	start := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	req := CreateItemBookingRequest{
		ItemID:    10,
		StartDate: start,
		EndDate:   start.Add(2 * time.Hour),
	}

	b, err := s.CreateItemBooking(context.Background(), 2, req)

	assert.NoError(t, err)
	assert.Equal(t, 10.0, b.TotalPrice)
}

func TestService_CreateItemBooking_OwnItem(t *testing.T) {
	s, m := newTestService()

	m.items.On("GetByID", mock.Anything, int64(10)).Return(&domain.Item{
		ID:          10,
		OwnerID:     2,
		PricePerDay: 25.0,
		IsAvailable: true,
	}, nil)

	start := time.Now().Add(24 * time.Hour)
	req := CreateItemBookingRequest{ItemID: 10, StartDate: start, EndDate: start.Add(48 * time.Hour)}

	_, err := s.CreateItemBooking(context.Background(), 2, req)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestService_CreateItemBooking_Unavailable(t *testing.T) {
	s, m := newTestService()

	m.items.On("GetByID", mock.Anything, int64(10)).Return(&domain.Item{
		ID:          10,
		OwnerID:     1,
		PricePerDay: 25.0,
		IsAvailable: false,
	}, nil)

	start := time.Now().Add(24 * time.Hour)
	req := CreateItemBookingRequest{ItemID: 10, StartDate: start, EndDate: start.Add(48 * time.Hour)}

	_, err := s.CreateItemBooking(context.Background(), 2, req)
	assert.ErrorIs(t, err, ErrNotAvailable)
}

func TestService_CreateItemBooking_InvalidDates(t *testing.T) {
	s, _ := newTestService()

	start := time.Now().Add(48 * time.Hour)
	req := CreateItemBookingRequest{ItemID: 10, StartDate: start, EndDate: start.Add(-24 * time.Hour)}

	_, err := s.CreateItemBooking(context.Background(), 2, req)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestService_CreateServiceBooking_Success(t *testing.T) {
	s, m := newTestService()

	m.services.On("GetByID", mock.Anything, int64(7)).Return(&domain.Service{
		ID:           7,
		ProviderID:   3,
		Title:        "Bike repair",
		PricePerHour: 40.0,
		PriceType:    domain.PriceTypeHour,
		IsAvailable:  true,
	}, nil)
	m.serviceBookings.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.notifs.On("NotifyBookingRequested", mock.Anything, int64(3), int64(202), domain.ReservationService, "Bike repair").Return(nil)

	req := CreateServiceBookingRequest{
		ServiceID: 7,
		StartDate: time.Now().Add(24 * time.Hour),
		Hours:     2,
	}

	sb, err := s.CreateServiceBooking(context.Background(), 5, req)

	assert.NoError(t, err)
	assert.Equal(t, domain.BookingPending, sb.Status)
	assert.Equal(t, int64(3), sb.ProviderID)
	assert.False(t, sb.ServicePaid)
	m.notifs.AssertExpectations(t)
}

func TestService_Confirm_OwnerSide(t *testing.T) {
	s, m := newTestService()

	m.bookings.On("GetByID", mock.Anything, int64(101)).Return(&domain.Booking{
		ID: 101, OwnerID: 1, BorrowerID: 2, Status: domain.BookingPending,
	}, nil)
	m.bookings.On("UpdateStatusIf", mock.Anything, int64(101),
		[]domain.BookingStatus{domain.BookingPending}, domain.BookingConfirmed).Return(true, nil)
	m.notifs.On("NotifyBookingConfirmed", mock.Anything, int64(2), int64(101), domain.ReservationItem).Return(nil)

	err := s.Confirm(context.Background(), 1, domain.ReservationItem, 101)

	assert.NoError(t, err)
	m.notifs.AssertExpectations(t)
}

// The borrower must not be able to confirm their own request.
func TestService_Confirm_ClientSideForbidden(t *testing.T) {
	s, m := newTestService()

	m.bookings.On("GetByID", mock.Anything, int64(101)).Return(&domain.Booking{
		ID: 101, OwnerID: 1, BorrowerID: 2, Status: domain.BookingPending,
	}, nil)

	err := s.Confirm(context.Background(), 2, domain.ReservationItem, 101)

	assert.ErrorIs(t, err, ErrForbidden)
	m.bookings.AssertNotCalled(t, "UpdateStatusIf", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// Zero rows from the conditional write means the booking already left
// PENDING, in another request or in another state entirely.
func TestService_Confirm_AlreadyConfirmed(t *testing.T) {
	s, m := newTestService()

	m.bookings.On("GetByID", mock.Anything, int64(101)).Return(&domain.Booking{
		ID: 101, OwnerID: 1, BorrowerID: 2, Status: domain.BookingConfirmed,
	}, nil)
	m.bookings.On("UpdateStatusIf", mock.Anything, int64(101),
		[]domain.BookingStatus{domain.BookingPending}, domain.BookingConfirmed).Return(false, nil)

	err := s.Confirm(context.Background(), 1, domain.ReservationItem, 101)

	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestService_Complete_ServiceBooking_SendsPaymentRequest(t *testing.T) {
	s, m := newTestService()

	sb := &domain.ServiceBooking{
		ID: 202, ServiceID: 7, ClientID: 5, ProviderID: 3,
		Hours: 2, Status: domain.BookingConfirmed, ServicePaid: false,
	}
	m.serviceBookings.On("GetByID", mock.Anything, int64(202)).Return(sb, nil)
	m.serviceBookings.On("UpdateStatusIf", mock.Anything, int64(202),
		[]domain.BookingStatus{domain.BookingConfirmed}, domain.BookingCompleted).Return(true, nil)
	m.services.On("GetByID", mock.Anything, int64(7)).Return(&domain.Service{
		ID: 7, ProviderID: 3, PricePerHour: 40.0, PriceType: domain.PriceTypeHour,
	}, nil)
	m.notifs.On("NotifyBookingCompleted", mock.Anything, int64(5), int64(202), domain.ReservationService).Return(nil)
	m.payments.On("SendPaymentRequest", mock.Anything, int64(3), int64(5), int64(202), 80.0).Return(nil)

	err := s.Complete(context.Background(), 3, domain.ReservationService, 202)

	assert.NoError(t, err)
	m.payments.AssertExpectations(t)
}

func TestService_Complete_ServiceBooking_AlreadyPaid_NoRequest(t *testing.T) {
	s, m := newTestService()

	sb := &domain.ServiceBooking{
		ID: 202, ServiceID: 7, ClientID: 5, ProviderID: 3,
		Hours: 2, Status: domain.BookingConfirmed, ServicePaid: true,
	}
	m.serviceBookings.On("GetByID", mock.Anything, int64(202)).Return(sb, nil)
	m.serviceBookings.On("UpdateStatusIf", mock.Anything, int64(202),
		[]domain.BookingStatus{domain.BookingConfirmed}, domain.BookingCompleted).Return(true, nil)
	m.notifs.On("NotifyBookingCompleted", mock.Anything, int64(5), int64(202), domain.ReservationService).Return(nil)

	err := s.Complete(context.Background(), 3, domain.ReservationService, 202)

	assert.NoError(t, err)
	m.payments.AssertNotCalled(t, "SendPaymentRequest", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Complete_FromPending_Invalid(t *testing.T) {
	s, m := newTestService()

	m.bookings.On("GetByID", mock.Anything, int64(101)).Return(&domain.Booking{
		ID: 101, OwnerID: 1, BorrowerID: 2, Status: domain.BookingPending,
	}, nil)
	m.bookings.On("UpdateStatusIf", mock.Anything, int64(101),
		[]domain.BookingStatus{domain.BookingConfirmed}, domain.BookingCompleted).Return(false, nil)

	err := s.Complete(context.Background(), 1, domain.ReservationItem, 101)

	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestService_Cancel_ByEitherParty(t *testing.T) {
	for _, userID := range []int64{1, 2} {
		s, m := newTestService()

		m.bookings.On("GetByID", mock.Anything, int64(101)).Return(&domain.Booking{
			ID: 101, OwnerID: 1, BorrowerID: 2, Status: domain.BookingConfirmed,
		}, nil)
		m.bookings.On("UpdateStatusIf", mock.Anything, int64(101),
			[]domain.BookingStatus{domain.BookingPending, domain.BookingConfirmed},
			domain.BookingCancelled).Return(true, nil)
		m.notifs.On("NotifyBookingCancelled", mock.Anything, mock.Anything, int64(101), domain.ReservationItem).Return(nil)

		err := s.Cancel(context.Background(), userID, domain.ReservationItem, 101)
		assert.NoError(t, err)
	}
}

func TestService_Cancel_Stranger_Forbidden(t *testing.T) {
	s, m := newTestService()

	m.bookings.On("GetByID", mock.Anything, int64(101)).Return(&domain.Booking{
		ID: 101, OwnerID: 1, BorrowerID: 2, Status: domain.BookingPending,
	}, nil)

	err := s.Cancel(context.Background(), 99, domain.ReservationItem, 101)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestService_Cancel_Completed_Invalid(t *testing.T) {
	s, m := newTestService()

	m.bookings.On("GetByID", mock.Anything, int64(101)).Return(&domain.Booking{
		ID: 101, OwnerID: 1, BorrowerID: 2, Status: domain.BookingCompleted,
	}, nil)
	m.bookings.On("UpdateStatusIf", mock.Anything, int64(101),
		[]domain.BookingStatus{domain.BookingPending, domain.BookingConfirmed},
		domain.BookingCancelled).Return(false, nil)

	err := s.Cancel(context.Background(), 2, domain.ReservationItem, 101)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestService_GetItemBooking_NotFound(t *testing.T) {
	s, m := newTestService()

	m.bookings.On("GetByID", mock.Anything, int64(404)).Return(nil, gorm.ErrRecordNotFound)

	_, err := s.GetItemBooking(context.Background(), 1, 404)
	assert.ErrorIs(t, err, ErrNotFound)
}
