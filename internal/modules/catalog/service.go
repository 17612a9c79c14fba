package catalog

import (
	"context"
	"errors"
	"strings"

	"tolio/internal/domain"

	"gorm.io/gorm"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("listing not found")
	ErrForbidden  = errors.New("user is not allowed to perform this action")
)

type itemRepo interface {
	Create(ctx context.Context, it *domain.Item) error
	GetByID(ctx context.Context, id int64) (*domain.Item, error)
	ListAvailable(ctx context.Context, limit, offset int) ([]domain.Item, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Item, error)
	SetAvailability(ctx context.Context, id, ownerID int64, available bool) (bool, error)
}

type serviceRepo interface {
	Create(ctx context.Context, s *domain.Service) error
	GetByID(ctx context.Context, id int64) (*domain.Service, error)
	ListAvailable(ctx context.Context, limit, offset int) ([]domain.Service, error)
	ListByProvider(ctx context.Context, providerID int64) ([]domain.Service, error)
	SetAvailability(ctx context.Context, id, providerID int64, available bool) (bool, error)
}

// Service manages the rental listings both booking kinds are created
// against.
type Service struct {
	items    itemRepo
	services serviceRepo
}

func NewService(items itemRepo, services serviceRepo) *Service {
	return &Service{items: items, services: services}
}

func (s *Service) CreateItem(ctx context.Context, ownerID int64, req CreateItemRequest) (*domain.Item, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" || req.PricePerDay <= 0 {
		return nil, ErrValidation
	}

	it := &domain.Item{
		OwnerID:     ownerID,
		Title:       title,
		Description: req.Description,
		PricePerDay: req.PricePerDay,
		Location:    req.Location,
		IsAvailable: true,
	}
	if err := s.items.Create(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *Service) CreateService(ctx context.Context, providerID int64, req CreateServiceRequest) (*domain.Service, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" || req.PricePerHour <= 0 {
		return nil, ErrValidation
	}

	priceType := req.PriceType
	if priceType == "" {
		priceType = domain.PriceTypeHour
	}
	if priceType != domain.PriceTypeHour && priceType != domain.PriceTypeFixed {
		return nil, ErrValidation
	}

	svc := &domain.Service{
		ProviderID:          providerID,
		Title:               title,
		Description:         req.Description,
		PricePerHour:        req.PricePerHour,
		PriceType:           priceType,
		MayIncludeMaterials: req.MayIncludeMaterials,
		Location:            req.Location,
		IsAvailable:         true,
	}
	if err := s.services.Create(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *Service) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	it, err := s.items.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return it, nil
}

func (s *Service) GetService(ctx context.Context, id int64) (*domain.Service, error) {
	svc, err := s.services.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return svc, nil
}

func (s *Service) ListItems(ctx context.Context, limit, offset int) ([]domain.Item, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.items.ListAvailable(ctx, limit, offset)
}

func (s *Service) ListServices(ctx context.Context, limit, offset int) ([]domain.Service, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.services.ListAvailable(ctx, limit, offset)
}

func (s *Service) ListMyItems(ctx context.Context, ownerID int64) ([]domain.Item, error) {
	return s.items.ListByOwner(ctx, ownerID)
}

func (s *Service) ListMyServices(ctx context.Context, providerID int64) ([]domain.Service, error) {
	return s.services.ListByProvider(ctx, providerID)
}

// SetItemAvailability toggles a listing on or off. The ownership
// check rides in the conditional update.
func (s *Service) SetItemAvailability(ctx context.Context, ownerID, id int64, available bool) error {
	ok, err := s.items.SetAvailability(ctx, id, ownerID, available)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func (s *Service) SetServiceAvailability(ctx context.Context, providerID, id int64, available bool) error {
	ok, err := s.services.SetAvailability(ctx, id, providerID, available)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}
