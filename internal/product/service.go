package product

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/event-marketplace/internal/domain"
)

type Store interface {
	InsertProduct(ctx context.Context, p *domain.Product) error
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	UpdateProduct(ctx context.Context, p *domain.Product) error
	DeleteProduct(ctx context.Context, id, vendorID uuid.UUID) error
	ListProductsByVendor(ctx context.Context, vendorID uuid.UUID) ([]domain.Product, error)
	ListProductsByStall(ctx context.Context, stallID uuid.UUID) ([]domain.Product, error)
	VendorHoldsStall(ctx context.Context, vendorID, stallID uuid.UUID) (bool, error)
}

// Service manages the catalogue vendors sell from their stalls.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

type Input struct {
	StallID     *uuid.UUID
	Name        string
	Description string
	Price       float64
	Image       string
}

func (in Input) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return domain.Invalid("Product name is required")
	}
	if in.Price < 0 {
		return domain.Invalid("Product price cannot be negative")
	}
	return nil
}

// checkStall rejects a stall the vendor has no active booking on.
func (s *Service) checkStall(ctx context.Context, vendorID uuid.UUID, stallID *uuid.UUID) error {
	if stallID == nil {
		return nil
	}
	ok, err := s.store.VendorHoldsStall(ctx, vendorID, *stallID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.Forbidden("You can only list products on stalls you have booked")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, vendorID uuid.UUID, in Input) (*domain.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := s.checkStall(ctx, vendorID, in.StallID); err != nil {
		return nil, err
	}
	p := &domain.Product{
		ID:          uuid.New(),
		VendorID:    vendorID,
		StallID:     in.StallID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Image:       in.Image,
	}
	if err := s.store.InsertProduct(ctx, p); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("Stall not found")
		}
		return nil, err
	}
	return p, nil
}

func (s *Service) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]domain.Product, error) {
	return s.store.ListProductsByVendor(ctx, vendorID)
}

func (s *Service) ListByStall(ctx context.Context, stallID uuid.UUID) ([]domain.Product, error) {
	return s.store.ListProductsByStall(ctx, stallID)
}

// Update replaces the product's fields. Only its vendor may change it.
func (s *Service) Update(ctx context.Context, vendorID, id uuid.UUID, in Input) (*domain.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p, err := s.owned(ctx, vendorID, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkStall(ctx, vendorID, in.StallID); err != nil {
		return nil, err
	}

	p.StallID = in.StallID
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.Price = in.Price
	p.Image = in.Image
	if err := s.store.UpdateProduct(ctx, p); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("Product not found")
		}
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, vendorID, id uuid.UUID) error {
	if _, err := s.owned(ctx, vendorID, id); err != nil {
		return err
	}
	err := s.store.DeleteProduct(ctx, id, vendorID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NotFound("Product not found")
	}
	return err
}

func (s *Service) owned(ctx context.Context, vendorID, id uuid.UUID) (*domain.Product, error) {
	p, err := s.store.GetProduct(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound("Product not found")
	}
	if err != nil {
		return nil, err
	}
	if p.VendorID != vendorID {
		return nil, domain.Forbidden("You can only modify your own products")
	}
	return p, nil
}
