// Package catalog implements staff-gated product management.
package catalog

import (
	"context"
	"strings"

	"github.com/uzmarket/delivery/internal/domain/catalog"
	"github.com/uzmarket/delivery/internal/domain/user"
	"github.com/uzmarket/delivery/internal/errors"
	"github.com/uzmarket/delivery/internal/storage"
	"github.com/uzmarket/delivery/pkg/logger"
)

// Service manages the product catalog. Every operation requires a staff
// actor.
type Service struct {
	products storage.ProductStore
	log      *logger.Logger
}

// New constructs a catalog service.
func New(products storage.ProductStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("catalog")
	}
	return &Service{
		products: products,
		log:      log,
	}
}

func requireStaff(actor user.User) error {
	if actor.ID == "" {
		return errors.Unauthorized("")
	}
	if !actor.IsStaff {
		return errors.Forbidden("staff access required")
	}
	return nil
}

// Create registers a new product. Names are unique.
func (s *Service) Create(ctx context.Context, actor user.User, name, description string, price int64, quantity int, image string) (catalog.Product, error) {
	if err := requireStaff(actor); err != nil {
		return catalog.Product{}, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return catalog.Product{}, errors.Validation("name is required")
	}
	if price < 0 {
		return catalog.Product{}, errors.Validation("price must not be negative")
	}
	if quantity < 0 {
		return catalog.Product{}, errors.Validation("quantity must not be negative")
	}

	created, err := s.products.CreateProduct(ctx, catalog.Product{
		Name:        name,
		Description: strings.TrimSpace(description),
		Price:       price,
		Quantity:    quantity,
		Image:       strings.TrimSpace(image),
	})
	if err != nil {
		if storage.IsDuplicate(err) {
			return catalog.Product{}, errors.Conflict("product name already exists")
		}
		return catalog.Product{}, err
	}

	s.log.WithField("product_id", created.ID).
		WithField("name", created.Name).
		WithField("actor_id", actor.ID).
		Info("product created")
	return created, nil
}

// List returns all products.
func (s *Service) List(ctx context.Context, actor user.User) ([]catalog.Product, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	return s.products.ListProducts(ctx)
}

// Get returns one product by id.
func (s *Service) Get(ctx context.Context, actor user.User, id string) (catalog.Product, error) {
	if err := requireStaff(actor); err != nil {
		return catalog.Product{}, err
	}

	p, err := s.products.GetProduct(ctx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			return catalog.Product{}, errors.NotFound("product", id)
		}
		return catalog.Product{}, err
	}
	return p, nil
}

// Update applies a partial update. Only non-nil fields change.
func (s *Service) Update(ctx context.Context, actor user.User, id string, name, description *string, price *int64, quantity *int, image *string) (catalog.Product, error) {
	if err := requireStaff(actor); err != nil {
		return catalog.Product{}, err
	}

	p, err := s.products.GetProduct(ctx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			return catalog.Product{}, errors.NotFound("product", id)
		}
		return catalog.Product{}, err
	}

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return catalog.Product{}, errors.Validation("name cannot be empty")
		}
		p.Name = trimmed
	}
	if description != nil {
		p.Description = strings.TrimSpace(*description)
	}
	if price != nil {
		if *price < 0 {
			return catalog.Product{}, errors.Validation("price must not be negative")
		}
		p.Price = *price
	}
	if quantity != nil {
		if *quantity < 0 {
			return catalog.Product{}, errors.Validation("quantity must not be negative")
		}
		p.Quantity = *quantity
	}
	if image != nil {
		p.Image = strings.TrimSpace(*image)
	}

	updated, err := s.products.UpdateProduct(ctx, p)
	if err != nil {
		if storage.IsDuplicate(err) {
			return catalog.Product{}, errors.Conflict("product name already exists")
		}
		if storage.IsNotFound(err) {
			return catalog.Product{}, errors.NotFound("product", id)
		}
		return catalog.Product{}, err
	}

	s.log.WithField("product_id", updated.ID).
		WithField("actor_id", actor.ID).
		Info("product updated")
	return updated, nil
}

// Delete removes a product unconditionally. Existing orders keep their
// product reference and tolerate the gap at read time.
func (s *Service) Delete(ctx context.Context, actor user.User, id string) error {
	if err := requireStaff(actor); err != nil {
		return err
	}

	if err := s.products.DeleteProduct(ctx, id); err != nil {
		if storage.IsNotFound(err) {
			return errors.NotFound("product", id)
		}
		return err
	}

	s.log.WithField("product_id", id).
		WithField("actor_id", actor.ID).
		Info("product deleted")
	return nil
}
