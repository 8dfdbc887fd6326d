// Package orders implements the order lifecycle: creation, listing, updates,
// status transitions and deletion.
package orders

import (
	"context"

	"github.com/uzmarket/delivery/internal/domain/catalog"
	"github.com/uzmarket/delivery/internal/domain/order"
	"github.com/uzmarket/delivery/internal/domain/user"
	"github.com/uzmarket/delivery/internal/errors"
	"github.com/uzmarket/delivery/internal/storage"
	"github.com/uzmarket/delivery/pkg/logger"
)

// Service manages orders. Reads return order.View values with the total
// derived from the current product price.
type Service struct {
	orders   storage.OrderStore
	products storage.ProductStore
	users    storage.UserStore
	log      *logger.Logger
}

// New constructs an orders service.
func New(orders storage.OrderStore, products storage.ProductStore, users storage.UserStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("orders")
	}
	return &Service{
		orders:   orders,
		products: products,
		users:    users,
		log:      log,
	}
}

func requireUser(actor user.User) error {
	if actor.ID == "" {
		return errors.Unauthorized("")
	}
	return nil
}

func requireStaff(actor user.User) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	if !actor.IsStaff {
		return errors.Forbidden("staff access required")
	}
	return nil
}

// Create places a new order for the acting user. The product must exist and
// the quantity must be positive; new orders always start PENDING.
func (s *Service) Create(ctx context.Context, actor user.User, productID string, quantity int) (order.View, error) {
	if err := requireUser(actor); err != nil {
		return order.View{}, err
	}
	if quantity <= 0 {
		return order.View{}, errors.Validation("quantity must be positive")
	}
	if productID == "" {
		return order.View{}, errors.Validation("product_id is required")
	}

	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		if storage.IsNotFound(err) {
			return order.View{}, errors.NotFound("product", productID)
		}
		return order.View{}, err
	}

	created, err := s.orders.CreateOrder(ctx, order.Order{
		Quantity:  quantity,
		Status:    order.StatusPending,
		UserID:    actor.ID,
		ProductID: productID,
	})
	if err != nil {
		return order.View{}, err
	}

	s.log.WithField("order_id", created.ID).
		WithField("user_id", actor.ID).
		WithField("product_id", productID).
		Info("order created")
	return s.view(ctx, created)
}

// ListAll returns every order. Staff only.
func (s *Service) ListAll(ctx context.Context, actor user.User) ([]order.View, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}

	all, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, all)
}

// Get returns any order by id. Staff only.
func (s *Service) Get(ctx context.Context, actor user.User, id string) (order.View, error) {
	if err := requireStaff(actor); err != nil {
		return order.View{}, err
	}

	o, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			return order.View{}, errors.NotFound("order", id)
		}
		return order.View{}, err
	}
	return s.view(ctx, o)
}

// ListMine returns the acting user's orders.
func (s *Service) ListMine(ctx context.Context, actor user.User) ([]order.View, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}

	mine, err := s.orders.ListOrdersByUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, mine)
}

// GetMine returns one of the acting user's orders. Orders owned by someone
// else are reported as missing.
func (s *Service) GetMine(ctx context.Context, actor user.User, id string) (order.View, error) {
	if err := requireUser(actor); err != nil {
		return order.View{}, err
	}

	o, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			return order.View{}, errors.NotFound("order", id)
		}
		return order.View{}, err
	}
	if o.UserID != actor.ID {
		return order.View{}, errors.NotFound("order", id)
	}
	return s.view(ctx, o)
}

// Update overwrites the quantity and product of the acting user's order,
// regardless of its status. Like GetMine, an order owned by someone else is
// reported as missing.
func (s *Service) Update(ctx context.Context, actor user.User, id string, quantity int, productID string) (order.View, error) {
	if err := requireUser(actor); err != nil {
		return order.View{}, err
	}
	if quantity <= 0 {
		return order.View{}, errors.Validation("quantity must be positive")
	}
	if productID == "" {
		return order.View{}, errors.Validation("product_id is required")
	}

	o, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			return order.View{}, errors.NotFound("order", id)
		}
		return order.View{}, err
	}
	if o.UserID != actor.ID {
		return order.View{}, errors.NotFound("order", id)
	}

	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		if storage.IsNotFound(err) {
			return order.View{}, errors.NotFound("product", productID)
		}
		return order.View{}, err
	}

	o.Quantity = quantity
	o.ProductID = productID

	updated, err := s.orders.UpdateOrder(ctx, o)
	if err != nil {
		return order.View{}, err
	}

	s.log.WithField("order_id", updated.ID).
		WithField("user_id", actor.ID).
		Info("order updated")
	return s.view(ctx, updated)
}

// UpdateStatus moves an order to any valid status. Staff only; transitions
// are deliberately unrestricted.
func (s *Service) UpdateStatus(ctx context.Context, actor user.User, id string, status order.Status) (order.View, error) {
	if err := requireStaff(actor); err != nil {
		return order.View{}, err
	}
	if !status.Valid() {
		return order.View{}, errors.Validation("unknown order status")
	}

	o, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			return order.View{}, errors.NotFound("order", id)
		}
		return order.View{}, err
	}

	o.Status = status
	updated, err := s.orders.UpdateOrder(ctx, o)
	if err != nil {
		return order.View{}, err
	}

	s.log.WithField("order_id", updated.ID).
		WithField("status", string(status)).
		WithField("actor_id", actor.ID).
		Info("order status changed")
	return s.view(ctx, updated)
}

// Delete removes the acting user's order while it is still PENDING.
func (s *Service) Delete(ctx context.Context, actor user.User, id string) error {
	if err := requireUser(actor); err != nil {
		return err
	}

	o, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			return errors.NotFound("order", id)
		}
		return err
	}
	if o.UserID != actor.ID {
		return errors.Forbidden("order belongs to another user")
	}
	if o.Status != order.StatusPending {
		return errors.Forbidden("only pending orders can be deleted")
	}

	if err := s.orders.DeleteOrder(ctx, id); err != nil {
		if storage.IsNotFound(err) {
			return errors.NotFound("order", id)
		}
		return err
	}

	s.log.WithField("order_id", id).
		WithField("user_id", actor.ID).
		Info("order deleted")
	return nil
}

// view assembles the read model for one order. A product deleted after the
// order was placed yields a nil product summary and a zero total.
func (s *Service) view(ctx context.Context, o order.Order) (order.View, error) {
	v := order.View{
		ID:         o.ID,
		Quantity:   o.Quantity,
		Status:     o.Status,
		TotalPrice: order.FormatTotal(0),
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}

	owner, err := s.users.GetUser(ctx, o.UserID)
	if err != nil && !storage.IsNotFound(err) {
		return order.View{}, err
	}
	v.User = user.Summarize(owner)

	p, err := s.products.GetProduct(ctx, o.ProductID)
	if err != nil {
		if storage.IsNotFound(err) {
			return v, nil
		}
		return order.View{}, err
	}

	summary := catalog.Summarize(p)
	v.Product = &summary
	v.TotalPrice = order.FormatTotal(int64(o.Quantity) * p.Price)
	return v, nil
}

func (s *Service) views(ctx context.Context, all []order.Order) ([]order.View, error) {
	result := make([]order.View, 0, len(all))
	for _, o := range all {
		v, err := s.view(ctx, o)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, nil
}
