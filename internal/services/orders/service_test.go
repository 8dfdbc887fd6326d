package orders

import (
	"context"
	"testing"

	"github.com/uzmarket/delivery/internal/domain/catalog"
	"github.com/uzmarket/delivery/internal/domain/order"
	"github.com/uzmarket/delivery/internal/domain/user"
	"github.com/uzmarket/delivery/internal/errors"
	"github.com/uzmarket/delivery/internal/storage/memory"
)

type fixture struct {
	svc     *Service
	store   *memory.Store
	ann     user.User
	staff   user.User
	product catalog.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	ctx := context.Background()

	ann, err := store.CreateUser(ctx, user.User{Username: "ann", Email: "ann@example.com", PasswordHash: "x", IsActive: true})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	staff, err := store.CreateUser(ctx, user.User{Username: "admin", Email: "admin@example.com", PasswordHash: "x", IsStaff: true, IsActive: true})
	if err != nil {
		t.Fatalf("create staff: %v", err)
	}
	product, err := store.CreateProduct(ctx, catalog.Product{Name: "Plov", Price: 100, Quantity: 50})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	return &fixture{
		svc:     New(store, store, store, nil),
		store:   store,
		ann:     ann,
		staff:   staff,
		product: product,
	}
}

func TestOrderScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.svc.Create(ctx, f.ann, f.product.ID, 2)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if v.Status != order.StatusPending {
		t.Fatalf("expected PENDING, got %s", v.Status)
	}
	if v.TotalPrice != "200 UZS" {
		t.Fatalf("expected total 200 UZS, got %s", v.TotalPrice)
	}
	if v.User.Username != "ann" {
		t.Fatalf("expected owner summary, got %+v", v.User)
	}
	if v.Product == nil || v.Product.Name != "Plov" {
		t.Fatalf("expected product summary, got %+v", v.Product)
	}

	mine, err := f.svc.ListMine(ctx, f.ann)
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(mine) != 1 {
		t.Fatalf("expected 1 order, got %d", len(mine))
	}

	if err := f.svc.Delete(ctx, f.ann, v.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.svc.GetMine(ctx, f.ann, v.ID); !errors.Is(err, errors.CodeNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, f.ann, f.product.ID, 0); !errors.Is(err, errors.CodeValidation) {
		t.Fatalf("expected validation error for zero quantity, got %v", err)
	}
	if _, err := f.svc.Create(ctx, f.ann, "missing", 1); !errors.Is(err, errors.CodeNotFound) {
		t.Fatalf("expected not found for unknown product, got %v", err)
	}
	if _, err := f.svc.Create(ctx, user.User{}, f.product.ID, 1); !errors.Is(err, errors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for anonymous create, got %v", err)
	}
}

func TestStaffScopes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.svc.Create(ctx, f.ann, f.product.ID, 1)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if _, err := f.svc.ListAll(ctx, f.ann); !errors.Is(err, errors.CodeForbidden) {
		t.Fatalf("expected forbidden for non-staff list, got %v", err)
	}
	all, err := f.svc.ListAll(ctx, f.staff)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 order, got %d", len(all))
	}

	if _, err := f.svc.Get(ctx, f.ann, v.ID); !errors.Is(err, errors.CodeForbidden) {
		t.Fatalf("expected forbidden for non-staff get, got %v", err)
	}
	if _, err := f.svc.Get(ctx, f.staff, v.ID); err != nil {
		t.Fatalf("staff get: %v", err)
	}

	if _, err := f.svc.UpdateStatus(ctx, f.ann, v.ID, order.StatusProcessing); !errors.Is(err, errors.CodeForbidden) {
		t.Fatalf("expected forbidden for non-staff status change, got %v", err)
	}
	updated, err := f.svc.UpdateStatus(ctx, f.staff, v.ID, order.StatusProcessing)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != order.StatusProcessing {
		t.Fatalf("expected PROCESSING, got %s", updated.Status)
	}

	if _, err := f.svc.UpdateStatus(ctx, f.staff, v.ID, order.Status("SHIPPED")); !errors.Is(err, errors.CodeValidation) {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}
}

func TestOwnershipGates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other, err := f.store.CreateUser(ctx, user.User{Username: "bob", Email: "bob@example.com", PasswordHash: "x", IsActive: true})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	v, err := f.svc.Create(ctx, f.ann, f.product.ID, 1)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	// Reads and updates never reveal whether a foreign order exists.
	if _, err := f.svc.GetMine(ctx, other, v.ID); !errors.Is(err, errors.CodeNotFound) {
		t.Fatalf("expected not found for foreign order, got %v", err)
	}
	if _, err := f.svc.Update(ctx, other, v.ID, 3, f.product.ID); !errors.Is(err, errors.CodeNotFound) {
		t.Fatalf("expected not found for foreign update, got %v", err)
	}
	if err := f.svc.Delete(ctx, other, v.ID); !errors.Is(err, errors.CodeForbidden) {
		t.Fatalf("expected forbidden for foreign delete, got %v", err)
	}

	// The owner's update still goes through untouched.
	updated, err := f.svc.Update(ctx, f.ann, v.ID, 3, f.product.ID)
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", updated.Quantity)
	}
}

func TestDeleteRequiresPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.svc.Create(ctx, f.ann, f.product.ID, 1)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, f.staff, v.ID, order.StatusDelivered); err != nil {
		t.Fatalf("update status: %v", err)
	}

	if err := f.svc.Delete(ctx, f.ann, v.ID); !errors.Is(err, errors.CodeForbidden) {
		t.Fatalf("expected forbidden for non-pending delete, got %v", err)
	}
}

func TestUpdateRepricesAgainstCurrentProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.svc.Create(ctx, f.ann, f.product.ID, 2)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	// Reprice the product; the derived total must follow on the next read.
	p := f.product
	p.Price = 150
	if _, err := f.store.UpdateProduct(ctx, p); err != nil {
		t.Fatalf("update product: %v", err)
	}

	got, err := f.svc.GetMine(ctx, f.ann, v.ID)
	if err != nil {
		t.Fatalf("get mine: %v", err)
	}
	if got.TotalPrice != "300 UZS" {
		t.Fatalf("expected total 300 UZS, got %s", got.TotalPrice)
	}
}

func TestViewToleratesDeletedProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.svc.Create(ctx, f.ann, f.product.ID, 2)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if err := f.store.DeleteProduct(ctx, f.product.ID); err != nil {
		t.Fatalf("delete product: %v", err)
	}

	got, err := f.svc.GetMine(ctx, f.ann, v.ID)
	if err != nil {
		t.Fatalf("get mine: %v", err)
	}
	if got.Product != nil {
		t.Fatalf("expected missing product summary, got %+v", got.Product)
	}
	if got.TotalPrice != "0 UZS" {
		t.Fatalf("expected zero total, got %s", got.TotalPrice)
	}
}
