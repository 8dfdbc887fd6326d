package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/uzmarket/delivery/internal/domain/catalog"
	"github.com/uzmarket/delivery/internal/domain/order"
	"github.com/uzmarket/delivery/internal/domain/user"
	"github.com/uzmarket/delivery/internal/platform/migrations"
	"github.com/uzmarket/delivery/internal/storage"
)

func TestCreateUserMapsUniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505"})

	store := New(db)
	_, err = store.CreateUser(context.Background(), user.User{Username: "ann", Email: "ann@example.com", PasswordHash: "x"})
	if !storage.IsDuplicate(err) {
		t.Fatalf("expected duplicate error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetUserMapsNoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM users").
		WillReturnError(sql.ErrNoRows)

	store := New(db)
	_, err = store.GetUser(context.Background(), "missing")
	if !storage.IsNotFound(err) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestGetOrderScansStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "quantity", "status", "user_id", "product_id", "created_at", "updated_at"}).
		AddRow("o1", 2, "PENDING", "u1", "p1", now, now)
	mock.ExpectQuery("SELECT (.+) FROM orders").WillReturnRows(rows)

	store := New(db)
	o, err := store.GetOrder(context.Background(), "o1")
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if o.Status != order.StatusPending {
		t.Fatalf("expected PENDING, got %s", o.Status)
	}
}

func TestStoreIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := migrations.Apply(ctx, db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	store := New(db)
	suffix := fmt.Sprintf("%d", time.Now().UnixNano())

	u, err := store.CreateUser(ctx, user.User{
		Username:     "ann-" + suffix,
		Email:        fmt.Sprintf("ann-%s@example.com", suffix),
		PasswordHash: "hash",
		IsActive:     true,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	if _, err := store.GetUserByLogin(ctx, u.Email); err != nil {
		t.Fatalf("get by login: %v", err)
	}

	p, err := store.CreateProduct(ctx, catalog.Product{Name: "Plov-" + suffix, Price: 100, Quantity: 10})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	o, err := store.CreateOrder(ctx, order.Order{Quantity: 2, Status: order.StatusPending, UserID: u.ID, ProductID: p.ID})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	mine, err := store.ListOrdersByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(mine) != 1 {
		t.Fatalf("expected 1 order, got %d", len(mine))
	}

	if err := store.DeleteOrder(ctx, o.ID); err != nil {
		t.Fatalf("delete order: %v", err)
	}
	if _, err := store.GetOrder(ctx, o.ID); !storage.IsNotFound(err) {
		t.Fatalf("expected not found after delete, got %v", err)
	}

	if err := store.DeleteProduct(ctx, p.ID); err != nil {
		t.Fatalf("delete product: %v", err)
	}
}
