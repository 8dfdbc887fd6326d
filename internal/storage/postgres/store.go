package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/uzmarket/delivery/internal/domain/catalog"
	"github.com/uzmarket/delivery/internal/domain/order"
	"github.com/uzmarket/delivery/internal/domain/user"
	"github.com/uzmarket/delivery/internal/storage"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.ProductStore = (*Store)(nil)
var _ storage.OrderStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const uniqueViolation = "23505"

// translate maps driver errors onto the shared storage sentinels.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", what, storage.ErrDuplicate)
	}
	return err
}

// --- UserStore --------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, is_staff, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, u.ID, u.Username, u.Email, u.PasswordHash, u.IsStaff, u.IsActive, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return user.User{}, translate(err, "user "+u.Username)
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, is_staff, is_active, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id), "user "+id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, is_staff, is_active, created_at, updated_at
		FROM users
		WHERE lower(username) = lower($1)
	`, username), "user "+username)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, is_staff, is_active, created_at, updated_at
		FROM users
		WHERE lower(email) = lower($1)
	`, email), "user "+email)
}

func (s *Store) GetUserByLogin(ctx context.Context, login string) (user.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, is_staff, is_active, created_at, updated_at
		FROM users
		WHERE lower(username) = lower($1) OR lower(email) = lower($1)
	`, login), "user "+login)
}

func (s *Store) scanUser(row *sql.Row, what string) (user.User, error) {
	var u user.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsStaff, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return user.User{}, translate(err, what)
	}
	return u, nil
}

// --- ProductStore -----------------------------------------------------------

func (s *Store) CreateProduct(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, description, price, quantity, image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, p.ID, p.Name, p.Description, p.Price, p.Quantity, toNullString(p.Image), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return catalog.Product{}, translate(err, "product "+p.Name)
	}
	return p, nil
}

func (s *Store) UpdateProduct(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	existing, err := s.GetProduct(ctx, p.ID)
	if err != nil {
		return catalog.Product{}, err
	}

	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, description = $3, price = $4, quantity = $5, image = $6, updated_at = $7
		WHERE id = $1
	`, p.ID, p.Name, p.Description, p.Price, p.Quantity, toNullString(p.Image), p.UpdatedAt)
	if err != nil {
		return catalog.Product{}, translate(err, "product "+p.Name)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return catalog.Product{}, fmt.Errorf("product %s: %w", p.ID, storage.ErrNotFound)
	}
	return p, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (catalog.Product, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, price, quantity, image, created_at, updated_at
		FROM products
		WHERE id = $1
	`, id)

	var (
		p     catalog.Product
		image sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Quantity, &image, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return catalog.Product{}, translate(err, "product "+id)
	}
	p.Image = image.String
	return p, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, price, quantity, image, created_at, updated_at
		FROM products
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []catalog.Product
	for rows.Next() {
		var (
			p     catalog.Product
			image sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Quantity, &image, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Image = image.String
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM products WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("product %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// --- OrderStore -------------------------------------------------------------

func (s *Store) CreateOrder(ctx context.Context, o order.Order) (order.Order, error) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO orders (id, quantity, status, user_id, product_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, o.ID, o.Quantity, string(o.Status), o.UserID, o.ProductID, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return order.Order{}, translate(err, "order "+o.ID)
	}
	return o, nil
}

func (s *Store) UpdateOrder(ctx context.Context, o order.Order) (order.Order, error) {
	existing, err := s.GetOrder(ctx, o.ID)
	if err != nil {
		return order.Order{}, err
	}

	o.UserID = existing.UserID
	o.CreatedAt = existing.CreatedAt
	o.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET quantity = $2, status = $3, product_id = $4, updated_at = $5
		WHERE id = $1
	`, o.ID, o.Quantity, string(o.Status), o.ProductID, o.UpdatedAt)
	if err != nil {
		return order.Order{}, translate(err, "order "+o.ID)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return order.Order{}, fmt.Errorf("order %s: %w", o.ID, storage.ErrNotFound)
	}
	return o, nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (order.Order, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, quantity, status, user_id, product_id, created_at, updated_at
		FROM orders
		WHERE id = $1
	`, id)

	var (
		o      order.Order
		status string
	)
	if err := row.Scan(&o.ID, &o.Quantity, &status, &o.UserID, &o.ProductID, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return order.Order{}, translate(err, "order "+id)
	}
	o.Status = order.Status(status)
	return o, nil
}

func (s *Store) ListOrders(ctx context.Context) ([]order.Order, error) {
	return s.listOrders(ctx, `
		SELECT id, quantity, status, user_id, product_id, created_at, updated_at
		FROM orders
		ORDER BY created_at
	`)
}

func (s *Store) ListOrdersByUser(ctx context.Context, userID string) ([]order.Order, error) {
	return s.listOrders(ctx, `
		SELECT id, quantity, status, user_id, product_id, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at
	`, userID)
}

func (s *Store) listOrders(ctx context.Context, query string, args ...interface{}) ([]order.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []order.Order
	for rows.Next() {
		var (
			o      order.Order
			status string
		)
		if err := rows.Scan(&o.ID, &o.Quantity, &status, &o.UserID, &o.ProductID, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		o.Status = order.Status(status)
		result = append(result, o)
	}
	return result, rows.Err()
}

func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM orders WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("order %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

func toNullString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}
