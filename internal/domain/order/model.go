package order

import (
	"fmt"
	"time"

	"github.com/uzmarket/delivery/internal/domain/catalog"
	"github.com/uzmarket/delivery/internal/domain/user"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusDelivered  Status = "DELIVERED"
	StatusCanceled   Status = "CANCELED"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusDelivered, StatusCanceled:
		return true
	}
	return false
}

// Order is a stored purchase record. The total price is never persisted; it
// is derived from the current product price when the order is read.
type Order struct {
	ID        string    `json:"id"`
	Quantity  int       `json:"quantity"`
	Status    Status    `json:"status"`
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// View is the read model returned by the API: the order plus owner and
// product summaries and the derived total.
type View struct {
	ID         string           `json:"id"`
	Quantity   int              `json:"quantity"`
	Status     Status           `json:"status"`
	TotalPrice string           `json:"total_price"`
	User       user.Summary     `json:"user"`
	Product    *catalog.Summary `json:"product,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// FormatTotal renders a UZS amount the way the API reports it, e.g. "200 UZS".
func FormatTotal(amount int64) string {
	return fmt.Sprintf("%d UZS", amount)
}
