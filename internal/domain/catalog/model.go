package catalog

import "time"

// Product is a purchasable catalog entry. Price is a whole-unit UZS amount.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	Quantity    int       `json:"quantity"`
	Image       string    `json:"image,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Summary is the subset of product fields embedded in order views.
type Summary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// Summarize converts a product to its embeddable form.
func Summarize(p Product) Summary {
	return Summary{ID: p.ID, Name: p.Name, Price: p.Price}
}
