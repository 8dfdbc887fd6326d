package user

import "time"

// User represents a registered account. PasswordHash holds a bcrypt hash and
// never leaves the service boundary.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsStaff      bool      `json:"is_staff"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Summary is the subset of user fields embedded in order views.
type Summary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Summarize converts a user to its embeddable form.
func Summarize(u User) Summary {
	return Summary{ID: u.ID, Username: u.Username, Email: u.Email}
}
