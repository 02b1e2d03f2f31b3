package models

import "time"

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	TempPassword *string   `json:"-"`
	CreatedAt    time.Time `json:"createdTimestamp"`
	UpdatedAt    time.Time `json:"updatedTimestamp"`
}

// HasResetToken reports whether token matches the stored temporary password.
// The comparison is exact; a cleared token never matches.
func (u *User) HasResetToken(token string) bool {
	return u.TempPassword != nil && token != "" && *u.TempPassword == token
}

// Collection kinds owned by a user. Each kind has its own table of bottle
// line items.
const (
	CollectionCellar = "cellar"
	CollectionList   = "list"
)

type Collection struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Kind      string    `json:"kind"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdTimestamp"`
}

type LineItem struct {
	ID           string  `json:"id"`
	CollectionID string  `json:"collectionId"`
	BottleID     string  `json:"bottleId"`
	Quantity     int     `json:"quantity"`
	Price        float64 `json:"price"`
}

// Session is the server-side record behind an authentication token.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Remember  bool      `json:"remember"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}
