package models

import "time"

// UserView is the read-optimised projection of a user.
// It never exposes PasswordHash or the temporary password.
type UserView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdTimestamp"`
	UpdatedAt time.Time `json:"updatedTimestamp"`
}

// NewUserView projects the write model onto the read model.
func NewUserView(u *User) *UserView {
	return &UserView{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// CollectionTotals aggregates the bottles held in one kind of collection.
type CollectionTotals struct {
	Collections int     `json:"collections"`
	Quantity    int     `json:"quantity"`
	Value       float64 `json:"value"`
}

// DashboardView is what the welcome page shows for a signed-in user.
type DashboardView struct {
	UserID  string           `json:"userId"`
	Cellars CollectionTotals `json:"cellars"`
	Lists   CollectionTotals `json:"lists"`
}
