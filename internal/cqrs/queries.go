package cqrs

// GetUserQuery fetches a single user by ID, subject to ownership check.
type GetUserQuery struct {
	UserID           string
	RequestingUserID string
}

// GetDashboardQuery fetches collection totals for the requesting user.
type GetDashboardQuery struct {
	UserID           string
	RequestingUserID string
}

// VerifyResetTokenQuery checks a temporary password without consuming it.
type VerifyResetTokenQuery struct {
	UserID string
	Token  string
}
