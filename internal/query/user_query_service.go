package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/vinocellar/account-service/internal/apperr"
	"github.com/vinocellar/account-service/internal/cqrs"
	"github.com/vinocellar/account-service/internal/models"
)

type UserViewReader interface {
	GetByID(ctx context.Context, id string) (*models.UserView, error)
}

// UserLookup reads the write model, which alone holds the temporary password.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type TotalsReader interface {
	Totals(ctx context.Context, kind, userID string) (models.CollectionTotals, error)
}

// UserQueryService reads user views from the Redis cache (with a Postgres fallback).
type UserQueryService struct {
	readRepo    UserViewReader
	users       UserLookup
	collections TotalsReader
}

func NewUserQueryService(readRepo UserViewReader, users UserLookup, collections TotalsReader) *UserQueryService {
	return &UserQueryService{readRepo: readRepo, users: users, collections: collections}
}

func (s *UserQueryService) GetUser(ctx context.Context, q cqrs.GetUserQuery) (*models.UserView, error) {
	if q.UserID != q.RequestingUserID {
		return nil, apperr.ErrForbidden
	}
	return s.readRepo.GetByID(ctx, q.UserID)
}

// GetDashboard totals the bottles in the user's cellars and lists.
func (s *UserQueryService) GetDashboard(ctx context.Context, q cqrs.GetDashboardQuery) (*models.DashboardView, error) {
	if q.UserID != q.RequestingUserID {
		return nil, apperr.ErrForbidden
	}
	if _, err := s.readRepo.GetByID(ctx, q.UserID); err != nil {
		return nil, err
	}

	cellars, err := s.collections.Totals(ctx, models.CollectionCellar, q.UserID)
	if err != nil {
		return nil, fmt.Errorf("cellar totals: %w", err)
	}
	lists, err := s.collections.Totals(ctx, models.CollectionList, q.UserID)
	if err != nil {
		return nil, fmt.Errorf("list totals: %w", err)
	}
	return &models.DashboardView{UserID: q.UserID, Cellars: cellars, Lists: lists}, nil
}

// VerifyResetToken reports whether token is the user's current temporary
// password without consuming it. Unknown users get the same answer as a
// wrong token.
func (s *UserQueryService) VerifyResetToken(ctx context.Context, q cqrs.VerifyResetTokenQuery) error {
	user, err := s.users.GetByID(ctx, q.UserID)
	if errors.Is(err, apperr.ErrUserNotFound) {
		return apperr.ErrResetTokenMismatch
	}
	if err != nil {
		return err
	}
	if !user.HasResetToken(q.Token) {
		return apperr.ErrResetTokenMismatch
	}
	return nil
}
