package command

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/vinocellar/account-service/internal/apperr"
	"github.com/vinocellar/account-service/internal/cqrs"
	"github.com/vinocellar/account-service/internal/events"
	"github.com/vinocellar/account-service/internal/models"
	"github.com/vinocellar/account-service/internal/repository"
	"github.com/vinocellar/account-service/internal/utils"
	"github.com/vinocellar/account-service/internal/validation"
)

// Store gives the command side access to the write repositories.
type Store interface {
	Users() repository.UserStore
	WithTx(ctx context.Context, fn func(users repository.UserStore, collections repository.CollectionStore) error) error
}

// ViewCache keeps the Redis read model in step with the write store.
type ViewCache interface {
	CacheUserView(ctx context.Context, view *models.UserView)
	InvalidateUserView(ctx context.Context, userID string)
}

type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

type SessionTerminator interface {
	DeleteAllForUser(ctx context.Context, userID string) error
}

// Caller-facing messages for unexpected failures. Causes are logged only.
const (
	msgRegisterFailed       = "An error occurred during registration"
	msgUpdateFailed         = "An error occurred while updating the profile"
	msgChangePasswordFailed = "An error occurred while changing the password"
	msgResetRequestFailed   = "An error occurred while requesting a password reset"
	msgResetFailed          = "An error occurred while resetting the password"
	msgDeleteFailed         = "An error occurred while deleting the account"
)

// UserCommandService writes user state to PostgreSQL and keeps the Redis
// read model up to date.
type UserCommandService struct {
	store        Store
	views        ViewCache
	hasher       utils.PasswordHasher
	sessions     SessionTerminator
	publisher    EventPublisher
	resetURLBase string

	now      func() time.Time
	newID    func() string
	newToken func() string
}

func NewUserCommandService(
	store Store,
	views ViewCache,
	hasher utils.PasswordHasher,
	sessions SessionTerminator,
	publisher EventPublisher,
	resetURLBase string,
) *UserCommandService {
	return &UserCommandService{
		store:        store,
		views:        views,
		hasher:       hasher,
		sessions:     sessions,
		publisher:    publisher,
		resetURLBase: strings.TrimRight(resetURLBase, "/"),
		now:          time.Now,
		newID:        func() string { return utils.GenerateID("usr") },
		newToken:     utils.GenerateResetToken,
	}
}

// Register creates a user. It does not log the user in.
func (s *UserCommandService) Register(ctx context.Context, cmd cqrs.RegisterUserCommand) (*models.UserView, error) {
	verr := validation.Struct(cmd)
	if !verr.Has("email") {
		exists, err := s.store.Users().ExistsByEmail(ctx, cmd.Email)
		if err != nil {
			return nil, s.fail(ctx, msgRegisterFailed, err)
		}
		if exists {
			verr = apperr.Append(verr, "email", "unique", validation.MsgEmailTaken)
		}
	}
	if verr != nil {
		return nil, verr
	}

	passwordHash, err := s.hasher.Hash(cmd.Password)
	if err != nil {
		return nil, s.fail(ctx, msgRegisterFailed, err)
	}
	now := s.now().UTC()
	user := &models.User{
		ID:           s.newID(),
		Name:         cmd.Name,
		Email:        cmd.Email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration for the same email.
		if errors.Is(err, apperr.ErrEmailTaken) {
			return nil, apperr.Field("email", "unique", validation.MsgEmailTaken)
		}
		return nil, s.fail(ctx, msgRegisterFailed, err)
	}

	view := models.NewUserView(user)
	s.views.CacheUserView(ctx, view)
	s.publish(ctx, events.UserCreated, events.UserCreatedEvent{UserID: user.ID, Email: user.Email, Name: user.Name})
	return view, nil
}

// UpdateProfile changes name and email. Email uniqueness is not re-checked
// here; a store-level conflict surfaces as an OperationError.
func (s *UserCommandService) UpdateProfile(ctx context.Context, cmd cqrs.UpdateProfileCommand) (*models.UserView, error) {
	if verr := validation.Struct(cmd); verr != nil {
		return nil, verr
	}

	user, err := s.store.Users().GetByID(ctx, cmd.UserID)
	if err != nil {
		if errors.Is(err, apperr.ErrUserNotFound) {
			return nil, err
		}
		return nil, s.fail(ctx, msgUpdateFailed, err)
	}

	user.Name = cmd.Name
	user.Email = cmd.Email
	user.UpdatedAt = s.now().UTC()
	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, s.fail(ctx, msgUpdateFailed, err)
	}

	view := models.NewUserView(user)
	s.views.CacheUserView(ctx, view)
	s.publish(ctx, events.UserUpdated, events.UserUpdatedEvent{UserID: user.ID, Email: user.Email, Name: user.Name})
	return view, nil
}

func (s *UserCommandService) ChangePassword(ctx context.Context, cmd cqrs.ChangePasswordCommand) error {
	verr := validation.Struct(cmd)
	if !verr.Has("oldPassword") {
		user, err := s.store.Users().GetByID(ctx, cmd.UserID)
		if err != nil {
			if errors.Is(err, apperr.ErrUserNotFound) {
				return err
			}
			return s.fail(ctx, msgChangePasswordFailed, err)
		}
		if !s.hasher.Check(cmd.OldPassword, user.PasswordHash) {
			verr = apperr.Append(verr, "oldPassword", "incorrect", validation.MsgOldPasswordWrong)
		}
	}
	if verr != nil {
		return verr
	}

	passwordHash, err := s.hasher.Hash(cmd.Password)
	if err != nil {
		return s.fail(ctx, msgChangePasswordFailed, err)
	}
	if err := s.store.Users().UpdatePassword(ctx, cmd.UserID, passwordHash); err != nil {
		return s.fail(ctx, msgChangePasswordFailed, err)
	}
	return nil
}

// RequestPasswordReset stores a fresh temporary password, replacing any
// earlier one, and asks the notifier to mail the reset link. Delivery is
// fire-and-forget.
func (s *UserCommandService) RequestPasswordReset(ctx context.Context, cmd cqrs.RequestPasswordResetCommand) error {
	verr := validation.Struct(cmd)
	var user *models.User
	if !verr.Has("email") {
		var err error
		user, err = s.store.Users().GetByEmail(ctx, cmd.Email)
		if errors.Is(err, apperr.ErrUserNotFound) {
			verr = apperr.Append(verr, "email", "exists", validation.MsgEmailUnknown)
		} else if err != nil {
			return s.fail(ctx, msgResetRequestFailed, err)
		}
	}
	if verr != nil {
		return verr
	}

	token := s.newToken()
	if err := s.store.Users().SetTempPassword(ctx, user.ID, token); err != nil {
		return s.fail(ctx, msgResetRequestFailed, err)
	}

	s.publish(ctx, events.UserPasswordResetRequested, events.PasswordResetRequestedEvent{
		UserID:    user.ID,
		Name:      user.Name,
		Email:     user.Email,
		ResetLink: s.resetLink(user.ID, token),
	})
	return nil
}

// CompletePasswordReset exchanges a temporary password for a new password.
// The token is checked before the new password, and is consumed by the same
// statement that stores the new hash.
func (s *UserCommandService) CompletePasswordReset(ctx context.Context, cmd cqrs.CompletePasswordResetCommand) error {
	user, err := s.store.Users().GetByID(ctx, cmd.UserID)
	if err != nil {
		if errors.Is(err, apperr.ErrUserNotFound) {
			return apperr.ErrResetTokenMismatch
		}
		return s.fail(ctx, msgResetFailed, err)
	}
	if !user.HasResetToken(cmd.Token) {
		return apperr.ErrResetTokenMismatch
	}

	if verr := validation.Struct(cmd); verr != nil {
		return verr
	}

	passwordHash, err := s.hasher.Hash(cmd.Password)
	if err != nil {
		return s.fail(ctx, msgResetFailed, err)
	}
	if err := s.store.Users().ResetPassword(ctx, user.ID, cmd.Token, passwordHash); err != nil {
		if errors.Is(err, apperr.ErrResetTokenMismatch) {
			return err
		}
		return s.fail(ctx, msgResetFailed, err)
	}
	return nil
}

// DeleteAccount removes the user's line items, then their cellars and lists,
// then the user, in one transaction. Sessions are ended afterwards.
func (s *UserCommandService) DeleteAccount(ctx context.Context, cmd cqrs.DeleteAccountCommand) error {
	verr := validation.Struct(cmd)
	if !verr.Has("password") {
		user, err := s.store.Users().GetByID(ctx, cmd.UserID)
		if err != nil {
			if errors.Is(err, apperr.ErrUserNotFound) {
				return err
			}
			return s.fail(ctx, msgDeleteFailed, err)
		}
		if !s.hasher.Check(cmd.Password, user.PasswordHash) {
			verr = apperr.Append(verr, "password", "incorrect", validation.MsgPasswordWrong)
		}
	}
	if verr != nil {
		return verr
	}

	deleted := events.UserDeletedEvent{UserID: cmd.UserID}
	err := s.store.WithTx(ctx, func(users repository.UserStore, collections repository.CollectionStore) error {
		for _, kind := range []string{models.CollectionCellar, models.CollectionList} {
			items, err := collections.DeleteLineItems(ctx, kind, cmd.UserID)
			if err != nil {
				return err
			}
			removed, err := collections.DeleteCollections(ctx, kind, cmd.UserID)
			if err != nil {
				return err
			}
			deleted.LineItemsDeleted += items
			if kind == models.CollectionCellar {
				deleted.CellarsDeleted = removed
			} else {
				deleted.ListsDeleted = removed
			}
		}
		return users.Delete(ctx, cmd.UserID)
	})
	if err != nil {
		return s.fail(ctx, msgDeleteFailed, err)
	}

	s.views.InvalidateUserView(ctx, cmd.UserID)
	if err := s.sessions.DeleteAllForUser(ctx, cmd.UserID); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("user_id", cmd.UserID).Msg("failed to end sessions of deleted user")
	}
	s.publish(ctx, events.UserDeleted, deleted)
	return nil
}

func (s *UserCommandService) resetLink(userID, token string) string {
	return s.resetURLBase + "/" + url.PathEscape(userID) + "/" + url.PathEscape(token)
}

func (s *UserCommandService) publish(ctx context.Context, eventType string, data any) {
	if err := s.publisher.Publish(ctx, events.UserEventsStream, eventType, data); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("event", eventType).Msg("failed to publish event")
	}
}

func (s *UserCommandService) fail(ctx context.Context, message string, err error) error {
	log.Ctx(ctx).Error().Err(err).Msg(message)
	return apperr.Operation(message, err)
}
