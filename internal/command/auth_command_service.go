package command

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/vinocellar/account-service/internal/apperr"
	"github.com/vinocellar/account-service/internal/cqrs"
	"github.com/vinocellar/account-service/internal/models"
	"github.com/vinocellar/account-service/internal/repository"
	"github.com/vinocellar/account-service/internal/utils"
	"github.com/vinocellar/account-service/internal/validation"
)

const msgAuthFailed = "An error occurred during authentication"

type UserFinder interface {
	Users() repository.UserStore
}

type SessionStore interface {
	Create(ctx context.Context, userID, email string, remember bool) (*models.Session, error)
	Delete(ctx context.Context, sessionID string) error
}

type TokenIssuer interface {
	Issue(sess *models.Session) (string, error)
}

// AuthResult is a freshly established session and the token that names it.
type AuthResult struct {
	Token   string
	Session *models.Session
	User    *models.UserView
}

// AuthCommandService handles login and logout.
type AuthCommandService struct {
	store    UserFinder
	hasher   utils.PasswordHasher
	sessions SessionStore
	tokens   TokenIssuer
}

func NewAuthCommandService(store UserFinder, hasher utils.PasswordHasher, sessions SessionStore, tokens TokenIssuer) *AuthCommandService {
	return &AuthCommandService{store: store, hasher: hasher, sessions: sessions, tokens: tokens}
}

// Authenticate checks the credentials and opens a session. An unknown email
// is a field error; a wrong password is apperr.ErrInvalidCredentials, which
// does not say which field is wrong.
func (s *AuthCommandService) Authenticate(ctx context.Context, cmd cqrs.LoginCommand) (*AuthResult, error) {
	verr := validation.Struct(cmd)
	var user *models.User
	if !verr.Has("email") {
		var err error
		user, err = s.store.Users().GetByEmail(ctx, cmd.Email)
		if errors.Is(err, apperr.ErrUserNotFound) {
			verr = apperr.Append(verr, "email", "exists", validation.MsgEmailUnknown)
		} else if err != nil {
			return nil, s.fail(ctx, err)
		}
	}
	if verr != nil {
		return nil, verr
	}

	if !s.hasher.Check(cmd.Password, user.PasswordHash) {
		return nil, apperr.ErrInvalidCredentials
	}

	sess, err := s.sessions.Create(ctx, user.ID, user.Email, cmd.Remember)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	token, err := s.tokens.Issue(sess)
	if err != nil {
		_ = s.sessions.Delete(ctx, sess.ID)
		return nil, s.fail(ctx, err)
	}

	log.Ctx(ctx).Info().Str("user_id", user.ID).Bool("remember", cmd.Remember).Msg("user logged in")
	return &AuthResult{Token: token, Session: sess, User: models.NewUserView(user)}, nil
}

// Logout ends the session. An empty or already-ended session is not an error.
func (s *AuthCommandService) Logout(ctx context.Context, cmd cqrs.LogoutCommand) error {
	if cmd.SessionID == "" {
		return nil
	}
	return s.sessions.Delete(ctx, cmd.SessionID)
}

func (s *AuthCommandService) fail(ctx context.Context, err error) error {
	log.Ctx(ctx).Error().Err(err).Msg(msgAuthFailed)
	return apperr.Operation(msgAuthFailed, err)
}
