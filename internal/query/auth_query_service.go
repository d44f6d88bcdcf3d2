package query

import (
	"context"
	"errors"
	"time"

	"github.com/accountz/ledger-service/internal/ledger"
	"github.com/accountz/ledger-service/shared/cqrs"
	"github.com/accountz/ledger-service/shared/middleware"
	"github.com/accountz/ledger-service/shared/utils"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = middleware.ErrInvalidToken
)

// AuthQueryService handles login and token refresh. There's no CommandService
// for auth because these operations don't mutate application state.
type AuthQueryService struct {
	users  CredentialReader
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthQueryService(users CredentialReader, secret []byte, ttl time.Duration) *AuthQueryService {
	return &AuthQueryService{users: users, secret: secret, ttl: ttl, now: time.Now}
}

func (s *AuthQueryService) Login(ctx context.Context, cmd cqrs.LoginCommand) (string, error) {
	user, err := s.users.GetByEmail(ctx, cmd.Email)
	if errors.Is(err, ledger.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", ledger.Persistence(err)
	}
	if !utils.CheckPassword(cmd.Password, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}
	return middleware.SignToken(s.secret, user.ID, user.Email, s.ttl, s.now())
}

func (s *AuthQueryService) RefreshToken(_ context.Context, cmd cqrs.RefreshTokenCommand) (string, error) {
	claims, err := middleware.ParseToken(s.secret, cmd.Token)
	if err != nil {
		return "", ErrInvalidToken
	}
	return middleware.SignToken(s.secret, claims.UserID, claims.Email, s.ttl, s.now())
}
