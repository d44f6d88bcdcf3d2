package query

import (
	"context"
	"errors"

	"github.com/accountz/ledger-service/internal/ledger"
	"github.com/accountz/ledger-service/shared/cqrs"
	"github.com/accountz/ledger-service/shared/models"
)

type UserQueryService struct {
	readRepo UserReader
}

func NewUserQueryService(readRepo UserReader) *UserQueryService {
	return &UserQueryService{readRepo: readRepo}
}

// GetUser returns a user's own profile.
func (s *UserQueryService) GetUser(ctx context.Context, q cqrs.GetUserQuery) (*models.UserView, error) {
	if q.UserID != q.RequestingUserID {
		return nil, ledger.ErrForbidden
	}
	view, err := s.readRepo.GetByID(ctx, q.UserID)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, ledger.ErrUserNotFound
	}
	if err != nil {
		return nil, ledger.Persistence(err)
	}
	return view, nil
}
