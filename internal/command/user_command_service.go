package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/accountz/ledger-service/internal/ledger"
	"github.com/accountz/ledger-service/shared/cqrs"
	"github.com/accountz/ledger-service/shared/events"
	"github.com/accountz/ledger-service/shared/models"
	"github.com/accountz/ledger-service/shared/utils"
	"go.uber.org/zap"
)

type UserViewStore interface {
	CacheUserView(ctx context.Context, view *models.UserView)
}

// UserCommandService registers users and keeps the user read model up to date.
type UserCommandService struct {
	store     ledger.Store
	readRepo  UserViewStore
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewUserCommandService(
	store ledger.Store,
	readRepo UserViewStore,
	publisher events.Publisher,
	logger *zap.Logger,
) *UserCommandService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserCommandService{
		store:     store,
		readRepo:  readRepo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *UserCommandService) CreateUser(ctx context.Context, cmd cqrs.CreateUserCommand) (*models.User, error) {
	passwordHash, err := utils.HashPassword(cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	now := s.now().UTC()
	y, m, d := cmd.BirthDate.Date()
	user := &models.User{
		ID:           utils.GenerateID("usr"),
		Name:         cmd.Name,
		Email:        cmd.Email,
		BirthDate:    time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.store.Atomic(ctx, func(ctx context.Context, tx ledger.Tx) error {
		return tx.Users().Create(ctx, user)
	})
	if errors.Is(err, ledger.ErrDuplicate) {
		return nil, ledger.ErrEmailAlreadyRegistered
	}
	if err != nil {
		s.logger.Error("failed to create user", zap.Error(err))
		return nil, ledger.Persistence(err)
	}

	s.readRepo.CacheUserView(ctx, models.NewUserView(user))
	if err := s.publisher.Publish(ctx, events.UserEventsStream, events.UserRegistered, events.UserRegisteredEvent{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	}); err != nil {
		s.logger.Error("failed to publish user.registered event", zap.Error(err))
	}
	return user, nil
}
