package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/usage-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/usage-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/usecase"
)

const maxExternalAuthIDLength = 255

// Service is the user registry
type Service struct {
	uow               persistence.UnitOfWork
	referrals         usecase.ReferralUseCase
	idGenerator       coreport.IDGenerator
	timeProvider      coreport.TimeProvider
	logger            coreport.Logger
	defaultDailyQuota int64
}

var _ usecase.UserUseCase = (*Service)(nil)

// NewUserService creates a new user registry. New users get defaultDailyQuota as free allowance.
func NewUserService(
	uow persistence.UnitOfWork,
	referrals usecase.ReferralUseCase,
	idGenerator coreport.IDGenerator,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
	defaultDailyQuota int64,
) *Service {
	return &Service{
		uow:               uow,
		referrals:         referrals,
		idGenerator:       idGenerator,
		timeProvider:      timeProvider,
		logger:            logger,
		defaultDailyQuota: defaultDailyQuota,
	}
}

// EnsureUser returns the user for an external identity, creating the user with wallet,
// limits and welcome grant in one unit of work on first access
func (s *Service) EnsureUser(ctx context.Context, externalAuthID, email string) (*entity.User, bool, error) {
	externalAuthID = strings.TrimSpace(externalAuthID)
	email = strings.ToLower(strings.TrimSpace(email))
	if externalAuthID == "" {
		return nil, false, errs.NewValidationError(errs.ErrValidation, "externalAuthId", "is empty")
	}
	if len(externalAuthID) > maxExternalAuthIDLength {
		return nil, false, errs.NewValidationError(errs.ErrValidation, "externalAuthId",
			fmt.Sprintf("exceeds %d characters", maxExternalAuthIDLength))
	}
	if email != "" && !strings.Contains(email, "@") {
		return nil, false, errs.NewValidationError(errs.ErrValidation, "email", "is not an address")
	}

	var user *entity.User
	var created bool
	err := s.uow.WithinTransaction(ctx, "user.ensure", func(txCtx context.Context) error {
		created = false
		userRepo := s.uow.GetUserRepository(txCtx)

		existing, err := userRepo.GetByExternalAuthID(txCtx, externalAuthID)
		if err == nil {
			user = existing
			return nil
		}
		if !errors.Is(err, errs.ErrUserNotFound) {
			return err
		}

		now := s.timeProvider.Now()
		user = &entity.User{
			ID:             s.idGenerator.NextID(),
			ExternalAuthID: externalAuthID,
			Email:          email,
			CreatedAt:      now,
		}
		if err := userRepo.Create(txCtx, user); err != nil {
			return err
		}
		if err := s.uow.GetWalletRepository(txCtx).Create(txCtx, &entity.Wallet{
			UserID:    user.ID,
			UpdatedAt: now,
		}); err != nil {
			return err
		}
		if err := s.uow.GetLimitsRepository(txCtx).Create(txCtx, &entity.Limits{
			UserID:          user.ID,
			DailyQuotaMicro: s.defaultDailyQuota,
			RollupDay:       entity.EpochDay(now),
			UpdatedAt:       now,
		}); err != nil {
			return err
		}
		if _, err := s.referrals.IssueWelcomeGrant(txCtx, user.ID); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		s.logger.Info("User created", map[string]any{
			"user_id":          user.ID,
			"external_auth_id": user.ExternalAuthID,
		})
	}
	return user, created, nil
}

// GetUser retrieves a user by ID
func (s *Service) GetUser(ctx context.Context, userID uint64) (*entity.User, error) {
	if userID == 0 {
		return nil, errs.NewValidationError(errs.ErrInvalidUserID, "userId", "must be positive")
	}
	return s.uow.GetUserRepository(ctx).GetByID(ctx, userID)
}

// SetPostpaid toggles postpaid accrual for a user
func (s *Service) SetPostpaid(ctx context.Context, userID uint64, enabled bool) error {
	if userID == 0 {
		return errs.NewValidationError(errs.ErrInvalidUserID, "userId", "must be positive")
	}
	if err := s.uow.GetUserRepository(ctx).SetPostpaid(ctx, userID, enabled); err != nil {
		return err
	}

	s.logger.Info("Postpaid setting changed", map[string]any{
		"user_id": userID,
		"enabled": enabled,
	})
	return nil
}
