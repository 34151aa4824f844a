package referral

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/oklog/ulid/v2"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/usage-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/usage-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/usecase"
)

// Amounts holds the grant sizes in micro-units. A zero amount skips that grant's credit.
type Amounts struct {
	WelcomeMicro int64
	FriendMicro  int64
	SelfMicro    int64
}

// Service issues referral codes and one-time grants
type Service struct {
	uow          persistence.UnitOfWork
	ledger       usecase.LedgerUseCase
	idGenerator  coreport.IDGenerator
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
	amounts      Amounts
	entropy      io.Reader
}

var _ usecase.ReferralUseCase = (*Service)(nil)

// NewReferralService creates a new referral and grant issuer
func NewReferralService(
	uow persistence.UnitOfWork,
	ledger usecase.LedgerUseCase,
	idGenerator coreport.IDGenerator,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
	amounts Amounts,
) *Service {
	return &Service{
		uow:          uow,
		ledger:       ledger,
		idGenerator:  idGenerator,
		timeProvider: timeProvider,
		logger:       logger,
		amounts:      amounts,
		entropy:      ulid.DefaultEntropy(),
	}
}

// GenerateCode returns the user's code, creating it on first call.
// A code collision fails the insert and the unit of work retries with fresh entropy.
func (s *Service) GenerateCode(ctx context.Context, userID uint64) (string, error) {
	var code string
	var created bool
	err := s.uow.WithinTransaction(ctx, "referral.generate_code", func(txCtx context.Context) error {
		created = false
		repo := s.uow.GetReferralRepository(txCtx)

		existing, err := repo.GetByOwner(txCtx, userID)
		if err == nil {
			code = existing.Code
			return nil
		}
		if !errors.Is(err, errs.ErrNotFound) {
			return err
		}

		userRepo := s.uow.GetUserRepository(txCtx)
		if _, err := userRepo.GetByID(txCtx, userID); err != nil {
			return err
		}

		now := s.timeProvider.Now()
		code, err = newCode(now, s.entropy)
		if err != nil {
			return err
		}
		if err := repo.Create(txCtx, &entity.Referral{
			ID:          s.idGenerator.NextID(),
			Code:        code,
			OwnerUserID: userID,
			CreatedAt:   now,
		}); err != nil {
			return err
		}
		created = true
		return userRepo.SetReferralCode(txCtx, userID, code)
	})
	if err != nil {
		return "", err
	}

	if created {
		s.logger.Info("Referral code created", map[string]any{"user_id": userID, "code": code})
	}
	return code, nil
}

// Redeem records the redemption and credits both sides in one unit of work
func (s *Service) Redeem(ctx context.Context, userID uint64, code string) (*entity.RedeemResult, error) {
	if userID == 0 {
		return nil, errs.NewValidationError(errs.ErrInvalidUserID, "userId", "must be positive")
	}
	code, err := normalizeCode(code)
	if err != nil {
		return nil, err
	}

	var result *entity.RedeemResult
	err = s.uow.WithinTransaction(ctx, "referral.redeem", func(txCtx context.Context) error {
		repo := s.uow.GetReferralRepository(txCtx)
		userRepo := s.uow.GetUserRepository(txCtx)

		if _, err := userRepo.GetByID(txCtx, userID); err != nil {
			return err
		}

		referral, err := repo.GetByCode(txCtx, code)
		if err != nil {
			return err
		}
		if referral.OwnerUserID == userID {
			return fmt.Errorf("%w: user %d owns %s", errs.ErrSelfReferral, userID, code)
		}

		_, err = repo.GetRedemptionByRedeemer(txCtx, userID)
		if err == nil {
			return fmt.Errorf("%w: user %d", errs.ErrReferralAlreadyRedeemed, userID)
		}
		if !errors.Is(err, errs.ErrNotFound) {
			return err
		}

		now := s.timeProvider.Now()
		redemption := &entity.ReferralRedemption{
			ID:             s.idGenerator.NextID(),
			ReferralID:     referral.ID,
			OwnerUserID:    referral.OwnerUserID,
			RedeemerUserID: userID,
			CreatedAt:      now,
		}
		if err := repo.CreateRedemption(txCtx, redemption); err != nil {
			return err
		}
		if err := repo.IncrementUses(txCtx, referral.ID, referral.Version); err != nil {
			return err
		}

		friend, err := s.issueGrant(txCtx, userID, entity.GrantReferralFriend, s.amounts.FriendMicro,
			entity.ReferralGrantRef(entity.GrantReferralFriend, redemption.ID), entity.SourceReferral)
		if err != nil {
			return err
		}
		self, err := s.issueGrant(txCtx, referral.OwnerUserID, entity.GrantReferralSelf, s.amounts.SelfMicro,
			entity.ReferralGrantRef(entity.GrantReferralSelf, redemption.ID), entity.SourceReferral)
		if err != nil {
			return err
		}

		if err := userRepo.SetJoinedWithCode(txCtx, userID, code); err != nil {
			return err
		}

		result = &entity.RedeemResult{
			Code:           code,
			OwnerUserID:    referral.OwnerUserID,
			RedeemerUserID: userID,
			UsesCount:      referral.UsesCount + 1,
			FriendGrant:    *friend,
			SelfGrant:      *self,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Referral code redeemed", map[string]any{
		"code":          result.Code,
		"owner_user_id": result.OwnerUserID,
		"redeemer_id":   result.RedeemerUserID,
		"uses_count":    result.UsesCount,
	})
	return result, nil
}

// IssueWelcomeGrant credits the welcome amount once per user
func (s *Service) IssueWelcomeGrant(ctx context.Context, userID uint64) (*entity.Grant, error) {
	if s.amounts.WelcomeMicro == 0 {
		return nil, nil
	}

	var grant *entity.Grant
	err := s.uow.WithinTransaction(ctx, "referral.welcome", func(txCtx context.Context) error {
		ref := entity.WelcomeRef(userID)
		existing, err := s.uow.GetGrantRepository(txCtx).GetByRef(txCtx, entity.GrantWelcome, ref)
		if err == nil {
			grant = existing
			return nil
		}
		if !errors.Is(err, errs.ErrNotFound) {
			return err
		}

		grant, err = s.issueGrant(txCtx, userID, entity.GrantWelcome, s.amounts.WelcomeMicro, ref, entity.SourceWelcome)
		return err
	})
	if err != nil {
		return nil, err
	}
	return grant, nil
}

// issueGrant credits the ledger (unless the amount is zero) and stores the grant
func (s *Service) issueGrant(
	ctx context.Context,
	userID uint64,
	grantType entity.GrantType,
	amountMicro int64,
	refKey string,
	source entity.TransactionSource,
) (*entity.Grant, error) {
	grant := &entity.Grant{
		ID:          s.idGenerator.NextID(),
		UserID:      userID,
		Type:        grantType,
		AmountMicro: amountMicro,
		RefKey:      refKey,
		CreatedAt:   s.timeProvider.Now(),
	}

	if amountMicro != 0 {
		applied, err := s.ledger.ApplyTransaction(ctx, usecase.ApplyRequest{
			UserID:      userID,
			AmountMicro: amountMicro,
			Source:      source,
			RefID:       refKey,
		})
		if err != nil {
			return nil, err
		}
		grant.TransactionID = applied.TransactionID
	}

	if err := s.uow.GetGrantRepository(ctx).Create(ctx, grant); err != nil {
		return nil, err
	}
	return grant, nil
}
