package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/usage-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/usage-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/model"
)

// UserRepository implements UserRepository interface using GORM
type UserRepository struct {
	db              *gorm.DB
	timeProvider    coreport.TimeProvider
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewUserRepository creates a new UserRepository instance
func NewUserRepository(db *gorm.DB, timeProvider coreport.TimeProvider, logger coreport.Logger) *UserRepository {
	return &UserRepository{
		db:              db,
		timeProvider:    timeProvider,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func (r *UserRepository) modelToEntity(m *model.User) *entity.User {
	return &entity.User{
		ID:              m.ID,
		ExternalAuthID:  m.ExternalAuthID,
		Email:           m.Email,
		ReferralCode:    m.ReferralCode,
		JoinedWithCode:  m.JoinedWithCode,
		PostpaidEnabled: m.PostpaidEnabled,
		CreatedAt:       m.CreatedAt.UTC(),
	}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uint64) (*entity.User, error) {
	return r.getBy(ctx, "id = ?", id)
}

// GetByExternalAuthID retrieves a user by the identity provider's identifier
func (r *UserRepository) GetByExternalAuthID(ctx context.Context, externalAuthID string) (*entity.User, error) {
	return r.getBy(ctx, "external_auth_id = ?", externalAuthID)
}

// GetByEmail retrieves the oldest user registered with an email address
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getBy(ctx, "LOWER(email) = LOWER(?)", email)
}

func (r *UserRepository) getBy(ctx context.Context, query string, arg any) (*entity.User, error) {
	var userModel model.User
	err := r.db.WithContext(ctx).Where(query, arg).Order("created_at ASC").First(&userModel).Error
	if err != nil {
		return nil, r.errorClassifier.mapError(err, errs.ErrUserNotFound, errs.ErrDuplicateRecord)
	}
	return r.modelToEntity(&userModel), nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	now := r.timeProvider.Now()
	userModel := model.User{
		ID:              user.ID,
		ExternalAuthID:  user.ExternalAuthID,
		Email:           user.Email,
		ReferralCode:    user.ReferralCode,
		JoinedWithCode:  user.JoinedWithCode,
		PostpaidEnabled: user.PostpaidEnabled,
		CreatedAt:       user.CreatedAt,
		UpdatedAt:       now,
	}
	if userModel.CreatedAt.IsZero() {
		userModel.CreatedAt = now
	}

	if err := r.db.WithContext(ctx).Create(&userModel).Error; err != nil {
		r.logger.Warn("Failed to create user", map[string]any{
			"user_id":          user.ID,
			"external_auth_id": user.ExternalAuthID,
			"error":            err.Error(),
		})
		return r.errorClassifier.mapError(err, errs.ErrUserNotFound, errs.ErrDuplicateRecord)
	}

	user.CreatedAt = userModel.CreatedAt
	return nil
}

// SetPostpaid toggles postpaid accrual for a user
func (r *UserRepository) SetPostpaid(ctx context.Context, id uint64, enabled bool) error {
	return r.updateColumn(ctx, id, "postpaid_enabled", enabled)
}

// SetReferralCode stores the code a user owns
func (r *UserRepository) SetReferralCode(ctx context.Context, id uint64, code string) error {
	return r.updateColumn(ctx, id, "referral_code", code)
}

// SetJoinedWithCode stores the code a user redeemed
func (r *UserRepository) SetJoinedWithCode(ctx context.Context, id uint64, code string) error {
	return r.updateColumn(ctx, id, "joined_with_code", code)
}

func (r *UserRepository) updateColumn(ctx context.Context, id uint64, column string, value any) error {
	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]any{column: value, "updated_at": r.timeProvider.Now()})
	if result.Error != nil {
		return r.errorClassifier.mapError(result.Error, errs.ErrUserNotFound, errs.ErrDuplicateRecord)
	}
	if result.RowsAffected == 0 {
		return errs.ErrUserNotFound
	}
	return nil
}

// WalletRepository implements WalletRepository interface using GORM
type WalletRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewWalletRepository creates a new WalletRepository instance
func NewWalletRepository(db *gorm.DB, logger coreport.Logger) *WalletRepository {
	return &WalletRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

// GetByUserID retrieves a wallet
func (r *WalletRepository) GetByUserID(ctx context.Context, userID uint64) (*entity.Wallet, error) {
	var walletModel model.Wallet
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&walletModel).Error; err != nil {
		return nil, r.errorClassifier.mapError(err, errs.ErrWalletNotFound, errs.ErrDuplicateRecord)
	}
	return &entity.Wallet{
		UserID:       walletModel.UserID,
		BalanceMicro: walletModel.BalanceMicro,
		Version:      walletModel.Version,
		UpdatedAt:    walletModel.UpdatedAt.UTC(),
	}, nil
}

// Create stores a new wallet
func (r *WalletRepository) Create(ctx context.Context, wallet *entity.Wallet) error {
	walletModel := model.Wallet{
		UserID:       wallet.UserID,
		BalanceMicro: wallet.BalanceMicro,
		Version:      wallet.Version,
		UpdatedAt:    wallet.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&walletModel).Error; err != nil {
		return r.errorClassifier.mapError(err, errs.ErrWalletNotFound, errs.ErrDuplicateRecord)
	}
	return nil
}

// UpdateBalance writes a new balance guarded by the expected version
func (r *WalletRepository) UpdateBalance(ctx context.Context, userID uint64, balanceMicro, expectedVersion int64, now time.Time) error {
	result := r.db.WithContext(ctx).Model(&model.Wallet{}).
		Where("user_id = ? AND version = ?", userID, expectedVersion).
		Updates(map[string]any{
			"balance_micro": balanceMicro,
			"version":       gorm.Expr("version + 1"),
			"updated_at":    now,
		})
	if result.Error != nil {
		return r.errorClassifier.mapError(result.Error, errs.ErrWalletNotFound, errs.ErrDuplicateRecord)
	}
	if result.RowsAffected == 0 {
		r.logger.Warn("Wallet version changed during update", map[string]any{
			"user_id":          userID,
			"expected_version": expectedVersion,
		})
		return errs.NewConflictError("wallet", userID)
	}
	return nil
}

// LimitsRepository implements LimitsRepository interface using GORM
type LimitsRepository struct {
	db              *gorm.DB
	errorClassifier *ErrorClassifier
}

// NewLimitsRepository creates a new LimitsRepository instance
func NewLimitsRepository(db *gorm.DB) *LimitsRepository {
	return &LimitsRepository{db: db, errorClassifier: NewErrorClassifier()}
}

// GetByUserID returns the limits row of a user
func (r *LimitsRepository) GetByUserID(ctx context.Context, userID uint64) (*entity.Limits, error) {
	var m model.Limits
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&m).Error; err != nil {
		return nil, r.errorClassifier.mapError(err, errs.ErrNotFound, errs.ErrDuplicateRecord)
	}
	return &entity.Limits{
		UserID:          m.UserID,
		DailyQuotaMicro: m.DailyQuotaMicro,
		UsedTodayMicro:  m.UsedTodayMicro,
		RollupDay:       m.RollupDay,
		Version:         m.Version,
		UpdatedAt:       m.UpdatedAt.UTC(),
	}, nil
}

// Create stores a new limits row
func (r *LimitsRepository) Create(ctx context.Context, limits *entity.Limits) error {
	m := model.Limits{
		UserID:          limits.UserID,
		DailyQuotaMicro: limits.DailyQuotaMicro,
		UsedTodayMicro:  limits.UsedTodayMicro,
		RollupDay:       limits.RollupDay,
		Version:         limits.Version,
		UpdatedAt:       limits.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return r.errorClassifier.mapError(err, errs.ErrNotFound, errs.ErrDuplicateRecord)
	}
	return nil
}

// Update writes quota, usage and rollup day guarded by the expected version
func (r *LimitsRepository) Update(ctx context.Context, limits *entity.Limits, expectedVersion int64) error {
	result := r.db.WithContext(ctx).Model(&model.Limits{}).
		Where("user_id = ? AND version = ?", limits.UserID, expectedVersion).
		Updates(map[string]any{
			"daily_quota_micro": limits.DailyQuotaMicro,
			"used_today_micro":  limits.UsedTodayMicro,
			"rollup_day":        limits.RollupDay,
			"version":           gorm.Expr("version + 1"),
			"updated_at":        limits.UpdatedAt,
		})
	if result.Error != nil {
		return r.errorClassifier.mapError(result.Error, errs.ErrNotFound, errs.ErrDuplicateRecord)
	}
	if result.RowsAffected == 0 {
		return errs.NewConflictError("limits", limits.UserID)
	}
	limits.Version = expectedVersion + 1
	return nil
}
