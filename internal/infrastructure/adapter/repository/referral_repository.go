package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/usage-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/model"
)

// ReferralRepository implements ReferralRepository interface using GORM
type ReferralRepository struct {
	db              *gorm.DB
	errorClassifier *ErrorClassifier
}

// NewReferralRepository creates a new ReferralRepository instance
func NewReferralRepository(db *gorm.DB) *ReferralRepository {
	return &ReferralRepository{db: db, errorClassifier: NewErrorClassifier()}
}

func (r *ReferralRepository) modelToEntity(m *model.Referral) *entity.Referral {
	return &entity.Referral{
		ID:          m.ID,
		Code:        m.Code,
		OwnerUserID: m.OwnerUserID,
		UsesCount:   m.UsesCount,
		Version:     m.Version,
		CreatedAt:   m.CreatedAt.UTC(),
	}
}

// Create stores a new code
func (r *ReferralRepository) Create(ctx context.Context, referral *entity.Referral) error {
	m := model.Referral{
		ID:          referral.ID,
		Code:        referral.Code,
		OwnerUserID: referral.OwnerUserID,
		UsesCount:   referral.UsesCount,
		Version:     referral.Version,
		CreatedAt:   referral.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return r.errorClassifier.mapError(err, errs.ErrReferralCodeNotFound, errs.ErrDuplicateRecord)
	}
	return nil
}

// GetByCode returns the referral for a code
func (r *ReferralRepository) GetByCode(ctx context.Context, code string) (*entity.Referral, error) {
	var m model.Referral
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&m).Error; err != nil {
		return nil, r.errorClassifier.mapError(err, errs.ErrReferralCodeNotFound, errs.ErrDuplicateRecord)
	}
	return r.modelToEntity(&m), nil
}

// GetByOwner returns the code owned by a user
func (r *ReferralRepository) GetByOwner(ctx context.Context, ownerUserID uint64) (*entity.Referral, error) {
	var m model.Referral
	if err := r.db.WithContext(ctx).Where("owner_user_id = ?", ownerUserID).First(&m).Error; err != nil {
		return nil, r.errorClassifier.mapError(err, errs.ErrNotFound, errs.ErrDuplicateRecord)
	}
	return r.modelToEntity(&m), nil
}

// IncrementUses bumps usesCount guarded by the expected version
func (r *ReferralRepository) IncrementUses(ctx context.Context, referralID uint64, expectedVersion int64) error {
	result := r.db.WithContext(ctx).Model(&model.Referral{}).
		Where("id = ? AND version = ?", referralID, expectedVersion).
		Updates(map[string]any{
			"uses_count": gorm.Expr("uses_count + 1"),
			"version":    gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return r.errorClassifier.mapError(result.Error, errs.ErrReferralCodeNotFound, errs.ErrDuplicateRecord)
	}
	if result.RowsAffected == 0 {
		return errs.NewConflictError("referral", referralID)
	}
	return nil
}

// CreateRedemption records a redemption
func (r *ReferralRepository) CreateRedemption(ctx context.Context, redemption *entity.ReferralRedemption) error {
	m := model.ReferralRedemption{
		ID:             redemption.ID,
		ReferralID:     redemption.ReferralID,
		OwnerUserID:    redemption.OwnerUserID,
		RedeemerUserID: redemption.RedeemerUserID,
		CreatedAt:      redemption.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return r.errorClassifier.mapError(err, errs.ErrNotFound, errs.ErrDuplicateRecord)
	}
	return nil
}

// GetRedemptionByRedeemer returns a user's redemption
func (r *ReferralRepository) GetRedemptionByRedeemer(ctx context.Context, redeemerUserID uint64) (*entity.ReferralRedemption, error) {
	var m model.ReferralRedemption
	if err := r.db.WithContext(ctx).Where("redeemer_user_id = ?", redeemerUserID).First(&m).Error; err != nil {
		return nil, r.errorClassifier.mapError(err, errs.ErrNotFound, errs.ErrDuplicateRecord)
	}
	return &entity.ReferralRedemption{
		ID:             m.ID,
		ReferralID:     m.ReferralID,
		OwnerUserID:    m.OwnerUserID,
		RedeemerUserID: m.RedeemerUserID,
		CreatedAt:      m.CreatedAt.UTC(),
	}, nil
}

// GrantRepository implements GrantRepository interface using GORM
type GrantRepository struct {
	db              *gorm.DB
	errorClassifier *ErrorClassifier
}

// NewGrantRepository creates a new GrantRepository instance
func NewGrantRepository(db *gorm.DB) *GrantRepository {
	return &GrantRepository{db: db, errorClassifier: NewErrorClassifier()}
}

func (r *GrantRepository) modelToEntity(m *model.Grant) *entity.Grant {
	return &entity.Grant{
		ID:            m.ID,
		UserID:        m.UserID,
		Type:          entity.GrantType(m.Type),
		AmountMicro:   m.AmountMicro,
		RefKey:        m.RefKey,
		TransactionID: m.TransactionID,
		CreatedAt:     m.CreatedAt.UTC(),
	}
}

// Create stores a grant
func (r *GrantRepository) Create(ctx context.Context, grant *entity.Grant) error {
	m := model.Grant{
		ID:            grant.ID,
		UserID:        grant.UserID,
		Type:          string(grant.Type),
		AmountMicro:   grant.AmountMicro,
		RefKey:        grant.RefKey,
		TransactionID: grant.TransactionID,
		CreatedAt:     grant.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return r.errorClassifier.mapError(err, errs.ErrNotFound, errs.ErrDuplicateRecord)
	}
	return nil
}

// GetByRef returns the grant for (type, refKey)
func (r *GrantRepository) GetByRef(ctx context.Context, grantType entity.GrantType, refKey string) (*entity.Grant, error) {
	var m model.Grant
	if err := r.db.WithContext(ctx).Where("type = ? AND ref_key = ?", string(grantType), refKey).First(&m).Error; err != nil {
		return nil, r.errorClassifier.mapError(err, errs.ErrNotFound, errs.ErrDuplicateRecord)
	}
	return r.modelToEntity(&m), nil
}

// ListByUser returns a user's grants, oldest first
func (r *GrantRepository) ListByUser(ctx context.Context, userID uint64) ([]entity.Grant, error) {
	var models []model.Grant
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC, id ASC").Find(&models).Error; err != nil {
		return nil, r.errorClassifier.mapError(err, errs.ErrNotFound, errs.ErrDuplicateRecord)
	}
	grants := make([]entity.Grant, 0, len(models))
	for i := range models {
		grants = append(grants, *r.modelToEntity(&models[i]))
	}
	return grants, nil
}
