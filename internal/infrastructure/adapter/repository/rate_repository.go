package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/usage-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/model"
)

// RateRepository implements RateRepository interface using GORM
type RateRepository struct {
	db              *gorm.DB
	errorClassifier *ErrorClassifier
}

// NewRateRepository creates a new RateRepository instance
func NewRateRepository(db *gorm.DB) *RateRepository {
	return &RateRepository{db: db, errorClassifier: NewErrorClassifier()}
}

func (r *RateRepository) modelToEntity(m *model.ModelRate) entity.ModelRate {
	rate := entity.ModelRate{
		ID:                            m.ID,
		ModelID:                       m.ModelID,
		Provider:                      m.Provider,
		Version:                       m.Version,
		InputPerMillionMicro:          m.InputPerMillionMicro,
		OutputPerMillionMicro:         m.OutputPerMillionMicro,
		ProviderInputPerMillionMicro:  m.ProviderInputPerMillionMicro,
		ProviderOutputPerMillionMicro: m.ProviderOutputPerMillionMicro,
		EffectiveFrom:                 m.EffectiveFrom.UTC(),
		IsActive:                      m.IsActive,
		CreatedAt:                     m.CreatedAt.UTC(),
	}
	if m.EffectiveTo != nil {
		to := m.EffectiveTo.UTC()
		rate.EffectiveTo = &to
	}
	return rate
}

func (r *RateRepository) toEntities(models []model.ModelRate) []entity.ModelRate {
	rates := make([]entity.ModelRate, 0, len(models))
	for i := range models {
		rates = append(rates, r.modelToEntity(&models[i]))
	}
	return rates
}

// Create stores a new version
func (r *RateRepository) Create(ctx context.Context, rate *entity.ModelRate) error {
	m := model.ModelRate{
		ID:                            rate.ID,
		ModelID:                       rate.ModelID,
		Provider:                      rate.Provider,
		Version:                       rate.Version,
		InputPerMillionMicro:          rate.InputPerMillionMicro,
		OutputPerMillionMicro:         rate.OutputPerMillionMicro,
		ProviderInputPerMillionMicro:  rate.ProviderInputPerMillionMicro,
		ProviderOutputPerMillionMicro: rate.ProviderOutputPerMillionMicro,
		EffectiveFrom:                 rate.EffectiveFrom,
		EffectiveTo:                   rate.EffectiveTo,
		IsActive:                      rate.IsActive,
		CreatedAt:                     rate.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return r.errorClassifier.mapError(err, errs.ErrRateNotFound, errs.ErrDuplicateRecord)
	}
	return nil
}

// GetEffective returns the version of a model in effect at the given time
func (r *RateRepository) GetEffective(ctx context.Context, modelID string, at time.Time) (*entity.ModelRate, error) {
	var m model.ModelRate
	err := r.db.WithContext(ctx).
		Where("model_id = ? AND effective_from <= ?", modelID, at).
		Where("effective_to IS NULL OR effective_to > ?", at).
		Order("version DESC").
		First(&m).Error
	if err != nil {
		return nil, r.errorClassifier.mapError(err, errs.ErrRateNotFound, errs.ErrDuplicateRecord)
	}
	rate := r.modelToEntity(&m)
	return &rate, nil
}

// GetCurrent returns the version that has not been superseded
func (r *RateRepository) GetCurrent(ctx context.Context, modelID string) (*entity.ModelRate, error) {
	var m model.ModelRate
	err := r.db.WithContext(ctx).
		Where("model_id = ? AND effective_to IS NULL", modelID).
		Order("version DESC").
		First(&m).Error
	if err != nil {
		return nil, r.errorClassifier.mapError(err, errs.ErrRateNotFound, errs.ErrDuplicateRecord)
	}
	rate := r.modelToEntity(&m)
	return &rate, nil
}

// MaxVersion returns the highest version number of a model
func (r *RateRepository) MaxVersion(ctx context.Context, modelID string) (int64, error) {
	var maxVersion int64
	err := r.db.WithContext(ctx).Model(&model.ModelRate{}).
		Where("model_id = ?", modelID).
		Select("COALESCE(MAX(version), 0)").
		Scan(&maxVersion).Error
	if err != nil {
		return 0, r.errorClassifier.mapError(err, errs.ErrRateNotFound, errs.ErrDuplicateRecord)
	}
	return maxVersion, nil
}

// Supersede ends an open version. Prices are never touched.
func (r *RateRepository) Supersede(ctx context.Context, rateID uint64, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&model.ModelRate{}).
		Where("id = ? AND effective_to IS NULL", rateID).
		Updates(map[string]any{"effective_to": at, "is_active": false})
	if result.Error != nil {
		return r.errorClassifier.mapError(result.Error, errs.ErrRateNotFound, errs.ErrDuplicateRecord)
	}
	if result.RowsAffected == 0 {
		return errs.NewConflictError("model_rate", rateID)
	}
	return nil
}

// ListActive returns every active version ordered by model
func (r *RateRepository) ListActive(ctx context.Context) ([]entity.ModelRate, error) {
	var models []model.ModelRate
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("model_id ASC").Find(&models).Error; err != nil {
		return nil, r.errorClassifier.mapError(err, errs.ErrRateNotFound, errs.ErrDuplicateRecord)
	}
	return r.toEntities(models), nil
}

// ListHistory returns every version of a model, oldest first
func (r *RateRepository) ListHistory(ctx context.Context, modelID string) ([]entity.ModelRate, error) {
	var models []model.ModelRate
	if err := r.db.WithContext(ctx).Where("model_id = ?", modelID).Order("version ASC").Find(&models).Error; err != nil {
		return nil, r.errorClassifier.mapError(err, errs.ErrRateNotFound, errs.ErrDuplicateRecord)
	}
	return r.toEntities(models), nil
}
