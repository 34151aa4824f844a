package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/usage-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/model"
)

// CycleRepository implements CycleRepository interface using GORM
type CycleRepository struct {
	db              *gorm.DB
	errorClassifier *ErrorClassifier
}

// NewCycleRepository creates a new CycleRepository instance
func NewCycleRepository(db *gorm.DB) *CycleRepository {
	return &CycleRepository{db: db, errorClassifier: NewErrorClassifier()}
}

func (r *CycleRepository) modelToEntity(m *model.PostpaidCycle) *entity.PostpaidCycle {
	return &entity.PostpaidCycle{
		ID:                   m.ID,
		UserID:               m.UserID,
		WindowStart:          m.WindowStart.UTC(),
		WindowEnd:            m.WindowEnd.UTC(),
		ChargesMicro:         m.ChargesMicro,
		Status:               entity.CycleStatus(m.Status),
		SettledTransactionID: m.SettledTransactionID,
		Attempts:             m.Attempts,
		LastAttemptAt:        utcPtr(m.LastAttemptAt),
		SettledAt:            utcPtr(m.SettledAt),
		Version:              m.Version,
		CreatedAt:            m.CreatedAt.UTC(),
		UpdatedAt:            m.UpdatedAt.UTC(),
	}
}

// Create stores a new cycle
func (r *CycleRepository) Create(ctx context.Context, cycle *entity.PostpaidCycle) error {
	m := model.PostpaidCycle{
		ID:           cycle.ID,
		UserID:       cycle.UserID,
		WindowStart:  cycle.WindowStart,
		WindowEnd:    cycle.WindowEnd,
		ChargesMicro: cycle.ChargesMicro,
		Status:       string(cycle.Status),
		Version:      cycle.Version,
		CreatedAt:    cycle.CreatedAt,
		UpdatedAt:    cycle.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return r.errorClassifier.mapError(err, errs.ErrCycleNotFound, errs.ErrDuplicateRecord)
	}
	return nil
}

// GetByID returns a cycle
func (r *CycleRepository) GetByID(ctx context.Context, id uint64) (*entity.PostpaidCycle, error) {
	var m model.PostpaidCycle
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, r.errorClassifier.mapError(err, errs.ErrCycleNotFound, errs.ErrDuplicateRecord)
	}
	return r.modelToEntity(&m), nil
}

// GetOpenByUser returns the user's open cycle
func (r *CycleRepository) GetOpenByUser(ctx context.Context, userID uint64) (*entity.PostpaidCycle, error) {
	var m model.PostpaidCycle
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, string(entity.CycleOpen)).
		First(&m).Error
	if err != nil {
		return nil, r.errorClassifier.mapError(err, errs.ErrCycleNotFound, errs.ErrDuplicateRecord)
	}
	return r.modelToEntity(&m), nil
}

// Update writes the mutable fields guarded by the expected version
func (r *CycleRepository) Update(ctx context.Context, cycle *entity.PostpaidCycle, expectedVersion int64) error {
	result := r.db.WithContext(ctx).Model(&model.PostpaidCycle{}).
		Where("id = ? AND version = ?", cycle.ID, expectedVersion).
		Updates(map[string]any{
			"charges_micro":          cycle.ChargesMicro,
			"status":                 string(cycle.Status),
			"settled_transaction_id": cycle.SettledTransactionID,
			"attempts":               cycle.Attempts,
			"last_attempt_at":        cycle.LastAttemptAt,
			"settled_at":             cycle.SettledAt,
			"version":                gorm.Expr("version + 1"),
			"updated_at":             cycle.UpdatedAt,
		})
	if result.Error != nil {
		return r.errorClassifier.mapError(result.Error, errs.ErrCycleNotFound, errs.ErrDuplicateRecord)
	}
	if result.RowsAffected == 0 {
		return errs.NewConflictError("postpaid_cycle", cycle.ID)
	}
	cycle.Version = expectedVersion + 1
	return nil
}

// CountPastDue returns how many past_due cycles a user has
func (r *CycleRepository) CountPastDue(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.PostpaidCycle{}).
		Where("user_id = ? AND status = ?", userID, string(entity.CyclePastDue)).
		Count(&count).Error
	if err != nil {
		return 0, r.errorClassifier.mapError(err, errs.ErrCycleNotFound, errs.ErrDuplicateRecord)
	}
	return count, nil
}

// ListSettlementCandidates returns IDs of cycles the close job should visit
func (r *CycleRepository) ListSettlementCandidates(ctx context.Context, now time.Time, limit int) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).Model(&model.PostpaidCycle{}).
		Where("(status = ? AND window_end <= ?) OR status = ? OR (status = ? AND (last_attempt_at IS NULL OR last_attempt_at < ?))",
			string(entity.CycleOpen), now,
			string(entity.CycleClosed),
			string(entity.CyclePastDue), now).
		Order("CASE status WHEN 'past_due' THEN 1 ELSE 0 END, window_end ASC, id ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, r.errorClassifier.mapError(err, errs.ErrCycleNotFound, errs.ErrDuplicateRecord)
	}
	return ids, nil
}

// ListByUser returns a user's cycles, newest first
func (r *CycleRepository) ListByUser(ctx context.Context, userID uint64, limit int) ([]entity.PostpaidCycle, error) {
	var models []model.PostpaidCycle
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("window_start DESC, id DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, r.errorClassifier.mapError(err, errs.ErrCycleNotFound, errs.ErrDuplicateRecord)
	}

	cycles := make([]entity.PostpaidCycle, 0, len(models))
	for i := range models {
		cycles = append(cycles, *r.modelToEntity(&models[i]))
	}
	return cycles, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
