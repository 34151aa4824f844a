package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/usage-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/model"
)

// UsageEventRepository implements UsageEventRepository interface using GORM
type UsageEventRepository struct {
	db              *gorm.DB
	errorClassifier *ErrorClassifier
}

// NewUsageEventRepository creates a new UsageEventRepository instance
func NewUsageEventRepository(db *gorm.DB) *UsageEventRepository {
	return &UsageEventRepository{db: db, errorClassifier: NewErrorClassifier()}
}

func (r *UsageEventRepository) modelToEntity(m *model.UsageEvent) *entity.UsageEvent {
	return &entity.UsageEvent{
		ID:               m.ID,
		UserID:           m.UserID,
		ToolSlug:         m.ToolSlug,
		ModelID:          m.ModelID,
		PromptTokens:     m.PromptTokens,
		CompletionTokens: m.CompletionTokens,
		CostMicro:        m.CostMicro,
		MarginMicro:      m.MarginMicro,
		GatewayRequestID: m.GatewayRequestID,
		RateVersion:      m.RateVersion,
		Status:           entity.UsageStatus(m.Status),
		RejectReason:     entity.RejectReason(m.RejectReason),
		TransactionID:    m.TransactionID,
		CycleID:          m.CycleID,
		CreatedAt:        m.CreatedAt.UTC(),
	}
}

// Create stores an event
func (r *UsageEventRepository) Create(ctx context.Context, event *entity.UsageEvent) error {
	m := model.UsageEvent{
		ID:               event.ID,
		UserID:           event.UserID,
		ToolSlug:         event.ToolSlug,
		ModelID:          event.ModelID,
		PromptTokens:     event.PromptTokens,
		CompletionTokens: event.CompletionTokens,
		CostMicro:        event.CostMicro,
		MarginMicro:      event.MarginMicro,
		GatewayRequestID: event.GatewayRequestID,
		RateVersion:      event.RateVersion,
		Status:           string(event.Status),
		RejectReason:     string(event.RejectReason),
		TransactionID:    event.TransactionID,
		CycleID:          event.CycleID,
		CreatedAt:        event.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return r.errorClassifier.mapError(err, errs.ErrNotFound, errs.ErrDuplicateRecord)
	}
	return nil
}

// GetByGatewayRequestID returns the event recorded for a gateway request
func (r *UsageEventRepository) GetByGatewayRequestID(ctx context.Context, gatewayRequestID string) (*entity.UsageEvent, error) {
	var m model.UsageEvent
	if err := r.db.WithContext(ctx).Where("gateway_request_id = ?", gatewayRequestID).First(&m).Error; err != nil {
		return nil, r.errorClassifier.mapError(err, errs.ErrNotFound, errs.ErrDuplicateRecord)
	}
	return r.modelToEntity(&m), nil
}

// ListByUser returns a user's most recent events
func (r *UsageEventRepository) ListByUser(ctx context.Context, userID uint64, limit int) ([]entity.UsageEvent, error) {
	var models []model.UsageEvent
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, r.errorClassifier.mapError(err, errs.ErrNotFound, errs.ErrDuplicateRecord)
	}

	events := make([]entity.UsageEvent, 0, len(models))
	for i := range models {
		events = append(events, *r.modelToEntity(&models[i]))
	}
	return events, nil
}
