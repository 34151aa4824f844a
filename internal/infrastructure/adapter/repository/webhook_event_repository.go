package repository

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/usage-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/model"
)

// WebhookEventRepository implements WebhookEventRepository interface using GORM
type WebhookEventRepository struct {
	db              *gorm.DB
	errorClassifier *ErrorClassifier
}

// NewWebhookEventRepository creates a new WebhookEventRepository instance
func NewWebhookEventRepository(db *gorm.DB) *WebhookEventRepository {
	return &WebhookEventRepository{db: db, errorClassifier: NewErrorClassifier()}
}

func (r *WebhookEventRepository) modelToEntity(m *model.WebhookEvent) *entity.WebhookEvent {
	return &entity.WebhookEvent{
		ID:              m.ID,
		Provider:        m.Provider,
		EventType:       m.EventType,
		ExternalEventID: m.ExternalEventID,
		UserIdentifier:  m.UserIdentifier,
		Amount:          m.Amount,
		AmountMicro:     m.AmountMicro,
		Status:          entity.WebhookStatus(m.Status),
		UserID:          m.UserID,
		TransactionID:   m.TransactionID,
		FailureReason:   m.FailureReason,
		Attempts:        m.Attempts,
		Payload:         []byte(m.Payload),
		ReceivedAt:      m.ReceivedAt.UTC(),
		ProcessedAt:     utcPtr(m.ProcessedAt),
	}
}

// CreateIfAbsent inserts the event with ON CONFLICT DO NOTHING on the dedupe key
func (r *WebhookEventRepository) CreateIfAbsent(ctx context.Context, event *entity.WebhookEvent) (bool, error) {
	m := model.WebhookEvent{
		ID:              event.ID,
		Provider:        event.Provider,
		EventType:       event.EventType,
		ExternalEventID: event.ExternalEventID,
		UserIdentifier:  event.UserIdentifier,
		Amount:          event.Amount,
		AmountMicro:     event.AmountMicro,
		Status:          string(event.Status),
		UserID:          event.UserID,
		TransactionID:   event.TransactionID,
		FailureReason:   event.FailureReason,
		Attempts:        event.Attempts,
		ReceivedAt:      event.ReceivedAt,
		ProcessedAt:     event.ProcessedAt,
	}
	if len(event.Payload) > 0 {
		m.Payload = datatypes.JSON(event.Payload)
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_type"}, {Name: "external_event_id"}},
			DoNothing: true,
		}).
		Create(&m)
	if result.Error != nil {
		return false, r.errorClassifier.mapError(result.Error, errs.ErrNotFound, errs.ErrDuplicateRecord)
	}
	return result.RowsAffected > 0, nil
}

// GetByExternalID returns the stored event for the dedupe key
func (r *WebhookEventRepository) GetByExternalID(ctx context.Context, eventType, externalEventID string) (*entity.WebhookEvent, error) {
	var m model.WebhookEvent
	err := r.db.WithContext(ctx).
		Where("event_type = ? AND external_event_id = ?", eventType, externalEventID).
		First(&m).Error
	if err != nil {
		return nil, r.errorClassifier.mapError(err, errs.ErrNotFound, errs.ErrDuplicateRecord)
	}
	return r.modelToEntity(&m), nil
}

// GetByID returns a stored event
func (r *WebhookEventRepository) GetByID(ctx context.Context, id uint64) (*entity.WebhookEvent, error) {
	var m model.WebhookEvent
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, r.errorClassifier.mapError(err, errs.ErrNotFound, errs.ErrDuplicateRecord)
	}
	return r.modelToEntity(&m), nil
}

// Update writes the processing outcome of an event
func (r *WebhookEventRepository) Update(ctx context.Context, event *entity.WebhookEvent) error {
	result := r.db.WithContext(ctx).Model(&model.WebhookEvent{}).
		Where("id = ?", event.ID).
		Updates(map[string]any{
			"status":         string(event.Status),
			"amount_micro":   event.AmountMicro,
			"user_id":        event.UserID,
			"transaction_id": event.TransactionID,
			"failure_reason": event.FailureReason,
			"attempts":       event.Attempts,
			"processed_at":   event.ProcessedAt,
		})
	if result.Error != nil {
		return r.errorClassifier.mapError(result.Error, errs.ErrNotFound, errs.ErrDuplicateRecord)
	}
	if result.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// ListFailed returns failed events, oldest first
func (r *WebhookEventRepository) ListFailed(ctx context.Context, limit int) ([]entity.WebhookEvent, error) {
	var models []model.WebhookEvent
	err := r.db.WithContext(ctx).
		Where("status = ?", string(entity.WebhookFailed)).
		Order("received_at ASC, id ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, r.errorClassifier.mapError(err, errs.ErrNotFound, errs.ErrDuplicateRecord)
	}
	events := make([]entity.WebhookEvent, 0, len(models))
	for i := range models {
		events = append(events, *r.modelToEntity(&models[i]))
	}
	return events, nil
}
