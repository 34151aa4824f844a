package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/usage-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/usage-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/model"
)

// TransactionRepository implements TransactionRepository interface using GORM
type TransactionRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewTransactionRepository creates a new TransactionRepository instance
func NewTransactionRepository(db *gorm.DB, logger coreport.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

// entityToModel converts a transaction entity to a database model
func (r *TransactionRepository) entityToModel(t *entity.CreditTransaction) model.CreditTransaction {
	m := model.CreditTransaction{
		ID:                t.ID,
		UserID:            t.UserID,
		AmountMicro:       t.AmountMicro,
		Source:            string(t.Source),
		BalanceAfterMicro: t.BalanceAfterMicro,
		CreatedAt:         t.CreatedAt,
	}
	if t.HasRef() {
		ref := t.RefID
		m.RefID = &ref
	}
	return m
}

// modelToEntity converts a transaction model to an entity
func (r *TransactionRepository) modelToEntity(m *model.CreditTransaction) *entity.CreditTransaction {
	t := &entity.CreditTransaction{
		ID:                m.ID,
		UserID:            m.UserID,
		AmountMicro:       m.AmountMicro,
		Source:            entity.TransactionSource(m.Source),
		BalanceAfterMicro: m.BalanceAfterMicro,
		CreatedAt:         m.CreatedAt.UTC(),
	}
	if m.RefID != nil {
		t.RefID = *m.RefID
	}
	return t
}

// Create appends a transaction
func (r *TransactionRepository) Create(ctx context.Context, transaction *entity.CreditTransaction) error {
	transactionModel := r.entityToModel(transaction)

	if err := r.db.WithContext(ctx).Create(&transactionModel).Error; err != nil {
		if r.errorClassifier.IsDuplicateKeyError(err) {
			r.logger.Warn("Duplicate transaction reference detected", map[string]any{
				"user_id": transaction.UserID,
				"source":  transaction.Source,
				"ref_id":  transaction.RefID,
			})
		}
		return r.errorClassifier.mapError(err, errs.ErrNotFound, errs.ErrDuplicateTransaction)
	}

	r.logger.Debug("Transaction appended", map[string]any{
		"transaction_id": transaction.ID,
		"user_id":        transaction.UserID,
		"amount_micro":   transaction.AmountMicro,
		"source":         transaction.Source,
	})
	return nil
}

// GetByRef retrieves the transaction recorded for an idempotency key
func (r *TransactionRepository) GetByRef(ctx context.Context, source entity.TransactionSource, refID string) (*entity.CreditTransaction, error) {
	var transactionModel model.CreditTransaction
	err := r.db.WithContext(ctx).
		Where("source = ? AND ref_id = ?", string(source), refID).
		First(&transactionModel).Error
	if err != nil {
		return nil, r.errorClassifier.mapError(err, errs.ErrNotFound, errs.ErrDuplicateTransaction)
	}
	return r.modelToEntity(&transactionModel), nil
}

// ListByUser returns a user's transactions newest first
func (r *TransactionRepository) ListByUser(ctx context.Context, userID uint64, limit int, beforeID uint64) ([]entity.CreditTransaction, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if beforeID > 0 {
		query = query.Where("id < ?", beforeID)
	}

	var models []model.CreditTransaction
	if err := query.Order("id DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, r.errorClassifier.mapError(err, errs.ErrNotFound, errs.ErrDuplicateTransaction)
	}

	transactions := make([]entity.CreditTransaction, 0, len(models))
	for i := range models {
		transactions = append(transactions, *r.modelToEntity(&models[i]))
	}
	return transactions, nil
}

// SumByUser returns the sum of all of a user's transaction amounts
func (r *TransactionRepository) SumByUser(ctx context.Context, userID uint64) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).Model(&model.CreditTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount_micro), 0)").
		Scan(&sum).Error
	if err != nil {
		return 0, r.errorClassifier.mapError(err, errs.ErrNotFound, errs.ErrDuplicateTransaction)
	}
	return sum, nil
}
