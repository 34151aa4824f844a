package model

import (
	"time"
)

// ModelRate is one pricing version. At most one active row per model is enforced
// by a partial unique index created in the migrations.
type ModelRate struct {
	ID                            uint64    `gorm:"primaryKey;autoIncrement:false"`
	ModelID                       string    `gorm:"size:128;not null;uniqueIndex:idx_model_rates_model_version,priority:1"`
	Provider                      string    `gorm:"size:64;not null"`
	Version                       int64     `gorm:"not null;uniqueIndex:idx_model_rates_model_version,priority:2"`
	InputPerMillionMicro          int64     `gorm:"not null"`
	OutputPerMillionMicro         int64     `gorm:"not null"`
	ProviderInputPerMillionMicro  int64     `gorm:"not null"`
	ProviderOutputPerMillionMicro int64     `gorm:"not null"`
	EffectiveFrom                 time.Time `gorm:"not null"`
	EffectiveTo                   *time.Time
	IsActive                      bool      `gorm:"not null;default:false"`
	CreatedAt                     time.Time `gorm:"not null"`
}

// TableName specifies the table name for ModelRate
func (ModelRate) TableName() string {
	return "model_rates"
}
