package entity

import (
	"time"
)

// ModelRate is one immutable pricing version of a model.
// Versions of a model cover non-overlapping [EffectiveFrom, EffectiveTo) intervals.
type ModelRate struct {
	ID                            uint64
	ModelID                       string
	Provider                      string
	Version                       int64
	InputPerMillionMicro          int64 // charged price per million prompt tokens
	OutputPerMillionMicro         int64 // charged price per million completion tokens
	ProviderInputPerMillionMicro  int64 // upstream price the charged price derives from
	ProviderOutputPerMillionMicro int64
	EffectiveFrom                 time.Time
	EffectiveTo                   *time.Time
	IsActive                      bool
	CreatedAt                     time.Time
}

// CoversTime reports whether the version was in effect at t
func (r *ModelRate) CoversTime(t time.Time) bool {
	if t.Before(r.EffectiveFrom) {
		return false
	}
	return r.EffectiveTo == nil || t.Before(*r.EffectiveTo)
}

// SamePricing reports whether two versions would price usage identically
func (r *ModelRate) SamePricing(other *ModelRate) bool {
	return r.Provider == other.Provider &&
		r.InputPerMillionMicro == other.InputPerMillionMicro &&
		r.OutputPerMillionMicro == other.OutputPerMillionMicro &&
		r.ProviderInputPerMillionMicro == other.ProviderInputPerMillionMicro &&
		r.ProviderOutputPerMillionMicro == other.ProviderOutputPerMillionMicro
}

// ProviderRate is one entry of an upstream provider price list
type ProviderRate struct {
	ModelID               string
	Provider              string
	InputPerMillionMicro  int64
	OutputPerMillionMicro int64
}
