package models

import (
	"time"

	"github.com/google/uuid"
)

// Plan tiers
const (
	PlanStarter      = "starter"
	PlanProfessional = "professional"
	PlanEnterprise   = "enterprise"
)

// defaultKeyValidity applies to lazily created key records
const defaultKeyValidity = 365 * 24 * time.Hour

// ProductKey is the persisted single-use state of a license key.
// Allow-list membership is configuration; this record only tracks
// whether the key has been consumed, by whom and when.
type ProductKey struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	Key    string     `json:"key" db:"key"`
	IsUsed bool       `json:"isUsed" db:"is_used"`
	UsedBy *uuid.UUID `json:"usedBy,omitempty" db:"used_by"`
	UsedAt *time.Time `json:"usedAt,omitempty" db:"used_at"`

	ExpiresAt time.Time `json:"expiresAt" db:"expires_at"`
	Plan      string    `json:"plan" db:"plan"` // starter, professional, enterprise
}

// NewProductKey builds an unused key record for seeding
func NewProductKey(key, plan string) *ProductKey {
	if plan == "" {
		plan = PlanStarter
	}
	return &ProductKey{
		ID:        uuid.New(),
		Key:       key,
		Plan:      plan,
		ExpiresAt: time.Now().Add(defaultKeyValidity),
	}
}
