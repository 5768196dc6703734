package shared

import (
	"time"

	"github.com/google/uuid"
)

// AuditInfo carries the audit metadata every persisted entity embeds:
// creation/update timestamps plus the acting user when one is known.
// It is a plain value stamped by helpers, not a base type with behavior.
type AuditInfo struct {
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
	CreatedBy *uuid.UUID `gorm:"type:uuid" json:"created_by,omitempty"`
	UpdatedBy *uuid.UUID `gorm:"type:uuid" json:"updated_by,omitempty"`
}

// NewAuditInfo stamps a fresh audit value. actor may be nil for
// system-initiated writes.
func NewAuditInfo(actor *uuid.UUID) AuditInfo {
	now := time.Now()
	return AuditInfo{
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: actor,
		UpdatedBy: actor,
	}
}

// Touch updates the modification metadata in place.
func (a *AuditInfo) Touch(actor *uuid.UUID) {
	a.UpdatedAt = time.Now()
	if actor != nil {
		a.UpdatedBy = actor
	}
}

// BaseEntity provides the identity and audit fields shared by all entities
type BaseEntity struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Audit AuditInfo `gorm:"embedded" json:"audit"`
}

// NewBaseEntity creates a base entity with a generated ID and stamped audit info
func NewBaseEntity(actor *uuid.UUID) BaseEntity {
	return BaseEntity{
		ID:    uuid.New(),
		Audit: NewAuditInfo(actor),
	}
}

// VersionedEntity adds an optimistic-lock version column. Repositories that
// honor it must refuse to persist a stale version.
type VersionedEntity struct {
	BaseEntity
	Version int `gorm:"not null;default:1" json:"version"`
}

// NewVersionedEntity creates a versioned entity starting at version 1
func NewVersionedEntity(actor *uuid.UUID) VersionedEntity {
	return VersionedEntity{
		BaseEntity: NewBaseEntity(actor),
		Version:    1,
	}
}
