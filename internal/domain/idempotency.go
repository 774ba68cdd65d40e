package domain

import "time"

// Idempotency records the outcome of a create request keyed by
// (user_id, scope, key). A retry with the same key replays the stored
// resource instead of creating it again.
type Idempotency struct {
	ID         string    `gorm:"type:varchar(36);primaryKey"`
	UserID     uint      `gorm:"not null;uniqueIndex:ux_user_scope_key,priority:1"`
	Scope      string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_user_scope_key,priority:2"`
	Key        string    `gorm:"type:varchar(255);not null;uniqueIndex:ux_user_scope_key,priority:3"`
	ResourceID uint      `gorm:"not null"`
	Status     int       `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt  time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }

// RevokedToken is a logged-out token id. Rows can be purged once ExpiresAt
// has passed since the token itself is no longer accepted by then.
type RevokedToken struct {
	JTI       string    `gorm:"type:varchar(64);primaryKey"`
	UserID    uint      `gorm:"not null;index"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (RevokedToken) TableName() string { return "revoked_tokens" }
