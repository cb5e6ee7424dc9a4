package model

import (
	"time"

	"github.com/google/uuid"
)

// Item lifecycle statuses. An item is pending until its first count; a count
// moves it to counted (variance zero) or variance (non-zero); verified is
// reachable only from variance via an explicit verification action.
const (
	StatusPending  = "pending"
	StatusCounted  = "counted"
	StatusVariance = "variance"
	StatusVerified = "verified"
)

// Item is one inventory line in a count session. Rows are created once at
// session start from the catalog source and never deleted while the session
// lives. CountedQty and Variance stay NULL until the first submission.
type Item struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_session_sku,priority:1"`
	SKU       string    `gorm:"not null;uniqueIndex:idx_session_sku,priority:2"`
	Name      string    `gorm:"index;not null"`
	Barcode   *string   `gorm:"index"`
	// Zone is the completion-tracking unit (aisle, room, category bucket).
	Zone      string  `gorm:"index;not null"`
	Category  *string
	Warehouse *string
	UOM       *string
	Supplier  *string

	ExpectedQty int    `gorm:"not null"`
	CountedQty  *int
	Variance    *int
	Status      string `gorm:"type:varchar(20);not null;default:'pending';index"`

	// Audit pair — set together on counting submissions only, never on
	// verification actions.
	LastCountedBy *string
	LastCountedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Counted reports whether the item has reached a terminal counted-or-better
// status for zone-completion purposes.
func (i *Item) Counted() bool {
	switch i.Status {
	case StatusCounted, StatusVariance, StatusVerified:
		return true
	}
	return false
}
