package model

import (
	"time"

	"github.com/google/uuid"
)

// Activity event types consumed by the dashboard feed.
const (
	EventCount        = "count"
	EventVariance     = "variance"
	EventVerify       = "verify"
	EventJoin         = "join"
	EventZoneComplete = "zone_complete"
)

// ActivityEvent is an append-only audit record. Events are never updated or
// deleted. A partial unique index on (session_id, zone) WHERE
// type = 'zone_complete' (see infra.applySchemaPatches) guarantees at most
// one completion milestone per zone per session even under racing inserts.
type ActivityEvent struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	// Seq breaks created_at ties so the dashboard renders events in true
	// insertion order even during a write storm.
	Seq       int64     `gorm:"autoIncrement;uniqueIndex"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index"`
	Type      string    `gorm:"type:varchar(20);not null;index"`
	Message   string    `gorm:"not null"`
	// Actor fields are nullable: zone_complete events are system-originated.
	ActorID   *uuid.UUID `gorm:"type:uuid"`
	ActorName *string
	Zone      *string    `gorm:"index"`
	ItemID    *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time  `gorm:"index"`
}
