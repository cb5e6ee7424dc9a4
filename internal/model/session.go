package model

import (
	"time"

	"github.com/google/uuid"
)

// Session statuses.
const (
	SessionActive = "active"
	SessionClosed = "closed"
)

// CountSession scopes one physical stock-take: items, activity, and
// zone-completion idempotency all key on the session id. Engine calls always
// receive the session id explicitly — there is no hidden "latest session"
// lookup anywhere in the write path.
type CountSession struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"not null"`
	Status    string    `gorm:"type:varchar(20);not null;default:'active';index"`
	StartedBy uuid.UUID `gorm:"type:uuid;not null"`
	StartedAt time.Time
	ClosedAt  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides GORM's default pluralization (count_sessions reads
// better than the derived name).
func (CountSession) TableName() string { return "count_sessions" }
