package repository

import (
	"context"

	"stocktake/internal/dto"
	"stocktake/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActivityRepository is the append-only contract for the event ledger.
// Deliberately no Update/Delete — events are immutable once written.
type ActivityRepository interface {
	Create(ctx context.Context, e *model.ActivityEvent) error
	CreateTx(tx *gorm.DB, e *model.ActivityEvent) error
	List(ctx context.Context, sessionID uuid.UUID, filter dto.ActivityFilter) ([]model.ActivityEvent, int64, error)
	ZoneCompleteExists(ctx context.Context, sessionID uuid.UUID, zone string) (bool, error)
}

type activityRepo struct{ db *gorm.DB }

func NewActivityRepository(db *gorm.DB) ActivityRepository { return &activityRepo{db: db} }

func (r *activityRepo) Create(ctx context.Context, e *model.ActivityEvent) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *activityRepo) CreateTx(tx *gorm.DB, e *model.ActivityEvent) error {
	return tx.Create(e).Error
}

// List returns events in creation order: monotonic timestamp first, seq
// breaking ties so a write storm still renders in insertion order.
func (r *activityRepo) List(ctx context.Context, sessionID uuid.UUID, filter dto.ActivityFilter) ([]model.ActivityEvent, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.ActivityEvent{}).
		Where("session_id = ?", sessionID)
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Zone != "" {
		q = q.Where("zone = ?", filter.Zone)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	var events []model.ActivityEvent
	err := q.Order("created_at ASC, seq ASC").Offset(offset).Limit(filter.Limit).Find(&events).Error
	return events, total, err
}

func (r *activityRepo) ZoneCompleteExists(ctx context.Context, sessionID uuid.UUID, zone string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.ActivityEvent{}).
		Where("session_id = ? AND zone = ? AND type = ?", sessionID, zone, model.EventZoneComplete).
		Count(&n).Error
	return n > 0, err
}
