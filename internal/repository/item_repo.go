package repository

import (
	"context"
	"time"

	"stocktake/internal/dto"
	"stocktake/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ZoneTally is one zone's completion aggregate.
type ZoneTally struct {
	Zone    string
	Total   int64
	Counted int64
}

// ItemRepository defines the data access contract for session items.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via stubs.
type ItemRepository interface {
	CreateBatchTx(tx *gorm.DB, items []model.Item) error
	FindByID(ctx context.Context, sessionID, id uuid.UUID) (*model.Item, error)
	FindByBarcode(ctx context.Context, sessionID uuid.UUID, barcode string) ([]model.Item, error)
	FindBySKU(ctx context.Context, sessionID uuid.UUID, sku string) (*model.Item, error)
	SearchByName(ctx context.Context, sessionID uuid.UUID, query string, limit int) ([]model.Item, error)
	List(ctx context.Context, sessionID uuid.UUID, filter dto.ItemFilter) ([]model.Item, int64, error)

	// Used inside transactions — callers must pass the tx instance.
	// ApplyCountTx is a plain row update: same-item concurrent submissions
	// resolve last-writer-wins. Adding a version column and returning
	// apierror.Conflict on mismatch is the documented upgrade path.
	ApplyCountTx(tx *gorm.DB, id uuid.UUID, countedQty, variance int, status, actorName string, at time.Time) error
	SetStatusTx(tx *gorm.DB, id uuid.UUID, status string) error

	// Zone aggregates for completion detection and summaries.
	ZoneCounts(ctx context.Context, sessionID uuid.UUID, zone string) (total, counted int64, err error)
	ZoneBreakdown(ctx context.Context, sessionID uuid.UUID) ([]ZoneTally, error)
	StatusCounts(ctx context.Context, sessionID uuid.UUID) (map[string]int64, error)
	CountBySession(ctx context.Context, sessionID uuid.UUID) (int64, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type itemRepo struct{ db *gorm.DB }

func NewItemRepository(db *gorm.DB) ItemRepository { return &itemRepo{db: db} }

func (r *itemRepo) CreateBatchTx(tx *gorm.DB, items []model.Item) error {
	if len(items) == 0 {
		return nil
	}
	return tx.CreateInBatches(items, 500).Error
}

func (r *itemRepo) FindByID(ctx context.Context, sessionID, id uuid.UUID) (*model.Item, error) {
	var item model.Item
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND id = ?", sessionID, id).
		First(&item).Error
	return &item, err
}

func (r *itemRepo) FindByBarcode(ctx context.Context, sessionID uuid.UUID, barcode string) ([]model.Item, error) {
	var items []model.Item
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND barcode = ?", sessionID, barcode).
		Order("sku ASC").
		Find(&items).Error
	return items, err
}

func (r *itemRepo) FindBySKU(ctx context.Context, sessionID uuid.UUID, sku string) (*model.Item, error) {
	var item model.Item
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND sku = ?", sessionID, sku).
		First(&item).Error
	return &item, err
}

func (r *itemRepo) SearchByName(ctx context.Context, sessionID uuid.UUID, query string, limit int) ([]model.Item, error) {
	var items []model.Item
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND name ILIKE ?", sessionID, "%"+query+"%").
		Order("name ASC").Limit(limit).
		Find(&items).Error
	return items, err
}

func (r *itemRepo) List(ctx context.Context, sessionID uuid.UUID, filter dto.ItemFilter) ([]model.Item, int64, error) {
	var items []model.Item
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Item{}).Where("session_id = ?", sessionID)
	if filter.Zone != "" {
		q = q.Where("zone = ?", filter.Zone)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Query != "" {
		q = q.Where("name ILIKE ? OR sku ILIKE ?", "%"+filter.Query+"%", "%"+filter.Query+"%")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("zone ASC, sku ASC").Limit(filter.Limit).Offset(offset).Find(&items).Error
	return items, total, err
}

func (r *itemRepo) ApplyCountTx(tx *gorm.DB, id uuid.UUID, countedQty, variance int, status, actorName string, at time.Time) error {
	return tx.Model(&model.Item{}).Where("id = ?", id).Updates(map[string]interface{}{
		"counted_qty":     countedQty,
		"variance":        variance,
		"status":          status,
		"last_counted_by": actorName,
		"last_counted_at": at,
	}).Error
}

func (r *itemRepo) SetStatusTx(tx *gorm.DB, id uuid.UUID, status string) error {
	return tx.Model(&model.Item{}).Where("id = ?", id).Update("status", status).Error
}

func (r *itemRepo) ZoneCounts(ctx context.Context, sessionID uuid.UUID, zone string) (int64, int64, error) {
	var row ZoneTally
	err := r.db.WithContext(ctx).Model(&model.Item{}).
		Select("COUNT(*) AS total, COUNT(*) FILTER (WHERE status IN ?) AS counted",
			[]string{model.StatusCounted, model.StatusVariance, model.StatusVerified}).
		Where("session_id = ? AND zone = ?", sessionID, zone).
		Scan(&row).Error
	return row.Total, row.Counted, err
}

func (r *itemRepo) ZoneBreakdown(ctx context.Context, sessionID uuid.UUID) ([]ZoneTally, error) {
	var rows []ZoneTally
	err := r.db.WithContext(ctx).Model(&model.Item{}).
		Select("zone, COUNT(*) AS total, COUNT(*) FILTER (WHERE status IN ?) AS counted",
			[]string{model.StatusCounted, model.StatusVariance, model.StatusVerified}).
		Where("session_id = ?", sessionID).
		Group("zone").Order("zone ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *itemRepo) StatusCounts(ctx context.Context, sessionID uuid.UUID) (map[string]int64, error) {
	var rows []struct {
		Status string
		N      int64
	}
	err := r.db.WithContext(ctx).Model(&model.Item{}).
		Select("status, COUNT(*) AS n").
		Where("session_id = ?", sessionID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.N
	}
	return counts, nil
}

func (r *itemRepo) CountBySession(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Item{}).
		Where("session_id = ?", sessionID).
		Count(&total).Error
	return total, err
}

func (r *itemRepo) DB() *gorm.DB { return r.db }
