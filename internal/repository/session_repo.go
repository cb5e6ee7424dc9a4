package repository

import (
	"context"

	"stocktake/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionRepository interface {
	CreateTx(tx *gorm.DB, s *model.CountSession) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CountSession, error)
	// FindActive returns the single session in active state, if any.
	FindActive(ctx context.Context) (*model.CountSession, error)
	Update(ctx context.Context, s *model.CountSession) error
	DB() *gorm.DB
}

type sessionRepo struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &sessionRepo{db: db} }

func (r *sessionRepo) CreateTx(tx *gorm.DB, s *model.CountSession) error {
	return tx.Create(s).Error
}

func (r *sessionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CountSession, error) {
	var s model.CountSession
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	return &s, err
}

func (r *sessionRepo) FindActive(ctx context.Context) (*model.CountSession, error) {
	var s model.CountSession
	err := r.db.WithContext(ctx).
		Where("status = ?", model.SessionActive).
		Order("started_at DESC").
		First(&s).Error
	return &s, err
}

func (r *sessionRepo) Update(ctx context.Context, s *model.CountSession) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *sessionRepo) DB() *gorm.DB { return r.db }
