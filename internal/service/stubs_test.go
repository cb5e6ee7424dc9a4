package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stocktake/internal/dto"
	"stocktake/internal/model"
	"stocktake/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory stub repositories. DB() returns nil so runTx executes callbacks
// directly, without a real transaction.

// ─── stubItemRepo ────────────────────────────────────────────────────────────

type stubItemRepo struct {
	items     map[uuid.UUID]*model.Item
	applyErr  error
	statusErr error
}

func newStubItemRepo(items ...*model.Item) *stubItemRepo {
	m := make(map[uuid.UUID]*model.Item, len(items))
	for _, it := range items {
		if it.ID == uuid.Nil {
			it.ID = uuid.New()
		}
		m[it.ID] = it
	}
	return &stubItemRepo{items: m}
}

func (r *stubItemRepo) CreateBatchTx(tx *gorm.DB, items []model.Item) error {
	for i := range items {
		it := items[i]
		if it.ID == uuid.Nil {
			it.ID = uuid.New()
		}
		r.items[it.ID] = &it
	}
	return nil
}

func (r *stubItemRepo) FindByID(ctx context.Context, sessionID, id uuid.UUID) (*model.Item, error) {
	it, ok := r.items[id]
	if !ok || it.SessionID != sessionID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *it
	return &cp, nil
}

func (r *stubItemRepo) FindByBarcode(ctx context.Context, sessionID uuid.UUID, barcode string) ([]model.Item, error) {
	var out []model.Item
	for _, it := range r.items {
		if it.SessionID == sessionID && it.Barcode != nil && *it.Barcode == barcode {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (r *stubItemRepo) FindBySKU(ctx context.Context, sessionID uuid.UUID, sku string) (*model.Item, error) {
	for _, it := range r.items {
		if it.SessionID == sessionID && it.SKU == sku {
			cp := *it
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubItemRepo) SearchByName(ctx context.Context, sessionID uuid.UUID, query string, limit int) ([]model.Item, error) {
	var out []model.Item
	for _, it := range r.items {
		if it.SessionID == sessionID && strings.Contains(strings.ToLower(it.Name), strings.ToLower(query)) {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (r *stubItemRepo) List(ctx context.Context, sessionID uuid.UUID, filter dto.ItemFilter) ([]model.Item, int64, error) {
	var out []model.Item
	for _, it := range r.items {
		if it.SessionID != sessionID {
			continue
		}
		if filter.Zone != "" && it.Zone != filter.Zone {
			continue
		}
		if filter.Status != "" && it.Status != filter.Status {
			continue
		}
		out = append(out, *it)
	}
	return out, int64(len(out)), nil
}

func (r *stubItemRepo) ApplyCountTx(tx *gorm.DB, id uuid.UUID, countedQty, variance int, status, actorName string, at time.Time) error {
	if r.applyErr != nil {
		return r.applyErr
	}
	it, ok := r.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	it.CountedQty = &countedQty
	it.Variance = &variance
	it.Status = status
	it.LastCountedBy = &actorName
	it.LastCountedAt = &at
	return nil
}

func (r *stubItemRepo) SetStatusTx(tx *gorm.DB, id uuid.UUID, status string) error {
	if r.statusErr != nil {
		return r.statusErr
	}
	it, ok := r.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	it.Status = status
	return nil
}

func (r *stubItemRepo) ZoneCounts(ctx context.Context, sessionID uuid.UUID, zone string) (int64, int64, error) {
	var total, counted int64
	for _, it := range r.items {
		if it.SessionID != sessionID || it.Zone != zone {
			continue
		}
		total++
		if it.Counted() {
			counted++
		}
	}
	return total, counted, nil
}

func (r *stubItemRepo) ZoneBreakdown(ctx context.Context, sessionID uuid.UUID) ([]repository.ZoneTally, error) {
	byZone := map[string]*repository.ZoneTally{}
	for _, it := range r.items {
		if it.SessionID != sessionID {
			continue
		}
		t, ok := byZone[it.Zone]
		if !ok {
			t = &repository.ZoneTally{Zone: it.Zone}
			byZone[it.Zone] = t
		}
		t.Total++
		if it.Counted() {
			t.Counted++
		}
	}
	var out []repository.ZoneTally
	for _, t := range byZone {
		out = append(out, *t)
	}
	return out, nil
}

func (r *stubItemRepo) StatusCounts(ctx context.Context, sessionID uuid.UUID) (map[string]int64, error) {
	counts := map[string]int64{}
	for _, it := range r.items {
		if it.SessionID == sessionID {
			counts[it.Status]++
		}
	}
	return counts, nil
}

func (r *stubItemRepo) CountBySession(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	var n int64
	for _, it := range r.items {
		if it.SessionID == sessionID {
			n++
		}
	}
	return n, nil
}

func (r *stubItemRepo) DB() *gorm.DB { return nil }

// ─── stubActivityRepo ────────────────────────────────────────────────────────

type stubActivityRepo struct {
	events    []*model.ActivityEvent
	createErr error
}

func (r *stubActivityRepo) record(e *model.ActivityEvent) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.Seq = int64(len(r.events) + 1)
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	r.events = append(r.events, e)
}

func (r *stubActivityRepo) Create(ctx context.Context, e *model.ActivityEvent) error {
	if r.createErr != nil {
		return r.createErr
	}
	// Mirror the partial unique index on (session_id, zone) for zone_complete.
	if e.Type == model.EventZoneComplete {
		for _, ex := range r.events {
			if ex.Type == model.EventZoneComplete && ex.SessionID == e.SessionID &&
				ex.Zone != nil && e.Zone != nil && *ex.Zone == *e.Zone {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	r.record(e)
	return nil
}

func (r *stubActivityRepo) CreateTx(tx *gorm.DB, e *model.ActivityEvent) error {
	return r.Create(context.Background(), e)
}

func (r *stubActivityRepo) List(ctx context.Context, sessionID uuid.UUID, filter dto.ActivityFilter) ([]model.ActivityEvent, int64, error) {
	var out []model.ActivityEvent
	for _, e := range r.events {
		if e.SessionID != sessionID {
			continue
		}
		if filter.Type != "" && e.Type != filter.Type {
			continue
		}
		if filter.Zone != "" && (e.Zone == nil || *e.Zone != filter.Zone) {
			continue
		}
		out = append(out, *e)
	}
	return out, int64(len(out)), nil
}

func (r *stubActivityRepo) ZoneCompleteExists(ctx context.Context, sessionID uuid.UUID, zone string) (bool, error) {
	for _, e := range r.events {
		if e.Type == model.EventZoneComplete && e.SessionID == sessionID && e.Zone != nil && *e.Zone == zone {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubActivityRepo) byType(t string) []*model.ActivityEvent {
	var out []*model.ActivityEvent
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// ─── stubSessionRepo ─────────────────────────────────────────────────────────

type stubSessionRepo struct {
	sessions map[uuid.UUID]*model.CountSession
}

func newStubSessionRepo(sessions ...*model.CountSession) *stubSessionRepo {
	m := make(map[uuid.UUID]*model.CountSession, len(sessions))
	for _, s := range sessions {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		m[s.ID] = s
	}
	return &stubSessionRepo{sessions: m}
}

func (r *stubSessionRepo) CreateTx(tx *gorm.DB, s *model.CountSession) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.sessions[s.ID] = s
	return nil
}

func (r *stubSessionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CountSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *stubSessionRepo) FindActive(ctx context.Context) (*model.CountSession, error) {
	for _, s := range r.sessions {
		if s.Status == model.SessionActive {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubSessionRepo) Update(ctx context.Context, s *model.CountSession) error {
	if _, ok := r.sessions[s.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.sessions[s.ID] = s
	return nil
}

func (r *stubSessionRepo) DB() *gorm.DB { return nil }

// ─── stubUserRepo ────────────────────────────────────────────────────────────

type stubUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newStubUserRepo(users ...*model.User) *stubUserRepo {
	m := make(map[uuid.UUID]*model.User, len(users))
	for _, u := range users {
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		m[u.ID] = u
	}
	return &stubUserRepo{users: m}
}

func (r *stubUserRepo) Create(ctx context.Context, u *model.User) error {
	for _, ex := range r.users {
		if ex.Username == u.Username {
			return fmt.Errorf("duplicate username")
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.ID] = u
	return nil
}

func (r *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *stubUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username && u.Active {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) List(ctx context.Context) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		if u.Active {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *stubUserRepo) ListAll(ctx context.Context) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *stubUserRepo) ListByRole(ctx context.Context, role string) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		if u.Role == role && u.Active {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *stubUserRepo) Update(ctx context.Context, u *model.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *stubUserRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Active = false
	return nil
}

func (r *stubUserRepo) Reactivate(ctx context.Context, id uuid.UUID) error {
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Active = true
	return nil
}
