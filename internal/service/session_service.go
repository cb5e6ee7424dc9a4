package service

import (
	"context"
	"fmt"
	"time"

	"stocktake/internal/apierror"
	"stocktake/internal/barcode"
	"stocktake/internal/dto"
	"stocktake/internal/model"
	"stocktake/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SessionService manages the stock-take lifecycle: loading a catalog into a
// new session, operators joining, progress summaries, and closing.
type SessionService interface {
	Start(ctx context.Context, req dto.StartSessionRequest, actorID uuid.UUID) (*dto.SessionResponse, error)
	Get(ctx context.Context, sessionID uuid.UUID) (*dto.SessionResponse, error)
	Active(ctx context.Context) (*dto.SessionResponse, error)
	Join(ctx context.Context, sessionID, actorID uuid.UUID) (*dto.SessionResponse, error)
	Summary(ctx context.Context, sessionID uuid.UUID) (*dto.SessionSummaryResponse, error)
	Activity(ctx context.Context, sessionID uuid.UUID, filter dto.ActivityFilter) (*dto.ActivityListResponse, error)
	Close(ctx context.Context, sessionID, actorID uuid.UUID) (*dto.SessionResponse, error)
}

type sessionService struct {
	sessions repository.SessionRepository
	items    repository.ItemRepository
	activity repository.ActivityRepository
	users    repository.UserRepository
}

func NewSessionService(
	sessions repository.SessionRepository,
	items repository.ItemRepository,
	activity repository.ActivityRepository,
	users repository.UserRepository,
) SessionService {
	return &sessionService{sessions: sessions, items: items, activity: activity, users: users}
}

// ── Start ─────────────────────────────────────────────────────────────────────
// The catalog snapshot loads once, atomically with the session row. Items
// never join a session later; the expected list is frozen at start so
// variance always measures against the same baseline.

func (s *sessionService) Start(ctx context.Context, req dto.StartSessionRequest, actorID uuid.UUID) (*dto.SessionResponse, error) {
	if active, err := s.sessions.FindActive(ctx); err == nil && active != nil && active.Status == model.SessionActive {
		return nil, apierror.InvalidState(fmt.Sprintf("session %q is still active; close it first", active.Name))
	}

	seen := make(map[string]struct{}, len(req.Items))
	for _, ci := range req.Items {
		if _, dup := seen[ci.SKU]; dup {
			return nil, apierror.InvalidInput("duplicate sku in catalog: " + ci.SKU)
		}
		seen[ci.SKU] = struct{}{}
		if ci.Barcode != nil {
			if _, err := barcode.Validate(*ci.Barcode, ""); err != nil {
				return nil, apierror.InvalidInput(fmt.Sprintf("catalog item %s: %v", ci.SKU, err))
			}
		}
	}

	session := &model.CountSession{
		Name:      req.Name,
		Status:    model.SessionActive,
		StartedBy: actorID,
		StartedAt: time.Now().UTC(),
	}

	txErr := runTx(ctx, s.sessions.DB(), func(tx *gorm.DB) error {
		if err := s.sessions.CreateTx(tx, session); err != nil {
			return err
		}
		items := make([]model.Item, len(req.Items))
		for i, ci := range req.Items {
			items[i] = model.Item{
				SessionID:   session.ID,
				SKU:         ci.SKU,
				Name:        ci.Name,
				Barcode:     ci.Barcode,
				Zone:        ci.Zone,
				Category:    ci.Category,
				Warehouse:   ci.Warehouse,
				UOM:         ci.UOM,
				Supplier:    ci.Supplier,
				ExpectedQty: ci.ExpectedQty,
				Status:      model.StatusPending,
			}
		}
		return s.items.CreateBatchTx(tx, items)
	})
	if txErr != nil {
		log.Error().Err(txErr).Str("name", req.Name).Msg("failed to start session")
		return nil, apierror.Internal("failed to start session")
	}

	log.Info().
		Str("session_id", session.ID.String()).
		Int("items", len(req.Items)).
		Msg("count session started")
	return s.toResponse(ctx, session)
}

func (s *sessionService) Get(ctx context.Context, sessionID uuid.UUID) (*dto.SessionResponse, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, apierror.NotFound("count session not found")
	}
	return s.toResponse(ctx, session)
}

func (s *sessionService) Active(ctx context.Context) (*dto.SessionResponse, error) {
	session, err := s.sessions.FindActive(ctx)
	if err != nil {
		return nil, apierror.NotFound("no active count session")
	}
	return s.toResponse(ctx, session)
}

// Join records an operator entering the count. Idempotency is not enforced:
// re-joining after a dropped connection is a normal, visible ledger event.
func (s *sessionService) Join(ctx context.Context, sessionID, actorID uuid.UUID) (*dto.SessionResponse, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, apierror.NotFound("count session not found")
	}
	if session.Status != model.SessionActive {
		return nil, apierror.InvalidState("count session is closed")
	}

	actorName := s.resolveActorName(ctx, actorID)
	event := &model.ActivityEvent{
		SessionID: session.ID,
		Type:      model.EventJoin,
		Message:   fmt.Sprintf("%s joined the count", actorName),
		ActorID:   &actorID,
		ActorName: &actorName,
	}
	if err := s.activity.Create(ctx, event); err != nil {
		return nil, apierror.Internal("failed to record join")
	}
	return s.toResponse(ctx, session)
}

// ── Summary ───────────────────────────────────────────────────────────────────

func (s *sessionService) Summary(ctx context.Context, sessionID uuid.UUID) (*dto.SessionSummaryResponse, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, apierror.NotFound("count session not found")
	}

	statuses, err := s.items.StatusCounts(ctx, sessionID)
	if err != nil {
		return nil, apierror.Internal("failed to aggregate session status")
	}
	zones, err := s.items.ZoneBreakdown(ctx, sessionID)
	if err != nil {
		return nil, apierror.Internal("failed to aggregate zones")
	}

	resp := &dto.SessionSummaryResponse{
		SessionID:     session.ID.String(),
		Name:          session.Name,
		Status:        session.Status,
		PendingItems:  statuses[model.StatusPending],
		CountedItems:  statuses[model.StatusCounted],
		VarianceItems: statuses[model.StatusVariance],
		VerifiedItems: statuses[model.StatusVerified],
		Zones:         make([]dto.ZoneProgress, len(zones)),
	}
	for _, n := range statuses {
		resp.TotalItems += n
	}

	counted := resp.CountedItems + resp.VarianceItems + resp.VerifiedItems
	if resp.TotalItems > 0 {
		resp.CompletionPct = decimal.NewFromInt(counted).
			Div(decimal.NewFromInt(resp.TotalItems)).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}

	for i, z := range zones {
		resp.Zones[i] = dto.ZoneProgress{
			Zone:     z.Zone,
			Total:    z.Total,
			Counted:  z.Counted,
			Complete: z.Total > 0 && z.Counted >= z.Total,
		}
	}
	return resp, nil
}

func (s *sessionService) Activity(ctx context.Context, sessionID uuid.UUID, filter dto.ActivityFilter) (*dto.ActivityListResponse, error) {
	if _, err := s.sessions.FindByID(ctx, sessionID); err != nil {
		return nil, apierror.NotFound("count session not found")
	}
	events, total, err := s.activity.List(ctx, sessionID, filter)
	if err != nil {
		return nil, apierror.Internal("failed to list activity")
	}

	resp := &dto.ActivityListResponse{
		Data:  make([]dto.ActivityEventResponse, len(events)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i, e := range events {
		resp.Data[i] = eventToResponse(&e)
	}
	return resp, nil
}

// ── Close ─────────────────────────────────────────────────────────────────────

func (s *sessionService) Close(ctx context.Context, sessionID, actorID uuid.UUID) (*dto.SessionResponse, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, apierror.NotFound("count session not found")
	}
	if session.Status != model.SessionActive {
		return nil, apierror.InvalidState("count session is already closed")
	}

	now := time.Now().UTC()
	session.Status = model.SessionClosed
	session.ClosedAt = &now
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, apierror.Internal("failed to close session")
	}

	log.Info().Str("session_id", session.ID.String()).Msg("count session closed")
	return s.toResponse(ctx, session)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (s *sessionService) resolveActorName(ctx context.Context, actorID uuid.UUID) string {
	user, err := s.users.FindByID(ctx, actorID)
	if err != nil {
		return ActorDisplayName("", "", actorID.String())
	}
	return ActorDisplayName(user.FirstName, user.LastName, actorID.String())
}

func (s *sessionService) toResponse(ctx context.Context, session *model.CountSession) (*dto.SessionResponse, error) {
	itemCount, err := s.items.CountBySession(ctx, session.ID)
	if err != nil {
		itemCount = 0
	}
	resp := &dto.SessionResponse{
		ID:        session.ID.String(),
		Name:      session.Name,
		Status:    session.Status,
		StartedBy: session.StartedBy.String(),
		StartedAt: session.StartedAt.Format(time.RFC3339),
		ItemCount: itemCount,
	}
	if session.ClosedAt != nil {
		ts := session.ClosedAt.Format(time.RFC3339)
		resp.ClosedAt = &ts
	}
	return resp, nil
}

func eventToResponse(e *model.ActivityEvent) dto.ActivityEventResponse {
	resp := dto.ActivityEventResponse{
		ID:        e.ID.String(),
		SessionID: e.SessionID.String(),
		Type:      e.Type,
		Message:   e.Message,
		ActorName: e.ActorName,
		Zone:      e.Zone,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}
	if e.ActorID != nil {
		id := e.ActorID.String()
		resp.ActorID = &id
	}
	if e.ItemID != nil {
		id := e.ItemID.String()
		resp.ItemID = &id
	}
	return resp
}
