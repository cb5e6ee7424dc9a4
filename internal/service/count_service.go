package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stocktake/internal/apierror"
	"stocktake/internal/barcode"
	"stocktake/internal/dto"
	"stocktake/internal/model"
	"stocktake/internal/repository"
	"stocktake/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// CountService is the reconciliation engine: it turns submitted quantities
// into variance, status transitions, activity events, and zone-completion
// milestones.
type CountService interface {
	SubmitCount(ctx context.Context, sessionID uuid.UUID, req dto.SubmitCountRequest, actorID uuid.UUID) (*dto.ItemResponse, error)
	Verify(ctx context.Context, sessionID, itemID, actorID uuid.UUID) (*dto.ItemResponse, error)
	BulkVerify(ctx context.Context, sessionID uuid.UUID, req dto.BulkVerifyRequest, actorID uuid.UUID) (*dto.BulkVerifyResponse, error)
}

type countService struct {
	items      repository.ItemRepository
	activity   repository.ActivityRepository
	sessions   repository.SessionRepository
	users      repository.UserRepository
	dispatcher *worker.Dispatcher
}

func NewCountService(
	items repository.ItemRepository,
	activity repository.ActivityRepository,
	sessions repository.SessionRepository,
	users repository.UserRepository,
	dispatcher *worker.Dispatcher,
) CountService {
	return &countService{
		items:      items,
		activity:   activity,
		sessions:   sessions,
		users:      users,
		dispatcher: dispatcher,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── SubmitCount ───────────────────────────────────────────────────────────────
// One submission:
//   1. Resolve session (must be active) and item
//   2. Gate the captured barcode through its symbology checksum (scan path only)
//   3. variance = counted − expected; status = counted | variance
//   4. TX: apply count to the item row + append one activity event
//   5. Re-derive zone completion for the item's zone (after commit)
//
// Same-item concurrent submissions resolve last-writer-wins at the storage
// layer — deliberate for a live collaborative count, see ItemRepository.

func (s *countService) SubmitCount(ctx context.Context, sessionID uuid.UUID, req dto.SubmitCountRequest, actorID uuid.UUID) (*dto.ItemResponse, error) {
	if req.CountedQty == nil || *req.CountedQty < 0 {
		return nil, apierror.InvalidInput("counted_qty must be a non-negative integer")
	}
	countedQty := *req.CountedQty

	session, err := s.requireActiveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if req.CapturedBarcode != "" {
		if _, err := barcode.Validate(req.CapturedBarcode, barcode.Format(req.BarcodeFormat)); err != nil {
			return nil, apierror.InvalidInput("barcode rejected: " + err.Error())
		}
	}

	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		return nil, apierror.InvalidInput("item_id is not a valid uuid")
	}
	item, err := s.items.FindByID(ctx, session.ID, itemID)
	if err != nil {
		return nil, apierror.NotFound("item not found in this session")
	}

	variance := countedQty - item.ExpectedQty
	status := model.StatusCounted
	if variance != 0 {
		status = model.StatusVariance
	}

	actorName := s.resolveActorName(ctx, actorID)
	now := time.Now().UTC()

	event := &model.ActivityEvent{
		SessionID: session.ID,
		ActorID:   &actorID,
		ActorName: &actorName,
		Zone:      &item.Zone,
		ItemID:    &item.ID,
	}
	if variance == 0 {
		event.Type = model.EventCount
		event.Message = fmt.Sprintf("counted %d for %s", countedQty, item.Name)
	} else {
		event.Type = model.EventVariance
		event.Message = fmt.Sprintf("flagged variance on %s (%+d)", item.Name, variance)
	}

	// Item update and event append are all-or-nothing: a failed submission
	// must not leave a half-recorded count.
	txErr := runTx(ctx, s.items.DB(), func(tx *gorm.DB) error {
		if err := s.items.ApplyCountTx(tx, item.ID, countedQty, variance, status, actorName, now); err != nil {
			return err
		}
		return s.activity.CreateTx(tx, event)
	})
	if txErr != nil {
		return nil, apierror.Internal("failed to record count")
	}

	s.deriveZoneCompletion(ctx, session.ID, session.Name, item.Zone)

	item.CountedQty = &countedQty
	item.Variance = &variance
	item.Status = status
	item.LastCountedBy = &actorName
	item.LastCountedAt = &now
	return itemToResponse(item), nil
}

// ── Verify ────────────────────────────────────────────────────────────────────
// Confirms acceptance of a discrepancy. Only variance items qualify; the
// counted quantity and variance are left untouched and the audit pair is NOT
// updated (verification is not a count).

func (s *countService) Verify(ctx context.Context, sessionID, itemID, actorID uuid.UUID) (*dto.ItemResponse, error) {
	session, err := s.requireActiveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	actorName := s.resolveActorName(ctx, actorID)

	item, err := s.verifyOne(ctx, session, itemID, actorID, actorName)
	if err != nil {
		return nil, err
	}
	return itemToResponse(item), nil
}

func (s *countService) verifyOne(ctx context.Context, session *model.CountSession, itemID, actorID uuid.UUID, actorName string) (*model.Item, error) {
	item, err := s.items.FindByID(ctx, session.ID, itemID)
	if err != nil {
		return nil, apierror.NotFound("item not found in this session")
	}
	if item.Status != model.StatusVariance {
		return nil, apierror.InvalidState("only variance items can be verified")
	}

	event := &model.ActivityEvent{
		SessionID: session.ID,
		Type:      model.EventVerify,
		Message:   fmt.Sprintf("verified variance on %s", item.Name),
		ActorID:   &actorID,
		ActorName: &actorName,
		Zone:      &item.Zone,
		ItemID:    &item.ID,
	}

	txErr := runTx(ctx, s.items.DB(), func(tx *gorm.DB) error {
		if err := s.items.SetStatusTx(tx, item.ID, model.StatusVerified); err != nil {
			return err
		}
		return s.activity.CreateTx(tx, event)
	})
	if txErr != nil {
		return nil, apierror.Internal("failed to record verification")
	}

	s.deriveZoneCompletion(ctx, session.ID, session.Name, item.Zone)

	item.Status = model.StatusVerified
	return item, nil
}

// ── BulkVerify ────────────────────────────────────────────────────────────────
// Applies the variance precondition per item; failing items are soft skips,
// never a batch abort. Callers inspect updated_count to detect partial
// application.

func (s *countService) BulkVerify(ctx context.Context, sessionID uuid.UUID, req dto.BulkVerifyRequest, actorID uuid.UUID) (*dto.BulkVerifyResponse, error) {
	session, err := s.requireActiveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	actorName := s.resolveActorName(ctx, actorID)

	resp := &dto.BulkVerifyResponse{SkippedIDs: []string{}}
	for _, raw := range req.ItemIDs {
		itemID, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			resp.SkippedIDs = append(resp.SkippedIDs, raw)
			continue
		}
		if _, err := s.verifyOne(ctx, session, itemID, actorID, actorName); err != nil {
			var apiErr *apierror.Error
			if errors.As(err, &apiErr) && apiErr.Kind == apierror.KindInternal {
				// Storage failure is not a precondition skip — surface it.
				return nil, err
			}
			resp.SkippedIDs = append(resp.SkippedIDs, raw)
			continue
		}
		resp.UpdatedCount++
	}
	return resp, nil
}

// ── Zone completion ───────────────────────────────────────────────────────────
// Runs as a side effect after every submission or verification touching the
// zone — never as a background sweep. The pre-check keeps the common path
// cheap; the partial unique index on (session_id, zone) closes the
// read-then-write race, so a duplicate insert collapses to "already
// announced".

func (s *countService) deriveZoneCompletion(ctx context.Context, sessionID uuid.UUID, sessionName, zone string) {
	emitted, err := s.checkZoneCompletion(ctx, sessionID, zone)
	if err != nil {
		log.Warn().Err(err).
			Str("session_id", sessionID.String()).
			Str("zone", zone).
			Msg("zone completion check failed")
		return
	}
	if !emitted {
		return
	}
	log.Info().
		Str("session_id", sessionID.String()).
		Str("zone", zone).
		Msg("zone completed")

	// Supervisor notification is best-effort — fire & forget.
	if s.dispatcher != nil {
		_ = s.dispatcher.EnqueueNotify(ctx, worker.NotifyJobPayload{
			SessionID:   sessionID.String(),
			SessionName: sessionName,
			Zone:        zone,
		})
	}
}

func (s *countService) checkZoneCompletion(ctx context.Context, sessionID uuid.UUID, zone string) (bool, error) {
	total, counted, err := s.items.ZoneCounts(ctx, sessionID, zone)
	if err != nil {
		return false, err
	}
	if total == 0 || counted < total {
		return false, nil
	}

	exists, err := s.activity.ZoneCompleteExists(ctx, sessionID, zone)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	event := &model.ActivityEvent{
		SessionID: sessionID,
		Type:      model.EventZoneComplete,
		Message:   fmt.Sprintf("completed zone %s", zone),
		Zone:      &zone,
	}
	if err := s.activity.Create(ctx, event); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the insert race — another submission announced it first.
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (s *countService) requireActiveSession(ctx context.Context, sessionID uuid.UUID) (*model.CountSession, error) {
	if sessionID == uuid.Nil {
		return nil, apierror.Unauthorized("no session context")
	}
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, apierror.Unauthorized("count session not found")
	}
	if session.Status != model.SessionActive {
		return nil, apierror.InvalidState("count session is closed")
	}
	return session, nil
}

func (s *countService) resolveActorName(ctx context.Context, actorID uuid.UUID) string {
	user, err := s.users.FindByID(ctx, actorID)
	if err != nil {
		return ActorDisplayName("", "", actorID.String())
	}
	return ActorDisplayName(user.FirstName, user.LastName, actorID.String())
}

func itemToResponse(item *model.Item) *dto.ItemResponse {
	resp := &dto.ItemResponse{
		ID:          item.ID.String(),
		SKU:         item.SKU,
		Name:        item.Name,
		Barcode:     item.Barcode,
		Zone:        item.Zone,
		Category:    item.Category,
		Warehouse:   item.Warehouse,
		UOM:         item.UOM,
		Supplier:    item.Supplier,
		ExpectedQty: item.ExpectedQty,
		CountedQty:  item.CountedQty,
		Variance:    item.Variance,
		Status:      item.Status,
	}
	resp.LastCountedBy = item.LastCountedBy
	if item.LastCountedAt != nil {
		ts := item.LastCountedAt.Format("2006-01-02T15:04:05Z")
		resp.LastCountedAt = &ts
	}
	return resp
}
