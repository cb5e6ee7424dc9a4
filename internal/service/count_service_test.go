package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"stocktake/internal/apierror"
	"stocktake/internal/dto"
	"stocktake/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countFixture struct {
	svc      CountService
	items    *stubItemRepo
	activity *stubActivityRepo
	sessions *stubSessionRepo
	users    *stubUserRepo
	session  *model.CountSession
	actor    *model.User
}

func newCountFixture(t *testing.T, items ...*model.Item) *countFixture {
	t.Helper()
	session := &model.CountSession{
		ID:        uuid.New(),
		Name:      "Q3 warehouse count",
		Status:    model.SessionActive,
		StartedBy: uuid.New(),
		StartedAt: time.Now().UTC(),
	}
	for _, it := range items {
		it.SessionID = session.ID
		if it.Status == "" {
			it.Status = model.StatusPending
		}
	}
	actor := &model.User{
		ID:        uuid.New(),
		Username:  "mgarcia",
		FirstName: "Maria",
		LastName:  "Garcia",
		Role:      "counter",
		Active:    true,
	}
	f := &countFixture{
		items:    newStubItemRepo(items...),
		activity: &stubActivityRepo{},
		sessions: newStubSessionRepo(session),
		users:    newStubUserRepo(actor),
		session:  session,
		actor:    actor,
	}
	f.svc = NewCountService(f.items, f.activity, f.sessions, f.users, nil)
	return f
}

func intPtr(n int) *int { return &n }

func submitReq(itemID uuid.UUID, qty int) dto.SubmitCountRequest {
	return dto.SubmitCountRequest{ItemID: itemID.String(), CountedQty: intPtr(qty)}
}

func TestSubmitCountExactMatch(t *testing.T) {
	item := &model.Item{ID: uuid.New(), SKU: "SKU-001", Name: "Yerba 1kg", Zone: "A1", ExpectedQty: 12}
	f := newCountFixture(t, item)

	resp, err := f.svc.SubmitCount(context.Background(), f.session.ID, submitReq(item.ID, 12), f.actor.ID)
	require.NoError(t, err)

	assert.Equal(t, model.StatusCounted, resp.Status)
	require.NotNil(t, resp.CountedQty)
	assert.Equal(t, 12, *resp.CountedQty)
	require.NotNil(t, resp.Variance)
	assert.Equal(t, 0, *resp.Variance)
	require.NotNil(t, resp.LastCountedBy)
	assert.Equal(t, "Maria Garcia", *resp.LastCountedBy)
	assert.NotNil(t, resp.LastCountedAt)

	events := f.activity.byType(model.EventCount)
	require.Len(t, events, 1)
	assert.Equal(t, "counted 12 for Yerba 1kg", events[0].Message)
	require.NotNil(t, events[0].Zone)
	assert.Equal(t, "A1", *events[0].Zone)
}

func TestSubmitCountVariance(t *testing.T) {
	over := &model.Item{ID: uuid.New(), SKU: "SKU-001", Name: "Yerba 1kg", Zone: "A1", ExpectedQty: 10}
	under := &model.Item{ID: uuid.New(), SKU: "SKU-002", Name: "Azucar 1kg", Zone: "A1", ExpectedQty: 10}
	f := newCountFixture(t, over, under)

	resp, err := f.svc.SubmitCount(context.Background(), f.session.ID, submitReq(over.ID, 13), f.actor.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusVariance, resp.Status)
	assert.Equal(t, 3, *resp.Variance)

	resp, err = f.svc.SubmitCount(context.Background(), f.session.ID, submitReq(under.ID, 8), f.actor.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusVariance, resp.Status)
	assert.Equal(t, -2, *resp.Variance)

	events := f.activity.byType(model.EventVariance)
	require.Len(t, events, 2)
	assert.Equal(t, "flagged variance on Yerba 1kg (+3)", events[0].Message)
	assert.Equal(t, "flagged variance on Azucar 1kg (-2)", events[1].Message)
}

func TestSubmitCountZeroQuantityIsValid(t *testing.T) {
	item := &model.Item{ID: uuid.New(), SKU: "SKU-001", Name: "Yerba 1kg", Zone: "A1", ExpectedQty: 0}
	f := newCountFixture(t, item)

	resp, err := f.svc.SubmitCount(context.Background(), f.session.ID, submitReq(item.ID, 0), f.actor.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCounted, resp.Status)
	assert.Equal(t, 0, *resp.Variance)
}

func TestSubmitCountRecountOverwrites(t *testing.T) {
	item := &model.Item{ID: uuid.New(), SKU: "SKU-001", Name: "Yerba 1kg", Zone: "A1", ExpectedQty: 10}
	f := newCountFixture(t, item)
	ctx := context.Background()

	_, err := f.svc.SubmitCount(ctx, f.session.ID, submitReq(item.ID, 7), f.actor.ID)
	require.NoError(t, err)

	resp, err := f.svc.SubmitCount(ctx, f.session.ID, submitReq(item.ID, 10), f.actor.ID)
	require.NoError(t, err)

	// Recount replaces the count and can clear a variance flag.
	assert.Equal(t, model.StatusCounted, resp.Status)
	assert.Equal(t, 10, *resp.CountedQty)
	assert.Equal(t, 0, *resp.Variance)

	// Both submissions remain in the ledger.
	assert.Len(t, f.activity.byType(model.EventVariance), 1)
	assert.Len(t, f.activity.byType(model.EventCount), 1)
}

func TestSubmitCountRejectsNegativeAndMissingQty(t *testing.T) {
	item := &model.Item{ID: uuid.New(), SKU: "SKU-001", Name: "Yerba 1kg", Zone: "A1", ExpectedQty: 10}
	f := newCountFixture(t, item)

	_, err := f.svc.SubmitCount(context.Background(), f.session.ID, submitReq(item.ID, -1), f.actor.ID)
	assertKind(t, err, apierror.KindInvalidInput)

	_, err = f.svc.SubmitCount(context.Background(), f.session.ID,
		dto.SubmitCountRequest{ItemID: item.ID.String()}, f.actor.ID)
	assertKind(t, err, apierror.KindInvalidInput)
}

func TestSubmitCountClosedSession(t *testing.T) {
	item := &model.Item{ID: uuid.New(), SKU: "SKU-001", Name: "Yerba 1kg", Zone: "A1", ExpectedQty: 10}
	f := newCountFixture(t, item)
	f.session.Status = model.SessionClosed

	_, err := f.svc.SubmitCount(context.Background(), f.session.ID, submitReq(item.ID, 10), f.actor.ID)
	assertKind(t, err, apierror.KindInvalidState)
}

func TestSubmitCountUnknownSession(t *testing.T) {
	f := newCountFixture(t)

	_, err := f.svc.SubmitCount(context.Background(), uuid.New(), submitReq(uuid.New(), 1), f.actor.ID)
	assertKind(t, err, apierror.KindUnauthorized)

	_, err = f.svc.SubmitCount(context.Background(), uuid.Nil, submitReq(uuid.New(), 1), f.actor.ID)
	assertKind(t, err, apierror.KindUnauthorized)
}

func TestSubmitCountUnknownItem(t *testing.T) {
	f := newCountFixture(t)

	_, err := f.svc.SubmitCount(context.Background(), f.session.ID, submitReq(uuid.New(), 5), f.actor.ID)
	assertKind(t, err, apierror.KindNotFound)
}

func TestSubmitCountBadBarcodeRejectedBeforeAnyWrite(t *testing.T) {
	item := &model.Item{ID: uuid.New(), SKU: "SKU-001", Name: "Yerba 1kg", Zone: "A1", ExpectedQty: 10}
	f := newCountFixture(t, item)

	req := submitReq(item.ID, 10)
	req.CapturedBarcode = "4006381333930" // corrupt check digit
	_, err := f.svc.SubmitCount(context.Background(), f.session.ID, req, f.actor.ID)
	assertKind(t, err, apierror.KindInvalidInput)
	assert.Contains(t, err.Error(), "barcode rejected")

	// The rejected scan must leave no trace: no item mutation, no event.
	stored, ferr := f.items.FindByID(context.Background(), f.session.ID, item.ID)
	require.NoError(t, ferr)
	assert.Equal(t, model.StatusPending, stored.Status)
	assert.Empty(t, f.activity.events)
}

func TestSubmitCountMaskedActorFallback(t *testing.T) {
	item := &model.Item{ID: uuid.New(), SKU: "SKU-001", Name: "Yerba 1kg", Zone: "A1", ExpectedQty: 10}
	f := newCountFixture(t, item)
	ghost := uuid.New() // not in the user repo

	resp, err := f.svc.SubmitCount(context.Background(), f.session.ID, submitReq(item.ID, 10), ghost)
	require.NoError(t, err)

	require.NotNil(t, resp.LastCountedBy)
	name := *resp.LastCountedBy
	assert.True(t, strings.HasPrefix(name, "operator-"), "got %q", name)
	assert.True(t, strings.HasSuffix(ghost.String(), strings.TrimPrefix(name, "operator-")))
	assert.Len(t, strings.TrimPrefix(name, "operator-"), 6)
}

func TestZoneCompletionEmittedExactlyOnce(t *testing.T) {
	a := &model.Item{ID: uuid.New(), SKU: "SKU-001", Name: "Yerba 1kg", Zone: "A1", ExpectedQty: 5}
	b := &model.Item{ID: uuid.New(), SKU: "SKU-002", Name: "Azucar 1kg", Zone: "A1", ExpectedQty: 5}
	other := &model.Item{ID: uuid.New(), SKU: "SKU-003", Name: "Cafe 500g", Zone: "B2", ExpectedQty: 5}
	f := newCountFixture(t, a, b, other)
	ctx := context.Background()

	_, err := f.svc.SubmitCount(ctx, f.session.ID, submitReq(a.ID, 5), f.actor.ID)
	require.NoError(t, err)
	assert.Empty(t, f.activity.byType(model.EventZoneComplete), "zone not yet complete")

	_, err = f.svc.SubmitCount(ctx, f.session.ID, submitReq(b.ID, 5), f.actor.ID)
	require.NoError(t, err)

	milestones := f.activity.byType(model.EventZoneComplete)
	require.Len(t, milestones, 1)
	assert.Equal(t, "completed zone A1", milestones[0].Message)
	require.NotNil(t, milestones[0].Zone)
	assert.Equal(t, "A1", *milestones[0].Zone)
	assert.Nil(t, milestones[0].ActorID, "milestone is system-attributed")

	// Recounting an item in a completed zone must not re-announce.
	_, err = f.svc.SubmitCount(ctx, f.session.ID, submitReq(a.ID, 6), f.actor.ID)
	require.NoError(t, err)
	assert.Len(t, f.activity.byType(model.EventZoneComplete), 1)
}

func TestZoneCompletionLostRaceSwallowed(t *testing.T) {
	item := &model.Item{ID: uuid.New(), SKU: "SKU-001", Name: "Yerba 1kg", Zone: "A1", ExpectedQty: 5,
		Status: model.StatusCounted, CountedQty: intPtr(5), Variance: intPtr(0)}
	f := newCountFixture(t, item)

	// Seed a milestone as if a concurrent submission already announced A1,
	// then force the pre-check path to race: the stub's Create mirrors the
	// partial unique index and returns ErrDuplicatedKey.
	zone := "A1"
	f.activity.record(&model.ActivityEvent{
		SessionID: f.session.ID,
		Type:      model.EventZoneComplete,
		Message:   "completed zone A1",
		Zone:      &zone,
	})

	// Recount: zone is complete and already announced — submission succeeds,
	// no second milestone appears.
	_, err := f.svc.SubmitCount(context.Background(), f.session.ID, submitReq(item.ID, 5), f.actor.ID)
	require.NoError(t, err)
	assert.Len(t, f.activity.byType(model.EventZoneComplete), 1)
}

func TestVerifyRequiresVarianceStatus(t *testing.T) {
	pending := &model.Item{ID: uuid.New(), SKU: "SKU-001", Name: "Yerba 1kg", Zone: "A1", ExpectedQty: 10}
	counted := &model.Item{ID: uuid.New(), SKU: "SKU-002", Name: "Azucar 1kg", Zone: "A1", ExpectedQty: 10,
		Status: model.StatusCounted, CountedQty: intPtr(10), Variance: intPtr(0)}
	flagged := &model.Item{ID: uuid.New(), SKU: "SKU-003", Name: "Cafe 500g", Zone: "A1", ExpectedQty: 10,
		Status: model.StatusVariance, CountedQty: intPtr(8), Variance: intPtr(-2)}
	f := newCountFixture(t, pending, counted, flagged)
	ctx := context.Background()

	_, err := f.svc.Verify(ctx, f.session.ID, pending.ID, f.actor.ID)
	assertKind(t, err, apierror.KindInvalidState)

	_, err = f.svc.Verify(ctx, f.session.ID, counted.ID, f.actor.ID)
	assertKind(t, err, apierror.KindInvalidState)

	resp, err := f.svc.Verify(ctx, f.session.ID, flagged.ID, f.actor.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusVerified, resp.Status)
	// Verification preserves the recorded discrepancy.
	assert.Equal(t, 8, *resp.CountedQty)
	assert.Equal(t, -2, *resp.Variance)

	events := f.activity.byType(model.EventVerify)
	require.Len(t, events, 1)
	assert.Equal(t, "verified variance on Cafe 500g", events[0].Message)

	// Verified is terminal for this action.
	_, err = f.svc.Verify(ctx, f.session.ID, flagged.ID, f.actor.ID)
	assertKind(t, err, apierror.KindInvalidState)
}

func TestVerifyDoesNotTouchAuditPair(t *testing.T) {
	by := "Maria Garcia"
	at := time.Now().UTC().Add(-time.Hour)
	flagged := &model.Item{ID: uuid.New(), SKU: "SKU-001", Name: "Yerba 1kg", Zone: "A1", ExpectedQty: 10,
		Status: model.StatusVariance, CountedQty: intPtr(8), Variance: intPtr(-2),
		LastCountedBy: &by, LastCountedAt: &at}
	f := newCountFixture(t, flagged)

	supervisor := &model.User{ID: uuid.New(), Username: "jlopez", FirstName: "Juan", LastName: "Lopez",
		Role: "supervisor", Active: true}
	require.NoError(t, f.users.Create(context.Background(), supervisor))

	resp, err := f.svc.Verify(context.Background(), f.session.ID, flagged.ID, supervisor.ID)
	require.NoError(t, err)

	// last_counted_* still names the counter, not the verifier.
	require.NotNil(t, resp.LastCountedBy)
	assert.Equal(t, "Maria Garcia", *resp.LastCountedBy)
}

func TestBulkVerifyPartialApplication(t *testing.T) {
	flaggedA := &model.Item{ID: uuid.New(), SKU: "SKU-001", Name: "Yerba 1kg", Zone: "A1", ExpectedQty: 10,
		Status: model.StatusVariance, CountedQty: intPtr(8), Variance: intPtr(-2)}
	flaggedB := &model.Item{ID: uuid.New(), SKU: "SKU-002", Name: "Azucar 1kg", Zone: "A1", ExpectedQty: 10,
		Status: model.StatusVariance, CountedQty: intPtr(12), Variance: intPtr(2)}
	counted := &model.Item{ID: uuid.New(), SKU: "SKU-003", Name: "Cafe 500g", Zone: "A1", ExpectedQty: 10,
		Status: model.StatusCounted, CountedQty: intPtr(10), Variance: intPtr(0)}
	f := newCountFixture(t, flaggedA, flaggedB, counted)

	unknown := uuid.New()
	resp, err := f.svc.BulkVerify(context.Background(), f.session.ID, dto.BulkVerifyRequest{
		ItemIDs: []string{flaggedA.ID.String(), counted.ID.String(), unknown.String(), flaggedB.ID.String()},
	}, f.actor.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, resp.UpdatedCount)
	assert.ElementsMatch(t, []string{counted.ID.String(), unknown.String()}, resp.SkippedIDs)
	assert.Len(t, f.activity.byType(model.EventVerify), 2)
}

func assertKind(t *testing.T, err error, kind apierror.Kind) {
	t.Helper()
	require.Error(t, err)
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, kind, apiErr.Kind)
}
