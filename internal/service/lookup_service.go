package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"stocktake/internal/apierror"
	"stocktake/internal/barcode"
	"stocktake/internal/dto"
	"stocktake/internal/model"
	"stocktake/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// lookupCacheTTL bounds how long a barcode→item-id mapping lives. The
// mapping is fixed for a session's lifetime (the catalog loads once at
// start), so the TTL only caps memory, not staleness.
const lookupCacheTTL = 15 * time.Minute

// LookupService resolves operator input — a scan or free text — to catalog
// items, and serves item listings.
type LookupService interface {
	Lookup(ctx context.Context, sessionID uuid.UUID, query string) (*dto.LookupResponse, error)
	Scan(ctx context.Context, sessionID uuid.UUID, code, format string) (*dto.LookupResponse, error)
	List(ctx context.Context, sessionID uuid.UUID, filter dto.ItemFilter) (*dto.ItemListResponse, error)
	Get(ctx context.Context, sessionID, itemID uuid.UUID) (*dto.ItemResponse, error)
}

type lookupService struct {
	items repository.ItemRepository
	rdb   *redis.Client // nil disables caching (unit tests)
}

func NewLookupService(items repository.ItemRepository, rdb *redis.Client) LookupService {
	return &lookupService{items: items, rdb: rdb}
}

// ── Lookup ────────────────────────────────────────────────────────────────────
// Resolution order: exact barcode, exact SKU, then name substring. The first
// tier that yields matches wins; later tiers are never mixed in. Duplicate
// barcodes are a data problem the count floor has to see, so the barcode tier
// returns every match rather than picking one.

func (s *lookupService) Lookup(ctx context.Context, sessionID uuid.UUID, query string) (*dto.LookupResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apierror.InvalidInput("query must not be empty")
	}

	resp := &dto.LookupResponse{Query: query, Matches: []dto.ItemResponse{}}

	matches, err := s.findByBarcodeCached(ctx, sessionID, query)
	if err != nil {
		return nil, apierror.Internal("lookup failed")
	}
	if len(matches) > 0 {
		resp.MatchedBy = "barcode"
		resp.Matches = toItemResponses(matches)
		return resp, nil
	}

	if item, err := s.items.FindBySKU(ctx, sessionID, query); err == nil && item != nil {
		resp.MatchedBy = "sku"
		resp.Matches = toItemResponses([]model.Item{*item})
		return resp, nil
	}

	named, err := s.items.SearchByName(ctx, sessionID, query, 25)
	if err != nil {
		return nil, apierror.Internal("lookup failed")
	}
	if len(named) > 0 {
		resp.MatchedBy = "name"
		resp.Matches = toItemResponses(named)
	}
	return resp, nil
}

// Scan gates the code through its symbology checksum first, so a corrupted
// read is rejected with rescan guidance instead of resolving to nothing.
func (s *lookupService) Scan(ctx context.Context, sessionID uuid.UUID, code, format string) (*dto.LookupResponse, error) {
	normalized, err := barcode.Validate(code, barcode.Format(format))
	if err != nil {
		return nil, apierror.InvalidInput("barcode rejected: " + err.Error())
	}
	return s.Lookup(ctx, sessionID, normalized)
}

func (s *lookupService) List(ctx context.Context, sessionID uuid.UUID, filter dto.ItemFilter) (*dto.ItemListResponse, error) {
	items, total, err := s.items.List(ctx, sessionID, filter)
	if err != nil {
		return nil, apierror.Internal("failed to list items")
	}
	return &dto.ItemListResponse{
		Data:  toItemResponses(items),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *lookupService) Get(ctx context.Context, sessionID, itemID uuid.UUID) (*dto.ItemResponse, error) {
	item, err := s.items.FindByID(ctx, sessionID, itemID)
	if err != nil {
		return nil, apierror.NotFound("item not found in this session")
	}
	return itemToResponse(item), nil
}

// ── Barcode cache ─────────────────────────────────────────────────────────────
// Cache-aside on the hot scan path. Only the immutable barcode→item-id
// mapping is cached; count state is always re-read from Postgres so a cache
// hit can never serve a stale status.

func (s *lookupService) findByBarcodeCached(ctx context.Context, sessionID uuid.UUID, code string) ([]model.Item, error) {
	if s.rdb == nil {
		return s.items.FindByBarcode(ctx, sessionID, code)
	}

	key := fmt.Sprintf("lookup:%s:%s", sessionID, code)
	if cached, err := s.rdb.Get(ctx, key).Result(); err == nil {
		var ids []uuid.UUID
		if json.Unmarshal([]byte(cached), &ids) == nil {
			if items, ok := s.fetchByIDs(ctx, sessionID, ids); ok {
				return items, nil
			}
			// Stale or malformed entry — drop it and hit Postgres.
			s.rdb.Del(ctx, key)
		}
	}

	matches, err := s.items.FindByBarcode(ctx, sessionID, code)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	if data, err := json.Marshal(ids); err == nil {
		if err := s.rdb.Set(ctx, key, data, lookupCacheTTL).Err(); err != nil {
			log.Debug().Err(err).Str("key", key).Msg("lookup cache write failed")
		}
	}
	return matches, nil
}

func (s *lookupService) fetchByIDs(ctx context.Context, sessionID uuid.UUID, ids []uuid.UUID) ([]model.Item, bool) {
	items := make([]model.Item, 0, len(ids))
	for _, id := range ids {
		item, err := s.items.FindByID(ctx, sessionID, id)
		if err != nil {
			return nil, false
		}
		items = append(items, *item)
	}
	return items, true
}

func toItemResponses(items []model.Item) []dto.ItemResponse {
	out := make([]dto.ItemResponse, len(items))
	for i := range items {
		out[i] = *itemToResponse(&items[i])
	}
	return out
}
