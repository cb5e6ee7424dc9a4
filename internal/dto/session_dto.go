package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// CatalogItem is one expected-stock line loaded at session start. This is the
// only way items enter a session; there is no per-item create endpoint.
type CatalogItem struct {
	SKU         string  `json:"sku"          validate:"required,min=1,max=64"`
	Name        string  `json:"name"         validate:"required,min=1,max=160"`
	Barcode     *string `json:"barcode"      validate:"omitempty,min=4,max=80"`
	Zone        string  `json:"zone"         validate:"required,min=1,max=64"`
	Category    *string `json:"category"`
	Warehouse   *string `json:"warehouse"`
	UOM         *string `json:"uom"`
	Supplier    *string `json:"supplier"`
	ExpectedQty int     `json:"expected_qty" validate:"min=0"`
}

type StartSessionRequest struct {
	Name  string        `json:"name"  validate:"required,min=2,max=120"`
	Items []CatalogItem `json:"items" validate:"required,min=1,dive"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SessionResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Status    string  `json:"status"`
	StartedBy string  `json:"started_by"`
	StartedAt string  `json:"started_at"`
	ClosedAt  *string `json:"closed_at"`
	ItemCount int64   `json:"item_count"`
}

// ZoneProgress is one row of the per-zone completion breakdown.
type ZoneProgress struct {
	Zone     string `json:"zone"`
	Total    int64  `json:"total"`
	Counted  int64  `json:"counted"`
	Complete bool   `json:"complete"`
}

type SessionSummaryResponse struct {
	SessionID     string          `json:"session_id"`
	Name          string          `json:"name"`
	Status        string          `json:"status"`
	TotalItems    int64           `json:"total_items"`
	PendingItems  int64           `json:"pending_items"`
	CountedItems  int64           `json:"counted_items"`
	VarianceItems int64           `json:"variance_items"`
	VerifiedItems int64           `json:"verified_items"`
	CompletionPct decimal.Decimal `json:"completion_pct"`
	Zones         []ZoneProgress  `json:"zones"`
}
