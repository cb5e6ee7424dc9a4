package dto

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ItemFilter struct {
	Zone   string `form:"zone"`
	Status string `form:"status" validate:"omitempty,oneof=pending counted variance verified"`
	Query  string `form:"q"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// ItemResponse is the ItemView returned by every count/verify/lookup call.
type ItemResponse struct {
	ID            string  `json:"id"`
	SKU           string  `json:"sku"`
	Name          string  `json:"name"`
	Barcode       *string `json:"barcode"`
	Zone          string  `json:"zone"`
	Category      *string `json:"category"`
	Warehouse     *string `json:"warehouse"`
	UOM           *string `json:"uom"`
	Supplier      *string `json:"supplier"`
	ExpectedQty   int     `json:"expected_qty"`
	CountedQty    *int    `json:"counted_qty"`
	Variance      *int    `json:"variance"`
	Status        string  `json:"status"`
	LastCountedBy *string `json:"last_counted_by"`
	LastCountedAt *string `json:"last_counted_at"`
}

type ItemListResponse struct {
	Data  []ItemResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// LookupResponse carries the 0..n candidates a scan or free-text query
// resolved to, plus which field matched.
type LookupResponse struct {
	Query     string         `json:"query"`
	MatchedBy string         `json:"matched_by"` // "barcode" | "sku" | "name" | ""
	Matches   []ItemResponse `json:"matches"`
}
