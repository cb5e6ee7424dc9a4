package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

// SubmitCountRequest carries one operator-entered quantity for one item.
// CapturedBarcode is present only on the scan path and is checksum-gated
// before the engine runs; manual submissions omit it.
type SubmitCountRequest struct {
	ItemID          string `json:"item_id"          validate:"required,uuid"`
	CountedQty      *int   `json:"counted_qty"      validate:"required,min=0"`
	CapturedBarcode string `json:"captured_barcode" validate:"omitempty,max=80"`
	BarcodeFormat   string `json:"barcode_format"   validate:"omitempty,oneof=ean13 ean8 upca upce generic"`
}

type BulkVerifyRequest struct {
	ItemIDs []string `json:"item_ids" validate:"required,min=1,max=500,dive,uuid"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// BulkVerifyResponse reports partial application: items failing the
// variance-status precondition are skipped, not treated as a batch failure.
type BulkVerifyResponse struct {
	UpdatedCount int      `json:"updated_count"`
	SkippedIDs   []string `json:"skipped_ids"`
}
