package dto

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ActivityFilter struct {
	Type  string `form:"type" validate:"omitempty,oneof=count variance verify join zone_complete"`
	Zone  string `form:"zone"`
	Page  int    `form:"page,default=1"   validate:"min=1"`
	Limit int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ActivityEventResponse struct {
	ID        string  `json:"id"`
	SessionID string  `json:"session_id"`
	Type      string  `json:"type"`
	Message   string  `json:"message"`
	ActorID   *string `json:"actor_id"`
	ActorName *string `json:"actor_name"`
	Zone      *string `json:"zone"`
	ItemID    *string `json:"item_id"`
	CreatedAt string  `json:"created_at"`
}

type ActivityListResponse struct {
	Data  []ActivityEventResponse `json:"data"`
	Total int64                   `json:"total"`
	Page  int                     `json:"page"`
	Limit int                     `json:"limit"`
}
