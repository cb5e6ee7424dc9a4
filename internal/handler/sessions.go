package handler

import (
	"net/http"

	"stocktake/internal/dto"
	"stocktake/internal/middleware"
	"stocktake/internal/service"

	"github.com/gin-gonic/gin"
)

type SessionsHandler struct{ svc service.SessionService }

func NewSessionsHandler(svc service.SessionService) *SessionsHandler {
	return &SessionsHandler{svc: svc}
}

// Start godoc
// @Summary      Start a count session
// @Description  Creates a session and loads its expected-stock catalog atomically. Only one session may be active at a time.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.StartSessionRequest true "Session name and catalog lines"
// @Success      201  {object} dto.SessionResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/sessions [post]
func (h *SessionsHandler) Start(c *gin.Context) {
	var req dto.StartSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Start(c.Request.Context(), req, middleware.ActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Get godoc
// @Summary      Get a session by id
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Session ID"
// @Success      200 {object} dto.SessionResponse
// @Router       /v1/sessions/{id} [get]
func (h *SessionsHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Active godoc
// @Summary      Get the currently active session
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.SessionResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/sessions/active [get]
func (h *SessionsHandler) Active(c *gin.Context) {
	resp, err := h.svc.Active(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Join godoc
// @Summary      Join the count
// @Description  Records the operator entering the session in the activity ledger.
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Session ID"
// @Success      200 {object} dto.SessionResponse
// @Router       /v1/sessions/{id}/join [post]
func (h *SessionsHandler) Join(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Join(c.Request.Context(), id, middleware.ActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Summary godoc
// @Summary      Session progress summary
// @Description  Status totals, completion percentage, and per-zone progress.
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Session ID"
// @Success      200 {object} dto.SessionSummaryResponse
// @Router       /v1/sessions/{id}/summary [get]
func (h *SessionsHandler) Summary(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Summary(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Activity godoc
// @Summary      Session activity feed
// @Description  Append-only ledger in creation order; filterable by event type and zone.
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string true  "Session ID"
// @Param        type query string false "Event type filter"
// @Param        zone query string false "Zone filter"
// @Success      200 {object} dto.ActivityListResponse
// @Router       /v1/sessions/{id}/activity [get]
func (h *SessionsHandler) Activity(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var filter dto.ActivityFilter
	if !bindQueryAndValidate(c, &filter) {
		return
	}
	resp, err := h.svc.Activity(c.Request.Context(), id, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Close godoc
// @Summary      Close a session
// @Description  Terminal: no further counts, verifications, or joins are accepted.
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Session ID"
// @Success      200 {object} dto.SessionResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/sessions/{id}/close [post]
func (h *SessionsHandler) Close(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Close(c.Request.Context(), id, middleware.ActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
