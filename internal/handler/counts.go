package handler

import (
	"net/http"

	"stocktake/internal/dto"
	"stocktake/internal/middleware"
	"stocktake/internal/service"

	"github.com/gin-gonic/gin"
)

type CountsHandler struct{ svc service.CountService }

func NewCountsHandler(svc service.CountService) *CountsHandler {
	return &CountsHandler{svc: svc}
}

// Submit godoc
// @Summary      Submit a count
// @Description  Records a counted quantity for one item, computes variance, appends a ledger event, and re-derives zone completion. Recounts overwrite.
// @Tags         counts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                  true "Session ID"
// @Param        body body dto.SubmitCountRequest true "Item id, quantity, optional captured barcode"
// @Success      200  {object} dto.ItemResponse
// @Failure      400  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/sessions/{id}/counts [post]
func (h *CountsHandler) Submit(c *gin.Context) {
	sessionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.SubmitCountRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SubmitCount(c.Request.Context(), sessionID, req, middleware.ActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Verify godoc
// @Summary      Verify a variance item
// @Description  Marks a flagged discrepancy as reviewed and accepted. Only items in variance status qualify.
// @Tags         counts
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string true "Session ID"
// @Param        item_id path string true "Item ID"
// @Success      200 {object} dto.ItemResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/sessions/{id}/items/{item_id}/verify [post]
func (h *CountsHandler) Verify(c *gin.Context) {
	sessionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	itemID, ok := pathUUID(c, "item_id")
	if !ok {
		return
	}
	resp, err := h.svc.Verify(c.Request.Context(), sessionID, itemID, middleware.ActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// BulkVerify godoc
// @Summary      Verify a batch of variance items
// @Description  Partial application: items failing the variance precondition are skipped and reported, never a batch abort.
// @Tags         counts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                 true "Session ID"
// @Param        body body dto.BulkVerifyRequest true "Item ids to verify"
// @Success      200  {object} dto.BulkVerifyResponse
// @Router       /v1/sessions/{id}/verify-bulk [post]
func (h *CountsHandler) BulkVerify(c *gin.Context) {
	sessionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.BulkVerifyRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.BulkVerify(c.Request.Context(), sessionID, req, middleware.ActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
