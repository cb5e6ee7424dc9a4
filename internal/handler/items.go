package handler

import (
	"net/http"

	"stocktake/internal/dto"
	"stocktake/internal/service"

	"github.com/gin-gonic/gin"
)

type ItemsHandler struct{ svc service.LookupService }

func NewItemsHandler(svc service.LookupService) *ItemsHandler {
	return &ItemsHandler{svc: svc}
}

// List godoc
// @Summary      List session items
// @Tags         items
// @Produce      json
// @Security     BearerAuth
// @Param        id     path  string true  "Session ID"
// @Param        zone   query string false "Zone filter"
// @Param        status query string false "Status filter (pending|counted|variance|verified)"
// @Param        q      query string false "Name or SKU substring"
// @Success      200 {object} dto.ItemListResponse
// @Router       /v1/sessions/{id}/items [get]
func (h *ItemsHandler) List(c *gin.Context) {
	sessionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var filter dto.ItemFilter
	if !bindQueryAndValidate(c, &filter) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), sessionID, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary      Get one session item
// @Tags         items
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string true "Session ID"
// @Param        item_id path string true "Item ID"
// @Success      200 {object} dto.ItemResponse
// @Router       /v1/sessions/{id}/items/{item_id} [get]
func (h *ItemsHandler) Get(c *gin.Context) {
	sessionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	itemID, ok := pathUUID(c, "item_id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), sessionID, itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Lookup godoc
// @Summary      Resolve free text to items
// @Description  Tiered resolution: exact barcode, exact SKU, then name substring.
// @Tags         items
// @Produce      json
// @Security     BearerAuth
// @Param        id path  string true "Session ID"
// @Param        q  query string true "Barcode, SKU, or name fragment"
// @Success      200 {object} dto.LookupResponse
// @Router       /v1/sessions/{id}/lookup [get]
func (h *ItemsHandler) Lookup(c *gin.Context) {
	sessionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Lookup(c.Request.Context(), sessionID, c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Scan godoc
// @Summary      Resolve a scanned barcode
// @Description  Validates the code against its symbology check digit, then resolves it. Corrupted reads come back 400 with the expected check digit.
// @Tags         items
// @Produce      json
// @Security     BearerAuth
// @Param        id     path  string true  "Session ID"
// @Param        code   query string true  "Raw scan payload"
// @Param        format query string false "Symbology hint (ean13|ean8|upca|upce|generic)"
// @Success      200 {object} dto.LookupResponse
// @Failure      400 {object} apierror.APIError
// @Router       /v1/sessions/{id}/scan [get]
func (h *ItemsHandler) Scan(c *gin.Context) {
	sessionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Scan(c.Request.Context(), sessionID, c.Query("code"), c.Query("format"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
