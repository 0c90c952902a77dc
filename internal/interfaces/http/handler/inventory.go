package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	invapp "github.com/storefront/backend/internal/application/inventory"
)

// InventoryService answers stock queries
type InventoryService interface {
	CheckAvailability(ctx context.Context, req invapp.CheckAvailabilityRequest) (*invapp.AvailabilityResponse, error)
	ListMovements(ctx context.Context, variantID uuid.UUID, filter invapp.MovementListFilter) ([]invapp.MovementResponse, int64, error)
}

// InventoryHandler handles stock availability and the movement ledger
type InventoryHandler struct {
	BaseHandler
	inventory InventoryService
}

// NewInventoryHandler creates an InventoryHandler
func NewInventoryHandler(inventory InventoryService) *InventoryHandler {
	return &InventoryHandler{inventory: inventory}
}

// CheckAvailability godoc
// @Summary      Check whether lines could be deducted now
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        request body invapp.CheckAvailabilityRequest true "Lines"
// @Success      200 {object} dto.Response{data=invapp.AvailabilityResponse}
// @Router       /inventory/availability [post]
func (h *InventoryHandler) CheckAvailability(c *gin.Context) {
	var req invapp.CheckAvailabilityRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.inventory.CheckAvailability(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ListMovements godoc
// @Summary      List a variant's stock movements
// @Tags         inventory
// @Produce      json
// @Param        id path string true "Variant ID" format(uuid)
// @Param        movement_type query string false "Movement type"
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]invapp.MovementResponse,meta=dto.Meta}
// @Router       /inventory/variants/{id}/movements [get]
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	var filter invapp.MovementListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	movements, total, err := h.inventory.ListMovements(c.Request.Context(), id, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, movements, total, filter.Page, filter.PageSize)
}
