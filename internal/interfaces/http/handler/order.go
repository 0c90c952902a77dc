package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	tradeapp "github.com/storefront/backend/internal/application/trade"
)

// OrderService is the order query and staff transition use case
type OrderService interface {
	GetByID(ctx context.Context, orderID uuid.UUID) (*tradeapp.OrderResponse, error)
	GetByCode(ctx context.Context, code string) (*tradeapp.OrderResponse, error)
	List(ctx context.Context, filter tradeapp.OrderListFilter) ([]tradeapp.OrderListItemResponse, int64, error)
	Pack(ctx context.Context, orderID uuid.UUID) (*tradeapp.OrderResponse, error)
	Ship(ctx context.Context, orderID uuid.UUID) (*tradeapp.OrderResponse, error)
	Complete(ctx context.Context, orderID uuid.UUID) (*tradeapp.OrderResponse, error)
	Cancel(ctx context.Context, orderID uuid.UUID, req tradeapp.CancelOrderRequest) (*tradeapp.OrderResponse, error)
	MarkRefunded(ctx context.Context, orderID uuid.UUID) (*tradeapp.OrderResponse, error)
}

// OrderHandler handles order queries and lifecycle transitions
type OrderHandler struct {
	BaseHandler
	orders OrderService
}

// NewOrderHandler creates an OrderHandler
func NewOrderHandler(orders OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// GetByID godoc
// @Summary      Get an order
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=tradeapp.OrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetByID(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	order, err := h.orders.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Track godoc
// @Summary      Track an order by its code
// @Tags         orders
// @Produce      json
// @Param        code path string true "Order code"
// @Success      200 {object} dto.Response{data=tradeapp.OrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /tracking/{code} [get]
func (h *OrderHandler) Track(c *gin.Context) {
	order, err := h.orders.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// List godoc
// @Summary      List orders
// @Tags         orders
// @Produce      json
// @Param        status query string false "Order status"
// @Param        payment_status query string false "Payment status"
// @Param        payment_method query string false "COD or ONLINE"
// @Param        phone query string false "Customer phone"
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]tradeapp.OrderListItemResponse,meta=dto.Meta}
// @Router       /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	var filter tradeapp.OrderListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	orders, total, err := h.orders.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, orders, total, filter.Page, filter.PageSize)
}

// Pack godoc
// @Summary      Start packing an order
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=tradeapp.OrderResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/pack [post]
func (h *OrderHandler) Pack(c *gin.Context) {
	h.transition(c, h.orders.Pack)
}

// Ship godoc
// @Summary      Hand an order to the carrier
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=tradeapp.OrderResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/ship [post]
func (h *OrderHandler) Ship(c *gin.Context) {
	h.transition(c, h.orders.Ship)
}

// Complete godoc
// @Summary      Mark an order delivered
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=tradeapp.OrderResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/complete [post]
func (h *OrderHandler) Complete(c *gin.Context) {
	h.transition(c, h.orders.Complete)
}

// MarkRefunded godoc
// @Summary      Record that a pending refund was paid out
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=tradeapp.OrderResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/refund [post]
func (h *OrderHandler) MarkRefunded(c *gin.Context) {
	h.transition(c, h.orders.MarkRefunded)
}

// Cancel godoc
// @Summary      Cancel an order
// @Description  Allowed before packing. A paid order needs bank info for the refund.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body tradeapp.CancelOrderRequest true "Cancellation"
// @Success      200 {object} dto.Response{data=tradeapp.OrderResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	var req tradeapp.CancelOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	order, err := h.orders.Cancel(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

func (h *OrderHandler) transition(c *gin.Context, apply func(context.Context, uuid.UUID) (*tradeapp.OrderResponse, error)) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	order, err := apply(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}
