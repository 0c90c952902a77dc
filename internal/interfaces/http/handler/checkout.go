package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	tradeapp "github.com/storefront/backend/internal/application/trade"
	"github.com/storefront/backend/internal/domain/trade"
)

// CheckoutService is the cart and order placement use case
type CheckoutService interface {
	ValidateCart(ctx context.Context, req tradeapp.ValidateCartRequest) (*trade.CartValidation, error)
	CreateOrder(ctx context.Context, req tradeapp.CreateOrderRequest) (*tradeapp.OrderResponse, error)
}

// CheckoutHandler handles cart validation and order placement
type CheckoutHandler struct {
	BaseHandler
	checkout CheckoutService
}

// NewCheckoutHandler creates a CheckoutHandler
func NewCheckoutHandler(checkout CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

// ValidateCart godoc
// @Summary      Validate a cart
// @Description  Reconcile cart lines with the current catalog. Lines may be clamped or flagged unavailable.
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        request body tradeapp.ValidateCartRequest true "Cart lines"
// @Success      200 {object} dto.Response{data=trade.CartValidation}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /cart/validate [post]
func (h *CheckoutHandler) ValidateCart(c *gin.Context) {
	var req tradeapp.ValidateCartRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.checkout.ValidateCart(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// CreateOrder godoc
// @Summary      Place an order
// @Description  Create an order from a valid cart. COD orders deduct stock immediately.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body tradeapp.CreateOrderRequest true "Checkout request"
// @Success      201 {object} dto.Response{data=tradeapp.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders [post]
func (h *CheckoutHandler) CreateOrder(c *gin.Context) {
	var req tradeapp.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	order, err := h.checkout.CreateOrder(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}
