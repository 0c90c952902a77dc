package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	tradeapp "github.com/storefront/backend/internal/application/trade"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/trade"
)

// IdempotencyKeyHeader may carry the payment callback key instead of the body.
const IdempotencyKeyHeader = "Idempotency-Key"

// ReservationService is the online payment hold use case
type ReservationService interface {
	EnterPaymentReservation(ctx context.Context, orderID uuid.UUID) (*tradeapp.ReservationHandle, error)
	ResolvePayment(ctx context.Context, orderID uuid.UUID, outcome inventory.ResolutionOutcome, idempotencyKey string) (*trade.Order, error)
}

// PaymentHandler handles payment holds and their resolution
type PaymentHandler struct {
	BaseHandler
	reservations ReservationService
}

// NewPaymentHandler creates a PaymentHandler
func NewPaymentHandler(reservations ReservationService) *PaymentHandler {
	return &PaymentHandler{reservations: reservations}
}

// Reserve godoc
// @Summary      Hold stock while the customer pays online
// @Description  Deducts the order's lines and arms the hold timer. The response carries the deadline.
// @Tags         payments
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=tradeapp.ReservationHandle}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/payment/reserve [post]
func (h *PaymentHandler) Reserve(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	handle, err := h.reservations.EnterPaymentReservation(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, handle)
}

// Resolve godoc
// @Summary      Resolve a payment hold
// @Description  Applies the payment outcome once. Repeated callbacks, and callbacks after the hold was released, return the order unchanged. A SUCCESS that arrives after the hold expired but before it was released is rejected with 422.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        Idempotency-Key header string false "Callback idempotency key"
// @Param        request body tradeapp.ResolvePaymentRequest true "Outcome"
// @Success      200 {object} dto.Response{data=tradeapp.OrderResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/payment/resolve [post]
func (h *PaymentHandler) Resolve(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	var req tradeapp.ResolvePaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	key := req.IdempotencyKey
	if key == "" {
		key = strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	}

	order, err := h.reservations.ResolvePayment(c.Request.Context(), id, inventory.ResolutionOutcome(req.Outcome), key)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tradeapp.ToOrderResponse(order))
}
