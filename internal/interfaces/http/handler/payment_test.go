package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	tradeapp "github.com/storefront/backend/internal/application/trade"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/domain/trade"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

func setupPaymentRouter(svc *MockReservationService) *gin.Engine {
	h := NewPaymentHandler(svc)
	r := newTestRouter()
	r.POST("/orders/:id/payment/reserve", h.Reserve)
	r.POST("/orders/:id/payment/resolve", h.Resolve)
	return r
}

func onlineOrder(t *testing.T) *trade.Order {
	t.Helper()
	contact, err := valueobject.NewShippingContact("Mai Tran", "0912345678", "8 Le Loi", "District 1", "Ho Chi Minh City")
	require.NoError(t, err)
	order, err := trade.NewOrder(trade.GenerateOrderCode(time.Now()), contact, []trade.OrderLineInput{{
		ProductID:    uuid.New(),
		VariantID:    uuid.New(),
		ProductName:  "Oxford Shirt",
		VariantLabel: "M / White",
		UnitPrice:    decimal.NewFromInt(250000),
		Quantity:     1,
	}}, decimal.NewFromInt(30000), trade.PaymentMethodOnline, "")
	require.NoError(t, err)
	return order
}

func TestPaymentHandler_Reserve(t *testing.T) {
	svc := new(MockReservationService)
	r := setupPaymentRouter(svc)
	id := uuid.New()
	expireAt := time.Now().Add(300 * time.Second).UTC().Truncate(time.Second)
	svc.On("EnterPaymentReservation", anyCtx, id).Return(&tradeapp.ReservationHandle{
		ReservationID:    uuid.New(),
		OrderID:          id,
		ExpireAt:         expireAt,
		RemainingSeconds: 300,
	}, nil)

	w, resp := doRequest(t, r, http.MethodPost, "/orders/"+id.String()+"/payment/reserve", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var handle tradeapp.ReservationHandle
	decodeData(t, resp, &handle)
	assert.Equal(t, 300, handle.RemainingSeconds)
	assert.True(t, expireAt.Equal(handle.ExpireAt))
	assertCalled(t, svc)
}

func TestPaymentHandler_Reserve_CodOrder(t *testing.T) {
	svc := new(MockReservationService)
	r := setupPaymentRouter(svc)
	id := uuid.New()
	svc.On("EnterPaymentReservation", anyCtx, id).
		Return(nil, shared.NewDomainError(shared.CodeInvalidState, "only ONLINE orders can hold stock for payment"))

	w, resp := doRequest(t, r, http.MethodPost, "/orders/"+id.String()+"/payment/reserve", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, dto.CodeInvalidState, resp.Error.Code)
}

func TestPaymentHandler_Resolve(t *testing.T) {
	t.Run("body key wins over header", func(t *testing.T) {
		svc := new(MockReservationService)
		r := setupPaymentRouter(svc)
		order := onlineOrder(t)
		svc.On("ResolvePayment", anyCtx, order.ID, inventory.OutcomeSuccess, "cb-body").Return(order, nil)

		w, resp := doRequest(t, r, http.MethodPost, "/orders/"+order.ID.String()+"/payment/resolve",
			map[string]any{"outcome": "SUCCESS", "idempotency_key": "cb-body"},
			IdempotencyKeyHeader, "cb-header")

		assert.Equal(t, http.StatusOK, w.Code)
		var got tradeapp.OrderResponse
		decodeData(t, resp, &got)
		assert.Equal(t, order.ID, got.ID)
		assert.Equal(t, order.OrderCode, got.OrderCode)
		assertCalled(t, svc)
	})

	t.Run("header key", func(t *testing.T) {
		svc := new(MockReservationService)
		r := setupPaymentRouter(svc)
		order := onlineOrder(t)
		svc.On("ResolvePayment", anyCtx, order.ID, inventory.OutcomeFailure, "cb-42").Return(order, nil)

		w, _ := doRequest(t, r, http.MethodPost, "/orders/"+order.ID.String()+"/payment/resolve",
			map[string]any{"outcome": "FAILURE"}, IdempotencyKeyHeader, " cb-42 ")

		assert.Equal(t, http.StatusOK, w.Code)
		assertCalled(t, svc)
	})

	t.Run("unknown outcome", func(t *testing.T) {
		svc := new(MockReservationService)
		r := setupPaymentRouter(svc)

		w, resp := doRequest(t, r, http.MethodPost, "/orders/"+uuid.NewString()+"/payment/resolve",
			map[string]any{"outcome": "MAYBE"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.CodeValidation, resp.Error.Code)
		svc.AssertNotCalled(t, "ResolvePayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("success after hold expired", func(t *testing.T) {
		svc := new(MockReservationService)
		r := setupPaymentRouter(svc)
		id := uuid.New()
		svc.On("ResolvePayment", anyCtx, id, inventory.OutcomeSuccess, "").
			Return(nil, shared.NewDomainError(shared.CodeInvalidState, "Reservation for order ORD-1 expired"))

		w, resp := doRequest(t, r, http.MethodPost, "/orders/"+id.String()+"/payment/resolve",
			map[string]any{"outcome": "SUCCESS"})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, dto.CodeInvalidState, resp.Error.Code)
	})

	t.Run("concurrent update", func(t *testing.T) {
		svc := new(MockReservationService)
		r := setupPaymentRouter(svc)
		id := uuid.New()
		svc.On("ResolvePayment", anyCtx, id, inventory.OutcomeSuccess, "").
			Return(nil, shared.NewDomainError(shared.CodeConcurrencyConflict, "order was modified concurrently"))

		w, resp := doRequest(t, r, http.MethodPost, "/orders/"+id.String()+"/payment/resolve",
			map[string]any{"outcome": "SUCCESS"})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, dto.CodeConcurrencyConflict, resp.Error.Code)
	})
}
