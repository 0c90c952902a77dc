package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	tradeapp "github.com/storefront/backend/internal/application/trade"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

func setupOrderRouter(svc *MockOrderService) *gin.Engine {
	h := NewOrderHandler(svc)
	r := newTestRouter()
	r.GET("/orders", h.List)
	r.GET("/orders/:id", h.GetByID)
	r.GET("/tracking/:code", h.Track)
	r.POST("/orders/:id/pack", h.Pack)
	r.POST("/orders/:id/ship", h.Ship)
	r.POST("/orders/:id/complete", h.Complete)
	r.POST("/orders/:id/refund", h.MarkRefunded)
	r.POST("/orders/:id/cancel", h.Cancel)
	return r
}

func TestOrderHandler_GetByID(t *testing.T) {
	svc := new(MockOrderService)
	r := setupOrderRouter(svc)
	id := uuid.New()
	missing := uuid.New()

	svc.On("GetByID", anyCtx, id).Return(&tradeapp.OrderResponse{ID: id, OrderCode: "ORD-7"}, nil)
	svc.On("GetByID", anyCtx, missing).Return(nil, shared.NewNotFoundError("order", missing))

	w, resp := doRequest(t, r, http.MethodGet, "/orders/"+id.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var order tradeapp.OrderResponse
	decodeData(t, resp, &order)
	assert.Equal(t, "ORD-7", order.OrderCode)

	w, resp = doRequest(t, r, http.MethodGet, "/orders/"+missing.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.CodeNotFound, resp.Error.Code)
	assertCalled(t, svc)
}

func TestOrderHandler_Track(t *testing.T) {
	svc := new(MockOrderService)
	r := setupOrderRouter(svc)
	svc.On("GetByCode", anyCtx, "ORD-20260301-ABC123").
		Return(&tradeapp.OrderResponse{OrderCode: "ORD-20260301-ABC123", Status: "SHIPPING"}, nil)

	w, resp := doRequest(t, r, http.MethodGet, "/tracking/ORD-20260301-ABC123", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var order tradeapp.OrderResponse
	decodeData(t, resp, &order)
	assert.Equal(t, "SHIPPING", order.Status)
}

func TestOrderHandler_List(t *testing.T) {
	svc := new(MockOrderService)
	r := setupOrderRouter(svc)
	svc.On("List", anyCtx, mock.MatchedBy(func(f tradeapp.OrderListFilter) bool {
		return f.Status == "PENDING" && f.Page == 2 && f.PageSize == 10
	})).Return([]tradeapp.OrderListItemResponse{{OrderCode: "ORD-1"}}, int64(11), nil)

	w, resp := doRequest(t, r, http.MethodGet, "/orders?status=PENDING&page=2&page_size=10", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	if assert.NotNil(t, resp.Meta) {
		assert.Equal(t, int64(11), resp.Meta.Total)
		assert.Equal(t, 2, resp.Meta.TotalPages)
	}

	w, resp = doRequest(t, r, http.MethodGet, "/orders?page_size=500", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.CodeValidation, resp.Error.Code)
	assertCalled(t, svc)
}

func TestOrderHandler_Transitions(t *testing.T) {
	tests := []struct {
		path   string
		method string
	}{
		{"pack", "Pack"},
		{"ship", "Ship"},
		{"complete", "Complete"},
		{"refund", "MarkRefunded"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			svc := new(MockOrderService)
			r := setupOrderRouter(svc)
			id := uuid.New()
			svc.On(tt.method, anyCtx, id).Return(&tradeapp.OrderResponse{ID: id}, nil)

			w, _ := doRequest(t, r, http.MethodPost, "/orders/"+id.String()+"/"+tt.path, nil)
			assert.Equal(t, http.StatusOK, w.Code)
			assertCalled(t, svc)
		})
	}

	t.Run("rejected transition", func(t *testing.T) {
		svc := new(MockOrderService)
		r := setupOrderRouter(svc)
		id := uuid.New()
		svc.On("Ship", anyCtx, id).Return(nil, shared.NewDomainError(shared.CodeInvalidState, "cannot ship a PENDING order"))

		w, resp := doRequest(t, r, http.MethodPost, "/orders/"+id.String()+"/ship", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, dto.CodeInvalidState, resp.Error.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		svc := new(MockOrderService)
		r := setupOrderRouter(svc)
		w, _ := doRequest(t, r, http.MethodPost, "/orders/abc/pack", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Pack", mock.Anything, mock.Anything)
	})
}

func TestOrderHandler_Cancel(t *testing.T) {
	svc := new(MockOrderService)
	r := setupOrderRouter(svc)
	id := uuid.New()
	svc.On("Cancel", anyCtx, id, mock.MatchedBy(func(req tradeapp.CancelOrderRequest) bool {
		return req.Reason == "ordered twice" && req.BankInfo != nil && req.BankInfo.AccountNumber == "19034567890"
	})).Return(&tradeapp.OrderResponse{ID: id, Status: "CANCELLED"}, nil)

	w, _ := doRequest(t, r, http.MethodPost, "/orders/"+id.String()+"/cancel", map[string]any{
		"reason": "ordered twice",
		"bank_info": map[string]any{
			"bank_name":      "Techcombank",
			"account_number": "19034567890",
			"account_holder": "MAI TRAN",
		},
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w, resp := doRequest(t, r, http.MethodPost, "/orders/"+id.String()+"/cancel", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.CodeValidation, resp.Error.Code)
	assertCalled(t, svc)
}
