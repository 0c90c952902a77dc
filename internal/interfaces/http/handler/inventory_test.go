package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	invapp "github.com/storefront/backend/internal/application/inventory"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

func setupInventoryRouter(svc *MockInventoryService) *gin.Engine {
	h := NewInventoryHandler(svc)
	r := newTestRouter()
	r.POST("/inventory/availability", h.CheckAvailability)
	r.GET("/inventory/variants/:id/movements", h.ListMovements)
	return r
}

func TestInventoryHandler_CheckAvailability(t *testing.T) {
	svc := new(MockInventoryService)
	r := setupInventoryRouter(svc)
	variant := uuid.New()
	svc.On("CheckAvailability", anyCtx, invapp.CheckAvailabilityRequest{
		Lines: []invapp.StockLineInput{{VariantID: variant, Quantity: 2}},
	}).Return(&invapp.AvailabilityResponse{AllAvailable: true}, nil)

	w, resp := doRequest(t, r, http.MethodPost, "/inventory/availability", map[string]any{
		"lines": []map[string]any{{"variant_id": variant, "quantity": 2}},
	})
	assert.Equal(t, http.StatusOK, w.Code)
	var got invapp.AvailabilityResponse
	decodeData(t, resp, &got)
	assert.True(t, got.AllAvailable)

	w, resp = doRequest(t, r, http.MethodPost, "/inventory/availability", map[string]any{
		"lines": []map[string]any{{"variant_id": variant, "quantity": 0}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.CodeValidation, resp.Error.Code)

	w, resp = doRequest(t, r, http.MethodPost, "/inventory/availability", map[string]any{
		"lines": []map[string]any{{"variant_id": variant, "quantity": 10001}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.CodeValidation, resp.Error.Code)
	assertCalled(t, svc)
}

func TestInventoryHandler_ListMovements(t *testing.T) {
	svc := new(MockInventoryService)
	r := setupInventoryRouter(svc)
	variant := uuid.New()
	svc.On("ListMovements", anyCtx, variant, mock.MatchedBy(func(f invapp.MovementListFilter) bool {
		return f.MovementType == "RESERVE"
	})).Return([]invapp.MovementResponse{{VariantID: variant, MovementType: "RESERVE", Quantity: 2, SignedQuantity: -2}}, int64(1), nil)

	w, resp := doRequest(t, r, http.MethodGet, "/inventory/variants/"+variant.String()+"/movements?movement_type=RESERVE", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var got []invapp.MovementResponse
	decodeData(t, resp, &got)
	if assert.Len(t, got, 1) {
		assert.Equal(t, -2, got[0].SignedQuantity)
	}

	w, _ = doRequest(t, r, http.MethodGet, "/inventory/variants/"+variant.String()+"/movements?movement_type=GIFT", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assertCalled(t, svc)
}

func TestInventoryHandler_ServiceFailure(t *testing.T) {
	svc := new(MockInventoryService)
	r := setupInventoryRouter(svc)
	svc.On("ListMovements", anyCtx, mock.Anything, mock.Anything).
		Return([]invapp.MovementResponse(nil), int64(0), errors.New("db down"))

	w, resp := doRequest(t, r, http.MethodGet, "/inventory/variants/"+uuid.NewString()+"/movements", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, dto.CodeInternal, resp.Error.Code)
	assert.NotContains(t, resp.Error.Message, "db down")
}
