package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	tradeapp "github.com/storefront/backend/internal/application/trade"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

func setupReturnRouter(svc *MockReturnService) *gin.Engine {
	h := NewReturnHandler(svc)
	r := newTestRouter()
	r.POST("/returns", h.Submit)
	r.POST("/returns/evidence-upload-url", h.EvidenceUploadURL)
	r.GET("/returns/:id", h.GetByID)
	r.GET("/returns/:id/evidence", h.EvidenceLinks)
	r.POST("/returns/:id/decide", h.Decide)
	r.POST("/returns/:id/receive", h.Receive)
	r.POST("/returns/:id/complete", h.Complete)
	r.POST("/returns/:id/cancel", h.Cancel)
	r.GET("/orders/:id/returns", h.ListByOrder)
	return r
}

func TestReturnHandler_Submit(t *testing.T) {
	orderID, itemID := uuid.New(), uuid.New()
	payload := func(images []string) map[string]any {
		return map[string]any{
			"order_id":        orderID,
			"order_item_id":   itemID,
			"type":            "EXCHANGE",
			"reason":          "too small",
			"evidence_images": images,
			"exchange_size":   "L",
		}
	}

	t.Run("created", func(t *testing.T) {
		svc := new(MockReturnService)
		r := setupReturnRouter(svc)
		svc.On("Submit", anyCtx, mock.MatchedBy(func(req tradeapp.SubmitReturnRequest) bool {
			return req.OrderItemID == itemID && req.Type == "EXCHANGE" && req.ExchangeSize == "L"
		})).Return(&tradeapp.ReturnRequestResponse{ID: uuid.New(), OrderID: orderID, Status: "PENDING"}, nil)

		w, resp := doRequest(t, r, http.MethodPost, "/returns", payload([]string{"returns/a.jpg"}))

		assert.Equal(t, http.StatusCreated, w.Code)
		var got tradeapp.ReturnRequestResponse
		decodeData(t, resp, &got)
		assert.Equal(t, "PENDING", got.Status)
		assertCalled(t, svc)
	})

	t.Run("evidence required", func(t *testing.T) {
		svc := new(MockReturnService)
		r := setupReturnRouter(svc)

		w, resp := doRequest(t, r, http.MethodPost, "/returns", payload([]string{}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotEmpty(t, resp.Error.Details)
		assert.Equal(t, "evidence_images", resp.Error.Details[0].Field)
	})

	t.Run("open request exists", func(t *testing.T) {
		svc := new(MockReturnService)
		r := setupReturnRouter(svc)
		svc.On("Submit", anyCtx, mock.Anything).
			Return(nil, shared.NewDomainError(shared.CodeAlreadyExists, "item already has an open return request"))

		w, resp := doRequest(t, r, http.MethodPost, "/returns", payload([]string{"returns/a.jpg"}))

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, dto.CodeAlreadyExists, resp.Error.Code)
	})
}

func TestReturnHandler_EvidenceUploadURL(t *testing.T) {
	svc := new(MockReturnService)
	r := setupReturnRouter(svc)
	orderID := uuid.New()
	svc.On("CreateEvidenceUploadURL", anyCtx, tradeapp.EvidenceUploadRequest{
		OrderID: orderID, FileName: "tag.jpg", ContentType: "image/jpeg",
	}).Return(&tradeapp.EvidenceUploadResponse{}, nil)

	w, _ := doRequest(t, r, http.MethodPost, "/returns/evidence-upload-url", map[string]any{
		"order_id": orderID, "file_name": "tag.jpg", "content_type": "image/jpeg",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assertCalled(t, svc)
}

func TestReturnHandler_Lifecycle(t *testing.T) {
	svc := new(MockReturnService)
	r := setupReturnRouter(svc)
	id := uuid.New()
	ok := &tradeapp.ReturnRequestResponse{ID: id}

	svc.On("Decide", anyCtx, id, tradeapp.DecideReturnRequest{Decision: "APPROVE", Notes: "label ok"}).Return(ok, nil)
	svc.On("ConfirmReceived", anyCtx, id).Return(ok, nil)
	svc.On("Complete", anyCtx, id, tradeapp.CompleteReturnRequest{}).Return(ok, nil).Once()
	svc.On("Complete", anyCtx, id, tradeapp.CompleteReturnRequest{ExchangeOrderRef: "ORD-99"}).Return(ok, nil).Once()
	svc.On("Cancel", anyCtx, id).Return(nil, shared.NewDomainError(shared.CodeInvalidState, "cannot cancel a COMPLETED request"))
	svc.On("GetByID", anyCtx, id).Return(ok, nil)

	base := "/returns/" + id.String()

	w, _ := doRequest(t, r, http.MethodPost, base+"/decide", map[string]any{"decision": "APPROVE", "notes": "label ok"})
	assert.Equal(t, http.StatusOK, w.Code)

	w, resp := doRequest(t, r, http.MethodPost, base+"/decide", map[string]any{"decision": "MAYBE"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.CodeValidation, resp.Error.Code)

	w, _ = doRequest(t, r, http.MethodPost, base+"/receive", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = doRequest(t, r, http.MethodPost, base+"/complete", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = doRequest(t, r, http.MethodPost, base+"/complete", map[string]any{"exchange_order_ref": "ORD-99"})
	assert.Equal(t, http.StatusOK, w.Code)

	w, resp = doRequest(t, r, http.MethodPost, base+"/cancel", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, dto.CodeInvalidState, resp.Error.Code)

	w, _ = doRequest(t, r, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	assertCalled(t, svc)
}

func TestReturnHandler_Queries(t *testing.T) {
	svc := new(MockReturnService)
	r := setupReturnRouter(svc)
	orderID, requestID := uuid.New(), uuid.New()
	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)

	svc.On("ListByOrder", anyCtx, orderID).Return([]tradeapp.ReturnRequestResponse{{ID: requestID}}, nil)
	svc.On("EvidenceLinks", anyCtx, requestID).Return([]tradeapp.EvidenceLink{
		{StorageKey: "returns/a.jpg", URL: "https://bucket.example.com/returns/a.jpg?sig=1", ExpiresAt: expires},
	}, nil)

	w, resp := doRequest(t, r, http.MethodGet, "/orders/"+orderID.String()+"/returns", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var list []tradeapp.ReturnRequestResponse
	decodeData(t, resp, &list)
	require.Len(t, list, 1)
	assert.Equal(t, requestID, list[0].ID)

	w, resp = doRequest(t, r, http.MethodGet, "/returns/"+requestID.String()+"/evidence", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var links []tradeapp.EvidenceLink
	decodeData(t, resp, &links)
	require.Len(t, links, 1)
	assert.Equal(t, "returns/a.jpg", links[0].StorageKey)

	assertCalled(t, svc)
}
