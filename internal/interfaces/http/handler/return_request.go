package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	tradeapp "github.com/storefront/backend/internal/application/trade"
)

// ReturnService is the return and exchange workflow
type ReturnService interface {
	Submit(ctx context.Context, req tradeapp.SubmitReturnRequest) (*tradeapp.ReturnRequestResponse, error)
	CreateEvidenceUploadURL(ctx context.Context, req tradeapp.EvidenceUploadRequest) (*tradeapp.EvidenceUploadResponse, error)
	Decide(ctx context.Context, requestID uuid.UUID, req tradeapp.DecideReturnRequest) (*tradeapp.ReturnRequestResponse, error)
	ConfirmReceived(ctx context.Context, requestID uuid.UUID) (*tradeapp.ReturnRequestResponse, error)
	Complete(ctx context.Context, requestID uuid.UUID, req tradeapp.CompleteReturnRequest) (*tradeapp.ReturnRequestResponse, error)
	Cancel(ctx context.Context, requestID uuid.UUID) (*tradeapp.ReturnRequestResponse, error)
	GetByID(ctx context.Context, requestID uuid.UUID) (*tradeapp.ReturnRequestResponse, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]tradeapp.ReturnRequestResponse, error)
	EvidenceLinks(ctx context.Context, requestID uuid.UUID) ([]tradeapp.EvidenceLink, error)
}

// ReturnHandler handles return and exchange requests
type ReturnHandler struct {
	BaseHandler
	returns ReturnService
}

// NewReturnHandler creates a ReturnHandler
func NewReturnHandler(returns ReturnService) *ReturnHandler {
	return &ReturnHandler{returns: returns}
}

// Submit godoc
// @Summary      Request a return or exchange for one order item
// @Tags         returns
// @Accept       json
// @Produce      json
// @Param        request body tradeapp.SubmitReturnRequest true "Return request"
// @Success      201 {object} dto.Response{data=tradeapp.ReturnRequestResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /returns [post]
func (h *ReturnHandler) Submit(c *gin.Context) {
	var req tradeapp.SubmitReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.returns.Submit(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// EvidenceUploadURL godoc
// @Summary      Get a presigned URL to upload one evidence image
// @Tags         returns
// @Accept       json
// @Produce      json
// @Param        request body tradeapp.EvidenceUploadRequest true "Upload request"
// @Success      200 {object} dto.Response{data=tradeapp.EvidenceUploadResponse}
// @Router       /returns/evidence-upload-url [post]
func (h *ReturnHandler) EvidenceUploadURL(c *gin.Context) {
	var req tradeapp.EvidenceUploadRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.returns.CreateEvidenceUploadURL(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Decide godoc
// @Summary      Approve or reject a pending request
// @Tags         returns
// @Accept       json
// @Produce      json
// @Param        id path string true "Return request ID" format(uuid)
// @Param        request body tradeapp.DecideReturnRequest true "Decision"
// @Success      200 {object} dto.Response{data=tradeapp.ReturnRequestResponse}
// @Router       /returns/{id}/decide [post]
func (h *ReturnHandler) Decide(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	var req tradeapp.DecideReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.returns.Decide(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Receive godoc
// @Summary      Confirm the returned item arrived
// @Tags         returns
// @Produce      json
// @Param        id path string true "Return request ID" format(uuid)
// @Success      200 {object} dto.Response{data=tradeapp.ReturnRequestResponse}
// @Router       /returns/{id}/receive [post]
func (h *ReturnHandler) Receive(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	result, err := h.returns.ConfirmReceived(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Complete godoc
// @Summary      Close a received request
// @Description  An exchange ships the replacement variant; a refund waits for the payout.
// @Tags         returns
// @Accept       json
// @Produce      json
// @Param        id path string true "Return request ID" format(uuid)
// @Param        request body tradeapp.CompleteReturnRequest false "Completion"
// @Success      200 {object} dto.Response{data=tradeapp.ReturnRequestResponse}
// @Router       /returns/{id}/complete [post]
func (h *ReturnHandler) Complete(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	var req tradeapp.CompleteReturnRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}
	result, err := h.returns.Complete(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Cancel godoc
// @Summary      Withdraw a request before it is received
// @Tags         returns
// @Produce      json
// @Param        id path string true "Return request ID" format(uuid)
// @Success      200 {object} dto.Response{data=tradeapp.ReturnRequestResponse}
// @Router       /returns/{id}/cancel [post]
func (h *ReturnHandler) Cancel(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	result, err := h.returns.Cancel(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetByID godoc
// @Summary      Get a return request
// @Tags         returns
// @Produce      json
// @Param        id path string true "Return request ID" format(uuid)
// @Success      200 {object} dto.Response{data=tradeapp.ReturnRequestResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /returns/{id} [get]
func (h *ReturnHandler) GetByID(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	result, err := h.returns.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ListByOrder godoc
// @Summary      List the return requests of an order
// @Tags         returns
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]tradeapp.ReturnRequestResponse}
// @Router       /orders/{id}/returns [get]
func (h *ReturnHandler) ListByOrder(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	result, err := h.returns.ListByOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// EvidenceLinks godoc
// @Summary      Presigned links to a request's evidence images
// @Tags         returns
// @Produce      json
// @Param        id path string true "Return request ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]tradeapp.EvidenceLink}
// @Router       /returns/{id}/evidence [get]
func (h *ReturnHandler) EvidenceLinks(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	links, err := h.returns.EvidenceLinks(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, links)
}
