package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	invapp "github.com/storefront/backend/internal/application/inventory"
	tradeapp "github.com/storefront/backend/internal/application/trade"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/trade"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// MockCheckoutService is a mock implementation of CheckoutService
type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) ValidateCart(ctx context.Context, req tradeapp.ValidateCartRequest) (*trade.CartValidation, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.CartValidation), args.Error(1)
}

func (m *MockCheckoutService) CreateOrder(ctx context.Context, req tradeapp.CreateOrderRequest) (*tradeapp.OrderResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.OrderResponse), args.Error(1)
}

// MockOrderService is a mock implementation of OrderService
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) order(args mock.Arguments) (*tradeapp.OrderResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.OrderResponse), args.Error(1)
}

func (m *MockOrderService) GetByID(ctx context.Context, id uuid.UUID) (*tradeapp.OrderResponse, error) {
	return m.order(m.Called(ctx, id))
}

func (m *MockOrderService) GetByCode(ctx context.Context, code string) (*tradeapp.OrderResponse, error) {
	return m.order(m.Called(ctx, code))
}

func (m *MockOrderService) List(ctx context.Context, filter tradeapp.OrderListFilter) ([]tradeapp.OrderListItemResponse, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]tradeapp.OrderListItemResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderService) Pack(ctx context.Context, id uuid.UUID) (*tradeapp.OrderResponse, error) {
	return m.order(m.Called(ctx, id))
}

func (m *MockOrderService) Ship(ctx context.Context, id uuid.UUID) (*tradeapp.OrderResponse, error) {
	return m.order(m.Called(ctx, id))
}

func (m *MockOrderService) Complete(ctx context.Context, id uuid.UUID) (*tradeapp.OrderResponse, error) {
	return m.order(m.Called(ctx, id))
}

func (m *MockOrderService) Cancel(ctx context.Context, id uuid.UUID, req tradeapp.CancelOrderRequest) (*tradeapp.OrderResponse, error) {
	return m.order(m.Called(ctx, id, req))
}

func (m *MockOrderService) MarkRefunded(ctx context.Context, id uuid.UUID) (*tradeapp.OrderResponse, error) {
	return m.order(m.Called(ctx, id))
}

// MockReservationService is a mock implementation of ReservationService
type MockReservationService struct {
	mock.Mock
}

func (m *MockReservationService) EnterPaymentReservation(ctx context.Context, orderID uuid.UUID) (*tradeapp.ReservationHandle, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.ReservationHandle), args.Error(1)
}

func (m *MockReservationService) ResolvePayment(ctx context.Context, orderID uuid.UUID, outcome inventory.ResolutionOutcome, key string) (*trade.Order, error) {
	args := m.Called(ctx, orderID, outcome, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Order), args.Error(1)
}

// MockReturnService is a mock implementation of ReturnService
type MockReturnService struct {
	mock.Mock
}

func (m *MockReturnService) request(args mock.Arguments) (*tradeapp.ReturnRequestResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.ReturnRequestResponse), args.Error(1)
}

func (m *MockReturnService) Submit(ctx context.Context, req tradeapp.SubmitReturnRequest) (*tradeapp.ReturnRequestResponse, error) {
	return m.request(m.Called(ctx, req))
}

func (m *MockReturnService) CreateEvidenceUploadURL(ctx context.Context, req tradeapp.EvidenceUploadRequest) (*tradeapp.EvidenceUploadResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.EvidenceUploadResponse), args.Error(1)
}

func (m *MockReturnService) Decide(ctx context.Context, id uuid.UUID, req tradeapp.DecideReturnRequest) (*tradeapp.ReturnRequestResponse, error) {
	return m.request(m.Called(ctx, id, req))
}

func (m *MockReturnService) ConfirmReceived(ctx context.Context, id uuid.UUID) (*tradeapp.ReturnRequestResponse, error) {
	return m.request(m.Called(ctx, id))
}

func (m *MockReturnService) Complete(ctx context.Context, id uuid.UUID, req tradeapp.CompleteReturnRequest) (*tradeapp.ReturnRequestResponse, error) {
	return m.request(m.Called(ctx, id, req))
}

func (m *MockReturnService) Cancel(ctx context.Context, id uuid.UUID) (*tradeapp.ReturnRequestResponse, error) {
	return m.request(m.Called(ctx, id))
}

func (m *MockReturnService) GetByID(ctx context.Context, id uuid.UUID) (*tradeapp.ReturnRequestResponse, error) {
	return m.request(m.Called(ctx, id))
}

func (m *MockReturnService) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]tradeapp.ReturnRequestResponse, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).([]tradeapp.ReturnRequestResponse), args.Error(1)
}

func (m *MockReturnService) EvidenceLinks(ctx context.Context, id uuid.UUID) ([]tradeapp.EvidenceLink, error) {
	args := m.Called(ctx, id)
	return args.Get(0).([]tradeapp.EvidenceLink), args.Error(1)
}

// MockInventoryService is a mock implementation of InventoryService
type MockInventoryService struct {
	mock.Mock
}

func (m *MockInventoryService) CheckAvailability(ctx context.Context, req invapp.CheckAvailabilityRequest) (*invapp.AvailabilityResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invapp.AvailabilityResponse), args.Error(1)
}

func (m *MockInventoryService) ListMovements(ctx context.Context, variantID uuid.UUID, filter invapp.MovementListFilter) ([]invapp.MovementResponse, int64, error) {
	args := m.Called(ctx, variantID, filter)
	return args.Get(0).([]invapp.MovementResponse), args.Get(1).(int64), args.Error(2)
}

// testResponse mirrors dto.Response with raw data for assertions
type testResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code       string                    `json:"code"`
		Message    string                    `json:"message"`
		RequestID  string                    `json:"request_id"`
		Details    []dto.ValidationDetail    `json:"details"`
		Shortfalls []inventory.LineShortfall `json:"shortfalls"`
	} `json:"error"`
	Meta *dto.Meta `json:"meta"`
}

func newTestRouter() *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	return r
}

func doRequest(t *testing.T, r *gin.Engine, method, path string, body any, headers ...string) (*httptest.ResponseRecorder, testResponse) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp testResponse
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

func decodeData(t *testing.T, resp testResponse, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

var anyCtx = mock.Anything

func assertCalled(t *testing.T, mocks ...interface{ AssertExpectations(mock.TestingT) bool }) {
	t.Helper()
	for _, m := range mocks {
		m.AssertExpectations(t)
	}
}
