package trade

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	appinv "github.com/storefront/backend/internal/application/inventory"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// EvidenceStorage issues presigned URLs for return evidence images
type EvidenceStorage interface {
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
}

// ReturnConfig tunes the return workflow
type ReturnConfig struct {
	// Window is how long after order creation a return may be requested
	Window time.Duration
	// UploadURLExpiry is the lifetime of evidence upload URLs
	UploadURLExpiry time.Duration
}

// DefaultReturnConfig returns the default return settings
func DefaultReturnConfig() ReturnConfig {
	return ReturnConfig{
		Window:          7 * 24 * time.Hour,
		UploadURLExpiry: 15 * time.Minute,
	}
}

var evidenceExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/heic": ".heic",
}

// ReturnService runs per-item return and exchange requests. Every change
// touches only the item of the request and recomputes the order's return
// phase from all of its requests.
type ReturnService struct {
	txScope        appinv.TransactionScope
	orderRepo      trade.OrderRepository
	returnRepo     trade.ReturnRequestRepository
	productRepo    catalog.ProductRepository
	storage        EvidenceStorage
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	cfg            ReturnConfig
	now            func() time.Time
}

// NewReturnService creates a new ReturnService
func NewReturnService(
	txScope appinv.TransactionScope,
	orderRepo trade.OrderRepository,
	returnRepo trade.ReturnRequestRepository,
	productRepo catalog.ProductRepository,
	cfg ReturnConfig,
	logger *zap.Logger,
) *ReturnService {
	if cfg.UploadURLExpiry <= 0 {
		cfg.UploadURLExpiry = DefaultReturnConfig().UploadURLExpiry
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReturnService{
		txScope:     txScope,
		orderRepo:   orderRepo,
		returnRepo:  returnRepo,
		productRepo: productRepo,
		logger:      logger,
		cfg:         cfg,
		now:         time.Now,
	}
}

// SetEventPublisher sets the event publisher
func (s *ReturnService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetEvidenceStorage enables presigned evidence uploads
func (s *ReturnService) SetEvidenceStorage(storage EvidenceStorage) {
	s.storage = storage
}

// Submit files a return or exchange request for one order item
func (s *ReturnService) Submit(ctx context.Context, req SubmitReturnRequest) (*ReturnRequestResponse, error) {
	bankInfo, err := toBankInfo(req.BankInfo)
	if err != nil {
		return nil, err
	}
	returnType := trade.ReturnType(req.Type)
	if !returnType.IsValid() {
		return nil, shared.NewValidationError("Invalid return type: %s", req.Type)
	}

	if err := s.checkProductReturnable(ctx, req.OrderID, req.OrderItemID); err != nil {
		return nil, err
	}

	var (
		order   *trade.Order
		request *trade.ReturnRequest
	)
	err = s.txScope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		var err error
		order, err = repos.Orders().FindByID(ctx, req.OrderID)
		if err != nil {
			return err
		}
		item, err := order.CheckReturnEligibility(req.OrderItemID, s.now(), s.cfg.Window)
		if err != nil {
			return err
		}

		submission := trade.ReturnSubmission{
			Type:           returnType,
			Reason:         req.Reason,
			EvidenceImages: req.EvidenceImages,
			BankInfo:       bankInfo,
		}
		target := trade.ExchangeTarget{Size: strings.TrimSpace(req.ExchangeSize), Color: strings.TrimSpace(req.ExchangeColor)}
		if !target.IsZero() {
			submission.ExchangeTarget = &target
			if returnType == trade.ReturnTypeExchange {
				variantID, err := resolveExchangeTarget(ctx, repos.Variants(), item, target)
				if err != nil {
					return err
				}
				submission.TargetVariantID = &variantID
			}
		}

		request, err = trade.NewReturnRequest(order, item, submission)
		if err != nil {
			return err
		}
		if err := order.SetItemReturnStatus(item.ID, trade.ItemReturnHasRequest); err != nil {
			return err
		}
		if err := applyReturnPhase(ctx, repos.Returns(), order, request); err != nil {
			return err
		}
		if err := repos.Returns().Create(ctx, request); err != nil {
			return err
		}
		return repos.Orders().SaveWithLock(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Return request submitted",
		zap.String("request_code", request.RequestCode),
		zap.String("order_code", order.OrderCode),
		zap.String("type", string(request.Type)),
	)
	publishEvents(ctx, s.eventPublisher, s.logger, request, order)
	response := ToReturnRequestResponse(request)
	return &response, nil
}

// checkProductReturnable rejects items whose product does not take returns.
// Catalog rows are read outside the workflow transaction.
func (s *ReturnService) checkProductReturnable(ctx context.Context, orderID, itemID uuid.UUID) error {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	item := order.GetItem(itemID)
	if item == nil {
		// eligibility reports the missing item
		return nil
	}
	product, err := s.productRepo.FindByID(ctx, item.ProductID)
	if err != nil {
		return err
	}
	if !product.AllowReturns {
		return shared.NewValidationError("%s cannot be returned", product.Name)
	}
	return nil
}

// resolveExchangeTarget finds the active variant of the item's product
// with the requested size and color. Blank fields keep the item's own.
func resolveExchangeTarget(ctx context.Context, variants catalog.VariantRepository, item *trade.OrderItem, target trade.ExchangeTarget) (uuid.UUID, error) {
	siblings, err := variants.FindByProduct(ctx, item.ProductID)
	if err != nil {
		return uuid.Nil, err
	}
	size, color := target.Size, target.Color
	for i := range siblings {
		if siblings[i].ID != item.VariantID {
			continue
		}
		if size == "" {
			size = siblings[i].Size
		}
		if color == "" {
			color = siblings[i].Color
		}
	}
	v, ok := catalog.FindVariant(siblings, item.ProductID, size, color)
	if !ok {
		return uuid.Nil, shared.NewValidationError("%s is not available in %s", item.ProductName, describeTarget(size, color))
	}
	if !v.IsActive() {
		return uuid.Nil, shared.NewValidationError("%s in %s is no longer sold", item.ProductName, describeTarget(size, color))
	}
	return v.ID, nil
}

func describeTarget(size, color string) string {
	parts := make([]string, 0, 2)
	if size != "" {
		parts = append(parts, "size "+size)
	}
	if color != "" {
		parts = append(parts, "color "+color)
	}
	return strings.Join(parts, ", ")
}

// applyReturnPhase recomputes the order's return phase over all of its
// requests, with changed standing in for its stored copy
func applyReturnPhase(ctx context.Context, repo trade.ReturnRequestRepository, order *trade.Order, changed *trade.ReturnRequest) error {
	stored, err := repo.FindByOrder(ctx, order.ID)
	if err != nil {
		return err
	}
	all := make([]trade.ReturnRequest, 0, len(stored)+1)
	replaced := false
	for _, r := range stored {
		if r.ID == changed.ID {
			all = append(all, *changed)
			replaced = true
			continue
		}
		all = append(all, r)
	}
	if !replaced {
		all = append(all, *changed)
	}
	return order.ApplyReturnPhase(all)
}

// ReturnDecision is a staff verdict on a pending request
type ReturnDecision string

const (
	DecisionApprove ReturnDecision = "APPROVE"
	DecisionReject  ReturnDecision = "REJECT"
)

// Decide approves or rejects a pending request. A rejected item cannot be
// returned again.
func (s *ReturnService) Decide(ctx context.Context, requestID uuid.UUID, req DecideReturnRequest) (*ReturnRequestResponse, error) {
	decision := ReturnDecision(req.Decision)
	if decision != DecisionApprove && decision != DecisionReject {
		return nil, shared.NewValidationError("Invalid decision: %s", req.Decision)
	}
	return s.mutate(ctx, requestID, func(ctx context.Context, repos appinv.TransactionalRepositories, r *trade.ReturnRequest, order *trade.Order) error {
		if decision == DecisionApprove {
			return r.Approve(req.Notes)
		}
		if err := r.Reject(req.Notes); err != nil {
			return err
		}
		return order.SetItemReturnStatus(r.OrderItemID, trade.ItemReturnRejected)
	})
}

// ConfirmReceived records that the returned item reached the warehouse
// and puts it back into stock
func (s *ReturnService) ConfirmReceived(ctx context.Context, requestID uuid.UUID) (*ReturnRequestResponse, error) {
	return s.mutate(ctx, requestID, func(ctx context.Context, repos appinv.TransactionalRepositories, r *trade.ReturnRequest, _ *trade.Order) error {
		if err := r.ConfirmReceived(); err != nil {
			return err
		}
		line := []inventory.StockLine{r.ReturnedStock()}
		if err := repos.Ledger().Restore(ctx, line); err != nil {
			return err
		}
		return recordMovements(ctx, repos.Movements(), line,
			inventory.MovementTypeReturnIn, inventory.SourceTypeReturnRequest, r.ID, r.RequestCode, r.Reason)
	})
}

// Complete closes a received request. An exchange ships the replacement
// out of stock; a refund marks the money as owed to the customer.
func (s *ReturnService) Complete(ctx context.Context, requestID uuid.UUID, req CompleteReturnRequest) (*ReturnRequestResponse, error) {
	resp, err := s.mutate(ctx, requestID, func(ctx context.Context, repos appinv.TransactionalRepositories, r *trade.ReturnRequest, order *trade.Order) error {
		if err := r.Complete(req.ExchangeOrderRef); err != nil {
			return err
		}
		if r.Type == trade.ReturnTypeExchange {
			line := []inventory.StockLine{r.ReplacementStock()}
			if _, err := repos.Ledger().Deduct(ctx, line); err != nil {
				return err
			}
			if err := recordMovements(ctx, repos.Movements(), line,
				inventory.MovementTypeExchangeOut, inventory.SourceTypeReturnRequest, r.ID, r.RequestCode, "exchange replacement"); err != nil {
				return err
			}
		} else if err := order.RequestRefund(r.BankInfo); err != nil {
			return err
		}
		return order.SetItemReturnStatus(r.OrderItemID, r.ItemOutcome())
	})
	if err != nil {
		publishShortfall(ctx, s.eventPublisher, s.logger, err, inventory.SourceTypeReturnRequest, requestID)
	}
	return resp, err
}

// Cancel withdraws a pending request. The item can be returned again.
func (s *ReturnService) Cancel(ctx context.Context, requestID uuid.UUID) (*ReturnRequestResponse, error) {
	return s.mutate(ctx, requestID, func(_ context.Context, _ appinv.TransactionalRepositories, r *trade.ReturnRequest, order *trade.Order) error {
		if err := r.Cancel(); err != nil {
			return err
		}
		return order.SetItemReturnStatus(r.OrderItemID, trade.ItemReturnNone)
	})
}

type returnMutation func(ctx context.Context, repos appinv.TransactionalRepositories, r *trade.ReturnRequest, order *trade.Order) error

// mutate loads a request and its order in one transaction, applies fn,
// recomputes the order phase and saves both with version checks
func (s *ReturnService) mutate(ctx context.Context, requestID uuid.UUID, fn returnMutation) (*ReturnRequestResponse, error) {
	var (
		request *trade.ReturnRequest
		order   *trade.Order
	)
	err := s.txScope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		var err error
		request, err = repos.Returns().FindByID(ctx, requestID)
		if err != nil {
			return err
		}
		order, err = repos.Orders().FindByID(ctx, request.OrderID)
		if err != nil {
			return err
		}
		if err := fn(ctx, repos, request, order); err != nil {
			return err
		}
		if err := applyReturnPhase(ctx, repos.Returns(), order, request); err != nil {
			return err
		}
		if err := repos.Returns().SaveWithLock(ctx, request); err != nil {
			return err
		}
		return repos.Orders().SaveWithLock(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Return request updated",
		zap.String("request_code", request.RequestCode),
		zap.String("status", string(request.Status)),
		zap.String("order_status", string(order.Status())),
	)
	publishEvents(ctx, s.eventPublisher, s.logger, request, order)
	response := ToReturnRequestResponse(request)
	return &response, nil
}

// GetByID retrieves a return request
func (s *ReturnService) GetByID(ctx context.Context, requestID uuid.UUID) (*ReturnRequestResponse, error) {
	r, err := s.returnRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	response := ToReturnRequestResponse(r)
	return &response, nil
}

// ListByOrder lists the return requests of an order, oldest first
func (s *ReturnService) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]ReturnRequestResponse, error) {
	if _, err := s.orderRepo.FindByID(ctx, orderID); err != nil {
		return nil, err
	}
	requests, err := s.returnRepo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	out := make([]ReturnRequestResponse, len(requests))
	for i := range requests {
		out[i] = ToReturnRequestResponse(&requests[i])
	}
	return out, nil
}

// CreateEvidenceUploadURL issues a presigned PUT URL for one evidence image
// of an order. The returned storage key goes into SubmitReturnRequest.
func (s *ReturnService) CreateEvidenceUploadURL(ctx context.Context, req EvidenceUploadRequest) (*EvidenceUploadResponse, error) {
	if s.storage == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "Evidence uploads are not configured")
	}
	contentType := strings.ToLower(strings.TrimSpace(req.ContentType))
	ext, ok := evidenceExtensions[contentType]
	if !ok {
		return nil, shared.NewValidationError("Unsupported evidence image type: %s", req.ContentType)
	}
	if fileExt := strings.ToLower(path.Ext(req.FileName)); fileExt != "" && fileExt != ext &&
		!(fileExt == ".jpeg" && ext == ".jpg") {
		return nil, shared.NewValidationError("File %s does not match content type %s", req.FileName, req.ContentType)
	}
	if _, err := s.orderRepo.FindByID(ctx, req.OrderID); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("returns/%s/%s%s", req.OrderID, uuid.New(), ext)
	url, expiresAt, err := s.storage.GenerateUploadURL(ctx, key, contentType, s.cfg.UploadURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to create evidence upload URL: %w", err)
	}
	return &EvidenceUploadResponse{StorageKey: key, UploadURL: url, ExpiresAt: expiresAt}, nil
}

// EvidenceLinks returns presigned GET URLs for the evidence images of a
// request so staff can review them.
func (s *ReturnService) EvidenceLinks(ctx context.Context, requestID uuid.UUID) ([]EvidenceLink, error) {
	if s.storage == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "Evidence storage is not configured")
	}
	r, err := s.returnRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	links := make([]EvidenceLink, 0, len(r.EvidenceImages))
	for _, key := range r.EvidenceImages {
		url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, key, s.cfg.UploadURLExpiry)
		if err != nil {
			return nil, fmt.Errorf("failed to create evidence download URL: %w", err)
		}
		links = append(links, EvidenceLink{StorageKey: key, URL: url, ExpiresAt: expiresAt})
	}
	return links, nil
}
