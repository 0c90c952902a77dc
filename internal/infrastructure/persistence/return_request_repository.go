package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/trade"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormReturnRequestRepository implements ReturnRequestRepository using GORM
type GormReturnRequestRepository struct {
	db *gorm.DB
}

// NewGormReturnRequestRepository creates a new GormReturnRequestRepository
func NewGormReturnRequestRepository(db *gorm.DB) *GormReturnRequestRepository {
	return &GormReturnRequestRepository{db: db}
}

// FindByID finds a return request by its ID
func (r *GormReturnRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.ReturnRequest, error) {
	var model models.ReturnRequestModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByOrder lists every request of an order, oldest first
func (r *GormReturnRequestRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]trade.ReturnRequest, error) {
	var rows []models.ReturnRequestModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	requests := make([]trade.ReturnRequest, len(rows))
	for i := range rows {
		requests[i] = *rows[i].ToDomain()
	}
	return requests, nil
}

// Create inserts a new return request
func (r *GormReturnRequestRepository) Create(ctx context.Context, req *trade.ReturnRequest) error {
	return translateError(r.db.WithContext(ctx).Create(models.ReturnRequestModelFromDomain(req)).Error)
}

// SaveWithLock updates the mutable fields of a request with a version check
func (r *GormReturnRequestRepository) SaveWithLock(ctx context.Context, req *trade.ReturnRequest) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.ReturnRequestModel{}).
		Where("id = ? AND version = ?", req.ID, req.Version).
		Updates(map[string]any{
			"status":             req.Status,
			"staff_notes":        req.StaffNotes,
			"exchange_order_ref": req.ExchangeOrderRef,
			"refund_marked":      req.RefundMarked,
			"decided_at":         req.DecidedAt,
			"received_at":        req.ReceivedAt,
			"completed_at":       req.CompletedAt,
			"cancelled_at":       req.CancelledAt,
			"version":            req.Version + 1,
			"updated_at":         now,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return conflictError("Return request " + req.RequestCode)
	}
	req.Version++
	req.Touch(now)
	return nil
}

var _ trade.ReturnRequestRepository = (*GormReturnRequestRepository)(nil)
