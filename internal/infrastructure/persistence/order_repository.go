package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/trade"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("order_items.created_at ASC, order_items.id ASC")
}

// FindByID finds an order with its items
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items", preloadItems).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain()
}

// FindByCode finds an order by its human-readable code
func (r *GormOrderRepository) FindByCode(ctx context.Context, code string) (*trade.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items", preloadItems).
		Where("order_code = ?", code).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain()
}

// FindAll lists orders page by page and returns the unpaged total
func (r *GormOrderRepository) FindAll(ctx context.Context, filter trade.OrderFilter) ([]trade.Order, int64, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.OrderModel{}), filter)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var rows []models.OrderModel
	if err := query.Session(&gorm.Session{}).
		Preload("Items", preloadItems).
		Order(orderSort.Clause(filter.OrderBy, filter.OrderDir)).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&rows).Error; err != nil {
		return nil, 0, translateError(err)
	}

	orders := make([]trade.Order, 0, len(rows))
	for i := range rows {
		o, err := rows[i].ToDomain()
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *o)
	}
	return orders, total, nil
}

func (r *GormOrderRepository) applyFilter(query *gorm.DB, filter trade.OrderFilter) *gorm.DB {
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.PaymentMethod != "" {
		query = query.Where("payment_method = ?", filter.PaymentMethod)
	}
	if filter.Phone != "" {
		query = query.Where("customer_phone = ?", filter.Phone)
	}
	return query
}

// Create inserts a new order together with its items
func (r *GormOrderRepository) Create(ctx context.Context, order *trade.Order) error {
	return translateError(r.db.WithContext(ctx).Create(models.OrderModelFromDomain(order)).Error)
}

// SaveWithLock updates the order if nobody changed it since it was loaded.
// The stored version must equal order.Version; on success it is bumped.
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, order *trade.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.OrderModelFromDomain(order)
		now := time.Now()

		result := tx.Model(&models.OrderModel{}).
			Where("id = ? AND version = ?", order.ID, order.Version).
			Updates(map[string]any{
				"status":                model.Status,
				"payment_status":        model.PaymentStatus,
				"subtotal":              model.Subtotal,
				"shipping_fee":          model.ShippingFee,
				"total_amount":          model.TotalAmount,
				"notes":                 model.Notes,
				"refund_bank_name":      model.RefundBank.BankName,
				"refund_account_number": model.RefundBank.AccountNumber,
				"refund_account_holder": model.RefundBank.AccountHolder,
				"cancel_reason":         model.CancelReason,
				"paid_at":               model.PaidAt,
				"confirmed_at":          model.ConfirmedAt,
				"packed_at":             model.PackedAt,
				"shipped_at":            model.ShippedAt,
				"completed_at":          model.CompletedAt,
				"cancelled_at":          model.CancelledAt,
				"refunded_at":           model.RefundedAt,
				"version":               order.Version + 1,
				"updated_at":            now,
			})
		if result.Error != nil {
			return translateError(result.Error)
		}
		if result.RowsAffected == 0 {
			return conflictError("Order " + order.OrderCode)
		}

		for i := range model.Items {
			item := &model.Items[i]
			if err := tx.Model(&models.OrderItemModel{}).
				Where("id = ? AND order_id = ?", item.ID, order.ID).
				Updates(map[string]any{
					"return_status":       item.ReturnStatus,
					"shipping_allocation": item.ShippingAllocation,
					"updated_at":          item.UpdatedAt,
				}).Error; err != nil {
				return translateError(err)
			}
		}

		order.Version++
		order.Touch(now)
		return nil
	})
}

var _ trade.OrderRepository = (*GormOrderRepository)(nil)
