package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormStockLedger implements inventory.StockLedger on product_variants.stock_quantity.
// Every decrement is a single conditional UPDATE, so the row lock taken by
// the database is the only serialization point.
type GormStockLedger struct {
	db *gorm.DB
}

// NewGormStockLedger creates a new GormStockLedger
func NewGormStockLedger(db *gorm.DB) *GormStockLedger {
	return &GormStockLedger{db: db}
}

// CheckAvailability reports current stock per line without mutating anything
func (l *GormStockLedger) CheckAvailability(ctx context.Context, lines []inventory.StockLine) ([]inventory.LineAvailability, error) {
	normalized, err := inventory.NormalizeLines(lines)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(normalized))
	for i, line := range normalized {
		ids[i] = line.VariantID
	}

	var rows []models.ProductVariantModel
	if err := l.db.WithContext(ctx).
		Select("id", "stock_quantity", "status").
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	stock := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		if row.Status == catalog.VariantStatusActive {
			stock[row.ID] = row.StockQuantity
		}
	}

	result := make([]inventory.LineAvailability, len(normalized))
	for i, line := range normalized {
		available := stock[line.VariantID]
		result[i] = inventory.LineAvailability{
			VariantID:   line.VariantID,
			Requested:   line.Quantity,
			Available:   available,
			IsAvailable: available >= line.Quantity,
		}
	}
	return result, nil
}

// Deduct decrements every line or none. Lines are merged and applied in
// variant-id order inside one transaction (a savepoint when the ledger is
// already bound to one). On a shortfall the report lists every failed line
// and the returned error is a *inventory.StockUnavailableError.
func (l *GormStockLedger) Deduct(ctx context.Context, lines []inventory.StockLine) (*inventory.DeductionReport, error) {
	normalized, err := inventory.NormalizeLines(lines)
	if err != nil {
		return nil, err
	}
	report := &inventory.DeductionReport{Lines: normalized}

	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		for _, line := range normalized {
			result := tx.Model(&models.ProductVariantModel{}).
				Where("id = ? AND stock_quantity >= ? AND status = ?", line.VariantID, line.Quantity, catalog.VariantStatusActive).
				Updates(map[string]any{
					"stock_quantity": gorm.Expr("stock_quantity - ?", line.Quantity),
					"updated_at":     now,
				})
			if result.Error != nil {
				return translateError(result.Error)
			}
			if result.RowsAffected == 1 {
				continue
			}
			available, err := l.currentStock(tx, line.VariantID)
			if err != nil {
				return err
			}
			report.Failed = append(report.Failed, inventory.LineShortfall{
				VariantID: line.VariantID,
				Requested: line.Quantity,
				Available: available,
			})
		}
		if len(report.Failed) > 0 {
			return inventory.NewStockUnavailableError(report.Failed)
		}
		return nil
	})
	if err != nil {
		return report, err
	}
	return report, nil
}

// Restore increments stock for every line. Archived variants still take
// returned stock back.
func (l *GormStockLedger) Restore(ctx context.Context, lines []inventory.StockLine) error {
	normalized, err := inventory.NormalizeLines(lines)
	if err != nil {
		return err
	}
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		for _, line := range normalized {
			result := tx.Model(&models.ProductVariantModel{}).
				Where("id = ?", line.VariantID).
				Updates(map[string]any{
					"stock_quantity": gorm.Expr("stock_quantity + ?", line.Quantity),
					"updated_at":     now,
				})
			if result.Error != nil {
				return translateError(result.Error)
			}
			if result.RowsAffected == 0 {
				return shared.NewNotFoundError("Product variant", line.VariantID)
			}
		}
		return nil
	})
}

// currentStock reads what a failed line could have had; gone or archived
// variants count as zero
func (l *GormStockLedger) currentStock(tx *gorm.DB, variantID uuid.UUID) (int, error) {
	var row models.ProductVariantModel
	err := tx.Select("id", "stock_quantity", "status").First(&row, "id = ?", variantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, translateError(err)
	}
	if row.Status != catalog.VariantStatusActive {
		return 0, nil
	}
	return row.StockQuantity, nil
}

var _ inventory.StockLedger = (*GormStockLedger)(nil)
