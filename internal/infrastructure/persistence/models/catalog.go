package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
)

// ProductModel is the persistence model for the Product entity.
type ProductModel struct {
	BaseModel
	Name         string                `gorm:"type:varchar(200);not null"`
	Slug         string                `gorm:"type:varchar(220);not null;index"`
	BasePrice    decimal.Decimal       `gorm:"type:decimal(18,2);not null"`
	ThumbnailURL string                `gorm:"type:varchar(500)"`
	Status       catalog.ProductStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	AllowReturns bool                  `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseEntity:   m.BaseModel.ToDomain(),
		Name:         m.Name,
		Slug:         m.Slug,
		BasePrice:    m.BasePrice,
		ThumbnailURL: m.ThumbnailURL,
		Status:       m.Status,
		AllowReturns: m.AllowReturns,
	}
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{
		Name:         p.Name,
		Slug:         p.Slug,
		BasePrice:    p.BasePrice,
		ThumbnailURL: p.ThumbnailURL,
		Status:       p.Status,
		AllowReturns: p.AllowReturns,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}

// ProductVariantModel is the persistence model for the ProductVariant entity.
// stock_quantity carries a CHECK (>= 0) in the migration.
type ProductVariantModel struct {
	BaseModel
	ProductID       uuid.UUID             `gorm:"type:uuid;not null;index"`
	SKU             string                `gorm:"column:sku;type:varchar(100);not null;uniqueIndex"`
	Size            string                `gorm:"type:varchar(50)"`
	Color           string                `gorm:"type:varchar(50)"`
	StockQuantity   int                   `gorm:"not null;default:0"`
	PriceAdjustment decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0"`
	Status          catalog.VariantStatus `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (ProductVariantModel) TableName() string {
	return "product_variants"
}

// ToDomain converts the persistence model to a domain ProductVariant entity.
func (m *ProductVariantModel) ToDomain() *catalog.ProductVariant {
	return &catalog.ProductVariant{
		BaseEntity:      m.BaseModel.ToDomain(),
		ProductID:       m.ProductID,
		SKU:             m.SKU,
		Size:            m.Size,
		Color:           m.Color,
		StockQuantity:   m.StockQuantity,
		PriceAdjustment: m.PriceAdjustment,
		Status:          m.Status,
	}
}

// ProductVariantModelFromDomain creates a new persistence model from a domain ProductVariant entity.
func ProductVariantModelFromDomain(v *catalog.ProductVariant) *ProductVariantModel {
	m := &ProductVariantModel{
		ProductID:       v.ProductID,
		SKU:             v.SKU,
		Size:            v.Size,
		Color:           v.Color,
		StockQuantity:   v.StockQuantity,
		PriceAdjustment: v.PriceAdjustment,
		Status:          v.Status,
	}
	m.FromDomainBaseEntity(v.BaseEntity)
	return m
}
