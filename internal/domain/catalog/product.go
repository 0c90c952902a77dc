// Package catalog holds the read side of the storefront catalog: products
// and their purchasable variants. Catalog editing lives outside this
// service; only stock quantities change here, through the inventory ledger.
package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// ProductStatus represents the publication status of a product
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "ACTIVE"
	ProductStatusInactive ProductStatus = "INACTIVE"
	ProductStatusArchived ProductStatus = "ARCHIVED"
	ProductStatusDraft    ProductStatus = "DRAFT"
)

// IsValid checks if the status is a valid ProductStatus
func (s ProductStatus) IsValid() bool {
	switch s {
	case ProductStatusActive, ProductStatusInactive, ProductStatusArchived, ProductStatusDraft:
		return true
	}
	return false
}

// String returns the string representation of ProductStatus
func (s ProductStatus) String() string {
	return string(s)
}

// IsSellable returns true if the product may be put into an order
func (s ProductStatus) IsSellable() bool {
	return s == ProductStatusActive
}

// Product is a catalog entry grouping a set of variants
type Product struct {
	shared.BaseEntity
	Name         string
	Slug         string
	BasePrice    decimal.Decimal
	ThumbnailURL string
	Status       ProductStatus
	AllowReturns bool
}

// NewProduct creates an active product that accepts returns
func NewProduct(name string, basePrice decimal.Decimal) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("Product name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewValidationError("Product name cannot exceed 200 characters")
	}
	if basePrice.IsNegative() {
		return nil, shared.NewValidationError("Base price cannot be negative")
	}

	return &Product{
		BaseEntity:   shared.NewBaseEntity(),
		Name:         name,
		Slug:         slugify(name),
		BasePrice:    basePrice,
		Status:       ProductStatusActive,
		AllowReturns: true,
	}, nil
}

// SetStatus changes the publication status
func (p *Product) SetStatus(status ProductStatus) error {
	if !status.IsValid() {
		return shared.NewValidationError("Invalid product status: %s", status)
	}
	p.Status = status
	p.Touch(time.Now())
	return nil
}

// SetAllowReturns toggles the return policy
func (p *Product) SetAllowReturns(allow bool) {
	p.AllowReturns = allow
	p.Touch(time.Now())
}

func slugify(name string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			dash = false
		case !dash && sb.Len() > 0:
			sb.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(sb.String(), "-")
}

// VariantStatus represents the lifecycle of a variant
type VariantStatus string

const (
	VariantStatusActive   VariantStatus = "active"
	VariantStatusArchived VariantStatus = "archived"
)

// ProductVariant is a purchasable size/color combination, the unit stock is
// tracked against. StockQuantity is never negative.
type ProductVariant struct {
	shared.BaseEntity
	ProductID       uuid.UUID
	SKU             string
	Size            string
	Color           string
	StockQuantity   int
	PriceAdjustment decimal.Decimal
	Status          VariantStatus
}

// NewProductVariant creates an active variant with an initial stock level
func NewProductVariant(productID uuid.UUID, sku, size, color string, stock int, priceAdjustment decimal.Decimal) (*ProductVariant, error) {
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("Product ID cannot be empty")
	}
	if strings.TrimSpace(sku) == "" {
		return nil, shared.NewValidationError("SKU cannot be empty")
	}
	if stock < 0 {
		return nil, shared.NewValidationError("Stock quantity cannot be negative")
	}

	return &ProductVariant{
		BaseEntity:      shared.NewBaseEntity(),
		ProductID:       productID,
		SKU:             strings.ToUpper(strings.TrimSpace(sku)),
		Size:            strings.TrimSpace(size),
		Color:           strings.TrimSpace(color),
		StockQuantity:   stock,
		PriceAdjustment: priceAdjustment,
		Status:          VariantStatusActive,
	}, nil
}

// IsActive returns true if the variant can be sold
func (v *ProductVariant) IsActive() bool {
	return v.Status == VariantStatusActive
}

// Archive retires the variant
func (v *ProductVariant) Archive() {
	v.Status = VariantStatusArchived
	v.Touch(time.Now())
}

// Label returns "size / color", omitting empty parts
func (v *ProductVariant) Label() string {
	switch {
	case v.Size != "" && v.Color != "":
		return v.Size + " / " + v.Color
	case v.Size != "":
		return v.Size
	}
	return v.Color
}

// Matches reports whether the variant has the given options. An empty
// option matches anything.
func (v *ProductVariant) Matches(size, color string) bool {
	if size != "" && !strings.EqualFold(v.Size, size) {
		return false
	}
	if color != "" && !strings.EqualFold(v.Color, color) {
		return false
	}
	return true
}

// UnitPrice returns the product base price plus the variant adjustment
func (v *ProductVariant) UnitPrice(p *Product) decimal.Decimal {
	return p.BasePrice.Add(v.PriceAdjustment)
}
