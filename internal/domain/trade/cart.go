package trade

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/inventory"
)

// CartLine is a client-held cart entry. The display snapshot is whatever
// the client last saw and is never trusted for pricing.
type CartLine struct {
	ProductID    uuid.UUID `json:"product_id"`
	VariantID    uuid.UUID `json:"variant_id"`
	Quantity     int       `json:"quantity"`
	ProductName  string    `json:"product_name,omitempty"`
	VariantLabel string    `json:"variant_label,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
}

// AnnotatedLine is a cart line reconciled against the live catalog.
// Annotations are derived at validation time and never stored.
type AnnotatedLine struct {
	CartLine
	RequestedQuantity int             `json:"requested_quantity"`
	AvailableStock    int             `json:"available_stock"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	IsAvailable       bool            `json:"is_available"`
	Warning           string          `json:"warning,omitempty"`
	Error             string          `json:"error,omitempty"`
}

// CartValidation is the outcome of ValidateCart
type CartValidation struct {
	Lines    []AnnotatedLine `json:"lines"`
	IsValid  bool            `json:"is_valid"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// ValidateCart reconciles cart lines with the catalog snapshot. Per line,
// first match wins:
//
//  1. product ARCHIVED, DRAFT or gone: error, unavailable
//  2. product INACTIVE: warning, unavailable
//  3. variant gone, archived or out of stock: error, unavailable
//  4. quantity above stock: warning, quantity clamped, still available
//
// Lines for the same variant share its stock. The cart is valid only when
// it is non-empty and every line is available without error.
func ValidateCart(lines []CartLine, snap catalog.Snapshot) CartValidation {
	result := CartValidation{
		Lines:    make([]AnnotatedLine, 0, len(lines)),
		IsValid:  len(lines) > 0,
		Subtotal: decimal.Zero,
	}
	allocated := make(map[uuid.UUID]int)

	for _, line := range lines {
		a := annotate(line, snap, allocated)
		if !a.IsAvailable || a.Error != "" {
			result.IsValid = false
		} else {
			result.Subtotal = result.Subtotal.Add(a.UnitPrice.Mul(decimal.NewFromInt(int64(a.Quantity))))
		}
		result.Lines = append(result.Lines, a)
	}
	return result
}

func annotate(line CartLine, snap catalog.Snapshot, allocated map[uuid.UUID]int) AnnotatedLine {
	a := AnnotatedLine{CartLine: line, RequestedQuantity: line.Quantity}

	if line.Quantity <= 0 {
		a.Error = "Quantity must be at least 1"
		return a
	}

	product, ok := snap.Products[line.ProductID]
	if !ok {
		a.Error = "This product is no longer available"
		return a
	}
	a.ProductName = product.Name
	switch product.Status {
	case catalog.ProductStatusArchived, catalog.ProductStatusDraft:
		a.Error = fmt.Sprintf("%s is no longer sold", product.Name)
		return a
	case catalog.ProductStatusInactive:
		a.Warning = fmt.Sprintf("%s is temporarily unavailable", product.Name)
		return a
	}

	variant, ok := snap.Variants[line.VariantID]
	if !ok || variant.ProductID != product.ID || !variant.IsActive() {
		a.Error = fmt.Sprintf("The selected option of %s no longer exists", product.Name)
		return a
	}
	a.VariantLabel = variant.Label()
	a.UnitPrice = variant.UnitPrice(&product)
	if a.ThumbnailURL == "" {
		a.ThumbnailURL = product.ThumbnailURL
	}

	remaining := variant.StockQuantity - allocated[variant.ID]
	if remaining < 0 {
		remaining = 0
	}
	a.AvailableStock = remaining
	if remaining == 0 {
		a.Error = fmt.Sprintf("%s (%s) is out of stock", product.Name, variant.Label())
		return a
	}

	a.IsAvailable = true
	if line.Quantity > remaining {
		a.Quantity = remaining
		a.Warning = fmt.Sprintf("Only %d of %s (%s) left; quantity reduced", remaining, product.Name, variant.Label())
	}
	allocated[variant.ID] += a.Quantity
	return a
}

// StockLines returns ledger lines for every available line
func (v CartValidation) StockLines() []inventory.StockLine {
	lines := make([]inventory.StockLine, 0, len(v.Lines))
	for _, l := range v.Lines {
		if l.IsAvailable && l.Error == "" {
			lines = append(lines, inventory.StockLine{VariantID: l.VariantID, Quantity: l.Quantity})
		}
	}
	return lines
}

// OrderLines converts available lines to order inputs priced from the catalog
func (v CartValidation) OrderLines() []OrderLineInput {
	out := make([]OrderLineInput, 0, len(v.Lines))
	byVariant := make(map[uuid.UUID]int)
	for _, l := range v.Lines {
		if !l.IsAvailable || l.Error != "" {
			continue
		}
		if idx, ok := byVariant[l.VariantID]; ok {
			out[idx].Quantity += l.Quantity
			continue
		}
		byVariant[l.VariantID] = len(out)
		out = append(out, OrderLineInput{
			ProductID:    l.ProductID,
			VariantID:    l.VariantID,
			ProductName:  l.ProductName,
			VariantLabel: l.VariantLabel,
			ThumbnailURL: l.ThumbnailURL,
			UnitPrice:    l.UnitPrice,
			Quantity:     l.Quantity,
		})
	}
	return out
}

// Problems lists the user-facing error and warning messages
func (v CartValidation) Problems() []string {
	var out []string
	for _, l := range v.Lines {
		if l.Error != "" {
			out = append(out, l.Error)
		} else if l.Warning != "" {
			out = append(out, l.Warning)
		}
	}
	return out
}

// Reason joins the problems into one message
func (v CartValidation) Reason() string {
	if len(v.Lines) == 0 {
		return "Cart is empty"
	}
	return strings.Join(v.Problems(), "; ")
}

// CartReferences returns the distinct product and variant IDs a cart refers to
func CartReferences(lines []CartLine) (productIDs, variantIDs []uuid.UUID) {
	seenP := make(map[uuid.UUID]bool)
	seenV := make(map[uuid.UUID]bool)
	for _, l := range lines {
		if !seenP[l.ProductID] {
			seenP[l.ProductID] = true
			productIDs = append(productIDs, l.ProductID)
		}
		if !seenV[l.VariantID] {
			seenV[l.VariantID] = true
			variantIDs = append(variantIDs, l.VariantID)
		}
	}
	return productIDs, variantIDs
}
