package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	// FindByIDs returns the products found; missing IDs are simply absent
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)
	Save(ctx context.Context, product *Product) error
}

// VariantRepository defines the interface for variant persistence.
// Stock quantities are not written through Save once a variant exists;
// they change only through the inventory ledger.
type VariantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ProductVariant, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]ProductVariant, error)
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]ProductVariant, error)
	Save(ctx context.Context, variant *ProductVariant) error
}

// Snapshot is a point-in-time view of the catalog rows a cart refers to
type Snapshot struct {
	Products map[uuid.UUID]Product
	Variants map[uuid.UUID]ProductVariant
}

// NewSnapshot indexes products and variants by ID
func NewSnapshot(products []Product, variants []ProductVariant) Snapshot {
	s := Snapshot{
		Products: make(map[uuid.UUID]Product, len(products)),
		Variants: make(map[uuid.UUID]ProductVariant, len(variants)),
	}
	for _, p := range products {
		s.Products[p.ID] = p
	}
	for _, v := range variants {
		s.Variants[v.ID] = v
	}
	return s
}

// FindVariant returns the variant of productID matching size and color
func FindVariant(variants []ProductVariant, productID uuid.UUID, size, color string) (*ProductVariant, bool) {
	for i := range variants {
		if variants[i].ProductID == productID && variants[i].Matches(size, color) {
			return &variants[i], true
		}
	}
	return nil, false
}
