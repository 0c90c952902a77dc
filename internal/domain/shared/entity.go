package shared

import (
	"time"

	"github.com/google/uuid"
)

// Entity is anything with an identity and audit timestamps
type Entity interface {
	GetID() uuid.UUID
	GetCreatedAt() time.Time
	GetUpdatedAt() time.Time
}

// BaseEntity holds the identity and timestamps embedded by products,
// variants, orders, reservations, movements and return requests.
// Domain code moves UpdatedAt through Touch.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity creates an entity with a fresh ID, stamped now
func NewBaseEntity() BaseEntity {
	return NewBaseEntityAt(time.Now())
}

// NewBaseEntityAt creates an entity with a fresh ID, stamped at t
func NewBaseEntityAt(t time.Time) BaseEntity {
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: t,
		UpdatedAt: t,
	}
}

func (e *BaseEntity) GetID() uuid.UUID        { return e.ID }
func (e *BaseEntity) GetCreatedAt() time.Time { return e.CreatedAt }
func (e *BaseEntity) GetUpdatedAt() time.Time { return e.UpdatedAt }

// Touch records a change at t. A clock running behind CreatedAt is
// clamped so UpdatedAt never precedes creation.
func (e *BaseEntity) Touch(t time.Time) {
	if t.Before(e.CreatedAt) {
		t = e.CreatedAt
	}
	e.UpdatedAt = t
}
