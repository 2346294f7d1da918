package domain

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LotRepository defines the interface for lot persistence
type LotRepository interface {
	// FindByItemCode returns lots in a factory scope whose item code can
	// satisfy the demand code (matcher-widened, not exact identity)
	FindByItemCode(ctx context.Context, factoryID, itemCode string) ([]*Lot, error)

	// FindByItemCodes returns lots for any of the demand codes in one query
	FindByItemCodes(ctx context.Context, factoryID string, itemCodes []string) ([]*Lot, error)

	// FindByKey returns the lot with the exact four-part identity
	FindByKey(ctx context.Context, factoryID string, key LotKey) (*Lot, error)

	// FindByFactory returns every lot in a factory scope
	FindByFactory(ctx context.Context, factoryID string) ([]*Lot, error)

	// DecrementOnHand atomically decrements a lot's on-hand quantity. The
	// update matches only when the current on-hand is at least quantity;
	// ErrStaleAllocation is returned otherwise so concurrent approvals of
	// overlapping previews cannot drive a lot negative.
	DecrementOnHand(ctx context.Context, factoryID string, key LotKey, quantity int64) error

	// IncrementOnHand adds quantity back to a lot. ErrLotNotFound when the
	// lot no longer exists.
	IncrementOnHand(ctx context.Context, factoryID string, key LotKey, quantity int64) error

	// ReplaceAll persists a consolidated lot set: absorbed duplicates are
	// deleted and survivors upserted, in batched writes
	ReplaceAll(ctx context.Context, factoryID string, merged []*Lot, removedIDs []string) error
}

// ExportRecordRepository defines the interface for the export ledger
type ExportRecordRepository interface {
	Save(ctx context.Context, record *ExportRecord) error

	// FindByIdentity locates the ledger entry for one committed line
	FindByIdentity(ctx context.Context, factoryID string, key LotKey, shipmentID string, pushSeq int64) (*ExportRecord, error)

	FindByShipment(ctx context.Context, factoryID, shipmentID string) ([]*ExportRecord, error)

	Delete(ctx context.Context, id primitive.ObjectID) error
}

// OutboundRecordRepository defines the interface for the outbound ledger
type OutboundRecordRepository interface {
	Save(ctx context.Context, record *OutboundRecord) error
	FindByID(ctx context.Context, id string) (*OutboundRecord, error)
	FindByShipment(ctx context.Context, factoryID, shipmentID string) ([]*OutboundRecord, error)
	SetApproved(ctx context.Context, id string, approved bool) error

	// UpdateQuantity edits an unapproved row's quantity and packaging
	UpdateQuantity(ctx context.Context, id string, quantity, cartons, remainder int64) error
}

// ShipmentDemandRepository sources the demand aggregation input
type ShipmentDemandRepository interface {
	// FindLines returns a shipment's line items filtered by status
	// (all statuses when status is empty)
	FindLines(ctx context.Context, factoryID, shipmentID, status string) ([]ShipmentLine, error)
}

// PackingStandardRepository supplies configured units-per-carton values.
// Replaces the ambient item-code cache with an explicit collaborator.
type PackingStandardRepository interface {
	// FindByItemCode returns nil (not an error) when no standard is configured
	FindByItemCode(ctx context.Context, factoryID, itemCode string) (*PackingStandard, error)
}

// SequenceRepository allocates monotonic push sequence numbers per shipment
type SequenceRepository interface {
	NextPushSeq(ctx context.Context, factoryID, shipmentID string) (int64, error)
}

// Transactor runs a function inside one atomic store transaction. Every
// per-line reservation or reversal effect executes through it.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
