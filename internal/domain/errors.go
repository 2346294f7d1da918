package domain

import (
	"errors"
	"fmt"
)

// Errors
var (
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrStaleAllocation    = errors.New("stale allocation: lot on-hand changed since preview")
	ErrMissingLedgerEntry = errors.New("missing ledger entry")
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrLotNotFound        = errors.New("lot not found")
	ErrOutboundNotFound   = errors.New("outbound record not found")
	ErrShipmentNotFound   = errors.New("shipment not found")
	ErrAlreadyApproved    = errors.New("outbound record already approved")
	ErrNotApproved        = errors.New("outbound record not approved")
)

// LineError identifies the allocation line a persistence failure belongs to.
// Nothing rolls back sibling lines automatically, so the caller needs enough
// identity to reconcile by hand.
type LineError struct {
	ItemCode           string
	BatchNo            string
	ProductionOrderRef string
	LotRef             string
	ShipmentID         string
	Err                error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line item=%s batch=%s order=%s lot=%s shipment=%s: %v",
		e.ItemCode, e.BatchNo, e.ProductionOrderRef, e.LotRef, e.ShipmentID, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// NewLineError wraps err with the identity of the failing line
func NewLineError(key LotKey, shipmentID string, err error) *LineError {
	return &LineError{
		ItemCode:           key.ItemCode,
		BatchNo:            key.BatchNo,
		ProductionOrderRef: key.ProductionOrderRef,
		LotRef:             key.LotRef,
		ShipmentID:         shipmentID,
		Err:                err,
	}
}
