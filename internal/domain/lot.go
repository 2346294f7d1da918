package domain

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LotKey is the four-part natural identity of a lot. It must be unique within
// a factory scope; duplicates are what ConsolidateLots cleans up.
type LotKey struct {
	ItemCode           string `bson:"itemCode" json:"itemCode"`
	BatchNo            string `bson:"batchNo" json:"batchNo"`
	ProductionOrderRef string `bson:"productionOrderRef" json:"productionOrderRef"`
	LotRef             string `bson:"lotRef" json:"lotRef"`
}

// Normalized returns the key with a trimmed, upper-cased item code
func (k LotKey) Normalized() LotKey {
	k.ItemCode = NormalizeItemCode(k.ItemCode)
	return k
}

func (k LotKey) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", k.ItemCode, k.BatchNo, k.ProductionOrderRef, k.LotRef)
}

// Lot is a distinct, separately tracked quantity of one item
type Lot struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ItemCode           string             `bson:"itemCode" json:"itemCode"`
	ItemName           string             `bson:"itemName,omitempty" json:"itemName,omitempty"`
	BatchNo            string             `bson:"batchNo" json:"batchNo"`
	ProductionOrderRef string             `bson:"productionOrderRef" json:"productionOrderRef"`
	LotRef             string             `bson:"lotRef" json:"lotRef"`
	FactoryID          string             `bson:"factoryId" json:"factoryId"`
	LocationLabel      string             `bson:"locationLabel,omitempty" json:"locationLabel,omitempty"`

	OnHandQuantity        int64 `bson:"onHandQuantity" json:"onHandQuantity"`
	ExportedQuantity      int64 `bson:"exportedQuantity" json:"exportedQuantity"`
	PlannedExportQuantity int64 `bson:"plannedExportQuantity" json:"plannedExportQuantity"`

	ImportedAt time.Time  `bson:"importedAt" json:"importedAt"`
	ExpiresAt  *time.Time `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`
	Supplier   string     `bson:"supplier,omitempty" json:"supplier,omitempty"`
	Notes      string     `bson:"notes,omitempty" json:"notes,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Key returns the lot's natural identity
func (l *Lot) Key() LotKey {
	return LotKey{
		ItemCode:           l.ItemCode,
		BatchNo:            l.BatchNo,
		ProductionOrderRef: l.ProductionOrderRef,
		LotRef:             l.LotRef,
	}
}

// BatchKey returns the sortable tuple for the lot's batch code
func (l *Lot) BatchKey() BatchKey {
	return ParseBatchKey(l.BatchNo)
}

// Validate fails loudly on documents missing required fields instead of
// silently defaulting them to zero values.
func (l *Lot) Validate() error {
	if strings.TrimSpace(l.ItemCode) == "" {
		return fmt.Errorf("lot %s: missing itemCode", l.ID.Hex())
	}
	if strings.TrimSpace(l.FactoryID) == "" {
		return fmt.Errorf("lot %s: missing factoryId", l.Key())
	}
	if l.OnHandQuantity < 0 {
		return fmt.Errorf("lot %s: negative onHandQuantity %d", l.Key(), l.OnHandQuantity)
	}
	return nil
}

// ExportRecord is the ledger entry recording that a quantity left a lot for a
// shipment. Immutable except for deletion by a reversal.
type ExportRecord struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ItemCode           string             `bson:"itemCode" json:"itemCode"`
	BatchNo            string             `bson:"batchNo" json:"batchNo"`
	ProductionOrderRef string             `bson:"productionOrderRef" json:"productionOrderRef"`
	LotRef             string             `bson:"lotRef" json:"lotRef"`
	FactoryID          string             `bson:"factoryId" json:"factoryId"`
	ShipmentID         string             `bson:"shipmentId" json:"shipmentId"`
	PushSeq            int64              `bson:"pushSeq" json:"pushSeq"`

	Quantity  int64 `bson:"quantity" json:"quantity"`
	Cartons   int64 `bson:"cartons" json:"cartons"`
	Remainder int64 `bson:"remainder" json:"remainder"`

	ApprovedAt time.Time `bson:"approvedAt" json:"approvedAt"`
	ApprovedBy string    `bson:"approvedBy" json:"approvedBy"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
}

// Key returns the record's lot identity
func (r *ExportRecord) Key() LotKey {
	return LotKey{
		ItemCode:           r.ItemCode,
		BatchNo:            r.BatchNo,
		ProductionOrderRef: r.ProductionOrderRef,
		LotRef:             r.LotRef,
	}
}

// Validate checks required ledger identity fields
func (r *ExportRecord) Validate() error {
	if strings.TrimSpace(r.ItemCode) == "" {
		return fmt.Errorf("export record %s: missing itemCode", r.ID.Hex())
	}
	if strings.TrimSpace(r.ShipmentID) == "" {
		return fmt.Errorf("export record %s: missing shipmentId", r.Key())
	}
	if r.Quantity <= 0 {
		return fmt.Errorf("export record %s: non-positive quantity %d", r.Key(), r.Quantity)
	}
	return nil
}

// OutboundRecord is one committed allocation line. The approved flag gates
// whether the ledger effect (lot decrement + ExportRecord) has been applied:
// approved == true iff a matching ExportRecord exists and the lot was
// decremented by Quantity exactly once.
type OutboundRecord struct {
	ID                 string `bson:"_id" json:"id"`
	ItemCode           string `bson:"itemCode" json:"itemCode"`
	ItemName           string `bson:"itemName,omitempty" json:"itemName,omitempty"`
	BatchNo            string `bson:"batchNo" json:"batchNo"`
	ProductionOrderRef string `bson:"productionOrderRef" json:"productionOrderRef"`
	LotRef             string `bson:"lotRef" json:"lotRef"`
	FactoryID          string `bson:"factoryId" json:"factoryId"`
	ShipmentID         string `bson:"shipmentId" json:"shipmentId"`
	PushSeq            int64  `bson:"pushSeq" json:"pushSeq"`

	Quantity      int64  `bson:"quantity" json:"quantity"`
	Cartons       int64  `bson:"cartons" json:"cartons"`
	Remainder     int64  `bson:"remainder" json:"remainder"`
	LocationLabel string `bson:"locationLabel,omitempty" json:"locationLabel,omitempty"`
	Notes         string `bson:"notes,omitempty" json:"notes,omitempty"`

	Approved  bool      `bson:"approved" json:"approved"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Key returns the record's lot identity
func (r *OutboundRecord) Key() LotKey {
	return LotKey{
		ItemCode:           r.ItemCode,
		BatchNo:            r.BatchNo,
		ProductionOrderRef: r.ProductionOrderRef,
		LotRef:             r.LotRef,
	}
}

// Validate checks required outbound identity fields
func (r *OutboundRecord) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("outbound record %s: missing id", r.Key())
	}
	if strings.TrimSpace(r.ItemCode) == "" {
		return fmt.Errorf("outbound record %s: missing itemCode", r.ID)
	}
	if strings.TrimSpace(r.ShipmentID) == "" {
		return fmt.Errorf("outbound record %s: missing shipmentId", r.Key())
	}
	if r.Quantity <= 0 {
		return fmt.Errorf("outbound record %s: non-positive quantity %d", r.Key(), r.Quantity)
	}
	return nil
}

// PackingStandard is the configured units-per-carton value for an item
type PackingStandard struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ItemCode       string             `bson:"itemCode" json:"itemCode"`
	FactoryID      string             `bson:"factoryId" json:"factoryId"`
	UnitsPerCarton int64              `bson:"unitsPerCarton" json:"unitsPerCarton"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ComputePackaging derives carton and remainder counts from a quantity and a
// standard packing value. Both are 0 when no standard is configured.
func ComputePackaging(quantity, unitsPerCarton int64) (cartons, remainder int64) {
	if unitsPerCarton <= 0 {
		return 0, 0
	}
	return quantity / unitsPerCarton, quantity % unitsPerCarton
}
