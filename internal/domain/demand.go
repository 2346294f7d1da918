package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ShipmentLine is one line item of a shipment as stored in the demand collection
type ShipmentLine struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ShipmentID string             `bson:"shipmentId" json:"shipmentId"`
	FactoryID  string             `bson:"factoryId" json:"factoryId"`
	ItemCode   string             `bson:"itemCode" json:"itemCode"`
	ItemName   string             `bson:"itemName,omitempty" json:"itemName,omitempty"`
	Quantity   int64              `bson:"quantity" json:"quantity"`
	Status     string             `bson:"status" json:"status"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

// Shipment line statuses sourced by the demand aggregation
const (
	ShipmentLineStatusOpen      = "open"
	ShipmentLineStatusAllocated = "allocated"
	ShipmentLineStatusShipped   = "shipped"
)

// AggregateDemand collapses a shipment's line items into per-item required
// quantities. Item codes are trimmed and upper-cased before grouping, repeated
// codes sum, and non-positive quantities are dropped.
func AggregateDemand(lines []ShipmentLine) map[string]int64 {
	demand := make(map[string]int64, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		code := NormalizeItemCode(line.ItemCode)
		if code == "" {
			continue
		}
		demand[code] += line.Quantity
	}
	return demand
}
