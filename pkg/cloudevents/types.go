package cloudevents

import (
	"time"
)

// EventType constants for export domain events
const (
	// Allocation events
	AllocationBuilt    = "wms.export.allocation.built"
	AllocationShortage = "wms.export.allocation.shortage"

	// Reservation events
	ReservationCommitted = "wms.export.reservation.committed"
	ReservationReversed  = "wms.export.reservation.reversed"

	// Outbound events
	OutboundApproved = "wms.export.outbound.approved"
	OutboundAmended  = "wms.export.outbound.amended"

	// Lot events
	LotsConsolidated = "wms.export.lots.consolidated"
	LotAdjusted      = "wms.export.lot.adjusted"
)

// Source constants for event sources
const (
	SourceExport = "/wms/export-service"
)

// WMSCloudEvent represents a CloudEvents v1.0 compliant event
type WMSCloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	Type            string      `json:"type"`
	Source          string      `json:"source"`
	Subject         string      `json:"subject,omitempty"`
	ID              string      `json:"id"`
	Time            time.Time   `json:"time"`
	DataContentType string      `json:"datacontenttype"`
	Data            interface{} `json:"data"`

	// WMS-specific extensions
	FactoryID     string `json:"wmsfactoryid,omitempty"`
	CorrelationID string `json:"wmscorrelationid,omitempty"`
	ShipmentID    string `json:"wmsshipmentid,omitempty"`
}

// AllocationBuiltData is the payload for AllocationBuilt events
type AllocationBuiltData struct {
	ShipmentID    string           `json:"shipmentId"`
	FactoryID     string           `json:"factoryId"`
	Lines         []AllocationLine `json:"lines"`
	ShortageLines int              `json:"shortageLines"`
}

// AllocationLine is a single lot draw within an allocation event
type AllocationLine struct {
	ItemCode   string `json:"itemCode"`
	BatchNo    string `json:"batchNo"`
	LocationID string `json:"locationId,omitempty"`
	Quantity   int64  `json:"quantity"`
}

// ReservationCommittedData is the payload for ReservationCommitted events
type ReservationCommittedData struct {
	ShipmentID string           `json:"shipmentId"`
	OutboundID string           `json:"outboundId"`
	FactoryID  string           `json:"factoryId"`
	Lines      []AllocationLine `json:"lines"`
}

// ReservationReversedData is the payload for ReservationReversed events
type ReservationReversedData struct {
	OutboundID string           `json:"outboundId"`
	FactoryID  string           `json:"factoryId"`
	Lines      []AllocationLine `json:"lines"`
}

// OutboundApprovedData is the payload for OutboundApproved events
type OutboundApprovedData struct {
	OutboundID string `json:"outboundId"`
	ShipmentID string `json:"shipmentId"`
	FactoryID  string `json:"factoryId"`
	PushSeq    int64  `json:"pushSeq"`
	LineCount  int    `json:"lineCount"`
}

// LotsConsolidatedData is the payload for LotsConsolidated events
type LotsConsolidatedData struct {
	FactoryID    string `json:"factoryId"`
	GroupsMerged int    `json:"groupsMerged"`
	RowsRemoved  int    `json:"rowsRemoved"`
}

// LotAdjustedData is the payload for LotAdjusted events
type LotAdjustedData struct {
	ItemCode    string `json:"itemCode"`
	BatchNo     string `json:"batchNo"`
	FactoryID   string `json:"factoryId"`
	PreviousQty int64  `json:"previousQty"`
	NewQty      int64  `json:"newQty"`
	Reason      string `json:"reason"`
}
