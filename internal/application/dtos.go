package application

import "time"

// DemandDTO is the aggregated per-item demand of a shipment
type DemandDTO struct {
	ShipmentID string           `json:"shipmentId"`
	FactoryID  string           `json:"factoryId"`
	Items      map[string]int64 `json:"items"`
	LineCount  int              `json:"lineCount"`
}

// AllocationLineDTO is one lot draw in an allocation preview
type AllocationLineDTO struct {
	ItemCode           string `json:"itemCode"`
	ItemName           string `json:"itemName,omitempty"`
	BatchNo            string `json:"batchNo"`
	ProductionOrderRef string `json:"productionOrderRef"`
	LotRef             string `json:"lotRef"`
	LocationLabel      string `json:"locationLabel,omitempty"`
	AllocatedQuantity  int64  `json:"allocatedQuantity"`
	Selected           bool   `json:"selected"`
	Notes              string `json:"notes,omitempty"`
}

// AllocationPreviewDTO is a pending-approval allocation
type AllocationPreviewDTO struct {
	ShipmentID   string              `json:"shipmentId"`
	FactoryID    string              `json:"factoryId"`
	Lines        []AllocationLineDTO `json:"lines"`
	Shortages    map[string]int64    `json:"shortages,omitempty"`
	FullyCovered bool                `json:"fullyCovered"`
}

// CommitLineResultDTO reports the outcome of one committed line. Failed lines
// do not roll back committed siblings; the caller reconciles from here.
type CommitLineResultDTO struct {
	ItemCode           string `json:"itemCode"`
	BatchNo            string `json:"batchNo"`
	ProductionOrderRef string `json:"productionOrderRef"`
	LotRef             string `json:"lotRef"`
	Quantity           int64  `json:"quantity"`
	OutboundID         string `json:"outboundId,omitempty"`
	PushSeq            int64  `json:"pushSeq,omitempty"`
	Committed          bool   `json:"committed"`
	Error              string `json:"error,omitempty"`
}

// CommitResultDTO reports a full reservation commit
type CommitResultDTO struct {
	ShipmentID string                `json:"shipmentId"`
	FactoryID  string                `json:"factoryId"`
	Lines      []CommitLineResultDTO `json:"lines"`
	Committed  int                   `json:"committed"`
	Failed     int                   `json:"failed"`
}

// ReversalResultDTO reports a reversal of one outbound record
type ReversalResultDTO struct {
	OutboundID  string `json:"outboundId"`
	ItemCode    string `json:"itemCode"`
	BatchNo     string `json:"batchNo"`
	Quantity    int64  `json:"quantity"`
	LotRestored bool   `json:"lotRestored"`
}

// LotDTO represents a lot in responses
type LotDTO struct {
	ID                    string     `json:"id,omitempty"`
	ItemCode              string     `json:"itemCode"`
	ItemName              string     `json:"itemName,omitempty"`
	BatchNo               string     `json:"batchNo"`
	ProductionOrderRef    string     `json:"productionOrderRef"`
	LotRef                string     `json:"lotRef"`
	FactoryID             string     `json:"factoryId"`
	LocationLabel         string     `json:"locationLabel,omitempty"`
	OnHandQuantity        int64      `json:"onHandQuantity"`
	ExportedQuantity      int64      `json:"exportedQuantity"`
	PlannedExportQuantity int64      `json:"plannedExportQuantity"`
	ImportedAt            time.Time  `json:"importedAt"`
	ExpiresAt             *time.Time `json:"expiresAt,omitempty"`
	Supplier              string     `json:"supplier,omitempty"`
	Notes                 string     `json:"notes,omitempty"`
}

// OutboundRecordDTO represents an outbound ledger row
type OutboundRecordDTO struct {
	ID                 string    `json:"id"`
	ItemCode           string    `json:"itemCode"`
	ItemName           string    `json:"itemName,omitempty"`
	BatchNo            string    `json:"batchNo"`
	ProductionOrderRef string    `json:"productionOrderRef"`
	LotRef             string    `json:"lotRef"`
	ShipmentID         string    `json:"shipmentId"`
	PushSeq            int64     `json:"pushSeq"`
	Quantity           int64     `json:"quantity"`
	Cartons            int64     `json:"cartons"`
	Remainder          int64     `json:"remainder"`
	LocationLabel      string    `json:"locationLabel,omitempty"`
	Approved           bool      `json:"approved"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// AvailabilityDTO is the result of a stock-sufficiency pre-check
type AvailabilityDTO struct {
	ItemCode   string `json:"itemCode"`
	FactoryID  string `json:"factoryId"`
	Available  int64  `json:"available"`
	Required   int64  `json:"required,omitempty"`
	Sufficient bool   `json:"sufficient"`
	Shortfall  int64  `json:"shortfall,omitempty"`
}

// ConsolidationDTO reports a consolidation run
type ConsolidationDTO struct {
	FactoryID    string   `json:"factoryId"`
	DryRun       bool     `json:"dryRun"`
	GroupsMerged int      `json:"groupsMerged"`
	RowsRemoved  int      `json:"rowsRemoved"`
	Merged       []LotDTO `json:"merged"`
}
