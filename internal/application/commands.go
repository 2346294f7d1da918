package application

// BuildAllocationCommand asks for a FIFO allocation preview for a shipment
type BuildAllocationCommand struct {
	ShipmentID string
	FactoryID  string
}

// AllocationLineInput is one preview line the user selected for commit
type AllocationLineInput struct {
	ItemCode           string `json:"itemCode" binding:"required"`
	ItemName           string `json:"itemName"`
	BatchNo            string `json:"batchNo"`
	ProductionOrderRef string `json:"productionOrderRef"`
	LotRef             string `json:"lotRef"`
	LocationLabel      string `json:"locationLabel"`
	AllocatedQuantity  int64  `json:"allocatedQuantity" binding:"required,gt=0"`
	Selected           bool   `json:"selected"`
	Notes              string `json:"notes"`
}

// CommitReservationCommand commits the selected allocation lines of a shipment
type CommitReservationCommand struct {
	ShipmentID string
	FactoryID  string
	ActorID    string
	Lines      []AllocationLineInput
}

// ReverseReservationCommand undoes a previously committed outbound record
type ReverseReservationCommand struct {
	OutboundID string
	FactoryID  string
	ActorID    string
}

// UpdateOutboundQuantityCommand edits an unapproved outbound row's quantity
type UpdateOutboundQuantityCommand struct {
	OutboundID string
	FactoryID  string
	Quantity   int64
}

// ConsolidateCommand merges duplicate lot rows within a factory scope
type ConsolidateCommand struct {
	FactoryID       string
	AcrossLocations bool
	DryRun          bool
}

// GetDemandQuery aggregates a shipment's line items into per-item demand
type GetDemandQuery struct {
	ShipmentID string
	FactoryID  string
	Status     string
}

// AvailabilityQuery checks whether matched lots can cover a required quantity
type AvailabilityQuery struct {
	FactoryID string
	ItemCode  string
	Required  int64
}

// ListLotsQuery lists lots in a factory scope, optionally narrowed by item code
type ListLotsQuery struct {
	FactoryID string
	ItemCode  string
}

// ListOutboundQuery lists outbound rows for a shipment
type ListOutboundQuery struct {
	FactoryID  string
	ShipmentID string
}
