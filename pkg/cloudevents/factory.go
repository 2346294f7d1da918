package cloudevents

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventFactory creates CloudEvents for export domain events
type EventFactory struct {
	source string
}

// NewEventFactory creates a new EventFactory for a specific source
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source}
}

// CreateEvent creates a new WMSCloudEvent with the given parameters
func (f *EventFactory) CreateEvent(
	ctx context.Context,
	eventType string,
	subject string,
	data interface{},
) *WMSCloudEvent {
	return &WMSCloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            time.Now().UTC(),
		DataContentType: "application/json",
		Data:            data,
	}
}

// CreateAllocationBuiltEvent creates an AllocationBuilt event
func (f *EventFactory) CreateAllocationBuiltEvent(
	ctx context.Context,
	shipmentID string,
	factoryID string,
	lines []AllocationLine,
	shortageLines int,
) *WMSCloudEvent {
	data := AllocationBuiltData{
		ShipmentID:    shipmentID,
		FactoryID:     factoryID,
		Lines:         lines,
		ShortageLines: shortageLines,
	}
	eventType := AllocationBuilt
	if shortageLines > 0 {
		eventType = AllocationShortage
	}
	event := f.CreateEvent(ctx, eventType, "shipment/"+shipmentID, data)
	event.FactoryID = factoryID
	event.ShipmentID = shipmentID
	return event
}

// CreateReservationCommittedEvent creates a ReservationCommitted event
func (f *EventFactory) CreateReservationCommittedEvent(
	ctx context.Context,
	shipmentID string,
	outboundID string,
	factoryID string,
	lines []AllocationLine,
) *WMSCloudEvent {
	data := ReservationCommittedData{
		ShipmentID: shipmentID,
		OutboundID: outboundID,
		FactoryID:  factoryID,
		Lines:      lines,
	}
	event := f.CreateEvent(ctx, ReservationCommitted, "outbound/"+outboundID, data)
	event.FactoryID = factoryID
	event.ShipmentID = shipmentID
	return event
}

// CreateReservationReversedEvent creates a ReservationReversed event
func (f *EventFactory) CreateReservationReversedEvent(
	ctx context.Context,
	outboundID string,
	factoryID string,
	lines []AllocationLine,
) *WMSCloudEvent {
	data := ReservationReversedData{
		OutboundID: outboundID,
		FactoryID:  factoryID,
		Lines:      lines,
	}
	event := f.CreateEvent(ctx, ReservationReversed, "outbound/"+outboundID, data)
	event.FactoryID = factoryID
	return event
}

// CreateOutboundApprovedEvent creates an OutboundApproved event
func (f *EventFactory) CreateOutboundApprovedEvent(
	ctx context.Context,
	outboundID string,
	shipmentID string,
	factoryID string,
	pushSeq int64,
	lineCount int,
) *WMSCloudEvent {
	data := OutboundApprovedData{
		OutboundID: outboundID,
		ShipmentID: shipmentID,
		FactoryID:  factoryID,
		PushSeq:    pushSeq,
		LineCount:  lineCount,
	}
	event := f.CreateEvent(ctx, OutboundApproved, "outbound/"+outboundID, data)
	event.FactoryID = factoryID
	event.ShipmentID = shipmentID
	return event
}

// CreateLotsConsolidatedEvent creates a LotsConsolidated event
func (f *EventFactory) CreateLotsConsolidatedEvent(
	ctx context.Context,
	factoryID string,
	groupsMerged int,
	rowsRemoved int,
) *WMSCloudEvent {
	data := LotsConsolidatedData{
		FactoryID:    factoryID,
		GroupsMerged: groupsMerged,
		RowsRemoved:  rowsRemoved,
	}
	event := f.CreateEvent(ctx, LotsConsolidated, "factory/"+factoryID, data)
	event.FactoryID = factoryID
	return event
}

// WithCorrelation sets the correlation ID and returns the event
func (e *WMSCloudEvent) WithCorrelation(correlationID string) *WMSCloudEvent {
	e.CorrelationID = correlationID
	return e
}
