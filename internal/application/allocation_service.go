package application

import (
	"context"
	"fmt"

	"github.com/wms-platform/export-service/internal/domain"
	"github.com/wms-platform/export-service/pkg/cloudevents"
	"github.com/wms-platform/export-service/pkg/errors"
	"github.com/wms-platform/export-service/pkg/kafka"
	"github.com/wms-platform/export-service/pkg/logging"
	"github.com/wms-platform/export-service/pkg/metrics"
	"github.com/wms-platform/export-service/pkg/outbox"
)

// AllocationService builds FIFO allocation previews and answers
// stock-sufficiency queries
type AllocationService struct {
	lots         domain.LotRepository
	shipments    domain.ShipmentDemandRepository
	outboxRepo   outbox.Repository
	eventFactory *cloudevents.EventFactory
	metrics      *metrics.Metrics
	logger       *logging.Logger
}

// NewAllocationService creates a new AllocationService
func NewAllocationService(
	lots domain.LotRepository,
	shipments domain.ShipmentDemandRepository,
	outboxRepo outbox.Repository,
	eventFactory *cloudevents.EventFactory,
	metrics *metrics.Metrics,
	logger *logging.Logger,
) *AllocationService {
	return &AllocationService{
		lots:         lots,
		shipments:    shipments,
		outboxRepo:   outboxRepo,
		eventFactory: eventFactory,
		metrics:      metrics,
		logger:       logger.WithComponent("allocation"),
	}
}

// GetDemand aggregates a shipment's line items into per-item demand
func (s *AllocationService) GetDemand(ctx context.Context, query GetDemandQuery) (*DemandDTO, error) {
	lines, err := s.shipments.FindLines(ctx, query.FactoryID, query.ShipmentID, query.Status)
	if err != nil {
		s.logger.Error("Failed to load shipment lines", "shipmentId", query.ShipmentID, "error", err)
		return nil, fmt.Errorf("failed to load shipment lines: %w", err)
	}
	if len(lines) == 0 {
		return nil, errors.ErrNotFoundWithID("shipment", query.ShipmentID)
	}

	return &DemandDTO{
		ShipmentID: query.ShipmentID,
		FactoryID:  query.FactoryID,
		Items:      domain.AggregateDemand(lines),
		LineCount:  len(lines),
	}, nil
}

// BuildAllocation computes the FIFO allocation preview for a shipment.
// Shortages are returned alongside the partial lines, never as an error;
// the caller decides whether to block approval.
func (s *AllocationService) BuildAllocation(ctx context.Context, cmd BuildAllocationCommand) (*AllocationPreviewDTO, error) {
	lines, err := s.shipments.FindLines(ctx, cmd.FactoryID, cmd.ShipmentID, domain.ShipmentLineStatusOpen)
	if err != nil {
		s.logger.Error("Failed to load shipment lines", "shipmentId", cmd.ShipmentID, "error", err)
		return nil, fmt.Errorf("failed to load shipment lines: %w", err)
	}
	if len(lines) == 0 {
		return nil, errors.ErrNotFoundWithID("shipment", cmd.ShipmentID)
	}

	demand := domain.AggregateDemand(lines)

	itemCodes := make([]string, 0, len(demand))
	for code := range demand {
		itemCodes = append(itemCodes, code)
	}

	lots, err := s.lots.FindByItemCodes(ctx, cmd.FactoryID, itemCodes)
	if err != nil {
		s.logger.Error("Failed to load lots", "shipmentId", cmd.ShipmentID, "error", err)
		return nil, fmt.Errorf("failed to load lots: %w", err)
	}

	result := domain.Allocate(demand, lots, cmd.FactoryID)

	if s.metrics != nil {
		s.metrics.RecordAllocationBuilt(result.FullyCovered())
		for range result.Shortages {
			s.metrics.RecordAllocationShortage()
		}
	}

	s.publishAllocationEvent(ctx, cmd, result)

	s.logger.Info("Built allocation preview",
		"shipmentId", cmd.ShipmentID,
		"factoryId", cmd.FactoryID,
		"lines", len(result.Lines),
		"shortages", len(result.Shortages),
	)

	return ToAllocationPreviewDTO(cmd.ShipmentID, cmd.FactoryID, result), nil
}

// publishAllocationEvent queues the allocation outcome for downstream
// consumers. A shortage flips the event type so planners can alert on it.
// The preview itself never fails on a publish problem.
func (s *AllocationService) publishAllocationEvent(ctx context.Context, cmd BuildAllocationCommand, result domain.AllocationResult) {
	if s.outboxRepo == nil || s.eventFactory == nil {
		return
	}

	eventLines := make([]cloudevents.AllocationLine, 0, len(result.Lines))
	for _, line := range result.Lines {
		eventLines = append(eventLines, cloudevents.AllocationLine{
			ItemCode:   line.ItemCode,
			BatchNo:    line.BatchNo,
			LocationID: line.LocationLabel,
			Quantity:   line.AllocatedQuantity,
		})
	}

	event := s.eventFactory.CreateAllocationBuiltEvent(ctx, cmd.ShipmentID, cmd.FactoryID, eventLines, len(result.Shortages))
	outboxEvent, err := outbox.NewOutboxEventFromCloudEvent(cmd.ShipmentID, "shipment", kafka.TopicForEventType(event.Type), event)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to build allocation event", "shipmentId", cmd.ShipmentID)
		return
	}
	if err := s.outboxRepo.Save(ctx, outboxEvent); err != nil {
		s.logger.WithError(err).Warn("Failed to queue allocation event", "shipmentId", cmd.ShipmentID)
	}
}

// CheckAvailability runs the matcher-widened sufficiency pre-check for one
// item code. Uses the same matcher as the allocator so both agree.
func (s *AllocationService) CheckAvailability(ctx context.Context, query AvailabilityQuery) (*AvailabilityDTO, error) {
	lots, err := s.lots.FindByItemCode(ctx, query.FactoryID, query.ItemCode)
	if err != nil {
		s.logger.Error("Failed to load lots", "itemCode", query.ItemCode, "error", err)
		return nil, fmt.Errorf("failed to load lots: %w", err)
	}

	available := domain.AvailableQuantity(query.ItemCode, lots, query.FactoryID)

	dto := &AvailabilityDTO{
		ItemCode:   domain.NormalizeItemCode(query.ItemCode),
		FactoryID:  query.FactoryID,
		Available:  available,
		Required:   query.Required,
		Sufficient: available >= query.Required,
	}
	if !dto.Sufficient {
		dto.Shortfall = query.Required - available
	}
	return dto, nil
}

// ListLots returns lots in a factory scope, optionally narrowed by item code
func (s *AllocationService) ListLots(ctx context.Context, query ListLotsQuery) ([]LotDTO, error) {
	var (
		lots []*domain.Lot
		err  error
	)
	if query.ItemCode != "" {
		lots, err = s.lots.FindByItemCode(ctx, query.FactoryID, query.ItemCode)
	} else {
		lots, err = s.lots.FindByFactory(ctx, query.FactoryID)
	}
	if err != nil {
		s.logger.Error("Failed to list lots", "factoryId", query.FactoryID, "error", err)
		return nil, fmt.Errorf("failed to list lots: %w", err)
	}

	return ToLotDTOs(lots), nil
}
