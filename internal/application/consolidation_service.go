package application

import (
	"context"
	"fmt"

	"github.com/wms-platform/export-service/internal/domain"
	"github.com/wms-platform/export-service/pkg/cloudevents"
	"github.com/wms-platform/export-service/pkg/kafka"
	"github.com/wms-platform/export-service/pkg/logging"
	"github.com/wms-platform/export-service/pkg/metrics"
	"github.com/wms-platform/export-service/pkg/outbox"
)

// ConsolidationService merges duplicate lot rows within a factory scope.
// Dry runs preview the merge; applying it rewrites the lot collection in one
// transaction.
type ConsolidationService struct {
	lots         domain.LotRepository
	outboxRepo   outbox.Repository
	eventFactory *cloudevents.EventFactory
	transactor   domain.Transactor
	metrics      *metrics.Metrics
	logger       *logging.Logger
}

// NewConsolidationService creates a new ConsolidationService
func NewConsolidationService(
	lots domain.LotRepository,
	outboxRepo outbox.Repository,
	eventFactory *cloudevents.EventFactory,
	transactor domain.Transactor,
	metrics *metrics.Metrics,
	logger *logging.Logger,
) *ConsolidationService {
	return &ConsolidationService{
		lots:         lots,
		outboxRepo:   outboxRepo,
		eventFactory: eventFactory,
		transactor:   transactor,
		metrics:      metrics,
		logger:       logger.WithComponent("consolidation"),
	}
}

// Consolidate merges duplicate lots for a factory. With DryRun set the merged
// view is returned without touching storage.
func (s *ConsolidationService) Consolidate(ctx context.Context, cmd ConsolidateCommand) (*ConsolidationDTO, error) {
	lots, err := s.lots.FindByFactory(ctx, cmd.FactoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lots: %w", err)
	}

	granularity := domain.KeyWithLocation
	if cmd.AcrossLocations {
		granularity = domain.KeyAcrossLocations
	}
	result := domain.ConsolidateLots(lots, granularity)

	dto := &ConsolidationDTO{
		FactoryID:    cmd.FactoryID,
		DryRun:       cmd.DryRun,
		GroupsMerged: result.GroupsMerged,
		RowsRemoved:  result.RowsRemoved,
		Merged:       ToLotDTOs(result.Merged),
	}

	if cmd.DryRun || result.RowsRemoved == 0 {
		return dto, nil
	}

	// rows that were absorbed into a survivor get deleted; survivors keep
	// their original _id so the replace is idempotent
	survivors := make(map[string]struct{}, len(result.Merged))
	for _, lot := range result.Merged {
		if !lot.ID.IsZero() {
			survivors[lot.ID.Hex()] = struct{}{}
		}
	}
	removedIDs := make([]string, 0, result.RowsRemoved)
	for _, lot := range lots {
		if lot.ID.IsZero() {
			continue
		}
		if _, ok := survivors[lot.ID.Hex()]; !ok {
			removedIDs = append(removedIDs, lot.ID.Hex())
		}
	}

	err = s.transactor.InTransaction(ctx, func(txCtx context.Context) error {
		if err := s.lots.ReplaceAll(txCtx, cmd.FactoryID, result.Merged, removedIDs); err != nil {
			return err
		}
		event := s.eventFactory.CreateLotsConsolidatedEvent(txCtx, cmd.FactoryID, result.GroupsMerged, result.RowsRemoved)
		outboxEvent, err := outbox.NewOutboxEventFromCloudEvent(cmd.FactoryID, "factory", kafka.TopicForEventType(event.Type), event)
		if err != nil {
			return err
		}
		return s.outboxRepo.Save(txCtx, outboxEvent)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to apply consolidation: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordLotsConsolidated(result.RowsRemoved)
	}
	s.logger.Info("Consolidated lots",
		"factoryId", cmd.FactoryID,
		"groupsMerged", result.GroupsMerged,
		"rowsRemoved", result.RowsRemoved,
	)

	return dto, nil
}
