package application

import (
	"context"
	goerrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wms-platform/export-service/internal/domain"
	"github.com/wms-platform/export-service/pkg/cloudevents"
	"github.com/wms-platform/export-service/pkg/errors"
	"github.com/wms-platform/export-service/pkg/kafka"
	"github.com/wms-platform/export-service/pkg/logging"
	"github.com/wms-platform/export-service/pkg/metrics"
	"github.com/wms-platform/export-service/pkg/outbox"
)

// ReservationService applies approved allocations to the ledger and reverses
// them. Each line's effects (outbound row, lot decrement, export record,
// outbox event) run inside one store transaction; the set of lines is
// sequenced best effort and partial application across lines is surfaced in
// the result, never masked.
type ReservationService struct {
	lots         domain.LotRepository
	exports      domain.ExportRecordRepository
	outbound     domain.OutboundRecordRepository
	packing      domain.PackingStandardRepository
	sequences    domain.SequenceRepository
	outboxRepo   outbox.Repository
	eventFactory *cloudevents.EventFactory
	transactor   domain.Transactor
	metrics      *metrics.Metrics
	logger       *logging.Logger
}

// NewReservationService creates a new ReservationService
func NewReservationService(
	lots domain.LotRepository,
	exports domain.ExportRecordRepository,
	outboundRepo domain.OutboundRecordRepository,
	packing domain.PackingStandardRepository,
	sequences domain.SequenceRepository,
	outboxRepo outbox.Repository,
	eventFactory *cloudevents.EventFactory,
	transactor domain.Transactor,
	metrics *metrics.Metrics,
	logger *logging.Logger,
) *ReservationService {
	return &ReservationService{
		lots:         lots,
		exports:      exports,
		outbound:     outboundRepo,
		packing:      packing,
		sequences:    sequences,
		outboxRepo:   outboxRepo,
		eventFactory: eventFactory,
		transactor:   transactor,
		metrics:      metrics,
		logger:       logger.WithComponent("reservation"),
	}
}

// CommitReservation commits the selected allocation lines of a shipment.
// The pre-check rejects the whole commit without mutation when any selected
// line exceeds its lot's current on-hand; after that, each line commits in
// its own transaction and a failed line aborts only itself.
func (s *ReservationService) CommitReservation(ctx context.Context, cmd CommitReservationCommand) (*CommitResultDTO, error) {
	selected := make([]domain.AllocationLine, 0, len(cmd.Lines))
	for _, input := range cmd.Lines {
		if input.Selected {
			selected = append(selected, toDomainLine(input))
		}
	}
	if len(selected) == 0 {
		return nil, errors.ErrValidation("no selected allocation lines")
	}

	// Stale-allocation pre-check: stock may have moved since the preview
	// was built. The conditional decrement inside each line's transaction
	// still guards the residual window between this snapshot and commit.
	for _, line := range selected {
		lot, err := s.lots.FindByKey(ctx, cmd.FactoryID, line.Key())
		if err != nil {
			return nil, fmt.Errorf("failed to load lot %s: %w", line.Key(), err)
		}
		if lot == nil || lot.OnHandQuantity < line.AllocatedQuantity {
			s.logger.Warn("Stale allocation rejected",
				"shipmentId", cmd.ShipmentID,
				"lot", line.Key().String(),
				"requested", line.AllocatedQuantity,
			)
			return nil, errors.MapDomainError(domain.NewLineError(line.Key(), cmd.ShipmentID, domain.ErrStaleAllocation))
		}
	}

	result := &CommitResultDTO{
		ShipmentID: cmd.ShipmentID,
		FactoryID:  cmd.FactoryID,
		Lines:      make([]CommitLineResultDTO, 0, len(selected)),
	}

	for _, line := range selected {
		lineResult := CommitLineResultDTO{
			ItemCode:           line.ItemCode,
			BatchNo:            line.BatchNo,
			ProductionOrderRef: line.ProductionOrderRef,
			LotRef:             line.LotRef,
			Quantity:           line.AllocatedQuantity,
		}

		outboundID, pushSeq, err := s.commitLine(ctx, cmd, line)
		if err != nil {
			lineResult.Error = err.Error()
			result.Failed++
			if s.metrics != nil {
				s.metrics.RecordReservationCommitted(false)
			}
			s.logger.WithError(err).Error("Failed to commit allocation line",
				"shipmentId", cmd.ShipmentID,
				"lot", line.Key().String(),
			)
		} else {
			lineResult.Committed = true
			lineResult.OutboundID = outboundID
			lineResult.PushSeq = pushSeq
			result.Committed++
			if s.metrics != nil {
				s.metrics.RecordReservationCommitted(true)
			}
		}

		result.Lines = append(result.Lines, lineResult)
	}

	s.logger.Info("Reservation commit finished",
		"shipmentId", cmd.ShipmentID,
		"factoryId", cmd.FactoryID,
		"committed", result.Committed,
		"failed", result.Failed,
	)

	return result, nil
}

// commitLine applies one allocation line inside a single transaction
func (s *ReservationService) commitLine(ctx context.Context, cmd CommitReservationCommand, line domain.AllocationLine) (string, int64, error) {
	key := line.Key().Normalized()
	outboundID := uuid.New().String()
	var pushSeq int64

	err := s.transactor.InTransaction(ctx, func(txCtx context.Context) error {
		seq, err := s.sequences.NextPushSeq(txCtx, cmd.FactoryID, cmd.ShipmentID)
		if err != nil {
			return domain.NewLineError(key, cmd.ShipmentID, err)
		}
		pushSeq = seq

		var unitsPerCarton int64
		standard, err := s.packing.FindByItemCode(txCtx, cmd.FactoryID, key.ItemCode)
		if err != nil {
			return domain.NewLineError(key, cmd.ShipmentID, err)
		}
		if standard != nil {
			unitsPerCarton = standard.UnitsPerCarton
		}
		cartons, remainder := domain.ComputePackaging(line.AllocatedQuantity, unitsPerCarton)

		now := time.Now().UTC()
		record := &domain.OutboundRecord{
			ID:                 outboundID,
			ItemCode:           key.ItemCode,
			ItemName:           line.ItemName,
			BatchNo:            key.BatchNo,
			ProductionOrderRef: key.ProductionOrderRef,
			LotRef:             key.LotRef,
			FactoryID:          cmd.FactoryID,
			ShipmentID:         cmd.ShipmentID,
			PushSeq:            pushSeq,
			Quantity:           line.AllocatedQuantity,
			Cartons:            cartons,
			Remainder:          remainder,
			LocationLabel:      line.LocationLabel,
			Notes:              line.Notes,
			Approved:           false,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := record.Validate(); err != nil {
			return domain.NewLineError(key, cmd.ShipmentID, err)
		}
		if err := s.outbound.Save(txCtx, record); err != nil {
			return domain.NewLineError(key, cmd.ShipmentID, err)
		}

		if err := s.lots.DecrementOnHand(txCtx, cmd.FactoryID, key, line.AllocatedQuantity); err != nil {
			return domain.NewLineError(key, cmd.ShipmentID, err)
		}

		export := &domain.ExportRecord{
			ItemCode:           key.ItemCode,
			BatchNo:            key.BatchNo,
			ProductionOrderRef: key.ProductionOrderRef,
			LotRef:             key.LotRef,
			FactoryID:          cmd.FactoryID,
			ShipmentID:         cmd.ShipmentID,
			PushSeq:            pushSeq,
			Quantity:           line.AllocatedQuantity,
			Cartons:            cartons,
			Remainder:          remainder,
			ApprovedAt:         now,
			ApprovedBy:         cmd.ActorID,
			CreatedAt:          now,
		}
		if err := export.Validate(); err != nil {
			return domain.NewLineError(key, cmd.ShipmentID, err)
		}
		if err := s.exports.Save(txCtx, export); err != nil {
			return domain.NewLineError(key, cmd.ShipmentID, err)
		}

		// the approved flag flips only once the ledger effect is applied,
		// inside the same transaction
		if err := s.outbound.SetApproved(txCtx, outboundID, true); err != nil {
			return domain.NewLineError(key, cmd.ShipmentID, err)
		}

		event := s.eventFactory.CreateReservationCommittedEvent(txCtx, cmd.ShipmentID, outboundID, cmd.FactoryID, []cloudevents.AllocationLine{{
			ItemCode:   key.ItemCode,
			BatchNo:    key.BatchNo,
			LocationID: line.LocationLabel,
			Quantity:   line.AllocatedQuantity,
		}})
		outboxEvent, err := outbox.NewOutboxEventFromCloudEvent(outboundID, "outbound", kafka.TopicForEventType(event.Type), event)
		if err != nil {
			return domain.NewLineError(key, cmd.ShipmentID, err)
		}
		return s.outboxRepo.Save(txCtx, outboxEvent)
	})
	if err != nil {
		return "", 0, err
	}
	return outboundID, pushSeq, nil
}

// ReverseReservation undoes one committed outbound record: the export ledger
// entry is deleted, the lot's on-hand is restored and the approved flag flips
// back, all in one transaction. A missing ledger entry aborts with no
// mutation at all and surfaces as a reconciliation conflict.
func (s *ReservationService) ReverseReservation(ctx context.Context, cmd ReverseReservationCommand) (*ReversalResultDTO, error) {
	record, err := s.outbound.FindByID(ctx, cmd.OutboundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load outbound record: %w", err)
	}
	if record == nil || record.FactoryID != cmd.FactoryID {
		return nil, errors.ErrNotFoundWithID("outbound record", cmd.OutboundID)
	}
	if !record.Approved {
		return nil, errors.MapDomainError(domain.ErrNotApproved)
	}

	lotRestored := false

	err = s.transactor.InTransaction(ctx, func(txCtx context.Context) error {
		export, err := s.exports.FindByIdentity(txCtx, cmd.FactoryID, record.Key(), record.ShipmentID, record.PushSeq)
		if err != nil {
			return domain.NewLineError(record.Key(), record.ShipmentID, err)
		}
		if export == nil {
			// recoverable inconsistency: leave the outbound row untouched
			// so the ledger and the flag stay reconcilable by hand
			s.logger.Warn("Export ledger entry missing during reversal",
				"outboundId", record.ID,
				"lot", record.Key().String(),
				"shipmentId", record.ShipmentID,
				"pushSeq", record.PushSeq,
			)
			return domain.NewLineError(record.Key(), record.ShipmentID, domain.ErrMissingLedgerEntry)
		}

		if err := s.exports.Delete(txCtx, export.ID); err != nil {
			return domain.NewLineError(record.Key(), record.ShipmentID, err)
		}

		err = s.lots.IncrementOnHand(txCtx, cmd.FactoryID, record.Key(), record.Quantity)
		switch {
		case goerrors.Is(err, domain.ErrLotNotFound):
			// the lot is gone; restoring stock is skipped, not fatal
			s.logger.Warn("Lot missing during reversal, skipping restock",
				"outboundId", record.ID,
				"lot", record.Key().String(),
			)
		case err != nil:
			return domain.NewLineError(record.Key(), record.ShipmentID, err)
		default:
			lotRestored = true
		}

		if err := s.outbound.SetApproved(txCtx, record.ID, false); err != nil {
			return domain.NewLineError(record.Key(), record.ShipmentID, err)
		}

		event := s.eventFactory.CreateReservationReversedEvent(txCtx, record.ID, cmd.FactoryID, []cloudevents.AllocationLine{{
			ItemCode: record.ItemCode,
			BatchNo:  record.BatchNo,
			Quantity: record.Quantity,
		}})
		outboxEvent, err := outbox.NewOutboxEventFromCloudEvent(record.ID, "outbound", kafka.TopicForEventType(event.Type), event)
		if err != nil {
			return domain.NewLineError(record.Key(), record.ShipmentID, err)
		}
		return s.outboxRepo.Save(txCtx, outboxEvent)
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordReservationReversed(false)
		}
		return nil, errors.MapDomainError(err)
	}

	if s.metrics != nil {
		s.metrics.RecordReservationReversed(true)
	}

	s.logger.Info("Reversed reservation",
		"outboundId", record.ID,
		"shipmentId", record.ShipmentID,
		"quantity", record.Quantity,
		"lotRestored", lotRestored,
	)

	return &ReversalResultDTO{
		OutboundID:  record.ID,
		ItemCode:    record.ItemCode,
		BatchNo:     record.BatchNo,
		Quantity:    record.Quantity,
		LotRestored: lotRestored,
	}, nil
}

// UpdateOutboundQuantity edits an unapproved outbound row's quantity and
// recomputes its packaging numbers
func (s *ReservationService) UpdateOutboundQuantity(ctx context.Context, cmd UpdateOutboundQuantityCommand) (*OutboundRecordDTO, error) {
	if cmd.Quantity <= 0 {
		return nil, errors.ErrValidation("quantity must be positive")
	}

	record, err := s.outbound.FindByID(ctx, cmd.OutboundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load outbound record: %w", err)
	}
	if record == nil || record.FactoryID != cmd.FactoryID {
		return nil, errors.ErrNotFoundWithID("outbound record", cmd.OutboundID)
	}
	if record.Approved {
		return nil, errors.MapDomainError(domain.ErrAlreadyApproved)
	}

	var unitsPerCarton int64
	standard, err := s.packing.FindByItemCode(ctx, cmd.FactoryID, record.ItemCode)
	if err != nil {
		return nil, fmt.Errorf("failed to load packing standard: %w", err)
	}
	if standard != nil {
		unitsPerCarton = standard.UnitsPerCarton
	}
	cartons, remainder := domain.ComputePackaging(cmd.Quantity, unitsPerCarton)

	if err := s.outbound.UpdateQuantity(ctx, record.ID, cmd.Quantity, cartons, remainder); err != nil {
		return nil, fmt.Errorf("failed to update outbound record: %w", err)
	}

	record.Quantity = cmd.Quantity
	record.Cartons = cartons
	record.Remainder = remainder
	dto := ToOutboundRecordDTO(record)
	return &dto, nil
}

// ListOutbound lists outbound rows for a shipment
func (s *ReservationService) ListOutbound(ctx context.Context, query ListOutboundQuery) ([]OutboundRecordDTO, error) {
	records, err := s.outbound.FindByShipment(ctx, query.FactoryID, query.ShipmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list outbound records: %w", err)
	}
	return ToOutboundRecordDTOs(records), nil
}
