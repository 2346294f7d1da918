package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/export-service/internal/domain"
	"github.com/wms-platform/export-service/pkg/cloudevents"
	"github.com/wms-platform/export-service/pkg/errors"
)

func newAllocationService(lines []domain.ShipmentLine, lots ...*domain.Lot) (*AllocationService, *fakeOutboxRepo) {
	outboxRepo := &fakeOutboxRepo{}
	service := NewAllocationService(
		&fakeLotRepo{lots: lots},
		&fakeShipmentRepo{lines: lines},
		outboxRepo,
		cloudevents.NewEventFactory(cloudevents.SourceExport),
		nil,
		testLogger(),
	)
	return service, outboxRepo
}

func openLine(shipmentID, itemCode string, quantity int64) domain.ShipmentLine {
	return domain.ShipmentLine{
		ShipmentID: shipmentID,
		FactoryID:  "F01",
		ItemCode:   itemCode,
		Quantity:   quantity,
		Status:     domain.ShipmentLineStatusOpen,
	}
}

func TestGetDemand(t *testing.T) {
	service, _ := newAllocationService([]domain.ShipmentLine{
		openLine("SH-001", "P030105", 800),
		openLine("SH-001", "p030105", 400),
		openLine("SH-001", "P040201", 200),
	})

	dto, err := service.GetDemand(context.Background(), GetDemandQuery{
		ShipmentID: "SH-001",
		FactoryID:  "F01",
		Status:     domain.ShipmentLineStatusOpen,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, dto.LineCount)
	assert.Equal(t, int64(1200), dto.Items["P030105"])
	assert.Equal(t, int64(200), dto.Items["P040201"])
}

func TestGetDemand_UnknownShipment(t *testing.T) {
	service, _ := newAllocationService(nil)

	_, err := service.GetDemand(context.Background(), GetDemandQuery{
		ShipmentID: "SH-404",
		FactoryID:  "F01",
	})
	require.Error(t, err)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeNotFound, appErr.Code)
}

func TestBuildAllocation(t *testing.T) {
	lines := []domain.ShipmentLine{openLine("SH-001", "P030105", 2000)}
	service, outboxRepo := newAllocationService(lines,
		seedLot("P030105", "P030105001", 1500),
		seedLot("P030105", "P030105002", 1000),
	)

	dto, err := service.BuildAllocation(context.Background(), BuildAllocationCommand{
		ShipmentID: "SH-001",
		FactoryID:  "F01",
	})
	require.NoError(t, err)
	assert.True(t, dto.FullyCovered)
	require.Len(t, dto.Lines, 2)
	assert.Equal(t, int64(1500), dto.Lines[0].AllocatedQuantity)
	assert.Equal(t, int64(500), dto.Lines[1].AllocatedQuantity)
	assert.Empty(t, dto.Shortages)

	require.Len(t, outboxRepo.events, 1)
	assert.Equal(t, cloudevents.AllocationBuilt, outboxRepo.events[0].EventType)
	assert.Equal(t, "SH-001", outboxRepo.events[0].AggregateID)
}

func TestBuildAllocation_Shortage(t *testing.T) {
	lines := []domain.ShipmentLine{openLine("SH-001", "P030105", 3000)}
	service, outboxRepo := newAllocationService(lines,
		seedLot("P030105", "P030105001", 1500),
		seedLot("P030105", "P030105002", 1000),
	)

	dto, err := service.BuildAllocation(context.Background(), BuildAllocationCommand{
		ShipmentID: "SH-001",
		FactoryID:  "F01",
	})
	require.NoError(t, err)
	assert.False(t, dto.FullyCovered)
	assert.Equal(t, int64(500), dto.Shortages["P030105"])

	// a shortage flips the queued event type so planners can alert on it
	require.Len(t, outboxRepo.events, 1)
	assert.Equal(t, cloudevents.AllocationShortage, outboxRepo.events[0].EventType)
}

func TestCheckAvailability(t *testing.T) {
	service, _ := newAllocationService(nil,
		seedLot("P030105", "P030105001", 1500),
		seedLot("P030105_B", "P030105050", 300),
		seedLot("P040201", "P040201001", 999),
	)

	dto, err := service.CheckAvailability(context.Background(), AvailabilityQuery{
		FactoryID: "F01",
		ItemCode:  "p030105",
		Required:  2000,
	})
	require.NoError(t, err)
	// the suffix-variant lot counts toward the same demand code
	assert.Equal(t, int64(1800), dto.Available)
	assert.False(t, dto.Sufficient)
	assert.Equal(t, int64(200), dto.Shortfall)
	assert.Equal(t, "P030105", dto.ItemCode)
}

func TestCheckAvailability_Sufficient(t *testing.T) {
	service, _ := newAllocationService(nil, seedLot("P030105", "P030105001", 1500))

	dto, err := service.CheckAvailability(context.Background(), AvailabilityQuery{
		FactoryID: "F01",
		ItemCode:  "P030105",
		Required:  1000,
	})
	require.NoError(t, err)
	assert.True(t, dto.Sufficient)
	assert.Zero(t, dto.Shortfall)
}

func TestListLots(t *testing.T) {
	service, _ := newAllocationService(nil,
		seedLot("P030105", "P030105001", 1500),
		seedLot("P040201", "P040201001", 999),
	)

	all, err := service.ListLots(context.Background(), ListLotsQuery{FactoryID: "F01"})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	narrowed, err := service.ListLots(context.Background(), ListLotsQuery{
		FactoryID: "F01",
		ItemCode:  "P030105",
	})
	require.NoError(t, err)
	require.Len(t, narrowed, 1)
	assert.Equal(t, "P030105", narrowed[0].ItemCode)
}
