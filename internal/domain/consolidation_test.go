package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timePtr(t time.Time) *time.Time { return &t }

func duplicateLots() []*Lot {
	early := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	late := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)

	return []*Lot{
		{
			ItemCode:              "B001003",
			ProductionOrderRef:    "PO-1",
			LocationLabel:         "A-01-01-1",
			FactoryID:             "F1",
			OnHandQuantity:        100,
			ExportedQuantity:      20,
			PlannedExportQuantity: 5,
			ImportedAt:            late,
			ExpiresAt:             timePtr(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
			Supplier:              "ACME",
			Notes:                 "first delivery",
		},
		{
			ItemCode:              "b001003",
			ProductionOrderRef:    "PO-1",
			LocationLabel:         "A-01-01-1",
			FactoryID:             "F1",
			OnHandQuantity:        50,
			ExportedQuantity:      10,
			PlannedExportQuantity: 0,
			ImportedAt:            early,
			ExpiresAt:             timePtr(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)),
			Supplier:              "ACME",
			Notes:                 "second delivery",
		},
		{
			ItemCode:           "B001003",
			ProductionOrderRef: "PO-1",
			LocationLabel:      "B-02-01-3",
			FactoryID:          "F1",
			OnHandQuantity:     30,
			ImportedAt:         late,
		},
	}
}

func TestConsolidateLots_WithLocation(t *testing.T) {
	result := ConsolidateLots(duplicateLots(), KeyWithLocation)

	require.Len(t, result.Merged, 2)
	assert.Equal(t, 1, result.GroupsMerged)
	assert.Equal(t, 1, result.RowsRemoved)

	merged := result.Merged[0]
	assert.Equal(t, int64(150), merged.OnHandQuantity)
	assert.Equal(t, int64(30), merged.ExportedQuantity)
	assert.Equal(t, int64(5), merged.PlannedExportQuantity)

	// earliest import wins, latest expiry wins
	assert.Equal(t, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), merged.ImportedAt)
	require.NotNil(t, merged.ExpiresAt)
	assert.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), *merged.ExpiresAt)

	// free text joins with "; ", duplicates skipped
	assert.Equal(t, "ACME", merged.Supplier)
	assert.Equal(t, "second delivery; first delivery", merged.Notes)

	// the other location stays separate at this granularity
	assert.Equal(t, "B-02-01-3", result.Merged[1].LocationLabel)
}

func TestConsolidateLots_AcrossLocations(t *testing.T) {
	result := ConsolidateLots(duplicateLots(), KeyAcrossLocations)

	require.Len(t, result.Merged, 1)
	assert.Equal(t, 1, result.GroupsMerged)
	assert.Equal(t, 2, result.RowsRemoved)

	merged := result.Merged[0]
	assert.Equal(t, int64(180), merged.OnHandQuantity)
	assert.Equal(t, "A-01-01-1; B-02-01-3", merged.LocationLabel)
}

func TestConsolidateLots_Idempotent(t *testing.T) {
	for _, granularity := range []ConsolidationGranularity{KeyWithLocation, KeyAcrossLocations} {
		once := ConsolidateLots(duplicateLots(), granularity)
		twice := ConsolidateLots(once.Merged, granularity)

		assert.Equal(t, once.Merged, twice.Merged)
		assert.Zero(t, twice.GroupsMerged)
		assert.Zero(t, twice.RowsRemoved)
	}
}

func TestConsolidateLots_OutputNeverLargerThanInput(t *testing.T) {
	lots := duplicateLots()
	result := ConsolidateLots(lots, KeyWithLocation)
	assert.LessOrEqual(t, len(result.Merged), len(lots))
}

func TestConsolidateLots_SkipsEmptyFreeText(t *testing.T) {
	lots := []*Lot{
		{ItemCode: "A001001", ProductionOrderRef: "PO-9", Notes: "keep"},
		{ItemCode: "A001001", ProductionOrderRef: "PO-9", Notes: ""},
		{ItemCode: "A001001", ProductionOrderRef: "PO-9", Notes: "  "},
	}

	result := ConsolidateLots(lots, KeyWithLocation)

	require.Len(t, result.Merged, 1)
	assert.Equal(t, "keep", result.Merged[0].Notes)
}
