package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func factoryLots() []*Lot {
	return []*Lot{
		{ItemCode: "B001003", BatchNo: "2501", ProductionOrderRef: "PO-1", LotRef: "L1", FactoryID: "F1", OnHandQuantity: 1500},
		{ItemCode: "B001003", BatchNo: "2510", ProductionOrderRef: "PO-2", LotRef: "L2", FactoryID: "F1", OnHandQuantity: 1000},
	}
}

func TestAllocate_DrainsOldestLotFirst(t *testing.T) {
	demand := map[string]int64{"B001003": 2000}

	result := Allocate(demand, factoryLots(), "F1")

	require.Len(t, result.Lines, 2)
	assert.Empty(t, result.Shortages)
	assert.True(t, result.FullyCovered())

	assert.Equal(t, "2501", result.Lines[0].BatchNo)
	assert.Equal(t, int64(1500), result.Lines[0].AllocatedQuantity)
	assert.Equal(t, "2510", result.Lines[1].BatchNo)
	assert.Equal(t, int64(500), result.Lines[1].AllocatedQuantity)
	assert.True(t, result.Lines[0].Selected)
}

func TestAllocate_RecordsShortage(t *testing.T) {
	demand := map[string]int64{"B001003": 2600}

	result := Allocate(demand, factoryLots(), "F1")

	require.Len(t, result.Lines, 2)
	assert.Equal(t, int64(1500), result.Lines[0].AllocatedQuantity)
	assert.Equal(t, int64(1000), result.Lines[1].AllocatedQuantity)
	assert.Equal(t, int64(100), result.Shortages["B001003"])
	assert.False(t, result.FullyCovered())
}

func TestAllocate_Conservation(t *testing.T) {
	lots := []*Lot{
		{ItemCode: "B001003", BatchNo: "250100", FactoryID: "F1", OnHandQuantity: 300},
		{ItemCode: "B001003", BatchNo: "251000", FactoryID: "F1", OnHandQuantity: 200},
		{ItemCode: "P030105", BatchNo: "250200", FactoryID: "F1", OnHandQuantity: 50},
	}
	demand := map[string]int64{
		"B001003": 450,
		"P030105": 80,
		"X999999": 10,
	}

	result := Allocate(demand, lots, "F1")

	// sum(allocated) + shortage == demand, per item
	allocated := map[string]int64{}
	for _, line := range result.Lines {
		allocated[NormalizeItemCode(line.ItemCode)] += line.AllocatedQuantity
	}
	for itemCode, required := range demand {
		assert.Equal(t, required, allocated[itemCode]+result.Shortages[itemCode], itemCode)
	}

	// no line exceeds its lot's snapshot on-hand
	onHand := map[LotKey]int64{}
	for _, lot := range lots {
		onHand[lot.Key()] = lot.OnHandQuantity
	}
	for _, line := range result.Lines {
		assert.LessOrEqual(t, line.AllocatedQuantity, onHand[line.Key()])
	}
}

func TestAllocate_MatcherWidensLotSearch(t *testing.T) {
	lots := []*Lot{
		{ItemCode: "P030105_B", BatchNo: "250100", FactoryID: "F1", OnHandQuantity: 120},
	}

	result := Allocate(map[string]int64{"P030105": 100}, lots, "F1")

	require.Len(t, result.Lines, 1)
	assert.Equal(t, "P030105_B", result.Lines[0].ItemCode)
	assert.Equal(t, int64(100), result.Lines[0].AllocatedQuantity)
	assert.Empty(t, result.Shortages)
}

func TestAllocate_ShortPrefixDoesNotMatch(t *testing.T) {
	lots := []*Lot{
		{ItemCode: "P030105", BatchNo: "250100", FactoryID: "F1", OnHandQuantity: 120},
	}

	result := Allocate(map[string]int64{"P0301": 100}, lots, "F1")

	assert.Empty(t, result.Lines)
	assert.Equal(t, int64(100), result.Shortages["P0301"])
}

func TestAllocate_FactoryScopeFilter(t *testing.T) {
	lots := []*Lot{
		{ItemCode: "B001003", BatchNo: "250100", FactoryID: "F1", OnHandQuantity: 500},
		{ItemCode: "B001003", BatchNo: "240100", FactoryID: "F2", OnHandQuantity: 500},
	}

	result := Allocate(map[string]int64{"B001003": 600}, lots, "F1")

	require.Len(t, result.Lines, 1)
	assert.Equal(t, "F1", result.Lines[0].FactoryID)
	assert.Equal(t, int64(500), result.Lines[0].AllocatedQuantity)
	assert.Equal(t, int64(100), result.Shortages["B001003"])
}

func TestAllocate_SkipsEmptyLots(t *testing.T) {
	lots := []*Lot{
		{ItemCode: "B001003", BatchNo: "250100", FactoryID: "F1", OnHandQuantity: 0},
		{ItemCode: "B001003", BatchNo: "251000", FactoryID: "F1", OnHandQuantity: 50},
	}

	result := Allocate(map[string]int64{"B001003": 30}, lots, "F1")

	require.Len(t, result.Lines, 1)
	assert.Equal(t, "251000", result.Lines[0].BatchNo)
}

func TestAllocate_DeterministicAcrossRuns(t *testing.T) {
	lots := factoryLots()
	demand := map[string]int64{"B001003": 1800}

	first := Allocate(demand, lots, "F1")
	second := Allocate(demand, lots, "F1")

	assert.Equal(t, first, second)
}

func TestAvailableQuantity(t *testing.T) {
	lots := []*Lot{
		{ItemCode: "P030105", FactoryID: "F1", OnHandQuantity: 100},
		{ItemCode: "P030105_B", FactoryID: "F1", OnHandQuantity: 50},
		{ItemCode: "P030105", FactoryID: "F2", OnHandQuantity: 999},
		{ItemCode: "B001003", FactoryID: "F1", OnHandQuantity: 10},
	}

	assert.Equal(t, int64(150), AvailableQuantity("P030105", lots, "F1"))
	assert.Equal(t, int64(0), AvailableQuantity("X999999", lots, "F1"))
}
