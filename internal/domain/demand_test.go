package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregateDemand(t *testing.T) {
	lines := []ShipmentLine{
		{ItemCode: "B001003", Quantity: 1500},
		{ItemCode: " b001003 ", Quantity: 500},
		{ItemCode: "P030105", Quantity: 200},
		{ItemCode: "P030105", Quantity: 0},
		{ItemCode: "X999", Quantity: -10},
		{ItemCode: "   ", Quantity: 100},
	}

	demand := AggregateDemand(lines)

	assert.Len(t, demand, 2)
	assert.Equal(t, int64(2000), demand["B001003"])
	assert.Equal(t, int64(200), demand["P030105"])
}

func TestAggregateDemand_Empty(t *testing.T) {
	assert.Empty(t, AggregateDemand(nil))
	assert.Empty(t, AggregateDemand([]ShipmentLine{}))
}
