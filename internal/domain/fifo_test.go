package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchesItemCode(t *testing.T) {
	tests := []struct {
		name      string
		demand    string
		candidate string
		want      bool
	}{
		{
			name:      "exact match",
			demand:    "P030105",
			candidate: "P030105",
			want:      true,
		},
		{
			name:      "case insensitive after normalization",
			demand:    "p030105",
			candidate: "P030105",
			want:      true,
		},
		{
			name:      "trims whitespace",
			demand:    "  P030105 ",
			candidate: "P030105",
			want:      true,
		},
		{
			name:      "demand is prefix of suffix-variant lot code",
			demand:    "P030105",
			candidate: "P030105_B",
			want:      true,
		},
		{
			name:      "lot code is prefix of demand code",
			demand:    "P030105_B",
			candidate: "P030105",
			want:      true,
		},
		{
			name:      "short prefix does not match",
			demand:    "P0301",
			candidate: "P030105",
			want:      false,
		},
		{
			name:      "unrelated codes do not match",
			demand:    "P030105",
			candidate: "B001003",
			want:      false,
		},
		{
			name:      "shared prefix without prefix relation",
			demand:    "P030105",
			candidate: "P030106",
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesItemCode(tt.demand, tt.candidate))
		})
	}
}

func TestCompareFIFO(t *testing.T) {
	// item code groups first, case-insensitively
	assert.Negative(t, CompareFIFO("A001", "250100", "B001", "240100"))
	assert.Zero(t, CompareFIFO("a001", "250100", "A001", "250100"))

	// same item: batch tuple decides
	assert.Negative(t, CompareFIFO("A001", "250100", "A001", "251000"))
	assert.Positive(t, CompareFIFO("A001", "251000", "A001", "250100"))
}

func TestSortLotsFIFO(t *testing.T) {
	lots := []*Lot{
		{ItemCode: "B001003", BatchNo: "251000", OnHandQuantity: 10},
		{ItemCode: "A001", BatchNo: "259900", OnHandQuantity: 5},
		{ItemCode: "B001003", BatchNo: "250100", OnHandQuantity: 20},
	}

	SortLotsFIFO(lots)

	require.Len(t, lots, 3)
	assert.Equal(t, "A001", lots[0].ItemCode)
	assert.Equal(t, "250100", lots[1].BatchNo)
	assert.Equal(t, "251000", lots[2].BatchNo)
}

func TestSortLotsFIFO_StableForEqualKeys(t *testing.T) {
	// codes shorter than six characters share the sentinel key, so the
	// snapshot order must survive the sort
	lots := []*Lot{
		{ItemCode: "B001003", BatchNo: "2501", LotRef: "first"},
		{ItemCode: "B001003", BatchNo: "2510", LotRef: "second"},
	}

	SortLotsFIFO(lots)

	assert.Equal(t, "first", lots[0].LotRef)
	assert.Equal(t, "second", lots[1].LotRef)
}
