package domain

import "sort"

// AllocationLine is one lot draw in a pending-approval allocation preview.
// Ephemeral until a reservation commits it or the preview is discarded.
type AllocationLine struct {
	ItemCode           string `json:"itemCode"`
	ItemName           string `json:"itemName,omitempty"`
	BatchNo            string `json:"batchNo"`
	ProductionOrderRef string `json:"productionOrderRef"`
	LotRef             string `json:"lotRef"`
	FactoryID          string `json:"factoryId"`
	LocationLabel      string `json:"locationLabel,omitempty"`

	AllocatedQuantity int64  `json:"allocatedQuantity"`
	Selected          bool   `json:"selected"`
	Notes             string `json:"notes,omitempty"`
}

// Key returns the referenced lot's identity
func (l *AllocationLine) Key() LotKey {
	return LotKey{
		ItemCode:           l.ItemCode,
		BatchNo:            l.BatchNo,
		ProductionOrderRef: l.ProductionOrderRef,
		LotRef:             l.LotRef,
	}
}

// AllocationResult is the outcome of a FIFO allocation run. Shortages are a
// non-fatal signal: the partial lines are still returned and the caller blocks
// approval until the user acknowledges or adjusts.
type AllocationResult struct {
	Lines     []AllocationLine `json:"lines"`
	Shortages map[string]int64 `json:"shortages"`
}

// FullyCovered reports whether every demand entry was satisfied
func (r *AllocationResult) FullyCovered() bool {
	return len(r.Shortages) == 0
}

// TotalAllocated sums all line quantities
func (r *AllocationResult) TotalAllocated() int64 {
	var total int64
	for i := range r.Lines {
		total += r.Lines[i].AllocatedQuantity
	}
	return total
}

// Allocate greedily spreads demand across lots oldest-first. For each demand
// item (walked in sorted item-code order so runs are deterministic) the
// matching lots for the factory scope are sorted FIFO and drained with
// min(remaining, onHand) draws until the demand is covered or the candidates
// run out. Leftover demand lands in shortages.
//
// Guarantees for every item X:
//
//	sum(line quantities for X) + shortages[X] == demand[X]
//
// and no line quantity ever exceeds the on-hand quantity of its lot in the
// input snapshot.
func Allocate(demand map[string]int64, lots []*Lot, factoryID string) AllocationResult {
	result := AllocationResult{
		Shortages: make(map[string]int64),
	}

	itemCodes := make([]string, 0, len(demand))
	for code := range demand {
		itemCodes = append(itemCodes, code)
	}
	sort.Strings(itemCodes)

	for _, itemCode := range itemCodes {
		remaining := demand[itemCode]
		if remaining <= 0 {
			continue
		}

		candidates := make([]*Lot, 0, len(lots))
		for _, lot := range lots {
			if factoryID != "" && lot.FactoryID != factoryID {
				continue
			}
			if MatchesItemCode(itemCode, lot.ItemCode) {
				candidates = append(candidates, lot)
			}
		}
		SortLotsFIFO(candidates)

		for _, lot := range candidates {
			if remaining <= 0 {
				break
			}
			take := remaining
			if lot.OnHandQuantity < take {
				take = lot.OnHandQuantity
			}
			if take <= 0 {
				continue
			}

			result.Lines = append(result.Lines, AllocationLine{
				ItemCode:           lot.ItemCode,
				ItemName:           lot.ItemName,
				BatchNo:            lot.BatchNo,
				ProductionOrderRef: lot.ProductionOrderRef,
				LotRef:             lot.LotRef,
				FactoryID:          lot.FactoryID,
				LocationLabel:      lot.LocationLabel,
				AllocatedQuantity:  take,
				Selected:           true,
			})
			remaining -= take
		}

		if remaining > 0 {
			result.Shortages[itemCode] = remaining
		}
	}

	return result
}

// AvailableQuantity sums the on-hand quantity of lots matching a demand item
// code within a factory scope. Uses the same matcher as Allocate so the
// sufficiency pre-check and the allocation agree.
func AvailableQuantity(itemCode string, lots []*Lot, factoryID string) int64 {
	var total int64
	for _, lot := range lots {
		if factoryID != "" && lot.FactoryID != factoryID {
			continue
		}
		if MatchesItemCode(itemCode, lot.ItemCode) {
			total += lot.OnHandQuantity
		}
	}
	return total
}
