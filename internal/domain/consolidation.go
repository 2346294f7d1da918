package domain

import (
	"sort"
	"strings"
)

// ConsolidationGranularity selects the natural key duplicates are grouped by
type ConsolidationGranularity int

const (
	// KeyWithLocation groups by (itemCode, productionOrderRef, locationLabel)
	KeyWithLocation ConsolidationGranularity = iota
	// KeyAcrossLocations collapses multiple locations for the same
	// (itemCode, productionOrderRef) into one record with a joined location list
	KeyAcrossLocations
)

// ConsolidationResult is the outcome of a merge run
type ConsolidationResult struct {
	Merged       []*Lot `json:"merged"`
	GroupsMerged int    `json:"groupsMerged"`
	RowsRemoved  int    `json:"rowsRemoved"`
}

type consolidationKey struct {
	itemCode           string
	productionOrderRef string
	locationLabel      string
}

// ConsolidateLots collapses duplicate lot records sharing a natural key into
// one record per group: quantities and export counters sum, the earliest
// import timestamp and latest expiry win, and free-text fields join with "; "
// skipping empties. Merging an already-merged set returns the same set, and
// the output never has more records than the input.
func ConsolidateLots(lots []*Lot, granularity ConsolidationGranularity) ConsolidationResult {
	groups := make(map[consolidationKey][]*Lot, len(lots))
	order := make([]consolidationKey, 0, len(lots))

	for _, lot := range lots {
		key := consolidationKey{
			itemCode:           NormalizeItemCode(lot.ItemCode),
			productionOrderRef: strings.TrimSpace(lot.ProductionOrderRef),
		}
		if granularity == KeyWithLocation {
			key.locationLabel = strings.TrimSpace(lot.LocationLabel)
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], lot)
	}

	result := ConsolidationResult{
		Merged: make([]*Lot, 0, len(order)),
	}

	for _, key := range order {
		group := groups[key]
		if len(group) == 1 {
			result.Merged = append(result.Merged, group[0])
			continue
		}

		result.GroupsMerged++
		result.RowsRemoved += len(group) - 1
		result.Merged = append(result.Merged, mergeGroup(group, granularity))
	}

	return result
}

// mergeGroup folds a group of duplicates into one record based on the oldest
// import in the group
func mergeGroup(group []*Lot, granularity ConsolidationGranularity) *Lot {
	sort.SliceStable(group, func(i, j int) bool {
		return group[i].ImportedAt.Before(group[j].ImportedAt)
	})

	base := *group[0]
	locations := []string{}
	suppliers := []string{}
	notes := []string{}

	for _, lot := range group {
		if lot != group[0] {
			base.OnHandQuantity += lot.OnHandQuantity
			base.ExportedQuantity += lot.ExportedQuantity
			base.PlannedExportQuantity += lot.PlannedExportQuantity

			if lot.ExpiresAt != nil && (base.ExpiresAt == nil || lot.ExpiresAt.After(*base.ExpiresAt)) {
				expiry := *lot.ExpiresAt
				base.ExpiresAt = &expiry
			}
			if lot.UpdatedAt.After(base.UpdatedAt) {
				base.UpdatedAt = lot.UpdatedAt
			}
		}

		locations = appendDistinct(locations, lot.LocationLabel)
		suppliers = appendDistinct(suppliers, lot.Supplier)
		notes = appendDistinct(notes, lot.Notes)
	}

	if granularity == KeyAcrossLocations {
		base.LocationLabel = strings.Join(locations, "; ")
	}
	base.Supplier = strings.Join(suppliers, "; ")
	base.Notes = strings.Join(notes, "; ")

	return &base
}

// appendDistinct appends a trimmed value unless it is empty or already present
func appendDistinct(values []string, value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return values
	}
	for _, existing := range values {
		if existing == value {
			return values
		}
	}
	return append(values, value)
}
