package domain

import (
	"sort"
	"strings"
)

// NormalizeItemCode trims and upper-cases an item code for grouping and matching
func NormalizeItemCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CompareFIFO is the total order used everywhere lots must be consumed oldest
// first: item code case-insensitively, then the batch key tuple ascending.
// The same order is applied when building previews and when decrementing lots
// so two computations over one snapshot agree.
func CompareFIFO(itemA, batchA, itemB, batchB string) int {
	if c := strings.Compare(NormalizeItemCode(itemA), NormalizeItemCode(itemB)); c != 0 {
		return c
	}
	return ParseBatchKey(batchA).Compare(ParseBatchKey(batchB))
}

// SortLotsFIFO sorts lots in place into FIFO consumption order. The sort is
// stable so lots with equal keys keep their snapshot order.
func SortLotsFIFO(lots []*Lot) {
	sort.SliceStable(lots, func(i, j int) bool {
		return CompareFIFO(lots[i].ItemCode, lots[i].BatchNo, lots[j].ItemCode, lots[j].BatchNo) < 0
	})
}

// minPrefixLen guards against over-eager short-prefix matches: a five
// character demand code must not match every lot sharing those characters.
const minPrefixLen = 6

// MatchesItemCode reports whether a candidate lot item code satisfies a demand
// item code. Exact match after normalization, or a prefix relation where the
// shorter code has at least six characters (suffix-variant codes such as a
// base code vs. the same code with a trailing revision marker).
func MatchesItemCode(demandCode, candidateCode string) bool {
	demand := NormalizeItemCode(demandCode)
	candidate := NormalizeItemCode(candidateCode)

	if demand == candidate {
		return true
	}

	shorter, longer := demand, candidate
	if len(candidate) < len(demand) {
		shorter, longer = candidate, demand
	}

	return len(shorter) >= minPrefixLen && strings.HasPrefix(longer, shorter)
}
