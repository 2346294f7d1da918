package domain

import "strconv"

// BatchKey is the sortable tuple parsed out of a batch code. Lower tuples are
// older batches and are consumed first.
type BatchKey struct {
	Week     int
	Middle   int
	Sequence int
}

// Sentinel key for batch codes too short to carry ordering information.
// Sorts after every well-formed key so malformed lots are drawn last.
var sentinelBatchKey = BatchKey{Week: 9999, Middle: 99, Sequence: 9999}

// ParseBatchKey turns an opaque batch code into a BatchKey. Codes shorter than
// six characters get the sentinel key. The first two characters carry the week;
// codes of eight or more characters carry a two-digit middle part and a
// four-digit sequence, shorter ones only a four-digit sequence from offset 2.
// Non-numeric fragments parse to 0. Never fails.
func ParseBatchKey(code string) BatchKey {
	if len(code) < 6 {
		return sentinelBatchKey
	}

	key := BatchKey{
		Week: parseFragment(code[0:2]),
	}

	if len(code) >= 8 {
		key.Middle = parseFragment(code[2:4])
		key.Sequence = parseFragment(code[4:8])
	} else {
		key.Sequence = parseFragment(code[2:6])
	}

	return key
}

// Compare orders two batch keys lexicographically on (week, middle, sequence).
// Negative means k is older than other.
func (k BatchKey) Compare(other BatchKey) int {
	if k.Week != other.Week {
		return k.Week - other.Week
	}
	if k.Middle != other.Middle {
		return k.Middle - other.Middle
	}
	return k.Sequence - other.Sequence
}

func parseFragment(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
