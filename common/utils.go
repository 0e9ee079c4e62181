package common

import "fmt"

// Assert checks a condition and panics if it is false.
//
// WHY USE THIS INSTEAD OF RETURNING ERROR?
// Returning an error is right for conditions that can reasonably happen: a rule that
// does not match, a column that is not in the catalog. Assertions are for invariants:
// truths about the plan that must always hold. If a node is handed the wrong number of
// children, the caller is broken and continuing would silently build a wrong plan.
//
// WHEN TO USE:
// - Checking for "impossible" conditions (e.g., switch default cases that shouldn't be reached).
// - Verifying internal data structure integrity (e.g., a copy receiving the wrong child count).
//
// WHEN NOT TO USE:
// - Structural mismatches during rule matching or column mapping (return "none" instead).
// - Invalid extension configuration (return an InvalidConfigurationError instead).
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}

const (
	offset64 = 14695981039346656037
	prime64  = 1099511628211
)

// Hash computes the FNV-1a 64-bit hash of the provided byte slice without allocation.
func Hash(data []byte) uint64 {
	var h uint64 = offset64
	for _, b := range data {
		h ^= uint64(b)
		h *= prime64
	}
	return h
}
