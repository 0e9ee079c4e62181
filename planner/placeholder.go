package planner

import (
	"fmt"
	"math"

	"mit.edu/dsg/goplan/common"
)

// PlaceholderID reserves a logical resource during planning (a scan cursor, a buffer)
// that is resolved to a physical resource id when the plan is compiled. IDs compare and
// hash by value and carry no ordering meaning.
type PlaceholderID uint64

// InvalidPlaceholder is never handed out by an allocator.
const InvalidPlaceholder PlaceholderID = 0

func (id PlaceholderID) String() string {
	return fmt.Sprintf("ph%d", uint64(id))
}

// PlaceholderAllocator hands out distinct PlaceholderIDs for one planning session.
// Allocation is O(1) and values are never reused by the same allocator. It is not safe
// for concurrent use; planning is single-threaded per session.
type PlaceholderAllocator struct {
	last  uint64
	limit uint64
}

// NewPlaceholderAllocator creates an allocator that hands out at most limit ids.
// A limit of 0 means no limit other than the 64-bit id space.
func NewPlaceholderAllocator(limit uint64) *PlaceholderAllocator {
	if limit == 0 {
		limit = math.MaxUint64
	}
	return &PlaceholderAllocator{limit: limit}
}

// Allocate returns a fresh id, or a ResourceExhaustedError once the limit is reached.
func (a *PlaceholderAllocator) Allocate() (PlaceholderID, error) {
	if a.last >= a.limit {
		return InvalidPlaceholder, common.NewError(common.ResourceExhaustedError,
			"placeholder id space exhausted after %d allocations", a.last)
	}
	a.last++
	return PlaceholderID(a.last), nil
}

// Allocated returns the number of ids handed out so far.
func (a *PlaceholderAllocator) Allocated() uint64 {
	return a.last
}
