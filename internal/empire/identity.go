package empire

import "sync/atomic"

// IdentityAllocator hands out strictly increasing ids starting at 0.
// Safe for concurrent use.
type IdentityAllocator struct {
	next atomic.Int64
}

// Allocate returns the next id.
func (a *IdentityAllocator) Allocate() int {
	return int(a.next.Add(1) - 1)
}

// empireIDs is shared by every Empire in the process.
var empireIDs IdentityAllocator
