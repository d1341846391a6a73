package hooking

// Positions published by the paging engine and the address space.
var (
	HookPosPageMap   = &HookPos{Name: "HookPosPageMap"}
	HookPosPageFault = &HookPos{Name: "HookPosPageFault"}
	HookPosPageEvict = &HookPos{Name: "HookPosPageEvict"}
	HookPosSwapIn    = &HookPos{Name: "HookPosSwapIn"}
	HookPosAlloc     = &HookPos{Name: "HookPosAlloc"}
	HookPosFree      = &HookPos{Name: "HookPosFree"}
	HookPosGrow      = &HookPos{Name: "HookPosGrow"}
)

// PageEvent is the item passed with the page-level positions. SwapType and
// SwapOffset are only meaningful for evictions and swap-ins.
type PageEvent struct {
	Page       uint64
	Frame      uint64
	SwapType   int
	SwapOffset uint64
}

// RegionEvent is the item passed with allocation, free, and growth
// positions. ID is -1 for growth.
type RegionEvent struct {
	ID    int
	SegID int
	Start uint64
	End   uint64
}
