package statemachine

// CatalogEntry 状态目录的种子条目
// 数据库中的 order_states 表由这里派生,保证目录与转换表一致
type CatalogEntry struct {
	Code         string
	Name         string
	IsTerminal   bool
	DisplayOrder int
}

// Catalog 返回与转换表一致的状态目录条目
func Catalog() []CatalogEntry {
	return []CatalogEntry{
		{Code: StateScheduled, Name: "Scheduled", IsTerminal: false, DisplayOrder: 1},
		{Code: StateAssigned, Name: "Assigned", IsTerminal: false, DisplayOrder: 2},
		{Code: StateInProgress, Name: "In progress", IsTerminal: false, DisplayOrder: 3},
		{Code: StateWaitingParts, Name: "Waiting for parts", IsTerminal: false, DisplayOrder: 4},
		{Code: StateCompleted, Name: "Completed", IsTerminal: false, DisplayOrder: 5},
		{Code: StateApproved, Name: "Approved", IsTerminal: true, DisplayOrder: 6},
		{Code: StateCancelled, Name: "Cancelled", IsTerminal: true, DisplayOrder: 7},
	}
}
