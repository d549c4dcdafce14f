package model

type ChildStats struct {
	ChildName string `json:"child_name"`
	// CompletedPending counts completed tasks not yet settled by a cash-out.
	CompletedPending int    `json:"completed_pending"`
	PendingTasks     int    `json:"pending_tasks"`
	Balance          int    `json:"balance"`
	TotalEarned      int    `json:"total_earned"`
	RecentPending    []Task `json:"recent_pending"`
}

type Stats struct {
	Children       []ChildStats `json:"children"`
	TotalCompleted int          `json:"total_completed"`
	TotalPending   int          `json:"total_pending"`
	TotalBalance   int          `json:"total_balance"`
	TotalPaidOut   int          `json:"total_paid_out"`
	WeekCompleted  int          `json:"week_completed"`
	WeekEarned     int          `json:"week_earned"`
}
