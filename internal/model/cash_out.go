package model

import "time"

// CashOut is a reset event: the child's balance was settled and zeroed.
type CashOut struct {
	ID        int64     `json:"id"`
	ChildName string    `json:"child_name"`
	Amount    int       `json:"amount"`
	ResetAt   time.Time `json:"reset_at"`
}
