package model

import "time"

type Task struct {
	ID          int64      `json:"id"`
	ChildName   string     `json:"child_name"`
	Text        string     `json:"text"`
	Reward      int        `json:"reward"`
	Recurring   bool       `json:"recurring"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// TaskTemplate is one entry of a per-child task list used to generate tasks.
type TaskTemplate struct {
	Text   string `json:"text"`
	Reward int    `json:"reward"`
}
