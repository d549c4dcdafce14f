package model

import "time"

type Prize struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Cost      int       `json:"cost"`
	CreatedAt time.Time `json:"created_at"`
}
