package model

import "time"

type Child struct {
	Name      string    `json:"name"`
	Stars     int       `json:"stars"`
	CreatedAt time.Time `json:"created_at"`
}
