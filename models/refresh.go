// models/refresh.go
package models

import "time"

// RefreshStats are the aggregate counts of one refresh run.
type RefreshStats struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// RefreshLog is the append-only audit row written after every completed refresh.
type RefreshLog struct {
	ID             int64     `db:"id" json:"id"`
	RunID          string    `db:"run_id" json:"run_id"`
	TotalCountries int       `db:"total_countries" json:"total_countries"`
	Created        int       `db:"created_count" json:"created"`
	Updated        int       `db:"updated_count" json:"updated"`
	Skipped        int       `db:"skipped_count" json:"skipped"`
	RefreshedAt    time.Time `db:"refreshed_at" json:"refreshed_at"`
}

// RefreshEvent is published after a refresh completes.
type RefreshEvent struct {
	EventType      string    `json:"event_type"`
	RunID          string    `json:"run_id"`
	TotalCountries int       `json:"total_countries"`
	Created        int       `json:"created"`
	Updated        int       `json:"updated"`
	Skipped        int       `json:"skipped"`
	RefreshedAt    time.Time `json:"refreshed_at"`
}
