package models

import "time"

// BackfillStatus is the lifecycle state of a historical generation run.
type BackfillStatus string

const (
	BackfillNotStarted BackfillStatus = "not_started"
	BackfillStarting   BackfillStatus = "starting"
	BackfillRunning    BackfillStatus = "running"
	BackfillCompleted  BackfillStatus = "completed"
	BackfillFailed     BackfillStatus = "failed"
)

// Progress is the polled state blob of the historical batch engine. It is
// overwritten after each simulated day (last writer wins) and read
// non-destructively by any number of observers.
type Progress struct {
	Status        BackfillStatus `json:"status"`
	StartDate     string         `json:"start_date"`
	EndDate       string         `json:"end_date"`
	CurrentDate   string         `json:"current_date"`
	DaysCompleted int            `json:"days_completed"`
	TotalDays     int            `json:"total_days"`
	TotalEvents   int            `json:"total_events"`
	TotalSessions int            `json:"total_sessions"`
	LastUpdate    time.Time      `json:"last_update"`
	RecentOutput  []string       `json:"recent_output_lines"`
	Error         string         `json:"error,omitempty"`
}
