package models

import "time"

// TaxPeriod is a named date range, typically a fiscal year, against which
// holding tax assessments are raised.
type TaxPeriod struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	CreatedAt time.Time `json:"created_at"`
	Name      string    `json:"name"`
	ID        int64     `json:"id"`
	IsActive  bool      `json:"is_active"`
}

// DateOf truncates t to midnight UTC of its calendar day, matching how DATE
// columns are scanned.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
