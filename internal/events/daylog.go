// Package events defines the payloads published for downstream consumers
// (reporting, habit streaks) whenever a day ledger changes.
package events

import "time"

// DayLogSaved is emitted after every whole-value save of a day ledger.
type DayLogSaved struct {
	UserID        string    `json:"user_id"`
	Date          string    `json:"date"`
	ActivityCount int       `json:"activity_count"`
	TotalMinutes  int       `json:"total_minutes"`
	Analyzed      bool      `json:"analyzed"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// DayLogAnalyzed is emitted when an insight has been generated for a day.
type DayLogAnalyzed struct {
	UserID     string    `json:"user_id"`
	Date       string    `json:"date"`
	OccurredAt time.Time `json:"occurred_at"`
}
