package models

import (
	"time"
)

// Usage reports a user's daily quota position.
type Usage struct {
	UsedToday      int       `json:"used_today"`
	RemainingToday int       `json:"remaining_today"`
	Ceiling        int       `json:"ceiling"`
	ResetsAt       time.Time `json:"resets_at"`
}

// Reservation is the outcome of an admission attempt against the
// daily quota. When Admitted is false the counter was not incremented.
type Reservation struct {
	Admitted  bool
	UsedToday int
	Remaining int
}

// NextUTCMidnight returns the moment the daily quota resets after t.
func NextUTCMidnight(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}

// UTCDay truncates t to its UTC calendar day. Quota counters are keyed
// by this value, so two calls either side of UTC midnight land on
// different counters.
func UTCDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
