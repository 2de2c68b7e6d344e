package domain

import "time"

const SchemaVersion = 1

// ActiveSession is a running focus timer. At most one exists per user.
type ActiveSession struct {
	SchemaVersion  int       `json:"schema_version"`
	SessionID      string    `json:"session_id"`
	UserID         string    `json:"user_id"`
	SubjectID      string    `json:"subject_id,omitempty"`
	ChapterID      string    `json:"chapter_id,omitempty"`
	PlannedSeconds int       `json:"planned_seconds,omitempty"`
	StartedAt      time.Time `json:"started_at"`
}

// ElapsedSeconds is the whole seconds between start and now, capped at the
// planned length when one was set. A clock that moved backwards yields 0.
func (a ActiveSession) ElapsedSeconds(now time.Time) int {
	elapsed := int(now.Sub(a.StartedAt) / time.Second)
	if elapsed < 0 {
		return 0
	}
	if a.PlannedSeconds > 0 && elapsed > a.PlannedSeconds {
		return a.PlannedSeconds
	}
	return elapsed
}

// Remaining is the time left on a planned session, never negative.
func (a ActiveSession) Remaining(now time.Time) time.Duration {
	if a.PlannedSeconds <= 0 {
		return 0
	}
	left := a.StartedAt.Add(time.Duration(a.PlannedSeconds) * time.Second).Sub(now)
	if left < 0 {
		return 0
	}
	return left
}
