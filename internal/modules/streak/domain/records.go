package domain

import (
	"time"

	"studystreak/internal/platform/calendar"
)

// SessionEntry is one immutable ledger line per finished focus session.
type SessionEntry struct {
	ID              string       `json:"id"`
	UserID          string       `json:"user_id"`
	Date            calendar.Day `json:"date"`
	DurationSeconds int          `json:"duration_seconds"`
	SubjectID       string       `json:"subject_id,omitempty"`
	ChapterID       string       `json:"chapter_id,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}

type ActivityKind string

const (
	ActivitySessionCompleted ActivityKind = "session_completed"
	ActivityLevelUp          ActivityKind = "level_up"
	ActivityStreakRepaired   ActivityKind = "streak_repaired"
	ActivityFollowed         ActivityKind = "followed"
)

type Activity struct {
	ID           string       `json:"id"`
	UserID       string       `json:"user_id"`
	Kind         ActivityKind `json:"kind"`
	Date         calendar.Day `json:"date"`
	Minutes      float64      `json:"minutes,omitempty"`
	Streak       int          `json:"streak,omitempty"`
	CharacterID  string       `json:"character_id,omitempty"`
	TargetUserID string       `json:"target_user_id,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// DaySummary is one point of the study history series.
type DaySummary struct {
	Date     calendar.Day
	Minutes  float64
	Sessions int
}

// SumSeconds totals the durations of entries.
func SumSeconds(entries []SessionEntry) int {
	total := 0
	for _, e := range entries {
		total += e.DurationSeconds
	}
	return total
}
