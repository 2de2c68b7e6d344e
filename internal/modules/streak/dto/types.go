package dto

import (
	"time"

	progressiondto "studystreak/internal/modules/progression/dto"
)

type RegisterInput struct {
	UserID string `json:"user_id" validate:"omitempty,max=128"`
}

type CompleteSessionInput struct {
	UserID          string `json:"user_id" validate:"required,max=128"`
	DurationSeconds int    `json:"duration_seconds" validate:"gte=0,lte=86400"`
	SubjectID       string `json:"subject_id,omitempty" validate:"omitempty,max=128"`
	ChapterID       string `json:"chapter_id,omitempty" validate:"omitempty,max=128"`
	SessionID       string `json:"session_id,omitempty" validate:"omitempty,max=128"`
}

type HistoryInput struct {
	UserID string `json:"user_id" validate:"required"`
	Days   int    `json:"days" validate:"gte=0,lte=366"`
}

type FollowInput struct {
	UserID   string `json:"user_id" validate:"required"`
	TargetID string `json:"target_id" validate:"required,nefield=UserID"`
}

type FeedInput struct {
	UserID string `json:"user_id" validate:"required"`
	Limit  int    `json:"limit" validate:"gte=0,lte=200"`
}

type UserOutput struct {
	UserID               string                         `json:"user_id"`
	StreakCurrent        int                            `json:"streak_current"`
	StreakLongest        int                            `json:"streak_longest"`
	LastStudyDate        string                         `json:"last_study_date,omitempty"`
	FrozenStreak         int                            `json:"frozen_streak,omitempty"`
	StreakBreakDate      string                         `json:"streak_break_date,omitempty"`
	BankedSeconds        int                            `json:"banked_seconds"`
	Coins                int                            `json:"coins"`
	TotalStudyMinutes    float64                        `json:"total_study_minutes"`
	TodayStudyMinutes    float64                        `json:"today_study_minutes"`
	CharacterXP          map[string]int                 `json:"character_xp"`
	UnlockedCharacterIDs []string                       `json:"unlocked_character_ids"`
	TotalCharacters      int                            `json:"total_characters"`
	Following            []string                       `json:"following"`
	Followers            []string                       `json:"followers"`
	ActiveCharacter      progressiondto.CharacterOutput `json:"active_character"`
	Level                progressiondto.LevelOutput     `json:"level"`
	CreatedAt            time.Time                      `json:"created_at"`
}

type CompleteSessionOutput struct {
	SessionID     string                          `json:"session_id"`
	NoOp          bool                            `json:"noop"`
	FirstOfDay    bool                            `json:"first_of_day"`
	EarnedCoins   int                             `json:"earned_coins"`
	XPCharacterID string                          `json:"xp_character_id,omitempty"`
	XPEarned      int                             `json:"xp_earned"`
	StreakReset   bool                            `json:"streak_reset"`
	Unlocked      *progressiondto.CharacterOutput `json:"unlocked,omitempty"`
	User          UserOutput                      `json:"user"`
}

type ValidateOutput struct {
	Broken         bool       `json:"broken"`
	Frozen         bool       `json:"frozen"`
	PreviousStreak int        `json:"previous_streak"`
	User           UserOutput `json:"user"`
}

type SyncTodayOutput struct {
	Date    string  `json:"date"`
	Today   float64 `json:"today_minutes"`
	Total   float64 `json:"total_minutes"`
	Written bool    `json:"written"`
}

type SyncXPOutput struct {
	CharacterID string `json:"character_id,omitempty"`
	Amount      int    `json:"amount"`
	Target      int    `json:"target"`
	Current     int    `json:"current"`
}

type DayOutput struct {
	Date     string  `json:"date"`
	Minutes  float64 `json:"minutes"`
	Sessions int     `json:"sessions"`
}

type HistoryOutput struct {
	UserID       string      `json:"user_id"`
	Days         []DayOutput `json:"days"`
	TotalMinutes float64     `json:"total_minutes"`
	ActiveDays   int         `json:"active_days"`
}

type FollowOutput struct {
	Changed bool `json:"changed"`
}

type ActivityOutput struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Kind         string    `json:"kind"`
	Date         string    `json:"date"`
	Minutes      float64   `json:"minutes,omitempty"`
	Streak       int       `json:"streak,omitempty"`
	CharacterID  string    `json:"character_id,omitempty"`
	TargetUserID string    `json:"target_user_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
